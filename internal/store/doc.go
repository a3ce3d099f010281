// Package store provides persistent conversation history for scribe-gateway.
//
// # Architecture
//
// ConversationStore is the only interface. A session is an opaque string id that
// owns an ordered, append-only list of messages. Sessions are created lazily by the
// first append and removed only through ClearHistory.
//
// Implementations:
//
//   - SQLiteStore: modernc.org/sqlite, one messages table ordered by an
//     autoincrement sequence column
//   - MockStore: in-memory, with injectable failures and call counters for tests
//
// # Errors
//
// Storage engine failures wrap ErrStore:
//
//	history, err := s.GetHistory(ctx, sessionID)
//	if errors.Is(err, store.ErrStore) {
//	    // degrade or report
//	}
//
// An unknown session is not an error; GetHistory returns an empty slice.
package store
