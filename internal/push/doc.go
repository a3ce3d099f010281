// Package push delivers streamed response fragments to clients.
//
// # Fragments
//
// Every piece of text is sent as JSON:
//
//	{"action": "achievement", "message_id": "...", "text": "partial text"}
//
// After the last fragment the text "<END>" is sent; a failed response sends
// "<ERROR>" followed by a message instead.
//
// # Channels
//
//   - Hub: connections served in-process over gorilla/websocket
//   - NATSChannel: publishes to <prefix>.<connectionID> for an external relay
//
// Sink sits in front of a Channel. Delivery is best effort: failures are logged
// and counted, and the turn that produced the text carries on.
package push
