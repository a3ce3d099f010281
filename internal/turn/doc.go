// Package turn orchestrates a user turn from classification to recorded
// history.
//
// A turn moves through classifying, routed and streaming before it ends as
// completed or failed. Only submissions and questions are written to the
// session history, as a user message followed by an assistant message, and
// only after the response was fully generated. Work continues when the
// caller goes away; pushes to a departed client are dropped by the sink.
package turn
