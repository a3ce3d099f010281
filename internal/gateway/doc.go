// Package gateway assembles and runs scribe-gateway.
//
// New wires the configuration into the running system:
//
//	config -> store (SQLite)
//	       -> model client (OpenAI-compatible endpoint, or canned dev replies)
//	       -> push channel (in-process WebSocket hub, or NATS for an edge relay)
//	       -> classifier, pipelines and tasks -> turn orchestrator
//	       -> HTTP API
//
// Run serves until its context is cancelled and then shuts down gracefully:
// the HTTP server stops accepting work, in-flight websocket turns get a chance
// to finish, and the hub, NATS connection and store are closed in that order.
//
// With llm.provider set to "mock" the gateway runs without an inference
// endpoint. Classification then follows text shape: a trailing question mark
// is a question, a long text is a submission, anything else is deflected.
package gateway
