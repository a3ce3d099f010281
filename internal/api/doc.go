// Package api exposes the gateway over HTTP.
//
// Routes:
//
//	POST   /api/turns               run a turn, optionally streaming to a connection
//	POST   /api/tasks/:task         run a direct task (rephrase, extract_customer)
//	GET    /api/sessions/:id/messages
//	DELETE /api/sessions/:id
//	GET    /ws?SessionId=...        WebSocket push connection
//	GET    /health
//	GET    /metrics
//
// A WebSocket client first receives {"statusCode":200,"connectionId":"..."}
// and then sends frames whose action is a guideline set name, a task name, or
// "default" to keep the socket alive.
package api
