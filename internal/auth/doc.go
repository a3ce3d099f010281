// Package auth authenticates gateway clients.
//
// Clients present an HS256 JWT signed with the configured jwt_secret, either
// as a bearer token:
//
//	Authorization: Bearer <token>
//
// or, where headers cannot be set such as a browser websocket upgrade, as the
// Auth query parameter:
//
//	/ws?SessionId=abc&Auth=<token>
//
// Tokens are issued with:
//
//	v, err := NewJWTVerifier(secret)
//	token, err := v.Generate(userID, 24*time.Hour)
//
// The authenticated user is available to handlers through FromContext.
package auth
