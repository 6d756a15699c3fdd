// Package auth authenticates API callers.
//
// Callers send "Authorization: Bearer <token>" where the token is either a
// short-lived JWT access token issued by the login endpoint or a
// long-lived API token issued by the token endpoint. Only the SHA-256 hash
// of an API token is stored.
//
// The middleware resolves the token to a user and stores the user id and
// optional publisher id in the gin context; read them with GetUserID and
// GetPublisherID.
package auth
