// Package auth guards the relay's admin surface.
//
// APIKeyMiddleware(mode, header, key) wraps an http.Handler (admin REST API
// and /metrics). APIKeyInterceptor(mode, header, key) returns a gRPC
// UnaryServerInterceptor for the health service.
//
// When mode != "apikey" or key == "", all calls pass through (useful for local
// development with auth disabled). A missing or incorrect key is rejected with
// 401 Unauthorized or codes.Unauthenticated.
//
// The relay WebSocket endpoint is never wrapped: user identity is established
// upstream and trusted as supplied.
package auth
