package httpapi

import (
	"net/http"
	"strings"

	"taskdesk/server/internal/auth"
)

// publicPaths are reachable without credentials. Everything else passes
// through token verification before any handler runs.
var publicPaths = map[string]struct{}{
	"/healthz":              {},
	"/api/v1/auth/register": {},
	"/api/v1/auth/login":    {},
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := publicPaths[r.URL.Path]; ok {
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "AUTH_FAILED", "missing credentials")
			return
		}
		userID, err := s.deps.Tokens.VerifyToken(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "AUTH_FAILED", "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
	})
}

// bearerToken extracts the credential from the Authorization header. Only the
// websocket endpoint may fall back to the token query parameter, since browser
// websocket clients cannot set headers and query strings end up in access logs.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(header, prefix))
	}
	if r.URL.Path == "/ws" {
		return strings.TrimSpace(r.URL.Query().Get("token"))
	}
	return ""
}

// requireUserID reads the verified identity the gate attached. A miss means
// a route was registered outside the gate by mistake.
func (s *Server) requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		s.log.Error("authenticated route reached without identity", "path", r.URL.Path)
		respondError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal error")
		return "", false
	}
	return userID, true
}
