package httpapi

import (
	"net/http"
	"time"

	"taskdesk/server/internal/auth"
	"taskdesk/server/internal/db"
)

func (s *Server) registerAuthRoutes() {
	s.mux.HandleFunc("/api/v1/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/v1/auth/login", s.handleLogin)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	var req registerRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid JSON body")
		return
	}
	if len(req.Password) < auth.MinPasswordLength {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "password must be at least 8 characters")
		return
	}
	hashed, err := auth.HashPassword(req.Password, s.deps.BcryptCost)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	user, err := s.deps.Users.CreateUser(r.Context(), req.Email, hashed)
	if err != nil {
		s.respondStoreError(w, err)
		return
	}
	token, expires, err := s.deps.Tokens.IssueToken(user.ID)
	if err != nil {
		s.log.Error("token issue failed", "error", err)
		respondError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal error")
		return
	}
	s.log.Info("user registered", "user_id", user.ID)
	respondCreated(w, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_at":   expires.UTC().Format(time.RFC3339),
		"user":         userPayload(user),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid JSON body")
		return
	}

	// A missing account and a wrong password answer identically so login
	// cannot be used to probe which emails exist.
	user, err := s.deps.Users.GetUserByEmail(r.Context(), req.Email)
	if err != nil || !auth.VerifyPassword(req.Password, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "AUTH_FAILED", "invalid email or password")
		return
	}
	token, expires, err := s.deps.Tokens.IssueToken(user.ID)
	if err != nil {
		s.log.Error("token issue failed", "error", err)
		respondError(w, http.StatusInternalServerError, "SERVER_ERROR", "internal error")
		return
	}
	respondOK(w, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_at":   expires.UTC().Format(time.RFC3339),
		"user":         userPayload(user),
	})
}

func userPayload(user *db.User) map[string]any {
	return map[string]any{
		"user_id":    user.ID,
		"email":      user.Email,
		"created_at": user.CreatedAt.UTC().Format(time.RFC3339),
	}
}
