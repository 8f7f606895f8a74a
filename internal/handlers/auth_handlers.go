package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gatehouse/gatepass/internal/domain"
)

// Register handles new visitor sign-up. Every self-registered account
// starts as a guest.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	resp, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "Registration successful",
		"token":      resp.Token,
		"expires_in": resp.ExpiresIn,
		"user":       resp.User,
	})
}

// Login handles user authentication
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	resp, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Logout blacklists the presented token.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := h.authService.Logout(r.Context(), currentToken(r), user.ID); err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// Me returns the current user's profile.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user": user.ToUserInfo(),
	})
}
