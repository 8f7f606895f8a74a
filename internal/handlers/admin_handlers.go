package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gatehouse/gatepass/internal/domain"
)

// ListUsers returns all accounts, paginated.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	users, err := h.authService.ListUsers(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	infos := make([]*domain.UserInfo, 0, len(users))
	for i := range users {
		infos = append(infos, users[i].ToUserInfo())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": infos,
		"count": len(infos),
	})
}

// UpdateUserRole changes an account's role. The change takes effect on
// the user's next request.
func (h *Handlers) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID", "INVALID_INPUT")
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	user, err := h.authService.UpdateUserRole(r.Context(), id, req.Role)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User role updated successfully",
		"user":    user.ToUserInfo(),
	})
}

// AuditReport returns every visit request with its decision trail and
// pass, newest first.
func (h *Handlers) AuditReport(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	entries, err := h.reportService.Audit(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// PresentReport lists visitors currently on the premises.
func (h *Handlers) PresentReport(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reportService.PresentNow(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"present": entries,
		"count":   len(entries),
	})
}

// Stats returns aggregate counters read from a single snapshot.
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportService.Stats(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats": stats,
	})
}
