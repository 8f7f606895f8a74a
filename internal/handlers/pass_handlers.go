package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gatehouse/gatepass/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ListPending returns host-approved requests awaiting security review,
// soonest visit first.
func (h *Handlers) ListPending(w http.ResponseWriter, r *http.Request) {
	visits, err := h.visitService.ListPendingSecurity(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"visits": visits,
		"count":  len(visits),
	})
}

// ApprovePass issues an entry permit for a host-approved request.
func (h *Handlers) ApprovePass(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid visit request ID", "INVALID_INPUT")
		return
	}

	security := currentUser(r)
	issued, err := h.passService.Approve(r.Context(), id, security.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Entry permit created successfully",
		"pass":           issued.Pass,
		"validity_hours": issued.ValidityHours,
		"visit_request":  issued.Visit,
	})
}

// RejectPass rejects a request at the security stage. A reason is
// required.
func (h *Handlers) RejectPass(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid visit request ID", "INVALID_INPUT")
		return
	}

	var req domain.RejectVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	security := currentUser(r)
	visit, err := h.visitService.RejectBySecurity(r.Context(), id, security.ID, req.Reason)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Visit request rejected by security",
		"visit":   visit,
	})
}

// CheckIn marks a pass as used and opens a traffic log entry.
func (h *Handlers) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	security := currentUser(r)
	result, err := h.passService.CheckIn(r.Context(), req.Code, security.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Check-in registered successfully",
		"traffic_log": result.Traffic,
		"pass":        result.Pass,
	})
}

// CheckOut closes the traffic log entry for a checked-in pass.
func (h *Handlers) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	result, err := h.passService.CheckOut(r.Context(), req.Code)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Check-out registered successfully",
		"traffic_log": result.Traffic,
		"pass":        result.Pass,
	})
}

// GetPassByCode returns the pass with its derived status.
func (h *Handlers) GetPassByCode(w http.ResponseWriter, r *http.Request) {
	result, err := h.passService.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pass":   result.Pass,
		"status": result.Status,
	})
}
