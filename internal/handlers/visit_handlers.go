package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gatehouse/gatepass/internal/domain"
)

// CreateVisit lets a guest request a visit to a host, addressed by the
// host's email.
func (h *Handlers) CreateVisit(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format", "INVALID_INPUT")
		return
	}

	guest := currentUser(r)
	visit, err := h.visitService.Create(r.Context(), guest.ID, &req)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Visit request created successfully",
		"visit":   visit,
	})
}

// ListMyVisits returns the current guest's visit requests, newest first.
func (h *Handlers) ListMyVisits(w http.ResponseWriter, r *http.Request) {
	guest := currentUser(r)

	visits, err := h.visitService.ListForGuest(r.Context(), guest.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"visits": visits,
		"count":  len(visits),
	})
}

// ListHostVisits returns requests assigned to the current host, with an
// optional ?status= filter.
func (h *Handlers) ListHostVisits(w http.ResponseWriter, r *http.Request) {
	host := currentUser(r)

	visits, err := h.visitService.ListForHost(r.Context(), host.ID, r.URL.Query().Get("status"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"visits": visits,
		"count":  len(visits),
	})
}

// ApproveVisit moves a request from host review to the security queue.
func (h *Handlers) ApproveVisit(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid visit request ID", "INVALID_INPUT")
		return
	}

	host := currentUser(r)
	visit, err := h.visitService.ApproveByHost(r.Context(), id, host.ID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Visit request approved successfully",
		"visit":   visit,
	})
}

// RejectVisit rejects a request still under host review. A reason is
// required.
func (h *Handlers) RejectVisit(w http.ResponseWriter, r *http.Request) {
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

	host := currentUser(r)
	visit, err := h.visitService.RejectByHost(r.Context(), id, host.ID, req.Reason)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Visit request rejected",
		"visit":   visit,
	})
}
