package api

import (
	"context"
	"net/http"

	"github.com/erazemk/najdeno/internal/match"
	"github.com/erazemk/najdeno/internal/model"
)

// AdminHandler handles the administrator's review endpoints.
type AdminHandler struct {
	Workflow *match.Workflow
}

// ListItems handles GET /api/admin/items: every lost report with its
// candidates.
func (h *AdminHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Workflow.ListAllCandidates(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, items)
}

// Candidates handles GET /api/admin/items/{id}/candidates.
func (h *AdminHandler) Candidates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	lost, err := h.Workflow.ListCandidates(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, lost)
}

// ListFound handles GET /api/admin/found-items.
func (h *AdminHandler) ListFound(w http.ResponseWriter, r *http.Request) {
	items, err := h.Workflow.ListFound(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// ApproveItem handles PUT /api/admin/items/{id}/approve.
func (h *AdminHandler) ApproveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Workflow.ApproveItem(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// ApproveMatch handles PUT /api/admin/items/{id}/approve-match/{matchId}.
func (h *AdminHandler) ApproveMatch(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Workflow.ApproveMatch)
}

// RejectMatch handles PUT /api/admin/items/{id}/reject-match/{matchId}.
func (h *AdminHandler) RejectMatch(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Workflow.RejectMatch)
}

// RevertMatch handles PUT /api/admin/items/{id}/revert-match/{matchId}.
func (h *AdminHandler) RevertMatch(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Workflow.RevertMatch)
}

func (h *AdminHandler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, int64) (*match.Pair, error)) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	matchID, ok := pathID(r, "matchId")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid match id")
		return
	}

	pair, err := fn(r.Context(), id, matchID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, pair)
}
