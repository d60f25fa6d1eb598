package api

import (
	"net/http"

	"github.com/erazemk/najdeno/internal/chat"
	"github.com/erazemk/najdeno/internal/model"
)

// ChatsHandler handles chat endpoints.
type ChatsHandler struct {
	Chats *chat.Service
}

type startChatRequest struct {
	OtherUserID int64  `json:"otherUserId"`
	ItemID      *int64 `json:"itemId"`
}

type sendMessageRequest struct {
	Message string `json:"message"`
}

// List handles GET /api/chats.
func (h *ChatsHandler) List(w http.ResponseWriter, r *http.Request) {
	chats, err := h.Chats.ListChatsFor(r.Context(), GetClaims(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, chats)
}

// Start handles POST /api/chats.
func (h *ChatsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startChatRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OtherUserID <= 0 {
		jsonError(w, http.StatusBadRequest, "otherUserId required")
		return
	}

	c, err := h.Chats.StartChat(r.Context(), GetClaims(r.Context()).Identity(), req.OtherUserID, req.ItemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// Messages handles GET /api/chats/{id}/messages.
func (h *ChatsHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid chat id")
		return
	}

	msgs, err := h.Chats.ListMessages(r.Context(), id, GetClaims(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	jsonResponse(w, http.StatusOK, msgs)
}

// Send handles POST /api/chats/{id}/messages.
func (h *ChatsHandler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid chat id")
		return
	}

	var req sendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := h.Chats.SendMessage(r.Context(), id, GetClaims(r.Context()).Identity(), req.Message)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, msg)
}
