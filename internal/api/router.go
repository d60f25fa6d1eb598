package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/chat"
	"github.com/erazemk/najdeno/internal/match"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/notify"
)

// Deps are the services behind the API.
type Deps struct {
	DB            *sql.DB
	JWTSecret     string
	Workflow      *match.Workflow
	Notifications *notify.Service
	Chats         *chat.Service

	// Gateway serves live connections; nil disables GET /api/ws.
	Gateway http.Handler
	// Metrics serves GET /metrics; nil disables it.
	Metrics http.Handler
	// MessageLimiter throttles chat sends; nil disables throttling.
	MessageLimiter *RateLimiter
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret}
	itemsHandler := &ItemsHandler{Workflow: d.Workflow}
	adminHandler := &AdminHandler{Workflow: d.Workflow}
	notificationsHandler := &NotificationsHandler{Notifications: d.Notifications}
	chatsHandler := &ChatsHandler{Chats: d.Chats}

	authMW := AuthMiddleware(&auth.Authenticator{Secret: d.JWTSecret, DB: d.DB})
	requireAdmin := RequireRole(model.RoleAdmin)
	limitMessages := func(h http.Handler) http.Handler { return h }
	if d.MessageLimiter != nil {
		limitMessages = d.MessageLimiter.Middleware
	}

	// Public.
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/items", itemsHandler.ListPublic)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	// Account.
	mux.Handle("GET /api/auth/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Reporter items.
	mux.Handle("POST /api/items", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/my-items", authMW(http.HandlerFunc(itemsHandler.ListMine)))
	mux.Handle("PUT /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Update)))
	mux.Handle("DELETE /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Delete)))
	mux.Handle("PUT /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.UploadImage)))
	mux.Handle("GET /api/items/{id}/image", authMW(http.HandlerFunc(itemsHandler.GetImage)))

	// Notifications.
	mux.Handle("GET /api/notifications", authMW(http.HandlerFunc(notificationsHandler.List)))
	mux.Handle("PUT /api/notifications/{id}/read", authMW(http.HandlerFunc(notificationsHandler.MarkRead)))
	mux.Handle("PUT /api/notifications/mark-all-read", authMW(http.HandlerFunc(notificationsHandler.MarkAllRead)))

	// Chats.
	mux.Handle("GET /api/chats", authMW(http.HandlerFunc(chatsHandler.List)))
	mux.Handle("POST /api/chats", authMW(http.HandlerFunc(chatsHandler.Start)))
	mux.Handle("GET /api/chats/{id}/messages", authMW(http.HandlerFunc(chatsHandler.Messages)))
	mux.Handle("POST /api/chats/{id}/messages", authMW(limitMessages(http.HandlerFunc(chatsHandler.Send))))

	// Live events authenticate their own handshake.
	if d.Gateway != nil {
		mux.Handle("GET /api/ws", d.Gateway)
	}

	// Admin review.
	mux.Handle("GET /api/admin/items", authMW(requireAdmin(http.HandlerFunc(adminHandler.ListItems))))
	mux.Handle("GET /api/admin/items/{id}/candidates", authMW(requireAdmin(http.HandlerFunc(adminHandler.Candidates))))
	mux.Handle("GET /api/admin/found-items", authMW(requireAdmin(http.HandlerFunc(adminHandler.ListFound))))
	mux.Handle("PUT /api/admin/items/{id}/approve", authMW(requireAdmin(http.HandlerFunc(adminHandler.ApproveItem))))
	mux.Handle("PUT /api/admin/items/{id}/approve-match/{matchId}", authMW(requireAdmin(http.HandlerFunc(adminHandler.ApproveMatch))))
	mux.Handle("PUT /api/admin/items/{id}/reject-match/{matchId}", authMW(requireAdmin(http.HandlerFunc(adminHandler.RejectMatch))))
	mux.Handle("PUT /api/admin/items/{id}/revert-match/{matchId}", authMW(requireAdmin(http.HandlerFunc(adminHandler.RevertMatch))))
	mux.Handle("DELETE /api/admin/items/{id}", authMW(requireAdmin(http.HandlerFunc(itemsHandler.Delete))))

	return mux
}
