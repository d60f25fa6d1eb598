// Package realtime tracks which users are connected and pushes live events
// to them over websockets.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/metrics"
	"github.com/erazemk/najdeno/internal/model"
)

// TokenAuthenticator validates the token presented on connect.
type TokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// Envelope is the frame sent for every live event.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Gateway accepts authenticated websocket connections and pushes events to
// connected users.
type Gateway struct {
	auth     TokenAuthenticator
	registry *Registry
	metrics  metrics.Recorder
	upgrader websocket.Upgrader
}

// NewGateway creates a gateway. allowedOrigins limits browser origins; empty
// or "*" allows any origin.
func NewGateway(a TokenAuthenticator, registry *Registry, rec metrics.Recorder, allowedOrigins []string) *Gateway {
	if rec == nil {
		rec = metrics.Nop{}
	}
	g := &Gateway{auth: a, registry: registry, metrics: rec}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return g
}

// ServeHTTP authenticates and upgrades the request, then serves the
// connection until it closes.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := g.auth.Authenticate(r.Context(), requestToken(r))
	if err != nil {
		status, msg := http.StatusUnauthorized, "unauthorized"
		if !errors.Is(err, model.ErrUnauthenticated) {
			slog.Error("authenticating live connection", "error", err)
			status, msg = http.StatusInternalServerError, "internal error"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"error": msg})
		return
	}

	ws, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied.
		slog.Warn("upgrading live connection", "user", claims.UserID, "error", err)
		return
	}

	c := newConn(ws, claims.UserID)
	if prev := g.registry.Register(c.UserID, c); prev != nil {
		slog.Info("live connection replaced", "user", c.UserID, "old", prev.ID, "new", c.ID)
	}
	g.metrics.ConnectionOpened()
	slog.Info("live connection opened", "user", c.UserID, "conn", c.ID)

	go c.writePump()
	c.readPump()

	g.registry.Unregister(c.UserID, c)
	g.metrics.ConnectionClosed()
	slog.Info("live connection closed", "user", c.UserID, "conn", c.ID)
}

// Push sends an event to the user's connection without blocking. Events for
// offline users, or users whose queue is full, are dropped.
func (g *Gateway) Push(userID int64, event string, payload any) bool {
	c, ok := g.registry.Lookup(userID)
	if !ok {
		g.metrics.RecordPush(event, false)
		return false
	}

	frame, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		slog.Error("encoding live event", "event", event, "error", err)
		g.metrics.RecordPush(event, false)
		return false
	}

	delivered := c.enqueue(frame)
	if !delivered {
		slog.Warn("dropping live event", "event", event, "user", userID, "conn", c.ID)
	}
	g.metrics.RecordPush(event, delivered)
	return delivered
}

// CloseAll closes every registered connection.
func (g *Gateway) CloseAll() {
	for _, c := range g.registry.Conns() {
		c.Close()
	}
}

// requestToken reads the token from the "token" query parameter or a
// Bearer Authorization header. Browsers cannot set headers on websocket
// requests.
func requestToken(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return slices.Contains(allowed, u.Scheme+"://"+u.Host)
	}
}
