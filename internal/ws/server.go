package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"taproom-services/internal/catalog"
	"taproom-services/internal/store"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
)

// MenuSource provides the menu sent to clients when they connect.
type MenuSource interface {
	Latest(ctx context.Context) (store.MenuRecord, error)
}

type menuMessage struct {
	Type      string                 `json:"type"`
	Version   int64                  `json:"version,omitempty"`
	UpdatedAt *time.Time             `json:"updatedAt,omitempty"`
	Data      *catalog.MenuStructure `json:"data"`
}

// Server pushes the live menu to website clients. It implements
// menu.Notifier.
type Server struct {
	Menus     MenuSource
	Logger    *zap.Logger
	Heartbeat time.Duration

	upgrader websocket.Upgrader

	mu   sync.RWMutex
	subs map[*client]struct{}
}

type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
	// version of the last menu written; guarded by writeMu.
	version int64
}

// sendMenu writes msg unless the client already has the same or a newer
// menu version.
func (c *client) sendMenu(msg menuMessage) (sent bool, err error) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.version > 0 && msg.Version <= c.version {
		return false, nil
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		return false, err
	}
	c.version = msg.Version
	return true, nil
}

func (c *client) ping() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

func New(menus MenuSource, logger *zap.Logger, heartbeat time.Duration, allowedOrigins []string) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	s := &Server{
		Menus:     menus,
		Logger:    logger,
		Heartbeat: heartbeat,
		subs:      make(map[*client]struct{}),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: originChecker(allowedOrigins)}
	return s
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

func (s *Server) subscribe(c *client) (unsubscribe func()) {
	s.mu.Lock()
	s.subs[c] = struct{}{}
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, c)
		s.mu.Unlock()
	}
}

// Subscribers returns the number of connected clients.
func (s *Server) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *Server) broadcast(message menuMessage) {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.subs))
	for c := range s.subs {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		if _, err := c.sendMenu(message); err != nil {
			_ = c.conn.Close()
			s.mu.Lock()
			delete(s.subs, c)
			s.mu.Unlock()
		}
	}
}

// MenuUpdated pushes a newly published menu to every client.
func (s *Server) MenuUpdated(record store.MenuRecord) {
	updatedAt := record.CreatedAt
	s.broadcast(menuMessage{Type: "menu.updated", Version: record.Version, UpdatedAt: &updatedAt, Data: &record.Menu})
}

// MenuWS serves GET /ws/menu: the current menu on connect, then every update.
func (s *Server) MenuWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	// Subscribe before loading so no publish is missed; sendMenu drops the
	// state if a newer update already went out.
	c := &client{conn: conn}
	unsubscribe := s.subscribe(c)
	defer unsubscribe()

	state := menuMessage{Type: "menu.state"}
	if s.Menus != nil {
		record, err := s.Menus.Latest(r.Context())
		switch {
		case err == nil:
			updatedAt := record.CreatedAt
			state.Version, state.UpdatedAt, state.Data = record.Version, &updatedAt, &record.Menu
		case err != store.ErrNotFound:
			s.Logger.Warn("load menu for websocket failed", zap.Error(err))
		}
	}
	if _, err := c.sendMenu(state); err != nil {
		return
	}

	pongWait := s.Heartbeat * 2
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, readErr := conn.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.Heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-clientClosed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
