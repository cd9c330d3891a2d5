// Package ws carries game frames over websockets. Each player holds one
// connection at /play/:player; a newer connection replaces an older one.
package ws

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/beka-birhanu/vinom-claim-maze/service/i"
	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	"golang.org/x/time/rate"
)

const (
	PlayPath   = "/play"
	HealthPath = "/healthz"

	codeRateLimited = "E_RATE_LIMITED"

	defaultQueueSize    = 32
	defaultReadLimit    = 4096
	defaultWriteTimeout = 2 * time.Second
	readTimeout         = 60 * time.Second
)

// Config configures a SocketManager.
type Config struct {
	// PublicAddr is the ws:// URL prefix clients dial, without the player id.
	PublicAddr   string
	ReadLimit    int64
	WriteTimeout time.Duration
	IntentRate   rate.Limit
	IntentBurst  int
	QueueSize    int
	Logger       general_i.Logger
}

type client struct {
	out  chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// SocketManager upgrades player connections and routes their frames.
type SocketManager struct {
	cfg      Config
	upgrader websocket.Upgrader
	router   *way.Router

	handler func(uuid.UUID, []byte)
	auth    i.Authenticator

	clients map[uuid.UUID]*client
	sync.RWMutex
}

// NewSocketManager returns a manager with its routes registered.
func NewSocketManager(c Config) *SocketManager {
	if c.QueueSize <= 0 {
		c.QueueSize = defaultQueueSize
	}
	if c.ReadLimit <= 0 {
		c.ReadLimit = defaultReadLimit
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	if c.IntentRate <= 0 {
		c.IntentRate = rate.Inf
	}
	if c.IntentBurst <= 0 {
		c.IntentBurst = 1
	}

	s := &SocketManager{
		cfg: c,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: make(map[uuid.UUID]*client),
	}
	s.routes()
	return s
}

func (s *SocketManager) routes() {
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", PlayPath+"/:player", s.handlePlay)
	s.router.HandleFunc("GET", HealthPath, s.handleHealth)
}

// Handler serves the websocket and health routes.
func (s *SocketManager) Handler() http.Handler {
	return s.router
}

// SetClientRequestHandler sets the callback for incoming frames.
func (s *SocketManager) SetClientRequestHandler(h func(uuid.UUID, []byte)) {
	s.Lock()
	defer s.Unlock()
	s.handler = h
}

// SetClientAuthenticator sets who may connect.
func (s *SocketManager) SetClientAuthenticator(a i.Authenticator) {
	s.Lock()
	defer s.Unlock()
	s.auth = a
}

// Addr returns the URL prefix players dial.
func (s *SocketManager) Addr() string {
	return s.cfg.PublicAddr
}

// BroadcastToClients queues payload for every connected player in
// playerIDs. A player whose queue is full misses the frame.
func (s *SocketManager) BroadcastToClients(playerIDs []uuid.UUID, payload []byte) {
	s.RLock()
	defer s.RUnlock()
	for _, pID := range playerIDs {
		c, ok := s.clients[pID]
		if !ok {
			continue
		}
		select {
		case c.out <- payload:
		default:
			s.logWarning(fmt.Sprintf("dropping frame for slow player %s", pID))
		}
	}
}

// Stop disconnects every player.
func (s *SocketManager) Stop() {
	s.Lock()
	defer s.Unlock()
	for pID, c := range s.clients {
		c.close()
		delete(s.clients, pID)
	}
}

func (s *SocketManager) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.RLock()
	n := len(s.clients)
	s.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "clients": n})
}

func (s *SocketManager) handlePlay(w http.ResponseWriter, r *http.Request) {
	pID, err := uuid.Parse(way.Param(r.Context(), "player"))
	if err != nil {
		http.Error(w, "invalid player id", http.StatusBadRequest)
		return
	}

	s.RLock()
	auth, handler := s.auth, s.handler
	s.RUnlock()
	if auth != nil {
		if err := auth.Authenticate(pID); err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logWarning(fmt.Sprintf("upgrading connection for %s: %v", pID, err))
		return
	}
	defer conn.Close()

	c := &client{out: make(chan []byte, s.cfg.QueueSize), done: make(chan struct{})}
	s.register(pID, c)
	defer s.unregister(pID, c)
	s.logInfo(fmt.Sprintf("player %s connected", pID))

	go s.writeLoop(conn, c)

	limiter := rate.NewLimiter(s.cfg.IntentRate, s.cfg.IntentBurst)
	conn.SetReadLimit(s.cfg.ReadLimit)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if !limiter.Allow() {
			s.reject(c, codeRateLimited, "too many requests")
			continue
		}
		if handler != nil {
			handler(pID, msg)
		}
	}
	s.logInfo(fmt.Sprintf("player %s disconnected", pID))
}

func (s *SocketManager) writeLoop(conn *websocket.Conn, c *client) {
	for {
		select {
		case <-c.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
			return
		case b := <-c.out:
			_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				c.close()
				_ = conn.Close()
				return
			}
		}
	}
}

func (s *SocketManager) reject(c *client, code, msg string) {
	b, _ := json.Marshal(map[string]string{"type": "error", "code": code, "message": msg})
	select {
	case c.out <- b:
	default:
	}
}

func (s *SocketManager) register(pID uuid.UUID, c *client) {
	s.Lock()
	defer s.Unlock()
	if old, ok := s.clients[pID]; ok {
		old.close()
	}
	s.clients[pID] = c
}

func (s *SocketManager) unregister(pID uuid.UUID, c *client) {
	s.Lock()
	defer s.Unlock()
	c.close()
	if cur, ok := s.clients[pID]; ok && cur == c {
		delete(s.clients, pID)
	}
}

func (s *SocketManager) logInfo(msg string) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Info(msg)
	}
}

func (s *SocketManager) logWarning(msg string) {
	if s.cfg.Logger != nil {
		s.cfg.Logger.Warning(msg)
	}
}
