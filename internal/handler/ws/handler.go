package ws

import (
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/driftlabs/relaychat/internal/config"
	chatservice "github.com/driftlabs/relaychat/internal/service/chat"
)

// Handler upgrades HTTP requests to chat websockets and feeds transport
// events into the chat service.
type Handler struct {
	svc      *chatservice.Service
	cfg      config.WSConfig
	upgrader websocket.Upgrader
}

// New creates the websocket handler.
func New(svc *chatservice.Service, cfg config.WSConfig) *Handler {
	return &Handler{
		svc: svc,
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes mounts the websocket endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	c := newClient(conn, peerAddr(r))
	if _, ok := h.svc.Connect(c); !ok {
		return
	}

	h.readLoop(c)
}

// readLoop drains frames from one connection until it closes. A per
// connection token bucket guards against frame floods before any protocol
// handling happens; tripping it closes the connection.
func (h *Handler) readLoop(c *client) {
	defer func() {
		h.svc.Disconnect(c)
		_ = c.Close()
	}()

	limiter := rate.NewLimiter(rate.Limit(h.cfg.FramesPerSecond), h.cfg.FrameBurst)

	c.conn.SetReadDeadline(time.Now().Add(readTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] unexpected close from %s: %v", c.PeerAddr(), err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(readTimeout))

		if !limiter.Allow() {
			log.Printf("[ws] frame flood from %s, closing", c.PeerAddr())
			_ = c.closeWithCode(websocket.ClosePolicyViolation, "rate limit exceeded")
			return
		}

		h.svc.HandleFrame(c, data)
	}
}

// peerAddr extracts the host part of the remote address; the port changes
// per connection and would defeat address-keyed bans and limits.
func peerAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
