package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/wifipanel/internal/logging"
	"github.com/muurk/wifipanel/internal/view"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512
)

// Patch replaces the element whose id is Region with HTML.
type Patch struct {
	Region string `json:"region"`
	HTML   string `json:"html"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// wsClient is one connected browser. sent holds the markup last sent per
// region.
type wsClient struct {
	conn       *websocket.Conn
	remoteAddr string
	sent       map[string]string
}

// patches renders every region of state and returns those that changed since
// the previous call.
func (c *wsClient) patches(state view.PageState) []Patch {
	var out []Patch
	for _, region := range view.Regions() {
		html, err := view.Fragment(state, region)
		if err != nil {
			continue
		}
		if prev, ok := c.sent[region]; ok && prev == string(html) {
			continue
		}
		c.sent[region] = string(html)
		out = append(out, Patch{Region: region, HTML: string(html)})
	}
	return out
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an error status
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	c := &wsClient{
		conn:       conn,
		remoteAddr: r.RemoteAddr,
		sent:       make(map[string]string),
	}
	if !s.track(c) {
		_ = conn.Close()
		return
	}
	defer s.untrack(c)

	logging.LogConnection(c.remoteAddr, "websocket_connected")
	defer logging.LogConnection(c.remoteAddr, "websocket_closed")

	// subscribe before taking the first snapshot so no change is lost
	updates, cancel := s.panel.Subscribe()
	defer cancel()

	done := make(chan struct{})
	go c.readLoop(done)
	c.writeLoop(s.panel.State(), updates, done)
}

// readLoop discards client messages and keeps the read deadline alive on
// pongs. It closes done when the connection fails.
func (c *wsClient) readLoop(done chan<- struct{}) {
	defer close(done)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("WebSocket read error",
					zap.String("remote_addr", c.remoteAddr),
					zap.Error(err),
				)
			}
			return
		}
	}
}

func (c *wsClient) writeLoop(initial view.PageState, updates <-chan view.PageState, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	if !c.send(initial) {
		return
	}

	for {
		select {
		case state, ok := <-updates:
			if !ok {
				// panel stopped
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "panel stopped"))
				return
			}
			if !c.send(state) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (c *wsClient) send(state view.PageState) bool {
	for _, p := range c.patches(state) {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteJSON(p); err != nil {
			logging.Debug("WebSocket write failed",
				zap.String("remote_addr", c.remoteAddr),
				zap.String("region", p.Region),
				zap.Error(err),
			)
			return false
		}
	}
	return true
}
