package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/sells-group/crimemap/internal/choropleth"
	"github.com/sells-group/crimemap/internal/panel"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 1024
	sendQueue      = 16
)

// viewRequest selects what the client is looking at. Year 0 means the
// default year; an empty borough asks for the map only.
type viewRequest struct {
	Year    int    `json:"year"`
	Borough string `json:"borough"`
}

// frame is one server to client message.
type frame struct {
	Type    string           `json:"type"`
	Year    int              `json:"year,omitempty"`
	Borough string           `json:"borough,omitempty"`
	Map     *choropleth.Map  `json:"map,omitempty"`
	Panel   *panel.PanelData `json:"panel,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// wsClient owns one connection. Reads and writes run in separate pumps
// and only the write pump touches the connection for writing.
type wsClient struct {
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	log       *zap.Logger
}

func (s *Server) upgrader() websocket.Upgrader {
	allowAll := false
	allowed := make(map[string]bool, len(s.opts.AllowedOrigins))
	for _, o := range s.opts.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowAll || origin == "" || allowed[origin]
		},
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	up := s.upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &wsClient{
		conn: conn,
		send: make(chan []byte, sendQueue),
		done: make(chan struct{}),
		log:  s.log.With(zap.String("remote", r.RemoteAddr)),
	}
	c.log.Debug("websocket connected")

	go c.writePump()
	c.readPump(s.view)
}

// view answers a single view request.
func (s *Server) view(req viewRequest) frame {
	year := req.Year
	if year == 0 {
		year = s.src.DefaultYear()
	}
	m, err := s.buildMap(year)
	if err != nil {
		return s.errorFrame(year, req.Borough, err)
	}
	out := frame{Type: "state", Year: year, Borough: req.Borough, Map: m}
	if req.Borough == "" {
		return out
	}
	data, err := s.assembler.Assemble(req.Borough, year)
	if err != nil {
		return s.errorFrame(year, req.Borough, err)
	}
	out.Panel = data
	return out
}

func (s *Server) errorFrame(year int, borough string, err error) frame {
	msg := noData
	if statusOf(err) != http.StatusNotFound {
		s.log.Error("view failed", zap.Int("year", year), zap.String("borough", borough), zap.Error(err))
		msg = "internal error"
	}
	return frame{Type: "error", Year: year, Borough: borough, Error: msg}
}

func (c *wsClient) readPump(handle func(viewRequest) frame) {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck

		var req viewRequest
		var out frame
		if err := json.Unmarshal(msg, &req); err != nil {
			out = frame{Type: "error", Error: "invalid request"}
		} else {
			out = handle(req)
		}
		data, err := json.Marshal(out)
		if err != nil {
			c.log.Error("encode frame", zap.Error(err))
			continue
		}
		select {
		case c.send <- data:
		case <-c.done:
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		c.conn.Close() //nolint:errcheck
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// close ends the session. The read pump is the only sender on send, so
// closing it here is safe.
func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.send)
		c.log.Debug("websocket disconnected")
	})
}
