package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 4096
	wsSendBuffer     = 16
)

// upgrader checks Origin against the configured origins.
func (h *Handler) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(h.origins) == 0 {
				return true
			}
			return originAllowed(h.origins, origin)
		},
	}
}

// predictStream is one websocket client. Each text frame is a prediction
// request answered by exactly one frame, in order.
type predictStream struct {
	conn *websocket.Conn
	send chan []byte
}

// handleWebSocket upgrades and serves one prediction stream.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	conn, err := h.upgrader().Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return
	}
	h.logger.Debug("websocket connected", zap.String("request_id", requestID))

	stream := &predictStream{
		conn: conn,
		send: make(chan []byte, wsSendBuffer),
	}
	done := make(chan struct{})
	go func() {
		stream.writePump(h.logger)
		close(done)
	}()

	stream.readPump(h, r)
	<-done
	h.logger.Debug("websocket closed", zap.String("request_id", requestID))
}

// readPump answers each text frame; it closes send on exit.
func (s *predictStream) readPump(h *Handler, r *http.Request) {
	defer close(s.send)

	s.conn.SetReadLimit(wsMaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error",
					zap.String("request_id", GetRequestID(r.Context())),
					zap.Error(err),
				)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var resp any
		var body predictRequest
		if err := json.Unmarshal(data, &body); err != nil {
			resp = errorResponse{Error: "invalid JSON message: " + err.Error()}
		} else {
			_, resp = h.predictJSON(r, body)
		}

		payload, err := json.Marshal(resp)
		if err != nil {
			h.logger.Error("encode websocket response", zap.Error(err))
			payload, _ = json.Marshal(errorResponse{Error: "internal server error"})
		}
		s.send <- payload
	}
}

// writePump sends replies and keepalive pings.
func (s *predictStream) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Debug("websocket write error", zap.Error(err))
				s.drain()
				return
			}

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.drain()
				return
			}
		}
	}
}

// drain unblocks readPump after the writer gave up. Closing the connection
// makes the pending read fail.
func (s *predictStream) drain() {
	s.conn.Close()
	for range s.send {
	}
}
