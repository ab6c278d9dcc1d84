package studio

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	studioService "github.com/zhouzirui/artifex/backend/internal/service/studio"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 54 * time.Second
	wsWriteTimeout = 10 * time.Second
)

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接，每条 intent 消息依次得到 busy 与 screen/error 帧
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	desc, err := h.sessions.Render(r.Context(), sessionID)
	if err != nil {
		h.respondFailure(w, err, nil)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	logger := h.logger.With().Str("session", sessionID).Logger()
	logger.Debug().Msg("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
		return nil
	})

	go pingLoop(ctx, conn)

	h.send(conn, sessionID, "screen", desc)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(conn, sessionID, "session mismatch")
			continue
		}
		h.handleMessage(ctx, conn, sessionID, &msg)
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, sessionID string, msg *inboundMessage) {
	switch msg.Type {
	case "intent":
		var intent studioService.Intent
		if err := json.Unmarshal(msg.Data, &intent); err != nil {
			h.sendError(conn, sessionID, "invalid intent payload")
			return
		}
		h.send(conn, sessionID, "busy", StreamEvent{SessionID: sessionID, Intent: string(intent.Type)})

		desc, err := h.sessions.Dispatch(ctx, sessionID, intent)
		if err != nil {
			h.send(conn, sessionID, "error", newErrorResponse(err, &desc))
			return
		}
		h.send(conn, sessionID, "screen", desc)
	case "render":
		desc, err := h.sessions.Render(ctx, sessionID)
		if err != nil {
			h.send(conn, sessionID, "error", newErrorResponse(err, nil))
			return
		}
		h.send(conn, sessionID, "screen", desc)
	default:
		h.sendError(conn, sessionID, "unsupported message type: "+msg.Type)
	}
}

func (h *Handler) send(conn *websocket.Conn, sessionID, kind string, data interface{}) {
	msg := outgoingMessage{
		Type:      kind,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug().Err(err).Str("type", kind).Msg("websocket write failed")
	}
}

func (h *Handler) sendError(conn *websocket.Conn, sessionID, message string) {
	h.send(conn, sessionID, "error", map[string]string{"error": message})
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
