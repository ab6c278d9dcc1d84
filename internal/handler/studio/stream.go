package studio

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/artifex/backend/pkg/utils"
)

// StreamEvent 描述 SSE 意图流中的 busy 事件
type StreamEvent struct {
	SessionID string `json:"sessionId"`
	Intent    string `json:"intent"`
}

// handleIntentStream 以 SSE 形式执行意图：先推送 busy，再推送 screen 或 error
func (h *Handler) handleIntentStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.sessions.GetSession(r.Context(), sessionID); err != nil {
		h.respondFailure(w, err, nil)
		return
	}
	intent, ok := h.decodeIntent(w, r)
	if !ok {
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	utils.SendSSEEvent(w, flusher, "busy", StreamEvent{SessionID: sessionID, Intent: string(intent.Type)})

	desc, err := h.sessions.Dispatch(r.Context(), sessionID, intent)
	if err != nil {
		h.logger.Debug().Err(err).Str("session", sessionID).Msg("stream intent failed")
		utils.SendSSEEvent(w, flusher, "error", newErrorResponse(err, &desc))
		return
	}
	utils.SendSSEEvent(w, flusher, "screen", desc)
}
