package studio

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/zhouzirui/artifex/backend/internal/model/studio"
	studioService "github.com/zhouzirui/artifex/backend/internal/service/studio"
	"github.com/zhouzirui/artifex/backend/pkg/utils"
)

const defaultMaxUploadBytes int64 = 20 << 20

// Options 配置工作室处理器
type Options struct {
	MaxUploadBytes int64
	Logger         *zerolog.Logger
}

// Handler 工作室会话的HTTP处理器
type Handler struct {
	sessions       *studioService.Service
	maxUploadBytes int64
	logger         zerolog.Logger
	upgrader       websocket.Upgrader
}

// New 创建工作室处理器
func New(sessions *studioService.Service, opts Options) *Handler {
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "http").Logger()
	}
	return &Handler{
		sessions:       sessions,
		maxUploadBytes: maxUpload,
		logger:         logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleDeleteSession)
		r.Post("/intents", h.handleIntent)
		r.Post("/intents/stream", h.handleIntentStream)
		r.Post("/upload", h.handleUpload)
		r.Post("/erase", h.handleErase)
		r.Get("/snapshot", h.handleSnapshot)
	})
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type sessionResponse struct {
	Session studio.Session            `json:"session"`
	Screen  studio.ScreenDescription `json:"screen"`
}

type errorResponse struct {
	Error  string                    `json:"error"`
	Kind   studioService.ErrorKind   `json:"kind"`
	Raw    string                    `json:"raw,omitempty"`
	Screen *studio.ScreenDescription `json:"screen,omitempty"`
}

// withoutImage 去掉上传图片字节，客户端已持有原图
func withoutImage(s studio.Session) studio.Session {
	s.UploadedImage = nil
	return s
}

// handleCreateSession 创建会话
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.CreateSession(r.Context())
	if err != nil {
		h.respondFailure(w, err, nil)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, sessionResponse{
		Session: withoutImage(session),
		Screen:  studio.Render(session),
	})
}

// handleGetSession 查询会话当前状态
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondFailure(w, err, nil)
		return
	}
	utils.RespondJSON(w, http.StatusOK, sessionResponse{
		Session: withoutImage(session),
		Screen:  studio.Render(session),
	})
}

// handleDeleteSession 删除会话
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondFailure(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleIntent 执行一个用户意图并返回下一屏描述
func (h *Handler) handleIntent(w http.ResponseWriter, r *http.Request) {
	intent, ok := h.decodeIntent(w, r)
	if !ok {
		return
	}
	h.dispatch(w, r, intent)
}

// handleUpload 接收 multipart 上传的图片
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readFormFile(w, r, "file")
	if !ok {
		return
	}
	h.dispatch(w, r, studioService.Intent{Type: studio.ActionUploadFile, Image: data})
}

// handleErase 接收画布并执行擦除
func (h *Handler) handleErase(w http.ResponseWriter, r *http.Request) {
	data, ok := h.readFormFile(w, r, "mask")
	if !ok {
		return
	}
	h.dispatch(w, r, studioService.Intent{Type: studio.ActionEraseArea, Canvas: data})
}

// handleSnapshot 导出完整会话，客户端支持时使用gzip压缩
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondFailure(w, err, nil)
		return
	}

	body, err := json.Marshal(sessionResponse{Session: session, Screen: studio.Render(session)})
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to encode snapshot")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Vary", "Accept-Encoding")
	if utils.AcceptsGzip(r) {
		compressed, err := utils.CompressPayload(body, utils.GzipCompression)
		if err != nil {
			h.logger.Warn().Err(err).Msg("snapshot compression failed")
		} else {
			body = compressed
			w.Header().Set("Content-Encoding", "gzip")
		}
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		h.logger.Debug().Err(err).Msg("write snapshot failed")
	}
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request, intent studioService.Intent) {
	desc, err := h.sessions.Dispatch(r.Context(), chi.URLParam(r, "sessionID"), intent)
	if err != nil {
		h.respondFailure(w, err, &desc)
		return
	}
	utils.RespondJSON(w, http.StatusOK, desc)
}

func (h *Handler) decodeIntent(w http.ResponseWriter, r *http.Request) (studioService.Intent, bool) {
	var intent studioService.Intent
	body := http.MaxBytesReader(w, r.Body, h.maxUploadBytes*2)
	if err := json.NewDecoder(body).Decode(&intent); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return intent, false
	}
	if intent.Type == "" {
		utils.RespondError(w, http.StatusBadRequest, "type is required")
		return intent, false
	}
	return intent, true
}

func (h *Handler) readFormFile(w http.ResponseWriter, r *http.Request, field string) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1<<20)
	file, _, err := r.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RespondError(w, http.StatusRequestEntityTooLarge, "file too large")
			return nil, false
		}
		utils.RespondError(w, http.StatusBadRequest, field+" form file is required")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read "+field)
		return nil, false
	}
	if int64(len(data)) > h.maxUploadBytes {
		utils.RespondError(w, http.StatusRequestEntityTooLarge, "file too large")
		return nil, false
	}
	return data, true
}

// statusFor 将错误类型映射为HTTP状态码
func statusFor(err error) int {
	switch studioService.KindOf(err) {
	case studioService.KindValidation:
		return http.StatusUnprocessableEntity
	case studioService.KindService, studioService.KindParsing:
		return http.StatusBadGateway
	case studioService.KindBusy:
		return http.StatusConflict
	case studioService.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func newErrorResponse(err error, desc *studio.ScreenDescription) errorResponse {
	resp := errorResponse{
		Error: err.Error(),
		Kind:  studioService.KindOf(err),
		Raw:   string(studioService.RawBody(err)),
	}
	if desc != nil && desc.Screen != "" {
		resp.Screen = desc
	}
	return resp
}

func (h *Handler) respondFailure(w http.ResponseWriter, err error, desc *studio.ScreenDescription) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("request failed")
	}
	utils.RespondJSON(w, status, newErrorResponse(err, desc))
}
