package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/z-perception/backend/internal/logger"
	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/model/voice"
	sessionService "github.com/zhouzirui/z-perception/backend/internal/service/session"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler 通过 WebSocket 持续接收用户输入
type WebSocketHandler struct {
	sessions *sessionService.Manager
	log      *logger.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(sessions *sessionService.Manager, log *logger.Logger) *WebSocketHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &WebSocketHandler{
		sessions: sessions,
		log:      log.With("handler", "websocket"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws/{userID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// InputMessage 输入消息；语音可以直接携带 ASR 转写结果
type InputMessage struct {
	Input      string            `json:"input"`
	Modality   string            `json:"modality"`
	Transcript *voice.Transcript `json:"transcript,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket 处理WebSocket连接，会话需先通过 REST 接口打开
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.sessions.Do(r.Context(), userID, func(context.Context, *sessionService.Session) error { return nil }); err != nil {
		http.Error(w, err.Error(), StatusFor(err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}
	defer conn.Close()

	h.log.Info("websocket connected", "user_id", userID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	// gorilla 连接只允许一个并发写者，ping 与响应都经由 writes 串行化
	writes := make(chan outgoingMessage, 16)
	go h.writeLoop(ctx, cancel, conn, writes)

	h.send(ctx, writes, "connected", map[string]any{"userId": userID})

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn("websocket read error", "user_id", userID, "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		msgType, data := h.handleMessage(ctx, userID, &msg)
		if !h.send(ctx, writes, msgType, data) {
			return
		}
	}
}

// handleMessage 返回要发送的消息类型与内容
func (h *WebSocketHandler) handleMessage(ctx context.Context, userID string, msg *inboundMessage) (string, interface{}) {
	switch msg.Type {
	case "ping":
		return "pong", nil
	case "input":
		var in InputMessage
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			return "error", errorData(http.StatusBadRequest, "invalid input message")
		}
		payload, modality, err := in.resolve()
		if err != nil {
			return "error", errorData(http.StatusBadRequest, err.Error())
		}

		var result perception.AnalysisResult
		err = h.sessions.Do(ctx, userID, func(ctx context.Context, s *sessionService.Session) error {
			var err error
			result, err = s.ProcessInput(ctx, payload, modality)
			return err
		})
		if err != nil {
			return "error", errorData(StatusFor(err), err.Error())
		}
		return "result", result
	default:
		return "error", errorData(http.StatusBadRequest, fmt.Sprintf("unknown message type %q", msg.Type))
	}
}

// resolve 取出实际要分析的内容；带转写结果时以转写为准
func (in InputMessage) resolve() (string, perception.Modality, error) {
	modality := perception.Modality(strings.ToLower(strings.TrimSpace(in.Modality)))
	if in.Transcript == nil {
		return in.Input, modality, nil
	}
	if modality == "" {
		modality = perception.Voice
	}
	if modality != perception.Voice {
		return "", modality, fmt.Errorf("transcript is only accepted for voice input")
	}
	text, err := in.Transcript.Payload()
	if err != nil {
		return "", modality, err
	}
	return text, modality, nil
}

func errorData(status int, message string) map[string]any {
	return map[string]any{"status": status, "message": message}
}

func (h *WebSocketHandler) send(ctx context.Context, writes chan<- outgoingMessage, msgType string, data interface{}) bool {
	msg := outgoingMessage{Type: msgType, Data: data, Timestamp: time.Now().Unix()}
	select {
	case writes <- msg:
		return true
	case <-ctx.Done():
		return false
	}
}

// writeLoop 串行写出消息并定期发送ping
func (h *WebSocketHandler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, writes <-chan outgoingMessage) {
	defer cancel()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-writes:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
