package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/z-perception/backend/internal/logger"
	"github.com/zhouzirui/z-perception/backend/internal/model/perception"
	"github.com/zhouzirui/z-perception/backend/internal/perrors"
	sessionService "github.com/zhouzirui/z-perception/backend/internal/service/session"
	"github.com/zhouzirui/z-perception/backend/pkg/utils"
)

// Handler 感知会话的HTTP处理器
type Handler struct {
	sessions *sessionService.Manager
	log      *logger.Logger
}

// New 创建会话处理器
func New(sessions *sessionService.Manager, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{sessions: sessions, log: log.With("handler", "session")}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleOpen)
	r.Route("/sessions/{userID}", func(r chi.Router) {
		r.Delete("/", h.handleClose)
		r.Post("/inputs", h.handleInput)
		r.Get("/profile", h.handleProfile)
		r.Patch("/preferences", h.handlePreferences)
		r.Post("/feedback", h.handleAddFeedback)
		r.Get("/feedback/analysis", h.handleFeedbackAnalysis)
		r.Post("/explanations", h.handleGenerateExplanation)
		r.Get("/explanations/{key}", h.handleGetExplanation)
		r.Post("/training", h.handleAddTraining)
		r.Get("/fairness", h.handleFairness)
		r.Get("/modalities", h.handleModalities)
	})
}

// handleOpen 打开会话，已有持久化状态时恢复
func (h *Handler) handleOpen(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID string `json:"userId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	restored, err := h.sessions.Open(r.Context(), payload.UserID)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"userId":   strings.TrimSpace(payload.UserID),
		"restored": restored,
	})
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(r.Context(), chi.URLParam(r, "userID")); err != nil {
		h.respondErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// inputRequest 单条输入
type inputRequest struct {
	Input    string `json:"input"`
	Modality string `json:"modality"`
}

func (h *Handler) handleInput(w http.ResponseWriter, r *http.Request) {
	var payload inputRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var result perception.AnalysisResult
	err := h.do(r, func(ctx context.Context, s *sessionService.Session) error {
		var err error
		result, err = s.ProcessInput(ctx, payload.Input, perception.Modality(strings.ToLower(strings.TrimSpace(payload.Modality))))
		return err
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	var profile perception.ProfileSnapshot
	err := h.do(r, func(_ context.Context, s *sessionService.Session) error {
		profile = s.GetUserProfile()
		return nil
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, profile)
}

func (h *Handler) handlePreferences(w http.ResponseWriter, r *http.Request) {
	var partial map[string]any
	if err := utils.DecodeJSON(r, &partial); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var profile perception.ProfileSnapshot
	err := h.do(r, func(_ context.Context, s *sessionService.Session) error {
		s.UpdatePreferences(partial)
		profile = s.GetUserProfile()
		return nil
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, profile.Preferences)
}

func (h *Handler) handleAddFeedback(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
		Rating  int    `json:"rating"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var stored perception.FeedbackEntry
	err := h.do(r, func(_ context.Context, s *sessionService.Session) error {
		var err error
		stored, err = s.AddUserFeedback(perception.FeedbackEntry{Message: payload.Message, Rating: payload.Rating})
		return err
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, stored)
}

func (h *Handler) handleFeedbackAnalysis(w http.ResponseWriter, r *http.Request) {
	var summary perception.FeedbackSummary
	err := h.do(r, func(_ context.Context, s *sessionService.Session) error {
		summary = s.GetFeedbackAnalysis()
		return nil
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, summary)
}

// handleGenerateExplanation 基于分析器当前上下文生成解释
func (h *Handler) handleGenerateExplanation(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ResponseKey string `json:"responseKey"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var entry perception.ExplanationEntry
	err := h.do(r, func(ctx context.Context, s *sessionService.Session) error {
		var err error
		entry, err = s.GenerateExplanation(ctx, payload.ResponseKey, s.CurrentContext())
		return err
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleGetExplanation(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var entry perception.ExplanationEntry
	err := h.do(r, func(_ context.Context, s *sessionService.Session) error {
		var err error
		entry, err = s.GetExplanation(key)
		return err
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleAddTraining(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Label   string         `json:"label"`
		Payload map[string]any `json:"payload"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var stored perception.TrainingRecord
	err := h.do(r, func(_ context.Context, s *sessionService.Session) error {
		var err error
		stored, err = s.AddTrainingData(perception.TrainingRecord{Label: payload.Label, Payload: payload.Payload})
		return err
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, stored)
}

func (h *Handler) handleFairness(w http.ResponseWriter, r *http.Request) {
	var adjusted []perception.AdjustedRecord
	err := h.do(r, func(_ context.Context, s *sessionService.Session) error {
		var err error
		adjusted, err = s.ApplyBiasMitigation()
		return err
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	if adjusted == nil {
		adjusted = []perception.AdjustedRecord{}
	}
	utils.RespondJSON(w, http.StatusOK, adjusted)
}

func (h *Handler) handleModalities(w http.ResponseWriter, r *http.Request) {
	var snapshot perception.ModalitySnapshot
	err := h.do(r, func(_ context.Context, s *sessionService.Session) error {
		snapshot = s.GetProcessedData()
		return nil
	})
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) do(r *http.Request, fn func(ctx context.Context, s *sessionService.Session) error) error {
	return h.sessions.Do(r.Context(), chi.URLParam(r, "userID"), fn)
}

// respondErr 按错误类型映射状态码
func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Warn("request failed", "status", status, "error", err)
	}
	utils.RespondError(w, status, err.Error())
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, perrors.ErrInvalidInput), errors.Is(err, perrors.ErrUnsupportedModality):
		return http.StatusBadRequest
	case errors.Is(err, perrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, perrors.ErrAnalysis), errors.Is(err, perrors.ErrCollaborator):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
