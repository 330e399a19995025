package tts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
	"github.com/zhouzirui/blogcaster/backend/internal/service/conversion"
	"github.com/zhouzirui/blogcaster/backend/internal/service/speech"
	"github.com/zhouzirui/blogcaster/backend/pkg/utils"
)

const maxRequestBytes = 10 << 20

// Converter 抽象转换业务，便于测试替换
type Converter interface {
	Convert(ctx context.Context, req speechmodel.ConversionRequest) (*speechmodel.GeneratedArtifact, error)
	Ready() error
}

// Handler 文本转语音的HTTP处理器
type Handler struct {
	converter Converter
	logger    *zap.Logger
}

// New 创建处理器
func New(converter Converter, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{converter: converter, logger: logger.With(zap.String("component", "tts_handler"))}
}

// RegisterRoutes 注册转换路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/text-to-speech/", h.handleConvert)
	r.Post("/text-to-speech", h.handleConvert)
}

// handleConvert 处理 POST /text-to-speech/
func (h *Handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	// 后端不可用时不论请求体是否合法都返回 503
	if err := h.converter.Ready(); err != nil {
		status, detail := errorResponse(err)
		utils.RespondError(w, status, detail)
		return
	}

	var req speechmodel.ConversionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		utils.RespondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	// 客户端超时断开后合成照常进行
	artifact, err := h.converter.Convert(context.WithoutCancel(r.Context()), req)
	if err != nil {
		status, detail := errorResponse(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("conversion failed", zap.Int("status", status), zap.Error(err))
		}
		utils.RespondError(w, status, detail)
		return
	}

	utils.RespondJSON(w, http.StatusOK, speechmodel.ConversionResult{
		Message:  conversion.SuccessMessage(artifact.Filename),
		Filename: artifact.Filename,
	})
}

// errorResponse 把业务错误映射为状态码与 detail
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, conversion.ErrInvalidInput):
		return http.StatusBadRequest, "Text input cannot be empty."
	case errors.Is(err, speech.ErrServiceUnavailable):
		return http.StatusServiceUnavailable, fmt.Sprintf("Service Unavailable: %v", err)
	case errors.Is(err, speech.ErrResourceExhausted):
		return http.StatusInternalServerError, fmt.Sprintf("Error generating audio: out of memory. Try shorter text. Details: %v", err)
	case errors.Is(err, speech.ErrSynthesis):
		return http.StatusInternalServerError, fmt.Sprintf("Error generating audio: %v", err)
	default:
		return http.StatusInternalServerError, fmt.Sprintf("An unexpected error occurred during TTS: %v", err)
	}
}
