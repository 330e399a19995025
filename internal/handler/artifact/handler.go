package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
	"github.com/zhouzirui/blogcaster/backend/internal/storage"
	"github.com/zhouzirui/blogcaster/backend/pkg/utils"
)

// Store 音频文件读取接口
type Store interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, name string) ([]byte, error)
}

// Catalog 元数据查询接口
type Catalog interface {
	Get(ctx context.Context, filename string) (*speechmodel.GeneratedArtifact, error)
}

// Handler 音频列表与播放
type Handler struct {
	store   Store
	catalog Catalog
	logger  *zap.Logger
}

// New 创建处理器，catalog 可为 nil
func New(store Store, catalog Catalog, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, catalog: catalog, logger: logger.With(zap.String("component", "artifact_handler"))}
}

// RegisterRoutes 注册 /artifacts 路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/artifacts", func(ar chi.Router) {
		ar.Get("/", h.handleList)
		ar.Get("/{filename}", h.handleServe)
		ar.Get("/{filename}/info", h.handleInfo)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	files, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list artifacts", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list audio files: %v", err))
		return
	}
	utils.RespondJSON(w, http.StatusOK, speechmodel.ArtifactList{Files: files})
}

func (h *Handler) handleServe(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	format, ok := speechmodel.FormatFromFilename(filename)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, fmt.Sprintf("Audio file not found: %s", filename))
		return
	}

	data, err := h.store.Read(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, fmt.Sprintf("Audio file not found: %s", filename))
			return
		}
		h.logger.Error("failed to read artifact", zap.String("filename", filename), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read audio file: %v", err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	// ServeContent 支持 Range 请求，播放器可以拖动进度
	http.ServeContent(w, r, filename, time.Time{}, bytes.NewReader(data))
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	if h.catalog == nil {
		utils.RespondError(w, http.StatusNotFound, "Artifact catalog is disabled")
		return
	}

	artifact, err := h.catalog.Get(r.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, fmt.Sprintf("No metadata recorded for %s", filename))
			return
		}
		h.logger.Error("failed to query catalog", zap.String("filename", filename), zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to query metadata: %v", err))
		return
	}

	utils.RespondJSON(w, http.StatusOK, artifact)
}
