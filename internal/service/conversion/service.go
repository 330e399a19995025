package conversion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
	"github.com/zhouzirui/blogcaster/backend/internal/service/speech"
)

// ErrInvalidInput 文本为空或只含空白
var ErrInvalidInput = errors.New("text input cannot be empty")

// ArtifactWriter 持久化音频文件，返回最终路径
type ArtifactWriter interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

// Recorder 记录生成的音频元数据
type Recorder interface {
	Record(ctx context.Context, artifact *speechmodel.GeneratedArtifact) error
}

// Config 转换服务可选项
type Config struct {
	Backend          string // 记录到元数据中的后端名
	SnippetMaxLength int    // <=0 时使用默认值
	Recorder         Recorder
	Now              func() time.Time
	Logger           *zap.Logger
}

// Service 编排一次文本转语音：校验、命名、合成、落盘。
type Service struct {
	synth     speech.Synthesizer
	store     ArtifactWriter
	recorder  Recorder
	backend   string
	maxLength int
	now       func() time.Time
	logger    *zap.Logger
}

// NewService 创建转换服务
func NewService(synth speech.Synthesizer, store ArtifactWriter, cfg Config) *Service {
	maxLength := cfg.SnippetMaxLength
	if maxLength <= 0 {
		maxLength = DefaultSnippetMaxLength
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		synth:     synth,
		store:     store,
		recorder:  cfg.Recorder,
		backend:   cfg.Backend,
		maxLength: maxLength,
		now:       now,
		logger:    logger.With(zap.String("component", "conversion")),
	}
}

// Ready 报告合成后端是否可用
func (s *Service) Ready() error {
	return speech.Ready(s.synth)
}

// Backend 返回当前后端名
func (s *Service) Backend() string {
	return s.backend
}

// Convert 合成全文并写入音频目录。后端不可用时无论输入如何都返回 ErrServiceUnavailable；
// 合成失败不会留下任何文件。
func (s *Service) Convert(ctx context.Context, req speechmodel.ConversionRequest) (*speechmodel.GeneratedArtifact, error) {
	if err := s.Ready(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrInvalidInput
	}

	createdAt := s.now()
	format := s.synth.Format()
	filename := DeriveFilename(req.Text, createdAt, format.Extension(), s.maxLength)

	started := time.Now()
	audio, err := s.synth.Synthesize(ctx, req.Text)
	if err != nil {
		s.logger.Warn("synthesis failed",
			zap.String("filename", filename),
			zap.Int("text_length", len(req.Text)),
			zap.Error(err))
		return nil, err
	}

	// 后端实际返回的格式优先
	if audio.Format != "" && audio.Format != format {
		filename = DeriveFilename(req.Text, createdAt, audio.Format.Extension(), s.maxLength)
		format = audio.Format
	}

	path, err := s.store.Write(ctx, filename, audio.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to save audio %s: %w", filename, err)
	}

	artifact := &speechmodel.GeneratedArtifact{
		Filename:   filename,
		Path:       path,
		CreatedAt:  createdAt,
		SampleRate: audio.SampleRate,
		Format:     format,
		Size:       int64(len(audio.Data)),
		Backend:    s.backend,
	}

	s.logger.Info("audio saved",
		zap.String("filename", filename),
		zap.Int64("size", artifact.Size),
		zap.Duration("elapsed", time.Since(started)))

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, artifact); err != nil {
			s.logger.Error("failed to record artifact", zap.String("filename", filename), zap.Error(err))
		}
	}

	return artifact, nil
}

// SuccessMessage 成功响应中的提示语
func SuccessMessage(filename string) string {
	return fmt.Sprintf("Audio saved as %s", filename)
}
