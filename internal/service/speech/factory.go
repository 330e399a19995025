package speech

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/zhouzirui/blogcaster/backend/internal/config"
	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
)

// NewFromConfig 按配置选择后端，启动时调用一次。初始化失败时仍返回可用的 Unavailable 句柄，
// 同时返回失败原因供调用方记录；服务照常启动，请求统一得到 503。
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (Synthesizer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case config.BackendLocal:
		synth, err := LoadLocal(speechmodel.LocalModelConfig{
			Runner:           cfg.Local.Runner,
			ModelPath:        cfg.Local.ModelPath,
			VocoderPath:      cfg.Local.VocoderPath,
			SpeakerEmbedding: cfg.Local.SpeakerEmbedding,
			Device:           cfg.Local.Device,
			LoadTimeout:      cfg.Local.LoadTimeout,
		}, logger)
		if err != nil {
			return NewUnavailable(speechmodel.FormatWAV, err), err
		}
		return synth, nil

	case config.BackendCloud, "":
		if !cfg.Cloud.Enabled() {
			return NewUnavailable(speechmodel.FormatMP3, errCredentialsMissing), errCredentialsMissing
		}
		synth, err := NewVolcengineSynthesizer(&speechmodel.SpeechConfig{
			AppID:       cfg.Cloud.AppID,
			AccessToken: cfg.Cloud.AccessToken,
			APIKey:      cfg.Cloud.APIKey,
			Endpoint:    cfg.Cloud.Endpoint,
			TTSVoice:    cfg.Cloud.Voice,
			TTSSpeed:    cfg.Cloud.Speed,
			TTSVolume:   cfg.Cloud.Volume,
			TTSLanguage: cfg.Cloud.Language,
			Timeout:     cfg.Cloud.Timeout,
		}, logger)
		if err != nil {
			return NewUnavailable(speechmodel.FormatMP3, err), err
		}
		return synth, nil

	default:
		err := fmt.Errorf("unknown tts backend %q", cfg.Backend)
		return NewUnavailable(speechmodel.FormatWAV, err), err
	}
}
