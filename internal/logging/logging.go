package logging

import (
	"strings"

	"go.uber.org/zap"
)

// Config 日志配置
type Config struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json", "console"
}

// New 根据配置构建 zap logger。无法识别的级别退回 info。
func New(cfg Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	switch strings.ToLower(strings.TrimSpace(cfg.Format)) {
	case "json":
		zapConfig = zap.NewProductionConfig()
	default:
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	return zapConfig.Build(zap.AddStacktrace(zap.ErrorLevel))
}

// Sync 刷新缓冲日志。终端上 Sync 常返回 EINVAL，可忽略。
func Sync(logger *zap.Logger) {
	if logger == nil {
		return
	}
	_ = logger.Sync()
}
