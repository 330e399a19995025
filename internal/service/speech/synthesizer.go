package speech

import (
	"context"
	"fmt"

	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
)

// Audio 一次合成得到的完整音频，已封装为容器格式。
type Audio struct {
	Data       []byte
	Format     speechmodel.Format
	SampleRate int
}

// Synthesizer 文本转语音能力。实现必须同步完成，一次调用只产出一段音频。
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*Audio, error)
	// Format 返回该后端原生输出格式，用于确定文件扩展名。
	Format() speechmodel.Format
}

// ReadinessChecker 由可能处于不可用状态的后端实现。
type ReadinessChecker interface {
	Ready() error
}

// Ready 返回后端的可用状态；未实现 ReadinessChecker 的后端视为可用。
func Ready(s Synthesizer) error {
	if checker, ok := s.(ReadinessChecker); ok {
		return checker.Ready()
	}
	return nil
}

// Unavailable 是启动时初始化失败的后端句柄。之后的每次请求都直接失败，不再重新加载。
type Unavailable struct {
	format speechmodel.Format
	cause  error
}

// NewUnavailable 记录初始化失败原因
func NewUnavailable(format speechmodel.Format, cause error) *Unavailable {
	return &Unavailable{format: format, cause: cause}
}

// Ready 总是返回 ErrServiceUnavailable
func (u *Unavailable) Ready() error {
	return fmt.Errorf("%w: %v", ErrServiceUnavailable, u.cause)
}

// Synthesize 总是返回 ErrServiceUnavailable
func (u *Unavailable) Synthesize(context.Context, string) (*Audio, error) {
	return nil, u.Ready()
}

// Format 返回原本配置的后端格式
func (u *Unavailable) Format() speechmodel.Format {
	return u.format
}
