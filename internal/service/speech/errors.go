package speech

import "errors"

// 合成后端错误分类，由 HTTP 层映射为状态码。
var (
	// ErrServiceUnavailable 依赖在启动时初始化失败
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrResourceExhausted 推理过程内存不足
	ErrResourceExhausted = errors.New("resource exhausted")
	// ErrSynthesis 其他合成失败
	ErrSynthesis = errors.New("synthesis failed")
)
