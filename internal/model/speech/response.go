package speech

// ConversionResult 转换成功响应
type ConversionResult struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// ArtifactList 音频列表，按修改时间倒序
type ArtifactList struct {
	Files []string `json:"files"`
}
