package speech

// ConversionRequest 文本转语音请求
type ConversionRequest struct {
	Text string `json:"text"`
}
