package speech

// SpeechConfig 火山引擎语音合成配置
type SpeechConfig struct {
	AppID       string `json:"appId"`            // 火山引擎 APP ID
	AccessToken string `json:"accessToken"`      // 火山引擎 Access Token
	APIKey      string `json:"apiKey,omitempty"` // 兼容旧配置的 API Key
	Endpoint    string `json:"endpoint"`         // 单向流式合成地址

	TTSVoice    string  `json:"ttsVoice"`
	TTSSpeed    float32 `json:"ttsSpeed"`
	TTSVolume   float32 `json:"ttsVolume"`
	TTSLanguage string  `json:"ttsLanguage"`

	Timeout int `json:"timeout"` // seconds, 握手及单帧读取超时
}

// LocalModelConfig 本地 SpeechT5 类模型配置。推理由常驻的 runner 进程完成。
type LocalModelConfig struct {
	Runner           string `json:"runner"`           // runner 可执行文件
	ModelPath        string `json:"modelPath"`        // 声学模型
	VocoderPath      string `json:"vocoderPath"`      // 神经声码器
	SpeakerEmbedding string `json:"speakerEmbedding"` // 说话人嵌入向量文件
	Device           string `json:"device"`           // cpu / cuda
	LoadTimeout      int    `json:"loadTimeout"`      // seconds, 等待模型加载完成
}
