package speech

import (
	"path/filepath"
	"strings"
	"time"
)

// Format 音频容器格式
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// Extension 返回带点的文件扩展名
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType 返回播放所需的 MIME 类型
func (f Format) ContentType() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatMP3:
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}

// FormatFromFilename 根据扩展名识别格式，不支持的扩展名返回 false。
func FormatFromFilename(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".wav":
		return FormatWAV, true
	case ".mp3":
		return FormatMP3, true
	default:
		return "", false
	}
}

// GeneratedArtifact 一次成功转换产生的音频文件，创建后不可变。
type GeneratedArtifact struct {
	Filename   string    `json:"filename"`
	Path       string    `json:"path"`
	CreatedAt  time.Time `json:"createdAt"`
	SampleRate int       `json:"sampleRate,omitempty"`
	Format     Format    `json:"format"`
	Size       int64     `json:"size"`
	Backend    string    `json:"backend,omitempty"`
}
