package speech

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SpeakerProfile 固定的说话人嵌入向量。进程内只加载一次，之后只读，可并发访问。
type SpeakerProfile struct {
	embedding []float32
}

// LoadSpeakerProfile 读取嵌入文件。.json 文件可以是数字数组或 {"xvector": [...]}，
// 其余按小端 float32 原始数据解析。
func LoadSpeakerProfile(path string) (*SpeakerProfile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("speaker embedding path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read speaker embedding: %w", err)
	}

	var embedding []float32
	if strings.EqualFold(filepath.Ext(path), ".json") {
		embedding, err = parseEmbeddingJSON(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse speaker embedding %s: %w", path, err)
		}
	} else {
		var ok bool
		embedding, ok = decodeFloat32LE(data)
		if !ok {
			return nil, fmt.Errorf("speaker embedding %s is not a float32 array (%d bytes)", path, len(data))
		}
	}

	if len(embedding) == 0 {
		return nil, fmt.Errorf("speaker embedding %s is empty", path)
	}

	return &SpeakerProfile{embedding: embedding}, nil
}

func parseEmbeddingJSON(data []byte) ([]float32, error) {
	var vector []float32
	if err := json.Unmarshal(data, &vector); err == nil {
		return vector, nil
	}

	var wrapped struct {
		XVector []float32 `json:"xvector"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.XVector, nil
}

// Dim 返回向量维度
func (p *SpeakerProfile) Dim() int {
	return len(p.embedding)
}

// Embedding 返回向量副本
func (p *SpeakerProfile) Embedding() []float32 {
	return append([]float32(nil), p.embedding...)
}
