package speech

import (
	"bytes"
	"encoding/binary"
	"math"
)

const (
	wavHeaderSize    = 44
	wavBitsPerSample = 16
	wavChannels      = 1
)

// EncodeWAV 将单声道 float32 采样封装为 16-bit PCM WAV。超出 [-1, 1] 的采样会被截断。
func EncodeWAV(samples []float32, sampleRate int) []byte {
	dataSize := len(samples) * wavBitsPerSample / 8
	blockAlign := wavChannels * wavBitsPerSample / 8
	byteRate := sampleRate * blockAlign

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+dataSize))

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, uint16(wavChannels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(wavBitsPerSample))

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataSize))

	pcm := make([]byte, 2)
	for _, sample := range samples {
		binary.LittleEndian.PutUint16(pcm, uint16(toPCM16(sample)))
		buf.Write(pcm)
	}

	return buf.Bytes()
}

func toPCM16(sample float32) int16 {
	if math.IsNaN(float64(sample)) {
		return 0
	}
	if sample > 1 {
		sample = 1
	}
	if sample < -1 {
		sample = -1
	}
	return int16(math.Round(float64(sample) * math.MaxInt16))
}

// decodeFloat32LE 解析 runner 输出的小端 float32 采样
func decodeFloat32LE(data []byte) ([]float32, bool) {
	if len(data)%4 != 0 {
		return nil, false
	}
	samples := make([]float32, len(data)/4)
	for i := range samples {
		samples[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return samples, true
}
