package speech

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAVHeader(t *testing.T) {
	data := EncodeWAV([]float32{0, 0.5, -0.5, 2, -2}, 16000)
	require.Len(t, data, wavHeaderSize+10)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, uint32(36+10), binary.LittleEndian.Uint32(data[4:8]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[20:22]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24]))
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(data[24:28]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(data[28:32]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(data[32:34]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(data[34:36]))
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(10), binary.LittleEndian.Uint32(data[40:44]))
}

func TestToPCM16Clips(t *testing.T) {
	assert.Equal(t, int16(0), toPCM16(0))
	assert.Equal(t, int16(16384), toPCM16(0.5))
	assert.Equal(t, int16(math.MaxInt16), toPCM16(3))
	assert.Equal(t, int16(-math.MaxInt16), toPCM16(-3))
	assert.Equal(t, int16(0), toPCM16(float32(math.NaN())))
}

func TestDecodeFloat32LE(t *testing.T) {
	_, ok := decodeFloat32LE([]byte{1, 2, 3})
	assert.False(t, ok)

	samples, ok := decodeFloat32LE(nil)
	assert.True(t, ok)
	assert.Empty(t, samples)
}
