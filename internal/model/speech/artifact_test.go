package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatFromFilename(t *testing.T) {
	cases := []struct {
		name   string
		want   Format
		wantOK bool
	}{
		{name: "20240101_120000_hello.wav", want: FormatWAV, wantOK: true},
		{name: "clip.MP3", want: FormatMP3, wantOK: true},
		{name: "notes.txt", wantOK: false},
		{name: "wav", wantOK: false},
	}

	for _, tc := range cases {
		got, ok := FormatFromFilename(tc.name)
		assert.Equal(t, tc.wantOK, ok, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}
}

func TestFormatContentType(t *testing.T) {
	assert.Equal(t, "audio/wav", FormatWAV.ContentType())
	assert.Equal(t, "audio/mpeg", FormatMP3.ContentType())
	assert.Equal(t, ".mp3", FormatMP3.Extension())
}
