package speech

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
)

type staticSynthesizer struct{}

func (staticSynthesizer) Synthesize(context.Context, string) (*Audio, error) {
	return &Audio{Data: []byte("x"), Format: speechmodel.FormatWAV}, nil
}

func (staticSynthesizer) Format() speechmodel.Format { return speechmodel.FormatWAV }

func TestReadyDefaultsToAvailable(t *testing.T) {
	assert.NoError(t, Ready(staticSynthesizer{}))
}

func TestUnavailableAlwaysFails(t *testing.T) {
	cause := errors.New("model weights missing")
	synth := NewUnavailable(speechmodel.FormatWAV, cause)

	err := Ready(synth)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Contains(t, err.Error(), "model weights missing")

	for range 2 {
		_, err = synth.Synthesize(t.Context(), "Hello")
		assert.ErrorIs(t, err, ErrServiceUnavailable)
	}
	assert.Equal(t, speechmodel.FormatWAV, synth.Format())
}
