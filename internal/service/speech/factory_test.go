package speech

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/blogcaster/backend/internal/config"
	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
)

func TestNewFromConfigCloud(t *testing.T) {
	synth, err := NewFromConfig(&config.Config{
		Backend: config.BackendCloud,
		Cloud:   config.CloudConfig{AppID: "app", AccessToken: "token", Voice: "en_female_amy_jupiter_bigtts"},
	}, nil)
	require.NoError(t, err)

	assert.IsType(t, &VolcengineSynthesizer{}, synth)
	assert.NoError(t, Ready(synth))
}

func TestNewFromConfigCloudWithoutCredentials(t *testing.T) {
	synth, err := NewFromConfig(&config.Config{Backend: config.BackendCloud}, nil)
	require.Error(t, err)

	assert.ErrorIs(t, Ready(synth), ErrServiceUnavailable)
	assert.Equal(t, speechmodel.FormatMP3, synth.Format())
}

func TestNewFromConfigLocalLoadFailure(t *testing.T) {
	synth, err := NewFromConfig(&config.Config{
		Backend: config.BackendLocal,
		Local:   config.LocalConfig{Runner: "definitely-not-a-blogcaster-runner"},
	}, nil)
	require.Error(t, err)

	assert.ErrorIs(t, Ready(synth), ErrServiceUnavailable)
	assert.Equal(t, speechmodel.FormatWAV, synth.Format())
}

func TestNewFromConfigLocalModelFailsToLoad(t *testing.T) {
	cfg, dir := localFixture(t, `echo load >> "$DIR/loads"
echo "OSError: unable to load weights" >&2
exit 1`)

	synth, err := NewFromConfig(&config.Config{
		Backend: config.BackendLocal,
		Local: config.LocalConfig{
			Runner:           cfg.Runner,
			ModelPath:        cfg.ModelPath,
			VocoderPath:      cfg.VocoderPath,
			SpeakerEmbedding: cfg.SpeakerEmbedding,
		},
	}, nil)
	require.Error(t, err)

	assert.ErrorIs(t, Ready(synth), ErrServiceUnavailable)
	for i := 0; i < 2; i++ {
		_, err := synth.Synthesize(t.Context(), "Hello world.")
		assert.ErrorIs(t, err, ErrServiceUnavailable)
	}
	assert.Equal(t, 1, countLoads(t, dir))
}

func TestNewFromConfigCloudChecksCredentialsBeforeDialing(t *testing.T) {
	synth, err := NewFromConfig(&config.Config{
		Backend: config.BackendCloud,
		Cloud:   config.CloudConfig{AppID: " ", AccessToken: "token"},
	}, nil)
	require.ErrorIs(t, err, errCredentialsMissing)
	assert.ErrorIs(t, Ready(synth), ErrServiceUnavailable)

	synth, err = NewFromConfig(&config.Config{
		Backend: config.BackendCloud,
		Cloud:   config.CloudConfig{AppID: "app", APIKey: "legacy-key"},
	}, nil)
	require.NoError(t, err)
	assert.NoError(t, Ready(synth))
}

func TestNewFromConfigLocal(t *testing.T) {
	cfg, _ := localFixture(t, readyRunner)

	synth, err := NewFromConfig(&config.Config{
		Backend: config.BackendLocal,
		Local: config.LocalConfig{
			Runner:           cfg.Runner,
			ModelPath:        cfg.ModelPath,
			VocoderPath:      cfg.VocoderPath,
			SpeakerEmbedding: cfg.SpeakerEmbedding,
			Device:           "cuda",
		},
	}, nil)
	require.NoError(t, err)

	local, ok := synth.(*LocalSynthesizer)
	require.True(t, ok)
	t.Cleanup(func() { _ = local.Close() })
	assert.Equal(t, "cuda", local.device)
	assert.NoError(t, Ready(synth))
}
