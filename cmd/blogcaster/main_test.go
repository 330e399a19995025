package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/blogcaster/backend/internal/client"
	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
	"github.com/zhouzirui/blogcaster/backend/internal/service/speech"
)

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/text-to-speech/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Audio saved as 20240101_120000_hello.wav","filename":"20240101_120000_hello.wav"}`))
	})
	mux.HandleFunc("/artifacts/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/artifacts/" {
			_, _ = w.Write([]byte(`{"files":["20240101_120000_hello.wav"]}`))
			return
		}
		_, _ = w.Write([]byte("RIFF"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func TestConvertCommand(t *testing.T) {
	srv := fakeBackend(t)

	out, err := execute(t, "--server", srv.URL, "convert", "--text", "Hello.")
	require.NoError(t, err)
	assert.Contains(t, out, "Audio saved as 20240101_120000_hello.wav")
	assert.Contains(t, out, "  20240101_120000_hello.wav")
}

func TestConvertCommandRequiresText(t *testing.T) {
	_, err := execute(t, "--server", "http://127.0.0.1:1", "convert")
	assert.ErrorIs(t, err, client.ErrNoText)
}

func TestConvertCommandRejectsBinaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "post.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe}, 0o644))

	_, err := execute(t, "convert", "--file", path, "--use-file")
	assert.ErrorIs(t, err, client.ErrUploadNotText)
}

func TestFetchCommand(t *testing.T) {
	srv := fakeBackend(t)
	target := filepath.Join(t.TempDir(), "clip.wav")

	out, err := execute(t, "--server", srv.URL, "fetch", "20240101_120000_hello.wav", "-o", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF"), data)
}

func TestDescribeError(t *testing.T) {
	err := describeError(&client.HTTPError{Status: 503, Detail: "Service Unavailable: model not found"})
	assert.EqualError(t, err, "error 503: Service Unavailable: model not found")

	err = describeError(client.ErrTimeout)
	assert.ErrorIs(t, err, client.ErrTimeout)
	assert.Contains(t, err.Error(), "shorter text")

	err = describeError(client.ErrConnection)
	assert.Contains(t, err.Error(), "is it running")

	err = describeError(errors.New("boom"))
	assert.Contains(t, err.Error(), "unexpected")
}

type stubSynth struct{}

func (stubSynth) Synthesize(context.Context, string) (*speech.Audio, error) {
	return &speech.Audio{Data: []byte("ID3"), Format: speechmodel.FormatMP3, SampleRate: 24000}, nil
}

func (stubSynth) Format() speechmodel.Format { return speechmodel.FormatMP3 }

func TestRunSynthWritesFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "out.mp3")
	cmd := newSynthCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, runSynth(t.Context(), cmd, stubSynth{}, "Hello", target, 50))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3"), data)
	assert.Contains(t, out.String(), "24000 Hz")
}
