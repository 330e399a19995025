package speech

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
)

func TestResolveTTSResourceCandidates(t *testing.T) {
	tests := []struct {
		name  string
		voice string
		want  []string
	}{
		{name: "default voice", voice: "", want: []string{"volc.service_type.10029", "seed-tts-2.0"}},
		{name: "mega clone voice", voice: "S_clone_speaker", want: []string{"volc.megatts.default"}},
		{name: "bigtts voice", voice: "en_female_amy_jupiter_bigtts", want: []string{"seed-tts-2.0", "volc.service_type.10029"}},
		{name: "legacy voice", voice: "en_male_adam", want: []string{"volc.service_type.10029", "seed-tts-2.0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveTTSResourceCandidates(tt.voice))
		})
	}
}

func TestNewVolcengineSynthesizerRequiresCredentials(t *testing.T) {
	_, err := NewVolcengineSynthesizer(&speechmodel.SpeechConfig{AppID: "app"}, nil)
	assert.ErrorIs(t, err, errCredentialsMissing)

	_, err = NewVolcengineSynthesizer(nil, nil)
	assert.ErrorIs(t, err, errConfigMissing)

	synth, err := NewVolcengineSynthesizer(&speechmodel.SpeechConfig{AppID: "app", APIKey: "key"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "key", synth.accessKey)
	assert.Equal(t, speechmodel.FormatMP3, synth.Format())
}

// fakeTTSServer 模拟火山引擎单向流接口，handle 决定对每个连接回复哪些帧
type fakeTTSServer struct {
	t         *testing.T
	mu        sync.Mutex
	resources []string
	requests  []volcengineTTSRequest
	handle    func(resourceID string) [][]byte
}

func (f *fakeTTSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.t.Errorf("upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	_, data, err := conn.ReadMessage()
	if err != nil {
		f.t.Errorf("read failed: %v", err)
		return
	}
	msg, err := DecodeMessage(bytes.NewReader(data))
	if err != nil {
		f.t.Errorf("decode failed: %v", err)
		return
	}

	var req volcengineTTSRequest
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		f.t.Errorf("request payload: %v", err)
		return
	}

	resourceID := r.Header.Get("X-Api-Resource-Id")
	f.mu.Lock()
	f.resources = append(f.resources, resourceID)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	for _, frame := range f.handle(resourceID) {
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}
	}
}

func (f *fakeTTSServer) seen() ([]string, []volcengineTTSRequest) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resources...), append([]volcengineTTSRequest(nil), f.requests...)
}

func newTestSynthesizer(t *testing.T, handler *fakeTTSServer) *VolcengineSynthesizer {
	t.Helper()
	handler.t = t
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	synth, err := NewVolcengineSynthesizer(&speechmodel.SpeechConfig{
		AppID:       "app",
		AccessToken: "token",
		Endpoint:    "ws" + strings.TrimPrefix(srv.URL, "http"),
		TTSVoice:    "en_female_amy_jupiter_bigtts",
		TTSSpeed:    1.2,
		TTSVolume:   1.0,
		TTSLanguage: "en",
		Timeout:     5,
	}, nil)
	require.NoError(t, err)
	return synth
}

func audioFrame(t *testing.T, flags MessageFlags, seq int32, payload []byte) []byte {
	t.Helper()
	frame, err := EncodeMessage(&Message{
		Header:      NewHeader(AudioOnlyServerResponse, flags, NoSerialization, NoCompression),
		Sequence:    seq,
		PayloadSize: uint32(len(payload)),
		Payload:     payload,
	})
	require.NoError(t, err)
	return frame
}

func errorFrame(t *testing.T, code uint32, text string) []byte {
	t.Helper()
	frame, err := EncodeMessage(&Message{
		Header:      NewHeader(ErrorMessage, NoSequenceNumber, JSONSerialization, NoCompression),
		ErrorCode:   code,
		PayloadSize: uint32(len(text)),
		Payload:     []byte(text),
	})
	require.NoError(t, err)
	return frame
}

func TestVolcengineSynthesizeCollectsAudioFrames(t *testing.T) {
	server := &fakeTTSServer{
		handle: func(string) [][]byte {
			return [][]byte{
				audioFrame(t, PositiveSequenceNumber, 1, []byte("ID3")),
				audioFrame(t, PositiveSequenceNumber, 2, []byte("frame")),
				audioFrame(t, NegativeSequenceNumber, -3, []byte("end")),
			}
		},
	}
	synth := newTestSynthesizer(t, server)

	audio, err := synth.Synthesize(t.Context(), "Hello world.")
	require.NoError(t, err)

	assert.Equal(t, []byte("ID3frameend"), audio.Data)
	assert.Equal(t, speechmodel.FormatMP3, audio.Format)
	assert.Equal(t, cloudSampleRate, audio.SampleRate)

	resources, requests := server.seen()
	require.Len(t, requests, 1)
	req := requests[0]
	assert.Equal(t, "Hello world.", req.ReqParams.Text)
	assert.Equal(t, "en_female_amy_jupiter_bigtts", req.ReqParams.Speaker)
	assert.Equal(t, "mp3", req.ReqParams.AudioParams.Format)
	assert.InDelta(t, 1.2, req.ReqParams.AudioParams.SpeedRatio, 0.001)
	assert.Zero(t, req.ReqParams.AudioParams.VolumeRatio)
	assert.Equal(t, []string{"seed-tts-2.0"}, resources)
}

func TestVolcengineSynthesizeDecodesJSONAudio(t *testing.T) {
	body, err := json.Marshal(ttsServerMessage{Code: 3000, Data: base64.StdEncoding.EncodeToString([]byte("mp3-bytes")), Sequence: -1})
	require.NoError(t, err)

	server := &fakeTTSServer{
		handle: func(string) [][]byte {
			frame, err := EncodeMessage(&Message{
				Header:      NewHeader(FullServerResponse, NoSequenceNumber, JSONSerialization, NoCompression),
				PayloadSize: uint32(len(body)),
				Payload:     body,
			})
			require.NoError(t, err)
			return [][]byte{frame}
		},
	}
	synth := newTestSynthesizer(t, server)

	audio, err := synth.Synthesize(t.Context(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio.Data)
}

func TestVolcengineSynthesizeFallsBackOnResourceMismatch(t *testing.T) {
	server := &fakeTTSServer{
		handle: func(resourceID string) [][]byte {
			if resourceID == "seed-tts-2.0" {
				return [][]byte{errorFrame(t, 45000001, "resource ID is mismatched with speaker related resource")}
			}
			return [][]byte{audioFrame(t, LastPacketNoSequence, 0, []byte("audio"))}
		},
	}
	synth := newTestSynthesizer(t, server)

	audio, err := synth.Synthesize(t.Context(), "Hello")
	require.NoError(t, err)
	assert.Equal(t, []byte("audio"), audio.Data)
	resources, _ := server.seen()
	assert.Equal(t, []string{"seed-tts-2.0", "volc.service_type.10029"}, resources)
}

func TestVolcengineSynthesizeServerErrorIsSynthesisError(t *testing.T) {
	server := &fakeTTSServer{
		handle: func(string) [][]byte {
			return [][]byte{errorFrame(t, 55000000, "internal error")}
		},
	}
	synth := newTestSynthesizer(t, server)

	_, err := synth.Synthesize(t.Context(), "Hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSynthesis)
	assert.Contains(t, err.Error(), "internal error")
	resources, _ := server.seen()
	assert.Len(t, resources, 1)
}

func TestVolcengineSynthesizeEmptyAudio(t *testing.T) {
	server := &fakeTTSServer{
		handle: func(string) [][]byte {
			return [][]byte{audioFrame(t, LastPacketNoSequence, 0, nil)}
		},
	}
	synth := newTestSynthesizer(t, server)

	_, err := synth.Synthesize(t.Context(), "Hello")
	assert.ErrorIs(t, err, ErrSynthesis)
}

func TestIsResourceMismatchError(t *testing.T) {
	assert.False(t, isResourceMismatchError(nil))
	assert.False(t, isResourceMismatchError(errors.New("boom")))
	assert.True(t, isResourceMismatchError(errors.New("TTS error 45000001: resource ID is mismatched with speaker related resource")))
}
