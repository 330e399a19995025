package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
)

const (
	defaultVolcengineEndpoint = "wss://openspeech.bytedance.com/api/v3/tts/unidirectional/stream"
	cloudSampleRate           = 24000
)

// VolcengineSynthesizer 通过火山引擎单向流式 WebSocket 接口合成 mp3
type VolcengineSynthesizer struct {
	config      *speechmodel.SpeechConfig
	appKey      string
	accessKey   string
	endpoint    string
	readTimeout time.Duration
	dialer      *websocket.Dialer
	logger      *zap.Logger
}

type ttsServerMessage struct {
	ReqID    string `json:"reqid"`
	Code     int    `json:"code"`
	Message  string `json:"message"`
	Sequence int    `json:"sequence"`
	Data     string `json:"data"`
}

type volcengineTTSRequest struct {
	User struct {
		UID string `json:"uid"`
	} `json:"user"`
	ReqParams struct {
		Speaker     string                   `json:"speaker"`
		Text        string                   `json:"text"`
		AudioParams volcengineTTSAudioParams `json:"audio_params"`
		Additions   string                   `json:"additions,omitempty"`
		Language    string                   `json:"language,omitempty"`
	} `json:"req_params"`
}

type volcengineTTSAudioParams struct {
	Format          string  `json:"format"`
	SampleRate      int     `json:"sample_rate"`
	EnableTimestamp bool    `json:"enable_timestamp"`
	SpeedRatio      float32 `json:"speed_ratio,omitempty"`
	VolumeRatio     float32 `json:"volume_ratio,omitempty"`
}

// NewVolcengineSynthesizer 校验凭证并创建客户端。凭证缺失时返回错误，调用方应改用 Unavailable。
func NewVolcengineSynthesizer(config *speechmodel.SpeechConfig, logger *zap.Logger) (*VolcengineSynthesizer, error) {
	appKey, accessKey, err := resolveCredentials(config)
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimSpace(config.Endpoint)
	if endpoint == "" {
		endpoint = defaultVolcengineEndpoint
	}

	timeout := time.Duration(config.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &VolcengineSynthesizer{
		config:      config,
		appKey:      appKey,
		accessKey:   accessKey,
		endpoint:    endpoint,
		readTimeout: timeout,
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		},
		logger: logger.With(zap.String("component", "volcengine_tts")),
	}, nil
}

// Format 云端后端输出 mp3
func (c *VolcengineSynthesizer) Format() speechmodel.Format {
	return speechmodel.FormatMP3
}

// Synthesize 发送完整文本并收集全部音频帧。除资源 ID 协商外不做任何重试。
func (c *VolcengineSynthesizer) Synthesize(ctx context.Context, text string) (*Audio, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrSynthesis)
	}

	speaker := strings.TrimSpace(c.config.TTSVoice)
	var lastMismatch error

	for idx, resourceID := range resolveTTSResourceCandidates(speaker) {
		data, err := c.synthesizeWithResource(ctx, text, speaker, resourceID)
		if err == nil {
			if idx > 0 {
				c.logger.Info("voice succeeded with fallback resource",
					zap.String("speaker", speaker), zap.String("resource_id", resourceID))
			}
			return &Audio{Data: data, Format: speechmodel.FormatMP3, SampleRate: cloudSampleRate}, nil
		}

		if !isResourceMismatchError(err) {
			return nil, fmt.Errorf("%w: %w", ErrSynthesis, err)
		}

		c.logger.Warn("resource mismatch",
			zap.String("speaker", speaker), zap.String("resource_id", resourceID), zap.Error(err))
		lastMismatch = err
	}

	return nil, fmt.Errorf("%w: no compatible resource id for voice %q: %w", ErrSynthesis, speaker, lastMismatch)
}

func (c *VolcengineSynthesizer) synthesizeWithResource(ctx context.Context, text, speaker, resourceID string) ([]byte, error) {
	connectID := uuid.New().String()

	header := http.Header{}
	header.Set("X-Api-App-Key", c.appKey)
	header.Set("X-Api-Access-Key", c.accessKey)
	header.Set("X-Api-Resource-Id", resourceID)
	header.Set("X-Api-Connect-Id", connectID)

	conn, resp, err := c.dialer.DialContext(ctx, c.endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to TTS WebSocket: %w", err)
	}
	defer conn.Close()

	if resp != nil {
		if logid := resp.Header.Get("X-Tt-Logid"); logid != "" {
			c.logger.Debug("connected", zap.String("logid", logid), zap.String("connect_id", connectID))
		}
	}

	payload, err := json.Marshal(c.buildTTSRequest(text, speaker))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TTS request: %w", err)
	}

	frame, err := EncodeMessage(CreateFullClientRequest(payload, NoCompression))
	if err != nil {
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}

	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return nil, fmt.Errorf("failed to send TTS request: %w", err)
	}

	var audio bytes.Buffer
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("failed to read TTS response: %w", err)
		}

		msg, err := DecodeMessage(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decode TTS message: %w", err)
		}

		done, err := c.consume(msg, &audio)
		if err != nil {
			return nil, err
		}
		if done {
			if audio.Len() == 0 {
				return nil, errors.New("TTS audio is empty")
			}
			return audio.Bytes(), nil
		}
	}
}

// consume 处理一帧服务端消息，返回会话是否结束
func (c *VolcengineSynthesizer) consume(msg *Message, audio *bytes.Buffer) (bool, error) {
	payload, err := msg.Body()
	if err != nil {
		return false, fmt.Errorf("failed to decompress TTS payload: %w", err)
	}

	switch msg.Header.MessageType {
	case ErrorMessage:
		return false, fmt.Errorf("TTS error %d: %s", msg.ErrorCode, string(payload))

	case AudioOnlyServerResponse:
		audio.Write(payload)
		return msg.IsLastPacket(), nil

	case FullServerResponse:
		var serverResp ttsServerMessage
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &serverResp); err != nil {
				c.logger.Debug("failed to unmarshal response payload", zap.Error(err))
			} else {
				if serverResp.Code != 0 && serverResp.Code != 3000 {
					return false, fmt.Errorf("TTS API error %d: %s", serverResp.Code, serverResp.Message)
				}
				if serverResp.Data != "" {
					chunk, err := base64.StdEncoding.DecodeString(serverResp.Data)
					if err != nil {
						return false, fmt.Errorf("failed to decode base64 audio chunk: %w", err)
					}
					audio.Write(chunk)
				}
			}
		}

		if msg.Header.hasEvent() && !msg.IsSessionFinished() {
			c.logger.Debug("server event", zap.Int32("event", int32(msg.EventType)))
		}

		return msg.IsSessionFinished() || msg.IsLastPacket() || serverResp.Sequence < 0, nil

	default:
		c.logger.Warn("unexpected message type", zap.Uint8("type", uint8(msg.Header.MessageType)))
		return false, nil
	}
}

// buildTTSRequest 构建符合火山引擎 API 的请求体
func (c *VolcengineSynthesizer) buildTTSRequest(text, speaker string) *volcengineTTSRequest {
	req := &volcengineTTSRequest{}
	req.User.UID = uuid.New().String()
	req.ReqParams.Speaker = speaker
	req.ReqParams.Text = text
	req.ReqParams.AudioParams = volcengineTTSAudioParams{
		Format:          string(speechmodel.FormatMP3),
		SampleRate:      cloudSampleRate,
		EnableTimestamp: true,
	}

	if speed := c.config.TTSSpeed; speed > 0 && speed != 1.0 {
		req.ReqParams.AudioParams.SpeedRatio = speed
	}
	if volume := c.config.TTSVolume; volume > 0 && volume != 1.0 {
		req.ReqParams.AudioParams.VolumeRatio = volume
	}
	if language := strings.TrimSpace(c.config.TTSLanguage); language != "" {
		req.ReqParams.Language = language
	}

	req.ReqParams.Additions = `{"disable_markdown_filter":false}`
	return req
}

// resolveTTSResourceCandidates 按音色族给出可尝试的资源 ID
func resolveTTSResourceCandidates(voice string) []string {
	const (
		defaultResource = "volc.service_type.10029"
		megaResource    = "volc.megatts.default"
		seedResource    = "seed-tts-2.0"
	)

	voice = strings.TrimSpace(voice)
	if voice == "" {
		return []string{defaultResource, seedResource}
	}

	if strings.HasPrefix(voice, "S_") {
		return []string{megaResource}
	}

	normalized := strings.ToLower(voice)
	for _, hint := range []string{"bigtts", "seed", "megatts", "uranus", "venus", "jupiter", "saturn", "neptune", "mercury", "pluto", "mars"} {
		if strings.Contains(normalized, hint) {
			return []string{seedResource, defaultResource}
		}
	}

	return []string{defaultResource, seedResource}
}

func isResourceMismatchError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "resource ID is mismatched with speaker related resource")
}
