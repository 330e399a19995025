package speech

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
)

// LocalSampleRate SpeechT5 声码器输出采样率
const LocalSampleRate = 16000

const (
	defaultLoadTimeout = 5 * time.Minute
	closeGracePeriod   = 5 * time.Second
	stderrTailLimit    = 4096
	// 单次最多一小时音频，超出视为协议损坏
	maxRunnerSamples = LocalSampleRate * 60 * 60
)

var errRunnerClosed = errors.New("local tts runner closed")

// LocalSynthesizer 使用本地预训练模型推理。
//
// runner 进程在 LoadLocal 中启动一次并完成模型加载，之后常驻，逐个处理请求：
//
//	启动:  runner --model M --vocoder V --device D --sample-rate 16000
//	就绪:  stdout 输出一行 {"status":"ready"}
//	请求:  stdin 写入一行 {"text":...,"speaker_embedding":[...]}
//	响应:  stdout 输出一行 {"samples":N} 后紧跟 N 个小端 float32，
//	       或输出一行 {"error":"..."}
//
// 进程退出或协议错乱后不再重启，Ready 此后返回 ErrServiceUnavailable。
type LocalSynthesizer struct {
	speaker *SpeakerProfile
	device  string
	logger  *zap.Logger

	// mu 串行化请求，runner 一次只处理一个
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stderr *tailBuffer
	exited chan struct{}

	stateMu sync.RWMutex
	failure error
}

type runnerInput struct {
	Text             string    `json:"text"`
	SpeakerEmbedding []float32 `json:"speaker_embedding"`
}

type runnerHandshake struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type runnerReply struct {
	Samples int    `json:"samples"`
	Error   string `json:"error,omitempty"`
}

// runnerFault runner 正常应答但报告推理失败，进程仍可继续使用
type runnerFault struct {
	message string
}

func (f *runnerFault) Error() string {
	return f.message
}

// LoadLocal 校验配置、加载说话人嵌入并启动 runner，等待模型加载完成。
// 任一步失败都返回错误，调用方应以 NewUnavailable 记录，之后不再重试加载。
func LoadLocal(cfg speechmodel.LocalModelConfig, logger *zap.Logger) (*LocalSynthesizer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	runnerName := strings.TrimSpace(cfg.Runner)
	if runnerName == "" {
		return nil, errors.New("local tts runner is not configured")
	}
	runner, err := exec.LookPath(runnerName)
	if err != nil {
		return nil, fmt.Errorf("local tts runner %q not found: %w", runnerName, err)
	}

	if err := checkModelFile("model", cfg.ModelPath); err != nil {
		return nil, err
	}
	if err := checkModelFile("vocoder", cfg.VocoderPath); err != nil {
		return nil, err
	}

	speaker, err := LoadSpeakerProfile(cfg.SpeakerEmbedding)
	if err != nil {
		return nil, err
	}

	device := strings.TrimSpace(cfg.Device)
	if device == "" {
		device = "cpu"
	}

	loadTimeout := time.Duration(cfg.LoadTimeout) * time.Second
	if loadTimeout <= 0 {
		loadTimeout = defaultLoadTimeout
	}

	l := &LocalSynthesizer{
		speaker: speaker,
		device:  device,
		logger:  logger.With(zap.String("component", "local_tts")),
		stderr:  &tailBuffer{limit: stderrTailLimit},
		exited:  make(chan struct{}),
	}

	started := time.Now()
	if err := l.start(runner, cfg.ModelPath, cfg.VocoderPath); err != nil {
		return nil, err
	}
	if err := l.awaitReady(loadTimeout); err != nil {
		l.kill()
		return nil, err
	}

	l.logger.Info("local tts model loaded",
		zap.String("runner", runner),
		zap.String("model", cfg.ModelPath),
		zap.String("vocoder", cfg.VocoderPath),
		zap.String("device", device),
		zap.Int("speaker_dim", speaker.Dim()),
		zap.Duration("load_time", time.Since(started)))

	return l, nil
}

func checkModelFile(kind, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("local tts %s path is not configured", kind)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("local tts %s unavailable: %w", kind, err)
	}
	return nil
}

func (l *LocalSynthesizer) start(runner, model, vocoder string) error {
	// #nosec G204 -- runner path is resolved once from configuration at startup
	cmd := exec.Command(runner,
		"--model", model,
		"--vocoder", vocoder,
		"--device", l.device,
		"--sample-rate", strconv.Itoa(LocalSampleRate),
	)
	cmd.Stderr = l.stderr
	cmd.WaitDelay = closeGracePeriod

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open runner stdin: %w", err)
	}

	// stdout 使用独立管道，Wait 不会在读取途中关闭它
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("failed to open runner stdout: %w", err)
	}
	cmd.Stdout = stdoutW

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return fmt.Errorf("failed to start local tts runner: %w", err)
	}
	stdoutW.Close()

	l.cmd = cmd
	l.stdin = stdin
	l.stdout = bufio.NewReader(stdoutR)

	go func() {
		waitErr := cmd.Wait()
		stdoutR.Close()
		l.fail(fmt.Errorf("local tts runner exited: %v", waitErr))
		close(l.exited)
	}()

	return nil
}

func (l *LocalSynthesizer) awaitReady(timeout time.Duration) error {
	type result struct {
		line []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		line, err := l.stdout.ReadBytes('\n')
		done <- result{line, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var r result
	select {
	case r = <-done:
	case <-timer.C:
		return fmt.Errorf("local tts model did not load within %s", timeout)
	}

	if r.err != nil {
		l.awaitExit()
		return fmt.Errorf("local tts runner exited during model load: %w (stderr: %s)", r.err, l.stderr.String())
	}

	var hs runnerHandshake
	if err := json.Unmarshal(r.line, &hs); err != nil {
		return fmt.Errorf("invalid local tts runner handshake %q: %w", strings.TrimSpace(string(r.line)), err)
	}
	if hs.Status != "ready" {
		return fmt.Errorf("local tts model failed to load: %s", firstNonEmpty(hs.Error, hs.Status))
	}
	return nil
}

// Format 本地后端输出 wav
func (l *LocalSynthesizer) Format() speechmodel.Format {
	return speechmodel.FormatWAV
}

// Ready runner 已退出或协议错乱时返回 ErrServiceUnavailable
func (l *LocalSynthesizer) Ready() error {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	if l.failure != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, l.failure)
	}
	return nil
}

// Synthesize 把一次请求交给常驻 runner，返回 16 kHz 单声道 WAV。
func (l *LocalSynthesizer) Synthesize(ctx context.Context, text string) (*Audio, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.Ready(); err != nil {
		return nil, err
	}

	type result struct {
		samples []float32
		err     error
	}
	done := make(chan result, 1)
	go func() {
		samples, err := l.roundTrip(text)
		done <- result{samples, err}
	}()

	var r result
	select {
	case r = <-done:
	case <-ctx.Done():
		// 请求中途放弃后管道状态未知，runner 只能废弃
		l.fail(fmt.Errorf("request abandoned mid-inference: %w", ctx.Err()))
		l.kill()
		<-done
		return nil, fmt.Errorf("%w: %w", ErrSynthesis, ctx.Err())
	}

	if r.err != nil {
		var fault *runnerFault
		if errors.As(r.err, &fault) {
			if isOutOfMemory(fault.message) {
				return nil, fmt.Errorf("%w: %s", ErrResourceExhausted, fault.message)
			}
			return nil, fmt.Errorf("%w: runner reported: %s", ErrSynthesis, fault.message)
		}

		l.fail(r.err)
		l.kill()
		l.awaitExit()
		diagnostics := l.stderr.String()
		if isOutOfMemory(diagnostics) {
			return nil, fmt.Errorf("%w: %s", ErrResourceExhausted, diagnostics)
		}
		return nil, fmt.Errorf("%w: runner failed: %w (stderr: %s)", ErrSynthesis, r.err, diagnostics)
	}

	if len(r.samples) == 0 {
		return nil, fmt.Errorf("%w: runner produced no audio", ErrSynthesis)
	}

	l.logger.Debug("local inference finished",
		zap.Int("text_length", len(text)),
		zap.Int("samples", len(r.samples)))

	return &Audio{
		Data:       EncodeWAV(r.samples, LocalSampleRate),
		Format:     speechmodel.FormatWAV,
		SampleRate: LocalSampleRate,
	}, nil
}

// roundTrip 发送一行请求并读取一帧应答。返回 *runnerFault 时进程仍然可用。
func (l *LocalSynthesizer) roundTrip(text string) ([]float32, error) {
	input := runnerInput{Text: text, SpeakerEmbedding: l.speaker.embedding}
	if err := json.NewEncoder(l.stdin).Encode(input); err != nil {
		return nil, fmt.Errorf("failed to send request to runner: %w", err)
	}

	line, err := l.stdout.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read runner reply: %w", err)
	}

	var reply runnerReply
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("malformed runner reply %q: %w", strings.TrimSpace(string(line)), err)
	}
	if reply.Error != "" {
		return nil, &runnerFault{message: reply.Error}
	}
	if reply.Samples < 0 || reply.Samples > maxRunnerSamples {
		return nil, fmt.Errorf("runner reply announces %d samples", reply.Samples)
	}

	raw := make([]byte, reply.Samples*4)
	if _, err := io.ReadFull(l.stdout, raw); err != nil {
		return nil, fmt.Errorf("runner output truncated (want %d samples): %w", reply.Samples, err)
	}

	samples, ok := decodeFloat32LE(raw)
	if !ok {
		return nil, fmt.Errorf("runner output is not float32 PCM (%d bytes)", len(raw))
	}
	return samples, nil
}

// Close 关闭 runner 的 stdin 让其自行退出，超时后强制结束。
func (l *LocalSynthesizer) Close() error {
	l.fail(errRunnerClosed)
	if l.stdin != nil {
		l.stdin.Close()
	}

	select {
	case <-l.exited:
	case <-time.After(closeGracePeriod):
		l.kill()
		<-l.exited
	}
	return nil
}

// fail 只记录第一次失败原因
func (l *LocalSynthesizer) fail(err error) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	if l.failure == nil {
		l.failure = err
		if !errors.Is(err, errRunnerClosed) {
			l.logger.Error("local tts runner unusable", zap.Error(err))
		}
	}
}

// awaitExit 等待进程退出，此后 stderr 已收集完整
func (l *LocalSynthesizer) awaitExit() {
	select {
	case <-l.exited:
	case <-time.After(closeGracePeriod):
	}
}

func (l *LocalSynthesizer) kill() {
	if l.cmd != nil && l.cmd.Process != nil {
		_ = l.cmd.Process.Kill()
	}
}

func isOutOfMemory(diagnostics string) bool {
	lower := strings.ToLower(diagnostics)
	return strings.Contains(lower, "out of memory") || strings.Contains(lower, "cannot allocate memory")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return "unknown error"
}

// tailBuffer 保留 runner stderr 的最后 limit 字节
type tailBuffer struct {
	mu    sync.Mutex
	buf   []byte
	limit int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}
