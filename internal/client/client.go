package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
)

// DefaultTimeout 长文本合成可能需要数分钟
const DefaultTimeout = 300 * time.Second

var (
	// ErrConnection 无法连接到服务端
	ErrConnection = errors.New("could not connect to the backend")
	// ErrTimeout 请求超时，通常是文本过长
	ErrTimeout = errors.New("request timed out, try a shorter text")
)

// HTTPError 服务端返回的非 2xx 响应
type HTTPError struct {
	Status int
	Detail string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

// Client 调用转换与列表接口
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 创建客户端，timeout <= 0 时使用 DefaultTimeout
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Convert 提交文本，成功时返回生成的文件名
func (c *Client) Convert(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(speechmodel.ConversionRequest{Text: text})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/text-to-speech/", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var result speechmodel.ConversionResult
	if err := c.do(req, &result); err != nil {
		return "", err
	}
	return result.Filename, nil
}

// List 返回按时间倒序的文件名
func (c *Client) List(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/artifacts/", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	var list speechmodel.ArtifactList
	if err := c.do(req, &list); err != nil {
		return nil, err
	}
	return list.Files, nil
}

// Fetch 下载音频内容
func (c *Client) Fetch(ctx context.Context, filename string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/artifacts/"+url.PathEscape(filename), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if classified := classify(err); classified != err {
			return classified
		}
		return fmt.Errorf("unexpected response body: %w", err)
	}
	return nil
}

func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload speechmodel.ErrorResponse
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Detail == "" {
		payload.Detail = strings.TrimSpace(string(raw))
		if payload.Detail == "" {
			payload.Detail = http.StatusText(resp.StatusCode)
		}
	}
	return &HTTPError{Status: resp.StatusCode, Detail: payload.Detail}
}

// classify 将传输层错误归类为 ErrTimeout / ErrConnection
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("unexpected error: %w", err)
	}
	return err
}
