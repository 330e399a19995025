package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// 合成后端类型
const (
	BackendCloud = "cloud"
	BackendLocal = "local"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Backend string
	Cloud   CloudConfig
	Local   LocalConfig
	Catalog CatalogConfig
	Log     LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	store, err := loadStoreConfig()
	if err != nil {
		return nil, err
	}

	backend, err := loadBackend()
	if err != nil {
		return nil, err
	}

	cloud, err := loadCloudConfig()
	if err != nil {
		return nil, err
	}

	local, err := loadLocalConfig()
	if err != nil {
		return nil, err
	}

	var catalog CatalogConfig
	if err := env.Parse(&catalog); err != nil {
		return nil, fmt.Errorf("invalid catalog config: %w", err)
	}

	var logCfg LogConfig
	if err := env.Parse(&logCfg); err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}

	return &Config{
		Server:  server,
		Store:   store,
		Backend: backend,
		Cloud:   cloud,
		Local:   local,
		Catalog: catalog,
		Log:     logCfg,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

type serverEnv struct {
	Port string `env:"PORT" envDefault:"8000"`
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	var raw serverEnv
	if err := env.Parse(&raw); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid server config: %w", err)
	}

	port := strings.TrimSpace(raw.Port)
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	if strings.Contains(port, ":") {
		// 允许直接传入 ":8000" 或 "127.0.0.1:8000"。
		return ServerConfig{Addr: port}, nil
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// StoreConfig 描述音频文件目录与文件名规则。
type StoreConfig struct {
	Dir              string `env:"MUSIC_DIR" envDefault:"music"`
	SnippetMaxLength int    `env:"SNIPPET_MAX_LENGTH" envDefault:"50"`
}

func loadStoreConfig() (StoreConfig, error) {
	var cfg StoreConfig
	if err := env.Parse(&cfg); err != nil {
		return StoreConfig{}, fmt.Errorf("invalid store config: %w", err)
	}

	cfg.Dir = strings.TrimSpace(cfg.Dir)
	if cfg.Dir == "" {
		return StoreConfig{}, fmt.Errorf("MUSIC_DIR must not be empty")
	}
	if cfg.SnippetMaxLength <= 0 {
		return StoreConfig{}, fmt.Errorf("invalid SNIPPET_MAX_LENGTH value %d: must be > 0", cfg.SnippetMaxLength)
	}

	return cfg, nil
}

type backendEnv struct {
	Backend string `env:"TTS_BACKEND" envDefault:"cloud"`
}

// loadBackend 解析合成后端，启动时确定，请求期间不可切换。
func loadBackend() (string, error) {
	var raw backendEnv
	if err := env.Parse(&raw); err != nil {
		return "", fmt.Errorf("invalid backend config: %w", err)
	}

	backend := strings.ToLower(strings.TrimSpace(raw.Backend))
	switch backend {
	case "":
		return BackendCloud, nil
	case BackendCloud, BackendLocal:
		return backend, nil
	default:
		return "", fmt.Errorf("invalid TTS_BACKEND value %q: want %q or %q", raw.Backend, BackendCloud, BackendLocal)
	}
}

// CloudConfig 描述火山引擎语音合成配置
type CloudConfig struct {
	AppID       string  `env:"SPEECH_APP_ID"`
	AccessToken string  `env:"SPEECH_ACCESS_TOKEN"`
	APIKey      string  `env:"SPEECH_API_KEY"`
	Endpoint    string  `env:"SPEECH_ENDPOINT" envDefault:"wss://openspeech.bytedance.com/api/v3/tts/unidirectional/stream"`
	Voice       string  `env:"SPEECH_TTS_VOICE" envDefault:"en_female_amy_jupiter_bigtts"`
	Speed       float32 `env:"SPEECH_TTS_SPEED" envDefault:"1.0"`
	Volume      float32 `env:"SPEECH_TTS_VOLUME" envDefault:"1.0"`
	Language    string  `env:"SPEECH_TTS_LANGUAGE" envDefault:"en"`
	Timeout     int     `env:"SPEECH_TIMEOUT" envDefault:"30"` // seconds
}

// Enabled 表示是否提供了必需的凭证，APIKey 可代替 AccessToken。
func (c CloudConfig) Enabled() bool {
	return strings.TrimSpace(c.AppID) != "" &&
		(strings.TrimSpace(c.AccessToken) != "" || strings.TrimSpace(c.APIKey) != "")
}

func loadCloudConfig() (CloudConfig, error) {
	var cfg CloudConfig
	if err := env.Parse(&cfg); err != nil {
		return CloudConfig{}, fmt.Errorf("invalid speech config: %w", err)
	}

	cfg.AppID = strings.TrimSpace(cfg.AppID)
	cfg.AccessToken = strings.TrimSpace(cfg.AccessToken)
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.AccessToken == "" {
		cfg.AccessToken = cfg.APIKey
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30
	}

	return cfg, nil
}

// LocalConfig 描述本地神经网络 TTS 模型配置
type LocalConfig struct {
	Runner           string `env:"LOCAL_TTS_RUNNER" envDefault:"speecht5-runner"`
	ModelPath        string `env:"LOCAL_TTS_MODEL"`
	VocoderPath      string `env:"LOCAL_TTS_VOCODER"`
	SpeakerEmbedding string `env:"LOCAL_TTS_SPEAKER_EMBEDDING"`
	Device           string `env:"LOCAL_TTS_DEVICE" envDefault:"cpu"`
	LoadTimeout      int    `env:"LOCAL_TTS_LOAD_TIMEOUT" envDefault:"300"` // seconds
}

func loadLocalConfig() (LocalConfig, error) {
	var cfg LocalConfig
	if err := env.Parse(&cfg); err != nil {
		return LocalConfig{}, fmt.Errorf("invalid local tts config: %w", err)
	}
	return cfg, nil
}

// CatalogConfig 描述音频元数据库，路径为空时不启用。
type CatalogConfig struct {
	Path string `env:"CATALOG_PATH"`
}

// LogConfig 描述日志输出
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"console"`
}
