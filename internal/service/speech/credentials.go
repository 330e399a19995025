package speech

import (
	"errors"
	"strings"

	speechmodel "github.com/zhouzirui/blogcaster/backend/internal/model/speech"
)

var (
	errConfigMissing      = errors.New("volcengine speech config is not initialised")
	errCredentialsMissing = errors.New("volcengine speech config requires SPEECH_APP_ID and SPEECH_ACCESS_TOKEN")
)

// resolveCredentials 返回规范化后的 AppID 与 AccessToken，缺失时给出明确错误。
func resolveCredentials(cfg *speechmodel.SpeechConfig) (string, string, error) {
	if cfg == nil {
		return "", "", errConfigMissing
	}

	appID := strings.TrimSpace(cfg.AppID)
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		token = strings.TrimSpace(cfg.APIKey)
	}

	if appID == "" || token == "" {
		return "", "", errCredentialsMissing
	}

	return appID, token, nil
}
