package apifootball

import (
	"fmt"
	"net/http"
	"strings"
)

type AuthMode string

const (
	AuthModeAuto     AuthMode = "auto"
	AuthModeDirect   AuthMode = "direct"
	AuthModeRapidAPI AuthMode = "rapidapi"
)

const (
	defaultDirectBaseURL   = "https://v3.football.api-sports.io"
	defaultRapidAPIBaseURL = "https://api-football-v1.p.rapidapi.com/v3"
	defaultRapidAPIHost    = "api-football-v1.p.rapidapi.com"

	headerDirectKey   = "x-apisports-key"
	headerRapidAPIKey = "x-rapidapi-key"
	headerRapidHost   = "x-rapidapi-host"
)

// AuthConfig carries both credential schemes; one is chosen at construction.
type AuthConfig struct {
	Mode            AuthMode
	APIKey          string
	BaseURL         string
	RapidAPIKey     string
	RapidAPIHost    string
	RapidAPIBaseURL string
}

type credentials struct {
	mode    AuthMode
	baseURL string
	headers map[string]string
	secrets []string
}

func resolveCredentials(cfg AuthConfig) (credentials, error) {
	mode := AuthMode(strings.ToLower(strings.TrimSpace(string(cfg.Mode))))
	directKey := strings.TrimSpace(cfg.APIKey)
	rapidKey := strings.TrimSpace(cfg.RapidAPIKey)

	if mode == "" || mode == AuthModeAuto {
		switch {
		case directKey != "":
			mode = AuthModeDirect
		case rapidKey != "":
			mode = AuthModeRapidAPI
		default:
			return credentials{}, fmt.Errorf("api-football credentials are required")
		}
	}

	switch mode {
	case AuthModeDirect:
		if directKey == "" {
			return credentials{}, fmt.Errorf("api-football direct api key is required")
		}
		return credentials{
			mode:    AuthModeDirect,
			baseURL: trimBaseURL(cfg.BaseURL, defaultDirectBaseURL),
			headers: map[string]string{headerDirectKey: directKey},
			secrets: []string{directKey},
		}, nil
	case AuthModeRapidAPI:
		if rapidKey == "" {
			return credentials{}, fmt.Errorf("api-football rapidapi key is required")
		}
		host := strings.TrimSpace(cfg.RapidAPIHost)
		if host == "" {
			host = defaultRapidAPIHost
		}
		return credentials{
			mode:    AuthModeRapidAPI,
			baseURL: trimBaseURL(cfg.RapidAPIBaseURL, defaultRapidAPIBaseURL),
			headers: map[string]string{
				headerRapidAPIKey: rapidKey,
				headerRapidHost:   host,
			},
			secrets: []string{rapidKey},
		}, nil
	default:
		return credentials{}, fmt.Errorf("unsupported api-football auth mode %q", cfg.Mode)
	}
}

func (c credentials) apply(req *http.Request) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
}

// redact removes credential values from text bound for logs or errors.
func (c credentials) redact(value string) string {
	value = strings.TrimSpace(value)
	for _, secret := range c.secrets {
		if secret != "" {
			value = strings.ReplaceAll(value, secret, "REDACTED")
		}
	}
	return value
}

func trimBaseURL(raw, fallback string) string {
	value := strings.TrimRight(strings.TrimSpace(raw), "/")
	if value == "" {
		return fallback
	}
	return value
}
