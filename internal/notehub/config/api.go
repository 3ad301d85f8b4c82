package config

import "time"

// DefaultBaseURL - адрес публичного NoteHub API.
const DefaultBaseURL = "https://notehub-public.goit.study/api"

// APIConfig представляет настройки удаленного NoteHub API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"NOTEHUB_API_BASE_URL" env-default:"https://notehub-public.goit.study/api"`
	Token   string        `yaml:"token" env:"NOTEHUB_TOKEN" env-default:""`
	Timeout time.Duration `yaml:"timeout" env:"NOTEHUB_API_TIMEOUT" env-default:"10s"`

	BreakerErrorThreshold   int           `yaml:"breaker_error_threshold" env:"NOTEHUB_API_BREAKER_ERRORS" env-default:"5"`
	BreakerSuccessThreshold int           `yaml:"breaker_success_threshold" env:"NOTEHUB_API_BREAKER_SUCCESSES" env-default:"2"`
	BreakerTimeout          time.Duration `yaml:"breaker_timeout" env:"NOTEHUB_API_BREAKER_TIMEOUT" env-default:"10s"`
}
