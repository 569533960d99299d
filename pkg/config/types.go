package config

// Shared domain config types. Providers store the NAME of the environment
// variable that carries the secret, never the secret itself — the same
// indirection the teacher's LLMProviderConfig.APIKeyEnv uses, resolved with
// os.Getenv at wiring time rather than at YAML-parse time.

// PerplexityConfig configures the §4.1 LLM-research provider.
type PerplexityConfig struct {
	APIKeyEnv string `yaml:"api_key_env" validate:"required"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// FirecrawlConfig configures the §4.1 scrape provider.
type FirecrawlConfig struct {
	APIKeyEnv string `yaml:"api_key_env" validate:"required"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// GoogleConfig configures the §4.1 web-search provider (Google Programmable
// Search). Both envs must resolve to a non-empty value for the provider to
// report Enabled().
type GoogleConfig struct {
	APIKeyEnv string `yaml:"api_key_env" validate:"required"`
	CXEnv     string `yaml:"cx_env" validate:"required"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// ProvidersConfig groups every external provider's connection settings.
type ProvidersConfig struct {
	Perplexity PerplexityConfig `yaml:"perplexity"`
	Firecrawl  FirecrawlConfig  `yaml:"firecrawl"`
	Google     GoogleConfig     `yaml:"google"`
}

// ServerConfig holds the HTTP/WS listener's infrastructure settings — the
// analogue of the teacher's dashboard_url/allowed_ws_origins system fields.
type ServerConfig struct {
	ListenAddr       string   `yaml:"listen_addr" validate:"required"`
	DashboardURL     string   `yaml:"dashboard_url,omitempty"`
	AllowedWSOrigins []string `yaml:"allowed_ws_origins,omitempty"`
}

// ActivityConfig configures §4.7's bus and WebSocket hub.
type ActivityConfig struct {
	QueueCapacity      int   `yaml:"queue_capacity,omitempty" validate:"omitempty,min=1"`
	WebSocketWriteTimeoutSeconds int `yaml:"websocket_write_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	WebSocketPingIntervalSeconds int `yaml:"websocket_ping_interval_seconds,omitempty" validate:"omitempty,min=1"`
}

// WebhookConfig configures §4.7's webhook dispatcher defaults. The retry
// schedule itself (1s, 5s, 30s, 2min, 10min) is a fixed literal per spec,
// not configurable — only the auto-disable threshold a newly-created
// webhook gets when the caller doesn't specify one.
type WebhookConfig struct {
	DefaultDisabledAfterFailures int `yaml:"default_disabled_after_failures,omitempty" validate:"omitempty,min=1"`
}

// SchedulerConfig configures §4.8's polling loop.
type SchedulerConfig struct {
	PollInterval         string `yaml:"poll_interval,omitempty"`
	WeeklyReportStaleDays int   `yaml:"weekly_report_stale_days,omitempty" validate:"omitempty,min=1"`
}
