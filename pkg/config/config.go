package config

// Config is the umbrella configuration object returned by Initialize and
// threaded through cmd/server's wiring: providers, queue/worker-pool
// settings, retention, the activity bus/webhook dispatcher, the scheduler,
// and the HTTP/WS server's infrastructure settings.
type Config struct {
	configDir string

	Defaults  *Defaults
	Providers ProvidersConfig
	Queue     *QueueConfig
	Retention *RetentionConfig
	Activity  ActivityConfig
	Webhooks  WebhookConfig
	Scheduler SchedulerConfig
	Server    ServerConfig
}

// Initialize is defined in loader.go.

// Stats summarizes loaded configuration for startup logging.
type Stats struct {
	Providers       int
	RetentionRules  int
	WorkerCount     int
	AllowedWSOrigins int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() Stats {
	providers := 0
	if c.Providers.Perplexity.APIKeyEnv != "" {
		providers++
	}
	if c.Providers.Firecrawl.APIKeyEnv != "" {
		providers++
	}
	if c.Providers.Google.APIKeyEnv != "" {
		providers++
	}
	return Stats{
		Providers:        providers,
		RetentionRules:   len(c.Retention.CollectionTTLs),
		WorkerCount:      c.Queue.WorkerCount,
		AllowedWSOrigins: len(c.Server.AllowedWSOrigins),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}
