package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ProspectorYAMLConfig is the complete prospector.yaml file structure:
// providers, queue, retention, activity/webhooks, scheduler, and server
// infrastructure settings. It mirrors the teacher's TarsyYAMLConfig shape
// (one top-level wire struct per config file) with the MCP/agent/chain
// content replaced by this domain's components.
type ProspectorYAMLConfig struct {
	Providers *ProvidersConfig    `yaml:"providers"`
	Queue     *QueueConfig        `yaml:"queue"`
	Retention *retentionYAML      `yaml:"retention"`
	Activity  *ActivityConfig     `yaml:"activity"`
	Webhooks  *WebhookConfig      `yaml:"webhooks"`
	Scheduler *SchedulerConfig    `yaml:"scheduler"`
	Server    *ServerConfig       `yaml:"server"`
	Defaults  *Defaults           `yaml:"defaults"`
}

// retentionYAML mirrors RetentionConfig but accepts duration strings for
// default_ttl/collection_ttls, parsed explicitly rather than relying on
// yaml.v3's (nonexistent) native time.Duration decoding.
type retentionYAML struct {
	DefaultTTL      string            `yaml:"default_ttl,omitempty"`
	CollectionTTLs  map[string]string `yaml:"collection_ttls,omitempty"`
	CleanupInterval string            `yaml:"cleanup_interval,omitempty"`
}

// Initialize loads, validates, and returns ready-to-use configuration. This
// is the primary entry point used by cmd/server.
//
// Steps performed:
//  1. Load prospector.yaml from configDir
//  2. Expand environment variables ($VAR / ${VAR})
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined retention overrides
//  5. Apply built-in defaults for anything left unset
//  6. Validate all configuration
//  7. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("component", "config", "config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized",
		"providers_configured", stats.Providers,
		"retention_rules", stats.RetentionRules,
		"worker_count", stats.WorkerCount,
		"allowed_ws_origins", stats.AllowedWSOrigins)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadProspectorYAML()
	if err != nil {
		return nil, NewLoadError("prospector.yaml", err)
	}

	providers := ProvidersConfig{}
	if yamlCfg.Providers != nil {
		providers = *yamlCfg.Providers
	}

	queueCfg := DefaultQueueConfig()
	if yamlCfg.Queue != nil {
		overrideQueue(queueCfg, yamlCfg.Queue)
	}

	retentionCfg, err := resolveRetentionConfig(yamlCfg.Retention)
	if err != nil {
		return nil, fmt.Errorf("resolving retention config: %w", err)
	}

	activityCfg := ActivityConfig{}
	if yamlCfg.Activity != nil {
		activityCfg = *yamlCfg.Activity
	}

	webhookCfg := WebhookConfig{DefaultDisabledAfterFailures: 5}
	if yamlCfg.Webhooks != nil && yamlCfg.Webhooks.DefaultDisabledAfterFailures > 0 {
		webhookCfg.DefaultDisabledAfterFailures = yamlCfg.Webhooks.DefaultDisabledAfterFailures
	}

	schedulerCfg := SchedulerConfig{PollInterval: "1h", WeeklyReportStaleDays: 6}
	if yamlCfg.Scheduler != nil {
		if yamlCfg.Scheduler.PollInterval != "" {
			schedulerCfg.PollInterval = yamlCfg.Scheduler.PollInterval
		}
		if yamlCfg.Scheduler.WeeklyReportStaleDays > 0 {
			schedulerCfg.WeeklyReportStaleDays = yamlCfg.Scheduler.WeeklyReportStaleDays
		}
	}

	serverCfg := ServerConfig{ListenAddr: ":8080", DashboardURL: "http://localhost:5173"}
	if yamlCfg.Server != nil {
		if yamlCfg.Server.ListenAddr != "" {
			serverCfg.ListenAddr = yamlCfg.Server.ListenAddr
		}
		if yamlCfg.Server.DashboardURL != "" {
			serverCfg.DashboardURL = yamlCfg.Server.DashboardURL
		}
		serverCfg.AllowedWSOrigins = yamlCfg.Server.AllowedWSOrigins
	}

	defaults := defaultDefaults()
	if yamlCfg.Defaults != nil {
		if yamlCfg.Defaults.Pillar != "" {
			defaults.Pillar = yamlCfg.Defaults.Pillar
		}
		if yamlCfg.Defaults.Frequency != "" {
			defaults.Frequency = yamlCfg.Defaults.Frequency
		}
	}

	return &Config{
		configDir: configDir,
		Defaults:  defaults,
		Providers: providers,
		Queue:     queueCfg,
		Retention: retentionCfg,
		Activity:  activityCfg,
		Webhooks:  webhookCfg,
		Scheduler: schedulerCfg,
		Server:    serverCfg,
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	return NewValidator(cfg).ValidateAll()
}

// overrideQueue copies every non-zero field of user onto base, the hand-
// rolled equivalent of the teacher's mergo.Merge(queueConfig, userQueue,
// mergo.WithOverride) — inlined here since QueueConfig's fields are few
// enough that pulling in dario.cat/mergo for nine int/duration fields adds
// a dependency without buying much over direct field comparisons.
func overrideQueue(base, user *QueueConfig) {
	if user.WorkerCount > 0 {
		base.WorkerCount = user.WorkerCount
	}
	if user.MaxConcurrentTasks > 0 {
		base.MaxConcurrentTasks = user.MaxConcurrentTasks
	}
	if user.PollInterval > 0 {
		base.PollInterval = user.PollInterval
	}
	if user.PollIntervalJitter > 0 {
		base.PollIntervalJitter = user.PollIntervalJitter
	}
	if user.TaskTimeout > 0 {
		base.TaskTimeout = user.TaskTimeout
	}
	if user.GracefulShutdownTimeout > 0 {
		base.GracefulShutdownTimeout = user.GracefulShutdownTimeout
	}
	if user.OrphanDetectionInterval > 0 {
		base.OrphanDetectionInterval = user.OrphanDetectionInterval
	}
	if user.OrphanThreshold > 0 {
		base.OrphanThreshold = user.OrphanThreshold
	}
	if user.HeartbeatInterval > 0 {
		base.HeartbeatInterval = user.HeartbeatInterval
	}
}

// resolveRetentionConfig parses the YAML duration strings and merges them
// over the built-in per-collection defaults via mergeRetentionTTLs.
func resolveRetentionConfig(y *retentionYAML) (*RetentionConfig, error) {
	cfg := DefaultRetentionConfig()
	if y == nil {
		return cfg, nil
	}

	if y.DefaultTTL != "" {
		d, err := time.ParseDuration(y.DefaultTTL)
		if err != nil {
			return nil, fmt.Errorf("retention.default_ttl: %w", err)
		}
		cfg.DefaultTTL = d
	}
	if y.CleanupInterval != "" {
		d, err := time.ParseDuration(y.CleanupInterval)
		if err != nil {
			return nil, fmt.Errorf("retention.cleanup_interval: %w", err)
		}
		cfg.CleanupInterval = d
	}

	userTTLs := make(map[string]time.Duration, len(y.CollectionTTLs))
	for collection, raw := range y.CollectionTTLs {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("retention.collection_ttls[%s]: %w", collection, err)
		}
		userTTLs[collection] = d
	}
	cfg.CollectionTTLs = mergeRetentionTTLs(cfg.CollectionTTLs, userTTLs)

	return cfg, nil
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand $VAR / ${VAR} references before parsing, so secrets and
	// per-environment values never need to be checked into prospector.yaml.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadProspectorYAML() (*ProspectorYAMLConfig, error) {
	var cfg ProspectorYAMLConfig
	if err := l.loadYAML("prospector.yaml", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
