// Command server wires prospector's storage, provider clients, domain
// engines, and HTTP API together and runs them until terminated.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/outreachforge/prospector/pkg/activity"
	"github.com/outreachforge/prospector/pkg/api"
	"github.com/outreachforge/prospector/pkg/cleanup"
	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/config"
	"github.com/outreachforge/prospector/pkg/discovery"
	"github.com/outreachforge/prospector/pkg/extract"
	"github.com/outreachforge/prospector/pkg/learning"
	"github.com/outreachforge/prospector/pkg/outreach"
	"github.com/outreachforge/prospector/pkg/providers"
	"github.com/outreachforge/prospector/pkg/queue"
	"github.com/outreachforge/prospector/pkg/research"
	"github.com/outreachforge/prospector/pkg/scheduler"
	"github.com/outreachforge/prospector/pkg/storage"
	"github.com/outreachforge/prospector/pkg/topicintel"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configDir := getEnvOrDefault("CONFIG_DIR", "configs")

	envPath := filepath.Join(configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		slog.Warn("no .env file loaded, continuing with existing environment", "path", envPath, "error", err)
	} else {
		slog.Info("loaded environment file", "path", envPath)
	}

	cfg, err := config.Initialize(ctx, configDir)
	if err != nil {
		return err
	}

	dbCfg, err := storage.LoadConfigFromEnv()
	if err != nil {
		return err
	}
	store, err := storage.NewPostgresStore(ctx, dbCfg)
	if err != nil {
		return err
	}

	clk := clock.Real{}
	breaker := providers.NewHostBreaker(3, 2*time.Minute, clk)
	limiter := providers.NewHostLimiter(500 * time.Millisecond)

	perplexity := providers.NewPerplexityLLM(os.Getenv(cfg.Providers.Perplexity.APIKeyEnv), cfg.Providers.Perplexity.BaseURL, breaker)
	firecrawl := providers.NewFirecrawlScrape(os.Getenv(cfg.Providers.Firecrawl.APIKeyEnv), cfg.Providers.Firecrawl.BaseURL, breaker, limiter)
	googleSearch := providers.NewGoogleSearch(os.Getenv(cfg.Providers.Google.APIKeyEnv), os.Getenv(cfg.Providers.Google.CXEnv), breaker)

	bus := &activity.Bus{Store: store, Clock: clk, QueueCapacity: activityQueueCapacity(cfg)}
	hub := &activity.Hub{Bus: bus, WriteTimeout: activityWriteTimeout(cfg), PingInterval: activityPingInterval(cfg)}
	webhooks := &activity.Dispatcher{
		Store:   store,
		Bus:     bus,
		Sender:  &activity.HTTPSender{},
		Sleeper: activity.RealSleeper{},
		Clock:   clk,
	}

	topicIntel := &topicintel.Engine{
		WebSearch: googleSearch,
		LLM:       perplexity,
		Config:    topicintel.DefaultConfig(),
	}

	pipeline := &research.Pipeline{
		Store:      store,
		WebSearch:  googleSearch,
		Scrape:     firecrawl,
		LLM:        perplexity,
		Activity:   bus,
		Clock:      clk,
		Config:     research.DefaultConfig(),
		TopicIntel: topicIntel,
	}

	discoveryEngine := &discovery.Engine{
		Store:     store,
		WebSearch: googleSearch,
		Scrape:    firecrawl,
		Registry:  extract.NewRegistry(),
		HostLimit: limiter,
		HostBreak: breaker,
		Activity:  bus,
		Clock:     clk,
		Config:    discovery.DefaultConfig(),
	}

	learningCore := &learning.Core{Store: store, Clock: clk}
	outreachTracker := &outreach.Tracker{Store: store, Learning: learningCore, Clock: clk}

	sched := &scheduler.Scheduler{
		Store:    store,
		Research: pipeline,
		Reports:  learningCore,
		Activity: bus,
		Clock:    clk,
		Interval: schedulerInterval(cfg),
	}
	sched.Start(ctx)
	defer sched.Stop()

	retention := cleanup.NewService(cfg.Retention, store, clk.Now)
	retention.Start(ctx)
	defer retention.Stop()

	pool := queue.NewWorkerPool(workerPodID(), store, cfg.Queue, map[queue.Kind]queue.Executor{
		queue.KindResearch:  &queue.ResearchExecutor{Runner: pipeline},
		queue.KindDiscovery: &queue.DiscoveryExecutor{Runner: discoveryEngine},
	})
	if err := pool.Start(ctx); err != nil {
		return err
	}
	defer pool.Stop()

	server := api.NewServer(cfg, store, clk)
	server.SetResearch(pipeline)
	server.SetDiscovery(discoveryEngine)
	server.SetOutreachTracker(outreachTracker)
	server.SetLearning(learningCore)
	server.SetScheduler(sched)
	server.SetActivity(bus, hub)
	server.SetWebhookDispatcher(webhooks)
	server.SetWorkerPool(pool)

	if err := server.ValidateWiring(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting http server", "addr", cfg.Server.ListenAddr)
		if err := server.Start(cfg.Server.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func workerPodID() string {
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return uuid.NewString()
}

func activityQueueCapacity(cfg *config.Config) int {
	if cfg.Activity.QueueCapacity > 0 {
		return cfg.Activity.QueueCapacity
	}
	return activity.DefaultQueueCapacity
}

func activityWriteTimeout(cfg *config.Config) time.Duration {
	if cfg.Activity.WebSocketWriteTimeoutSeconds > 0 {
		return time.Duration(cfg.Activity.WebSocketWriteTimeoutSeconds) * time.Second
	}
	return activity.DefaultWriteTimeout
}

func activityPingInterval(cfg *config.Config) time.Duration {
	if cfg.Activity.WebSocketPingIntervalSeconds > 0 {
		return time.Duration(cfg.Activity.WebSocketPingIntervalSeconds) * time.Second
	}
	return activity.DefaultPingInterval
}

func schedulerInterval(cfg *config.Config) time.Duration {
	if d, err := time.ParseDuration(cfg.Scheduler.PollInterval); err == nil && d > 0 {
		return d
	}
	return time.Hour
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
