// Package research implements the Research Pipeline: topic -> multi-provider
// fan-out -> normalize -> tag -> store (§4.2).
package research

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/providers"
	"github.com/outreachforge/prospector/pkg/storage"
	"github.com/outreachforge/prospector/pkg/topicintel"
)

// ActivityPublisher is the subset of the activity bus the pipeline needs;
// kept as a narrow local interface so this package never imports
// pkg/activity directly.
type ActivityPublisher interface {
	Publish(ctx context.Context, evt models.ActivityEvent) error
}

// Config tunes the pipeline's fan-out and batch behavior.
type Config struct {
	BatchMode          bool // free-tier mode: cap items per provider, stagger starts
	BatchItemCap       int
	StaggerDelay       time.Duration
	TopKSearchResults  int
	TopProspectTargets int
	SimilarityThreshold float64
	WorkflowTimeout    time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		BatchMode:           false,
		BatchItemCap:        5,
		StaggerDelay:        1500 * time.Millisecond,
		TopKSearchResults:   5,
		TopProspectTargets:  20,
		SimilarityThreshold: 0.85,
		WorkflowTimeout:     90 * time.Second,
	}
}

// Pipeline drives CompleteWorkflow.
type Pipeline struct {
	Store     storage.Store
	WebSearch providers.WebSearch
	Scrape    providers.Scrape
	LLM       providers.LLM
	Activity  ActivityPublisher
	Clock     clock.Clock
	Config    Config

	// TopicIntel, when set, adds a fourth fan-out source: rotated Google-dork
	// queries around the topic, fanned across providers and synthesized into
	// one brief (§2 Topic Intelligence). Nil disables it without affecting
	// the other three sources.
	TopicIntel *topicintel.Engine

	searchSem providers.Semaphore
	scrapeSem providers.Semaphore
	llmSem    providers.Semaphore
	semOnce   sync.Once
}

func (p *Pipeline) semaphores() (providers.Semaphore, providers.Semaphore, providers.Semaphore) {
	p.semOnce.Do(func() {
		p.searchSem = providers.NewSemaphore(providers.DefaultWebSearchConcurrency)
		p.scrapeSem = providers.NewSemaphore(providers.DefaultScrapeConcurrency)
		p.llmSem = providers.NewSemaphore(providers.DefaultLLMConcurrency)
	})
	return p.searchSem, p.scrapeSem, p.llmSem
}

func (p *Pipeline) similarityThreshold() float64 {
	if p.Config.SimilarityThreshold > 0 {
		return p.Config.SimilarityThreshold
	}
	return 0.85
}

func (p *Pipeline) now() time.Time {
	if p.Clock != nil {
		return p.Clock.Now()
	}
	return time.Now()
}

// DedupHash computes H(normalize(topic) || pillar), stable across runs.
func DedupHash(topic string, pillar models.Pillar) string {
	sum := sha256.Sum256([]byte(NormalizeTopic(topic) + "|" + string(pillar)))
	return hex.EncodeToString(sum[:])
}

var whitespaceRE = regexp.MustCompile(`\s+`)

// NormalizeTopic lowercases and collapses whitespace, the normalization the
// dedup hash and tag pipeline share.
func NormalizeTopic(topic string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(strings.ToLower(topic), " "))
}

// CompleteWorkflow runs steps A-F of §4.2 for one topic.
func (p *Pipeline) CompleteWorkflow(ctx context.Context, userID, topic string, pillar models.Pillar, industry string) (*models.Insight, error) {
	if p.Config.WorkflowTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Config.WorkflowTimeout)
		defer cancel()
	}

	// A. Trigger: cache-hit check.
	hash := DedupHash(topic, pillar)
	if existing, ok := p.findReadyByHash(ctx, userID, hash); ok {
		return existing, nil
	}

	insight := &models.Insight{
		UserID:    userID,
		InsightID: uuid.NewString(),
		Topic:     topic,
		Pillar:    pillar,
		Audiences: models.AudiencesFor(pillar),
		Status:    models.InsightStatusCollecting,
		DedupHash: hash,
		CreatedAt: p.now(),
		UpdatedAt: p.now(),
	}
	if err := p.save(ctx, insight); err != nil {
		return nil, fmt.Errorf("creating insight: %w", err)
	}

	// B. Multi-source fan-out, tolerant of partial failure.
	sources, cancelled, failureCount := p.fanOut(ctx, userID, topic, industry)

	if cancelled && ctx.Err() != nil {
		insight.Status = models.InsightStatusFailed
		insight.Cancelled = true
		insight.UpdatedAt = p.now()
		_ = p.save(context.Background(), insight)
		return insight, ctx.Err()
	}

	if len(sources) == 0 {
		insight.Status = models.InsightStatusFailed
		insight.UpdatedAt = p.now()
		_ = p.save(context.Background(), insight)
		return insight, fmt.Errorf("research workflow failed: all %d providers failed", failureCount)
	}

	// C. Normalize: dedup near-duplicate key points within each source,
	// then derive a normalized tag set from the merged text.
	for i := range sources {
		sources[i].KeyPoints = dedupeKeyPoints(sources[i].KeyPoints, p.similarityThreshold())
	}
	insight.Status = models.InsightStatusProcessing
	insight.Sources = sources
	insight.Tags = normalizeTags(extractTagsFromSources(sources, topic))

	// D. Prospect-target extraction.
	insight.ProspectTargets = p.extractProspectTargets(sources, pillar, p.Config.TopProspectTargets)

	insight.Engagement = models.EngagementSignals{
		RelevanceScore: scoreRelevance(insight),
		TrendScore:     scoreTrend(sources),
		UrgencyScore:   scoreUrgency(topic),
	}

	// E. Storage: monotonic status guard.
	if models.CanTransition(insight.Status, models.InsightStatusReadyForContentGen) {
		insight.Status = models.InsightStatusReadyForContentGen
	}
	insight.UpdatedAt = p.now()
	if err := p.save(ctx, insight); err != nil {
		return nil, fmt.Errorf("saving completed insight: %w", err)
	}

	return insight, nil
}

func (p *Pipeline) findReadyByHash(ctx context.Context, userID, hash string) (*models.Insight, bool) {
	results, err := storage.QueryJSON[models.Insight](ctx, p.Store, storage.CollectionResearchInsights, userID,
		[]storage.Filter{storage.Eq("dedup_hash", hash), storage.Eq("status", string(models.InsightStatusReadyForContentGen))}, nil, 1)
	if err != nil || len(results) == 0 {
		return nil, false
	}
	return &results[0], true
}

func (p *Pipeline) save(ctx context.Context, insight *models.Insight) error {
	return storage.PutJSON(ctx, p.Store, storage.CollectionResearchInsights, insight.UserID, insight.InsightID, insight)
}

func (p *Pipeline) publishSourceFailed(ctx context.Context, userID, source string, err error) {
	if p.Activity == nil {
		return
	}
	_ = p.Activity.Publish(ctx, models.ActivityEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      models.ActivityResearch,
		Title:     "research.source_failed",
		Message:   fmt.Sprintf("%s failed: %v", source, err),
		Timestamp: p.now(),
	})
}
