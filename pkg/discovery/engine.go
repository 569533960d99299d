package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/extract"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/providers"
	"github.com/outreachforge/prospector/pkg/storage"
	"github.com/outreachforge/prospector/pkg/topicintel"
)

// ActivityPublisher is the subset of the activity bus the engine needs.
type ActivityPublisher interface {
	Publish(ctx context.Context, evt models.ActivityEvent) error
}

// Engine drives Discover.
type Engine struct {
	Store      storage.Store
	WebSearch  providers.WebSearch
	Scrape     providers.Scrape
	Registry   *extract.Registry
	HostLimit  *providers.HostLimiter
	HostBreak  *providers.HostBreaker
	Activity   ActivityPublisher
	Clock      clock.Clock
	Config     Config

	searchSem providers.Semaphore
	scrapeSem providers.Semaphore
	semOnce   sync.Once
}

func (e *Engine) sems() (providers.Semaphore, providers.Semaphore) {
	e.semOnce.Do(func() {
		e.searchSem = providers.NewSemaphore(providers.DefaultWebSearchConcurrency)
		e.scrapeSem = providers.NewSemaphore(providers.DefaultScrapeConcurrency)
	})
	return e.searchSem, e.scrapeSem
}

func (e *Engine) now() time.Time {
	if e.Clock != nil {
		return e.Clock.Now()
	}
	return time.Now()
}

// CategoryOutcome is one category's contribution to a discovery batch.
type CategoryOutcome struct {
	Category string
	Found    int
	Saved    int
	Failures int
}

// Result is the return value of Discover: what got saved plus the per
// category breakdown logged as the [SAVE SUMMARY] activity.
type Result struct {
	Prospects  []models.DiscoveredProspect
	ByCategory []CategoryOutcome
	TotalFound int
	TotalSaved int
	Cancelled  bool
}

// Discover runs the full discovery workflow for the given categories.
// Categories execute independently and concurrently, bounded by
// Config.CategoryConcurrency, per §4.3 point 1 — a merged query across
// categories degrades result quality, and a sequential loop would let one
// slow category starve the others' wall-clock budget.
func (e *Engine) Discover(ctx context.Context, userID string, categories []string, location string, maxResults int) (*Result, error) {
	if maxResults <= 0 {
		maxResults = e.Config.MaxResultsPerCategory
	}

	outcomes := make([]CategoryOutcome, len(categories))
	prospectSets := make([][]models.DiscoveredProspect, len(categories))

	g := &errgroup.Group{}
	g.SetLimit(categoryConcurrency(e.Config))
	for i, category := range categories {
		i, category := i, category
		g.Go(func() error {
			outcomes[i], prospectSets[i] = e.runCategory(ctx, userID, category, location, maxResults)
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{Cancelled: ctx.Err() != nil}
	for i := range categories {
		result.ByCategory = append(result.ByCategory, outcomes[i])
		result.Prospects = append(result.Prospects, prospectSets[i]...)
		result.TotalFound += outcomes[i].Found
		result.TotalSaved += outcomes[i].Saved
	}

	e.publishSaveSummary(ctx, userID, result)
	if result.Cancelled {
		return result, ctx.Err()
	}
	return result, nil
}

func categoryConcurrency(cfg Config) int {
	if cfg.CategoryConcurrency > 0 {
		return cfg.CategoryConcurrency
	}
	return 3
}

func urlConcurrency(cfg Config) int {
	if cfg.URLConcurrency > 0 {
		return cfg.URLConcurrency
	}
	return 5
}

func (e *Engine) runCategory(ctx context.Context, userID, category, location string, maxResults int) (CategoryOutcome, []models.DiscoveredProspect) {
	outcome := CategoryOutcome{Category: category}
	if e.WebSearch == nil {
		return outcome, nil
	}

	searchSem, _ := e.sems()
	query := e.buildCategoryQuery(category, location)
	if err := searchSem.Acquire(ctx); err != nil {
		outcome.Failures++
		return outcome, nil
	}
	hits, err := e.WebSearch.Query(ctx, query, providers.SearchOptions{Num: maxResults})
	searchSem.Release()
	if err != nil {
		outcome.Failures++
		return outcome, nil
	}

	urls := dedupeURLs(hitURLs(hits))

	var mu sync.Mutex
	var saved []models.DiscoveredProspect
	g := &errgroup.Group{}
	g.SetLimit(urlConcurrency(e.Config))
	for _, pageURL := range urls {
		pageURL := pageURL
		g.Go(func() error {
			candidates, err := e.scrapeAndExtract(ctx, pageURL, category)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcome.Failures++
				return nil
			}
			outcome.Found += len(candidates)
			for _, c := range candidates {
				prospect, ok := e.toProspect(userID, category, pageURL, c)
				if !ok {
					continue
				}
				saved = append(saved, prospect)
				outcome.Saved++
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcome, saved
}

func hitURLs(hits []providers.SearchResult) []string {
	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.URL)
	}
	return out
}

// buildCategoryQuery constructs the category's base site-restricted query,
// then layers a rotated Google-dork operator on top (§2 Topic
// Intelligence) so repeated runs for the same category don't keep hammering
// an identical query against the same provider cache entry.
func (e *Engine) buildCategoryQuery(category, location string) string {
	var parts []string
	for _, site := range CategorySeeds[category] {
		parts = append(parts, "site:"+site)
	}
	query := GenericSeedQuery
	if len(parts) > 0 {
		query = strings.Join(parts, " OR ") + " " + query
	}
	if location != "" {
		query += " " + location
	}

	window := e.Config.DorkRotationWindow
	if window <= 0 {
		window = 24 * time.Hour
	}
	idx := topicintel.WindowIndex(e.now().Unix(), int64(window.Seconds()))
	return topicintel.BuildQuery(query, topicintel.Rotate(idx))
}

// scrapeAndExtract performs the listing fetch + extractor dispatch + two-hop
// profile scrape for one discovered URL.
func (e *Engine) scrapeAndExtract(ctx context.Context, pageURL, category string) ([]extract.Candidate, error) {
	html, err := e.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	extractor := e.Registry.For(pageURL)
	candidates, err := extractor.Extract(html, pageURL, category)
	if err != nil {
		return nil, err
	}

	var out []extract.Candidate
	for _, c := range candidates {
		if c.ProfileURL != "" && c.Contact.Empty() {
			merged, err := e.scrapeProfile(ctx, c, category)
			if err == nil {
				c = merged
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (e *Engine) scrapeProfile(ctx context.Context, partial extract.Candidate, category string) (extract.Candidate, error) {
	html, err := e.fetch(ctx, partial.ProfileURL)
	if err != nil {
		return partial, err
	}
	profileExtractor := e.Registry.For(partial.ProfileURL)
	candidates, err := profileExtractor.Extract(html, partial.ProfileURL, category)
	if err != nil || len(candidates) == 0 {
		return partial, fmt.Errorf("no profile candidates")
	}
	profile := candidates[0]
	merged := partial
	if !profile.Contact.Empty() {
		merged.Contact = profile.Contact
	}
	if merged.Organization == "" {
		merged.Organization = profile.Organization
	}
	if merged.JobTitle == "" {
		merged.JobTitle = profile.JobTitle
	}
	return merged, nil
}

func (e *Engine) fetch(ctx context.Context, pageURL string) (string, error) {
	if e.HostBreak != nil && !e.HostBreak.Allow(pageURL) {
		return "", fmt.Errorf("circuit open for host of %s", pageURL)
	}
	if e.HostLimit != nil {
		if err := e.HostLimit.Wait(ctx, pageURL); err != nil {
			return "", err
		}
	}
	_, scrapeSem := e.sems()
	if err := scrapeSem.Acquire(ctx); err != nil {
		return "", err
	}
	defer scrapeSem.Release()

	res, err := providers.FetchWithEscalation(ctx, e.Scrape, pageURL, providers.ScrapeOptions{MainContentOnly: true})
	if err != nil {
		if e.HostBreak != nil {
			e.HostBreak.RecordFailure(pageURL)
		}
		return "", err
	}
	if e.HostBreak != nil {
		e.HostBreak.RecordSuccess(pageURL)
	}
	return res.ContentHTML, nil
}

// toProspect converts a validated candidate into a persisted
// DiscoveredProspect, applying the save-time validator. Returns ok=false if
// the candidate is rejected.
func (e *Engine) toProspect(userID, category, sourceURL string, c extract.Candidate) (models.DiscoveredProspect, bool) {
	if !extract.IsValidPersonName(c.Name) {
		return models.DiscoveredProspect{}, false
	}
	if blockedOrganizations[strings.ToLower(c.Organization)] {
		c.Organization = ""
	}

	p := models.DiscoveredProspect{
		UserID:         userID,
		ProspectID:     uuid.NewString(),
		Name:           c.Name,
		Organization:   c.Organization,
		JobTitle:       c.JobTitle,
		SourceURL:      sourceURL,
		Source:         e.Registry.For(sourceURL).Name(),
		Category:       category,
		Contact:        c.Contact,
		ApprovalStatus: models.ApprovalPending,
		CreatedAt:      e.now(),
		UpdatedAt:      e.now(),
	}
	if !p.HasMinimalContact() {
		return models.DiscoveredProspect{}, false
	}

	p.InfluenceScore = InfluenceScore(category, p.JobTitle, p.Organization, p.Contact.Email != "", p.Contact.Phone != "")

	if err := storage.PutJSON(context.Background(), e.Store, storage.CollectionProspects, userID, p.ProspectID, &p); err != nil {
		return models.DiscoveredProspect{}, false
	}
	return p, true
}

// publishSaveSummary persists the [SAVE SUMMARY] envelope for a discovery
// batch. It always publishes, even when ctx was cancelled mid-run: partial
// prospects already validated and saved remain committed, and the envelope
// must still record that the run was cancelled rather than silently vanish
// (§5's "a cancelled marker is written to the discovery/research envelope").
// A cancelled ctx can't be used for the publish itself, so that case falls
// back to context.Background(), mirroring the research pipeline's pattern.
func (e *Engine) publishSaveSummary(ctx context.Context, userID string, result *Result) {
	if e.Activity == nil {
		return
	}
	publishCtx := ctx
	if result.Cancelled {
		publishCtx = context.Background()
	}

	meta := map[string]any{
		"total_found": result.TotalFound,
		"total_saved": result.TotalSaved,
		"cancelled":   result.Cancelled,
	}
	for _, c := range result.ByCategory {
		meta[c.Category+"_found"] = c.Found
		meta[c.Category+"_saved"] = c.Saved
	}
	title := "[SAVE SUMMARY]"
	if result.Cancelled {
		title = "[SAVE SUMMARY] (cancelled)"
	}
	_ = e.Activity.Publish(publishCtx, models.ActivityEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      models.ActivityProspect,
		Title:     title,
		Message:   fmt.Sprintf("discovered %d, saved %d across %d categories", result.TotalFound, result.TotalSaved, len(result.ByCategory)),
		Metadata:  meta,
		Timestamp: e.now(),
	})
}
