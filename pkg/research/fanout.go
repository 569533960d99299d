package research

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/providers"
)

// topicIntelRoundUnix lets tests and callers pin the rotation window; in
// production this is always the pipeline clock's current time.
func (p *Pipeline) topicIntelRoundUnix() int64 {
	return p.now().Unix()
}

// fanOut runs the research sources concurrently (LLM, search+scrape,
// site-restricted search, and — when wired — Topic Intelligence) and
// tolerates partial failure: the workflow continues as long as at least one
// source succeeds. It deliberately does not use errgroup.WithContext, since
// that would cancel the other in-flight sources the moment one fails — the
// opposite of what partial-failure tolerance requires.
func (p *Pipeline) fanOut(ctx context.Context, userID, topic, industry string) (sources []models.InsightSource, cancelled bool, failures int) {
	type result struct {
		source *models.InsightSource
		err    error
		name   string
	}

	searchSem, scrapeSem, llmSem := p.semaphores()
	results := make(chan result, 4)
	var wg sync.WaitGroup

	if p.LLM != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.Err() != nil {
				results <- result{err: ctx.Err(), name: "perplexity"}
				return
			}
			if err := llmSem.Acquire(ctx); err != nil {
				results <- result{err: err, name: "perplexity"}
				return
			}
			defer llmSem.Release()
			s, err := p.runLLMResearch(ctx, topic, industry)
			results <- result{source: s, err: err, name: "perplexity"}
		}()
	}

	if p.WebSearch != nil && p.Scrape != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.Err() != nil {
				results <- result{err: ctx.Err(), name: "firecrawl"}
				return
			}
			if err := searchSem.Acquire(ctx); err != nil {
				results <- result{err: err, name: "firecrawl"}
				return
			}
			defer searchSem.Release()
			s, err := p.runScrapeTopResults(ctx, topic, scrapeSem)
			results <- result{source: s, err: err, name: "firecrawl"}
		}()
	}

	if p.WebSearch != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.Err() != nil {
				results <- result{err: ctx.Err(), name: "google"}
				return
			}
			if err := searchSem.Acquire(ctx); err != nil {
				results <- result{err: err, name: "google"}
				return
			}
			defer searchSem.Release()
			s, err := p.runSiteRestrictSearch(ctx, topic, industry)
			results <- result{source: s, err: err, name: "google"}
		}()
	}

	if p.TopicIntel != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ctx.Err() != nil {
				results <- result{err: ctx.Err(), name: "topic_intel"}
				return
			}
			if err := searchSem.Acquire(ctx); err != nil {
				results <- result{err: err, name: "topic_intel"}
				return
			}
			defer searchSem.Release()
			s, err := p.runTopicIntel(ctx, topic)
			results <- result{source: s, err: err, name: "topic_intel"}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.err != nil {
			failures++
			p.publishSourceFailed(ctx, userID, r.name, r.err)
			continue
		}
		if r.source != nil {
			sources = append(sources, *r.source)
		}
	}

	return sources, ctx.Err() != nil && len(sources) == 0, failures
}

func (p *Pipeline) runLLMResearch(ctx context.Context, topic, industry string) (*models.InsightSource, error) {
	prompt := buildResearchPrompt(topic, industry)
	res, err := p.LLM.Complete(ctx, prompt, providers.LLMOptions{MaxTokens: 1200})
	if err != nil {
		return nil, fmt.Errorf("perplexity: %w", err)
	}
	return &models.InsightSource{
		Type:        models.SourcePerplexity,
		Summary:     res.Text,
		KeyPoints:   splitKeyPoints(res.Text),
		CollectedAt: p.now(),
	}, nil
}

// query and fetch adapt the uniform provider interfaces to this file's
// narrower call shape, keeping the fan-out logic readable.
func (p *Pipeline) query(ctx context.Context, q string, opts providers.SearchOptions) ([]providers.SearchResult, error) {
	return p.WebSearch.Query(ctx, q, opts)
}

func (p *Pipeline) fetch(ctx context.Context, url string) (providers.ScrapeResult, error) {
	return providers.FetchWithEscalation(ctx, p.Scrape, url, providers.ScrapeOptions{MainContentOnly: true})
}

func (p *Pipeline) runScrapeTopResults(ctx context.Context, topic string, scrapeSem providers.Semaphore) (*models.InsightSource, error) {
	topK := p.Config.TopKSearchResults
	if topK <= 0 {
		topK = 5
	}
	if p.Config.BatchMode && p.Config.BatchItemCap > 0 && p.Config.BatchItemCap < topK {
		topK = p.Config.BatchItemCap
	}

	hits, err := p.query(ctx, topic, providers.SearchOptions{Num: topK})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var keyPoints []string
	var lastURL string
	for i, hit := range hits {
		if i >= topK {
			break
		}
		if p.Config.BatchMode && i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(p.Config.StaggerDelay):
			}
		}
		if err := scrapeSem.Acquire(ctx); err != nil {
			break
		}
		scraped, scrapeErr := p.fetch(ctx, hit.URL)
		scrapeSem.Release()
		if scrapeErr != nil {
			continue
		}
		lastURL = hit.URL
		keyPoints = append(keyPoints, splitKeyPoints(scraped.ContentText)...)
	}
	if len(keyPoints) == 0 {
		return nil, fmt.Errorf("firecrawl: no scrapable results")
	}
	return &models.InsightSource{
		Type:        models.SourceFirecrawl,
		URL:         lastURL,
		Summary:     topic,
		KeyPoints:   keyPoints,
		CollectedAt: p.now(),
	}, nil
}

func (p *Pipeline) runSiteRestrictSearch(ctx context.Context, topic, industry string) (*models.InsightSource, error) {
	query := topic
	if industry != "" {
		query = topic + " " + industry
	}
	hits, err := p.query(ctx, query, providers.SearchOptions{Num: p.Config.TopKSearchResults})
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("google: no results")
	}
	var keyPoints []string
	for _, h := range hits {
		keyPoints = append(keyPoints, h.Title+": "+h.Snippet)
	}
	return &models.InsightSource{
		Type:        models.SourceGoogle,
		URL:         hits[0].URL,
		Summary:     hits[0].Snippet,
		KeyPoints:   keyPoints,
		CollectedAt: p.now(),
	}, nil
}

// runTopicIntel layers rotated Google-dork operators onto topic, fans them
// out through Topic Intelligence's own bounded concurrency, and returns the
// synthesized brief as a fourth InsightSource.
func (p *Pipeline) runTopicIntel(ctx context.Context, topic string) (*models.InsightSource, error) {
	brief, err := p.TopicIntel.Research(ctx, topic, p.topicIntelRoundUnix())
	if err != nil {
		return nil, fmt.Errorf("topic_intel: %w", err)
	}
	var keyPoints []string
	for _, h := range brief.Hits {
		keyPoints = append(keyPoints, h.Title+": "+h.Snippet)
	}
	summary := brief.Summary
	if summary == "" && len(brief.Hits) > 0 {
		summary = brief.Hits[0].Snippet
	}
	var url string
	if len(brief.Hits) > 0 {
		url = brief.Hits[0].URL
	}
	return &models.InsightSource{
		Type:        models.SourceTopicIntel,
		URL:         url,
		Summary:     summary,
		KeyPoints:   keyPoints,
		CollectedAt: p.now(),
	}, nil
}

func buildResearchPrompt(topic, industry string) string {
	if industry == "" {
		return fmt.Sprintf("Research current trends, challenges, and talking points for the topic: %q. Return concise bullet points.", topic)
	}
	return fmt.Sprintf("Research current trends, challenges, and talking points for the topic %q in the %q industry. Return concise bullet points.", topic, industry)
}
