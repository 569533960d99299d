package research_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/providers"
	"github.com/outreachforge/prospector/pkg/research"
	"github.com/outreachforge/prospector/pkg/storage"
	"github.com/outreachforge/prospector/pkg/topicintel"
)

type fakeLLM struct {
	text string
	err  error
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string, opts providers.LLMOptions) (providers.LLMResult, error) {
	if f.err != nil {
		return providers.LLMResult{}, f.err
	}
	return providers.LLMResult{Text: f.text}, nil
}

type fakeSearch struct {
	hits []providers.SearchResult
	err  error
}

func (f *fakeSearch) Query(ctx context.Context, q string, opts providers.SearchOptions) ([]providers.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type fakeScrape struct {
	text string
	err  error
}

func (f *fakeScrape) Fetch(ctx context.Context, url string, opts providers.ScrapeOptions) (providers.ScrapeResult, error) {
	if f.err != nil {
		return providers.ScrapeResult{}, f.err
	}
	return providers.ScrapeResult{ContentText: f.text, Status: 200}, nil
}

type noopActivity struct{ events []models.ActivityEvent }

func (n *noopActivity) Publish(ctx context.Context, evt models.ActivityEvent) error {
	n.events = append(n.events, evt)
	return nil
}

func newTestPipeline(store storage.Store, llm providers.LLM, search providers.WebSearch, scrape providers.Scrape, act *noopActivity) *research.Pipeline {
	return &research.Pipeline{
		Store:     store,
		WebSearch: search,
		Scrape:    scrape,
		LLM:       llm,
		Activity:  act,
		Clock:     clock.Real{},
		Config:    research.DefaultConfig(),
	}
}

func TestCompleteWorkflow_AllSourcesSucceed(t *testing.T) {
	store := storage.NewMemoryStore()
	llm := &fakeLLM{text: "School counselors are adopting AI tools rapidly this year. Budget constraints remain a top concern for private school admins."}
	search := &fakeSearch{hits: []providers.SearchResult{
		{Title: "AI in Schools", URL: "https://example.com/a", Snippet: "Districts are piloting AI writing assistants."},
	}}
	scrape := &fakeScrape{text: "Jane Doe, the Director of Technology at Lincoln Academy, said the rollout exceeded expectations. Budget approvals are pending board review next quarter."}
	act := &noopActivity{}

	p := newTestPipeline(store, llm, search, scrape, act)

	insight, err := p.CompleteWorkflow(context.Background(), "user-1", "AI adoption in schools", models.PillarThoughtLeadership, "education")
	require.NoError(t, err)
	assert.Equal(t, models.InsightStatusReadyForContentGen, insight.Status)
	assert.Len(t, insight.Sources, 3)
	assert.NotEmpty(t, insight.Tags)
	assert.NotEmpty(t, insight.DedupHash)
	assert.Empty(t, act.events)
}

func TestCompleteWorkflow_PartialFailureTolerated(t *testing.T) {
	store := storage.NewMemoryStore()
	llm := &fakeLLM{err: errors.New("rate limited")}
	search := &fakeSearch{hits: []providers.SearchResult{{Title: "t", URL: "https://example.com/x", Snippet: "s"}}}
	scrape := &fakeScrape{text: "Some useful key point text that is long enough to survive filtering easily."}
	act := &noopActivity{}

	p := newTestPipeline(store, llm, search, scrape, act)

	insight, err := p.CompleteWorkflow(context.Background(), "user-1", "topic", models.PillarReferral, "")
	require.NoError(t, err)
	assert.Equal(t, models.InsightStatusReadyForContentGen, insight.Status)
	assert.NotEmpty(t, act.events)
	assert.Contains(t, act.events[0].Title, "research.source_failed")
}

func TestCompleteWorkflow_AllSourcesFail(t *testing.T) {
	store := storage.NewMemoryStore()
	llm := &fakeLLM{err: errors.New("down")}
	search := &fakeSearch{err: errors.New("down")}
	act := &noopActivity{}

	p := newTestPipeline(store, llm, search, nil, act)

	insight, err := p.CompleteWorkflow(context.Background(), "user-1", "topic", models.PillarStealthFounder, "")
	require.Error(t, err)
	require.NotNil(t, insight)
	assert.Equal(t, models.InsightStatusFailed, insight.Status)
}

func TestCompleteWorkflow_CacheHitSkipsReResearch(t *testing.T) {
	store := storage.NewMemoryStore()
	llm := &fakeLLM{text: "Independent schools are investing in counseling staff this budget cycle."}
	search := &fakeSearch{hits: []providers.SearchResult{{Title: "t", URL: "https://example.com/x", Snippet: "s"}}}
	scrape := &fakeScrape{text: "A long enough key point about counseling staff investment trends."}
	act := &noopActivity{}

	p := newTestPipeline(store, llm, search, scrape, act)

	first, err := p.CompleteWorkflow(context.Background(), "user-1", "counseling staffing", models.PillarReferral, "")
	require.NoError(t, err)

	llm.text = "should not be used"
	second, err := p.CompleteWorkflow(context.Background(), "user-1", "counseling staffing", models.PillarReferral, "")
	require.NoError(t, err)
	assert.Equal(t, first.InsightID, second.InsightID)
}

func TestCompleteWorkflow_TopicIntelContributesFourthSource(t *testing.T) {
	store := storage.NewMemoryStore()
	llm := &fakeLLM{text: "Independent schools are investing in counseling staff this budget cycle."}
	search := &fakeSearch{hits: []providers.SearchResult{{Title: "t", URL: "https://example.com/x", Snippet: "s"}}}
	scrape := &fakeScrape{text: "A long enough key point about counseling staff investment trends."}
	act := &noopActivity{}

	p := newTestPipeline(store, llm, search, scrape, act)
	p.TopicIntel = &topicintel.Engine{WebSearch: search, Config: topicintel.Config{QueriesPerRound: 1, HitsPerQuery: 5}}

	insight, err := p.CompleteWorkflow(context.Background(), "user-1", "counseling staffing rotation", models.PillarReferral, "")
	require.NoError(t, err)

	foundTopicIntel := false
	for _, s := range insight.Sources {
		if s.Type == models.SourceTopicIntel {
			foundTopicIntel = true
		}
	}
	assert.True(t, foundTopicIntel, "expected a topic_intel source among %+v", insight.Sources)
}

func TestDedupHash_StableForSameTopicAndPillar(t *testing.T) {
	a := research.DedupHash("  AI Adoption In Schools  ", models.PillarThoughtLeadership)
	b := research.DedupHash("ai adoption in schools", models.PillarThoughtLeadership)
	assert.Equal(t, a, b)

	c := research.DedupHash("ai adoption in schools", models.PillarReferral)
	assert.NotEqual(t, a, c)
}

func TestCompleteWorkflow_RespectsContextTimeout(t *testing.T) {
	store := storage.NewMemoryStore()
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	p := newTestPipeline(store, &fakeLLM{text: "x"}, &fakeSearch{}, &fakeScrape{}, &noopActivity{})
	insight, err := p.CompleteWorkflow(ctx, "user-1", "topic", models.PillarReferral, "")
	assert.Error(t, err)
	require.NotNil(t, insight)
	assert.True(t, insight.Cancelled)
	assert.Equal(t, models.InsightStatusFailed, insight.Status)
}
