package topicintel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/providers"
	"github.com/outreachforge/prospector/pkg/topicintel"
)

type fakeSearch struct {
	hits map[string][]providers.SearchResult
}

func (f *fakeSearch) Query(ctx context.Context, q string, opts providers.SearchOptions) ([]providers.SearchResult, error) {
	return f.hits[q], nil
}

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

func TestRotate_WrapsAroundPool(t *testing.T) {
	a := topicintel.Rotate(0)
	b := topicintel.Rotate(len(topicintel.Operators))
	assert.Equal(t, a, b)
}

func TestResearch_DedupesHitsAcrossRotatedQueries(t *testing.T) {
	shared := providers.SearchResult{URL: "https://example.com/shared", Title: "t", Snippet: "s"}
	search := &fakeSearch{hits: map[string][]providers.SearchResult{}}
	e := &topicintel.Engine{WebSearch: search, Config: topicintel.Config{QueriesPerRound: 2, HitsPerQuery: 5}}

	// both rotated queries this round resolve to the same fixture URL
	queries := []string{
		topicintel.BuildQuery("ai adoption in schools", topicintel.Rotate(0)),
		topicintel.BuildQuery("ai adoption in schools", topicintel.Rotate(1)),
	}
	for _, q := range queries {
		search.hits[q] = []providers.SearchResult{shared}
	}

	brief, err := e.Research(context.Background(), "ai adoption in schools", 0)
	require.NoError(t, err)
	assert.Len(t, brief.Hits, 1)
	assert.Empty(t, brief.Summary)
}

func TestResearch_SynthesizesWithLLM(t *testing.T) {
	q := topicintel.BuildQuery("counseling staffing", topicintel.Rotate(0))
	search := &fakeSearch{hits: map[string][]providers.SearchResult{
		q: {{URL: "https://example.com/a", Title: "A", Snippet: "counseling staffing trends"}},
	}}
	llm := &fakeLLM{text: `{"summary": "Staffing is up.", "confidence": 0.8}`}
	e := &topicintel.Engine{WebSearch: search, LLM: llm, Config: topicintel.Config{QueriesPerRound: 1, HitsPerQuery: 5}}

	brief, err := e.Research(context.Background(), "counseling staffing", 0)
	require.NoError(t, err)
	assert.Equal(t, "Staffing is up.", brief.Summary)
	assert.Equal(t, 0.8, brief.Confidence)
}

func TestResearch_NoHitsIsError(t *testing.T) {
	search := &fakeSearch{hits: map[string][]providers.SearchResult{}}
	e := &topicintel.Engine{WebSearch: search, Config: topicintel.DefaultConfig()}

	_, err := e.Research(context.Background(), "nothing found", 0)
	assert.Error(t, err)
}

func TestWindowIndex_AdvancesPerWindow(t *testing.T) {
	assert.Equal(t, 0, topicintel.WindowIndex(10, 100))
	assert.Equal(t, 1, topicintel.WindowIndex(150, 100))
}
