package topicintel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/outreachforge/prospector/pkg/providers"
)

// Config tunes the rotation fan-out.
type Config struct {
	QueriesPerRound int   // distinct rotated operators queried concurrently
	HitsPerQuery    int
	WindowSeconds   int64 // rotation window; see WindowIndex
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{QueriesPerRound: 3, HitsPerQuery: 5, WindowSeconds: 86400}
}

// Engine fans a base query out across several rotated dork operators and
// synthesizes the combined hits into one structured Brief.
type Engine struct {
	WebSearch providers.WebSearch
	LLM       providers.LLM
	Config    Config
}

// Brief is Topic Intelligence's output.
type Brief struct {
	Topic      string
	Queries    []string
	Hits       []providers.SearchResult
	Summary    string
	Confidence float64
}

func (e *Engine) queriesPerRound() int {
	if e.Config.QueriesPerRound > 0 {
		return e.Config.QueriesPerRound
	}
	return 3
}

func (e *Engine) hitsPerQuery() int {
	if e.Config.HitsPerQuery > 0 {
		return e.Config.HitsPerQuery
	}
	return 5
}

// Research runs Rotate-derived queries for topic concurrently through
// WebSearch, merges their hits (deduped by URL), and — when an LLM is
// wired — synthesizes one structured brief from the merged snippets. A
// rotated query that fails doesn't fail the round; Topic Intelligence
// degrades to whatever queries did return hits, same as the rest of the
// pipeline's partial-failure tolerance.
func (e *Engine) Research(ctx context.Context, topic string, nowUnix int64) (*Brief, error) {
	if e.WebSearch == nil {
		return nil, fmt.Errorf("topicintel: no web search provider configured")
	}

	n := e.queriesPerRound()
	base := WindowIndex(nowUnix, e.Config.WindowSeconds) * n
	queries := make([]string, n)
	hitSets := make([][]providers.SearchResult, n)

	g := &errgroup.Group{}
	g.SetLimit(n)
	for i := 0; i < n; i++ {
		i := i
		queries[i] = BuildQuery(topic, Rotate(base+i))
		g.Go(func() error {
			hits, err := e.WebSearch.Query(ctx, queries[i], providers.SearchOptions{Num: e.hitsPerQuery()})
			if err != nil {
				return nil
			}
			hitSets[i] = hits
			return nil
		})
	}
	_ = g.Wait()

	brief := &Brief{Topic: topic, Queries: queries}
	seen := make(map[string]bool)
	for _, hits := range hitSets {
		for _, h := range hits {
			if seen[h.URL] {
				continue
			}
			seen[h.URL] = true
			brief.Hits = append(brief.Hits, h)
		}
	}
	if len(brief.Hits) == 0 {
		return brief, fmt.Errorf("topicintel: no rotated query returned hits")
	}

	if e.LLM != nil {
		e.synthesize(ctx, brief)
	}
	return brief, nil
}

type synthesisResponse struct {
	Summary    string  `json:"summary"`
	Confidence float64 `json:"confidence"`
}

// synthesize merges the rotated queries' combined hits into one structured
// answer. On any failure to call or parse the LLM it leaves brief.Summary
// empty rather than propagating an error — a missing synthesis still leaves
// the raw rotated hits usable.
func (e *Engine) synthesize(ctx context.Context, brief *Brief) {
	var b strings.Builder
	for _, h := range brief.Hits {
		fmt.Fprintf(&b, "- %s: %s\n", h.Title, h.Snippet)
	}
	prompt := fmt.Sprintf(
		"You are a research analyst synthesizing web search results about %q gathered from %d rotated search queries.\n\nResults:\n%s\nReturn a JSON object: {\"summary\": \"<2-3 sentence synthesis>\", \"confidence\": <0.0-1.0>}",
		brief.Topic, len(brief.Queries), b.String(),
	)
	res, err := e.LLM.Complete(ctx, prompt, providers.LLMOptions{MaxTokens: 400})
	if err != nil {
		return
	}
	var parsed synthesisResponse
	if jsonErr := json.Unmarshal([]byte(extractJSON(res.Text)), &parsed); jsonErr != nil || parsed.Summary == "" {
		brief.Summary = res.Text
		brief.Confidence = 0.5
		return
	}
	brief.Summary = parsed.Summary
	brief.Confidence = parsed.Confidence
}

// extractJSON trims leading/trailing prose an LLM sometimes wraps JSON in.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
