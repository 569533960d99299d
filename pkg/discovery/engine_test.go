package discovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/discovery"
	"github.com/outreachforge/prospector/pkg/extract"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/providers"
	"github.com/outreachforge/prospector/pkg/storage"
	"github.com/outreachforge/prospector/pkg/topicintel"
)

// fixedClock pins discovery's Google-dork rotation window to a known
// operator so tests can assert on the exact rotated query string.
var fixedClock = clock.Frozen{At: time.Unix(0, 0)}

func genericQueryAtFixedClock() string {
	idx := topicintel.WindowIndex(fixedClock.At.Unix(), int64((24 * time.Hour).Seconds()))
	return topicintel.BuildQuery(discovery.GenericSeedQuery, topicintel.Rotate(idx))
}

type fakeSearch struct {
	hits map[string][]providers.SearchResult
}

func (f *fakeSearch) Query(ctx context.Context, q string, opts providers.SearchOptions) ([]providers.SearchResult, error) {
	return f.hits[q], nil
}

type fakeScrape struct {
	pages map[string]string
}

func (f *fakeScrape) Fetch(ctx context.Context, url string, opts providers.ScrapeOptions) (providers.ScrapeResult, error) {
	html, ok := f.pages[url]
	if !ok {
		return providers.ScrapeResult{}, assertErr{url}
	}
	return providers.ScrapeResult{ContentHTML: html, Status: 200}, nil
}

type assertErr struct{ url string }

func (e assertErr) Error() string { return "no fixture for " + e.url }

type noopActivity struct{ events []models.ActivityEvent }

func (n *noopActivity) Publish(ctx context.Context, evt models.ActivityEvent) error {
	n.events = append(n.events, evt)
	return nil
}

func TestDiscover_SingleCategorySingleHopGeneric(t *testing.T) {
	pageURL := "https://smithcounseling.com/about"
	html := `<html><body>
		<h1>Jane Smith</h1>
		<meta property="og:site_name" content="Smith Counseling Group" />
		<p>Email: jane (at) smithcounseling (dot) com. Phone: 555-010-2000</p>
	</body></html>`

	search := &fakeSearch{hits: map[string][]providers.SearchResult{
		genericQueryAtFixedClock(): {{URL: pageURL, Title: "About", Snippet: "..."}},
	}}
	scrape := &fakeScrape{pages: map[string]string{pageURL: html}}
	act := &noopActivity{}
	store := storage.NewMemoryStore()

	e := &discovery.Engine{
		Store:     store,
		WebSearch: search,
		Scrape:    scrape,
		Registry:  extract.NewRegistry(),
		Activity:  act,
		Clock:     fixedClock,
		Config:    discovery.DefaultConfig(),
	}

	result, err := e.Discover(context.Background(), "user-1", []string{"custom"}, "", 5)
	require.NoError(t, err)
	require.Len(t, result.Prospects, 1)
	assert.Equal(t, "Jane Smith", result.Prospects[0].Name)
	assert.Equal(t, "Smith Counseling Group", result.Prospects[0].Organization)
	assert.Equal(t, models.ApprovalPending, result.Prospects[0].ApprovalStatus)
	assert.Greater(t, result.Prospects[0].InfluenceScore, 0.0)
	require.Len(t, act.events, 1)
	assert.Equal(t, "[SAVE SUMMARY]", act.events[0].Title)

	var stored models.DiscoveredProspect
	require.NoError(t, storage.GetJSON(context.Background(), store, storage.CollectionProspects, "user-1", result.Prospects[0].ProspectID, &stored))
	assert.Equal(t, "Jane Smith", stored.Name)
}

func TestDiscover_RejectsProspectWithoutContactOrOrg(t *testing.T) {
	// The only organization this page yields is the domain fallback "Yelp",
	// a blocked directory name, so the prospect has neither contact nor org.
	pageURL := "https://www.yelp.com/about"
	html := `<html><body><h1>John Doe</h1><p>No contact info here at all.</p></body></html>`

	search := &fakeSearch{hits: map[string][]providers.SearchResult{
		genericQueryAtFixedClock(): {{URL: pageURL}},
	}}
	scrape := &fakeScrape{pages: map[string]string{pageURL: html}}
	store := storage.NewMemoryStore()

	e := &discovery.Engine{
		Store:     store,
		WebSearch: search,
		Scrape:    scrape,
		Registry:  extract.NewRegistry(),
		Clock:     fixedClock,
		Config:    discovery.DefaultConfig(),
	}

	result, err := e.Discover(context.Background(), "user-1", []string{"custom"}, "", 5)
	require.NoError(t, err)
	assert.Empty(t, result.Prospects)
}

type cancelAwareSearch struct{}

func (cancelAwareSearch) Query(ctx context.Context, q string, opts providers.SearchOptions) ([]providers.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, nil
}

func TestDiscover_CancelledContextStillPublishesSummary(t *testing.T) {
	act := &noopActivity{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &discovery.Engine{
		Store:     storage.NewMemoryStore(),
		WebSearch: cancelAwareSearch{},
		Registry:  extract.NewRegistry(),
		Activity:  act,
		Clock:     clock.Real{},
		Config:    discovery.DefaultConfig(),
	}

	result, err := e.Discover(ctx, "user-1", []string{"custom"}, "", 5)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.True(t, result.Cancelled)

	require.Len(t, act.events, 1)
	assert.Equal(t, "[SAVE SUMMARY] (cancelled)", act.events[0].Title)
	assert.Equal(t, true, act.events[0].Metadata["cancelled"])
}

func TestDiscover_DorkRotationChangesQueryAcrossWindows(t *testing.T) {
	pageURL := "https://smithcounseling.com/about"
	html := `<html><body>
		<h1>Jane Smith</h1>
		<meta property="og:site_name" content="Smith Counseling Group" />
		<p>Email: jane (at) smithcounseling (dot) com. Phone: 555-010-2000</p>
	</body></html>`

	laterClock := clock.Frozen{At: fixedClock.At.Add(48 * time.Hour)}
	laterQuery := func() string {
		idx := topicintel.WindowIndex(laterClock.At.Unix(), int64((24 * time.Hour).Seconds()))
		return topicintel.BuildQuery(discovery.GenericSeedQuery, topicintel.Rotate(idx))
	}()
	assert.NotEqual(t, genericQueryAtFixedClock(), laterQuery)

	search := &fakeSearch{hits: map[string][]providers.SearchResult{
		laterQuery: {{URL: pageURL, Title: "About", Snippet: "..."}},
	}}
	scrape := &fakeScrape{pages: map[string]string{pageURL: html}}
	e := &discovery.Engine{
		Store:     storage.NewMemoryStore(),
		WebSearch: search,
		Scrape:    scrape,
		Registry:  extract.NewRegistry(),
		Clock:     laterClock,
		Config:    discovery.DefaultConfig(),
	}

	result, err := e.Discover(context.Background(), "user-1", []string{"custom"}, "", 5)
	require.NoError(t, err)
	require.Len(t, result.Prospects, 1)
}

func TestInfluenceScore_Deterministic(t *testing.T) {
	a := discovery.InfluenceScore("treatment_center", "Executive Director", "Lighthouse Recovery Center", true, true)
	b := discovery.InfluenceScore("treatment_center", "Executive Director", "Lighthouse Recovery Center", true, true)
	assert.Equal(t, a, b)
	assert.Greater(t, a, 0.0)
	assert.LessOrEqual(t, a, 100.0)

	low := discovery.InfluenceScore("youth_sports", "", "", false, false)
	assert.Less(t, low, a)
}
