package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// GoogleSearch is a WebSearch implementation backed by the Google
// Programmable Search JSON API.
type GoogleSearch struct {
	httpClient *http.Client
	apiKey     string
	cx         string
	baseURL    string
	breaker    *HostBreaker
}

// NewGoogleSearch builds a client. apiKey/cx empty means disabled.
func NewGoogleSearch(apiKey, cx string, breaker *HostBreaker) *GoogleSearch {
	return &GoogleSearch{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		apiKey:     apiKey,
		cx:         cx,
		baseURL:    "https://www.googleapis.com/customsearch/v1",
		breaker:    breaker,
	}
}

// Enabled reports whether credentials are configured.
func (g *GoogleSearch) Enabled() bool { return g.apiKey != "" && g.cx != "" }

type googleSearchResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

// Query implements providers.WebSearch.
func (g *GoogleSearch) Query(ctx context.Context, q string, opts SearchOptions) ([]SearchResult, error) {
	if !g.Enabled() {
		return nil, NewError(KindConfig, "google.query", fmt.Errorf("missing google search credentials"))
	}
	if g.breaker != nil && !g.breaker.Allow(g.baseURL) {
		return nil, NewError(KindUnavailable, "google.query", fmt.Errorf("circuit open for %s", g.baseURL))
	}

	query := q
	if opts.Site != "" {
		query = fmt.Sprintf("site:%s %s", opts.Site, q)
	}
	num := opts.Num
	if num <= 0 || num > 10 {
		num = 10
	}

	var out []SearchResult
	err := WithRetry(ctx, "google.query", func(ctx context.Context) error {
		u, _ := url.Parse(g.baseURL)
		values := u.Query()
		values.Set("key", g.apiKey)
		values.Set("cx", g.cx)
		values.Set("q", query)
		values.Set("num", strconv.Itoa(num))
		// Request only title/link/snippet to keep the payload small.
		values.Set("fields", "items(title,link,snippet)")
		u.RawQuery = values.Encode()

		req, rerr := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if rerr != nil {
			return NewError(KindTransient, "google.newrequest", rerr)
		}
		req.Header.Set("Accept-Encoding", "gzip")

		resp, derr := g.httpClient.Do(req)
		if derr != nil {
			if g.breaker != nil {
				g.breaker.RecordFailure(g.baseURL)
			}
			return NewError(ClassifyTransportError(derr), "google.do", derr)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 300 {
			if g.breaker != nil {
				g.breaker.RecordFailure(g.baseURL)
			}
			return NewError(ClassifyHTTPStatus(resp.StatusCode), "google.status",
				fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
		}
		if g.breaker != nil {
			g.breaker.RecordSuccess(g.baseURL)
		}

		var parsed googleSearchResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return NewError(KindTransient, "google.unmarshal", err)
		}
		out = make([]SearchResult, 0, len(parsed.Items))
		for _, item := range parsed.Items {
			out = append(out, SearchResult{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
		}
		return nil
	})
	if err != nil {
		return nil, Unwrap1(err)
	}
	return out, nil
}
