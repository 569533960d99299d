package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FirecrawlScrape is a Scrape implementation backed by Firecrawl's /scrape
// endpoint. It implements the cheap-path/stealth-path escalation: the cheap
// path omits "actions"/rendering flags, the stealth path (triggered by the
// caller after a cheap-path failure) sets them.
type FirecrawlScrape struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *HostBreaker
	limiter    *HostLimiter
}

// NewFirecrawlScrape builds a client.
func NewFirecrawlScrape(apiKey, baseURL string, breaker *HostBreaker, limiter *HostLimiter) *FirecrawlScrape {
	if baseURL == "" {
		baseURL = "https://api.firecrawl.dev/v1"
	}
	return &FirecrawlScrape{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		breaker:    breaker,
		limiter:    limiter,
	}
}

// Enabled reports whether credentials are configured.
func (f *FirecrawlScrape) Enabled() bool { return f.apiKey != "" }

type firecrawlRequest struct {
	URL             string   `json:"url"`
	WaitFor         int      `json:"waitFor,omitempty"`
	Actions         []string `json:"actions,omitempty"`
	OnlyMainContent bool     `json:"onlyMainContent,omitempty"`
}

type firecrawlResponse struct {
	Data struct {
		HTML    string `json:"html"`
		Markdown string `json:"markdown"`
	} `json:"data"`
}

// Fetch implements providers.Scrape.
func (f *FirecrawlScrape) Fetch(ctx context.Context, pageURL string, opts ScrapeOptions) (ScrapeResult, error) {
	if !f.Enabled() {
		return ScrapeResult{}, NewError(KindConfig, "firecrawl.fetch", fmt.Errorf("missing firecrawl api key"))
	}
	if f.breaker != nil && !f.breaker.Allow(pageURL) {
		return ScrapeResult{}, NewError(KindUnavailable, "firecrawl.fetch", fmt.Errorf("circuit open for host of %s", pageURL))
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, pageURL); err != nil {
			return ScrapeResult{}, NewError(KindCancelled, "firecrawl.wait", err)
		}
	}

	var out ScrapeResult
	err := WithRetry(ctx, "firecrawl.fetch", func(ctx context.Context) error {
		body, merr := json.Marshal(firecrawlRequest{
			URL:             pageURL,
			WaitFor:         opts.WaitMS,
			Actions:         opts.Actions,
			OnlyMainContent: opts.MainContentOnly,
		})
		if merr != nil {
			return NewError(KindValidation, "firecrawl.marshal", merr)
		}

		req, rerr := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/scrape", bytes.NewReader(body))
		if rerr != nil {
			return NewError(KindTransient, "firecrawl.newrequest", rerr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+f.apiKey)

		resp, derr := f.httpClient.Do(req)
		if derr != nil {
			if f.breaker != nil {
				f.breaker.RecordFailure(pageURL)
			}
			return NewError(ClassifyTransportError(derr), "firecrawl.do", derr)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 300 {
			if f.breaker != nil {
				f.breaker.RecordFailure(pageURL)
			}
			return NewError(ClassifyHTTPStatus(resp.StatusCode), "firecrawl.status",
				fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)))
		}
		if f.breaker != nil {
			f.breaker.RecordSuccess(pageURL)
		}

		var parsed firecrawlResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return NewError(KindTransient, "firecrawl.unmarshal", err)
		}
		out = ScrapeResult{
			ContentHTML: parsed.Data.HTML,
			ContentText: parsed.Data.Markdown,
			Status:      resp.StatusCode,
		}
		return nil
	})
	if err != nil {
		return ScrapeResult{}, Unwrap1(err)
	}
	return out, nil
}
