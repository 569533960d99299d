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

// PerplexityLLM is an LLM implementation backed by Perplexity's chat
// completions endpoint. It is the research pipeline's "LLM-research" source.
type PerplexityLLM struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	breaker    *HostBreaker
}

// NewPerplexityLLM builds a client. An empty apiKey means the provider is
// disabled — callers should check Enabled() and degrade rather than call in.
func NewPerplexityLLM(apiKey, baseURL string, breaker *HostBreaker) *PerplexityLLM {
	if baseURL == "" {
		baseURL = "https://api.perplexity.ai"
	}
	return &PerplexityLLM{
		httpClient: &http.Client{Timeout: 45 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		breaker:    breaker,
	}
}

// Enabled reports whether credentials are configured.
func (p *PerplexityLLM) Enabled() bool { return p.apiKey != "" }

type perplexityChatRequest struct {
	Model    string                  `json:"model"`
	Messages []perplexityChatMessage `json:"messages"`
	MaxTokens int                    `json:"max_tokens,omitempty"`
}

type perplexityChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type perplexityChatResponse struct {
	Choices []struct {
		Message perplexityChatMessage `json:"message"`
	} `json:"choices"`
}

// Complete implements providers.LLM. It sends no temperature and ignores
// opts.JSONSchema: the reply is always returned in Text and JSON is never
// populated.
func (p *PerplexityLLM) Complete(ctx context.Context, prompt string, opts LLMOptions) (LLMResult, error) {
	if !p.Enabled() {
		return LLMResult{}, NewError(KindConfig, "perplexity.complete", fmt.Errorf("missing perplexity api key"))
	}
	if p.breaker != nil && !p.breaker.Allow(p.baseURL) {
		return LLMResult{}, NewError(KindUnavailable, "perplexity.complete", fmt.Errorf("circuit open for %s", p.baseURL))
	}

	model := opts.Model
	if model == "" {
		model = "sonar"
	}

	var out LLMResult
	err := WithRetry(ctx, "perplexity.complete", func(ctx context.Context) error {
		body, merr := json.Marshal(perplexityChatRequest{
			Model:     model,
			MaxTokens: opts.MaxTokens,
			Messages: []perplexityChatMessage{
				{Role: "user", Content: prompt},
			},
		})
		if merr != nil {
			return NewError(KindValidation, "perplexity.marshal", merr)
		}

		req, rerr := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
		if rerr != nil {
			return NewError(KindTransient, "perplexity.newrequest", rerr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.apiKey)

		resp, derr := p.httpClient.Do(req)
		if derr != nil {
			if p.breaker != nil {
				p.breaker.RecordFailure(p.baseURL)
			}
			return NewError(ClassifyTransportError(derr), "perplexity.do", derr)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode >= 300 {
			if p.breaker != nil {
				p.breaker.RecordFailure(p.baseURL)
			}
			return NewError(ClassifyHTTPStatus(resp.StatusCode), "perplexity.status",
				fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody)))
		}
		if p.breaker != nil {
			p.breaker.RecordSuccess(p.baseURL)
		}

		var parsed perplexityChatResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return NewError(KindTransient, "perplexity.unmarshal", err)
		}
		if len(parsed.Choices) == 0 {
			return NewError(KindTransient, "perplexity.empty", fmt.Errorf("no choices returned"))
		}
		out = LLMResult{Text: parsed.Choices[0].Message.Content}
		return nil
	})
	if err != nil {
		return LLMResult{}, Unwrap1(err)
	}
	return out, nil
}
