// Package genai implements the report generation provider client. It calls a
// Gemini-style generateContent endpoint with a prompt that demands the fixed
// report section layout as strict JSON, parses the model output into
// domain.ReportContent, and retries transient failures with exponential
// backoff. Shape validation stays in the service layer; this client only
// guarantees syntactically valid JSON in the expected envelope.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/unipath-labs/go-abroad-backend/internal/domain"
)

const (
	defaultModel = "gemini-1.5-pro"
	maxRetries   = 3
	initialDelay = 1 * time.Second
)

// Client talks to the generation provider over plain HTTP.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewClient builds a generation client. baseURL must point at the provider's
// API root, e.g. https://generativelanguage.googleapis.com/v1beta.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   defaultModel,
		client:  &http.Client{Timeout: timeout},
	}
}

// Configured reports whether a usable credential is present. Used by the
// health probe; never makes a network call.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type generateRequest struct {
	Contents []content `json:"contents"`
	Config   genConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type genConfig struct {
	ResponseMIMEType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Generate produces structured report content for the subject/country pair.
// Rate-limit and server errors are retried with exponential backoff; the
// context deadline always wins.
func (c *Client) Generate(ctx context.Context, subject, country string) (*domain.ReportContent, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("AI_API_KEY not set")
	}

	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(subject, country)}}}},
		Config: genConfig{
			ResponseMIMEType: "application/json",
			Temperature:      0.2,
		},
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt-1))) * initialDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr apiError
			if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
				lastErr = fmt.Errorf("generation API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
			} else {
				lastErr = fmt.Errorf("generation API error (%d): %s", resp.StatusCode, string(respBody))
			}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return nil, lastErr
		}

		return parseContent(respBody)
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
}

// parseContent extracts the model's JSON text and unmarshals it into the
// report content envelope.
func parseContent(respBody []byte) (*domain.ReportContent, error) {
	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty generation response")
	}

	text := gr.Candidates[0].Content.Parts[0].Text
	// Some models wrap JSON in a markdown fence despite the MIME hint.
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var rc domain.ReportContent
	if err := json.Unmarshal([]byte(text), &rc); err != nil {
		return nil, fmt.Errorf("model output is not valid report JSON: %w", err)
	}
	return &rc, nil
}

// buildPrompt describes the exact section layout and citation requirements so
// the model output can be unmarshaled directly.
func buildPrompt(subject, country string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert study-abroad advisor. Write a detailed report about studying %q in %s.\n\n", subject, country)
	b.WriteString("Respond with a single JSON object of the form ")
	b.WriteString(`{"sections":[{"slug":"...","title":"...","body":"...","citations":[{"title":"...","url":"..."}]}]}` + ".\n")
	b.WriteString("Include exactly these sections, in this order, using these slugs:\n")
	for _, slug := range domain.RequiredSections {
		fmt.Fprintf(&b, "- %s\n", slug)
	}
	fmt.Fprintf(&b, "\nEvery section except %q and %q must cite at least %d real, verifiable web sources with full URLs. ",
		domain.SectionSummary, domain.SectionCitations, domain.MinSectionCitations)
	fmt.Fprintf(&b, "The %q section aggregates every source used. Bodies must be substantive prose, not placeholders.", domain.SectionCitations)
	return b.String()
}
