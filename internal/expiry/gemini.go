package expiry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/serroba/ghostlink/internal/shortener"
)

const (
	DefaultGeminiModel    = "gemini-2.0-flash"
	DefaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

	maxResponseBytes = 1 << 20
)

var (
	ErrGeminiStatus = errors.New("gemini returned an error status")
	ErrNoCandidate  = errors.New("gemini returned no text")
	ErrMalformed    = errors.New("malformed expiry json")
)

const systemPrompt = `You convert a short description of when a link should stop working into JSON.

A link can expire after a number of clicks, at a point in time, or on whichever of the two comes first.
Phrases such as "3 clicks" or "5 visits" set a click limit. Phrases such as "in 2 hours", "tomorrow"
or "next friday" set a time limit. A phrase with both, such as "10 clicks or 1 day", is hybrid.

The current time is %s. Every timeLimit must be an absolute UTC instant in RFC 3339 format
ending in "Z" and must be later than the current time. "tomorrow" without a time means 23:59:59 UTC.

Reply with one JSON object and nothing else:
{"type": "clicks" | "time" | "hybrid", "clickLimit": integer or null, "timeLimit": string or null, "summary": string}

The summary is one short English sentence such as "Expires after 3 clicks" or
"Expires after 5 clicks or on Mar 2 at 11:59 PM UTC, whichever comes first".`

// GeminiClient is an NLU backed by the Gemini generateContent REST API.
type GeminiClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

// GeminiOption customizes a GeminiClient.
type GeminiOption func(*GeminiClient)

// WithEndpoint points the client at another API root, mainly for tests.
func WithEndpoint(endpoint string) GeminiOption {
	return func(c *GeminiClient) { c.endpoint = strings.TrimRight(endpoint, "/") }
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) GeminiOption {
	return func(c *GeminiClient) { c.httpClient = hc }
}

// NewGeminiClient creates a client for model. An empty model uses DefaultGeminiModel.
func NewGeminiClient(apiKey, model string, opts ...GeminiOption) *GeminiClient {
	if model == "" {
		model = DefaultGeminiModel
	}

	c := &GeminiClient{
		httpClient: http.DefaultClient,
		endpoint:   DefaultGeminiEndpoint,
		apiKey:     apiKey,
		model:      model,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction geminiContent   `json:"systemInstruction"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		ResponseMimeType string  `json:"responseMimeType"`
		Temperature      float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// Parse sends text to Gemini and decodes the reply into a rule.
func (c *GeminiClient) Parse(ctx context.Context, text string, now time.Time) (shortener.ExpiryRule, error) {
	var req geminiRequest

	req.SystemInstruction = geminiContent{
		Parts: []geminiPart{{Text: fmt.Sprintf(systemPrompt, now.UTC().Format(time.RFC3339))}},
	}
	req.Contents = []geminiContent{{
		Role:  "user",
		Parts: []geminiPart{{Text: "Expiry: " + text}},
	}}
	req.GenerationConfig.ResponseMimeType = "application/json"

	body, err := json.Marshal(req)
	if err != nil {
		return shortener.ExpiryRule{}, fmt.Errorf("encode gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.endpoint, c.model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return shortener.ExpiryRule{}, fmt.Errorf("build gemini request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return shortener.ExpiryRule{}, fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return shortener.ExpiryRule{}, fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return shortener.ExpiryRule{}, fmt.Errorf("%w: %d", ErrGeminiStatus, resp.StatusCode)
	}

	var decoded geminiResponse
	if err = json.Unmarshal(raw, &decoded); err != nil {
		return shortener.ExpiryRule{}, fmt.Errorf("decode gemini response: %w", err)
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return shortener.ExpiryRule{}, ErrNoCandidate
	}

	return DecodeRule(decoded.Candidates[0].Content.Parts[0].Text, text)
}

// DecodeRule parses model output into a rule. The output may be wrapped in a
// markdown code fence and must carry all four keys, null or not.
func DecodeRule(output, rawInput string) (shortener.ExpiryRule, error) {
	output = stripFence(output)

	var keys map[string]json.RawMessage
	if err := json.Unmarshal([]byte(output), &keys); err != nil {
		return shortener.ExpiryRule{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	for _, k := range []string{"type", "clickLimit", "timeLimit", "summary"} {
		if _, ok := keys[k]; !ok {
			return shortener.ExpiryRule{}, fmt.Errorf("%w: missing %q", ErrMalformed, k)
		}
	}

	var fields struct {
		Type       string  `json:"type"`
		ClickLimit *int64  `json:"clickLimit"`
		TimeLimit  *string `json:"timeLimit"`
		Summary    string  `json:"summary"`
	}

	if err := json.Unmarshal([]byte(output), &fields); err != nil {
		return shortener.ExpiryRule{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	rule := shortener.ExpiryRule{
		Type:       shortener.RuleType(fields.Type),
		ClickLimit: fields.ClickLimit,
		Summary:    fields.Summary,
		RawInput:   rawInput,
	}

	if fields.TimeLimit != nil {
		deadline, err := time.Parse(time.RFC3339, *fields.TimeLimit)
		if err != nil {
			return shortener.ExpiryRule{}, fmt.Errorf("%w: timeLimit: %w", ErrMalformed, err)
		}

		deadline = deadline.UTC()
		rule.TimeLimit = &deadline
	}

	if err := rule.Validate(); err != nil {
		return shortener.ExpiryRule{}, err
	}

	return rule, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	}

	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

var _ NLU = (*GeminiClient)(nil)
