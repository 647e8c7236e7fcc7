package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mfortin/tax-intake/internal/core/domain"
	"github.com/mfortin/tax-intake/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func New(baseURL, model string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

func (c *Client) generateJSON(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, "/api/generate", reqBody, &response, "generate"); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Response), nil
}

// FieldExtractor turns document text into the structured fields of its kind.
// Calls are rate limited, bounded by a timeout, and retried/breakered; the
// usecases degrade any remaining failure to absent fields.
type FieldExtractor struct {
	client   *Client
	executor *resilience.Executor
	limiter  *rate.Limiter
	timeout  time.Duration
}

type FieldExtractorOptions struct {
	Executor          *resilience.Executor
	RequestsPerSecond float64
	Timeout           time.Duration
}

func NewFieldExtractor(client *Client, options FieldExtractorOptions) *FieldExtractor {
	var limiter *rate.Limiter
	if options.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(options.RequestsPerSecond), 1)
	}
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &FieldExtractor{
		client:   client,
		executor: options.Executor,
		limiter:  limiter,
		timeout:  timeout,
	}
}

func (x *FieldExtractor) ExtractFields(ctx context.Context, kind domain.DocumentKind, text string) (domain.Fields, error) {
	prompt, err := buildExtractionPrompt(kind, text)
	if err != nil {
		return nil, err
	}

	if x.limiter != nil {
		if err := x.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	var raw string
	call := func(ctx context.Context) error {
		var callErr error
		raw, callErr = x.client.generateJSON(ctx, prompt)
		return callErr
	}

	if x.executor != nil {
		err = x.executor.Execute(callCtx, "ollama.extract", call, classifyOllamaError)
	} else {
		err = call(callCtx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("extract fields", err)
	}

	var fields domain.Fields
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &fields); err != nil {
		return nil, fmt.Errorf("parse extraction json: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

// extractJSONObject fishes the JSON object out of a chatty model response.
func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
