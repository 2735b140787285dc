// Package generate produces documentation text for a selected entity
// and angle. The Anthropic-backed implementation is the production
// path; the Generator interface exists so the cycle loop and tests can
// run without network access.
package generate

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/steveyegge/scribe/internal/logging"
	"github.com/steveyegge/scribe/internal/types"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5-20250929"

// Request describes one documentation job.
type Request struct {
	Repo   types.Repository
	Angle  types.DocAngle
	Entity types.StructuralEntity
}

// Result is the produced documentation.
type Result struct {
	Title        string
	Body         string
	Model        string
	InputTokens  int64
	OutputTokens int64
	Duration     time.Duration
}

// Generator produces documentation for a request.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Result, error)
}

// Config holds generation configuration.
type Config struct {
	// APIKey for Anthropic. Empty reads ANTHROPIC_API_KEY.
	APIKey string `yaml:"-"`
	Model  string `yaml:"model"`

	MaxTokens int `yaml:"max_tokens" validate:"min=0"`

	// CallsPerMinute rate-limits outbound API calls. Zero disables the
	// limiter; the human-like schedule already spaces cycles widely, so
	// this only matters for preview and backfill tooling.
	CallsPerMinute int `yaml:"calls_per_minute" validate:"min=0"`

	Retry RetryConfig `yaml:"retry"`
}

// DefaultConfig returns generation defaults.
func DefaultConfig() Config {
	return Config{
		Model:          DefaultModel,
		MaxTokens:      2048,
		CallsPerMinute: 10,
		Retry:          DefaultRetryConfig(),
	}
}

// AnthropicGenerator generates documentation via the Anthropic API.
type AnthropicGenerator struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
	retry     RetryConfig
}

// NewAnthropic creates an Anthropic-backed generator.
func NewAnthropic(cfg Config) (*AnthropicGenerator, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	var limiter *rate.Limiter
	if cfg.CallsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.CallsPerMinute)), 1)
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicGenerator{
		client:    &client,
		model:     model,
		maxTokens: int64(maxTokens),
		limiter:   limiter,
		retry:     retry,
	}, nil
}

// Generate produces documentation for the request, retrying transient
// API failures with exponential backoff.
func (g *AnthropicGenerator) Generate(ctx context.Context, req *Request) (*Result, error) {
	log := logging.Named("generate")
	start := time.Now()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	prompt := buildPrompt(req)

	var response *anthropic.Message
	err := g.retryWithBackoff(ctx, "generate", func(attemptCtx context.Context) error {
		resp, apiErr := g.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(g.model),
			MaxTokens: g.maxTokens,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		response = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call failed: %w", err)
	}

	var body strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			body.WriteString(block.Text)
		}
	}
	text := strings.TrimSpace(body.String())
	if text == "" {
		return nil, fmt.Errorf("empty response for %s (%s)", req.Entity.Identifier, req.Angle.Name)
	}

	duration := time.Since(start)
	log.Debug().
		Str("entity", req.Entity.Identifier).
		Str("angle", req.Angle.Name).
		Int64("input_tokens", response.Usage.InputTokens).
		Int64("output_tokens", response.Usage.OutputTokens).
		Dur("duration", duration).
		Msg("documentation generated")

	title, rest := splitTitle(text)
	return &Result{
		Title:        title,
		Body:         rest,
		Model:        g.model,
		InputTokens:  response.Usage.InputTokens,
		OutputTokens: response.Usage.OutputTokens,
		Duration:     duration,
	}, nil
}

// splitTitle peels a leading markdown heading off the generated text.
// Without one, the body stands alone and the caller titles the document
// from the entity identifier.
func splitTitle(text string) (string, string) {
	lines := strings.SplitN(text, "\n", 2)
	first := strings.TrimSpace(lines[0])
	if strings.HasPrefix(first, "#") {
		title := strings.TrimSpace(strings.TrimLeft(first, "# "))
		rest := ""
		if len(lines) > 1 {
			rest = strings.TrimSpace(lines[1])
		}
		return title, rest
	}
	return "", text
}
