package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/quill/internal/logger"
	"github.com/jmylchreest/quill/pkg/normalize"
)

// ErrEmptyResponse is returned when the provider answers with no text.
var ErrEmptyResponse = errors.New("empty response")

// GeneratorSystemPrompt asks for the document shape the normalizer expects.
const GeneratorSystemPrompt = `You are a writer for a content website. Write a complete article in Markdown.

Rules:
1. Start with a single "# " heading that is the article title.
2. Organize the body in "## " sections with short paragraphs.
3. Use plain Markdown only. No front matter, no commentary about the article.
4. Where an image would help, write [IMAGE_PLACEMENT:"short description"] on its own line.
5. End with a "## FAQ" section of three questions as "### " headings, each followed by its answer.`

// GeneratorConfig configures a Generator.
type GeneratorConfig struct {
	SystemPrompt string
	MaxTokens    int
	Temperature  float64
	// Timeout bounds each provider call.
	Timeout time.Duration
	// MaxRetries applies to rate limit errors only.
	MaxRetries int
}

// DefaultGeneratorConfig returns the default generator settings.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		SystemPrompt: GeneratorSystemPrompt,
		MaxTokens:    8192,
		Temperature:  0.7,
		Timeout:      3 * time.Minute,
		MaxRetries:   1,
	}
}

// Generator writes raw document text for a topic.
type Generator struct {
	provider Provider
	config   GeneratorConfig
}

// NewGenerator creates a Generator. A nil config uses DefaultGeneratorConfig.
func NewGenerator(p Provider, cfg *GeneratorConfig) (*Generator, error) {
	if p == nil {
		return nil, errors.New("generator: nil provider")
	}
	c := DefaultGeneratorConfig()
	if cfg != nil {
		c = *cfg
		if c.SystemPrompt == "" {
			c.SystemPrompt = GeneratorSystemPrompt
		}
	}
	return &Generator{provider: p, config: c}, nil
}

// Generate asks the provider for an article about topic.
func (g *Generator) Generate(ctx context.Context, topic string) (normalize.RawDocument, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return normalize.RawDocument{}, errors.New("generator: empty topic")
	}

	req := Request{
		Messages: []Message{
			{Role: RoleSystem, Content: g.config.SystemPrompt},
			{Role: RoleUser, Content: fmt.Sprintf("Write an article about: %s", topic)},
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt <= g.config.MaxRetries; attempt++ {
		resp, err := g.execute(ctx, req)
		if err == nil {
			text := strings.TrimSpace(StripCodeFence(resp.Content))
			if text == "" {
				return normalize.RawDocument{}, fmt.Errorf("generate %q: %w", topic, ErrEmptyResponse)
			}
			logger.Debug("generated document",
				"provider", g.provider.Name(),
				"model", resp.Model,
				"topic", topic,
				"input_tokens", resp.Usage.InputTokens,
				"output_tokens", resp.Usage.OutputTokens,
				"duration", resp.Duration)
			return normalize.RawDocument{Text: text, Topic: topic}, nil
		}
		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			break
		}
		logger.Warn("generation rate limited, retrying", "provider", g.provider.Name(), "attempt", attempt+1)
	}
	return normalize.RawDocument{}, fmt.Errorf("generate %q: %w", topic, lastErr)
}

func (g *Generator) execute(ctx context.Context, req Request) (*Response, error) {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}
	return g.provider.Execute(ctx, req)
}

// isRetryable reports whether err is a rate limit. Other failures are not
// retried.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "rate limit") || strings.Contains(s, "429")
}
