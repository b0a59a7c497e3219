package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeProvider returns queued responses in order and records requests.
type fakeProvider struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	requests  []Request
	block     bool
}

func (f *fakeProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	f.mu.Lock()
	i := len(f.requests)
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	content := ""
	if i < len(f.responses) {
		content = f.responses[i]
	}
	return &Response{Content: content, Model: "fake-1"}, nil
}

func (f *fakeProvider) Name() string  { return "fake" }
func (f *fakeProvider) Model() string { return "fake-1" }

func TestGenerator_Generate(t *testing.T) {
	p := &fakeProvider{responses: []string{"```markdown\n# Rye Bread\n\nDense and dark.\n```"}}
	g, err := NewGenerator(p, nil)
	if err != nil {
		t.Fatalf("NewGenerator() error: %v", err)
	}

	doc, err := g.Generate(context.Background(), "  rye bread ")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if doc.Text != "# Rye Bread\n\nDense and dark." {
		t.Errorf("Text = %q", doc.Text)
	}
	if doc.Topic != "rye bread" {
		t.Errorf("Topic = %q, want %q", doc.Topic, "rye bread")
	}

	req := p.requests[0]
	if req.Messages[0].Role != RoleSystem || req.Messages[0].Content != GeneratorSystemPrompt {
		t.Error("system prompt not sent")
	}
	if !strings.Contains(req.Messages[1].Content, "rye bread") {
		t.Errorf("user prompt = %q, want topic", req.Messages[1].Content)
	}
}

func TestGenerator_Errors(t *testing.T) {
	tests := []struct {
		name  string
		p     *fakeProvider
		topic string
		calls int
		is    error
	}{
		{
			name:  "empty topic",
			p:     &fakeProvider{},
			topic: " ",
			calls: 0,
		},
		{
			name:  "empty response",
			p:     &fakeProvider{responses: []string{"  "}},
			topic: "bread",
			calls: 1,
			is:    ErrEmptyResponse,
		},
		{
			name:  "rate limit retried",
			p:     &fakeProvider{errs: []error{errors.New("429 rate limit"), errors.New("429 rate limit")}},
			topic: "bread",
			calls: 2,
		},
		{
			name:  "other errors not retried",
			p:     &fakeProvider{errs: []error{errors.New("invalid api key")}},
			topic: "bread",
			calls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := NewGenerator(tt.p, nil)
			_, err := g.Generate(context.Background(), tt.topic)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.is != nil && !errors.Is(err, tt.is) {
				t.Errorf("err = %v, want %v", err, tt.is)
			}
			if len(tt.p.requests) != tt.calls {
				t.Errorf("provider called %d times, want %d", len(tt.p.requests), tt.calls)
			}
		})
	}
}

func TestGenerator_RetryThenSuccess(t *testing.T) {
	p := &fakeProvider{
		errs:      []error{errors.New("rate limit exceeded")},
		responses: []string{"", "# Title\n\nBody."},
	}
	g, _ := NewGenerator(p, nil)
	doc, err := g.Generate(context.Background(), "bread")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if doc.Text != "# Title\n\nBody." {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestGenerator_Timeout(t *testing.T) {
	p := &fakeProvider{block: true}
	cfg := DefaultGeneratorConfig()
	cfg.Timeout = 20 * time.Millisecond
	g, _ := NewGenerator(p, &cfg)

	_, err := g.Generate(context.Background(), "bread")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
}

func TestNewGenerator_NilProvider(t *testing.T) {
	if _, err := NewGenerator(nil, nil); err == nil {
		t.Error("expected error for nil provider")
	}
}

func TestLinkSource_Candidates(t *testing.T) {
	p := &fakeProvider{responses: []string{`{"links":[
		{"anchor_text":"gluten","url":"https://en.wikipedia.org/wiki/Gluten"},
		{"anchor_text":"rye","url":"https://en.wikipedia.org/wiki/Rye"},
		{"anchor_text":"yeast","url":"https://en.wikipedia.org/wiki/Yeast"}
	]}`}}
	src := NewLinkSource(p)

	got, err := src.Candidates(context.Background(), "Rye Bread", 2)
	if err != nil {
		t.Fatalf("Candidates() error: %v", err)
	}
	if len(got) != 2 || got[0].AnchorText != "gluten" || got[1].URL != "https://en.wikipedia.org/wiki/Rye" {
		t.Errorf("Candidates() = %v", got)
	}

	req := p.requests[0]
	if req.JSONSchema == nil || req.SchemaName != "external_links" {
		t.Error("request did not carry the link schema")
	}
	if !strings.Contains(req.Messages[1].Content, "Rye Bread") || !strings.Contains(req.Messages[1].Content, "2 ") {
		t.Errorf("user prompt = %q", req.Messages[1].Content)
	}
}

func TestLinkSource_Errors(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "provider error", err: errors.New("down")},
		{name: "empty", response: ""},
		{name: "not json", response: "Here are some links: gluten"},
		{name: "missing links", response: `{"other":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{responses: []string{tt.response}, errs: []error{tt.err}}
			if _, err := NewLinkSource(p).Candidates(context.Background(), "Rye", 2); err == nil {
				t.Error("expected error")
			}
		})
	}

	p := &fakeProvider{}
	if got, err := NewLinkSource(p).Candidates(context.Background(), "Rye", 0); err != nil || got != nil {
		t.Errorf("n=0: got %v, %v", got, err)
	}
	if len(p.requests) != 0 {
		t.Error("n=0 should not call the provider")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"```{\"a\":1}```", `{"a":1}`},
		{"  plain text  ", "plain text"},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.in); got != tt.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewProvider(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	if _, err := NewProvider("nope", ProviderConfig{}); err == nil || !strings.Contains(err.Error(), "anthropic") {
		t.Errorf("unknown provider error = %v, want list of available providers", err)
	}
	if _, err := NewProvider("anthropic", ProviderConfig{}); err == nil {
		t.Error("anthropic without key: expected error")
	}

	t.Setenv("OPENAI_API_KEY", "sk-test")
	p, err := NewProvider("openai", ProviderConfig{})
	if err != nil {
		t.Fatalf("openai from env: %v", err)
	}
	if p.Name() != "openai" || p.Model() != "gpt-4o-mini" {
		t.Errorf("openai provider = %s/%s", p.Name(), p.Model())
	}

	p, err = NewProvider("ollama", ProviderConfig{Model: "mistral"})
	if err != nil {
		t.Fatalf("ollama: %v", err)
	}
	if p.Name() != "ollama" || p.Model() != "mistral" {
		t.Errorf("ollama provider = %s/%s", p.Name(), p.Model())
	}

	p, err = NewProvider("anthropic", ProviderConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("anthropic: %v", err)
	}
	if p.Model() != DefaultModels["anthropic"] {
		t.Errorf("anthropic model = %s", p.Model())
	}
}

func TestDetectProvider(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")
	if got := DetectProvider(); got != "ollama" {
		t.Errorf("DetectProvider() = %q, want ollama", got)
	}

	t.Setenv("OPENROUTER_API_KEY", "x")
	if got := DetectProvider(); got != "openrouter" {
		t.Errorf("DetectProvider() = %q, want openrouter", got)
	}

	t.Setenv("ANTHROPIC_API_KEY", "x")
	if got := DetectProvider(); got != "anthropic" {
		t.Errorf("DetectProvider() = %q, want anthropic", got)
	}
}

func TestAvailableProviders(t *testing.T) {
	got := strings.Join(AvailableProviders(), ",")
	for _, name := range []string{"anthropic", "ollama", "openai", "openrouter"} {
		if !strings.Contains(got, name) {
			t.Errorf("AvailableProviders() = %s, missing %s", got, name)
		}
	}
}

func TestRequiredFields(t *testing.T) {
	got := requiredFields(map[string]any{"required": []any{"a", 1, "b"}})
	if strings.Join(got, ",") != "a,b" {
		t.Errorf("requiredFields() = %v", got)
	}
	if got := requiredFields(map[string]any{}); len(got) != 0 {
		t.Errorf("requiredFields(empty) = %v", got)
	}
}
