package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmylchreest/quill/pkg/links"
)

const linkSystemPrompt = `You suggest authoritative external references for articles.

Respond with ONLY JSON matching the schema. Each link needs a short anchor
phrase that is likely to appear word for word in an article with the given
title, and the absolute https URL of a reputable page about that phrase.
Never suggest shops, competitors or the article's own site.`

var linkSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"links": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"anchor_text": map[string]any{"type": "string"},
					"url":         map[string]any{"type": "string"},
				},
				"required":             []any{"anchor_text", "url"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"links"},
	"additionalProperties": false,
}

// LinkSource asks a provider for external link candidates.
type LinkSource struct {
	provider  Provider
	maxTokens int
}

var _ links.Source = (*LinkSource)(nil)

// NewLinkSource creates a LinkSource backed by p.
func NewLinkSource(p Provider) *LinkSource {
	return &LinkSource{provider: p, maxTokens: 1024}
}

// Candidates returns up to n suggested links for title.
func (s *LinkSource) Candidates(ctx context.Context, title string, n int) ([]links.Candidate, error) {
	if n <= 0 {
		return nil, nil
	}

	resp, err := s.provider.Execute(ctx, Request{
		Messages: []Message{
			{Role: RoleSystem, Content: linkSystemPrompt},
			{Role: RoleUser, Content: fmt.Sprintf("Suggest %d external links for an article titled: %s", n, title)},
		},
		MaxTokens:   s.maxTokens,
		Temperature: 0.2,
		JSONSchema:  linkSchema,
		SchemaName:  "external_links",
	})
	if err != nil {
		return nil, err
	}
	if resp.Content == "" {
		return nil, ErrEmptyResponse
	}

	var out struct {
		Links []links.Candidate `json:"links"`
	}
	if err := json.Unmarshal([]byte(StripCodeFence(resp.Content)), &out); err != nil {
		return nil, fmt.Errorf("parse link candidates: %w", err)
	}
	if out.Links == nil {
		return nil, errors.New("parse link candidates: missing links")
	}
	if len(out.Links) > n {
		out.Links = out.Links[:n]
	}
	return out.Links, nil
}
