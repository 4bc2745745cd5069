// Package llm produces an optional natural-language digest of a completed
// ingestion batch. The digest is advisory output for operators and never
// affects what gets stored.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pitwall/stewarding/internal/model"
)

// Summarizer turns a batch of freshly stored penalty records into a short
// prose digest.
type Summarizer struct {
	client *openai.Client
	model  string
}

// NewSummarizer builds a summarizer from the LLM configuration. It returns
// nil when no API key is configured, which disables the digest.
func NewSummarizer(cfg model.LLMConfig) *Summarizer {
	if cfg.APIKey == "" {
		return nil
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Summarizer{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Digest summarizes the stored records in a few sentences.
func (s *Summarizer) Digest(ctx context.Context, recs []*model.PenaltyRecord) (string, error) {
	if len(recs) == 0 {
		return "", nil
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You summarize motorsport stewarding decisions for a race operations digest. Be factual and brief.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildDigestPrompt(recs),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("digest completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("digest completion: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildDigestPrompt renders one line per record for the model to compress.
func buildDigestPrompt(recs []*model.PenaltyRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Summarize these %d new stewarding decisions in at most four sentences:\n", len(recs))
	for _, rec := range recs {
		fmt.Fprintf(&b, "- %s, %s: %s received %q (%s)\n",
			rec.GrandPrix, rec.IncidentInfo.Session, rec.IncidentInfo.Driver,
			strings.Join(rec.IncidentInfo.Decision, "; "), rec.PenaltyType)
	}
	return b.String()
}
