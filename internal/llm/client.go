// Package llm queries the language-model provider for dining venues near
// a resort and hands back the raw, untrusted entries.
package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/summit-group/dining-cli/internal/cost"
	"github.com/summit-group/dining-cli/internal/model"
	"github.com/summit-group/dining-cli/pkg/anthropic"
)

// queryTemperature keeps venue discovery near-deterministic while leaving
// room for the model to fill sparse areas.
const queryTemperature = 0.2

// VenueResponse is the outcome of one venue discovery call. Venues are
// raw JSON entries; validation happens downstream so one bad entry cannot
// sink the batch.
type VenueResponse struct {
	Venues []json.RawMessage
	Usage  model.TokenUsage
	Cost   float64
	Model  string
	Raw    json.RawMessage
}

// Client is the venue discovery surface the pipeline depends on.
type Client interface {
	RequestVenues(ctx context.Context, resort model.ResortQuery) (*VenueResponse, error)
}

type client struct {
	api       anthropic.Client
	calc      *cost.Calculator
	model     string
	maxTokens int64
}

// NewClient wires the Anthropic API and cost calculator into a venue
// discovery client using the given model.
func NewClient(api anthropic.Client, calc *cost.Calculator, modelID string, maxTokens int64) Client {
	return &client{
		api:       api,
		calc:      calc,
		model:     modelID,
		maxTokens: maxTokens,
	}
}

func (c *client) RequestVenues(ctx context.Context, resort model.ResortQuery) (*VenueResponse, error) {
	temp := queryTemperature
	resp, err := c.api.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      systemPrompt,
		Temperature: &temp,
		Messages: []anthropic.Message{
			{Role: "user", Content: buildUserPrompt(resort)},
		},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "llm: venue query for %s", resort.Name)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, eris.Errorf("llm: empty response for %s (stop reason %s)", resort.Name, resp.StopReason)
	}

	cleaned := cleanJSON(text)
	var envelope struct {
		Venues []json.RawMessage `json:"venues"`
	}
	if err := json.Unmarshal([]byte(cleaned), &envelope); err != nil {
		return nil, eris.Wrapf(err, "llm: decode venue response for %s", resort.Name)
	}

	usage := model.TokenUsage{
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
	}

	zap.L().Debug("venue query complete",
		zap.String("resort", resort.Name),
		zap.String("model", resp.Model),
		zap.Int("venues", len(envelope.Venues)),
		zap.Int64("prompt_tokens", usage.PromptTokens),
		zap.Int64("completion_tokens", usage.CompletionTokens),
	)

	return &VenueResponse{
		Venues: envelope.Venues,
		Usage:  usage,
		Cost:   c.calc.VenueQuery(resp.Model, usage.PromptTokens, usage.CompletionTokens),
		Model:  resp.Model,
		Raw:    json.RawMessage(cleaned),
	}, nil
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
