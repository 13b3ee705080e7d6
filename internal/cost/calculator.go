// Package cost computes provider spend from token usage.
package cost

// ModelRate holds per-model token pricing in USD per thousand tokens.
type ModelRate struct {
	InputPer1K  float64 `yaml:"input_per_1k" mapstructure:"input_per_1k"`
	OutputPer1K float64 `yaml:"output_per_1k" mapstructure:"output_per_1k"`
}

// DefaultModel is the model whose rates apply when the configured model
// is not in the rate table.
const DefaultModel = "claude-sonnet-4-5-20250929"

// Calculator computes call costs from a per-model rate table.
type Calculator struct {
	rates        map[string]ModelRate
	defaultModel string
}

// NewCalculator creates a Calculator. A defaultModel that is empty or has
// no entry in rates falls back to DefaultModel, so fallback lookups always
// resolve to a real rate.
func NewCalculator(rates map[string]ModelRate, defaultModel string) *Calculator {
	if _, ok := rates[defaultModel]; !ok {
		defaultModel = DefaultModel
	}
	return &Calculator{rates: rates, defaultModel: defaultModel}
}

// VenueQuery returns the USD cost of one venue-discovery call. Unlisted
// models are billed at the default model's rates.
func (c *Calculator) VenueQuery(model string, promptTokens, completionTokens int64) float64 {
	rate, ok := c.rates[model]
	if !ok {
		rate = c.rates[c.defaultModel]
	}
	inCost := (float64(promptTokens) / 1000) * rate.InputPer1K
	outCost := (float64(completionTokens) / 1000) * rate.OutputPer1K
	return inCost + outCost
}

// DefaultRates returns the built-in pricing table.
func DefaultRates() map[string]ModelRate {
	return map[string]ModelRate{
		"claude-haiku-4-5-20251001":  {InputPer1K: 0.0008, OutputPer1K: 0.004},
		"claude-sonnet-4-5-20250929": {InputPer1K: 0.003, OutputPer1K: 0.015},
		"claude-opus-4-6":            {InputPer1K: 0.015, OutputPer1K: 0.075},
	}
}
