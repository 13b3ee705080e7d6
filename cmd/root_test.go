package main

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/summit-group/dining-cli/internal/config"
	"github.com/summit-group/dining-cli/internal/cost"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"enrich", "status", "import", "export", "serve"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "dining-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestEnrichCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"resort", "region", "limit", "dry-run"} {
		flag := enrichCmd.Flags().Lookup(flagName)
		assert.NotNil(t, flag, "enrich should have --%s flag", flagName)
	}
}

func TestImportCommand_Flags(t *testing.T) {
	flag := importCmd.Flags().Lookup("file")
	require.NotNil(t, flag, "import command should have --file flag")
	assert.Equal(t, "resorts.yaml", flag.DefValue)
}

func TestExportCommand_Flags(t *testing.T) {
	flag := exportCmd.Flags().Lookup("out")
	require.NotNil(t, flag, "export command should have --out flag")
	assert.Equal(t, "venues.xlsx", flag.DefValue)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestCalculatorPricesUnlistedConfiguredModel(t *testing.T) {
	orig := cfg
	cfg = &config.Config{Anthropic: config.AnthropicConfig{Model: "claude-custom-finetune"}}
	t.Cleanup(func() { cfg = orig })

	// A configured model with no rate entry must bill at the default
	// model's rates, never at zero.
	calc := newCalculator()
	got := calc.VenueQuery(cfg.Anthropic.Model, 1000, 1000)
	want := calc.VenueQuery(cost.DefaultModel, 1000, 1000)
	assert.InDelta(t, want, got, 0.000001)
	assert.Greater(t, got, 0.0)
}

func TestCalculatorUsesPricingOverrides(t *testing.T) {
	orig := cfg
	cfg = &config.Config{
		Pricing: config.PricingConfig{
			Anthropic: map[string]config.ModelPricing{
				"claude-custom-finetune": {Input: 0.001, Output: 0.002},
			},
		},
	}
	t.Cleanup(func() { cfg = orig })

	calc := newCalculator()
	assert.InDelta(t, 0.003, calc.VenueQuery("claude-custom-finetune", 1000, 1000), 0.000001)
}

func TestNewEnricherPerRun(t *testing.T) {
	deps := &pipelineDeps{}
	assert.NotSame(t, deps.newEnricher(), deps.newEnricher())
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, 202, map[string]string{"status": "accepted"})

	assert.Equal(t, 202, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "accepted", body["status"])
}
