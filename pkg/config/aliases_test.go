package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGateway(t *testing.T) {
	aliases := &ModelAliases{
		Aliases: map[string]string{"fast": "gpt-4o-mini"},
		Providers: map[string][]string{
			"openai":    {"gpt-4o-mini"},
			"anthropic": {"claude-sonnet-4-20250514"},
		},
	}

	tests := []struct {
		name      string
		gateway   GatewayConfig
		wantError string
	}{
		{name: "alias", gateway: GatewayConfig{Adapter: "openai", Model: "fast"}},
		{name: "canonical", gateway: GatewayConfig{Adapter: "anthropic", Model: "claude-sonnet-4-20250514"}},
		{name: "unknown model", gateway: GatewayConfig{Adapter: "openai", Model: "nonexistent-model"}, wantError: `model "nonexistent-model" not in openai provider list`},
		{name: "unknown adapter", gateway: GatewayConfig{Adapter: "azure", Model: "fast"}, wantError: `unknown adapter "azure"`},
		{name: "chat endpoint accepts anything", gateway: GatewayConfig{Adapter: "chat", Model: "local-llama"}},
		{name: "mock accepts anything", gateway: GatewayConfig{Adapter: "mock", Model: "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := aliases.ValidateGateway(tt.gateway)
			if tt.wantError == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.wantError)
		})
	}

	var none *ModelAliases
	assert.NoError(t, none.ValidateGateway(GatewayConfig{Adapter: "openai", Model: "anything"}))
}

func TestDefaultAliasesAcceptDefaultGateway(t *testing.T) {
	aliases := DefaultAliases()
	cfg := Default()
	assert.NoError(t, aliases.ValidateGateway(cfg.Gateway))
	for alias, model := range aliases.ListAliases() {
		assert.NotEmpty(t, aliases.GetProviderForModel(model), alias)
	}
}

func TestLoadAliasesWithFallback(t *testing.T) {
	home := t.TempDir()
	setHomeEnv(t, home)

	fallback := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(fallback, []byte("aliases:\n  test-alias: test-model\n"), 0o644))

	aliases, err := LoadAliasesWithFallback(fallback)
	require.NoError(t, err)
	assert.Equal(t, "test-model", aliases.Resolve("test-alias"))

	userDir := filepath.Join(home, ".solvegate")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	user := "aliases:\n  test-alias: user-model\nproviders:\n  openai:\n    - user-model\n"
	require.NoError(t, os.WriteFile(filepath.Join(userDir, "models.yaml"), []byte(user), 0o644))

	aliases, err = LoadAliasesWithFallback(fallback)
	require.NoError(t, err)
	assert.Equal(t, "user-model", aliases.Resolve("test-alias"))
	assert.Equal(t, "openai", aliases.GetProviderForModel("user-model"))
}

func TestLoadAliasesWithFallbackNoFile(t *testing.T) {
	setHomeEnv(t, t.TempDir())

	aliases, err := LoadAliasesWithFallback("/nonexistent/path/models.yaml")
	require.NoError(t, err)
	assert.Equal(t, "any", aliases.Resolve("any"))
	assert.Empty(t, aliases.ListProviders())
}

func TestAliasListings(t *testing.T) {
	aliases := &ModelAliases{
		Aliases: map[string]string{"fast": "gpt-4o-mini"},
		Providers: map[string][]string{
			"openai":    {"gpt-4o-mini"},
			"anthropic": {"claude-sonnet-4-20250514"},
		},
	}

	list := aliases.ListAliases()
	list["new"] = "value"
	assert.NotContains(t, aliases.Aliases, "new")

	assert.Equal(t, []string{"anthropic", "openai"}, aliases.ListProviders())
	assert.Equal(t, []string{"gpt-4o-mini"}, aliases.GetProviderModels("openai"))
	assert.Empty(t, aliases.GetProviderForModel("unknown-model"))
}
