package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/strategic-matchmaker/internal/llm"
	"github.com/jonathan/strategic-matchmaker/internal/matching"
	"github.com/jonathan/strategic-matchmaker/internal/scoring"
)

const testSecret = "0123456789abcdef-test"

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"DATABASE_URL", "JWT_SECRET", "JWT_SECRET_FILE", "GEMINI_API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 6, cfg.Server.RateLimit.MatchRequestsPerMinute)
	assert.Empty(t, cfg.Database.URL)
	assert.True(t, cfg.LLM.Enabled)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "lite", cfg.LLM.ExtractTier)
	assert.Equal(t, 24, cfg.Auth.ExpirationHours)
	assert.Equal(t, time.Duration(0), cfg.Analysis.MaxAge)

	defaults := matching.DefaultOptions()
	assert.Equal(t, defaults.TopN, cfg.Matching.TopN)
	assert.Equal(t, defaults.SummarizeTopN, cfg.Matching.SummarizeTopN)
	assert.Equal(t, defaults.Weights, cfg.Matching.Weights)
	assert.Equal(t, scoring.DefaultLeverageTable(), cfg.Matching.Complementarity)

	assert.NoError(t, cfg.Validate(false))
	assert.ErrorContains(t, cfg.Validate(true), "JWT_SECRET is required")
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "matchmaker.yaml", `
server:
  addr: ":9000"
  rate_limit:
    match_requests_per_minute: 3
llm:
  provider: openai
  base_url: http://gateway.local/v1
  models:
    standard: my-model
matching:
  top_n: 5
  summarize_top_n: 3
  weights:
    strategic_alignment: 0.5
    meeting_value: 0.25
    complementarity: 0.25
  complementarity:
    - sought_type: Co-investor
      required_leverage: Deployable financial capital
analysis:
  max_age: 72h
auth:
  secret: `+testSecret+`
`)

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.Server.RateLimit.MatchRequestsPerMinute)
	assert.Equal(t, 30, cfg.Server.RateLimit.Burst)
	assert.Equal(t, 5, cfg.Matching.TopN)
	assert.Equal(t, 3, cfg.Matching.SummarizeTopN)
	assert.Equal(t, 0.5, cfg.Matching.Weights.StrategicAlignment)
	assert.Equal(t, scoring.LeverageTable{{SoughtType: "Co-investor", RequiredLeverage: "Deployable financial capital"}},
		cfg.Matching.Complementarity)
	assert.Equal(t, 72*time.Hour, cfg.AnalysisPolicy().MaxAge)
	require.NoError(t, cfg.Validate(true))

	client := cfg.LLMClientConfig()
	assert.Equal(t, llm.ProviderOpenAI, client.Provider)
	assert.Equal(t, "http://gateway.local/v1", client.BaseURL)
	assert.Equal(t, "my-model", client.GetModel(llm.TierStandard))
	assert.Equal(t, "gpt-4o-mini", client.GetModel(llm.TierLite))
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorContains(t, err, "reading config file")
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MATCHMAKER_SERVER_ADDR", ":7000")
	t.Setenv("MATCHMAKER_MATCHING_TOP_N", "7")
	t.Setenv("MATCHMAKER_LLM_ENABLED", "false")
	t.Setenv("DATABASE_URL", "postgres://localhost/matchmaker")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, 7, cfg.Matching.TopN)
	assert.False(t, cfg.LLM.Enabled)
	assert.Equal(t, "postgres://localhost/matchmaker", cfg.Database.URL)
	assert.Equal(t, testSecret, cfg.Auth.Secret)
	assert.Equal(t, "gemini-key", cfg.LLM.APIKey)
}

func TestLoad_SecretFiles(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "inline-secret-ignored")
	t.Setenv("JWT_SECRET_FILE", writeFile(t, "jwt", "  "+testSecret+"\n"))
	t.Setenv("MATCHMAKER_LLM_API_KEY_FILE", writeFile(t, "key", "file-key\n"))

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, testSecret, cfg.Auth.Secret)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)

	t.Setenv("MATCHMAKER_LLM_API_KEY_FILE", writeFile(t, "empty", "\n"))
	_, err = Load(viper.New(), "")
	assert.ErrorContains(t, err, "is empty")
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr is required"},
		{"negative rate", func(c *Config) { c.Server.RateLimit.Burst = -1 }, "rate_limit"},
		{"bad provider", func(c *Config) { c.LLM.Provider = "anthropic" }, "not supported"},
		{"bad provider ignored when disabled", func(c *Config) {
			c.LLM.Enabled = false
			c.LLM.Provider = "anthropic"
		}, ""},
		{"bad tier", func(c *Config) { c.LLM.SummaryTier = "huge" }, "llm tier"},
		{"short secret", func(c *Config) { c.Auth.Secret = "short" }, "at least 16"},
		{"zero expiration", func(c *Config) { c.Auth.ExpirationHours = 0 }, "expiration_hours"},
		{"summaries beyond top n", func(c *Config) { c.Matching.SummarizeTopN = c.Matching.TopN + 1 }, "matching"},
		{"blank rule", func(c *Config) {
			c.Matching.Complementarity = scoring.LeverageTable{{SoughtType: "x"}}
		}, "complementarity rule 0"},
		{"conn bounds", func(c *Config) {
			c.Database.MaxConns = 2
			c.Database.MinConns = 4
		}, "min_conns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(viper.New(), "")
			require.NoError(t, err)
			cfg.Auth.Secret = testSecret
			tt.mutate(cfg)

			err = cfg.Validate(true)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestEnrichmentConfig(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	enrich := cfg.EnrichmentConfig()
	assert.Equal(t, llm.TierLite, enrich.ExtractTier)
	assert.Equal(t, llm.TierStandard, enrich.SummaryTier)
	assert.Equal(t, 20*time.Second, enrich.Timeout)
}

func TestJWTConfig_Expiration(t *testing.T) {
	cfg := JWTConfig{Secret: testSecret, ExpirationHours: 2}
	assert.Equal(t, 2*time.Hour, cfg.Expiration())
	assert.NoError(t, cfg.normalize())
}

func TestLoadSecret(t *testing.T) {
	secret, err := loadSecret("token", "  inline ", "")
	require.NoError(t, err)
	assert.Equal(t, "inline", secret)

	_, err = loadSecret("token", "", "")
	assert.EqualError(t, err, "token is not configured")

	_, err = loadSecret("token", "", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorContains(t, err, "reading token from file")
}
