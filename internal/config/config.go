// Package config loads the matchmaker configuration from defaults, an optional
// YAML or JSON file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonathan/strategic-matchmaker/internal/analysis"
	"github.com/jonathan/strategic-matchmaker/internal/enrichment"
	"github.com/jonathan/strategic-matchmaker/internal/llm"
	"github.com/jonathan/strategic-matchmaker/internal/matching"
	"github.com/jonathan/strategic-matchmaker/internal/scoring"
)

// EnvPrefix prefixes every environment override, e.g. MATCHMAKER_SERVER_ADDR.
const EnvPrefix = "MATCHMAKER"

// Config is the complete runtime configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Auth     JWTConfig      `mapstructure:"auth"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Matching MatchingConfig `mapstructure:"matching"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr            string          `mapstructure:"addr"`
	ReadTimeout     time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string        `mapstructure:"cors_origins"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig sets per-client token buckets. The match bucket applies to
// POST /v1/matches on top of the general one.
type RateLimitConfig struct {
	RequestsPerMinute      int `mapstructure:"requests_per_minute"`
	Burst                  int `mapstructure:"burst"`
	MatchRequestsPerMinute int `mapstructure:"match_requests_per_minute"`
	MatchBurst             int `mapstructure:"match_burst"`
}

// DatabaseConfig configures PostgreSQL. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
	Migrate  bool   `mapstructure:"migrate"`
}

// LLMConfig configures the semantic enrichment provider.
type LLMConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Provider    string        `mapstructure:"provider"`
	APIKey      string        `mapstructure:"api_key"`
	APIKeyFile  string        `mapstructure:"api_key_file"`
	BaseURL     string        `mapstructure:"base_url"`
	Models      ModelsConfig  `mapstructure:"models"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	CallTimeout time.Duration `mapstructure:"call_timeout"`
	ExtractTier string        `mapstructure:"extract_tier"`
	SummaryTier string        `mapstructure:"summary_tier"`
}

// ModelsConfig overrides the provider's model per tier. Empty keeps the default.
type ModelsConfig struct {
	Lite     string `mapstructure:"lite"`
	Standard string `mapstructure:"standard"`
	Advanced string `mapstructure:"advanced"`
}

// AnalysisConfig controls the analysis cache policy.
type AnalysisConfig struct {
	MaxAge   time.Duration `mapstructure:"max_age"`
	LocalTTL time.Duration `mapstructure:"local_ttl"`
}

// MatchingConfig tunes the orchestrator and the complementarity table.
type MatchingConfig struct {
	matching.Options `mapstructure:",squash"`
	Complementarity  scoring.LeverageTable `mapstructure:"complementarity"`
}

// LogConfig selects the log encoding and level.
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// SetDefaults registers every key with its default value so environment
// overrides are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.rate_limit.requests_per_minute", 120)
	v.SetDefault("server.rate_limit.burst", 30)
	v.SetDefault("server.rate_limit.match_requests_per_minute", 6)
	v.SetDefault("server.rate_limit.match_burst", 2)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 0)
	v.SetDefault("database.min_conns", 0)
	v.SetDefault("database.migrate", false)

	gemini := llm.DefaultGeminiConfig()
	enrich := enrichment.DefaultConfig()
	v.SetDefault("llm.enabled", true)
	v.SetDefault("llm.provider", string(llm.ProviderGemini))
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.api_key_file", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.models.lite", "")
	v.SetDefault("llm.models.standard", "")
	v.SetDefault("llm.models.advanced", "")
	v.SetDefault("llm.temperature", gemini.Temperature)
	v.SetDefault("llm.timeout", gemini.Timeout)
	v.SetDefault("llm.max_retries", gemini.MaxRetries)
	v.SetDefault("llm.call_timeout", enrich.Timeout)
	v.SetDefault("llm.extract_tier", string(enrich.ExtractTier))
	v.SetDefault("llm.summary_tier", string(enrich.SummaryTier))

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.secret_file", "")
	v.SetDefault("auth.expiration_hours", defaultExpirationHours)
	v.SetDefault("auth.issuer", "")

	v.SetDefault("analysis.max_age", time.Duration(0))
	v.SetDefault("analysis.local_ttl", analysis.DefaultLocalTTL)

	opts := matching.DefaultOptions()
	v.SetDefault("matching.top_n", opts.TopN)
	v.SetDefault("matching.summarize_top_n", opts.SummarizeTopN)
	v.SetDefault("matching.relevance_floor", opts.RelevanceFloor)
	v.SetDefault("matching.content_bonus_weight", opts.ContentBonusWeight)
	v.SetDefault("matching.summary_concurrency", opts.SummaryConcurrency)
	v.SetDefault("matching.scoring_workers", opts.ScoringWorkers)
	v.SetDefault("matching.weights.strategic_alignment", opts.Weights.StrategicAlignment)
	v.SetDefault("matching.weights.meeting_value", opts.Weights.MeetingValue)
	v.SetDefault("matching.weights.complementarity", opts.Weights.Complementarity)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
}

// BindEnv wires MATCHMAKER_* overrides plus the conventional unprefixed
// variables for secrets and the database.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string][]string{
		"database.url":     {EnvPrefix + "_DATABASE_URL", "DATABASE_URL"},
		"auth.secret":      {EnvPrefix + "_AUTH_SECRET", "JWT_SECRET"},
		"auth.secret_file": {EnvPrefix + "_AUTH_SECRET_FILE", "JWT_SECRET_FILE"},
		"llm.api_key":      {EnvPrefix + "_LLM_API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment apply.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if len(cfg.Matching.Complementarity) == 0 {
		cfg.Matching.Complementarity = scoring.DefaultLeverageTable()
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolveSecrets() error {
	if c.LLM.APIKeyFile != "" {
		key, err := loadSecret("llm api key", c.LLM.APIKey, c.LLM.APIKeyFile)
		if err != nil {
			return err
		}
		c.LLM.APIKey = key
	}
	if c.Auth.SecretFile != "" {
		secret, err := loadSecret("jwt secret", c.Auth.Secret, c.Auth.SecretFile)
		if err != nil {
			return err
		}
		c.Auth.Secret = secret
	}
	return nil
}

// Validate checks the configuration. The JWT secret is required only when
// requireAuth is set, so offline commands can run without one.
func (c *Config) Validate(requireAuth bool) error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	rl := c.Server.RateLimit
	if rl.RequestsPerMinute < 0 || rl.Burst < 0 || rl.MatchRequestsPerMinute < 0 || rl.MatchBurst < 0 {
		errs = append(errs, errors.New("server.rate_limit values must be non-negative"))
	}
	if c.Database.MinConns > c.Database.MaxConns && c.Database.MaxConns > 0 {
		errs = append(errs, errors.New("database.min_conns must not exceed database.max_conns"))
	}

	if c.LLM.Enabled {
		switch llm.Provider(c.LLM.Provider) {
		case llm.ProviderGemini, llm.ProviderOpenAI:
		default:
			errs = append(errs, fmt.Errorf("llm.provider %q is not supported", c.LLM.Provider))
		}
		for _, tier := range []string{c.LLM.ExtractTier, c.LLM.SummaryTier} {
			if !validTier(tier) {
				errs = append(errs, fmt.Errorf("llm tier %q is not one of lite, standard, advanced", tier))
			}
		}
		if c.LLM.MaxRetries < 0 {
			errs = append(errs, errors.New("llm.max_retries must be non-negative"))
		}
	}

	if requireAuth {
		if err := c.Auth.normalize(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.Analysis.MaxAge < 0 || c.Analysis.LocalTTL < 0 {
		errs = append(errs, errors.New("analysis durations must be non-negative"))
	}
	if err := c.Matching.Options.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("matching: %w", err))
	}
	if err := c.Matching.Complementarity.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LLMClientConfig converts the provider settings into an llm.Config.
func (c *Config) LLMClientConfig() *llm.Config {
	base := llm.DefaultGeminiConfig()
	if llm.Provider(c.LLM.Provider) == llm.ProviderOpenAI {
		base = llm.DefaultOpenAIConfig()
	}
	if c.LLM.BaseURL != "" {
		base.BaseURL = c.LLM.BaseURL
	}
	overrides := map[llm.ModelTier]string{
		llm.TierLite:     c.LLM.Models.Lite,
		llm.TierStandard: c.LLM.Models.Standard,
		llm.TierAdvanced: c.LLM.Models.Advanced,
	}
	for tier, model := range overrides {
		if model != "" {
			base = base.WithModel(tier, model)
		}
	}
	base.Temperature = c.LLM.Temperature
	base.Timeout = c.LLM.Timeout
	base.MaxRetries = c.LLM.MaxRetries
	return base
}

// EnrichmentConfig returns the per-call enrichment settings.
func (c *Config) EnrichmentConfig() enrichment.Config {
	return enrichment.Config{
		Timeout:     c.LLM.CallTimeout,
		ExtractTier: llm.ModelTier(c.LLM.ExtractTier),
		SummaryTier: llm.ModelTier(c.LLM.SummaryTier),
	}
}

// AnalysisPolicy returns the cache policy.
func (c *Config) AnalysisPolicy() analysis.Policy {
	return analysis.Policy{MaxAge: c.Analysis.MaxAge, LocalTTL: c.Analysis.LocalTTL}
}

func validTier(tier string) bool {
	switch llm.ModelTier(tier) {
	case llm.TierLite, llm.TierStandard, llm.TierAdvanced:
		return true
	}
	return false
}
