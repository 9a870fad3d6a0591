// Package enrichment extracts semantic signal from profiles and writes match
// rationale through a language model. Model failures never reach callers of
// ExtractIntent; they degrade to a deterministic analysis.
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/strategic-matchmaker/internal/llm"
	"github.com/jonathan/strategic-matchmaker/internal/metrics"
	"github.com/jonathan/strategic-matchmaker/internal/observability"
	"github.com/jonathan/strategic-matchmaker/internal/prompts"
	"github.com/jonathan/strategic-matchmaker/internal/schemas"
	"github.com/jonathan/strategic-matchmaker/internal/scoring"
	"github.com/jonathan/strategic-matchmaker/internal/types"
)

// DefaultCallTimeout bounds every model call.
const DefaultCallTimeout = 20 * time.Second

const logPreviewLimit = 200

// Content tag bounds for a model analysis; the schema enforces the same range on the raw reply.
const (
	minContentTags = 5
	maxContentTags = 8
)

// ErrEmptySummary is returned when the model answers with no text.
var ErrEmptySummary = errors.New("model returned an empty summary")

// Enricher produces semantic analyses and match rationale.
type Enricher interface {
	// ExtractIntent returns the semantic analysis of a profile. Model failures
	// yield FallbackAnalysis and a nil error.
	ExtractIntent(ctx context.Context, profile *types.Profile) (*types.ProfileAnalysis, error)
	// SummarizeMatch writes a short rationale for why requester and candidate should meet.
	// Callers substitute FallbackRationale on error.
	SummarizeMatch(ctx context.Context, requester, candidate *types.Profile, scores scoring.Scores) (string, error)
}

// Config holds the enrichment settings.
type Config struct {
	Timeout     time.Duration
	ExtractTier llm.ModelTier
	SummaryTier llm.ModelTier
}

// DefaultConfig returns the default enrichment settings.
func DefaultConfig() Config {
	return Config{
		Timeout:     DefaultCallTimeout,
		ExtractTier: llm.TierLite,
		SummaryTier: llm.TierStandard,
	}
}

// Client implements Enricher on top of an llm.Client.
type Client struct {
	llm     llm.Client
	config  Config
	logger  *zap.Logger
	metrics *metrics.Manager
	now     func() time.Time
}

// NewClient creates an enrichment client. Zero-valued config fields take their defaults.
func NewClient(client llm.Client, config Config, logger *zap.Logger, m *metrics.Manager) *Client {
	defaults := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.ExtractTier == "" {
		config.ExtractTier = defaults.ExtractTier
	}
	if config.SummaryTier == "" {
		config.SummaryTier = defaults.SummaryTier
	}

	return &Client{
		llm:     client,
		config:  config,
		logger:  observability.OrNop(logger),
		metrics: m,
		now:     time.Now,
	}
}

// extractionResponse mirrors the profile_analysis schema.
type extractionResponse struct {
	IntentVector           types.IntentVector `json:"intent_vector"`
	ContentTags            []string           `json:"content_tags"`
	PowerMap               types.PowerMap     `json:"power_map"`
	TrendAlignment         string             `json:"trend_alignment"`
	ExecutionCompatibility string             `json:"execution_compatibility"`
}

// ExtractIntent asks the model for a structured analysis of profile.
func (c *Client) ExtractIntent(ctx context.Context, profile *types.Profile) (*types.ProfileAnalysis, error) {
	start := time.Now()
	logger := c.logger.With(zap.String(observability.FieldRequesterID, profile.UserID.String()))

	analysis, err := c.extract(ctx, profile)
	if err != nil {
		logger.Warn("intent extraction failed, using fallback analysis", zap.Error(err))
		c.metrics.RecordEnrichment(metrics.OperationExtract, metrics.ResultFallback, time.Since(start))

		fallback := FallbackAnalysis(profile)
		fallback.AnalyzedAt = c.now().UTC()
		return fallback, nil
	}

	logger.Debug("intent extracted",
		zap.String(observability.FieldModel, c.llm.GetModel(c.config.ExtractTier)),
		zap.Int("content_tags", len(analysis.ContentTags)),
	)
	c.metrics.RecordEnrichment(metrics.OperationExtract, metrics.ResultOK, time.Since(start))
	return analysis, nil
}

func (c *Client) extract(ctx context.Context, profile *types.Profile) (*types.ProfileAnalysis, error) {
	system, err := prompts.Get(prompts.Matching, prompts.KeyExtractIntentSystem)
	if err != nil {
		return nil, err
	}

	text := profile.Text()
	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	raw, err := c.llm.GenerateJSON(callCtx, system, text, c.config.ExtractTier)
	if err != nil {
		return nil, fmt.Errorf("generate analysis: %w", err)
	}

	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.ProfileAnalysis, cleaned); err != nil {
		return nil, fmt.Errorf("invalid analysis %q: %w", observability.TruncateForLog(cleaned, logPreviewLimit), err)
	}

	var resp extractionResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}

	tags := normalizeTags(resp.ContentTags)
	if len(tags) < minContentTags {
		return nil, fmt.Errorf("analysis has %d distinct content tags, want at least %d", len(tags), minContentTags)
	}
	tags = tags[:min(len(tags), maxContentTags)]

	return &types.ProfileAnalysis{
		UserID:                 profile.UserID,
		IntentVector:           resp.IntentVector,
		ContentTags:            tags,
		PowerMap:               resp.PowerMap,
		TrendAlignment:         strings.TrimSpace(resp.TrendAlignment),
		ExecutionCompatibility: strings.TrimSpace(resp.ExecutionCompatibility),
		EmbeddingText:          text,
		Source:                 types.AnalysisSourceModel,
		AnalyzedAt:             c.now().UTC(),
	}, nil
}

// SummarizeMatch asks the model for a 2-3 sentence rationale.
func (c *Client) SummarizeMatch(ctx context.Context, requester, candidate *types.Profile, scores scoring.Scores) (string, error) {
	start := time.Now()

	summary, err := c.summarize(ctx, requester, candidate, scores)
	if err != nil {
		c.logger.Warn("match summary failed",
			zap.String(observability.FieldRequesterID, requester.UserID.String()),
			zap.String(observability.FieldCandidateID, candidate.UserID.String()),
			zap.Error(err),
		)
		c.metrics.RecordEnrichment(metrics.OperationSummarize, metrics.ResultFallback, time.Since(start))
		return "", err
	}

	c.metrics.RecordEnrichment(metrics.OperationSummarize, metrics.ResultOK, time.Since(start))
	return summary, nil
}

func (c *Client) summarize(ctx context.Context, requester, candidate *types.Profile, scores scoring.Scores) (string, error) {
	system, err := prompts.Get(prompts.Matching, prompts.KeySummarizeMatchSystem)
	if err != nil {
		return "", err
	}
	template, err := prompts.Get(prompts.Matching, prompts.KeySummarizeMatchUser)
	if err != nil {
		return "", err
	}

	user := prompts.Format(template, map[string]string{
		"ProfileA":           requester.Text(),
		"ProfileB":           candidate.Text(),
		"StrategicAlignment": fmt.Sprintf("%.1f", scores.StrategicAlignment),
		"MeetingValue":       fmt.Sprintf("%.1f", scores.MeetingValue),
		"Complementarity":    fmt.Sprintf("%.1f", scores.Complementarity),
	})

	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	summary, err := c.llm.GenerateContent(callCtx, system, user, c.config.SummaryTier)
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", ErrEmptySummary
	}
	return summary, nil
}

// normalizeTags trims tags and drops blanks and case-insensitive duplicates, keeping order.
func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
