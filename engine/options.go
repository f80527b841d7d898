package engine

import "log/slog"

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger       *slog.Logger
	AnomalySigma float64    // deviation multiple for the anomaly rules
	InsightLimit int        // never above MaxInsights
	BubbleJoin   BubbleJoin // state join used by the bubble chart
}

// WithLogger routes engine debug logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithAnomalySigma overrides DefaultAnomalySigma for the anomaly rules.
// Non-positive values are ignored.
func WithAnomalySigma(sigma float64) Option {
	return func(c *config) {
		if sigma > 0 {
			c.AnomalySigma = sigma
		}
	}
}

// WithInsightLimit caps the number of insight cards below MaxInsights.
// Values outside 1..MaxInsights are ignored.
func WithInsightLimit(limit int) Option {
	return func(c *config) {
		if limit > 0 && limit <= MaxInsights {
			c.InsightLimit = limit
		}
	}
}

// WithBubbleJoin selects first-match or summed joins for the bubble chart.
func WithBubbleJoin(join BubbleJoin) Option {
	return func(c *config) {
		c.BubbleJoin = join
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{
		Logger:       slog.Default(),
		AnomalySigma: DefaultAnomalySigma,
		InsightLimit: MaxInsights,
		BubbleJoin:   JoinFirst,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
