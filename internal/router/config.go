package router

// Config holds the complexity router weights and thresholds.
type Config struct {
	// Score at or above which a capture gets the enrichment pass.
	Threshold float64 `yaml:"threshold"` // default: 0.4

	// Length signal
	LengthThreshold int     `yaml:"length_threshold"` // default: 120 characters
	LengthWeight    float64 `yaml:"length_weight"`    // default: 0.4

	// Date expression signal (distinct day-level expressions)
	MinDateExpressions int     `yaml:"min_date_expressions"` // default: 2
	DateWeight         float64 `yaml:"date_weight"`          // default: 0.4

	// Clause separator signal
	MinSeparators   int     `yaml:"min_separators"`   // default: 2
	SeparatorWeight float64 `yaml:"separator_weight"` // default: 0.3

	// Action verb next to an event keyword. At the threshold, so ambiguity alone enriches.
	AmbiguityWeight float64 `yaml:"ambiguity_weight"` // default: 0.4

	// Large project/tag/member context
	RichContextSize   int     `yaml:"rich_context_size"`   // default: 40
	RichContextWeight float64 `yaml:"rich_context_weight"` // default: 0.2

	// Force every capture to one route ("fast" or "fast+enrich"). Empty means heuristic.
	ForceRoute string `yaml:"force_route"`
}

// DefaultConfig returns the default router configuration.
func DefaultConfig() *Config {
	return &Config{
		Threshold:          0.4,
		LengthThreshold:    120,
		LengthWeight:       0.4,
		MinDateExpressions: 2,
		DateWeight:         0.4,
		MinSeparators:      2,
		SeparatorWeight:    0.3,
		AmbiguityWeight:    0.4,
		RichContextSize:    40,
		RichContextWeight:  0.2,
	}
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Threshold == 0 {
		c.Threshold = d.Threshold
	}
	if c.LengthThreshold == 0 {
		c.LengthThreshold = d.LengthThreshold
	}
	if c.LengthWeight == 0 {
		c.LengthWeight = d.LengthWeight
	}
	if c.MinDateExpressions == 0 {
		c.MinDateExpressions = d.MinDateExpressions
	}
	if c.DateWeight == 0 {
		c.DateWeight = d.DateWeight
	}
	if c.MinSeparators == 0 {
		c.MinSeparators = d.MinSeparators
	}
	if c.SeparatorWeight == 0 {
		c.SeparatorWeight = d.SeparatorWeight
	}
	if c.AmbiguityWeight == 0 {
		c.AmbiguityWeight = d.AmbiguityWeight
	}
	if c.RichContextSize == 0 {
		c.RichContextSize = d.RichContextSize
	}
	if c.RichContextWeight == 0 {
		c.RichContextWeight = d.RichContextWeight
	}
}
