package models

// Thresholds configures the four data-quality rules the classifier runs
// at the schema-preview step. Zero value disables everything; use
// DefaultThresholds for the platform defaults.
type Thresholds struct {
	NullRatio      NullRatioRule   `json:"nullRatio" yaml:"nullRatio"`
	Cardinality    CardinalityRule `json:"cardinality" yaml:"cardinality"`
	TypeCoercion   ToggleRule      `json:"typeCoercion" yaml:"typeCoercion"`
	RequiredFields ToggleRule      `json:"requiredFields" yaml:"requiredFields"`
}

// NullRatioRule flags columns whose null percentage crosses the
// warning or error threshold (percent, 0-100).
type NullRatioRule struct {
	Enabled          bool    `json:"enabled" yaml:"enabled"`
	WarningThreshold float64 `json:"warningThreshold" yaml:"warningThreshold"`
	ErrorThreshold   float64 `json:"errorThreshold" yaml:"errorThreshold"`
}

// CardinalityRule flags transforms whose output row count exceeds
// input rows times the multiplier.
type CardinalityRule struct {
	Enabled             bool    `json:"enabled" yaml:"enabled"`
	MultiplierThreshold float64 `json:"multiplierThreshold" yaml:"multiplierThreshold"`
}

// ToggleRule is an on/off rule with no numeric knobs.
type ToggleRule struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// DefaultThresholds returns the platform defaults: warn at 5% nulls,
// block at 20%, warn past a 10x row explosion, coercion and required-field
// checks on.
func DefaultThresholds() Thresholds {
	return Thresholds{
		NullRatio: NullRatioRule{
			Enabled:          true,
			WarningThreshold: 5,
			ErrorThreshold:   20,
		},
		Cardinality: CardinalityRule{
			Enabled:             true,
			MultiplierThreshold: 10,
		},
		TypeCoercion:   ToggleRule{Enabled: true},
		RequiredFields: ToggleRule{Enabled: true},
	}
}
