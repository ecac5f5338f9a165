// Package regime classifies token trend regimes from candle windows.
//
// A refresh computes multi-horizon returns, a weighted trend score and a raw
// classification. The raw classification passes through a hysteresis filter
// (Transition) before it becomes the confirmed regime callers act on.
package regime

import (
	"errors"
	"fmt"
	"math"
)

// Errors
var (
	ErrInvalidWeights = errors.New("regime weights must sum to 1.0")
	ErrInvalidConfig  = errors.New("invalid regime config")
)

const weightTolerance = 1e-6

// Weights are the score weights of the 24h, 48h and 72h returns.
type Weights struct {
	W24 float64 `yaml:"w24"`
	W48 float64 `yaml:"w48"`
	W72 float64 `yaml:"w72"`
}

// Validate checks weights are non-negative and sum to 1.0.
func (w Weights) Validate() error {
	if w.W24 < 0 || w.W48 < 0 || w.W72 < 0 {
		return fmt.Errorf("%w: negative weight (%g, %g, %g)", ErrInvalidWeights, w.W24, w.W48, w.W72)
	}
	if sum := w.W24 + w.W48 + w.W72; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("%w: got %g", ErrInvalidWeights, sum)
	}
	return nil
}

// Config holds classification thresholds and hysteresis settings.
type Config struct {
	Weights Weights `yaml:"weights"`

	UptrendScore   float64 `yaml:"uptrend_score"`    // score >= this
	UptrendRet24   float64 `yaml:"uptrend_ret24"`    // and ret24h >= this
	DowntrendScore float64 `yaml:"downtrend_score"`  // score <= this
	DowntrendRet24 float64 `yaml:"downtrend_ret24"`  // and ret24h <= this
	Buffer         float64 `yaml:"buffer"`           // noise band around both score thresholds
	ConfirmCycles  int     `yaml:"confirm_cycles"`   // consecutive agreeing cycles before confirming
	MinCoverageHrs float64 `yaml:"min_coverage_hrs"` // below this the regime is sideways
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		Weights:        Weights{W24: 0.5, W48: 0.3, W72: 0.2},
		UptrendScore:   8,
		UptrendRet24:   3,
		DowntrendScore: -6,
		DowntrendRet24: -2,
		Buffer:         1,
		ConfirmCycles:  2,
		MinCoverageHrs: 24,
	}
}

// Validate checks the config.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.DowntrendScore >= c.UptrendScore {
		return fmt.Errorf("%w: downtrend_score %g must be below uptrend_score %g",
			ErrInvalidConfig, c.DowntrendScore, c.UptrendScore)
	}
	if c.Buffer < 0 {
		return fmt.Errorf("%w: buffer must be >= 0", ErrInvalidConfig)
	}
	if c.ConfirmCycles < 1 {
		return fmt.Errorf("%w: confirm_cycles must be >= 1", ErrInvalidConfig)
	}
	if c.MinCoverageHrs < 0 {
		return fmt.Errorf("%w: min_coverage_hrs must be >= 0", ErrInvalidConfig)
	}
	return nil
}
