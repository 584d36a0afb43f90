// Package confidence scores candidate answers via string analysis. No model
// call: the score starts at 1.0 and loses bounded penalties for hedging,
// error indicators, quality defects, and degenerate text.
package confidence

// #region imports
import (
	"os"
	"strconv"
	"strings"
)

// #endregion

// #region hedging-patterns

var hedgingPatterns = []string{
	"i'm not sure", "i am not sure", "not sure", "i think", "i believe",
	"maybe", "perhaps", "possibly", "it depends", "hard to say",
	"i guess", "unclear", "can't be certain", "cannot be certain",
	"might be", "could be wrong",
}

// #endregion

// #region error-patterns

var errorPatterns = []string{
	"timed out", "timeout", "traceback", "stack trace", "panic:",
	"error:", "exception", "failed to", "unable to answer",
	"request failed", "something went wrong", "internal error",
}

// #endregion

// #region defect-patterns

var defectPatterns = []string{
	"todo", "fixme", "placeholder", "your code here", "fill in",
	"[insert", "<insert", "...\n```", "```\n```",
}

// #endregion

// #region config

// Config holds the scoring penalties and the escalation threshold. The
// threshold is configuration, not a constant buried in logic.
type Config struct {
	Threshold       float64 // escalation trigger: scores below this escalate
	HedgingPenalty  float64 // per hedge
	HedgingCap      float64
	ErrorPenalty    float64
	DefectPenalty   float64
	ShortPenalty    float64
	RepeatPenalty   float64
	MinWordsForFull int // answers shorter than this take the short penalty
}

// DefaultConfig returns the standard penalties. The threshold reads
// CONFIDENCE_THRESHOLD when set.
func DefaultConfig() Config {
	cfg := Config{
		Threshold:       0.60,
		HedgingPenalty:  0.05,
		HedgingCap:      0.20,
		ErrorPenalty:    0.30,
		DefectPenalty:   0.20,
		ShortPenalty:    0.40,
		RepeatPenalty:   0.25,
		MinWordsForFull: 5,
	}
	if v := os.Getenv("CONFIDENCE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			cfg.Threshold = f
		}
	}
	return cfg
}

// #endregion

// #region estimator

// Estimator scores candidate answers against a fixed config.
type Estimator struct {
	cfg Config
}

// NewEstimator creates an estimator with the given config.
func NewEstimator(cfg Config) *Estimator {
	return &Estimator{cfg: cfg}
}

// Threshold returns the configured escalation threshold.
func (e *Estimator) Threshold() float64 {
	return e.cfg.Threshold
}

// Score rates a candidate answer in [0,1]. Deterministic solver output is not
// scored here; verified closed-form answers carry a fixed confidence upstream.
func (e *Estimator) Score(candidate string) float64 {
	trimmed := strings.TrimSpace(candidate)
	lower := strings.ToLower(trimmed)
	score := 1.0

	// Hedging, capped so a cautious but correct answer is not destroyed.
	hedge := 0.0
	for _, p := range hedgingPatterns {
		if strings.Contains(lower, p) {
			hedge += e.cfg.HedgingPenalty
		}
	}
	if hedge > e.cfg.HedgingCap {
		hedge = e.cfg.HedgingCap
	}
	score -= hedge

	for _, p := range errorPatterns {
		if strings.Contains(lower, p) {
			score -= e.cfg.ErrorPenalty
			break
		}
	}

	for _, p := range defectPatterns {
		if strings.Contains(lower, p) {
			score -= e.cfg.DefectPenalty
			break
		}
	}

	words := strings.Fields(trimmed)
	if len(words) < e.cfg.MinWordsForFull {
		score -= e.cfg.ShortPenalty
	}
	if hasRepetition(lower) {
		score -= e.cfg.RepeatPenalty
	}

	return clamp01(score)
}

// #endregion

// #region repetition-check

// hasRepetition flags 3+ identical sentences.
func hasRepetition(lower string) bool {
	sentences := strings.FieldsFunc(lower, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	if len(sentences) < 3 {
		return false
	}
	counts := make(map[string]int)
	for _, s := range sentences {
		trimmed := strings.TrimSpace(s)
		if len(trimmed) > 10 {
			counts[trimmed]++
		}
	}
	for _, c := range counts {
		if c >= 3 {
			return true
		}
	}
	return false
}

// #endregion

// #region helpers

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// #endregion
