package fallback

// #region imports
import (
	"context"
	"os"
	"strconv"
	"time"
)

// #endregion

// #region state

// State names a position in the escalation state machine.
type State string

const (
	StateLocal             State = "local"
	StateEscalate1         State = "escalate_1"
	StateEscalate2         State = "escalate_2"
	StateEscalate3         State = "escalate_3"
	StateTerminal          State = "terminal"
	StateTerminalUncertain State = "terminal_uncertain"
)

// #endregion

// #region source

// SourceResult is an external source's answer. Failures never propagate past
// the source boundary as anything other than an error return; the
// orchestrator records them and advances the chain.
type SourceResult struct {
	Text       string
	Confidence float64 // the source's own estimate, 0 when it has none
}

// Source is one escalation-chain entry.
type Source interface {
	ID() string
	Query(ctx context.Context, query string) (SourceResult, error)
}

// #endregion

// #region attempt-record

// AttemptRecord is the audit entry for one stage transition.
type AttemptRecord struct {
	Source        string
	Stage         int
	AttemptedAt   time.Time
	Success       bool
	Latency       time.Duration
	Confidence    float64
	FailureReason string
}

// #endregion

// #region candidate-outcome

// Candidate is the local answer entering the state machine.
type Candidate struct {
	Text          string
	Confidence    float64
	Deterministic bool // verified solver output, always trusted
}

// Outcome is the state machine's final result. Uncertain outcomes carry the
// local candidate and the full attempt chain for diagnostics.
type Outcome struct {
	Answer     string
	Source     string // "solver", "local", or a source id
	Confidence float64
	State      State
	Uncertain  bool
	Attempts   []AttemptRecord
}

// #endregion

// #region config

// Config tunes the escalation chain. Worst-case latency for one query is the
// local inference time plus StageTimeout per enabled source.
type Config struct {
	Enabled       bool
	StageTimeout  time.Duration
	WeightFloor   float64 // sources below this learned weight are skipped
	ReorderMargin float64 // lead the best source needs before jumping the chain
}

// DefaultConfig reads FALLBACK_ENABLED (kill switch) and STAGE_TIMEOUT
// (seconds) with sane fallbacks.
func DefaultConfig() Config {
	cfg := Config{
		Enabled:       true,
		StageTimeout:  12 * time.Second,
		WeightFloor:   0.15,
		ReorderMargin: 0.10,
	}
	if v := os.Getenv("FALLBACK_ENABLED"); v == "false" {
		cfg.Enabled = false
	}
	if v := os.Getenv("STAGE_TIMEOUT"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			cfg.StageTimeout = time.Duration(sec) * time.Second
		}
	}
	return cfg
}

// #endregion
