// Package fallback implements the escalation state machine: LOCAL through up
// to three external stages, consulting learned source weights, bounding each
// stage with its own timeout, and recording every transition for audit.
package fallback

// #region imports
import (
	"context"
	"log"
	"time"

	"github.com/kibbyd/reason-pilot/internal/confidence"
	"github.com/kibbyd/reason-pilot/internal/weights"
)

// #endregion

// #region orchestrator

// Orchestrator escalates a query across external sources when local
// confidence is insufficient. Stages run strictly sequentially; the chain
// stops at the first acceptable success.
type Orchestrator struct {
	cfg     Config
	scorer  *confidence.Estimator
	weights *weights.Store
	sources []Source
}

// NewOrchestrator wires the chain. Sources are consulted in slice order
// unless the weight store has learned a clearly better lead for the bucket.
func NewOrchestrator(cfg Config, scorer *confidence.Estimator, w *weights.Store, sources []Source) *Orchestrator {
	return &Orchestrator{cfg: cfg, scorer: scorer, weights: w, sources: sources}
}

// #endregion

// #region resolve

// Resolve runs the state machine for one query. Deterministic candidates
// terminate immediately: a verified closed-form answer is always trusted over
// anything generative.
func (o *Orchestrator) Resolve(ctx context.Context, query, bucket string, local Candidate) Outcome {
	if local.Deterministic {
		return Outcome{
			Answer:     local.Text,
			Source:     "solver",
			Confidence: local.Confidence,
			State:      StateTerminal,
		}
	}

	threshold := o.scorer.Threshold()
	if !o.cfg.Enabled || local.Confidence >= threshold {
		return Outcome{
			Answer:     local.Text,
			Source:     "local",
			Confidence: local.Confidence,
			State:      StateTerminal,
		}
	}

	var attempts []AttemptRecord
	chain := o.orderedChain(bucket)

	for i, src := range chain {
		stage := i + 1
		state := stageState(stage)

		w := o.weights.Get(src.ID(), bucket)
		if w < o.cfg.WeightFloor {
			log.Printf("[FALL] %s: skipping %s (weight %.2f below floor)", state, src.ID(), w)
			attempts = append(attempts, AttemptRecord{
				Source:        src.ID(),
				Stage:         stage,
				AttemptedAt:   time.Now().UTC(),
				Success:       false,
				FailureReason: "weight below floor",
			})
			continue
		}

		rec, result, ok := o.tryStage(ctx, stage, src, query)
		attempts = append(attempts, rec)
		if !ok {
			continue
		}

		score := o.scorer.Score(result.Text)
		if result.Confidence > 0 && result.Confidence < score {
			score = result.Confidence
		}
		attempts[len(attempts)-1].Confidence = score

		if score >= threshold {
			log.Printf("[FALL] %s: %s answered with confidence %.2f", state, src.ID(), score)
			return Outcome{
				Answer:     result.Text,
				Source:     src.ID(),
				Confidence: score,
				State:      StateTerminal,
				Attempts:   attempts,
			}
		}

		log.Printf("[FALL] %s: %s below threshold (%.2f < %.2f), advancing", state, src.ID(), score, threshold)
		attempts[len(attempts)-1].Success = false
		attempts[len(attempts)-1].FailureReason = "low confidence"
	}

	// All stages exhausted: return the local candidate, explicitly uncertain.
	log.Printf("[FALL] chain exhausted after %d attempts, returning local candidate as uncertain", len(attempts))
	return Outcome{
		Answer:     local.Text,
		Source:     "local",
		Confidence: local.Confidence,
		State:      StateTerminalUncertain,
		Uncertain:  true,
		Attempts:   attempts,
	}
}

// #endregion

// #region try-stage

// tryStage invokes one source under the per-stage timeout. ok is false on
// timeout or source failure; nothing from the source boundary propagates.
func (o *Orchestrator) tryStage(ctx context.Context, stage int, src Source, query string) (AttemptRecord, SourceResult, bool) {
	stageCtx, cancel := context.WithTimeout(ctx, o.cfg.StageTimeout)
	defer cancel()

	start := time.Now()
	result, err := src.Query(stageCtx, query)
	latency := time.Since(start)

	rec := AttemptRecord{
		Source:      src.ID(),
		Stage:       stage,
		AttemptedAt: start.UTC(),
		Latency:     latency,
	}

	if err != nil {
		reason := err.Error()
		if stageCtx.Err() == context.DeadlineExceeded {
			reason = "timeout"
		}
		log.Printf("[FALL] %s: %s failed: %s", stageState(stage), src.ID(), reason)
		rec.FailureReason = reason
		return rec, SourceResult{}, false
	}

	rec.Success = true
	rec.Confidence = result.Confidence
	return rec, result, true
}

// #endregion

// #region chain-order

// orderedChain returns the sources for this bucket, promoting the learned
// best source to the front only when its weight clearly leads the default
// first entry.
func (o *Orchestrator) orderedChain(bucket string) []Source {
	if len(o.sources) < 2 {
		return o.sources
	}

	best, bestWeight, ok := o.weights.BestSourceFor(bucket)
	if !ok || best == o.sources[0].ID() {
		return o.sources
	}
	if bestWeight < o.weights.Get(o.sources[0].ID(), bucket)+o.cfg.ReorderMargin {
		return o.sources
	}

	ordered := make([]Source, 0, len(o.sources))
	for _, s := range o.sources {
		if s.ID() == best {
			ordered = append(ordered, s)
		}
	}
	for _, s := range o.sources {
		if s.ID() != best {
			ordered = append(ordered, s)
		}
	}
	return ordered
}

// #endregion

// #region helpers

func stageState(stage int) State {
	switch stage {
	case 1:
		return StateEscalate1
	case 2:
		return StateEscalate2
	default:
		return StateEscalate3
	}
}

// #endregion
