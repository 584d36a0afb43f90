// Package pipeline is the top-level coordinator: session tracking,
// classification, deterministic solving, trace building, confidence scoring,
// escalation, archival, and the #-command surface.
//
// Resolve is a synchronous blocking call chain. Worst-case latency for one
// query is the local inference time plus one stage timeout per enabled
// external source. A single mutex serializes all shared state so the
// interactive loop and the HTTP bridge can call Resolve concurrently without
// tearing the session counter, context stack, weights, or logs.
package pipeline

// #region imports
import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kibbyd/reason-pilot/internal/answerer"
	"github.com/kibbyd/reason-pilot/internal/classify"
	"github.com/kibbyd/reason-pilot/internal/confidence"
	"github.com/kibbyd/reason-pilot/internal/fallback"
	"github.com/kibbyd/reason-pilot/internal/feedback"
	"github.com/kibbyd/reason-pilot/internal/session"
	"github.com/kibbyd/reason-pilot/internal/solver"
	"github.com/kibbyd/reason-pilot/internal/store"
	"github.com/kibbyd/reason-pilot/internal/trace"
	"github.com/kibbyd/reason-pilot/internal/weights"
)

// #endregion

// #region constants

const (
	// solverConfidence is the fixed score for verified closed-form answers.
	// The text scorer would misread a terse "5" as degenerate.
	solverConfidence = 0.97
	// solverUnverifiedConfidence covers template hits whose back-substitution
	// could not run; templates currently always verify, this is the floor.
	solverUnverifiedConfidence = 0.85
)

// #endregion

// #region generator

// Generator is the LocalAnswerer boundary consumed by the pipeline.
type Generator interface {
	Generate(ctx context.Context, prompt string, p answerer.Params) (string, error)
}

// #endregion

// #region resolution

// Resolution is the outcome of one Resolve call.
type Resolution struct {
	QueryID     string
	SessionID   int64
	Kind        session.Kind
	Query       string
	ProblemType classify.ProblemType
	Answer      string
	Trace       trace.Trace
	Confidence  float64
	Source      string
	State       fallback.State
	Uncertain   bool
	Warning     string // set when the answer is explicitly labeled unreliable
	Attempts    []fallback.AttemptRecord

	// Command resolutions carry their text output here and leave the answer
	// fields empty.
	IsCommand bool
	Output    string
}

// #endregion

// #region pipeline

// Pipeline wires every component behind a single Resolve entry point.
type Pipeline struct {
	mu       sync.Mutex
	st       *store.Store
	weights  *weights.Store
	recorder *feedback.Recorder
	tracker  *session.Tracker
	scorer   *confidence.Estimator
	orch     *fallback.Orchestrator
	local    Generator
}

// New constructs a fully wired pipeline over an open store.
func New(st *store.Store, local Generator, sources []fallback.Source, confCfg confidence.Config, fbCfg fallback.Config) *Pipeline {
	w := weights.NewStore(st.DB())
	scorer := confidence.NewEstimator(confCfg)
	return &Pipeline{
		st:       st,
		weights:  w,
		recorder: feedback.NewRecorder(st.DB(), w),
		tracker:  session.NewTracker(),
		scorer:   scorer,
		orch:     fallback.NewOrchestrator(fbCfg, scorer, w, sources),
		local:    local,
	}
}

// #endregion

// #region resolve

// Resolve runs one input through the full pipeline: commands first, then
// retry/follow-up/new-question resolution, then answer production.
func (p *Pipeline) Resolve(ctx context.Context, input string) (*Resolution, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty input")
	}

	if cmd, ok := feedback.ParseCommand(input); ok {
		return p.runCommand(cmd)
	}

	now := time.Now().UTC()
	sess, kind, prev := p.tracker.Begin(input, now)
	queryID := uuid.New().String()

	log.Printf("[PIPE] %s: session=%d input=%q", kind, sess.ID, condense(input, 60))

	// Retry replays cached deterministic state verbatim: no reclassification,
	// no fresh solve, same answer guaranteed.
	if kind == session.KindRetry {
		if cached, ok := sess.Solved(); ok {
			cls, _ := sess.Classification()
			res := &Resolution{
				QueryID:     queryID,
				SessionID:   sess.ID,
				Kind:        kind,
				Query:       sess.Query,
				ProblemType: cls.Type,
				Answer:      cached.Answer,
				Trace:       cached.Steps,
				Confidence:  solverConfidence,
				Source:      "solver",
				State:       fallback.StateTerminal,
			}
			p.finish(res, true)
			return res, nil
		}
	}

	effective := input
	if kind == session.KindRetry {
		effective = sess.Query
	}

	// Classification: retries reuse the cached tag, everything else runs a
	// fresh pass (follow-ups reclassify their own text).
	var cls classify.Classification
	if cached, ok := sess.Classification(); ok && kind == session.KindRetry {
		cls = cached
	} else {
		cls = classify.Classify(effective)
		sess.CacheClassification(cls)
	}
	bucket := weights.BucketFor(effective, cls.Type)

	// Deterministic path.
	if solved, ok := solver.Solve(effective); ok {
		sess.CacheSolved(solved)
		conf := solverConfidence
		if !solved.Verified {
			conf = solverUnverifiedConfidence
		}
		outcome := p.orch.Resolve(ctx, effective, bucket, fallback.Candidate{
			Text: solved.Answer, Confidence: conf, Deterministic: true,
		})
		res := &Resolution{
			QueryID:     queryID,
			SessionID:   sess.ID,
			Kind:        kind,
			Query:       effective,
			ProblemType: cls.Type,
			Answer:      outcome.Answer,
			Trace:       solved.Steps,
			Confidence:  outcome.Confidence,
			Source:      outcome.Source,
			State:       outcome.State,
		}
		p.finish(res, kind == session.KindRetry)
		return res, nil
	}

	// Generative path: skeleton trace, local inference, score, escalate.
	skeleton := trace.Build(cls.Type, effective)
	prompt := buildPrompt(effective, skeleton, contextFor(kind, prev))

	text, err := p.local.Generate(ctx, prompt, answerer.Params{})
	if err != nil {
		log.Printf("[PIPE] local inference failed: %v", err)
		text = ""
	}
	localScore := p.scorer.Score(text)

	outcome := p.orch.Resolve(ctx, effective, bucket, fallback.Candidate{
		Text: text, Confidence: localScore,
	})

	res := &Resolution{
		QueryID:     queryID,
		SessionID:   sess.ID,
		Kind:        kind,
		Query:       effective,
		ProblemType: cls.Type,
		Answer:      outcome.Answer,
		Trace:       skeleton,
		Confidence:  outcome.Confidence,
		Source:      outcome.Source,
		State:       outcome.State,
		Uncertain:   outcome.Uncertain,
		Attempts:    outcome.Attempts,
	}
	if outcome.Uncertain {
		res.Warning = uncertainWarning(outcome)
	}
	p.finish(res, kind == session.KindRetry)
	return res, nil
}

// #endregion

// #region finish

// finish persists the audit trail and archives the resolved entry.
func (p *Pipeline) finish(res *Resolution, isRetry bool) {
	for _, a := range res.Attempts {
		err := p.st.LogAttempt(store.AttemptRow{
			QueryID:       res.QueryID,
			Stage:         a.Stage,
			Source:        a.Source,
			Success:       a.Success,
			Latency:       a.Latency,
			Confidence:    a.Confidence,
			FailureReason: a.FailureReason,
			CreatedAt:     a.AttemptedAt,
		})
		if err != nil {
			log.Printf("[PIPE] attempt log failed: %v", err)
		}
	}

	entry := session.ContextEntry{
		SessionID:   res.SessionID,
		Query:       res.Query,
		Answer:      res.Answer,
		Source:      res.Source,
		ProblemType: res.ProblemType,
		IsRetry:     isRetry,
		Timestamp:   time.Now().UTC(),
	}
	p.tracker.Push(entry)

	err := p.st.ArchiveContext(store.ArchiveRow{
		SessionID:   entry.SessionID,
		Query:       entry.Query,
		Answer:      entry.Answer,
		Source:      entry.Source,
		ProblemType: string(entry.ProblemType),
		IsRetry:     entry.IsRetry,
		CreatedAt:   entry.Timestamp,
	})
	if err != nil {
		log.Printf("[PIPE] context archive failed: %v", err)
	}
}

// #endregion

// #region prompt

func contextFor(kind session.Kind, prev *session.ContextEntry) *session.ContextEntry {
	if kind == session.KindFollowUp {
		return prev
	}
	return nil
}

func buildPrompt(query string, skeleton trace.Trace, prev *session.ContextEntry) string {
	var b strings.Builder
	if prev != nil {
		fmt.Fprintf(&b, "Previous question: %s\nPrevious answer: %s\n\n", prev.Query, prev.Answer)
	}
	fmt.Fprintf(&b, "Question: %s\n\nWork through it along these lines:\n", query)
	for _, s := range skeleton {
		fmt.Fprintf(&b, "%d. %s\n", s.Index, s.Description)
	}
	b.WriteString("\nAnswer:")
	return b.String()
}

// #endregion

// #region uncertain

func uncertainWarning(out fallback.Outcome) string {
	var tried []string
	for _, a := range out.Attempts {
		tried = append(tried, a.Source)
	}
	return fmt.Sprintf("answer may be unreliable (confidence %.2f; tried: %s)",
		out.Confidence, strings.Join(tried, ", "))
}

// #endregion

// #region helpers

func condense(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// #endregion
