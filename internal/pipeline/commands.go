package pipeline

// #region imports
import (
	"fmt"
	"strings"
	"time"

	"github.com/kibbyd/reason-pilot/internal/feedback"
	"github.com/kibbyd/reason-pilot/internal/session"
	"github.com/kibbyd/reason-pilot/internal/weights"
)

// #endregion

// #region run-command

const recentFeedbackLimit = 10

// runCommand executes a parsed #-command. Caller holds the mutex.
func (p *Pipeline) runCommand(cmd feedback.Command) (*Resolution, error) {
	res := &Resolution{IsCommand: true}

	switch cmd.Kind {
	case feedback.CmdCorrect, feedback.CmdIncorrect:
		last := p.tracker.Last()
		if last == nil {
			res.Output = "nothing to rate yet; ask a question first"
			return res, nil
		}
		ev := feedback.Event{
			Query:    last.Query,
			Response: last.Answer,
			Correct:  cmd.Correct,
			Note:     cmd.Note,
			Source:   last.Source,
			Bucket:   weights.BucketFor(last.Query, last.ProblemType),
		}
		if err := p.recorder.Record(ev); err != nil {
			return nil, fmt.Errorf("run %s: %w", cmd.Kind, err)
		}
		verdict := "correct"
		if !cmd.Correct {
			verdict = "incorrect"
		}
		res.Output = fmt.Sprintf("noted: %s marked %s (source %s, bucket %s)",
			condense(last.Query, 50), verdict, ev.Source, ev.Bucket)
		return res, nil

	case feedback.CmdFeedback:
		events, err := p.recorder.Recent(recentFeedbackLimit)
		if err != nil {
			return nil, fmt.Errorf("run feedback: %w", err)
		}
		res.Output = formatFeedback(events)
		return res, nil

	case feedback.CmdContext:
		res.Output = formatContext(p.tracker.Entries())
		return res, nil

	case feedback.CmdPerformance:
		entries, err := p.weights.Snapshot()
		if err != nil {
			return nil, fmt.Errorf("run performance: %w", err)
		}
		res.Output = formatPerformance(entries)
		return res, nil
	}
	return nil, fmt.Errorf("unknown command %q", cmd.Kind)
}

// #endregion

// #region formatting

func formatFeedback(events []feedback.Event) string {
	if len(events) == 0 {
		return "no feedback recorded yet"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "last %d feedback events (newest first):\n", len(events))
	for _, ev := range events {
		verdict := "correct"
		if !ev.Correct {
			verdict = "incorrect"
		}
		fmt.Fprintf(&b, "  [%s] %s -> %s (%s/%s)", ev.CreatedAt.Format(time.RFC3339), condense(ev.Query, 40), verdict, ev.Source, ev.Bucket)
		if ev.Note != "" {
			fmt.Fprintf(&b, " note: %s", ev.Note)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatContext(entries []session.ContextEntry) string {
	if len(entries) == 0 {
		return "context stack is empty"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "recent context (%d of %d slots, oldest first):\n", len(entries), session.StackCapacity)
	for _, e := range entries {
		retry := ""
		if e.IsRetry {
			retry = " retry"
		}
		fmt.Fprintf(&b, "  s%d%s [%s/%s] %s => %s\n",
			e.SessionID, retry, e.ProblemType, e.Source, condense(e.Query, 40), condense(e.Answer, 40))
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatPerformance(entries []weights.Entry) string {
	if len(entries) == 0 {
		return "no source weights learned yet (all sources at default " +
			fmt.Sprintf("%.2f", weights.DefaultWeight) + ")"
	}
	var b strings.Builder
	b.WriteString("learned source weights:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "  %-10s %-15s %.4f\n", e.Source, e.Bucket, e.Weight)
	}
	return strings.TrimRight(b.String(), "\n")
}

// #endregion

// #region read-accessors

// ContextEntries exposes the context stack to the bridge. Takes the mutex.
func (p *Pipeline) ContextEntries() []session.ContextEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker.Entries()
}

// WeightSnapshot exposes the learned weights to the bridge. Takes the mutex.
func (p *Pipeline) WeightSnapshot() ([]weights.Entry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.weights.Snapshot()
}

// RecordFeedback applies explicit feedback from the bridge, attributed to the
// most recent context entry. Takes the mutex.
func (p *Pipeline) RecordFeedback(correct bool, note string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	kind := feedback.CmdIncorrect
	if correct {
		kind = feedback.CmdCorrect
	}
	res, err := p.runCommand(feedback.Command{Kind: kind, Correct: correct, Note: note})
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// #endregion
