package fallback

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kibbyd/reason-pilot/internal/confidence"
	"github.com/kibbyd/reason-pilot/internal/store"
	"github.com/kibbyd/reason-pilot/internal/weights"
)

// #region fakes

type fakeSource struct {
	id     string
	result SourceResult
	err    error
	calls  int
}

func (f *fakeSource) ID() string { return f.id }

func (f *fakeSource) Query(ctx context.Context, query string) (SourceResult, error) {
	f.calls++
	if f.err != nil {
		return SourceResult{}, f.err
	}
	return f.result, nil
}

func testHarness(t *testing.T, sources []Source) (*Orchestrator, *weights.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	w := weights.NewStore(st.DB())

	cfg := Config{Enabled: true, StageTimeout: time.Second, WeightFloor: 0.15, ReorderMargin: 0.10}
	scorer := confidence.NewEstimator(confidence.Config{
		Threshold: 0.60, HedgingPenalty: 0.05, HedgingCap: 0.20, ErrorPenalty: 0.30,
		DefectPenalty: 0.20, ShortPenalty: 0.40, RepeatPenalty: 0.25, MinWordsForFull: 5,
	})
	return NewOrchestrator(cfg, scorer, w, sources), w
}

const goodAnswer = "A thorough and complete answer with plenty of supporting detail included."

// #endregion

func TestResolve_DeterministicAlwaysTerminal(t *testing.T) {
	src := &fakeSource{id: "websearch", result: SourceResult{Text: goodAnswer}}
	o, _ := testHarness(t, []Source{src})

	out := o.Resolve(context.Background(), "q", "calculation", Candidate{
		Text: "5", Confidence: 0.97, Deterministic: true,
	})
	if out.State != StateTerminal || out.Source != "solver" {
		t.Errorf("state=%s source=%s, want terminal/solver", out.State, out.Source)
	}
	if src.calls != 0 {
		t.Errorf("deterministic answer escalated: %d source calls", src.calls)
	}
}

func TestResolve_ConfidentLocalSkipsChain(t *testing.T) {
	src := &fakeSource{id: "websearch", result: SourceResult{Text: goodAnswer}}
	o, _ := testHarness(t, []Source{src})

	out := o.Resolve(context.Background(), "q", "general", Candidate{Text: "fine answer here today", Confidence: 0.85})
	if out.State != StateTerminal || out.Source != "local" {
		t.Errorf("state=%s source=%s, want terminal/local", out.State, out.Source)
	}
	if src.calls != 0 {
		t.Errorf("confident local answer escalated: %d calls", src.calls)
	}
}

func TestResolve_FirstSuccessStopsChain(t *testing.T) {
	first := &fakeSource{id: "websearch", result: SourceResult{Text: goodAnswer, Confidence: 0.9}}
	second := &fakeSource{id: "research", result: SourceResult{Text: goodAnswer}}
	o, _ := testHarness(t, []Source{first, second})

	out := o.Resolve(context.Background(), "q", "general", Candidate{Text: "weak", Confidence: 0.4})
	if out.State != StateTerminal {
		t.Fatalf("state: got %s, want %s", out.State, StateTerminal)
	}
	if out.Source != "websearch" {
		t.Errorf("source: got %s, want websearch", out.Source)
	}
	if second.calls != 0 {
		t.Errorf("later stage reached after success: %d calls", second.calls)
	}
	if len(out.Attempts) != 1 || !out.Attempts[0].Success {
		t.Errorf("attempt chain wrong: %+v", out.Attempts)
	}
}

func TestResolve_AllSourcesFailReturnsUncertainLocal(t *testing.T) {
	srcs := []Source{
		&fakeSource{id: "websearch", err: errors.New("unreachable")},
		&fakeSource{id: "research", err: errors.New("rate limited")},
		&fakeSource{id: "assistant", err: errors.New("boom")},
	}
	o, _ := testHarness(t, srcs)

	out := o.Resolve(context.Background(), "q", "general", Candidate{Text: "the local guess", Confidence: 0.4})
	if out.State != StateTerminalUncertain {
		t.Fatalf("state: got %s, want %s", out.State, StateTerminalUncertain)
	}
	if !out.Uncertain {
		t.Error("outcome not labeled uncertain")
	}
	if out.Answer != "the local guess" {
		t.Errorf("answer: got %q, want the local candidate", out.Answer)
	}
	if len(out.Attempts) != 3 {
		t.Fatalf("attempts: got %d, want 3", len(out.Attempts))
	}
	for i, a := range out.Attempts {
		if a.Success {
			t.Errorf("attempt %d marked success", i)
		}
		if a.FailureReason == "" {
			t.Errorf("attempt %d has no failure reason", i)
		}
		if a.Stage != i+1 {
			t.Errorf("attempt %d stage = %d", i, a.Stage)
		}
	}
}

func TestResolve_LowConfidenceAnswerAdvances(t *testing.T) {
	weak := &fakeSource{id: "websearch", result: SourceResult{Text: goodAnswer, Confidence: 0.3}}
	strong := &fakeSource{id: "research", result: SourceResult{Text: goodAnswer, Confidence: 0.9}}
	o, _ := testHarness(t, []Source{weak, strong})

	out := o.Resolve(context.Background(), "q", "general", Candidate{Text: "weak", Confidence: 0.4})
	if out.Source != "research" {
		t.Errorf("source: got %s, want research", out.Source)
	}
	if len(out.Attempts) != 2 {
		t.Fatalf("attempts: got %d, want 2", len(out.Attempts))
	}
	if out.Attempts[0].Success || out.Attempts[0].FailureReason != "low confidence" {
		t.Errorf("first attempt not recorded as low confidence: %+v", out.Attempts[0])
	}
}

func TestResolve_WeightFloorSkipsSource(t *testing.T) {
	skipped := &fakeSource{id: "websearch", result: SourceResult{Text: goodAnswer}}
	used := &fakeSource{id: "research", result: SourceResult{Text: goodAnswer}}
	o, w := testHarness(t, []Source{skipped, used})

	// Drive websearch/general under the 0.15 floor: 0.5 - 8*0.05 = 0.10.
	for i := 0; i < 8; i++ {
		if _, err := w.Update("websearch", "general", false); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	out := o.Resolve(context.Background(), "q", "general", Candidate{Text: "weak", Confidence: 0.4})
	if skipped.calls != 0 {
		t.Errorf("floored source still queried %d times", skipped.calls)
	}
	if out.Source != "research" {
		t.Errorf("source: got %s, want research", out.Source)
	}
	if len(out.Attempts) != 2 {
		t.Fatalf("attempts: got %d, want 2 (skip is still recorded)", len(out.Attempts))
	}
	if out.Attempts[0].FailureReason != "weight below floor" {
		t.Errorf("skip reason: %q", out.Attempts[0].FailureReason)
	}
}

func TestResolve_LearnedReorder(t *testing.T) {
	def := &fakeSource{id: "websearch", err: errors.New("down")}
	learned := &fakeSource{id: "research", result: SourceResult{Text: goodAnswer, Confidence: 0.9}}
	o, w := testHarness(t, []Source{def, learned})

	// research earns a clear lead: 0.5 + 4*0.05 = 0.70 vs websearch 0.50.
	for i := 0; i < 4; i++ {
		if _, err := w.Update("research", "general", true); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	out := o.Resolve(context.Background(), "q", "general", Candidate{Text: "weak", Confidence: 0.4})
	if out.Source != "research" {
		t.Fatalf("source: got %s, want research", out.Source)
	}
	// research led the chain, so the default first source was never reached.
	if def.calls != 0 {
		t.Errorf("default source called %d times despite reorder", def.calls)
	}
}

func TestResolve_KillSwitch(t *testing.T) {
	src := &fakeSource{id: "websearch", result: SourceResult{Text: goodAnswer}}
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := DefaultConfig()
	cfg.Enabled = false
	scorer := confidence.NewEstimator(confidence.DefaultConfig())
	o := NewOrchestrator(cfg, scorer, weights.NewStore(st.DB()), []Source{src})

	out := o.Resolve(context.Background(), "q", "general", Candidate{Text: "weak", Confidence: 0.1})
	if out.State != StateTerminal || out.Source != "local" {
		t.Errorf("disabled chain escalated: state=%s source=%s", out.State, out.Source)
	}
	if src.calls != 0 {
		t.Errorf("disabled chain queried a source")
	}
}
