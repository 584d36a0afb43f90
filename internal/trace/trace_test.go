package trace

import (
	"strings"
	"testing"

	"github.com/kibbyd/reason-pilot/internal/classify"
)

func TestBuild_AllTypesNonEmpty(t *testing.T) {
	types := []classify.ProblemType{
		classify.MathWordProblem, classify.LogicProblem, classify.Programming,
		classify.Design, classify.Metacognitive, classify.General,
	}
	for _, pt := range types {
		tr := Build(pt, "some question")
		if len(tr) < 1 {
			t.Errorf("%s: trace length %d, want >= 1", pt, len(tr))
		}
		for i, s := range tr {
			if s.Index != i+1 {
				t.Errorf("%s: step %d has index %d", pt, i, s.Index)
			}
			if s.Description == "" {
				t.Errorf("%s: step %d has empty description", pt, i)
			}
		}
	}
}

func TestBuild_ProgrammingHasPseudocodeStage(t *testing.T) {
	tr := Build(classify.Programming, "write a function")
	found := false
	for _, s := range tr {
		if strings.Contains(strings.ToLower(s.Description), "pseudocode") {
			found = true
		}
	}
	if !found {
		t.Error("programming skeleton has no pseudocode stage")
	}
}

func TestBuild_AnchorsQuery(t *testing.T) {
	tr := Build(classify.General, "what color is the sky")
	if !strings.Contains(tr[0].Values, "what color is the sky") {
		t.Errorf("first step not anchored to query: %q", tr[0].Values)
	}
}

func TestRender(t *testing.T) {
	tr := Trace{
		{Index: 1, Description: "extract", Operation: "y = (t - d) / 2", Values: "t=1.10 d=1.00", Result: "0.05"},
		{Index: 2, Description: "verify"},
	}
	out := Render(tr)
	if !strings.Contains(out, "1. extract [y = (t - d) / 2] (t=1.10 d=1.00) => 0.05") {
		t.Errorf("unexpected render output:\n%s", out)
	}
	if !strings.Contains(out, "2. verify\n") {
		t.Errorf("narrative step rendered wrong:\n%s", out)
	}
}
