// Package trace holds the reasoning-step types shared by the deterministic
// solver and the generic skeleton builder, plus rendering for display.
package trace

// #region imports
import (
	"fmt"
	"strings"

	"github.com/kibbyd/reason-pilot/internal/classify"
)

// #endregion

// #region types

// Step is one stage of a reasoning trace.
type Step struct {
	Index       int
	Description string
	Operation   string // formula or operation applied, empty for narrative steps
	Values      string // substituted values, empty for narrative steps
	Result      string
}

// Trace is an ordered step sequence, always length >= 1.
type Trace []Step

// #endregion

// #region skeletons

// skeletons maps problem type -> generic step descriptions used when no
// deterministic template applies. Illustrative scaffolding only.
var skeletons = map[classify.ProblemType][]string{
	classify.MathWordProblem: {
		"Identify the quantities and units in the problem",
		"Set up the relationship between the quantities",
		"Solve for the unknown",
		"Check the result against the original statement",
	},
	classify.LogicProblem: {
		"List the given statements and constraints",
		"Enumerate the possible cases",
		"Eliminate cases that contradict a constraint",
		"State the surviving case as the conclusion",
	},
	classify.Programming: {
		"Restate the requirement as input/output behavior",
		"Sketch the approach in pseudocode",
		"Walk the pseudocode against an example input",
		"Note edge cases the implementation must handle",
	},
	classify.Design: {
		"Clarify the functional and scale requirements",
		"Propose the major components and their responsibilities",
		"Trace one request end to end through the components",
		"Call out the main trade-offs of the proposal",
	},
	classify.Metacognitive: {
		"Restate what was previously claimed",
		"Identify the evidence that claim rested on",
		"Assess whether the evidence still holds",
	},
	classify.General: {
		"Interpret what the question is asking",
		"Recall the relevant facts or context",
		"Compose the answer",
	},
}

// #endregion

// #region build

// Build produces a generic, type-appropriate reasoning skeleton for queries
// without a deterministic template. The returned trace is merged with whatever
// generative answer is ultimately produced; it is not a correctness guarantee.
func Build(pt classify.ProblemType, query string) Trace {
	descs, ok := skeletons[pt]
	if !ok {
		descs = skeletons[classify.General]
	}

	steps := make(Trace, len(descs))
	for i, d := range descs {
		steps[i] = Step{Index: i + 1, Description: d}
	}
	// Anchor the first step to the actual question text.
	steps[0].Values = condense(query, 80)
	return steps
}

// #endregion

// #region render

// Render formats a trace for terminal display.
func Render(tr Trace) string {
	var b strings.Builder
	for _, s := range tr {
		fmt.Fprintf(&b, "%d. %s", s.Index, s.Description)
		if s.Operation != "" {
			fmt.Fprintf(&b, " [%s]", s.Operation)
		}
		if s.Values != "" {
			fmt.Fprintf(&b, " (%s)", s.Values)
		}
		if s.Result != "" {
			fmt.Fprintf(&b, " => %s", s.Result)
		}
		b.WriteString("\n")
	}
	return b.String()
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
