// Package solver holds the deterministic template registry: closed-form
// answers for recognized word-problem shapes, each verified by
// back-substitution. A template miss is normal control flow, not an error;
// it signals "defer to generative reasoning."
package solver

// #region imports
import (
	"github.com/kibbyd/reason-pilot/internal/trace"
)

// #endregion

// #region result

// Result is a verified deterministic answer with its derivation trace.
type Result struct {
	Answer   string
	Steps    trace.Trace
	Template string
	Verified bool
}

// #endregion

// #region template

// Template is one solvable problem shape. Solve returns (zero, false) when the
// query does not fit the shape. Identical input must always yield the
// identical answer and step sequence.
type Template interface {
	Name() string
	Solve(query string) (Result, bool)
}

// #endregion

// #region registry

// Registry lists the templates in match-attempt order.
var Registry = []Template{
	rateOfWork{},
	twoUnknownDifference{},
	allButN{},
	compoundPercent{},
	doublingPuzzle{},
}

// Solve runs the query through the registry and returns the first hit.
func Solve(query string) (Result, bool) {
	for _, t := range Registry {
		if res, ok := t.Solve(query); ok {
			return res, true
		}
	}
	return Result{}, false
}

// #endregion
