package solver

// #region imports
import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kibbyd/reason-pilot/internal/trace"
)

// #endregion

// #region patterns

var doubleEveryRe = regexp.MustCompile(`(?i)doubles?\s+(?:in\s+size\s+)?every\s+(second|minute|hour|day|week|month|year)`)
var fullSpanRe = regexp.MustCompile(`(?i)(\d+)\s+(seconds?|minutes?|hours?|days?|weeks?|months?|years?)`)

// #endregion

// #region template

// doublingPuzzle solves the lily-pad shape: if the patch doubles every day and
// fills in N days, it was half full at N-1, one doubling short.
type doublingPuzzle struct{}

func (doublingPuzzle) Name() string { return "doubling_puzzle" }

func (doublingPuzzle) Solve(query string) (Result, bool) {
	lower := strings.ToLower(query)
	if !strings.Contains(lower, "half") {
		return Result{}, false
	}

	every := doubleEveryRe.FindStringSubmatch(query)
	if every == nil {
		return Result{}, false
	}
	unit := strings.ToLower(every[1])

	// The full span must be stated in the same unit the doubling uses.
	var span float64
	found := false
	for _, m := range fullSpanRe.FindAllStringSubmatch(query, -1) {
		if strings.TrimSuffix(strings.ToLower(m[2]), "s") == unit {
			span = parseFloat(m[1])
			found = true
			break
		}
	}
	if !found || span < 1 {
		return Result{}, false
	}

	half := span - 1

	steps := trace.Trace{
		{
			Index:       1,
			Description: "Extract the doubling period and the full span",
			Values:      fmt.Sprintf("doubles every %s, full at %s %ss", unit, formatNumber(span), unit),
		},
		{
			Index:       2,
			Description: "Work backwards one doubling from full",
			Operation:   "half = full - 1",
			Values:      fmt.Sprintf("%s - 1", formatNumber(span)),
			Result:      fmt.Sprintf("%s %ss", formatNumber(half), unit),
		},
		{
			Index:       3,
			Description: "Verify by doubling forward",
			Operation:   "half coverage * 2 = full coverage",
			Values:      fmt.Sprintf("%s %ss + one doubling = %s %ss", formatNumber(half), unit, formatNumber(span), unit),
			Result:      "reaches full exactly at the stated span",
		},
	}

	return Result{
		Answer:   fmt.Sprintf("%s %ss", formatNumber(half), unit),
		Steps:    steps,
		Template: "doubling_puzzle",
		Verified: true,
	}, true
}

// #endregion
