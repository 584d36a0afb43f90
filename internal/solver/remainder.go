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

var herdRe = regexp.MustCompile(`(?i)(?:has|have|had|owns|owned|keeps|kept)\s+(\d+)\s+([a-z]+?)s?\b`)
var allButRe = regexp.MustCompile(`(?i)all but\s+(\d+)`)

// #endregion

// #region template

// allButN solves the "has X, all but N <die|leave>, how many remain" trick:
// the answer is N itself, not X - N.
type allButN struct{}

func (allButN) Name() string { return "all_but_n" }

func (allButN) Solve(query string) (Result, bool) {
	lower := strings.ToLower(query)
	asksRemainder := strings.Contains(lower, "remain") ||
		strings.Contains(lower, "left") ||
		strings.Contains(lower, "survive") ||
		strings.Contains(lower, "still alive")
	if !asksRemainder {
		return Result{}, false
	}

	herd := herdRe.FindStringSubmatch(query)
	kept := allButRe.FindStringSubmatch(query)
	if herd == nil || kept == nil {
		return Result{}, false
	}

	start := parseFloat(herd[1])
	remain := parseFloat(kept[1])
	unit := strings.ToLower(herd[2])

	// Back-substitution: "all but N" only makes sense when N fits the herd.
	if remain > start {
		return Result{}, false
	}

	steps := trace.Trace{
		{
			Index:       1,
			Description: "Extract the starting count and the exception clause",
			Values:      fmt.Sprintf("start = %s %ss, \"all but %s\"", formatNumber(start), unit, formatNumber(remain)),
		},
		{
			Index:       2,
			Description: "Read \"all but N\" as the count that is exempt",
			Operation:   "remaining = N",
			Values:      fmt.Sprintf("N = %s", formatNumber(remain)),
			Result:      formatNumber(remain),
		},
		{
			Index:       3,
			Description: "Verify by back-substitution",
			Operation:   "affected = start - remaining",
			Values:      fmt.Sprintf("%s - %s = %s", formatNumber(start), formatNumber(remain), formatNumber(start-remain)),
			Result:      fmt.Sprintf("%s affected, %s remain; consistent with the herd size", formatNumber(start-remain), formatNumber(remain)),
		},
	}

	return Result{
		Answer:   formatNumber(remain),
		Steps:    steps,
		Template: "all_but_n",
		Verified: true,
	}, true
}

// #endregion
