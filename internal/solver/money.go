package solver

// #region imports
import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/kibbyd/reason-pilot/internal/trace"
)

// #endregion

// #region patterns

var moneyAmountRe = regexp.MustCompile(`\$(\d+(?:\.\d+)?)`)
var moneyItemRe = regexp.MustCompile(`(?i)more than the\s+([a-z]+)`)

// #endregion

// #region template

// twoUnknownDifference solves the "X and Y cost T total, X costs D more than
// Y" shape: y = (T - D) / 2.
type twoUnknownDifference struct{}

func (twoUnknownDifference) Name() string { return "two_unknown_difference" }

func (twoUnknownDifference) Solve(query string) (Result, bool) {
	lower := strings.ToLower(query)
	if !strings.Contains(lower, "total") || !strings.Contains(lower, "more than") {
		return Result{}, false
	}

	amounts := moneyAmountRe.FindAllStringSubmatch(query, -1)
	if len(amounts) < 2 {
		return Result{}, false
	}
	total := parseFloat(amounts[0][1])
	diff := parseFloat(amounts[1][1])
	if diff > total {
		return Result{}, false
	}

	cheaper := "cheaper item"
	if m := moneyItemRe.FindStringSubmatch(query); m != nil {
		cheaper = strings.ToLower(m[1])
	}

	low := math.Round((total-diff)/2*100) / 100
	high := math.Round((low+diff)*100) / 100

	// Back-substitution against both original constraints.
	verified := approxEqual(low+high, total) && approxEqual(high-low, diff)
	if !verified {
		return Result{}, false
	}

	answer := fmt.Sprintf("$%.2f", low)

	steps := trace.Trace{
		{
			Index:       1,
			Description: "Extract the total and the difference",
			Values:      fmt.Sprintf("total = $%.2f, difference = $%.2f", total, diff),
		},
		{
			Index:       2,
			Description: fmt.Sprintf("Solve for the %s", cheaper),
			Operation:   "low = (total - difference) / 2",
			Values:      fmt.Sprintf("(%.2f - %.2f) / 2", total, diff),
			Result:      fmt.Sprintf("$%.2f", low),
		},
		{
			Index:       3,
			Description: "Solve for the dearer item",
			Operation:   "high = low + difference",
			Values:      fmt.Sprintf("%.2f + %.2f", low, diff),
			Result:      fmt.Sprintf("$%.2f", high),
		},
		{
			Index:       4,
			Description: "Verify by back-substitution",
			Operation:   "low + high = total; high - low = difference",
			Values:      fmt.Sprintf("%.2f + %.2f = %.2f; %.2f - %.2f = %.2f", low, high, low+high, high, low, high-low),
			Result:      "both constraints hold",
		},
	}

	return Result{
		Answer:   answer,
		Steps:    steps,
		Template: "two_unknown_difference",
		Verified: true,
	}, true
}

// #endregion
