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

// workSetupRe matches "N workers make M items in T units".
var workSetupRe = regexp.MustCompile(
	`(?i)(\d+(?:\.\d+)?)\s+([a-z]+?)s?\s+(?:can\s+)?` +
		`(?:make|makes|produce|produces|build|builds|complete|completes)\s+` +
		`(\d+(?:\.\d+)?)\s+([a-z]+?)s?\s+in\s+` +
		`(\d+(?:\.\d+)?)\s+(minute|hour|day|second|week)s?`)

// workTargetRe matches the asked-for "make M items in T units" clause.
var workTargetRe = regexp.MustCompile(
	`(?i)(?:make|produce|build|complete)\s+(\d+(?:\.\d+)?)\s+[a-z]+?s?\s+in\s+` +
		`(\d+(?:\.\d+)?)\s+(minute|hour|day|second|week)s?`)

// #endregion

// #region template

// rateOfWork solves "if A workers make B items in C minutes, how many workers
// to make D items in E minutes" via the per-worker rate B/(A*C).
type rateOfWork struct{}

func (rateOfWork) Name() string { return "rate_of_work" }

func (rateOfWork) Solve(query string) (Result, bool) {
	loc := workSetupRe.FindStringSubmatchIndex(query)
	if loc == nil {
		return Result{}, false
	}
	setup := workSetupRe.FindStringSubmatch(query)
	rest := query[loc[1]:]

	target := workTargetRe.FindStringSubmatch(rest)
	if target == nil {
		return Result{}, false
	}

	workers := parseFloat(setup[1])
	workerUnit := strings.ToLower(setup[2])
	items := parseFloat(setup[3])
	itemUnit := strings.ToLower(setup[4])
	duration := parseFloat(setup[5])
	timeUnit := strings.ToLower(setup[6])

	targetItems := parseFloat(target[1])
	targetTime := parseFloat(target[2])
	targetTimeUnit := strings.ToLower(target[3])

	if workers == 0 || items == 0 || duration == 0 || targetTime == 0 {
		return Result{}, false
	}
	if timeUnit != targetTimeUnit {
		// Mixed time units are outside this closed form.
		return Result{}, false
	}

	rate := items / (workers * duration)
	needed := targetItems / (rate * targetTime)

	// Back-substitution: the computed crew must produce the target amount.
	produced := needed * rate * targetTime
	verified := approxEqual(produced, targetItems)
	if !verified {
		return Result{}, false
	}

	steps := trace.Trace{
		{
			Index:       1,
			Description: "Extract the work-rate quantities",
			Values: fmt.Sprintf("%s %ss make %s %ss in %s %ss; target %s %ss in %s %ss",
				formatNumber(workers), workerUnit, formatNumber(items), itemUnit,
				formatNumber(duration), timeUnit, formatNumber(targetItems), itemUnit,
				formatNumber(targetTime), timeUnit),
		},
		{
			Index:       2,
			Description: fmt.Sprintf("Compute the per-%s rate", workerUnit),
			Operation:   fmt.Sprintf("rate = %ss / (%ss * %ss)", itemUnit, workerUnit, timeUnit),
			Values:      fmt.Sprintf("%s / (%s * %s)", formatNumber(items), formatNumber(workers), formatNumber(duration)),
			Result:      fmt.Sprintf("%s %ss per %s-%s", formatNumber(rate), itemUnit, workerUnit, timeUnit),
		},
		{
			Index:       3,
			Description: fmt.Sprintf("Solve for the required %ss", workerUnit),
			Operation:   fmt.Sprintf("%ss = target / (rate * time)", workerUnit),
			Values:      fmt.Sprintf("%s / (%s * %s)", formatNumber(targetItems), formatNumber(rate), formatNumber(targetTime)),
			Result:      formatNumber(needed),
		},
		{
			Index:       4,
			Description: "Verify by back-substitution",
			Operation:   fmt.Sprintf("%ss * rate * time", workerUnit),
			Values:      fmt.Sprintf("%s * %s * %s", formatNumber(needed), formatNumber(rate), formatNumber(targetTime)),
			Result:      fmt.Sprintf("%s %ss (matches target)", formatNumber(produced), itemUnit),
		},
	}

	return Result{
		Answer:   formatNumber(needed),
		Steps:    steps,
		Template: "rate_of_work",
		Verified: true,
	}, true
}

// #endregion
