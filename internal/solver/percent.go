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

var pctChangeRe = regexp.MustCompile(
	`(?i)(increased|increases?|rose|rises?|grew|grows?|gained|gains?|went up|` +
		`decreased|decreases?|dropped|drops?|fell|falls?|declined|declines?|lost|loses?|went down)` +
		`\s+(?:by\s+)?(\d+(?:\.\d+)?)\s*(?:%|percent)`)

var pctDownWords = map[string]bool{
	"decreased": true, "decreases": true, "decrease": true,
	"dropped": true, "drops": true, "drop": true,
	"fell": true, "falls": true, "fall": true,
	"declined": true, "declines": true, "decline": true,
	"lost": true, "loses": true, "lose": true,
	"went down": true,
}

// #endregion

// #region template

// compoundPercent solves sequential percentage changes by multiplying the
// factors instead of adding the percents.
type compoundPercent struct{}

func (compoundPercent) Name() string { return "compound_percent" }

func (compoundPercent) Solve(query string) (Result, bool) {
	matches := pctChangeRe.FindAllStringSubmatch(query, -1)
	if len(matches) < 2 {
		return Result{}, false
	}

	multiplier := 1.0
	var factors []string
	var changes []string
	for _, m := range matches {
		verb := strings.ToLower(m[1])
		pct := parseFloat(m[2])
		sign := 1.0
		dir := "up"
		if pctDownWords[verb] {
			sign = -1.0
			dir = "down"
		}
		factor := 1 + sign*pct/100
		multiplier *= factor
		factors = append(factors, formatNumber(round4(factor)))
		changes = append(changes, fmt.Sprintf("%s %s%%", dir, formatNumber(pct)))
	}

	multiplier = round4(multiplier)
	net := round4((multiplier - 1) * 100)

	// Back-substitution: apply each change sequentially to a base of 100.
	base := 100.0
	for _, m := range matches {
		pct := parseFloat(m[2])
		if pctDownWords[strings.ToLower(m[1])] {
			base -= base * pct / 100
		} else {
			base += base * pct / 100
		}
	}
	verified := approxEqual(round4(base), round4(100*multiplier))
	if !verified {
		return Result{}, false
	}

	var answer string
	switch {
	case net > 1e-9:
		answer = fmt.Sprintf("a net increase of %s%%", formatNumber(net))
	case net < -1e-9:
		answer = fmt.Sprintf("a net decrease of %s%%", formatNumber(math.Abs(net)))
	default:
		answer = "no net change"
	}

	steps := trace.Trace{
		{
			Index:       1,
			Description: "Extract the sequential percentage changes",
			Values:      strings.Join(changes, ", "),
		},
		{
			Index:       2,
			Description: "Convert each change to a multiplicative factor",
			Operation:   "factor = 1 + change/100",
			Values:      strings.Join(factors, " * "),
			Result:      formatNumber(multiplier),
		},
		{
			Index:       3,
			Description: "Read the net change off the combined factor",
			Operation:   "net = (factor - 1) * 100",
			Values:      fmt.Sprintf("(%s - 1) * 100", formatNumber(multiplier)),
			Result:      fmt.Sprintf("%s%%", formatNumber(net)),
		},
		{
			Index:       4,
			Description: "Verify by applying the changes to a base of 100",
			Operation:   "base = 100; apply each change in order",
			Values:      fmt.Sprintf("final = %s", formatNumber(round4(base))),
			Result:      "matches the combined factor",
		},
	}

	return Result{
		Answer:   answer,
		Steps:    steps,
		Template: "compound_percent",
		Verified: true,
	}, true
}

// #endregion
