package classify

// #region imports
import (
	"strings"
	"unicode"
)

// #endregion

// #region rules

// Rules is the priority-ordered dispatch table. Math and logic problems outrank
// the softer categories, and general is the implicit fallback when nothing
// matches. Kept as data so tests can assert on ordering directly.
var Rules = []Rule{
	{
		Type:         MathWordProblem,
		RequireDigit: true,
		Patterns: []string{
			"how many", "how much", "what is the total", "in total",
			"percent", "% ", "%,", "%.", "costs", "cost $",
			"machines", "widgets", "minutes", "remain", "remains",
			"increased by", "decreased by", "doubles", "doubled",
			"more than the", "less than the", "all but",
			"per hour", "per minute", "per day",
			"sum of", "average of", "product of",
		},
	},
	{
		Type: LogicProblem,
		Patterns: []string{
			"puzzle", "riddle", "logic problem", "logically",
			"knights and knaves", "truth-teller", "truth teller",
			"always lies", "always tells the truth", "liar",
			"if all", "syllogism", "deduce", "deduction",
		},
	},
	{
		Type: Programming,
		Patterns: []string{
			"write a function", "write code", "code that", "a program",
			"implement", "algorithm", "debug", "fix this bug", "bug in",
			"compile", "stack trace", "regex", "refactor",
			"python", "golang", " go code", "javascript", "typescript",
			"sql query", "data structure", "time complexity",
		},
	},
	{
		Type: Design,
		Patterns: []string{
			"design a", "design an", "system design", "architecture",
			"database schema", "api design", "scalable", "scalability",
			"microservice", "high availability", "trade-off", "tradeoff",
		},
	},
	{
		Type: Metacognitive,
		Patterns: []string{
			"why did you", "how did you", "are you sure",
			"your reasoning", "explain your", "what made you",
			"how confident", "did you consider", "rethink",
		},
	},
}

// #endregion

// #region classify

// Classify scans the query against the rule table and returns the first
// category with a match, falling back to General. Pure function of the query
// text; per-session idempotency is guaranteed by the session cache, not here.
func Classify(query string) Classification {
	lower := strings.ToLower(strings.TrimSpace(query))
	hasDigit := containsDigit(lower)

	for _, rule := range Rules {
		if rule.RequireDigit && !hasDigit {
			continue
		}
		for _, p := range rule.Patterns {
			if strings.Contains(lower, p) {
				return Classification{Type: rule.Type, Signal: p}
			}
		}
	}

	return Classification{Type: General}
}

// #endregion

// #region helpers

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// #endregion
