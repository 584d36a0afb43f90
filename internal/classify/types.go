package classify

// #region problem-type

// ProblemType tags the semantic category of a user query.
type ProblemType string

const (
	MathWordProblem ProblemType = "math_word_problem"
	LogicProblem    ProblemType = "logic_problem"
	Programming     ProblemType = "programming"
	Design          ProblemType = "design"
	Metacognitive   ProblemType = "metacognitive"
	General         ProblemType = "general"
)

// #endregion

// #region rule

// Rule binds a ProblemType to the patterns that select it. Rules are evaluated
// in slice order; the first rule with a matching pattern wins.
type Rule struct {
	Type ProblemType
	// Patterns are lowercase substrings checked against the lowered query.
	Patterns []string
	// RequireDigit demands at least one digit in the query before the rule
	// can fire. Keeps word-problem cues like "how many" from swallowing
	// plain factual questions.
	RequireDigit bool
}

// #endregion

// #region result

// Classification is the full classifier output for one query.
type Classification struct {
	Type   ProblemType
	Signal string // the pattern that matched, empty for the general fallback
}

// #endregion
