package solver

// #region imports
import (
	"math"
	"strconv"
)

// #endregion

// #region number-formatting

// formatNumber renders a float without trailing noise: integers as integers,
// everything else with up to four decimals trimmed.
func formatNumber(f float64) string {
	if math.Abs(f-math.Round(f)) < 1e-9 {
		return strconv.FormatInt(int64(math.Round(f)), 10)
	}
	return strconv.FormatFloat(round4(f), 'f', -1, 64)
}

func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

// #endregion

// #region numeric-helpers

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

// approxEqual compares with a relative tolerance, used by the verification
// steps so float noise never flips a back-substitution check.
func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-6*(1+math.Abs(b))
}

// #endregion
