package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var digitRunPattern = regexp.MustCompile(`[0-9]+`)

// DefaultBRLDivisor converts Brazilian real amounts to USD. Approximate
// fixed rate, overridable through configuration.
const DefaultBRLDivisor = 5.0

// ParseSalary extracts a representative annual amount from a free-text
// salary string. All digit runs are collected after stripping commas and the
// maximum is taken; a BRL marker ("R$" or "BRL") converts the amount with
// brlDivisor. The second return is false when the text carries no digits at
// all, which is distinct from a zero salary.
func ParseSalary(text string, brlDivisor float64) (float64, bool) {
	if text == "" {
		return 0, false
	}

	stripped := strings.ReplaceAll(text, ",", "")
	runs := digitRunPattern.FindAllString(stripped, -1)
	if len(runs) == 0 {
		return 0, false
	}

	var max float64
	for _, run := range runs {
		n, err := strconv.ParseFloat(run, 64)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}

	lowered := strings.ToLower(text)
	if strings.Contains(lowered, "r$") || strings.Contains(lowered, "brl") {
		if brlDivisor <= 0 {
			brlDivisor = DefaultBRLDivisor
		}
		max = max / brlDivisor
	}

	return max, true
}
