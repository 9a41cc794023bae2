package password

import (
	"strings"
	"unicode"
)

const (
	// MinLength and MaxLength bound accepted password lengths.
	MinLength = 12
	MaxLength = 128

	// MinScore is the lowest strength score accepted at registration or
	// change-password time, even when every individual rule passes.
	MinScore = 50
)

// Result carries the outcome of password validation. A password is accepted
// only when Violations is empty and Score >= MinScore.
type Result struct {
	Score      int      `json:"score"`
	Violations []string `json:"violations,omitempty"`
}

// OK reports whether the candidate passed every rule.
func (r Result) OK() bool {
	return len(r.Violations) == 0 && r.Score >= MinScore
}

// commonWeak is a small deny-list of passwords (and password stems) that show
// up in every breached-credentials dump.
var commonWeak = []string{
	"password", "passw0rd", "123456", "qwerty", "letmein", "welcome",
	"iloveyou", "admin", "monkey", "dragon", "sunshine", "princess",
	"football", "baseball", "master", "shadow", "superman", "trustno1",
	"changeme", "secret", "school",
}

// keyboardRuns are common keyboard-walk fragments.
var keyboardRuns = []string{
	"qwerty", "asdfgh", "zxcvbn", "qazwsx", "1qaz2wsx", "qwertz", "azerty",
}

// Validate checks a candidate plaintext password against the complexity
// rules and computes its strength score. Pure function, no side effects.
func Validate(candidate string) Result {
	var violations []string

	runes := []rune(candidate)
	if len(runes) < MinLength {
		violations = append(violations, "must be at least 12 characters long")
	}
	if len(runes) > MaxLength {
		violations = append(violations, "must be at most 128 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range runes {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if !hasUpper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "must contain a digit")
	}
	if !hasSymbol {
		violations = append(violations, "must contain a symbol")
	}

	if hasRepeatedRun(runes, 3) {
		violations = append(violations, "must not repeat the same character 3 or more times in a row")
	}

	lower := strings.ToLower(candidate)
	for _, weak := range commonWeak {
		if strings.Contains(lower, weak) {
			violations = append(violations, "must not contain a commonly used password")
			break
		}
	}
	if hasKeyboardPattern(lower) {
		violations = append(violations, "must not contain keyboard patterns")
	}
	if hasSequentialRun(lower, 4) {
		violations = append(violations, "must not contain sequential characters")
	}
	if hasYearPattern(runes) {
		violations = append(violations, "must not contain a year")
	}

	return Result{
		Score:      score(runes, hasUpper, hasLower, hasDigit, hasSymbol),
		Violations: violations,
	}
}

// score rates the candidate 0-100 from length and character-class coverage.
func score(runes []rune, upper, lower, digit, symbol bool) int {
	lengthPts := len(runes) * 2
	if lengthPts > 40 {
		lengthPts = 40
	}

	classPts := 0
	for _, ok := range []bool{upper, lower, digit, symbol} {
		if ok {
			classPts += 10
		}
	}

	unique := make(map[rune]struct{}, len(runes))
	for _, r := range runes {
		unique[r] = struct{}{}
	}
	varietyPts := 0
	if len(runes) > 0 {
		varietyPts = 20 * len(unique) / len(runes)
	}

	total := lengthPts + classPts + varietyPts
	if total > 100 {
		total = 100
	}
	return total
}

func hasRepeatedRun(runes []rune, n int) bool {
	run := 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run >= n {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

func hasKeyboardPattern(lower string) bool {
	for _, walk := range keyboardRuns {
		if strings.Contains(lower, walk) {
			return true
		}
	}
	return false
}

// hasSequentialRun detects n+ consecutive ascending or descending characters
// ("abcd", "4321") in the already-lowercased candidate.
func hasSequentialRun(lower string, n int) bool {
	runes := []rune(lower)
	asc, desc := 1, 1
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1]+1 {
			asc++
		} else {
			asc = 1
		}
		if runes[i] == runes[i-1]-1 {
			desc++
		} else {
			desc = 1
		}
		if asc >= n || desc >= n {
			return true
		}
	}
	return false
}

// hasYearPattern detects a plausible 4-digit year (1900-2099) that is not
// part of a longer digit sequence.
func hasYearPattern(runes []rune) bool {
	for i := 0; i+4 <= len(runes); i++ {
		if i > 0 && unicode.IsDigit(runes[i-1]) {
			continue
		}
		if i+4 < len(runes) && unicode.IsDigit(runes[i+4]) {
			continue
		}
		window := runes[i : i+4]
		allDigits := true
		for _, r := range window {
			if !unicode.IsDigit(r) {
				allDigits = false
				break
			}
		}
		if !allDigits {
			continue
		}
		if (window[0] == '1' && window[1] == '9') || (window[0] == '2' && window[1] == '0') {
			return true
		}
	}
	return false
}
