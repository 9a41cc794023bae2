package password_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tiendreiliass0x/school-management-system/internal/modules/auth/password"
)

func TestValidateAccepted(t *testing.T) {
	for _, candidate := range []string{
		"Tr0ub4dor&3xyz!",
		"K9#mVp2$wLq8!f",
		"Horse-Battery7*Staple",
	} {
		res := password.Validate(candidate)
		assert.Empty(t, res.Violations, "password %q", candidate)
		assert.GreaterOrEqual(t, res.Score, password.MinScore, "password %q", candidate)
		assert.True(t, res.OK(), "password %q", candidate)
	}
}

func TestValidateRejected(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		violation string
	}{
		{"common weak", "password123", "must not contain a commonly used password"},
		{"too short", "Ab1!xyzw", "must be at least 12 characters long"},
		{"no uppercase", "tr0ub4dor&3xyz!", "must contain an uppercase letter"},
		{"no lowercase", "TR0UB4DOR&3XYZ!", "must contain a lowercase letter"},
		{"no digit", "Troubador&Wyz!A", "must contain a digit"},
		{"no symbol", "Tr0ub4dor3xyzQ", "must contain a symbol"},
		{"repeated run", "Tr0ub4dooor&3x!", "must not repeat the same character 3 or more times in a row"},
		{"keyboard walk", "Qwerty!78KmPz", "must not contain keyboard patterns"},
		{"sequential", "Tfghi9$Kmwpq2L!", "must not contain sequential characters"},
		{"year", "Tr0ub4dor&2024x!", "must not contain a year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := password.Validate(tt.candidate)
			require.False(t, res.OK())
			assert.Contains(t, res.Violations, tt.violation)
		})
	}
}

func TestValidateItemizesAllViolations(t *testing.T) {
	// Lowercase only, too short, no digit/symbol: every broken rule shows up.
	res := password.Validate("abc")
	require.False(t, res.OK())
	assert.Contains(t, res.Violations, "must be at least 12 characters long")
	assert.Contains(t, res.Violations, "must contain an uppercase letter")
	assert.Contains(t, res.Violations, "must contain a digit")
	assert.Contains(t, res.Violations, "must contain a symbol")
}

func TestValidateOverlong(t *testing.T) {
	long := make([]byte, 0, 140)
	for i := 0; i < 10; i++ {
		long = append(long, []byte("Vx7!mQp2#uLw9f")...)
	}
	res := password.Validate(string(long))
	require.False(t, res.OK())
	assert.Contains(t, res.Violations, "must be at most 128 characters long")
}

func TestScoreScalesWithLengthAndVariety(t *testing.T) {
	short := password.Validate("Vx7!mQp2#uLw")
	long := password.Validate("Vx7!mQp2#uLw9fJd5%hTze")
	assert.Greater(t, long.Score, short.Score)
	assert.LessOrEqual(t, long.Score, 100)
}
