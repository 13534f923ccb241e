package actor

import (
	"math"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/maze-tracker/internal/platform/errors"
)

// ApplyToken applies an edit token to current.
//
// A token starting with '+' or '-' is a signed delta; any other integer is an
// absolute replacement. Deltas saturate at math.MaxInt and math.MinInt. A
// token that does not parse leaves current unchanged and reports false.
func ApplyToken(current int, token string) (int, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return current, false
	}
	value, err := strconv.Atoi(token)
	if err != nil {
		return current, false
	}
	if token[0] == '+' || token[0] == '-' {
		return addSaturated(current, value), true
	}
	return value, true
}

// Field names a numeric actor field editable with tokens.
type Field string

const (
	FieldInitiative Field = "initiative"
	FieldHP         Field = "hp"
	FieldMaxHP      Field = "max_hp"
)

// ParseField parses a numeric field name.
func ParseField(value string) (Field, error) {
	switch Field(strings.ToLower(strings.TrimSpace(value))) {
	case FieldInitiative:
		return FieldInitiative, nil
	case FieldHP:
		return FieldHP, nil
	case FieldMaxHP, "maxhp":
		return FieldMaxHP, nil
	default:
		return "", apperrors.WithMetadata(apperrors.CodeActorInvalidField, "invalid field", map[string]string{"field": value})
	}
}

// Value returns the current value of field on a.
func (a Actor) Value(field Field) int {
	switch field {
	case FieldInitiative:
		return a.Initiative
	case FieldHP:
		return a.HP
	case FieldMaxHP:
		return a.MaxHP
	default:
		return 0
	}
}

func addSaturated(a, b int) int {
	switch {
	case b > 0 && a > math.MaxInt-b:
		return math.MaxInt
	case b < 0 && a < math.MinInt-b:
		return math.MinInt
	}
	return a + b
}
