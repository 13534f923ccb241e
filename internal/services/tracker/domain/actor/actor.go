package actor

import (
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/maze-tracker/internal/platform/errors"
)

// Tier is the coarse power classification that picks the initiative die.
type Tier string

const (
	TierS Tier = "S"
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
)

// Tiers lists every tier from strongest to weakest.
var Tiers = []Tier{TierS, TierA, TierB, TierC, TierD}

// DieSize returns the number of faces rolled for the tier.
//
// It panics on an unknown tier: tiers reaching the roller must already be
// validated.
func (t Tier) DieSize() int {
	switch t {
	case TierS:
		return 4
	case TierA:
		return 6
	case TierB:
		return 8
	case TierC:
		return 10
	case TierD:
		return 12
	default:
		panic(fmt.Sprintf("actor: unknown tier %q", string(t)))
	}
}

// ParseTier parses a user supplied tier label.
func ParseTier(value string) (Tier, error) {
	tier := Tier(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range Tiers {
		if tier == known {
			return tier, nil
		}
	}
	return "", apperrors.WithMetadata(apperrors.CodeActorInvalidTier, "invalid tier", map[string]string{"tier": value})
}

// Type classifies an actor. It has no rule effect.
type Type string

const (
	TypeNeutral     Type = "Neutral"
	TypeAlly        Type = "Ally"
	TypeEnemy       Type = "Enemy"
	TypeEnvironment Type = "Environment"
)

// Types lists every type in rotation order.
var Types = []Type{TypeNeutral, TypeAlly, TypeEnemy, TypeEnvironment}

// ParseType parses a user supplied type label, case-insensitively.
func ParseType(value string) (Type, error) {
	trimmed := strings.TrimSpace(value)
	for _, known := range Types {
		if strings.EqualFold(trimmed, string(known)) {
			return known, nil
		}
	}
	return "", apperrors.WithMetadata(apperrors.CodeActorInvalidType, "invalid type", map[string]string{"type": value})
}

// Next returns the type that follows t in rotation order.
func (t Type) Next() Type {
	for i, known := range Types {
		if known == t {
			return Types[(i+1)%len(Types)]
		}
	}
	return TypeNeutral
}

// Status is a timed effect attached to one actor.
type Status struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"`
}

// Default values applied to new actors and statuses.
const (
	DefaultTier           = TierD
	DefaultType           = TypeNeutral
	DefaultHP             = 10
	DefaultStatusDuration = 10
	MaxNameLength         = 120
)

// Actor is one combatant in a roster.
type Actor struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Tier       Tier     `json:"tier"`
	Initiative int      `json:"initiative"`
	Type       Type     `json:"type"`
	HP         int      `json:"hp"`
	MaxHP      int      `json:"max_hp"`
	Notes      string   `json:"notes"`
	Statuses   []Status `json:"statuses"`
	Tiebreak   int64    `json:"tiebreak"`
}

// Clone returns a copy that shares no status storage with a.
func (a Actor) Clone() Actor {
	out := a
	if a.Statuses != nil {
		out.Statuses = make([]Status, len(a.Statuses))
		copy(out.Statuses, a.Statuses)
	}
	return out
}

// SetMaxHP writes MaxHP, clamped at zero, and pulls HP down when needed.
func (a *Actor) SetMaxHP(value int) {
	a.MaxHP = max(0, value)
	a.HP = clampHP(a.HP, a.MaxHP)
}

// SetHP writes HP clamped to [0, MaxHP].
func (a *Actor) SetHP(value int) {
	a.HP = clampHP(value, a.MaxHP)
}

// StatusIndex returns the position of the status with id, or -1.
func (a Actor) StatusIndex(id string) int {
	for i, status := range a.Statuses {
		if status.ID == id {
			return i
		}
	}
	return -1
}

func clampHP(hp, maxHP int) int {
	return min(max(0, hp), maxHP)
}
