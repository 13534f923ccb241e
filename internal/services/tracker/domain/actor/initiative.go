package actor

import "github.com/louisbranch/maze-tracker/internal/core/dice"

// InitiativeDice is the number of dice rolled for initiative.
const InitiativeDice = 3

// InitiativeRoll is the outcome of one initiative roll.
type InitiativeRoll struct {
	DieSize int
	Rolls   [InitiativeDice]int
	Total   int
}

// RollInitiative rolls 3d<die> for the tier using src.
func RollInitiative(src dice.Source, tier Tier) InitiativeRoll {
	size := tier.DieSize()
	result, err := dice.RollDice(src, dice.Spec{Sides: size, Count: InitiativeDice})
	if err != nil {
		// Sides and count are constants above zero.
		panic(err)
	}
	roll := InitiativeRoll{DieSize: size, Total: result.Total}
	copy(roll.Rolls[:], result.Rolls[0].Results)
	return roll
}
