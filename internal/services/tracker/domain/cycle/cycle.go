// Package cycle advances a roster through combat rounds.
//
// The engine has two modes. Steady is the initial mode. RollAll moves the
// engine to PostRoll, and the next NextCycle snaps every raw roll down to a
// multiple of ten before returning to Steady. In Steady each cycle subtracts
// ten from initiative, never going below zero. Status durations drop by ten
// every cycle regardless of mode and statuses that reach zero expire.
package cycle

import (
	"math"

	"github.com/louisbranch/maze-tracker/internal/core/dice"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/actor"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/history"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/roster"
)

// Step is the amount removed from initiative and status durations per cycle.
const Step = 10

// Mode is the engine state.
type Mode int

const (
	// Steady subtracts Step from initiative each cycle.
	Steady Mode = iota
	// PostRoll snaps initiative to the Step grid on the next cycle.
	PostRoll
)

func (m Mode) String() string {
	if m == PostRoll {
		return "post_roll"
	}
	return "steady"
}

// Engine applies bulk operations to a roster. Its mode belongs to the
// session and is not persisted with actors.
type Engine struct {
	Mode Mode
}

// Change is the new state of one actor after a bulk operation.
type Change struct {
	Actor actor.Actor
	Roll  *actor.InitiativeRoll
}

// Result is the outcome of a bulk operation. Events are in log order.
type Result struct {
	Changes []Change
	Events  []history.Event
}

// RollAll rolls initiative for every actor in turn order.
//
// An empty roster is left untouched and the mode does not change.
func (e *Engine) RollAll(r *roster.Roster, src dice.Source) Result {
	actors := r.Ordered()
	if len(actors) == 0 {
		return Result{}
	}

	result := Result{Events: []history.Event{history.NewEvent(history.KeyRollAll)}}
	for _, a := range actors {
		roll := actor.RollInitiative(src, a.Tier)
		total := roll.Total
		updated, _ := r.Update(a.ID, roster.Patch{Initiative: &total})
		result.Changes = append(result.Changes, Change{Actor: updated, Roll: &roll})
		result.Events = append(result.Events, history.NewEvent(
			history.KeyActorRolled,
			a.Name, roll.DieSize, roll.Rolls[0], roll.Rolls[1], roll.Rolls[2], roll.Total,
		))
	}
	e.Mode = PostRoll
	return result
}

// NextCycle advances every actor by one round.
//
// An empty roster is left untouched and the mode does not change.
func (e *Engine) NextCycle(r *roster.Roster) Result {
	actors := r.Ordered()
	if len(actors) == 0 {
		return Result{}
	}

	result := Result{Events: []history.Event{history.NewEvent(history.KeyCycleAdvanced)}}
	for _, a := range actors {
		initiative := e.advance(a.Initiative)
		statuses := make([]actor.Status, 0, len(a.Statuses))
		for _, status := range a.Statuses {
			status.Duration = max(0, status.Duration-Step)
			if status.Duration == 0 {
				result.Events = append(result.Events, history.NewEvent(history.KeyStatusExpired, status.Name, a.Name))
				continue
			}
			statuses = append(statuses, status)
		}
		updated, _ := r.Update(a.ID, roster.Patch{Initiative: &initiative, Statuses: &statuses})
		result.Changes = append(result.Changes, Change{Actor: updated})
	}
	e.Mode = Steady
	return result
}

func (e *Engine) advance(initiative int) int {
	if e.Mode == PostRoll {
		return floorStep(initiative)
	}
	if initiative <= Step {
		return 0
	}
	return initiative - Step
}

// floorStep rounds down to a multiple of Step, toward negative infinity.
// Values below the lowest representable multiple stay on that multiple.
func floorStep(value int) int {
	q := value / Step
	if value%Step != 0 && value < 0 && q > math.MinInt/Step {
		q--
	}
	return q * Step
}

// ClearAll removes every actor and returns the clear event. The caller
// records the event before wiping the session log, so the event reaches
// listeners but does not remain in the log.
func (e *Engine) ClearAll(r *roster.Roster) Result {
	r.Clear()
	e.Mode = Steady
	return Result{Events: []history.Event{history.NewEvent(history.KeySessionCleared)}}
}
