// Package dice rolls uniform dice from an injectable random source.
package dice

import (
	"errors"
	"math/rand"
	"sync"
)

var (
	// ErrMissingDice is returned when a roll names no dice.
	ErrMissingDice = errors.New("at least one die must be provided")
	// ErrInvalidDiceSpec is returned when sides or count is not positive.
	ErrInvalidDiceSpec = errors.New("dice must have positive sides and count")
)

// Source yields uniform integers in [0, n).
type Source interface {
	Intn(n int) int
}

// Spec describes a group of identical dice, for example 3d12.
type Spec struct {
	Sides int
	Count int
}

// Roll is the outcome of rolling one Spec.
type Roll struct {
	Sides   int
	Results []int
	Total   int
}

// Result holds the rolls of a request in request order.
type Result struct {
	Rolls []Roll
	Total int
}

// RollDice rolls every spec in order using src.
//
// Each die result lies in [1, Sides]. Result.Total is the sum of every die
// rolled across the request.
func RollDice(src Source, specs ...Spec) (Result, error) {
	if len(specs) == 0 {
		return Result{}, ErrMissingDice
	}

	rolls := make([]Roll, 0, len(specs))
	total := 0
	for _, spec := range specs {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return Result{}, ErrInvalidDiceSpec
		}

		results := make([]int, spec.Count)
		rollTotal := 0
		for i := range spec.Count {
			value := rollDie(src, spec.Sides)
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, Roll{
			Sides:   spec.Sides,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}

	return Result{Rolls: rolls, Total: total}, nil
}

func rollDie(src Source, sides int) int {
	return src.Intn(sides) + 1
}

// lockedSource serializes access to a math/rand generator so one source can
// back concurrent sessions.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource returns a concurrency-safe Source seeded with seed.
func NewSource(seed int64) Source {
	return &lockedSource{rng: rand.New(rand.NewSource(seed))}
}

func (s *lockedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Fixed replays a scripted sequence of zero-based values, one per Intn call.
// Values are reduced modulo n. It is meant for tests and replay.
type Fixed struct {
	mu     sync.Mutex
	values []int
	next   int
}

// NewFixed returns a Fixed source that yields values in order and wraps.
func NewFixed(values ...int) *Fixed {
	return &Fixed{values: values}
}

// Faces returns a Fixed source whose rolls land on the given die faces.
func Faces(faces ...int) *Fixed {
	values := make([]int, len(faces))
	for i, face := range faces {
		values[i] = face - 1
	}
	return NewFixed(values...)
}

func (f *Fixed) Intn(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.values) == 0 {
		return 0
	}
	value := f.values[f.next%len(f.values)]
	f.next++
	if value < 0 {
		value = 0
	}
	return value % n
}
