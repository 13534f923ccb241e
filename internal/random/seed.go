// Package random seeds the tracker's dice from crypto/rand.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/louisbranch/maze-tracker/internal/core/dice"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// NewDiceSource returns a dice source seeded from crypto/rand, or from seed
// when it is non-zero so sessions can be replayed.
func NewDiceSource(seed int64) (dice.Source, error) {
	if seed != 0 {
		return dice.NewSource(seed), nil
	}
	generated, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return dice.NewSource(generated), nil
}
