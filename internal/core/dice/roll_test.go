package dice

import (
	"errors"
	"sync"
	"testing"
)

func TestRollDice_Basic(t *testing.T) {
	tests := []struct {
		name    string
		specs   []Spec
		wantErr error
	}{
		{name: "single d6", specs: []Spec{{Sides: 6, Count: 1}}},
		{name: "2d6 + 1d8", specs: []Spec{{Sides: 6, Count: 2}, {Sides: 8, Count: 1}}},
		{name: "no dice", wantErr: ErrMissingDice},
		{name: "invalid sides", specs: []Spec{{Sides: 0, Count: 1}}, wantErr: ErrInvalidDiceSpec},
		{name: "invalid count", specs: []Spec{{Sides: 6, Count: 0}}, wantErr: ErrInvalidDiceSpec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := RollDice(NewSource(42), tt.specs...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RollDice() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if len(result.Rolls) != len(tt.specs) {
				t.Fatalf("RollDice() got %d rolls, want %d", len(result.Rolls), len(tt.specs))
			}
			sum := 0
			for i, roll := range result.Rolls {
				if len(roll.Results) != tt.specs[i].Count {
					t.Fatalf("Roll[%d] got %d results, want %d", i, len(roll.Results), tt.specs[i].Count)
				}
				if roll.Sides != tt.specs[i].Sides {
					t.Fatalf("Roll[%d] sides = %d, want %d", i, roll.Sides, tt.specs[i].Sides)
				}
				rollSum := 0
				for _, value := range roll.Results {
					if value < 1 || value > roll.Sides {
						t.Fatalf("Roll[%d] value %d out of range [1, %d]", i, value, roll.Sides)
					}
					rollSum += value
				}
				if rollSum != roll.Total {
					t.Fatalf("Roll[%d] total = %d, want %d", i, roll.Total, rollSum)
				}
				sum += rollSum
			}
			if result.Total != sum {
				t.Fatalf("Total = %d, want %d", result.Total, sum)
			}
		})
	}
}

func TestRollDice_Deterministic(t *testing.T) {
	first, err := RollDice(NewSource(7), Spec{Sides: 12, Count: 3})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	second, err := RollDice(NewSource(7), Spec{Sides: 12, Count: 3})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	for i := range first.Rolls[0].Results {
		if first.Rolls[0].Results[i] != second.Rolls[0].Results[i] {
			t.Fatalf("same seed produced %v and %v", first.Rolls[0].Results, second.Rolls[0].Results)
		}
	}
}

func TestRollDice_Faces(t *testing.T) {
	result, err := RollDice(Faces(12, 12, 12), Spec{Sides: 12, Count: 3})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if result.Total != 36 {
		t.Fatalf("Total = %d, want 36", result.Total)
	}

	result, err = RollDice(Faces(1, 1, 1), Spec{Sides: 4, Count: 3})
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if result.Total != 3 {
		t.Fatalf("Total = %d, want 3", result.Total)
	}
}

func TestFixedWrapsAndReduces(t *testing.T) {
	src := NewFixed(0, 9)
	if got := src.Intn(4); got != 0 {
		t.Fatalf("first = %d, want 0", got)
	}
	if got := src.Intn(4); got != 1 {
		t.Fatalf("second = %d, want 1", got)
	}
	if got := src.Intn(4); got != 0 {
		t.Fatalf("wrapped = %d, want 0", got)
	}
	if got := NewFixed().Intn(6); got != 0 {
		t.Fatalf("empty = %d, want 0", got)
	}
}

func TestNewSourceConcurrentUse(t *testing.T) {
	src := NewSource(1)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if v := src.Intn(6); v < 0 || v >= 6 {
					t.Errorf("Intn(6) = %d", v)
					return
				}
			}
		}()
	}
	wg.Wait()
}
