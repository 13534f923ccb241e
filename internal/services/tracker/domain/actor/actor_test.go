package actor

import (
	"testing"

	"github.com/louisbranch/maze-tracker/internal/core/dice"
	apperrors "github.com/louisbranch/maze-tracker/internal/platform/errors"
)

func TestTierDieSize(t *testing.T) {
	want := map[Tier]int{TierS: 4, TierA: 6, TierB: 8, TierC: 10, TierD: 12}
	for tier, size := range want {
		if got := tier.DieSize(); got != size {
			t.Fatalf("%s.DieSize() = %d, want %d", tier, got, size)
		}
	}
}

func TestTierDieSizePanicsOnUnknownTier(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	Tier("Z").DieSize()
}

func TestParseTier(t *testing.T) {
	if got, err := ParseTier(" b "); err != nil || got != TierB {
		t.Fatalf("ParseTier(b) = %q, %v", got, err)
	}
	_, err := ParseTier("E")
	if !apperrors.IsCode(err, apperrors.CodeActorInvalidTier) {
		t.Fatalf("ParseTier(E) error = %v, want invalid tier", err)
	}
}

func TestParseType(t *testing.T) {
	if got, err := ParseType("enemy"); err != nil || got != TypeEnemy {
		t.Fatalf("ParseType(enemy) = %q, %v", got, err)
	}
	if _, err := ParseType("boss"); !apperrors.IsCode(err, apperrors.CodeActorInvalidType) {
		t.Fatalf("ParseType(boss) error = %v", err)
	}
}

func TestTypeNextRotates(t *testing.T) {
	got := []Type{TypeNeutral}
	for range 4 {
		got = append(got, got[len(got)-1].Next())
	}
	want := []Type{TypeNeutral, TypeAlly, TypeEnemy, TypeEnvironment, TypeNeutral}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rotation = %v, want %v", got, want)
		}
	}
	if Type("").Next() != TypeNeutral {
		t.Fatal("unknown type should rotate to Neutral")
	}
}

func TestHPInvariant(t *testing.T) {
	tests := []struct {
		name      string
		hp, maxHP int
		setHP     *int
		setMax    *int
		wantHP    int
		wantMaxHP int
	}{
		{name: "hp above max clamps", hp: 5, maxHP: 10, setHP: ptr(15), wantHP: 10, wantMaxHP: 10},
		{name: "hp below zero clamps", hp: 5, maxHP: 10, setHP: ptr(-4), wantHP: 0, wantMaxHP: 10},
		{name: "lower max pulls hp", hp: 9, maxHP: 10, setMax: ptr(6), wantHP: 6, wantMaxHP: 6},
		{name: "raise max keeps hp", hp: 9, maxHP: 10, setMax: ptr(20), wantHP: 9, wantMaxHP: 20},
		{name: "negative max clamps to zero", hp: 3, maxHP: 10, setMax: ptr(-1), wantHP: 0, wantMaxHP: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Actor{HP: tt.hp, MaxHP: tt.maxHP}
			if tt.setMax != nil {
				a.SetMaxHP(*tt.setMax)
			}
			if tt.setHP != nil {
				a.SetHP(*tt.setHP)
			}
			if a.HP != tt.wantHP || a.MaxHP != tt.wantMaxHP {
				t.Fatalf("hp/max = %d/%d, want %d/%d", a.HP, a.MaxHP, tt.wantHP, tt.wantMaxHP)
			}
			if a.HP < 0 || a.HP > a.MaxHP {
				t.Fatalf("invariant broken: hp=%d max=%d", a.HP, a.MaxHP)
			}
		})
	}
}

func TestCloneCopiesStatuses(t *testing.T) {
	a := Actor{Statuses: []Status{{ID: "s1", Name: "Stun", Duration: 10}}}
	b := a.Clone()
	b.Statuses[0].Duration = 0
	if a.Statuses[0].Duration != 10 {
		t.Fatal("clone shares status storage")
	}
	if idx := a.StatusIndex("s1"); idx != 0 {
		t.Fatalf("StatusIndex = %d", idx)
	}
	if idx := a.StatusIndex("missing"); idx != -1 {
		t.Fatalf("StatusIndex(missing) = %d", idx)
	}
}

func TestRollInitiative(t *testing.T) {
	tests := []struct {
		tier      Tier
		faces     []int
		wantTotal int
		wantDie   int
	}{
		{tier: TierD, faces: []int{12, 12, 12}, wantTotal: 36, wantDie: 12},
		{tier: TierS, faces: []int{1, 1, 1}, wantTotal: 3, wantDie: 4},
		{tier: TierB, faces: []int{2, 5, 8}, wantTotal: 15, wantDie: 8},
	}
	for _, tt := range tests {
		roll := RollInitiative(dice.Faces(tt.faces...), tt.tier)
		if roll.Total != tt.wantTotal || roll.DieSize != tt.wantDie {
			t.Fatalf("%s roll = %+v, want total %d die %d", tt.tier, roll, tt.wantTotal, tt.wantDie)
		}
		for i, face := range tt.faces {
			if roll.Rolls[i] != face {
				t.Fatalf("%s rolls = %v, want %v", tt.tier, roll.Rolls, tt.faces)
			}
		}
	}
}

func TestRollInitiativeStaysInRange(t *testing.T) {
	src := dice.NewSource(3)
	for _, tier := range Tiers {
		for range 200 {
			roll := RollInitiative(src, tier)
			sum := 0
			for _, r := range roll.Rolls {
				if r < 1 || r > tier.DieSize() {
					t.Fatalf("%s rolled %d outside [1, %d]", tier, r, tier.DieSize())
				}
				sum += r
			}
			if sum != roll.Total {
				t.Fatalf("%s total = %d, want %d", tier, roll.Total, sum)
			}
		}
	}
}

func ptr(v int) *int { return &v }
