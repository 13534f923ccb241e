package roster

import (
	"fmt"
	"math"
	"strconv"
	"testing"

	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/actor"
	"github.com/louisbranch/maze-tracker/internal/services/tracker/domain/history"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestRoster(opts ...Option) *Roster {
	return New(append([]Option{WithIDs(sequentialIDs())}, opts...)...)
}

func TestAddAppliesDefaults(t *testing.T) {
	r := newTestRoster()
	a, events := r.Add(Draft{})
	if a.ID != "id-1" || a.Name != "New Actor 1" {
		t.Fatalf("added %+v", a)
	}
	if a.Tier != actor.TierD || a.Type != actor.TypeNeutral || a.Initiative != 0 {
		t.Fatalf("defaults = %+v", a)
	}
	if a.HP != 10 || a.MaxHP != 10 || len(a.Statuses) != 0 {
		t.Fatalf("hp defaults = %+v", a)
	}
	if len(events) != 1 || events[0].Key != history.KeyActorAdded || events[0].Args[0] != "New Actor 1" {
		t.Fatalf("events = %+v", events)
	}

	b, _ := r.Add(Draft{Name: " Goblin ", Tier: actor.TierA, MaxHP: 7})
	if b.Name != "Goblin" || b.Tier != actor.TierA || b.HP != 7 || b.MaxHP != 7 {
		t.Fatalf("draft fields = %+v", b)
	}
	if b.Tiebreak <= a.Tiebreak {
		t.Fatalf("tiebreak did not increase: %d then %d", a.Tiebreak, b.Tiebreak)
	}
	c, _ := r.Add(Draft{})
	if c.Name != "New Actor 3" {
		t.Fatalf("counter name = %q", c.Name)
	}
}

func TestAddUsesConfiguredNames(t *testing.T) {
	r := newTestRoster(WithNames(Names{
		Actor:  func(n int) string { return fmt.Sprintf("Novo Ator %d", n) },
		Status: "Novo Status",
	}))
	a, _ := r.Add(Draft{})
	if a.Name != "Novo Ator 1" {
		t.Fatalf("name = %q", a.Name)
	}
	a, _, _ = r.AddStatus(a.ID, StatusDraft{})
	if a.Statuses[0].Name != "Novo Status" || a.Statuses[0].Duration != 10 {
		t.Fatalf("status = %+v", a.Statuses[0])
	}
}

func TestDraftValidate(t *testing.T) {
	if err := (Draft{Tier: "Q"}).Validate(); err == nil {
		t.Fatal("expected tier error")
	}
	if err := (Draft{Type: "Boss"}).Validate(); err == nil {
		t.Fatal("expected type error")
	}
	long := make([]byte, actor.MaxNameLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if err := (Draft{Name: string(long)}).Validate(); err == nil {
		t.Fatal("expected name error")
	}
	if err := (Draft{Name: "Orc", Tier: actor.TierC, Type: actor.TypeEnemy}).Validate(); err != nil {
		t.Fatalf("valid draft: %v", err)
	}
}

func TestLabelsAreNormalized(t *testing.T) {
	r := newTestRoster()
	a, _ := r.Add(Draft{Tier: "s", Type: "enemy"})
	if a.Tier != actor.TierS || a.Type != actor.TypeEnemy {
		t.Fatalf("added = %s/%s", a.Tier, a.Type)
	}

	tier := actor.Tier("b")
	typ := actor.Type("ALLY")
	a, _ = r.Update(a.ID, Patch{Tier: &tier, Type: &typ})
	if a.Tier != actor.TierB || a.Type != actor.TypeAlly {
		t.Fatalf("updated = %s/%s", a.Tier, a.Type)
	}

	bad := actor.Tier("Z")
	if err := (Patch{Tier: &bad}).Validate(); err == nil {
		t.Fatal("expected tier error")
	}
	a, _ = r.Update(a.ID, Patch{Tier: &bad})
	if a.Tier != actor.TierB {
		t.Fatalf("invalid tier applied: %s", a.Tier)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := newTestRoster()
	a, _ := r.Add(Draft{Name: "Orc"})

	events := r.Remove(a.ID)
	if len(events) != 1 || events[0].Key != history.KeyActorRemoved || events[0].Args[0] != "Orc" {
		t.Fatalf("first remove events = %+v", events)
	}
	if events := r.Remove(a.ID); len(events) != 0 {
		t.Fatalf("second remove events = %+v", events)
	}
	if r.Len() != 0 {
		t.Fatalf("Len = %d", r.Len())
	}
}

func TestUpdateKeepsHPInvariant(t *testing.T) {
	tests := []struct {
		name      string
		patch     Patch
		wantHP    int
		wantMaxHP int
	}{
		{name: "hp over max", patch: Patch{HP: intPtr(50)}, wantHP: 20, wantMaxHP: 20},
		{name: "hp negative", patch: Patch{HP: intPtr(-5)}, wantHP: 0, wantMaxHP: 20},
		{name: "max below hp", patch: Patch{MaxHP: intPtr(12)}, wantHP: 12, wantMaxHP: 12},
		{name: "both in one patch", patch: Patch{MaxHP: intPtr(5), HP: intPtr(9)}, wantHP: 5, wantMaxHP: 5},
		{name: "negative max", patch: Patch{MaxHP: intPtr(-3)}, wantHP: 0, wantMaxHP: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRoster()
			a, _ := r.Add(Draft{MaxHP: 20})
			got, ok := r.Update(a.ID, tt.patch)
			if !ok {
				t.Fatal("update reported unknown actor")
			}
			if got.HP != tt.wantHP || got.MaxHP != tt.wantMaxHP {
				t.Fatalf("hp/max = %d/%d, want %d/%d", got.HP, got.MaxHP, tt.wantHP, tt.wantMaxHP)
			}
			if got.HP < 0 || got.HP > got.MaxHP {
				t.Fatalf("invariant broken: %+v", got)
			}
		})
	}
}

func TestUpdateUnknownIsNoop(t *testing.T) {
	r := newTestRoster()
	if _, ok := r.Update("missing", Patch{Name: strPtr("x")}); ok {
		t.Fatal("expected no-op")
	}
	if _, ok := r.EditNumber("missing", actor.FieldHP, "+1"); ok {
		t.Fatal("expected no-op")
	}
	if _, ok := r.CycleType("missing"); ok {
		t.Fatal("expected no-op")
	}
	if _, _, ok := r.AddStatus("missing", StatusDraft{}); ok {
		t.Fatal("expected no-op")
	}
}

func TestUpdateInitiativeRefreshesTiebreak(t *testing.T) {
	r := newTestRoster()
	a, _ := r.Add(Draft{Name: "A"})
	b, _ := r.Add(Draft{Name: "B"})

	five := 5
	r.Update(b.ID, Patch{Initiative: &five})
	r.Update(a.ID, Patch{Initiative: &five})

	ordered := r.Ordered()
	if ordered[0].ID != b.ID || ordered[1].ID != a.ID {
		t.Fatalf("order = %s, %s; want B then A", ordered[0].Name, ordered[1].Name)
	}

	name := "Renamed"
	before, _ := r.Get(b.ID)
	after, _ := r.Update(b.ID, Patch{Name: &name})
	if after.Tiebreak != before.Tiebreak {
		t.Fatal("tiebreak changed without an initiative write")
	}
}

func TestEditNumber(t *testing.T) {
	tests := []struct {
		name      string
		hp, maxHP int
		field     actor.Field
		token     string
		wantHP    int
		wantMaxHP int
		applied   bool
	}{
		{name: "plus clamps to max 20", hp: 10, maxHP: 20, field: actor.FieldHP, token: "+5", wantHP: 15, wantMaxHP: 20, applied: true},
		{name: "plus clamps to max 10", hp: 10, maxHP: 10, field: actor.FieldHP, token: "+5", wantHP: 10, wantMaxHP: 10, applied: true},
		{name: "minus clamps at zero", hp: 2, maxHP: 10, field: actor.FieldHP, token: "-3", wantHP: 0, wantMaxHP: 10, applied: true},
		{name: "absolute", hp: 10, maxHP: 10, field: actor.FieldHP, token: "8", wantHP: 8, wantMaxHP: 10, applied: true},
		{name: "garbage keeps value", hp: 10, maxHP: 10, field: actor.FieldHP, token: "abc", wantHP: 10, wantMaxHP: 10, applied: false},
		{name: "lower max clamps hp", hp: 10, maxHP: 10, field: actor.FieldMaxHP, token: "-4", wantHP: 6, wantMaxHP: 6, applied: true},
		{name: "huge plus clamps to max", hp: 5, maxHP: 10, field: actor.FieldHP, token: "+" + strconv.Itoa(math.MaxInt), wantHP: 10, wantMaxHP: 10, applied: true},
		{name: "huge minus clamps at zero", hp: 5, maxHP: 10, field: actor.FieldHP, token: "-" + strconv.Itoa(math.MaxInt), wantHP: 0, wantMaxHP: 10, applied: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRoster()
			a, _ := r.Add(Draft{MaxHP: tt.maxHP})
			hp := tt.hp
			r.Update(a.ID, Patch{HP: &hp})

			got, applied := r.EditNumber(a.ID, tt.field, tt.token)
			if applied != tt.applied {
				t.Fatalf("applied = %v, want %v", applied, tt.applied)
			}
			if got.HP != tt.wantHP || got.MaxHP != tt.wantMaxHP {
				t.Fatalf("hp/max = %d/%d, want %d/%d", got.HP, got.MaxHP, tt.wantHP, tt.wantMaxHP)
			}
		})
	}
}

func TestEditNumberInitiative(t *testing.T) {
	r := newTestRoster()
	a, _ := r.Add(Draft{})
	got, _ := r.EditNumber(a.ID, actor.FieldInitiative, "12")
	got, _ = r.EditNumber(a.ID, actor.FieldInitiative, "-2")
	if got.Initiative != 10 {
		t.Fatalf("initiative = %d, want 10", got.Initiative)
	}
}

func TestEditNumberInitiativeSaturates(t *testing.T) {
	r := newTestRoster()
	a, _ := r.Add(Draft{})
	r.EditNumber(a.ID, actor.FieldInitiative, "5")
	got, _ := r.EditNumber(a.ID, actor.FieldInitiative, "+"+strconv.Itoa(math.MaxInt))
	if got.Initiative != math.MaxInt {
		t.Fatalf("initiative = %d, want MaxInt", got.Initiative)
	}
	r.EditNumber(a.ID, actor.FieldInitiative, "-5")
	got, _ = r.EditNumber(a.ID, actor.FieldInitiative, "-"+strconv.Itoa(math.MaxInt))
	if got.Initiative != math.MinInt {
		t.Fatalf("initiative = %d, want MinInt", got.Initiative)
	}
}

func TestCycleType(t *testing.T) {
	r := newTestRoster()
	a, _ := r.Add(Draft{})
	want := []actor.Type{actor.TypeAlly, actor.TypeEnemy, actor.TypeEnvironment, actor.TypeNeutral}
	for _, typ := range want {
		got, _ := r.CycleType(a.ID)
		if got.Type != typ {
			t.Fatalf("type = %s, want %s", got.Type, typ)
		}
	}
}

func TestStatusLifecycle(t *testing.T) {
	r := newTestRoster()
	a, _ := r.Add(Draft{Name: "Orc"})

	a, events, ok := r.AddStatus(a.ID, StatusDraft{Name: "Poison", Duration: intPtr(30)})
	if !ok || len(a.Statuses) != 1 {
		t.Fatalf("add status: ok=%v statuses=%+v", ok, a.Statuses)
	}
	if len(events) != 1 || events[0].Key != history.KeyStatusAdded || events[0].Args[0] != "Orc" {
		t.Fatalf("events = %+v", events)
	}
	statusID := a.Statuses[0].ID

	a, _ = r.EditStatusDuration(a.ID, statusID, "-5")
	if a.Statuses[0].Duration != 25 {
		t.Fatalf("duration = %d, want 25", a.Statuses[0].Duration)
	}
	a, _ = r.EditStatusDuration(a.ID, statusID, "-50")
	if a.Statuses[0].Duration != 0 {
		t.Fatalf("duration = %d, want 0", a.Statuses[0].Duration)
	}
	if _, applied := r.EditStatusDuration(a.ID, statusID, "x"); applied {
		t.Fatal("garbage token applied")
	}

	name := "Venom"
	a, _ = r.UpdateStatus(a.ID, statusID, StatusPatch{Name: &name})
	if a.Statuses[0].Name != "Venom" {
		t.Fatalf("name = %q", a.Statuses[0].Name)
	}

	if _, ok := r.UpdateStatus(a.ID, "missing", StatusPatch{Name: &name}); ok {
		t.Fatal("unknown status updated")
	}
	if _, ok := r.RemoveStatus(a.ID, "missing"); ok {
		t.Fatal("unknown status removed")
	}
	a, ok = r.RemoveStatus(a.ID, statusID)
	if !ok || len(a.Statuses) != 0 {
		t.Fatalf("remove status: ok=%v statuses=%+v", ok, a.Statuses)
	}
}

func TestOrderedDirections(t *testing.T) {
	build := func(order Order) []string {
		r := newTestRoster(WithOrder(order))
		for _, init := range []int{30, 10, 20} {
			a, _ := r.Add(Draft{Name: fmt.Sprint(init)})
			v := init
			r.Update(a.ID, Patch{Initiative: &v})
		}
		var names []string
		for _, a := range r.Ordered() {
			names = append(names, a.Name)
		}
		return names
	}
	if got := build(Ascending); fmt.Sprint(got) != "[10 20 30]" {
		t.Fatalf("ascending = %v", got)
	}
	if got := build(Descending); fmt.Sprint(got) != "[30 20 10]" {
		t.Fatalf("descending = %v", got)
	}
}

func TestCompareExtremeInitiatives(t *testing.T) {
	high := actor.Actor{ID: "a", Initiative: math.MaxInt}
	low := actor.Actor{ID: "b", Initiative: -1}
	floor := actor.Actor{ID: "c", Initiative: math.MinInt}

	asc := newTestRoster(WithOrder(Ascending))
	if asc.Compare(high, low) <= 0 || asc.Compare(low, high) >= 0 || asc.Compare(floor, high) >= 0 {
		t.Fatal("ascending compare has the wrong sign for extreme initiatives")
	}
	desc := newTestRoster(WithOrder(Descending))
	if desc.Compare(high, low) >= 0 || desc.Compare(floor, high) <= 0 {
		t.Fatal("descending compare has the wrong sign for extreme initiatives")
	}

	r := newTestRoster()
	for _, init := range []int{math.MaxInt, -1, math.MinInt, 0} {
		a, _ := r.Add(Draft{Name: fmt.Sprint(init)})
		v := init
		r.Update(a.ID, Patch{Initiative: &v})
	}
	var got []int
	for _, a := range r.Ordered() {
		got = append(got, a.Initiative)
	}
	want := fmt.Sprint([]int{math.MinInt, -1, 0, math.MaxInt})
	if fmt.Sprint(got) != want {
		t.Fatalf("ordered = %v, want %v", got, want)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	r := newTestRoster()
	a, _ := r.Add(Draft{})
	r.AddStatus(a.ID, StatusDraft{})
	got, _ := r.Get(a.ID)
	got.Statuses[0].Duration = 99
	again, _ := r.Get(a.ID)
	if again.Statuses[0].Duration != 10 {
		t.Fatal("Get leaked internal state")
	}
}

func TestRestoreContinuesCounters(t *testing.T) {
	r := newTestRoster()
	r.Restore([]actor.Actor{{ID: "x", Name: "Old", Tier: actor.TierD, Tiebreak: 40, MaxHP: 10, HP: 10}}, 4)
	a, _ := r.Add(Draft{})
	if a.Name != "New Actor 5" {
		t.Fatalf("name = %q", a.Name)
	}
	if a.Tiebreak <= 40 {
		t.Fatalf("tiebreak = %d", a.Tiebreak)
	}
	r.Clear()
	if r.Len() != 0 || r.Counter() != 5 {
		t.Fatalf("after clear Len=%d Counter=%d", r.Len(), r.Counter())
	}
}

func TestParseOrder(t *testing.T) {
	if o, err := ParseOrder("DESC"); err != nil || o != Descending {
		t.Fatalf("ParseOrder(DESC) = %v, %v", o, err)
	}
	if o, err := ParseOrder(""); err != nil || o != Ascending {
		t.Fatalf("ParseOrder(\"\") = %v, %v", o, err)
	}
	if _, err := ParseOrder("sideways"); err == nil {
		t.Fatal("expected error")
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
