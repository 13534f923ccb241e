package filter

import (
	"testing"
)

func TestParseActorFilter(t *testing.T) {
	tests := []struct {
		name       string
		filter     string
		wantClause string
		wantParams []any
		wantErr    bool
	}{
		{
			name:       "empty filter",
			filter:     "",
			wantClause: "",
			wantParams: nil,
		},
		{
			name:       "whitespace only",
			filter:     "   ",
			wantClause: "",
			wantParams: nil,
		},
		{
			name:       "tier equals",
			filter:     `tier = "S"`,
			wantClause: "tier = ?",
			wantParams: []any{"S"},
		},
		{
			name:       "type maps to column",
			filter:     `type = "Enemy"`,
			wantClause: "actor_type = ?",
			wantParams: []any{"Enemy"},
		},
		{
			name:       "hp below",
			filter:     `hp < 5`,
			wantClause: "hp < ?",
			wantParams: []any{int64(5)},
		},
		{
			name:       "and",
			filter:     `type = "Enemy" AND initiative >= 20`,
			wantClause: "(actor_type = ? AND initiative >= ?)",
			wantParams: []any{"Enemy", int64(20)},
		},
		{
			name:       "or",
			filter:     `tier = "S" OR tier = "A"`,
			wantClause: "(tier = ? OR tier = ?)",
			wantParams: []any{"S", "A"},
		},
		{
			name:       "not equals",
			filter:     `max_hp != 10`,
			wantClause: "max_hp != ?",
			wantParams: []any{int64(10)},
		},
		{
			name:    "unknown field",
			filter:  `unknown = "x"`,
			wantErr: true,
		},
		{
			name:    "syntax error",
			filter:  `tier = `,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond, err := ParseActorFilter(tt.filter)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseActorFilter(%q): %v", tt.filter, err)
			}
			if cond.Clause != tt.wantClause {
				t.Fatalf("clause = %q, want %q", cond.Clause, tt.wantClause)
			}
			if len(cond.Params) != len(tt.wantParams) {
				t.Fatalf("params = %v, want %v", cond.Params, tt.wantParams)
			}
			for i := range cond.Params {
				if cond.Params[i] != tt.wantParams[i] {
					t.Fatalf("param %d = %#v, want %#v", i, cond.Params[i], tt.wantParams[i])
				}
			}
		})
	}
}

func TestSQLConditionEmpty(t *testing.T) {
	if !(SQLCondition{}).Empty() {
		t.Fatal("zero condition should be empty")
	}
	if (SQLCondition{Clause: "hp = ?"}).Empty() {
		t.Fatal("clause should not be empty")
	}
}
