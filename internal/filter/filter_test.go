package filter

import "testing"

func TestSelectionIncludeAndSkip(t *testing.T) {
	sel, err := NewSelection([]string{"/^5Zone/", "furnace"}, []string{"unitary"})
	if err != nil {
		t.Fatalf("selection: %v", err)
	}

	tests := []struct {
		id   string
		want bool
	}{
		{"5ZoneAirCooled", true},
		{"Zone5AirCooled", false},
		{"FurnaceWithDXSystem", true},
		{"5ZoneUnitarySystem", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := sel.Selects(tt.id); got != tt.want {
			t.Fatalf("Selects(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestSelectionEmptySelectsAll(t *testing.T) {
	var sel Selection
	if !sel.Selects("anything") {
		t.Fatalf("empty selection should select every case")
	}
	skipOnly, err := NewSelection(nil, []string{" ", "slow"})
	if err != nil {
		t.Fatalf("selection: %v", err)
	}
	if len(skipOnly.Skip) != 1 || skipOnly.Skip[0].String() != "slow" {
		t.Fatalf("blank patterns should be dropped: %v", skipOnly.Skip)
	}
	if skipOnly.Selects("VerySlowCase") || !skipOnly.Selects("Fast") {
		t.Fatalf("skip pattern not applied")
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := Compile([]string{"/(/"}); err == nil {
		t.Fatalf("expected compile error")
	}
	if _, err := NewSelection(nil, []string{"/[/"}); err == nil {
		t.Fatalf("expected compile error for skip patterns")
	}
}
