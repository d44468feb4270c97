package dispatch

import (
	"testing"

	"github.com/relayd/relayd/internal/chanop"
)

func TestParseModeStringQuery(t *testing.T) {
	changes, isQuery := parseModeString("", nil)
	if !isQuery || changes != nil {
		t.Fatalf("empty modestring should be a bare query, got changes=%v isQuery=%v", changes, isQuery)
	}
}

func TestParseModeStringBareLetters(t *testing.T) {
	changes, isQuery := parseModeString("b", nil)
	if !isQuery {
		t.Fatal("a bare letter list (no +/-) should be a query")
	}
	if len(changes) != 1 || changes[0].Letter != 'b' {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestParseModeStringSetWithParams(t *testing.T) {
	changes, isQuery := parseModeString("+ov", []string{"alice", "bob"})
	if isQuery {
		t.Fatal("+/- modestring should not be a query")
	}
	want := []chanop.ModeChange{
		{Add: true, Letter: 'o', Param: "alice"},
		{Add: true, Letter: 'v', Param: "bob"},
	}
	if len(changes) != len(want) {
		t.Fatalf("changes = %+v", changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("changes[%d] = %+v, want %+v", i, changes[i], want[i])
		}
	}
}

func TestParseModeStringUnsetConsumesParamsInOrder(t *testing.T) {
	// Both -k and -o consume a parameter on unset; with only one
	// parameter supplied, the first letter claims it and the second
	// gets none.
	changes, _ := parseModeString("-ko", []string{"bob"})
	want := []chanop.ModeChange{
		{Add: false, Letter: 'k', Param: "bob"},
		{Add: false, Letter: 'o'},
	}
	if len(changes) != len(want) {
		t.Fatalf("changes = %+v", changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("changes[%d] = %+v, want %+v", i, changes[i], want[i])
		}
	}
}

func TestParseModeStringUnsetSimpleLetterTakesNoParam(t *testing.T) {
	// -n (no-external-messages) is a simple flag, absent from
	// modeParamOnUnset, so it never consumes a parameter.
	changes, _ := parseModeString("-n", []string{"ignored"})
	want := []chanop.ModeChange{{Add: false, Letter: 'n'}}
	if len(changes) != len(want) || changes[0] != want[0] {
		t.Fatalf("changes = %+v, want %+v", changes, want)
	}
}

func TestParseModeStringMixedAddRemove(t *testing.T) {
	changes, isQuery := parseModeString("+nt-s", nil)
	if isQuery {
		t.Fatal("should not be a query")
	}
	want := []chanop.ModeChange{
		{Add: true, Letter: 'n'},
		{Add: true, Letter: 't'},
		{Add: false, Letter: 's'},
	}
	if len(changes) != len(want) {
		t.Fatalf("changes = %+v", changes)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("changes[%d] = %+v, want %+v", i, changes[i], want[i])
		}
	}
}
