package persist

import (
	"testing"

	"github.com/relayd/relayd/internal/chanop"
)

func TestModeLettersToChangesFlagsOnly(t *testing.T) {
	changes := ModeLettersToChanges("nt", "", 0, false)
	want := []chanop.ModeChange{
		{Add: true, Letter: 'n'},
		{Add: true, Letter: 't'},
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

func TestModeLettersToChangesWithKeyAndLimit(t *testing.T) {
	changes := ModeLettersToChanges("nt", "hunter2", 25, true)
	if len(changes) != 4 {
		t.Fatalf("changes = %+v, want 4 entries", changes)
	}
	last := changes[len(changes)-1]
	if last.Letter != 'l' || last.Param != "25" {
		t.Errorf("last change = %+v, want limit 25", last)
	}
	keyChange := changes[2]
	if keyChange.Letter != 'k' || keyChange.Param != "hunter2" {
		t.Errorf("key change = %+v", keyChange)
	}
}

func TestModeLettersToChangesNoLimitOmitsL(t *testing.T) {
	changes := ModeLettersToChanges("s", "", 0, false)
	for _, c := range changes {
		if c.Letter == 'l' {
			t.Fatalf("hasLimit=false must not produce an 'l' change, got %+v", changes)
		}
	}
}
