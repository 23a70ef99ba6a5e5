package attendance

import "testing"

func TestAdvanceCountersUnmarked(t *testing.T) {
	total, present := 3, 2
	for i := 0; i < 5; i++ {
		var percent float64
		total, present, percent = advanceCounters(total, present, MarkUnset)
		want := float64(present) * 100 / float64(total)
		if percent != want {
			t.Fatalf("run %d: expected percent %v, got %v", i, want, percent)
		}
	}
	if total != 8 {
		t.Fatalf("expected 5 unmarked runs to advance total to 8, got %d", total)
	}
	if present != 2 {
		t.Fatalf("expected present unchanged at 2, got %d", present)
	}
}

func TestAdvanceCountersPresent(t *testing.T) {
	total, present, percent := advanceCounters(9, 4, MarkPresent)
	if total != 10 || present != 5 {
		t.Fatalf("expected 10/5, got %d/%d", total, present)
	}
	if percent != 50 {
		t.Fatalf("expected percent 50, got %v", percent)
	}
}

func TestAdvanceCountersAbsent(t *testing.T) {
	total, present, percent := advanceCounters(4, 4, MarkAbsent)
	if total != 5 || present != 4 {
		t.Fatalf("expected 5/4, got %d/%d", total, present)
	}
	if percent != 80 {
		t.Fatalf("expected percent 80, got %v", percent)
	}
}

func TestAdvanceCountersFreshRow(t *testing.T) {
	total, present, percent := advanceCounters(0, 0, MarkPresent)
	if total != 1 || present != 1 || percent != 100 {
		t.Fatalf("expected 1/1 at 100%%, got %d/%d at %v", total, present, percent)
	}
	total, present, percent = advanceCounters(0, 0, MarkUnset)
	if total != 1 || present != 0 || percent != 0 {
		t.Fatalf("expected 1/0 at 0%%, got %d/%d at %v", total, present, percent)
	}
}

func TestAdvanceCountersMonotonic(t *testing.T) {
	total, present := 0, 0
	marks := []Mark{MarkPresent, MarkAbsent, MarkUnset, MarkPresent, MarkPresent}
	for i, mark := range marks {
		prevTotal, prevPresent := total, present
		var percent float64
		total, present, percent = advanceCounters(total, present, mark)
		if total < prevTotal || present < prevPresent {
			t.Fatalf("step %d regressed counters: %d/%d -> %d/%d", i, prevTotal, prevPresent, total, present)
		}
		if present > total {
			t.Fatalf("step %d: present %d exceeds total %d", i, present, total)
		}
		if percent < 0 || percent > 100 {
			t.Fatalf("step %d: percent %v out of range", i, percent)
		}
	}
	if total != 5 || present != 3 {
		t.Fatalf("expected 5/3 after sequence, got %d/%d", total, present)
	}
}
