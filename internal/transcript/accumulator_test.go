package transcript

import "testing"

func TestAccumulatorAppendOrder(t *testing.T) {
	a := NewAccumulator()
	a.Append("hello")
	a.Append("world")

	if got := a.Snapshot(); got != "hello world " {
		t.Fatalf("expected %q, got %q", "hello world ", got)
	}
}

func TestAccumulatorSkipsEmptyFragments(t *testing.T) {
	a := NewAccumulator()
	a.Append("")
	a.Append("only")
	a.Append("")

	if got := a.Snapshot(); got != "only " {
		t.Fatalf("expected %q, got %q", "only ", got)
	}
}

func TestAccumulatorReset(t *testing.T) {
	a := NewAccumulator()
	a.Append("stale")
	a.Reset()

	if got := a.Snapshot(); got != "" {
		t.Fatalf("expected empty snapshot after reset, got %q", got)
	}
	if a.Len() != 0 {
		t.Fatalf("expected zero length after reset, got %d", a.Len())
	}
}

func TestAccumulatorSnapshotDoesNotReset(t *testing.T) {
	a := NewAccumulator()
	a.Append("keep")

	_ = a.Snapshot()
	if got := a.Snapshot(); got != "keep " {
		t.Fatalf("expected snapshot to be repeatable, got %q", got)
	}
}
