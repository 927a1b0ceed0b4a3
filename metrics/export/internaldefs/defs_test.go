package internaldefs

import "testing"

func TestSeriesNamesUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, def := range CounterDefs {
		if seen[def.Name] {
			t.Fatalf("duplicate series name %q", def.Name)
		}
		seen[def.Name] = true
		if def.Help == "" {
			t.Fatalf("series %q has no help text", def.Name)
		}
	}
	for _, def := range HistogramDefs {
		if seen[def.Name] {
			t.Fatalf("duplicate series name %q", def.Name)
		}
		seen[def.Name] = true
	}
}

func TestBoundTablesAligned(t *testing.T) {
	if len(HistogramBounds) != len(HistogramBoundSuffix) {
		t.Fatalf("bound tables out of sync: %d vs %d", len(HistogramBounds), len(HistogramBoundSuffix))
	}
	if HistogramBounds[len(HistogramBounds)-1] != "+Inf" {
		t.Fatal("last bound must be +Inf")
	}
}

func TestNormalizeBuckets(t *testing.T) {
	if got := NormalizeBuckets(nil); got != [8]uint64{} {
		t.Fatalf("nil input = %v", got)
	}
	if got := NormalizeBuckets([]uint64{1, 2}); got != [8]uint64{1, 2} {
		t.Fatalf("short input = %v", got)
	}
	if got := NormalizeBuckets([]uint64{1, 2, 3, 4, 5, 6, 7, 8, 9}); got != [8]uint64{1, 2, 3, 4, 5, 6, 7, 8} {
		t.Fatalf("long input = %v", got)
	}
}

func TestCumulativeBuckets(t *testing.T) {
	got := CumulativeBuckets([8]uint64{1, 0, 2, 0, 0, 0, 0, 1})
	want := [8]uint64{1, 1, 3, 3, 3, 3, 3, 4}
	if got != want {
		t.Fatalf("cumulative = %v, want %v", got, want)
	}
}
