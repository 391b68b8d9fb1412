package jitstub

import (
	"testing"

	"gloom/internal/object"
	"gloom/internal/types"
)

func TestProfilerTierThresholds(t *testing.T) {
	p := NewProfiler()
	fn := &object.GloomFunc{Name: "hot"}

	var lastTier Tier
	var crossings int
	for i := 0; i < 1000; i++ {
		crossed, tier := p.RecordCall(fn)
		if crossed {
			crossings++
			lastTier = tier
		}
	}
	if crossings != 2 {
		t.Fatalf("expected exactly 2 threshold crossings (100 and 1000), got %d", crossings)
	}
	if lastTier != TierOptimized {
		t.Fatalf("expected the final crossing to report TierOptimized, got %v", lastTier)
	}
}

func TestProfilerCountsPerFunctionIndependently(t *testing.T) {
	p := NewProfiler()
	a := &object.GloomFunc{Name: "a"}
	b := &object.GloomFunc{Name: "b"}

	for i := 0; i < 100; i++ {
		p.RecordCall(a)
	}
	crossed, tier := p.RecordCall(b)
	if crossed {
		t.Fatalf("expected b's first call not to cross a threshold")
	}
	_ = tier
}

func TestCompileNeverSucceeds(t *testing.T) {
	fn := &object.GloomFunc{
		Name:       "f",
		ReturnType: types.Int,
		Params:     []object.Param{{Name: "x", Type: types.Int}},
	}
	m, err := Compile(fn, TierQuickJIT)
	if err == nil {
		t.Fatalf("expected Compile to always report an error")
	}
	if m == nil {
		t.Fatalf("expected a non-nil module even though compilation is declined")
	}
}
