package runtime

import (
	"testing"

	fieldruntime "github.com/voxelforge/field-runtime"
	"github.com/voxelforge/field-runtime/graph"
)

func TestAnalyzeRangeBoundsOutput(t *testing.T) {
	r := compileGraph(t, addXYGraph(t))
	s := prepare(t, r, 1)

	out := r.AnalyzeRange(s,
		fieldruntime.Vector3{X: -1, Y: 10, Z: 0},
		fieldruntime.Vector3{X: 2, Y: 20, Z: 0})
	if out.Min != 9 || out.Max != 22 {
		t.Fatalf("range = [%g, %g], want [9, 22]", out.Min, out.Max)
	}
}

func TestAnalyzeRangePanicsOnInvertedBox(t *testing.T) {
	r := compileGraph(t, addXYGraph(t))
	s := prepare(t, r, 1)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on inverted analysis box")
		}
	}()
	r.AnalyzeRange(s, fieldruntime.Vector3{X: 1}, fieldruntime.Vector3{X: 0})
}

func TestAnalyzeRangeResetsConsumerCounts(t *testing.T) {
	registerTestOps()
	g := graph.New()
	x, y, _ := testInputs(g)
	neg := g.CreateNode("test_neg", 1, 1)
	mustConnect(t, g, y, neg, 0)
	gate := g.CreateNode("test_gate", 2, 1)
	mustConnect(t, g, x, gate, 0)
	mustConnect(t, g, neg, gate, 1)
	attachOutput(t, g, gate)

	r := compileGraph(t, g)
	s := prepare(t, r, 1)

	lo := fieldruntime.Vector3{X: 0, Y: 0, Z: 0}
	hi := fieldruntime.Vector3{X: 4, Y: 4, Z: 0}

	// The gate always discards its second input, so the negation is pruned.
	r.AnalyzeRange(s, lo, hi)
	r.GenerateOptimizedExecutionMap(s, true)
	if got := len(s.ExecutionMap()); got != 2 {
		t.Fatalf("execution map has %d instructions, want 2", got)
	}
	for _, id := range s.DebugExecutionMap() {
		if id == neg.ID {
			t.Fatal("pruned negation still in the debug map")
		}
	}

	// A second analysis starts from fresh consumer counts and must reach
	// the same conclusion.
	r.AnalyzeRange(s, lo, hi)
	r.GenerateOptimizedExecutionMap(s, false)
	if got := len(s.ExecutionMap()); got != 2 {
		t.Fatalf("second execution map has %d instructions, want 2", got)
	}

	if got := r.GenerateSingle(s, fieldruntime.Vector3{X: 3, Y: 1}, true); got != 3 {
		t.Fatalf("GenerateSingle = %g, want 3", got)
	}
}

func TestExecutionMapPinsSingleValuedBuffers(t *testing.T) {
	registerTestOps()
	g := graph.New()
	x, y, _ := testInputs(g)
	mid := g.CreateNode("test_mid", 1, 1)
	mustConnect(t, g, x, mid, 0)
	add := g.CreateNode("test_add", 2, 1)
	mustConnect(t, g, mid, add, 0)
	mustConnect(t, g, y, add, 1)
	attachOutput(t, g, add)

	r := compileGraph(t, g)
	s := prepare(t, r, 2)

	// X is fixed over the box, so the mid node collapses to a single
	// value: it drops out of the map and its buffer holds the pinned value.
	r.AnalyzeRange(s,
		fieldruntime.Vector3{X: 6, Y: 0, Z: 0},
		fieldruntime.Vector3{X: 6, Y: 9, Z: 0})
	r.GenerateOptimizedExecutionMap(s, false)
	if got := len(s.ExecutionMap()); got != 2 {
		t.Fatalf("execution map has %d instructions, want 2", got)
	}

	out := make([]float32, 2)
	r.GenerateSet(s,
		[]float32{6, 6}, []float32{1, 2}, []float32{0, 0},
		out, false, true)
	if out[0] != 7 || out[1] != 8 {
		t.Fatalf("out = %v, want [7 8]", out)
	}
}

func TestExecutionMapKeepsOutputInstruction(t *testing.T) {
	r := compileGraph(t, addXYGraph(t))
	s := prepare(t, r, 1)

	// Even a fully constant box must still move the result into the
	// caller's output memory.
	r.AnalyzeRange(s,
		fieldruntime.Vector3{X: 1, Y: 2, Z: 0},
		fieldruntime.Vector3{X: 1, Y: 2, Z: 0})
	r.GenerateOptimizedExecutionMap(s, false)
	if got := len(s.ExecutionMap()); got != 1 {
		t.Fatalf("execution map has %d instructions, want 1", got)
	}

	if got := r.GenerateSingle(s, fieldruntime.Vector3{X: 1, Y: 2}, true); got != 3 {
		t.Fatalf("GenerateSingle = %g, want 3", got)
	}
}
