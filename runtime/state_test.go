package runtime

import (
	"testing"

	fieldruntime "github.com/voxelforge/field-runtime"
)

func TestPrepareStateShapesBuffers(t *testing.T) {
	r := compileGraph(t, addXYGraph(t))
	s := prepare(t, r, 16)

	if len(s.buffers) != r.BufferCount() {
		t.Fatalf("state has %d buffers, program needs %d", len(s.buffers), r.BufferCount())
	}
	for i, spec := range r.program.bufferSpecs {
		b := &s.buffers[spec.Address]
		switch {
		case spec.IsConstant:
			if !b.IsConstant || b.Data != nil {
				t.Fatalf("buffer %d: constant spec produced %+v", i, b)
			}
		case spec.IsBinding:
			if !b.IsBinding || b.Data != nil {
				t.Fatalf("buffer %d: binding spec produced %+v", i, b)
			}
		default:
			if len(b.Data) != 16 {
				t.Fatalf("buffer %d: working array has length %d, want 16", i, len(b.Data))
			}
		}
	}
}

func TestPrepareStateReusesArrays(t *testing.T) {
	r := compileGraph(t, addXYGraph(t))
	s := prepare(t, r, 8)

	var before []*float32
	for i := range s.buffers {
		if len(s.buffers[i].Data) > 0 {
			before = append(before, &s.buffers[i].Data[0])
		}
	}

	// Same program, same size: working arrays survive re-preparation.
	r.PrepareState(s, 8)
	var after []*float32
	for i := range s.buffers {
		if len(s.buffers[i].Data) > 0 {
			after = append(after, &s.buffers[i].Data[0])
		}
	}
	if len(before) == 0 || len(before) != len(after) {
		t.Fatalf("working buffer count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("working array %d was reallocated", i)
		}
	}
}

func TestPrepareStateGrowsForLargerBatches(t *testing.T) {
	r := compileGraph(t, addXYGraph(t))
	s := prepare(t, r, 2)
	r.PrepareState(s, 64)

	out := make([]float32, 64)
	xs := make([]float32, 64)
	ys := make([]float32, 64)
	for i := range xs {
		xs[i] = float32(i)
		ys[i] = float32(i)
	}
	r.GenerateSet(s, xs, ys, make([]float32, 64), out, false, false)
	if out[63] != 126 {
		t.Fatalf("out[63] = %g, want 126", out[63])
	}
}

func TestPrepareStateInvalidatesExecutionMap(t *testing.T) {
	r := compileGraph(t, addXYGraph(t))
	s := prepare(t, r, 1)

	r.AnalyzeRange(s, fieldruntime.Vector3{}, fieldruntime.Vector3{X: 1, Y: 1, Z: 1})
	r.GenerateOptimizedExecutionMap(s, false)
	if s.ExecutionMap() == nil {
		t.Fatal("no execution map after generation")
	}

	r.PrepareState(s, 1)
	if s.ExecutionMap() != nil {
		t.Fatal("execution map survived re-preparation")
	}
}

func TestPrepareStatePanics(t *testing.T) {
	r := compileGraph(t, addXYGraph(t))

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected panic on buffer size 0")
			}
		}()
		r.PrepareState(&State{}, 0)
	}()

	uncompiled := New()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on uncompiled program")
		}
	}()
	uncompiled.PrepareState(&State{}, 1)
}

func TestStateClear(t *testing.T) {
	r := compileGraph(t, addXYGraph(t))
	s := prepare(t, r, 4)
	s.Clear()
	if s.buffers != nil || s.ranges != nil {
		t.Fatal("Clear left buffer state behind")
	}

	r.PrepareState(s, 4)
	if got := r.GenerateSingle(s, fieldruntime.Vector3{X: 1, Y: 1}, false); got != 2 {
		t.Fatalf("GenerateSingle = %g, want 2", got)
	}
}
