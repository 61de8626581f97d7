package runtime

import (
	"fmt"

	fieldruntime "github.com/voxelforge/field-runtime"
)

// GenerateSingle evaluates the field at one position. When useMap is set,
// the narrowed execution map from the last GenerateOptimizedExecutionMap
// call runs instead of the default order; the result is then only valid
// for positions inside the previously analyzed box.
func (r *Runtime) GenerateSingle(s *State, position fieldruntime.Vector3, useMap bool) float32 {
	p := r.requireRunnable(s)

	s.singleX[0] = position.X
	s.singleY[0] = position.Y
	s.singleZ[0] = position.Z
	s.setActiveSize(1)
	s.bind(p.xInputAddress, s.singleX[:])
	s.bind(p.yInputAddress, s.singleY[:])
	s.bind(p.zInputAddress, s.singleZ[:])
	s.bind(p.outputAddress, s.singleOut[:])

	r.run(s, r.order(s, useMap))
	return s.singleOut[0]
}

// GenerateSet evaluates the field over a flat batch of positions, writing
// one value per position into out. All slices must have the same length,
// within the prepared buffer size.
//
// When skipYIndependent is set, the Y-independent prefix is not re-run:
// its buffers are assumed to still hold results from a previous batch with
// identical X/Z inputs, the planar-terrain fast path. When useMap is set,
// the narrowed execution map runs instead of the default order.
func (r *Runtime) GenerateSet(s *State, xs, ys, zs, out []float32, skipYIndependent, useMap bool) {
	p := r.requireRunnable(s)

	n := len(xs)
	if len(ys) != n || len(zs) != n || len(out) != n {
		panic(fmt.Sprintf("runtime: mismatched batch lengths x=%d y=%d z=%d out=%d",
			len(xs), len(ys), len(zs), len(out)))
	}
	if n == 0 {
		return
	}

	s.setActiveSize(n)
	s.bind(p.xInputAddress, xs)
	s.bind(p.yInputAddress, ys)
	s.bind(p.zInputAddress, zs)
	s.bind(p.outputAddress, out)

	order := r.order(s, useMap)
	if skipYIndependent {
		start := p.yStartInstruction
		if useMap {
			start = s.mapYStartIndex
		}
		order = order[start:]
	}
	r.run(s, order)
}

// order selects the active instruction order. Requesting the optimized map
// before generating one is a caller bug.
func (r *Runtime) order(s *State, useMap bool) []uint16 {
	if !useMap {
		return r.program.defaultExecutionMap
	}
	if !s.mapGenerated {
		panic("runtime: execution map requested but none was generated")
	}
	return s.executionMap
}

// run dispatches each instruction's process routine against a context
// exposing only its declared buffer addresses.
func (r *Runtime) run(s *State, order []uint16) {
	p := &r.program
	for _, idx := range order {
		inst := &p.instructions[idx]
		ctx := BufferContext{
			inputs:  inst.inputs,
			outputs: inst.outputs,
			params:  p.paramsOf(inst),
			buffers: s.buffers,
		}
		operationByID(inst.op).Process(&ctx)
	}
}

// requireRunnable guards the Program/State invariants shared by all
// generation calls.
func (r *Runtime) requireRunnable(s *State) *Program {
	p := &r.program
	if !p.result.Success {
		panic("runtime: generate on a program that has not compiled successfully")
	}
	if len(s.buffers) != p.bufferCount {
		panic(fmt.Sprintf("runtime: state has %d buffers, program needs %d; call PrepareState",
			len(s.buffers), p.bufferCount))
	}
	return p
}
