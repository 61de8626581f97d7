package runtime

import (
	"fmt"

	"go.uber.org/zap"

	fieldruntime "github.com/voxelforge/field-runtime"
	"github.com/voxelforge/field-runtime/interval"
)

// AnalyzeRange replays the program with interval arithmetic over the
// axis-aligned box [minCorner, maxCorner] and returns a sound bound on the
// output: every value GenerateSingle can produce inside the box lies
// within the returned interval.
//
// The pass also resets per-buffer consumer counts and lets range routines
// mark inputs as irrelevant, feeding GenerateOptimizedExecutionMap. The
// resulting intervals stay valid until the next AnalyzeRange or
// PrepareState call.
func (r *Runtime) AnalyzeRange(s *State, minCorner, maxCorner fieldruntime.Vector3) interval.Interval {
	p := r.requireRunnable(s)
	if minCorner.X > maxCorner.X || minCorner.Y > maxCorner.Y || minCorner.Z > maxCorner.Z {
		panic(fmt.Sprintf("runtime: inverted analysis box min=%v max=%v", minCorner, maxCorner))
	}

	// Fresh pass: consumer counts return to their compiled values before
	// range routines start ignoring inputs.
	for _, spec := range p.bufferSpecs {
		b := &s.buffers[spec.Address]
		b.localUsers = int(spec.UsersCount)
		if spec.IsConstant {
			s.ranges[spec.Address] = interval.Single(spec.ConstantValue)
		}
	}
	s.ranges[p.xInputAddress] = interval.New(minCorner.X, maxCorner.X)
	s.ranges[p.yInputAddress] = interval.New(minCorner.Y, maxCorner.Y)
	s.ranges[p.zInputAddress] = interval.New(minCorner.Z, maxCorner.Z)

	for _, idx := range p.defaultExecutionMap {
		inst := &p.instructions[idx]
		ctx := RangeContext{
			inputs:  inst.inputs,
			outputs: inst.outputs,
			params:  p.paramsOf(inst),
			ranges:  s.ranges,
			buffers: s.buffers,
		}
		operationByID(inst.op).AnalyzeRange(&ctx)
	}

	out := s.ranges[p.outputAddress]
	Logger().Debug("analyzed range",
		zap.Float32("min", out.Min), zap.Float32("max", out.Max))
	return out
}
