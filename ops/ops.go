package ops

import (
	"github.com/voxelforge/field-runtime/interval"
	"github.com/voxelforge/field-runtime/runtime"
)

func init() {
	// Axis inputs and the output are compiled to binding buffers and emit
	// no instructions, so they carry no routines.
	runtime.RegisterOperation(runtime.Operation{
		Name:        "input_x",
		Category:    runtime.CategoryInputX,
		OutputCount: 1,
	})
	runtime.RegisterOperation(runtime.Operation{
		Name:        "input_y",
		Category:    runtime.CategoryInputY,
		OutputCount: 1,
	})
	runtime.RegisterOperation(runtime.Operation{
		Name:        "input_z",
		Category:    runtime.CategoryInputZ,
		OutputCount: 1,
	})
	runtime.RegisterOperation(runtime.Operation{
		Name:       "output_sdf",
		Category:   runtime.CategoryOutput,
		InputCount: 1,
	})

	runtime.RegisterOperation(runtime.Operation{
		Name:        "constant",
		OutputCount: 1,
		Compile: func(ctx *runtime.CompileContext) {
			if ctx.ParamCount() < 1 {
				ctx.MakeError("constant node needs a value parameter")
				return
			}
			v, ok := toFloat(ctx.Param(0))
			if !ok {
				ctx.MakeError("constant value %v is not a number", ctx.Param(0))
				return
			}
			ctx.SetParams(v)
		},
		Process: func(ctx *runtime.BufferContext) {
			ctx.Output(0).Fill(ctx.Params().(float32))
		},
		AnalyzeRange: func(ctx *runtime.RangeContext) {
			ctx.SetOutput(0, interval.Single(ctx.Params().(float32)))
		},
	})
}

// toFloat coerces YAML/programmatic literal parameters to float32.
func toFloat(v any) (float32, bool) {
	switch n := v.(type) {
	case float32:
		return n, true
	case float64:
		return float32(n), true
	case int:
		return float32(n), true
	case int64:
		return float32(n), true
	case uint64:
		return float32(n), true
	}
	return 0, false
}

// unary registers a one-input elementwise operation.
func unary(name string, value func(float32) float32, rng func(interval.Interval) interval.Interval) {
	runtime.RegisterOperation(runtime.Operation{
		Name:        name,
		InputCount:  1,
		OutputCount: 1,
		Process: func(ctx *runtime.BufferContext) {
			in := ctx.Input(0)
			out := ctx.Output(0)
			if in.IsConstant {
				out.Fill(value(in.Constant))
				return
			}
			for i := 0; i < out.Size; i++ {
				out.Data[i] = value(in.Data[i])
			}
		},
		AnalyzeRange: func(ctx *runtime.RangeContext) {
			ctx.SetOutput(0, rng(ctx.Input(0)))
		},
	})
}

// binary registers a two-input elementwise operation. Constant inputs are
// observed directly and never expanded into arrays.
func binary(name string, value func(a, b float32) float32, rng func(a, b interval.Interval) interval.Interval) {
	runtime.RegisterOperation(runtime.Operation{
		Name:        name,
		InputCount:  2,
		OutputCount: 1,
		Process: func(ctx *runtime.BufferContext) {
			a := ctx.Input(0)
			b := ctx.Input(1)
			out := ctx.Output(0)
			switch {
			case a.IsConstant && b.IsConstant:
				out.Fill(value(a.Constant, b.Constant))
			case a.IsConstant:
				av := a.Constant
				for i := 0; i < out.Size; i++ {
					out.Data[i] = value(av, b.Data[i])
				}
			case b.IsConstant:
				bv := b.Constant
				for i := 0; i < out.Size; i++ {
					out.Data[i] = value(a.Data[i], bv)
				}
			default:
				for i := 0; i < out.Size; i++ {
					out.Data[i] = value(a.Data[i], b.Data[i])
				}
			}
		},
		AnalyzeRange: func(ctx *runtime.RangeContext) {
			ctx.SetOutput(0, rng(ctx.Input(0), ctx.Input(1)))
		},
	})
}
