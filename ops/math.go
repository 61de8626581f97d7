package ops

import (
	"math"

	"github.com/voxelforge/field-runtime/interval"
	"github.com/voxelforge/field-runtime/runtime"
)

func init() {
	binary("add",
		func(a, b float32) float32 { return a + b },
		interval.Interval.Add)
	binary("subtract",
		func(a, b float32) float32 { return a - b },
		interval.Interval.Sub)
	binary("multiply",
		func(a, b float32) float32 { return a * b },
		interval.Interval.Mul)
	binary("divide",
		func(a, b float32) float32 { return a / b },
		interval.Interval.Div)
	binary("min",
		func(a, b float32) float32 {
			if a < b {
				return a
			}
			return b
		},
		interval.Interval.MinWith)
	binary("max",
		func(a, b float32) float32 {
			if a > b {
				return a
			}
			return b
		},
		interval.Interval.MaxWith)

	unary("negate",
		func(v float32) float32 { return -v },
		interval.Interval.Neg)
	unary("abs",
		func(v float32) float32 {
			if v < 0 {
				return -v
			}
			return v
		},
		interval.Interval.Abs)
	unary("sqrt", sqrt32, interval.Interval.Sqrt)
	unary("floor",
		func(v float32) float32 { return float32(math.Floor(float64(v))) },
		interval.Interval.Floor)
	unary("squared",
		func(v float32) float32 { return v * v },
		interval.Interval.Squared)

	registerClamp()
	registerMix()
	registerSelect()
}

// sqrt32 treats negative inputs as zero, so distance-style expressions
// never produce NaN from rounding error.
func sqrt32(v float32) float32 {
	if v <= 0 {
		return 0
	}
	return float32(math.Sqrt(float64(v)))
}

type clampParams struct {
	min, max float32
}

// clamp pins its input to the [min, max] parameter range. When range
// analysis proves the input sits entirely outside the range, the result is
// a known constant and the input's precise values become irrelevant.
func registerClamp() {
	runtime.RegisterOperation(runtime.Operation{
		Name:        "clamp",
		InputCount:  1,
		OutputCount: 1,
		Compile: func(ctx *runtime.CompileContext) {
			if ctx.ParamCount() < 2 {
				ctx.MakeError("clamp node needs min and max parameters")
				return
			}
			lo, ok := toFloat(ctx.Param(0))
			if !ok {
				ctx.MakeError("clamp min %v is not a number", ctx.Param(0))
				return
			}
			hi, ok := toFloat(ctx.Param(1))
			if !ok {
				ctx.MakeError("clamp max %v is not a number", ctx.Param(1))
				return
			}
			if lo > hi {
				ctx.MakeError("clamp min %g exceeds max %g", lo, hi)
				return
			}
			ctx.SetParams(clampParams{min: lo, max: hi})
		},
		Process: func(ctx *runtime.BufferContext) {
			p := ctx.Params().(clampParams)
			in := ctx.Input(0)
			out := ctx.Output(0)
			if in.IsConstant {
				out.Fill(clamp32(in.Constant, p.min, p.max))
				return
			}
			for i := 0; i < out.Size; i++ {
				out.Data[i] = clamp32(in.Data[i], p.min, p.max)
			}
		},
		AnalyzeRange: func(ctx *runtime.RangeContext) {
			p := ctx.Params().(clampParams)
			in := ctx.Input(0)
			switch {
			case in.Max <= p.min:
				ctx.SetOutput(0, interval.Single(p.min))
				ctx.IgnoreInput(0)
			case in.Min >= p.max:
				ctx.SetOutput(0, interval.Single(p.max))
				ctx.IgnoreInput(0)
			default:
				ctx.SetOutput(0, in.Clamp(interval.New(p.min, p.max)))
			}
		},
	})
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// mix blends a and b by factor t. A factor proven to be exactly 0 or 1
// over the box makes the opposite branch irrelevant; the process routine
// short-circuits those factors so the irrelevant buffer is never read and
// the endpoints are returned exactly.
func registerMix() {
	runtime.RegisterOperation(runtime.Operation{
		Name:        "mix",
		InputCount:  3,
		OutputCount: 1,
		Process: func(ctx *runtime.BufferContext) {
			a := ctx.Input(0)
			b := ctx.Input(1)
			t := ctx.Input(2)
			out := ctx.Output(0)
			for i := 0; i < out.Size; i++ {
				switch tv := t.At(i); tv {
				case 0:
					out.Data[i] = a.At(i)
				case 1:
					out.Data[i] = b.At(i)
				default:
					av := a.At(i)
					out.Data[i] = av + (b.At(i)-av)*tv
				}
			}
		},
		AnalyzeRange: func(ctx *runtime.RangeContext) {
			a := ctx.Input(0)
			b := ctx.Input(1)
			t := ctx.Input(2)
			switch {
			case t.IsSingleValue() && t.Min == 0:
				ctx.SetOutput(0, a)
				ctx.IgnoreInput(1)
			case t.IsSingleValue() && t.Min == 1:
				ctx.SetOutput(0, b)
				ctx.IgnoreInput(0)
			default:
				ctx.SetOutput(0, a.Lerp(b, t))
			}
		},
	})
}

type selectParams struct {
	threshold float32
}

// select picks a when t < threshold and b otherwise. A selector interval
// that falls entirely on one side of the threshold collapses the choice
// and makes the dead branch irrelevant. The selector itself is always
// consulted by the process routine, so it is never declared irrelevant:
// its producer must keep running even when the outcome is known.
func registerSelect() {
	runtime.RegisterOperation(runtime.Operation{
		Name:        "select",
		InputCount:  3,
		OutputCount: 1,
		Compile: func(ctx *runtime.CompileContext) {
			if ctx.ParamCount() < 1 {
				ctx.MakeError("select node needs a threshold parameter")
				return
			}
			thr, ok := toFloat(ctx.Param(0))
			if !ok {
				ctx.MakeError("select threshold %v is not a number", ctx.Param(0))
				return
			}
			ctx.SetParams(selectParams{threshold: thr})
		},
		Process: func(ctx *runtime.BufferContext) {
			p := ctx.Params().(selectParams)
			a := ctx.Input(0)
			b := ctx.Input(1)
			t := ctx.Input(2)
			out := ctx.Output(0)
			for i := 0; i < out.Size; i++ {
				if t.At(i) < p.threshold {
					out.Data[i] = a.At(i)
				} else {
					out.Data[i] = b.At(i)
				}
			}
		},
		AnalyzeRange: func(ctx *runtime.RangeContext) {
			p := ctx.Params().(selectParams)
			a := ctx.Input(0)
			b := ctx.Input(1)
			t := ctx.Input(2)
			switch {
			case t.Max < p.threshold:
				ctx.SetOutput(0, a)
				ctx.IgnoreInput(1)
			case t.Min >= p.threshold:
				ctx.SetOutput(0, b)
				ctx.IgnoreInput(0)
			default:
				ctx.SetOutput(0, a.Union(b))
			}
		},
	})
}
