package ops

import (
	"sync"

	"github.com/voxelforge/field-runtime/interval"
	"github.com/voxelforge/field-runtime/runtime"
)

// Curve is a caller-owned 1D lookup table sampled uniformly over
// [XMin, XMax] and evaluated with linear interpolation, clamped at both
// ends. A program referencing a curve holds its read lock for its whole
// compiled lifetime, so edits must wait until every such program is
// cleared.
type Curve struct {
	mu      sync.RWMutex
	samples []float32
	xmin    float32
	xmax    float32
}

// NewCurve builds a curve from at least two samples spread uniformly over
// [xmin, xmax]. It panics on malformed input, which indicates a caller bug.
func NewCurve(samples []float32, xmin, xmax float32) *Curve {
	if len(samples) < 2 {
		panic("ops: curve needs at least two samples")
	}
	if xmin >= xmax {
		panic("ops: curve domain is empty")
	}
	c := &Curve{
		samples: make([]float32, len(samples)),
		xmin:    xmin,
		xmax:    xmax,
	}
	copy(c.samples, samples)
	return c
}

// Lock takes the curve's read lock on behalf of a compiled program.
func (c *Curve) Lock() { c.mu.RLock() }

// Unlock releases the read lock taken by Lock.
func (c *Curve) Unlock() { c.mu.RUnlock() }

// SetSamples replaces the sample table. It blocks while any compiled
// program still references the curve.
func (c *Curve) SetSamples(samples []float32) {
	if len(samples) < 2 {
		panic("ops: curve needs at least two samples")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples = make([]float32, len(samples))
	copy(c.samples, samples)
}

// Sample evaluates the curve at t with clamped linear interpolation.
// The caller must hold the curve locked.
func (c *Curve) Sample(t float32) float32 {
	last := len(c.samples) - 1
	pos := (t - c.xmin) / (c.xmax - c.xmin) * float32(last)
	if pos <= 0 {
		return c.samples[0]
	}
	if pos >= float32(last) {
		return c.samples[last]
	}
	i := int(pos)
	frac := pos - float32(i)
	return c.samples[i] + (c.samples[i+1]-c.samples[i])*frac
}

// RangeOver bounds the curve's output for inputs within in. The bound
// covers every sample segment the input interval can touch, so it stays
// sound for interpolated values between samples.
func (c *Curve) RangeOver(in interval.Interval) interval.Interval {
	last := len(c.samples) - 1
	scale := float32(last) / (c.xmax - c.xmin)

	lo := int((in.Min - c.xmin) * scale)
	hi := int((in.Max-c.xmin)*scale) + 1
	if lo < 0 {
		lo = 0
	}
	if lo > last {
		lo = last
	}
	if hi > last {
		hi = last
	}
	if hi < lo {
		hi = lo
	}

	out := interval.Single(c.samples[lo])
	for i := lo + 1; i <= hi; i++ {
		out = out.Union(interval.Single(c.samples[i]))
	}
	return out
}

func init() {
	runtime.RegisterOperation(runtime.Operation{
		Name:        "curve",
		InputCount:  1,
		OutputCount: 1,
		Compile: func(ctx *runtime.CompileContext) {
			if ctx.ParamCount() < 1 {
				ctx.MakeError("curve node needs a *Curve parameter")
				return
			}
			c, ok := ctx.Param(0).(*Curve)
			if !ok || c == nil {
				ctx.MakeError("curve parameter %v is not a *Curve", ctx.Param(0))
				return
			}
			ctx.AddResource(c)
			ctx.SetParams(c)
		},
		Process: func(ctx *runtime.BufferContext) {
			c := ctx.Params().(*Curve)
			in := ctx.Input(0)
			out := ctx.Output(0)
			if in.IsConstant {
				out.Fill(c.Sample(in.Constant))
				return
			}
			for i := 0; i < out.Size; i++ {
				out.Data[i] = c.Sample(in.Data[i])
			}
		},
		AnalyzeRange: func(ctx *runtime.RangeContext) {
			c := ctx.Params().(*Curve)
			ctx.SetOutput(0, c.RangeOver(ctx.Input(0)))
		},
	})
}
