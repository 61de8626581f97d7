package ops

import (
	"github.com/voxelforge/field-runtime/interval"
	"github.com/voxelforge/field-runtime/runtime"
)

func init() {
	registerDistance2D()
	registerDistance3D()
	registerSphere()
	registerBox()
}

// distance_2d computes the Euclidean distance between (x0, y0) and
// (x1, y1).
func registerDistance2D() {
	runtime.RegisterOperation(runtime.Operation{
		Name:        "distance_2d",
		InputCount:  4,
		OutputCount: 1,
		Process: func(ctx *runtime.BufferContext) {
			x0 := ctx.Input(0)
			y0 := ctx.Input(1)
			x1 := ctx.Input(2)
			y1 := ctx.Input(3)
			out := ctx.Output(0)
			for i := 0; i < out.Size; i++ {
				dx := x1.At(i) - x0.At(i)
				dy := y1.At(i) - y0.At(i)
				out.Data[i] = sqrt32(dx*dx + dy*dy)
			}
		},
		AnalyzeRange: func(ctx *runtime.RangeContext) {
			dx := ctx.Input(2).Sub(ctx.Input(0))
			dy := ctx.Input(3).Sub(ctx.Input(1))
			ctx.SetOutput(0, dx.Squared().Add(dy.Squared()).Sqrt())
		},
	})
}

// distance_3d computes the Euclidean distance between (x0, y0, z0) and
// (x1, y1, z1).
func registerDistance3D() {
	runtime.RegisterOperation(runtime.Operation{
		Name:        "distance_3d",
		InputCount:  6,
		OutputCount: 1,
		Process: func(ctx *runtime.BufferContext) {
			x0 := ctx.Input(0)
			y0 := ctx.Input(1)
			z0 := ctx.Input(2)
			x1 := ctx.Input(3)
			y1 := ctx.Input(4)
			z1 := ctx.Input(5)
			out := ctx.Output(0)
			for i := 0; i < out.Size; i++ {
				dx := x1.At(i) - x0.At(i)
				dy := y1.At(i) - y0.At(i)
				dz := z1.At(i) - z0.At(i)
				out.Data[i] = sqrt32(dx*dx + dy*dy + dz*dz)
			}
		},
		AnalyzeRange: func(ctx *runtime.RangeContext) {
			dx := ctx.Input(3).Sub(ctx.Input(0))
			dy := ctx.Input(4).Sub(ctx.Input(1))
			dz := ctx.Input(5).Sub(ctx.Input(2))
			ctx.SetOutput(0, dx.Squared().Add(dy.Squared()).Add(dz.Squared()).Sqrt())
		},
	})
}

type sphereParams struct {
	cx, cy, cz float32
	radius     float32
}

// sdf_sphere is the signed distance to a sphere: negative inside, zero on
// the surface, positive outside.
func registerSphere() {
	runtime.RegisterOperation(runtime.Operation{
		Name:        "sdf_sphere",
		InputCount:  3,
		OutputCount: 1,
		Compile: func(ctx *runtime.CompileContext) {
			p, ok := sphereFromParams(ctx)
			if !ok {
				return
			}
			ctx.SetParams(p)
		},
		Process: func(ctx *runtime.BufferContext) {
			p := ctx.Params().(sphereParams)
			x := ctx.Input(0)
			y := ctx.Input(1)
			z := ctx.Input(2)
			out := ctx.Output(0)
			for i := 0; i < out.Size; i++ {
				dx := x.At(i) - p.cx
				dy := y.At(i) - p.cy
				dz := z.At(i) - p.cz
				out.Data[i] = sqrt32(dx*dx+dy*dy+dz*dz) - p.radius
			}
		},
		AnalyzeRange: func(ctx *runtime.RangeContext) {
			p := ctx.Params().(sphereParams)
			dx := ctx.Input(0).AddScalar(-p.cx)
			dy := ctx.Input(1).AddScalar(-p.cy)
			dz := ctx.Input(2).AddScalar(-p.cz)
			dist := dx.Squared().Add(dy.Squared()).Add(dz.Squared()).Sqrt()
			ctx.SetOutput(0, dist.AddScalar(-p.radius))
		},
	})
}

func sphereFromParams(ctx *runtime.CompileContext) (sphereParams, bool) {
	if ctx.ParamCount() < 4 {
		ctx.MakeError("sdf_sphere node needs center x, y, z and radius parameters")
		return sphereParams{}, false
	}
	var vals [4]float32
	for i := range vals {
		v, ok := toFloat(ctx.Param(i))
		if !ok {
			ctx.MakeError("sdf_sphere parameter %d (%v) is not a number", i, ctx.Param(i))
			return sphereParams{}, false
		}
		vals[i] = v
	}
	if vals[3] < 0 {
		ctx.MakeError("sdf_sphere radius %g is negative", vals[3])
		return sphereParams{}, false
	}
	return sphereParams{cx: vals[0], cy: vals[1], cz: vals[2], radius: vals[3]}, true
}

type boxParams struct {
	cx, cy, cz float32
	ex, ey, ez float32
}

// sdf_box is the exact signed distance to an axis-aligned box with the
// given center and half-extents.
func registerBox() {
	runtime.RegisterOperation(runtime.Operation{
		Name:        "sdf_box",
		InputCount:  3,
		OutputCount: 1,
		Compile: func(ctx *runtime.CompileContext) {
			p, ok := boxFromParams(ctx)
			if !ok {
				return
			}
			ctx.SetParams(p)
		},
		Process: func(ctx *runtime.BufferContext) {
			p := ctx.Params().(boxParams)
			x := ctx.Input(0)
			y := ctx.Input(1)
			z := ctx.Input(2)
			out := ctx.Output(0)
			for i := 0; i < out.Size; i++ {
				out.Data[i] = boxDistance(x.At(i), y.At(i), z.At(i), p)
			}
		},
		AnalyzeRange: func(ctx *runtime.RangeContext) {
			p := ctx.Params().(boxParams)
			zero := interval.Single(0)
			qx := ctx.Input(0).AddScalar(-p.cx).Abs().AddScalar(-p.ex)
			qy := ctx.Input(1).AddScalar(-p.cy).Abs().AddScalar(-p.ey)
			qz := ctx.Input(2).AddScalar(-p.cz).Abs().AddScalar(-p.ez)
			outer := qx.MaxWith(zero).Squared().
				Add(qy.MaxWith(zero).Squared()).
				Add(qz.MaxWith(zero).Squared()).
				Sqrt()
			inner := qx.MaxWith(qy).MaxWith(qz).MinWith(zero)
			ctx.SetOutput(0, outer.Add(inner))
		},
	})
}

func boxDistance(x, y, z float32, p boxParams) float32 {
	qx := abs32(x-p.cx) - p.ex
	qy := abs32(y-p.cy) - p.ey
	qz := abs32(z-p.cz) - p.ez
	ox := max32(qx, 0)
	oy := max32(qy, 0)
	oz := max32(qz, 0)
	outer := sqrt32(ox*ox + oy*oy + oz*oz)
	inner := min32(max32(qx, max32(qy, qz)), 0)
	return outer + inner
}

func boxFromParams(ctx *runtime.CompileContext) (boxParams, bool) {
	if ctx.ParamCount() < 6 {
		ctx.MakeError("sdf_box node needs center x, y, z and half-extent x, y, z parameters")
		return boxParams{}, false
	}
	var vals [6]float32
	for i := range vals {
		v, ok := toFloat(ctx.Param(i))
		if !ok {
			ctx.MakeError("sdf_box parameter %d (%v) is not a number", i, ctx.Param(i))
			return boxParams{}, false
		}
		vals[i] = v
	}
	for i := 3; i < 6; i++ {
		if vals[i] < 0 {
			ctx.MakeError("sdf_box half-extent %g is negative", vals[i])
			return boxParams{}, false
		}
	}
	return boxParams{
		cx: vals[0], cy: vals[1], cz: vals[2],
		ex: vals[3], ey: vals[4], ez: vals[5],
	}, true
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
