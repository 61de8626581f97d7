package ops

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	fieldruntime "github.com/voxelforge/field-runtime"
	"github.com/voxelforge/field-runtime/graph"
	"github.com/voxelforge/field-runtime/interval"
	"github.com/voxelforge/field-runtime/runtime"
)

func newXYZ(g *graph.Graph) (x, y, z *graph.Node) {
	x = g.CreateNode("input_x", 0, 1)
	y = g.CreateNode("input_y", 0, 1)
	z = g.CreateNode("input_z", 0, 1)
	return x, y, z
}

func port(n *graph.Node) graph.PortLocation {
	return graph.PortLocation{NodeID: n.ID, Port: 0}
}

func connectOutput(t *testing.T, g *graph.Graph, src *graph.Node) {
	t.Helper()
	out := g.CreateNode("output_sdf", 1, 0)
	require.NoError(t, g.Connect(port(src), out.ID, 0))
}

func mustCompile(t *testing.T, g *graph.Graph) *runtime.Runtime {
	t.Helper()
	r := runtime.New()
	res := r.Compile(g, false)
	require.NoError(t, res.Err)
	require.True(t, res.Success)
	return r
}

func prepared(r *runtime.Runtime, size int) *runtime.State {
	s := &runtime.State{}
	r.PrepareState(s, size)
	return s
}

func TestAddXY(t *testing.T) {
	g := graph.New()
	x, y, _ := newXYZ(g)
	add := g.CreateNode("add", 2, 1)
	require.NoError(t, g.Connect(port(x), add.ID, 0))
	require.NoError(t, g.Connect(port(y), add.ID, 1))
	connectOutput(t, g, add)

	r := mustCompile(t, g)
	require.Equal(t, 2, r.InstructionCount(), "add plus the output move")

	s := prepared(r, 1)
	got := r.GenerateSingle(s, fieldruntime.Vector3{X: 2, Y: 3, Z: 0}, false)
	require.Equal(t, float32(5), got)
}

func TestConstantExpressionsFold(t *testing.T) {
	g := graph.New()
	x, _, _ := newXYZ(g)
	c1 := g.CreateNode("constant", 0, 1)
	c1.SetParam(4.0)
	c2 := g.CreateNode("constant", 0, 1)
	c2.SetParam(0.5)
	mul := g.CreateNode("multiply", 2, 1)
	require.NoError(t, g.Connect(port(c1), mul.ID, 0))
	require.NoError(t, g.Connect(port(c2), mul.ID, 1))
	add := g.CreateNode("add", 2, 1)
	require.NoError(t, g.Connect(port(x), add.ID, 0))
	require.NoError(t, g.Connect(port(mul), add.ID, 1))
	connectOutput(t, g, add)

	r := mustCompile(t, g)
	// Both constants and the multiply fold away at compile time.
	require.Equal(t, 2, r.InstructionCount())

	s := prepared(r, 1)
	got := r.GenerateSingle(s, fieldruntime.Vector3{X: 1}, false)
	require.Equal(t, float32(3), got)
}

func TestDefaultInputValue(t *testing.T) {
	g := graph.New()
	x, _, _ := newXYZ(g)
	add := g.CreateNode("add", 2, 1)
	require.NoError(t, g.Connect(port(x), add.ID, 0))
	add.SetDefault(1, 10)
	connectOutput(t, g, add)

	r := mustCompile(t, g)
	s := prepared(r, 1)
	got := r.GenerateSingle(s, fieldruntime.Vector3{X: 7}, false)
	require.Equal(t, float32(17), got)
}

func TestBadParamFailsCompile(t *testing.T) {
	g := graph.New()
	newXYZ(g)
	c := g.CreateNode("constant", 0, 1)
	c.SetParam("not a number")
	connectOutput(t, g, c)

	r := runtime.New()
	res := r.Compile(g, false)
	require.False(t, res.Success)
	require.Error(t, res.Err)
	require.Equal(t, c.ID, res.NodeID)
}

func TestGenerateSetBatch(t *testing.T) {
	g := graph.New()
	x, y, z := newXYZ(g)
	d := g.CreateNode("distance_3d", 6, 1)
	for i, n := range []*graph.Node{x, y, z} {
		require.NoError(t, g.Connect(port(n), d.ID, 3+i))
		d.SetDefault(i, 0)
	}
	connectOutput(t, g, d)

	r := mustCompile(t, g)
	s := prepared(r, 4)

	xs := []float32{3, 0, 1, -2}
	ys := []float32{4, 0, 2, -3}
	zs := []float32{0, 5, 2, -6}
	out := make([]float32, 4)
	r.GenerateSet(s, xs, ys, zs, out, false, false)

	require.Equal(t, float32(5), out[0])
	require.Equal(t, float32(5), out[1])
	require.Equal(t, float32(3), out[2])
	require.Equal(t, float32(7), out[3])
}

func TestClampRangeSaturates(t *testing.T) {
	g := graph.New()
	x, _, _ := newXYZ(g)
	cl := g.CreateNode("clamp", 1, 1)
	cl.SetParam(0.0)
	cl.SetParam(1.0)
	require.NoError(t, g.Connect(port(x), cl.ID, 0))
	connectOutput(t, g, cl)

	r := mustCompile(t, g)
	s := prepared(r, 1)

	// The whole box sits above the clamp range, so the result is pinned
	// and the clamp instruction drops out of the execution map.
	out := r.AnalyzeRange(s,
		fieldruntime.Vector3{X: 5, Y: 0, Z: 0},
		fieldruntime.Vector3{X: 10, Y: 0, Z: 0})
	require.True(t, out.IsSingleValue())
	require.Equal(t, float32(1), out.Min)

	r.GenerateOptimizedExecutionMap(s, false)
	require.Len(t, s.ExecutionMap(), 1, "only the output move survives")

	got := r.GenerateSingle(s, fieldruntime.Vector3{X: 7}, true)
	require.Equal(t, float32(1), got)
}

func TestSelectPrunesDeadBranch(t *testing.T) {
	g := graph.New()
	x, y, _ := newXYZ(g)
	a := g.CreateNode("sqrt", 1, 1)
	require.NoError(t, g.Connect(port(y), a.ID, 0))
	b := g.CreateNode("squared", 1, 1)
	require.NoError(t, g.Connect(port(y), b.ID, 0))
	sel := g.CreateNode("select", 3, 1)
	sel.SetParam(0.0)
	require.NoError(t, g.Connect(port(a), sel.ID, 0))
	require.NoError(t, g.Connect(port(b), sel.ID, 1))
	require.NoError(t, g.Connect(port(x), sel.ID, 2))
	connectOutput(t, g, sel)

	r := mustCompile(t, g)
	require.Equal(t, 4, r.InstructionCount())
	s := prepared(r, 1)

	// X stays below the threshold over the whole box, so only the sqrt
	// branch matters and the squared branch is pruned.
	r.AnalyzeRange(s,
		fieldruntime.Vector3{X: -5, Y: 4, Z: 0},
		fieldruntime.Vector3{X: -1, Y: 9, Z: 0})
	r.GenerateOptimizedExecutionMap(s, false)
	require.Len(t, s.ExecutionMap(), 3, "squared branch pruned")

	got := r.GenerateSingle(s, fieldruntime.Vector3{X: -2, Y: 9}, true)
	require.Equal(t, float32(3), got)
}

func TestSelectKeepsSelectorWhenCollapsed(t *testing.T) {
	g := graph.New()
	x, y, z := newXYZ(g)
	shifted := g.CreateNode("subtract", 2, 1)
	require.NoError(t, g.Connect(port(x), shifted.ID, 0))
	shifted.SetDefault(1, 10)
	dead := g.CreateNode("squared", 1, 1)
	require.NoError(t, g.Connect(port(z), dead.ID, 0))
	sel := g.CreateNode("select", 3, 1)
	sel.SetParam(0.0)
	require.NoError(t, g.Connect(port(y), sel.ID, 0))
	require.NoError(t, g.Connect(port(dead), sel.ID, 1))
	require.NoError(t, g.Connect(port(shifted), sel.ID, 2))
	connectOutput(t, g, sel)

	r := mustCompile(t, g)
	require.Equal(t, 4, r.InstructionCount())
	s := prepared(r, 1)

	// X-10 stays below the threshold over the whole box, so the squared
	// branch is pruned. The selector's producer must survive: the process
	// routine still reads it to pick a side, and a stale selector buffer
	// could pick the wrong one.
	r.AnalyzeRange(s,
		fieldruntime.Vector3{X: 0, Y: 0, Z: 0},
		fieldruntime.Vector3{X: 1, Y: 9, Z: 5})
	r.GenerateOptimizedExecutionMap(s, false)
	require.Len(t, s.ExecutionMap(), 3, "only the dead branch drops out")

	p := fieldruntime.Vector3{X: 0.5, Y: 7, Z: 3}
	full := r.GenerateSingle(s, p, false)
	mapped := r.GenerateSingle(s, p, true)
	require.Equal(t, full, mapped)
	require.Equal(t, float32(7), mapped)
}

func TestMixSkipsPrunedBranchAtExactFactor(t *testing.T) {
	g := graph.New()
	x, _, z := newXYZ(g)
	zero := g.CreateNode("constant", 0, 1)
	zero.SetParam(0.0)
	dead := g.CreateNode("squared", 1, 1)
	require.NoError(t, g.Connect(port(z), dead.ID, 0))
	mix := g.CreateNode("mix", 3, 1)
	require.NoError(t, g.Connect(port(x), mix.ID, 0))
	require.NoError(t, g.Connect(port(dead), mix.ID, 1))
	require.NoError(t, g.Connect(port(zero), mix.ID, 2))
	connectOutput(t, g, mix)

	r := mustCompile(t, g)
	s := prepared(r, 1)

	// A factor proven to be exactly zero prunes the b branch; the process
	// routine must return a without reading the stale buffer.
	r.AnalyzeRange(s,
		fieldruntime.Vector3{X: -2, Y: 0, Z: 1},
		fieldruntime.Vector3{X: 4, Y: 1, Z: 6})
	r.GenerateOptimizedExecutionMap(s, false)
	require.Len(t, s.ExecutionMap(), 2, "squared branch pruned")

	p := fieldruntime.Vector3{X: 3, Y: 0.5, Z: 4}
	require.Equal(t, r.GenerateSingle(s, p, false), r.GenerateSingle(s, p, true))
	require.Equal(t, float32(3), r.GenerateSingle(s, p, true))
}

func TestMixRangeSoundness(t *testing.T) {
	g := graph.New()
	x, y, z := newXYZ(g)
	mix := g.CreateNode("mix", 3, 1)
	require.NoError(t, g.Connect(port(x), mix.ID, 0))
	require.NoError(t, g.Connect(port(y), mix.ID, 1))
	require.NoError(t, g.Connect(port(z), mix.ID, 2))
	connectOutput(t, g, mix)

	r := mustCompile(t, g)
	s := prepared(r, 1)

	lo := fieldruntime.Vector3{X: -1, Y: 2, Z: 0}
	hi := fieldruntime.Vector3{X: 1, Y: 3, Z: 1}
	bound := r.AnalyzeRange(s, lo, hi)

	for _, p := range []fieldruntime.Vector3{
		{X: -1, Y: 2, Z: 0}, {X: 1, Y: 3, Z: 1},
		{X: 0, Y: 2.5, Z: 0.5}, {X: -0.5, Y: 3, Z: 0.25},
	} {
		v := r.GenerateSingle(s, p, false)
		require.True(t, bound.Contains(v), "value %g at %+v outside bound %+v", v, p, bound)
	}
}

func TestSphereSignedDistance(t *testing.T) {
	g := graph.New()
	x, y, z := newXYZ(g)
	sp := g.CreateNode("sdf_sphere", 3, 1)
	for _, v := range []float64{0, 0, 0, 5} {
		sp.SetParam(v)
	}
	require.NoError(t, g.Connect(port(x), sp.ID, 0))
	require.NoError(t, g.Connect(port(y), sp.ID, 1))
	require.NoError(t, g.Connect(port(z), sp.ID, 2))
	connectOutput(t, g, sp)

	r := mustCompile(t, g)
	s := prepared(r, 1)

	require.Equal(t, float32(-5), r.GenerateSingle(s, fieldruntime.Vector3{}, false))
	require.Equal(t, float32(0), r.GenerateSingle(s, fieldruntime.Vector3{X: 5}, false))
	require.Equal(t, float32(5), r.GenerateSingle(s, fieldruntime.Vector3{X: 6, Y: 8}, false))
}

func TestBoxSignedDistance(t *testing.T) {
	g := graph.New()
	x, y, z := newXYZ(g)
	box := g.CreateNode("sdf_box", 3, 1)
	for _, v := range []float64{0, 0, 0, 1, 2, 3} {
		box.SetParam(v)
	}
	require.NoError(t, g.Connect(port(x), box.ID, 0))
	require.NoError(t, g.Connect(port(y), box.ID, 1))
	require.NoError(t, g.Connect(port(z), box.ID, 2))
	connectOutput(t, g, box)

	r := mustCompile(t, g)
	s := prepared(r, 1)

	require.Equal(t, float32(-1), r.GenerateSingle(s, fieldruntime.Vector3{}, false))
	require.Equal(t, float32(0), r.GenerateSingle(s, fieldruntime.Vector3{X: 1}, false))
	require.Equal(t, float32(4), r.GenerateSingle(s, fieldruntime.Vector3{X: 5}, false))

	// Soundness over a box straddling the surface.
	bound := r.AnalyzeRange(s,
		fieldruntime.Vector3{X: -2, Y: -1, Z: 0},
		fieldruntime.Vector3{X: 2, Y: 1, Z: 1})
	for _, p := range []fieldruntime.Vector3{
		{X: -2, Y: -1, Z: 0}, {X: 2, Y: 1, Z: 1}, {X: 0, Y: 0, Z: 0.5},
	} {
		require.True(t, bound.Contains(r.GenerateSingle(s, p, false)))
	}
}

func TestCurveLookup(t *testing.T) {
	curve := NewCurve([]float32{0, 1, 0}, 0, 2)

	g := graph.New()
	x, _, _ := newXYZ(g)
	cn := g.CreateNode("curve", 1, 1)
	cn.SetParam(curve)
	require.NoError(t, g.Connect(port(x), cn.ID, 0))
	connectOutput(t, g, cn)

	r := mustCompile(t, g)
	s := prepared(r, 1)

	require.Equal(t, float32(0), r.GenerateSingle(s, fieldruntime.Vector3{X: 0}, false))
	require.Equal(t, float32(1), r.GenerateSingle(s, fieldruntime.Vector3{X: 1}, false))
	require.Equal(t, float32(0.5), r.GenerateSingle(s, fieldruntime.Vector3{X: 0.5}, false))
	// Clamped outside the domain.
	require.Equal(t, float32(0), r.GenerateSingle(s, fieldruntime.Vector3{X: -3}, false))

	bound := r.AnalyzeRange(s,
		fieldruntime.Vector3{X: 0.25, Y: 0, Z: 0},
		fieldruntime.Vector3{X: 0.75, Y: 0, Z: 0})
	require.True(t, bound.ContainsInterval(interval.New(0.25, 0.75)))

	// Clearing the program releases the curve's read lock, so edits go
	// through again.
	r.Clear()
	curve.SetSamples([]float32{1, 2, 3})
}

func TestCurveConstantInputFolds(t *testing.T) {
	curve := NewCurve([]float32{0, 1, 0}, 0, 2)

	g := graph.New()
	newXYZ(g)
	c := g.CreateNode("constant", 0, 1)
	c.SetParam(0.5)
	cn := g.CreateNode("curve", 1, 1)
	cn.SetParam(curve)
	require.NoError(t, g.Connect(port(c), cn.ID, 0))
	connectOutput(t, g, cn)

	r := mustCompile(t, g)
	// The lookup folds away at compile time; only the output move remains.
	require.Equal(t, 1, r.InstructionCount())

	s := prepared(r, 1)
	require.Equal(t, float32(0.5), r.GenerateSingle(s, fieldruntime.Vector3{}, false))

	r.Clear()
	curve.SetSamples([]float32{2, 2, 2})
}

func TestFailedCompileReleasesCurve(t *testing.T) {
	curve := NewCurve([]float32{0, 1}, 0, 1)

	g := graph.New()
	x, _, _ := newXYZ(g)
	cn := g.CreateNode("curve", 1, 1)
	cn.SetParam(curve)
	require.NoError(t, g.Connect(port(x), cn.ID, 0))
	bad := g.CreateNode("clamp", 1, 1)
	bad.SetParam(2.0)
	bad.SetParam(1.0) // min exceeds max
	require.NoError(t, g.Connect(port(cn), bad.ID, 0))
	connectOutput(t, g, bad)

	r := runtime.New()
	res := r.Compile(g, false)
	require.False(t, res.Success)

	// The curve was locked while it compiled; the failure must give the
	// lock back, or this edit deadlocks.
	curve.SetSamples([]float32{3, 4})
}

// lockStamp records whether its lock was held at the moment its operation
// ran, so tests can observe the ordering of resource locking against
// compile-time constant folding.
type lockStamp struct {
	held     bool
	ranHeld  bool
	ranTimes int
}

func (l *lockStamp) Lock()   { l.held = true }
func (l *lockStamp) Unlock() { l.held = false }

var lockStampOnce sync.Once

func registerLockStampOp() {
	lockStampOnce.Do(func() {
		runtime.RegisterOperation(runtime.Operation{
			Name:        "test_lockstamp",
			InputCount:  1,
			OutputCount: 1,
			Compile: func(ctx *runtime.CompileContext) {
				st := ctx.Param(0).(*lockStamp)
				ctx.AddResource(st)
				ctx.SetParams(st)
			},
			Process: func(ctx *runtime.BufferContext) {
				st := ctx.Params().(*lockStamp)
				st.ranHeld = st.held
				st.ranTimes++
				in, out := ctx.Input(0), ctx.Output(0)
				for i := 0; i < out.Size; i++ {
					out.Data[i] = in.At(i)
				}
			},
			AnalyzeRange: func(ctx *runtime.RangeContext) {
				ctx.SetOutput(0, ctx.Input(0))
			},
		})
	})
}

func TestConstantFoldingHoldsResourceLock(t *testing.T) {
	registerLockStampOp()
	st := &lockStamp{}

	g := graph.New()
	newXYZ(g)
	c := g.CreateNode("constant", 0, 1)
	c.SetParam(2.0)
	n := g.CreateNode("test_lockstamp", 1, 1)
	n.SetParam(st)
	require.NoError(t, g.Connect(port(c), n.ID, 0))
	connectOutput(t, g, n)

	r := mustCompile(t, g)
	require.Equal(t, 1, st.ranTimes, "constant inputs fold in one pass")
	require.True(t, st.ranHeld, "folding read the resource before it was locked")
	require.True(t, st.held, "lock dropped while the program is live")

	r.Clear()
	require.False(t, st.held)
}

func TestCurveRangeOverIsSound(t *testing.T) {
	c := NewCurve([]float32{0, 2, -1, 3}, -1, 1)
	in := interval.New(-0.5, 0.5)
	bound := c.RangeOver(in)
	for t32 := in.Min; t32 <= in.Max; t32 += 0.01 {
		require.True(t, bound.Contains(c.Sample(t32)), "sample at %g outside %+v", t32, bound)
	}
}

func TestSqrtNegativeClampsToZero(t *testing.T) {
	require.Equal(t, float32(0), sqrt32(-4))
	require.Equal(t, float32(3), sqrt32(9))
	require.False(t, math.IsNaN(float64(sqrt32(float32(math.Inf(-1))))))
}
