package runtime

import (
	"fmt"
	"sync"
)

// Category marks operations the compiler treats specially: axis inputs
// become binding buffers without emitting an instruction, and the single
// output node determines the program's output address.
type Category int

const (
	CategoryDefault Category = iota
	CategoryInputX
	CategoryInputY
	CategoryInputZ
	CategoryOutput
)

// CompileFunc emits an operation's compile-time parameters and resources.
type CompileFunc func(*CompileContext)

// ProcessFunc computes an operation's output buffers from its input buffers.
type ProcessFunc func(*BufferContext)

// RangeFunc computes a sound over-approximation of an operation's output
// interval from its input intervals.
type RangeFunc func(*RangeContext)

// Operation is one registered operation kind: a compile/execute/range
// routine triplet dispatched by the compiled instruction stream.
type Operation struct {
	Name         string
	Category     Category
	InputCount   int
	OutputCount  int
	Compile      CompileFunc // optional
	Process      ProcessFunc
	AnalyzeRange RangeFunc
}

// The operation table is populated by init functions at startup and only
// read afterwards, so execution dispatch takes no lock.
var (
	registryMu sync.Mutex
	opsByID    []Operation
	opsByName  = map[string]uint16{}
)

// RegisterOperation adds an operation kind to the process-wide table and
// returns its dispatch identifier. Registering a duplicate or incomplete
// operation panics; the table is meant to be built once at startup.
func RegisterOperation(op Operation) uint16 {
	registryMu.Lock()
	defer registryMu.Unlock()

	if op.Name == "" {
		panic("runtime: operation has no name")
	}
	if _, exists := opsByName[op.Name]; exists {
		panic(fmt.Sprintf("runtime: operation %q registered twice", op.Name))
	}
	if op.Category == CategoryDefault && (op.Process == nil || op.AnalyzeRange == nil) {
		panic(fmt.Sprintf("runtime: operation %q is missing a process or range routine", op.Name))
	}

	id := uint16(len(opsByID))
	opsByID = append(opsByID, op)
	opsByName[op.Name] = id
	return id
}

// LookupOperation returns the dispatch identifier for a registered name.
func LookupOperation(name string) (uint16, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	id, ok := opsByName[name]
	return id, ok
}

func operationByID(id uint16) *Operation {
	return &opsByID[id]
}

// copyOpID is the identity operation the compiler emits to move a
// producer's values into the caller-bound output buffer.
var copyOpID = RegisterOperation(Operation{
	Name:        "copy",
	InputCount:  1,
	OutputCount: 1,
	Process: func(ctx *BufferContext) {
		in := ctx.Input(0)
		out := ctx.Output(0)
		if in.IsConstant {
			out.Fill(in.Constant)
			return
		}
		copy(out.Data[:out.Size], in.Data[:in.Size])
	},
	AnalyzeRange: func(ctx *RangeContext) {
		ctx.SetOutput(0, ctx.Input(0))
	},
})
