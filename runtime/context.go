package runtime

import (
	"fmt"

	"github.com/voxelforge/field-runtime/graph"
	"github.com/voxelforge/field-runtime/interval"
)

// CompileContext is handed to an operation's compile routine. It exposes
// the node's literal parameters, lets the routine attach one typed
// parameter payload to the emitted instruction, transfer resource
// ownership to the program, and report a compile failure.
type CompileContext struct {
	node      *graph.Node
	program   *Program
	params    any
	paramsSet bool
	errMsg    string
	failed    bool
}

// NodeID returns the originating graph node identifier.
func (c *CompileContext) NodeID() uint32 {
	return c.node.ID
}

// ParamCount returns the number of literal parameters on the node.
func (c *CompileContext) ParamCount() int {
	return len(c.node.Params)
}

// Param returns the i-th literal parameter declared on the node.
func (c *CompileContext) Param(i int) any {
	return c.node.Params[i]
}

// SetParams attaches the instruction's parameter payload. It may be called
// at most once per node; a second call is a broken operation implementation
// and panics.
func (c *CompileContext) SetParams(p any) {
	if c.paramsSet {
		panic(fmt.Sprintf("runtime: node %d set instruction params twice", c.node.ID))
	}
	c.params = p
	c.paramsSet = true
}

// AddResource transfers ownership of a compile-time resource to the
// program. Lockables are locked here, before constant folding can read
// them; everything is released when the program is cleared.
func (c *CompileContext) AddResource(v any) {
	c.program.resources.Add(v)
}

// MakeError marks compilation as failed with a message attributed to the
// current node. Compilation aborts after the routine returns.
func (c *CompileContext) MakeError(format string, args ...any) {
	c.failed = true
	if len(args) > 0 {
		c.errMsg = fmt.Sprintf(format, args...)
	} else {
		c.errMsg = format
	}
}

// HasError reports whether MakeError was called.
func (c *CompileContext) HasError() bool {
	return c.failed
}

// BufferContext is handed to an operation's process routine. It exposes
// only the instruction's declared input and output buffers, never the
// whole buffer table.
type BufferContext struct {
	inputs  []uint16
	outputs []uint16
	params  any
	buffers []Buffer
}

// Params returns the instruction's parameter payload, or nil.
func (c *BufferContext) Params() any {
	return c.params
}

// InputAddress returns the buffer address of the i-th input.
func (c *BufferContext) InputAddress(i int) uint16 {
	return c.inputs[i]
}

// Input returns the i-th input buffer.
func (c *BufferContext) Input(i int) *Buffer {
	return &c.buffers[c.inputs[i]]
}

// Output returns the i-th output buffer.
func (c *BufferContext) Output(i int) *Buffer {
	return &c.buffers[c.outputs[i]]
}

// RangeContext is handed to an operation's range routine. It carries
// per-address intervals instead of value arrays.
type RangeContext struct {
	inputs  []uint16
	outputs []uint16
	params  any
	ranges  []interval.Interval
	buffers []Buffer
}

// Params returns the instruction's parameter payload, or nil.
func (c *RangeContext) Params() any {
	return c.params
}

// Input returns the interval bounding the i-th input over the analyzed box.
func (c *RangeContext) Input(i int) interval.Interval {
	return c.ranges[c.inputs[i]]
}

// SetOutput records the interval bounding the i-th output. The interval
// must contain every value the operation can produce for inputs within
// their intervals.
func (c *RangeContext) SetOutput(i int, r interval.Interval) {
	c.ranges[c.outputs[i]] = r
}

// IgnoreInput signals that the precise value of the i-th input cannot
// affect this operation's result over the analyzed box, releasing one
// consumer of that buffer for execution-map pruning.
//
// An ignored input's producer may be dropped from the execution map,
// leaving its buffer stale. The declaration therefore promises that the
// process routine's output does not depend on that buffer's contents: an
// operation that still consults an input to decide its result (a selector,
// a divisor) must never ignore it.
func (c *RangeContext) IgnoreInput(i int) {
	b := &c.buffers[c.inputs[i]]
	if b.localUsers > 0 {
		b.localUsers--
	}
}
