package runtime

import (
	"github.com/voxelforge/field-runtime/graph"
)

// Runtime owns one compiled program. Compile replaces the program
// wholesale; all other methods are read-only with respect to it, so a
// Runtime may be shared across goroutines as long as recompilation is
// serialized by the caller and each goroutine uses its own State.
type Runtime struct {
	program Program
}

// New creates a runtime with no compiled program.
func New() *Runtime {
	r := &Runtime{}
	r.program.clear()
	return r
}

// Clear discards the compiled program, releasing owned compile-time
// resources and resource locks exactly once.
func (r *Runtime) Clear() {
	r.program.clear()
}

// HasOutput reports whether the last compilation produced a usable output
// binding.
func (r *Runtime) HasOutput() bool {
	return r.program.outputAddress != addressNone
}

// Result returns the outcome of the last Compile call.
func (r *Runtime) Result() CompilationResult {
	return r.program.result
}

// OutputPortAddress resolves a graph output port to its compiled buffer
// address, for inspecting intermediate values.
func (r *Runtime) OutputPortAddress(port graph.PortLocation) (uint16, bool) {
	addr, ok := r.program.outputPortAddresses[port]
	return addr, ok
}

// InstructionCount returns the number of compiled instructions.
func (r *Runtime) InstructionCount() int {
	return len(r.program.instructions)
}

// BufferCount returns the number of buffer addresses a prepared State
// provides.
func (r *Runtime) BufferCount() int {
	return r.program.bufferCount
}
