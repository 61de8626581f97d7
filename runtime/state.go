package runtime

import (
	"fmt"

	"github.com/voxelforge/field-runtime/interval"
)

// Buffer is one numeric working register: an array of per-sample values,
// or a single compile-time constant, never both. Binding buffers point at
// caller-owned memory mapped in for the duration of one call.
type Buffer struct {
	Data     []float32
	Size     int
	Constant float32

	IsConstant bool
	IsBinding  bool

	// Remaining not-yet-executed consumers, maintained by range analysis
	// and read by execution-map generation.
	localUsers int
}

// At returns the i-th value, observing the stored constant for constant
// buffers.
func (b *Buffer) At(i int) float32 {
	if b.IsConstant {
		return b.Constant
	}
	return b.Data[i]
}

// Fill writes v to the first Size elements.
func (b *Buffer) Fill(v float32) {
	for i := 0; i < b.Size; i++ {
		b.Data[i] = v
	}
}

// State is the mutable execution scratchpad for one caller: one buffer and
// one interval per address, plus the active execution order. A State can
// be reused across many calls against the same program and buffer size; it
// must be re-prepared when either changes.
type State struct {
	buffers []Buffer
	ranges  []interval.Interval

	// Narrowed instruction order produced by execution mapping, valid
	// only inside the last analyzed box.
	executionMap      []uint16
	debugExecutionMap []uint32
	mapYStartIndex    int
	mapGenerated      bool

	bufferSize     int
	bufferCapacity int

	// Scratch bindings for single-point generation.
	singleX   [1]float32
	singleY   [1]float32
	singleZ   [1]float32
	singleOut [1]float32
}

// Buffer returns the buffer at the given address. An out-of-range address
// is a broken Program/State invariant and panics.
func (s *State) Buffer(address uint16) *Buffer {
	return &s.buffers[address]
}

// Range returns the interval computed for the given address by the last
// AnalyzeRange call.
func (s *State) Range(address uint16) interval.Interval {
	return s.ranges[address]
}

// ExecutionMap returns the narrowed instruction order generated by
// GenerateOptimizedExecutionMap, or nil. The returned slice is owned by
// the State and must not be modified.
func (s *State) ExecutionMap() []uint16 {
	if !s.mapGenerated {
		return nil
	}
	return s.executionMap
}

// DebugExecutionMap returns the graph node IDs of the active narrowed
// order, when it was generated with debug set.
func (s *State) DebugExecutionMap() []uint32 {
	return s.debugExecutionMap
}

// Clear releases all state-owned buffer memory. Binding buffers point at
// caller memory and are only unmapped.
func (s *State) Clear() {
	s.buffers = nil
	s.ranges = nil
	s.executionMap = nil
	s.debugExecutionMap = nil
	s.mapYStartIndex = 0
	s.mapGenerated = false
	s.bufferSize = 0
	s.bufferCapacity = 0
}

// PrepareState (re)shapes a state to the compiled program's buffer layout
// with capacity for bufferSize samples per buffer. Call it once per
// program and buffer size; the state can then be reused across any number
// of generation and analysis calls. Preparing against an uncompiled
// program or a non-positive size panics.
func (r *Runtime) PrepareState(s *State, bufferSize int) {
	p := &r.program
	if !p.result.Success {
		panic("runtime: PrepareState on a program that has not compiled successfully")
	}
	if bufferSize < 1 {
		panic(fmt.Sprintf("runtime: invalid buffer size %d", bufferSize))
	}

	reuse := len(s.buffers) == p.bufferCount && s.bufferCapacity >= bufferSize
	if !reuse {
		s.buffers = make([]Buffer, p.bufferCount)
		s.bufferCapacity = bufferSize
	}
	s.bufferSize = bufferSize

	for i := range s.buffers {
		kept := s.buffers[i].Data
		if s.buffers[i].IsBinding {
			kept = nil // caller memory from a previous call, never retained
		}
		s.buffers[i] = Buffer{Data: kept}
	}
	for _, spec := range p.bufferSpecs {
		b := &s.buffers[spec.Address]
		switch {
		case spec.IsConstant:
			// No array: consumers observe the stored constant directly.
			b.IsConstant = true
			b.Constant = spec.ConstantValue
			b.Data = nil
		case spec.IsBinding:
			// Caller memory is mapped in per call.
			b.IsBinding = true
			b.Data = nil
		default:
			if b.Data == nil || cap(b.Data) < bufferSize {
				b.Data = make([]float32, bufferSize)
			} else {
				b.Data = b.Data[:bufferSize]
			}
			b.Size = bufferSize
		}
		b.localUsers = int(spec.UsersCount)
	}

	if len(s.ranges) != p.bufferCount {
		s.ranges = make([]interval.Interval, p.bufferCount)
	} else {
		for i := range s.ranges {
			s.ranges[i] = interval.Interval{}
		}
	}

	s.executionMap = s.executionMap[:0]
	s.debugExecutionMap = nil
	s.mapYStartIndex = 0
	s.mapGenerated = false
}

// setActiveSize adjusts the sample count of every non-constant buffer for
// the current call. Exceeding the prepared capacity is a caller bug.
func (s *State) setActiveSize(n int) {
	if n > s.bufferSize {
		panic(fmt.Sprintf("runtime: %d samples exceed prepared size %d", n, s.bufferSize))
	}
	for i := range s.buffers {
		b := &s.buffers[i]
		if b.IsConstant {
			continue
		}
		b.Size = n
	}
}

// bind maps caller-owned memory onto a binding buffer address.
func (s *State) bind(address int, data []float32) {
	b := &s.buffers[address]
	if !b.IsBinding {
		panic(fmt.Sprintf("runtime: address %d is not a binding buffer", address))
	}
	b.Data = data
	b.Size = len(data)
}
