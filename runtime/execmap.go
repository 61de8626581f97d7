package runtime

import (
	"go.uber.org/zap"
)

type processResult uint8

const (
	notProcessed processResult = iota
	skippable
	required
)

// GenerateOptimizedExecutionMap rebuilds the state's active instruction
// order from the last AnalyzeRange pass, keeping only instructions that
// still contribute to the output inside the analyzed box.
//
// An instruction is dropped when its output interval collapsed to a single
// value (that value is pinned into its buffer once, here), or when every
// consumer of its output declared the value irrelevant via IgnoreInput;
// producers feeding only dropped instructions are dropped recursively. The
// narrowed order is valid only for positions inside the analyzed box, and
// callers must re-analyze before querying elsewhere. With debug set, the
// originating graph node IDs of the surviving order are retained.
func (r *Runtime) GenerateOptimizedExecutionMap(s *State, debug bool) {
	p := r.requireRunnable(s)

	nodes := p.depGraph.nodes
	results := make([]processResult, len(nodes))

	stack := []int{p.outputNodeIndex}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if results[idx] != notProcessed {
			continue
		}
		node := &nodes[idx]

		// Instructions whose outputs are fully determined over the box
		// are pinned and skipped; their dependencies become irrelevant.
		// The output instruction always runs, since it writes into
		// caller memory that is not mapped yet.
		if !node.isOutput && r.isOperationConstant(s, node.instructionIndex) {
			results[idx] = skippable
			r.pinConstantOutputs(s, node.instructionIndex)
			continue
		}
		results[idx] = required

		for di := node.firstDependency; di < node.endDependency; di++ {
			dep := int(p.depGraph.dependencies[di])
			if results[dep] != notProcessed {
				continue
			}
			if !r.hasRemainingUsers(s, nodes[dep].instructionIndex) {
				// Every consumer ignored this producer's value.
				results[dep] = skippable
				continue
			}
			stack = append(stack, dep)
		}
	}

	// Surviving instructions keep their relative (dependency-respecting)
	// order. The Y-start index is recomputed against the narrowed map.
	s.executionMap = s.executionMap[:0]
	s.debugExecutionMap = nil
	yStartSet := false
	s.mapYStartIndex = 0
	for i := range nodes {
		if results[i] != required {
			continue
		}
		node := &nodes[i]
		if !yStartSet && node.instructionIndex >= p.yStartInstruction {
			s.mapYStartIndex = len(s.executionMap)
			yStartSet = true
		}
		s.executionMap = append(s.executionMap, uint16(node.instructionIndex))
		if debug {
			s.debugExecutionMap = append(s.debugExecutionMap, node.debugNodeID)
		}
	}
	if !yStartSet {
		s.mapYStartIndex = len(s.executionMap)
	}
	s.mapGenerated = true

	Logger().Debug("generated execution map",
		zap.Int("kept", len(s.executionMap)),
		zap.Int("total", len(p.instructions)),
	)
}

// isOperationConstant reports whether every output of the instruction is
// fully determined over the analyzed box: a compile-time constant or an
// interval holding a single value. Binding outputs are never constant.
func (r *Runtime) isOperationConstant(s *State, instrIndex int) bool {
	inst := &r.program.instructions[instrIndex]
	for _, addr := range inst.outputs {
		b := &s.buffers[addr]
		if b.IsBinding {
			return false
		}
		if b.IsConstant {
			continue
		}
		if !s.ranges[addr].IsSingleValue() {
			return false
		}
	}
	return true
}

// hasRemainingUsers reports whether any output of the instruction still
// has a consumer that wants its precise value.
func (r *Runtime) hasRemainingUsers(s *State, instrIndex int) bool {
	inst := &r.program.instructions[instrIndex]
	for _, addr := range inst.outputs {
		if s.buffers[addr].localUsers > 0 {
			return true
		}
	}
	return false
}

// pinConstantOutputs writes a skipped instruction's single-valued results
// into its buffers so surviving consumers read correct data.
func (r *Runtime) pinConstantOutputs(s *State, instrIndex int) {
	inst := &r.program.instructions[instrIndex]
	for _, addr := range inst.outputs {
		b := &s.buffers[addr]
		if b.IsConstant || b.IsBinding {
			continue
		}
		b.Size = s.bufferSize
		b.Fill(s.ranges[addr].Min)
	}
}
