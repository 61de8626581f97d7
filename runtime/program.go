package runtime

import (
	"github.com/voxelforge/field-runtime/graph"
	"github.com/voxelforge/field-runtime/resource"
)

const addressNone = -1

// instruction is one compiled operation: a dispatch identifier, explicit
// input/output buffer address lists and an optional typed parameter
// payload held in the program's parameter table.
type instruction struct {
	inputs  []uint16
	outputs []uint16
	op      uint16
	params  int // index into Program.params, or paramsNone
}

const paramsNone = -1

// BufferSpec describes one buffer a State must provide before the program
// can run.
type BufferSpec struct {
	Address       uint16
	UsersCount    uint16 // instructions reading this address
	ConstantValue float32
	IsConstant    bool
	IsBinding     bool
}

// CompilationResult records the outcome of the last Compile call.
type CompilationResult struct {
	Err     error
	NodeID  uint32 // offending node on failure, 0 otherwise
	Success bool
}

// Program is the immutable artifact of compilation. It is read-only after
// Compile returns and is replaced wholesale by the next Compile call.
type Program struct {
	instructions []instruction
	params       []any
	depGraph     dependencyGraph

	// Instruction indices in default run order. Kept separate so a
	// narrowed execution map can replace it without touching the stream.
	defaultExecutionMap []uint16

	// Compile-time resources owned by the program, released exactly once.
	resources *resource.Set

	bufferSpecs []BufferSpec
	bufferCount int

	// First instruction index that transitively depends on the Y input.
	// Instructions before it can run once per planar batch.
	yStartInstruction int

	xInputAddress int
	yInputAddress int
	zInputAddress int
	outputAddress int

	// Dependency-graph node producing the final output, the root of
	// execution-map generation.
	outputNodeIndex int

	outputPortAddresses map[graph.PortLocation]uint16

	result CompilationResult
}

func (p *Program) clear() {
	if p.resources != nil {
		p.resources.Release()
	}
	p.instructions = nil
	p.params = nil
	p.depGraph.clear()
	p.defaultExecutionMap = nil
	p.resources = nil
	p.bufferSpecs = nil
	p.bufferCount = 0
	p.yStartInstruction = 0
	p.xInputAddress = addressNone
	p.yInputAddress = addressNone
	p.zInputAddress = addressNone
	p.outputAddress = addressNone
	p.outputNodeIndex = addressNone
	p.outputPortAddresses = nil
	p.result = CompilationResult{}
}

func (p *Program) paramsOf(inst *instruction) any {
	if inst.params == paramsNone {
		return nil
	}
	return p.params[inst.params]
}

// dependencyGraph records, per instruction, which earlier instructions
// produced its inputs. Nodes are stored in default execution order.
type dependencyGraph struct {
	// Indices into nodes, grouped per node by [firstDependency, endDependency).
	dependencies []uint16
	nodes        []depGraphNode
}

type depGraphNode struct {
	firstDependency  int
	endDependency    int
	instructionIndex int
	debugNodeID      uint32
	isOutput         bool
}

func (g *dependencyGraph) clear() {
	g.dependencies = nil
	g.nodes = nil
}
