package runtime

import (
	stderrors "errors"

	"go.uber.org/zap"

	"github.com/voxelforge/field-runtime/errors"
	"github.com/voxelforge/field-runtime/graph"
	"github.com/voxelforge/field-runtime/resource"
)

// Compile builds a program from the graph, replacing any previous one. On
// failure the program is left cleared and the result names the offending
// node; the runtime must not be used for generation until a later Compile
// succeeds. When debug is set, intermediate port addresses are retained
// for inspection.
func (r *Runtime) Compile(g *graph.Graph, debug bool) CompilationResult {
	r.program.clear()
	res := r.compile(g, debug)
	if !res.Success {
		// Releases any resources registered before the failure.
		r.program.clear()
	}
	r.program.result = res
	return res
}

type compiledNode struct {
	node *graph.Node
	op   *Operation
	opID uint16
}

// compiler carries the bookkeeping of one compilation pass: the buffer
// address arena, the map from graph ports to compiled addresses, the
// current producer of every address and the remaining read counts that
// drive address reuse.
type compiler struct {
	program *Program

	specs      []BufferSpec
	freeList   []uint16
	constCache map[float32]uint16

	portAddress    map[graph.PortLocation]uint16
	producerNode   map[uint16]int
	remainingReads map[graph.PortLocation]int

	yStartSet bool
}

func (r *Runtime) compile(g *graph.Graph, debug bool) CompilationResult {
	p := &r.program
	p.resources = resource.NewSet()
	p.outputPortAddresses = make(map[graph.PortLocation]uint16)

	order, err := g.EvaluationOrder()
	if err != nil {
		return failure(err)
	}

	nodes := make([]compiledNode, 0, len(order))
	for _, id := range order {
		n := g.Node(id)
		opID, ok := LookupOperation(n.Type)
		if !ok {
			return failure(errors.UnknownOp(n.ID, n.Type))
		}
		op := operationByID(opID)
		if len(n.Inputs) != op.InputCount {
			return failure(errors.PortMismatch(n.ID, n.Type, op.InputCount, len(n.Inputs), "input"))
		}
		if n.Outputs != op.OutputCount {
			return failure(errors.PortMismatch(n.ID, n.Type, op.OutputCount, n.Outputs, "output"))
		}
		nodes = append(nodes, compiledNode{node: n, op: op, opID: opID})
	}

	// Stable partition: nodes not transitively reading the Y input come
	// first, so planar sweeps can run the prefix once per batch. Moving a
	// Y-independent node ahead is safe because all of its dependencies
	// are Y-independent too.
	ydep := yDependencies(nodes)
	ordered := make([]compiledNode, 0, len(nodes))
	for _, cn := range nodes {
		if !ydep[cn.node.ID] {
			ordered = append(ordered, cn)
		}
	}
	for _, cn := range nodes {
		if ydep[cn.node.ID] {
			ordered = append(ordered, cn)
		}
	}

	c := &compiler{
		program:        p,
		constCache:     make(map[float32]uint16),
		portAddress:    make(map[graph.PortLocation]uint16),
		producerNode:   make(map[uint16]int),
		remainingReads: make(map[graph.PortLocation]int),
	}
	for _, cn := range nodes {
		for _, in := range cn.node.Inputs {
			if in.Source != nil {
				c.remainingReads[*in.Source]++
			}
		}
	}

	for _, cn := range ordered {
		var err error
		switch cn.op.Category {
		case CategoryInputX:
			err = c.compileAxisInput(cn, &p.xInputAddress, "X")
		case CategoryInputY:
			err = c.compileAxisInput(cn, &p.yInputAddress, "Y")
		case CategoryInputZ:
			err = c.compileAxisInput(cn, &p.zInputAddress, "Z")
		case CategoryOutput:
			err = c.compileOutput(cn, ydep[cn.node.ID])
		default:
			err = c.compileDefault(cn, ydep[cn.node.ID])
		}
		if err != nil {
			return failure(err)
		}
		c.releaseReads(cn.node)
	}

	switch {
	case p.xInputAddress == addressNone:
		return failure(errors.MissingInput("X"))
	case p.yInputAddress == addressNone:
		return failure(errors.MissingInput("Y"))
	case p.zInputAddress == addressNone:
		return failure(errors.MissingInput("Z"))
	case p.outputAddress == addressNone:
		return failure(errors.MissingOutput())
	}

	if !c.yStartSet {
		p.yStartInstruction = len(p.instructions)
	}
	p.bufferSpecs = c.specs
	p.bufferCount = len(c.specs)
	p.defaultExecutionMap = make([]uint16, len(p.instructions))
	for i := range p.defaultExecutionMap {
		p.defaultExecutionMap[i] = uint16(i)
	}
	if !debug {
		p.outputPortAddresses = nil
	}

	Logger().Debug("compiled field program",
		zap.Int("instructions", len(p.instructions)),
		zap.Int("buffers", p.bufferCount),
		zap.Int("y_start", p.yStartInstruction),
		zap.Int("resources", p.resources.Len()),
	)
	return CompilationResult{Success: true}
}

// yDependencies marks every node that transitively consumes the Y input.
// The order is topological, so producers are classified before consumers.
func yDependencies(nodes []compiledNode) map[uint32]bool {
	dep := make(map[uint32]bool, len(nodes))
	for _, cn := range nodes {
		if cn.op.Category == CategoryInputY {
			dep[cn.node.ID] = true
			continue
		}
		for _, in := range cn.node.Inputs {
			if in.Source != nil && dep[in.Source.NodeID] {
				dep[cn.node.ID] = true
				break
			}
		}
	}
	return dep
}

func (c *compiler) compileAxisInput(cn compiledNode, slot *int, axis string) error {
	if *slot != addressNone {
		return errors.DuplicateInput(cn.node.ID, axis)
	}
	addr := c.allocBinding()
	*slot = int(addr)
	loc := graph.PortLocation{NodeID: cn.node.ID, Port: 0}
	c.portAddress[loc] = addr
	c.program.outputPortAddresses[loc] = addr
	return nil
}

func (c *compiler) compileOutput(cn compiledNode, yDependent bool) error {
	p := c.program
	if p.outputAddress != addressNone {
		return errors.DuplicateOutput(cn.node.ID)
	}
	inAddr, err := c.resolveInput(cn, 0)
	if err != nil {
		return err
	}
	outAddr := c.allocBinding()
	p.outputAddress = int(outAddr)

	if yDependent && !c.yStartSet {
		p.yStartInstruction = len(p.instructions)
		c.yStartSet = true
	}

	// The output value is moved into caller-bound memory by an identity
	// instruction, so the producer's address stays reusable internally.
	nodeIndex := c.emit(cn.node, copyOpID, []uint16{inAddr}, []uint16{outAddr}, paramsNone, true)
	p.outputNodeIndex = nodeIndex
	return nil
}

func (c *compiler) compileDefault(cn compiledNode, yDependent bool) error {
	p := c.program
	node := cn.node

	inAddrs := make([]uint16, len(node.Inputs))
	for i := range node.Inputs {
		addr, err := c.resolveInput(cn, i)
		if err != nil {
			return err
		}
		inAddrs[i] = addr
	}

	cctx := CompileContext{node: node, program: p}
	if cn.op.Compile != nil {
		cn.op.Compile(&cctx)
		if cctx.failed {
			return errors.OpFailed(node.ID, node.Type, cctx.errMsg)
		}
	}

	allConstant := true
	for _, a := range inAddrs {
		if !c.specs[a].IsConstant {
			allConstant = false
			break
		}
	}

	if allConstant {
		// Every input is known at compile time: run the operation once
		// now and replace it with constant buffers. It is never
		// scheduled, so its execute routine never runs again.
		values := c.foldConstant(cn.op, inAddrs, cctx.params)
		for port, v := range values {
			addr := c.constantAddress(v)
			loc := graph.PortLocation{NodeID: node.ID, Port: port}
			c.portAddress[loc] = addr
			p.outputPortAddresses[loc] = addr
		}
		Logger().Debug("folded constant operation",
			zap.Uint32("node", node.ID), zap.String("op", node.Type))
		return nil
	}

	outAddrs := make([]uint16, cn.op.OutputCount)
	for port := range outAddrs {
		addr := c.allocWorking()
		outAddrs[port] = addr
		loc := graph.PortLocation{NodeID: node.ID, Port: port}
		c.portAddress[loc] = addr
		p.outputPortAddresses[loc] = addr
	}

	paramIndex := paramsNone
	if cctx.paramsSet {
		p.params = append(p.params, cctx.params)
		paramIndex = len(p.params) - 1
	}

	if yDependent && !c.yStartSet {
		p.yStartInstruction = len(p.instructions)
		c.yStartSet = true
	}
	c.emit(node, cn.opID, inAddrs, outAddrs, paramIndex, false)
	return nil
}

// emit appends one instruction and its dependency-graph node, wiring
// dependencies to the current producers of the consumed addresses.
func (c *compiler) emit(node *graph.Node, opID uint16, inAddrs, outAddrs []uint16, paramIndex int, isOutput bool) int {
	p := c.program

	instrIndex := len(p.instructions)
	p.instructions = append(p.instructions, instruction{
		op:      opID,
		inputs:  inAddrs,
		outputs: outAddrs,
		params:  paramIndex,
	})

	first := len(p.depGraph.dependencies)
	seen := make(map[int]bool, len(inAddrs))
	for _, a := range inAddrs {
		c.specs[a].UsersCount++
		if prod, ok := c.producerNode[a]; ok && !seen[prod] {
			seen[prod] = true
			p.depGraph.dependencies = append(p.depGraph.dependencies, uint16(prod))
		}
	}

	nodeIndex := len(p.depGraph.nodes)
	p.depGraph.nodes = append(p.depGraph.nodes, depGraphNode{
		firstDependency:  first,
		endDependency:    len(p.depGraph.dependencies),
		instructionIndex: instrIndex,
		debugNodeID:      node.ID,
		isOutput:         isOutput,
	})
	for _, a := range outAddrs {
		c.producerNode[a] = nodeIndex
	}
	return nodeIndex
}

// resolveInput maps one input port to a buffer address: the connected
// producer's address, or a constant buffer holding the port's default.
func (c *compiler) resolveInput(cn compiledNode, port int) (uint16, error) {
	in := cn.node.Inputs[port]
	if in.Source != nil {
		addr, ok := c.portAddress[*in.Source]
		if !ok {
			return 0, errors.New(errors.PhaseCompile, errors.KindInvalidData).
				Node(cn.node.ID).Op(cn.node.Type).
				Detail("input port %d references unresolved port %s", port, in.Source).
				Build()
		}
		return addr, nil
	}
	if in.HasDefault {
		return c.constantAddress(in.Default), nil
	}
	return 0, errors.UnconnectedPort(cn.node.ID, cn.node.Type, port)
}

// releaseReads retires this node's reads; addresses whose last reader has
// been compiled return to the free list for reuse.
func (c *compiler) releaseReads(node *graph.Node) {
	for _, in := range node.Inputs {
		if in.Source == nil {
			continue
		}
		c.remainingReads[*in.Source]--
		if c.remainingReads[*in.Source] > 0 {
			continue
		}
		addr, ok := c.portAddress[*in.Source]
		if !ok {
			continue
		}
		spec := &c.specs[addr]
		if spec.IsConstant || spec.IsBinding {
			continue
		}
		// Buffers written by the Y-independent prefix and still read past
		// the Y boundary hold the cached planar column; recycling them
		// would let a later instruction clobber it between batches.
		if c.yStartSet {
			if prod, ok := c.producerNode[addr]; ok &&
				c.program.depGraph.nodes[prod].instructionIndex < c.program.yStartInstruction {
				continue
			}
		}
		c.freeList = append(c.freeList, addr)
	}
}

// foldConstant executes an operation once over single-element scratch
// buffers to compute its compile-time value(s).
func (c *compiler) foldConstant(op *Operation, inAddrs []uint16, params any) []float32 {
	table := make([]Buffer, len(inAddrs)+op.OutputCount)
	ins := make([]uint16, len(inAddrs))
	for i, a := range inAddrs {
		table[i] = Buffer{IsConstant: true, Constant: c.specs[a].ConstantValue, Size: 1}
		ins[i] = uint16(i)
	}
	outs := make([]uint16, op.OutputCount)
	for i := range outs {
		idx := len(inAddrs) + i
		table[idx] = Buffer{Data: make([]float32, 1), Size: 1}
		outs[i] = uint16(idx)
	}

	ctx := BufferContext{inputs: ins, outputs: outs, params: params, buffers: table}
	op.Process(&ctx)

	values := make([]float32, op.OutputCount)
	for i := range values {
		values[i] = table[len(inAddrs)+i].Data[0]
	}
	return values
}

func (c *compiler) allocWorking() uint16 {
	if n := len(c.freeList); n > 0 {
		addr := c.freeList[n-1]
		c.freeList = c.freeList[:n-1]
		return addr
	}
	addr := uint16(len(c.specs))
	c.specs = append(c.specs, BufferSpec{Address: addr})
	return addr
}

func (c *compiler) allocBinding() uint16 {
	addr := uint16(len(c.specs))
	c.specs = append(c.specs, BufferSpec{Address: addr, IsBinding: true})
	return addr
}

func (c *compiler) constantAddress(v float32) uint16 {
	if addr, ok := c.constCache[v]; ok {
		return addr
	}
	addr := uint16(len(c.specs))
	c.specs = append(c.specs, BufferSpec{Address: addr, IsConstant: true, ConstantValue: v})
	c.constCache[v] = addr
	return addr
}

func failure(err error) CompilationResult {
	res := CompilationResult{Err: err}
	var fe *errors.Error
	if stderrors.As(err, &fe) {
		res.NodeID = fe.NodeID
	}
	return res
}
