package graph

import (
	"fmt"
	"sort"

	"github.com/voxelforge/field-runtime/errors"
)

// PortLocation identifies one output port of one node.
type PortLocation struct {
	NodeID uint32
	Port   int
}

func (p PortLocation) String() string {
	return fmt.Sprintf("%d:%d", p.NodeID, p.Port)
}

// Input describes one input port of a node: either a connection to another
// node's output port, or a literal default value used when unconnected.
type Input struct {
	Source     *PortLocation
	Default    float32
	HasDefault bool
}

// Node is one operation node in a field graph.
type Node struct {
	ID      uint32
	Type    string
	Inputs  []Input
	Outputs int
	Params  []any
}

// SetDefault assigns a literal fallback value to an unconnected input port.
func (n *Node) SetDefault(port int, v float32) {
	n.Inputs[port].Default = v
	n.Inputs[port].HasDefault = true
}

// SetParam appends a literal compile-time parameter.
func (n *Node) SetParam(v any) {
	n.Params = append(n.Params, v)
}

// Graph is a directed graph of operation nodes. It is the input to
// compilation; the compiler never mutates it.
type Graph struct {
	nodes  map[uint32]*Node
	nextID uint32
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:  make(map[uint32]*Node),
		nextID: 1,
	}
}

// CreateNode adds a node of the given operation type with the given port
// counts and returns it. IDs are assigned sequentially starting at 1.
func (g *Graph) CreateNode(opType string, inputs, outputs int) *Node {
	n := &Node{
		ID:      g.nextID,
		Type:    opType,
		Inputs:  make([]Input, inputs),
		Outputs: outputs,
	}
	g.nodes[n.ID] = n
	g.nextID++
	return n
}

// addNode inserts a node with an explicit ID, used by the YAML loader.
func (g *Graph) addNode(n *Node) error {
	if n.ID == 0 {
		return errors.InvalidData(errors.PhaseParse, "node id 0 is reserved")
	}
	if _, exists := g.nodes[n.ID]; exists {
		return errors.InvalidData(errors.PhaseParse, fmt.Sprintf("duplicate node id %d", n.ID))
	}
	g.nodes[n.ID] = n
	if n.ID >= g.nextID {
		g.nextID = n.ID + 1
	}
	return nil
}

// Node returns the node with the given ID, or nil.
func (g *Graph) Node(id uint32) *Node {
	return g.nodes[id]
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns all nodes in ascending ID order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Connect wires src to the given input port of node dst. The destination
// port must exist and be unconnected.
func (g *Graph) Connect(src PortLocation, dst uint32, dstPort int) error {
	srcNode := g.nodes[src.NodeID]
	if srcNode == nil {
		return errors.NotFound(errors.PhaseParse, "source node", fmt.Sprint(src.NodeID))
	}
	if src.Port < 0 || src.Port >= srcNode.Outputs {
		return errors.InvalidData(errors.PhaseParse,
			fmt.Sprintf("node %d has no output port %d", src.NodeID, src.Port))
	}
	dstNode := g.nodes[dst]
	if dstNode == nil {
		return errors.NotFound(errors.PhaseParse, "destination node", fmt.Sprint(dst))
	}
	if dstPort < 0 || dstPort >= len(dstNode.Inputs) {
		return errors.InvalidData(errors.PhaseParse,
			fmt.Sprintf("node %d has no input port %d", dst, dstPort))
	}
	if dstNode.Inputs[dstPort].Source != nil {
		return errors.InvalidData(errors.PhaseParse,
			fmt.Sprintf("input port %d:%d is already connected", dst, dstPort))
	}
	loc := src
	dstNode.Inputs[dstPort].Source = &loc
	return nil
}

// EvaluationOrder returns node IDs in a deterministic topological order:
// producers before consumers, ties broken by ascending ID. A cycle is
// reported as a compile error naming one participating node.
func (g *Graph) EvaluationOrder() ([]uint32, error) {
	pending := make(map[uint32]int, len(g.nodes))
	consumers := make(map[uint32][]uint32, len(g.nodes))

	for _, n := range g.Nodes() {
		deps := 0
		seen := make(map[uint32]bool)
		for _, in := range n.Inputs {
			if in.Source == nil || seen[in.Source.NodeID] {
				continue
			}
			seen[in.Source.NodeID] = true
			deps++
			consumers[in.Source.NodeID] = append(consumers[in.Source.NodeID], n.ID)
		}
		pending[n.ID] = deps
	}

	var ready []uint32
	for _, n := range g.Nodes() {
		if pending[n.ID] == 0 {
			ready = append(ready, n.ID)
		}
	}

	order := make([]uint32, 0, len(g.nodes))
	for len(ready) > 0 {
		// Smallest ready ID first keeps the order deterministic.
		best := 0
		for i := 1; i < len(ready); i++ {
			if ready[i] < ready[best] {
				best = i
			}
		}
		id := ready[best]
		ready = append(ready[:best], ready[best+1:]...)
		order = append(order, id)

		for _, c := range consumers[id] {
			pending[c]--
			if pending[c] == 0 {
				ready = append(ready, c)
			}
		}
	}

	if len(order) != len(g.nodes) {
		for _, n := range g.Nodes() {
			if pending[n.ID] > 0 {
				return nil, errors.Cycle(n.ID)
			}
		}
	}
	return order, nil
}
