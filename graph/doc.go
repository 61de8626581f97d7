// Package graph provides the node-graph input model consumed by the
// runtime compiler.
//
// A Graph is a set of operation nodes with ordered input and output ports.
// Input ports are either connected to another node's output port or carry a
// literal default value. Nodes also carry literal compile-time parameters
// read by operation compile routines.
//
// Graphs can be built programmatically or loaded from YAML definitions.
// EvaluationOrder exposes a deterministic topological traversal; a cyclic
// graph is rejected there, before compilation proper begins.
package graph
