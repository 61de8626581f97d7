// Package ops registers the built-in operation catalog: axis inputs, the
// field output, literal constants, scalar arithmetic, blending and
// selection, Euclidean distances, signed distance primitives and
// curve lookups backed by program-owned resources.
//
// Importing the package for side effects is enough to make every built-in
// node type compilable:
//
//	import _ "github.com/voxelforge/field-runtime/ops"
//
// Each operation supplies up to three routines: an optional compile hook
// that validates node parameters and attaches a typed payload, a process
// routine evaluating one buffer batch, and a range routine bounding the
// result with interval arithmetic. Range routines may additionally declare
// inputs irrelevant over the analyzed region, which lets execution-map
// generation prune whole subgraphs.
package ops
