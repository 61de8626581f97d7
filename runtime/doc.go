// Package runtime compiles field graphs into linear programs and executes
// them.
//
// Compile walks a graph in dependency order, assigns buffer addresses,
// folds compile-time constants and emits an instruction stream plus a
// dependency graph. The compiled Program is immutable; callers prepare a
// State against it and then generate values one point at a time
// (GenerateSingle) or over flat batches (GenerateSet).
//
// AnalyzeRange replays the program with interval arithmetic to bound the
// output over an axis-aligned box, and GenerateOptimizedExecutionMap
// derives from that analysis a reduced instruction order that skips
// operations proven irrelevant inside the box.
//
// A Program may be shared across goroutines, each with its own State; a
// State must not be used concurrently. Violating Program/State invariants
// (wrong buffer size, unprepared state, out-of-range address) panics:
// these are programmer errors, not runtime conditions.
package runtime
