// Package fieldruntime provides a compiler and virtual machine for
// procedural scalar fields described as node graphs.
//
// A graph of operations (math, blending, distance primitives, lookups) is
// compiled into a linear, address-based program which can then be executed
// at single points or over flat batches of points, with an optional
// interval-arithmetic analysis pass that prunes operations proven
// irrelevant to a queried region.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	fieldruntime/        Root package with shared vector types
//	├── runtime/         Compiler, Program, State, execution and range analysis
//	├── graph/           Node-graph input model and YAML ingestion
//	├── ops/             Operation catalog registered into the runtime
//	├── interval/        Closed-range arithmetic used by range analysis
//	├── resource/        Ownership set for compile-time resources
//	└── errors/          Structured error types for diagnostics
//
// # Quick Start
//
// Compile and evaluate a graph:
//
//	rt := runtime.New()
//	defer rt.Clear()
//
//	if res := rt.Compile(g, false); !res.Success {
//	    log.Fatal(res.Err)
//	}
//
//	var state runtime.State
//	rt.PrepareState(&state, 1)
//	sd := rt.GenerateSingle(&state, fieldruntime.Vector3{X: 2, Y: 3}, false)
//
// Batched generation with region pruning:
//
//	rt.PrepareState(&state, len(xs))
//	rt.AnalyzeRange(&state, boxMin, boxMax)
//	rt.GenerateOptimizedExecutionMap(&state, false)
//	rt.GenerateSet(&state, xs, ys, zs, out, false, true)
//
// # Thread Safety
//
// A Runtime's compiled program is immutable after Compile and may be shared
// across goroutines, each with its own State. A State must not be used
// concurrently. Recompilation must be serialized by the caller.
package fieldruntime
