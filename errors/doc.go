// Package errors provides structured error types for the field runtime.
//
// Errors carry a Phase (where processing failed), a Kind (what went wrong)
// and, when applicable, the originating graph node and operation type, so
// callers can surface compile diagnostics without string matching.
//
// Compile failures are reported as values through CompilationResult rather
// than thrown through the call stack; precondition violations between a
// Program and a State are programmer errors and panic instead.
package errors
