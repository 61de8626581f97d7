package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseParse    Phase = "parse"    // graph definition ingestion
	PhaseCompile  Phase = "compile"  // graph to program compilation
	PhasePrepare  Phase = "prepare"  // state preparation
	PhaseGenerate Phase = "generate" // value generation
	PhaseAnalyze  Phase = "analyze"  // range analysis
)

// Kind categorizes the error
type Kind string

const (
	KindMissingInput    Kind = "missing_input"
	KindMissingOutput   Kind = "missing_output"
	KindDuplicateInput  Kind = "duplicate_input"
	KindDuplicateOutput Kind = "duplicate_output"
	KindUnknownOp       Kind = "unknown_operation"
	KindPortMismatch    Kind = "port_mismatch"
	KindUnconnectedPort Kind = "unconnected_port"
	KindCycle           Kind = "cycle"
	KindInvalidParam    Kind = "invalid_param"
	KindOpFailed        Kind = "operation_failed"
	KindNotCompiled     Kind = "not_compiled"
	KindInvalidData     Kind = "invalid_data"
	KindNotFound        Kind = "not_found"
)

// Error is the structured error type used throughout the runtime
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Op     string // operation type name, when relevant
	Detail string
	NodeID uint32 // originating graph node, 0 when not tied to one
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.NodeID != 0 {
		fmt.Fprintf(&b, " at node %d", e.NodeID)
	}
	if e.Op != "" {
		b.WriteString(" (")
		b.WriteString(e.Op)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Node sets the originating graph node
func (b *Builder) Node(id uint32) *Builder {
	b.err.NodeID = id
	return b
}

// Op sets the operation type name
func (b *Builder) Op(name string) *Builder {
	b.err.Op = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// UnknownOp creates an error for an unregistered operation type
func UnknownOp(nodeID uint32, opType string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindUnknownOp,
		NodeID: nodeID,
		Op:     opType,
		Detail: fmt.Sprintf("operation type %q is not registered", opType),
	}
}

// PortMismatch creates an error for a node whose ports disagree with its operation
func PortMismatch(nodeID uint32, opType string, want, got int, dir string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindPortMismatch,
		NodeID: nodeID,
		Op:     opType,
		Detail: fmt.Sprintf("expected %d %s ports, got %d", want, dir, got),
	}
}

// MissingInput creates an error for a graph lacking a required axis input
func MissingInput(axis string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindMissingInput,
		Detail: fmt.Sprintf("graph has no %s input node", axis),
	}
}

// DuplicateInput creates an error for more than one node binding the same axis
func DuplicateInput(nodeID uint32, axis string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindDuplicateInput,
		NodeID: nodeID,
		Detail: fmt.Sprintf("%s input is already bound by another node", axis),
	}
}

// MissingOutput creates an error for a graph with no output node
func MissingOutput() *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindMissingOutput,
		Detail: "graph has no output node",
	}
}

// DuplicateOutput creates an error for a graph with more than one output node
func DuplicateOutput(nodeID uint32) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindDuplicateOutput,
		NodeID: nodeID,
		Detail: "output is already declared by another node",
	}
}

// UnconnectedPort creates an error for a required input port with no source
func UnconnectedPort(nodeID uint32, opType string, port int) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindUnconnectedPort,
		NodeID: nodeID,
		Op:     opType,
		Detail: fmt.Sprintf("input port %d has no connection and no default", port),
	}
}

// Cycle creates an error for a graph that cannot be ordered topologically
func Cycle(nodeID uint32) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindCycle,
		NodeID: nodeID,
		Detail: "node participates in a dependency cycle",
	}
}

// InvalidParam creates an error for a bad literal parameter
func InvalidParam(nodeID uint32, opType string, index int, detail string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindInvalidParam,
		NodeID: nodeID,
		Op:     opType,
		Detail: fmt.Sprintf("param %d: %s", index, detail),
	}
}

// OpFailed wraps a failure reported by an operation's compile routine
func OpFailed(nodeID uint32, opType, message string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindOpFailed,
		NodeID: nodeID,
		Op:     opType,
		Detail: message,
	}
}

// NotCompiled creates an error for using a runtime without a valid program
func NotCompiled(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotCompiled,
		Detail: "program has not been compiled successfully",
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// ParseFailed creates a graph ingestion error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
