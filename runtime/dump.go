package runtime

import (
	"fmt"
	"strings"
)

// Disassemble renders the compiled program in a stable, human-readable
// form: the buffer layout with binding/constant annotations and the
// instruction stream with originating graph nodes.
func (r *Runtime) Disassemble() string {
	p := &r.program
	if !p.result.Success {
		return "program: not compiled\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "program: %d instructions, %d buffers, y-start %d\n",
		len(p.instructions), p.bufferCount, p.yStartInstruction)

	b.WriteString("buffers:\n")
	for _, spec := range p.bufferSpecs {
		switch {
		case spec.IsConstant:
			fmt.Fprintf(&b, "  [%d] const %g users=%d", spec.Address, spec.ConstantValue, spec.UsersCount)
		case spec.IsBinding:
			fmt.Fprintf(&b, "  [%d] binding users=%d", spec.Address, spec.UsersCount)
		default:
			fmt.Fprintf(&b, "  [%d] working users=%d", spec.Address, spec.UsersCount)
		}
		if note := p.addressNote(int(spec.Address)); note != "" {
			fmt.Fprintf(&b, " (%s)", note)
		}
		b.WriteByte('\n')
	}

	nodeByInstr := make(map[int]uint32, len(p.depGraph.nodes))
	for _, n := range p.depGraph.nodes {
		nodeByInstr[n.instructionIndex] = n.debugNodeID
	}

	b.WriteString("instructions:\n")
	for i, inst := range p.instructions {
		fmt.Fprintf(&b, "  [%d] %s in=%v out=%v node=%d\n",
			i, operationByID(inst.op).Name, inst.inputs, inst.outputs, nodeByInstr[i])
	}
	return b.String()
}

func (p *Program) addressNote(addr int) string {
	switch addr {
	case p.xInputAddress:
		return "input x"
	case p.yInputAddress:
		return "input y"
	case p.zInputAddress:
		return "input z"
	case p.outputAddress:
		return "output"
	}
	return ""
}
