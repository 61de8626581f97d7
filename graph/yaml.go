package graph

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/voxelforge/field-runtime/errors"
)

type yamlGraph struct {
	Nodes []yamlNode `yaml:"nodes"`
}

type yamlNode struct {
	ID      uint32      `yaml:"id"`
	Type    string      `yaml:"type"`
	Inputs  []yamlInput `yaml:"inputs"`
	Outputs *int        `yaml:"outputs"`
	Params  []any       `yaml:"params"`
}

type yamlInput struct {
	From  string   `yaml:"from"`
	Value *float32 `yaml:"value"`
}

// LoadYAML parses a graph definition of the form:
//
//	nodes:
//	  - id: 1
//	    type: input_x
//	  - id: 2
//	    type: add
//	    inputs:
//	      - from: "1"     # node 1, output port 0
//	      - value: 5.0    # literal default
//	  - id: 3
//	    type: output_sdf
//	    outputs: 0
//	    inputs:
//	      - from: "2:0"   # node 2, output port 0
//
// Output port counts default to 1 when omitted.
func LoadYAML(data []byte) (*Graph, error) {
	var doc yamlGraph
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.ParseFailed("graph definition", err)
	}
	if len(doc.Nodes) == 0 {
		return nil, errors.InvalidData(errors.PhaseParse, "graph definition has no nodes")
	}

	g := New()
	for _, yn := range doc.Nodes {
		if yn.Type == "" {
			return nil, errors.InvalidData(errors.PhaseParse,
				fmt.Sprintf("node %d has no type", yn.ID))
		}
		outputs := 1
		if yn.Outputs != nil {
			outputs = *yn.Outputs
		}
		n := &Node{
			ID:      yn.ID,
			Type:    yn.Type,
			Inputs:  make([]Input, len(yn.Inputs)),
			Outputs: outputs,
			Params:  yn.Params,
		}
		for i, yi := range yn.Inputs {
			if yi.Value != nil {
				n.Inputs[i].Default = *yi.Value
				n.Inputs[i].HasDefault = true
			}
		}
		if err := g.addNode(n); err != nil {
			return nil, err
		}
	}

	// Connections are resolved after all nodes exist so definition order
	// does not matter.
	for _, yn := range doc.Nodes {
		for i, yi := range yn.Inputs {
			if yi.From == "" {
				continue
			}
			src, err := parsePortRef(yi.From)
			if err != nil {
				return nil, err
			}
			if err := g.Connect(src, yn.ID, i); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// parsePortRef parses "node" or "node:port" references.
func parsePortRef(s string) (PortLocation, error) {
	nodePart, portPart, hasPort := strings.Cut(s, ":")
	id, err := strconv.ParseUint(nodePart, 10, 32)
	if err != nil {
		return PortLocation{}, errors.InvalidData(errors.PhaseParse,
			fmt.Sprintf("bad port reference %q", s))
	}
	port := 0
	if hasPort {
		p, err := strconv.Atoi(portPart)
		if err != nil || p < 0 {
			return PortLocation{}, errors.InvalidData(errors.PhaseParse,
				fmt.Sprintf("bad port reference %q", s))
		}
		port = p
	}
	return PortLocation{NodeID: uint32(id), Port: port}, nil
}
