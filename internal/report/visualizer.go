package report

import (
	"bytes"
	"fmt"

	"github.com/comalice/creepstack"
)

// ExportDOT renders the phases of m as Graphviz DOT. The current phase is
// filled; name resolves trigger labels.
func ExportDOT(m *creepstack.PhaseMachine, name func(creepstack.Trigger) string) string {
	var buf bytes.Buffer
	buf.WriteString(`digraph Stages {
  rankdir=LR;
  node [shape=box, fontsize=10, style=rounded];
  edge [fontsize=9];
`)

	phases := m.Phases()
	for _, p := range phases {
		style := ""
		switch {
		case m.InPhase(p.ID):
			style = ` style=filled fillcolor=lightgreen`
		case p.Terminal:
			style = ` peripheries=2`
		}
		fmt.Fprintf(&buf, "  %q [label=%q%s];\n", p.Name, p.Name, style)
	}

	for _, p := range phases {
		for _, t := range p.Transitions {
			target := p
			if t.Target != nil {
				target = t.Target
			}
			label := name(t.Trigger)
			if t.Guard != nil {
				label += " [guarded]"
			}
			fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", p.Name, target.Name, label)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}
