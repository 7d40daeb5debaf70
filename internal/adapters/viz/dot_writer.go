// Package viz renders the production graph as a Graphviz document so the
// plant layout can be eyeballed during commissioning.
//
// Convert with `dot -Tpng system_graph.dot -o system_graph.png`.
package viz

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/reconfigmanus/mes-go/internal/domain/plant"
	"github.com/reconfigmanus/mes-go/internal/domain/timedist"
)

// WriteDotFile writes the graph to a .dot file
func WriteDotFile(g *plant.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dot file: %w", err)
	}
	defer f.Close()
	return WriteDot(g, f)
}

// WriteDot renders the graph: one box node per station labelled with id,
// name, buffer capacity and service distribution, one edge per arc
// labelled with the transfer distribution. Numbers use one decimal place.
func WriteDot(g *plant.Graph, w io.Writer) error {
	ids := g.StationIDs()
	index := make(map[uint32]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	if _, err := fmt.Fprintln(w, "digraph G {"); err != nil {
		return err
	}

	for i, id := range ids {
		st, _ := g.Station(id)
		label := fmt.Sprintf("S%d", st.ID)
		if st.Name != "" {
			label += ": " + st.Name
		}
		label += fmt.Sprintf("\\nmax capacity: %d\\ns%d: %s", st.BufferCapacity, st.ID, distSummary(st.ServiceTime))
		if _, err := fmt.Fprintf(w,
			"%d [shape=box, style=filled, fillcolor=lightyellow, color=black, penwidth=1, label=\"%s\"];\n",
			i, label); err != nil {
			return err
		}
	}

	for _, tailID := range ids {
		for _, headID := range g.OutgoingNeighbors(tailID) {
			arc, _ := g.Arc(tailID, headID)
			if _, err := fmt.Fprintf(w,
				"%d->%d [color=black, penwidth=1, arrowsize=1.0, label=\" t%d,%d: %s\"];\n",
				index[tailID], index[headID], arc.Tail, arc.Head, distSummary(arc.TransferTime)); err != nil {
				return err
			}
		}
	}

	_, err := fmt.Fprintln(w, "}")
	return err
}

func distSummary(d timedist.Distribution) string {
	params := d.Params()
	rendered := make([]string, len(params))
	for i, p := range params {
		rendered[i] = fmt.Sprintf("%.1f", p)
	}
	return fmt.Sprintf("%s (%s)", d.Kind(), strings.Join(rendered, ", "))
}
