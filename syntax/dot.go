package syntax

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

var transitionLabels = []string{"", "char", "backref", "lookaround", "not"}

// WriteDot prints the automaton of t in Graphviz format. States are numbered
// in the order a depth-first walk from the start state reaches them, so the
// output is stable for a given pattern.
func WriteDot(w io.Writer, t *RegexTree) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "digraph G {")
	fmt.Fprintln(bw, "    rankdir=LR;")

	ids := map[*RegexNode]int{}
	var visit func(n *RegexNode) int
	visit = func(n *RegexNode) int {
		if id, ok := ids[n]; ok {
			return id
		}
		id := len(ids)
		ids[n] = id
		shape := "circle"
		switch n.T {
		case NtFinal:
			shape = "doublecircle"
		case NtBranch, NtEndOfCapture, NtEndOfRepetition, NtEndOfLookAround, NtEndOfConditional:
			shape = "point"
		}
		fmt.Fprintf(bw, "    n%d [shape=%s, label=%s];\n", id, shape, strconv.Quote(dotLabel(n)))
		for _, succ := range n.Successors() {
			to := visit(succ)
			fmt.Fprintf(bw, "    n%d -> n%d [label=%s];\n", id, to, strconv.Quote(transitionLabels[succ.Transition()]))
		}
		return id
	}
	start := visit(t.Start)
	fmt.Fprintf(bw, "    _start [shape=none, label=\"\"]; _start -> n%d;\n", start)
	fmt.Fprintln(bw, "}")
	return bw.Flush()
}

func dotLabel(n *RegexNode) string {
	if n.IsState() || n.Text() == "" {
		return n.T.String()
	}
	return n.Text()
}
