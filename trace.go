package yarp

import (
	"fmt"
	"io"

	mapset "github.com/deckarep/golang-set/v2"
)

// GraphTrace is an opt-in record of graph construction for debugging:
// while installed, every Value created and every subscription edge wired by
// the wrappers and combinators is reported to it. Like the rest of the
// package it assumes the single logical thread.
type GraphTrace struct {
	nodes      mapset.Set[*Value]
	downstream map[*Value][]*Value
	indegree   map[*Value]int
	edges      int
}

var activeTrace *GraphTrace

// TraceGraph installs and returns a fresh recorder. Values built before the
// call are only picked up if a later edge touches them.
func TraceGraph() *GraphTrace {
	t := &GraphTrace{
		nodes:      mapset.NewThreadUnsafeSet[*Value](),
		downstream: map[*Value][]*Value{},
		indegree:   map[*Value]int{},
	}
	activeTrace = t
	return t
}

// StopTracing uninstalls the active recorder. The recorder itself remains
// readable.
func StopTracing() { activeTrace = nil }

func traceNode(v *Value) {
	if activeTrace != nil {
		activeTrace.nodes.Add(v)
	}
}

func traceEdge(from, to *Value) {
	t := activeTrace
	if t == nil {
		return
	}
	t.nodes.Add(from)
	t.nodes.Add(to)
	t.downstream[from] = append(t.downstream[from], to)
	t.indegree[to]++
	t.edges++
}

func (t *GraphTrace) Nodes() int { return t.nodes.Cardinality() }

func (t *GraphTrace) Edges() int { return t.edges }

// Roots returns the recorded Values with no recorded upstream.
func (t *GraphTrace) Roots() []*Value {
	var roots []*Value
	t.nodes.Each(func(v *Value) bool {
		if t.indegree[v] == 0 {
			roots = append(roots, v)
		}
		return false
	})
	return roots
}

// Depth returns the longest subscription path through the recorded graph,
// counted in nodes. Like propagation itself it assumes the graph is
// acyclic.
func (t *GraphTrace) Depth() int {
	memo := map[*Value]int{}
	var depth func(v *Value) int
	depth = func(v *Value) int {
		if d, ok := memo[v]; ok {
			return d
		}
		d := 1
		for _, next := range t.downstream[v] {
			if dd := depth(next) + 1; dd > d {
				d = dd
			}
		}
		memo[v] = d
		return d
	}

	best := 0
	for _, r := range t.Roots() {
		if d := depth(r); d > best {
			best = d
		}
	}
	return best
}

// Fprint writes a one-line graph summary plus the reachable node count per
// root.
func (t *GraphTrace) Fprint(w io.Writer) {
	roots := t.Roots()
	fmt.Fprintf(w, "graph: %d nodes, %d edges, depth %d, %d roots\n",
		t.Nodes(), t.Edges(), t.Depth(), len(roots))

	for i, r := range roots {
		seen := mapset.NewThreadUnsafeSet[*Value]()
		var walk func(v *Value)
		walk = func(v *Value) {
			if !seen.Add(v) {
				return
			}
			for _, next := range t.downstream[v] {
				walk(next)
			}
		}
		walk(r)
		fmt.Fprintf(w, "  root %d: %d reachable\n", i, seen.Cardinality())
	}
}
