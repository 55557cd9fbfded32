package model

import (
	"fmt"
	"slices"
	"strings"

	"github.com/san-kum/mdao/internal/core"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

func registrationOrder(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// dependencyGraph links producer → consumer for every input whose name is
// owned by another subsystem (when requested) plus every DependsOn edge.
// Node IDs are registration indices.
func (m *Model) dependencyGraph() *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	for i := range m.subs {
		g.AddNode(simple.Node(i))
	}
	link := func(from, to int) {
		if from == to || g.HasEdgeFromTo(int64(from), int64(to)) {
			return
		}
		g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
	}

	if m.graphOrder {
		for j, s := range m.subs {
			for _, in := range s.c.Meta().InputNames() {
				if owner, ok := m.owners[in]; ok {
					link(m.index[owner], j)
				}
			}
		}
	}
	for _, e := range m.deps {
		link(m.index[e.from], m.index[e.to])
	}
	return g
}

// resolveOrder returns registration order unless dependency ordering was
// requested or explicit edges were recorded. In dependency order the
// earliest-registered ready subsystem always goes next.
func (m *Model) resolveOrder() ([]int, error) {
	if !m.graphOrder && len(m.deps) == 0 {
		m.warnForwardReads()
		return registrationOrder(len(m.subs)), nil
	}

	g := m.dependencyGraph()
	n := len(m.subs)
	indegree := make([]int, n)
	for i := range indegree {
		indegree[i] = g.To(int64(i)).Len()
	}
	placed := make([]bool, n)
	order := make([]int, 0, n)
	for len(order) < n {
		next := -1
		for i := 0; i < n; i++ {
			if !placed[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, fmt.Errorf("resolve order: %w: %s", core.ErrDependencyCycle, m.describeCycles(g))
		}
		placed[next] = true
		order = append(order, next)
		succ := g.From(int64(next))
		for succ.Next() {
			indegree[succ.Node().ID()]--
		}
	}
	return order, nil
}

// describeCycles names the members of every strongly connected component
// with more than one subsystem.
func (m *Model) describeCycles(g graph.Directed) string {
	var parts []string
	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		names := make([]string, 0, len(scc))
		for _, n := range scc {
			names = append(names, m.subs[n.ID()].name)
		}
		slices.Sort(names)
		parts = append(parts, "["+strings.Join(names, " ")+"]")
	}
	slices.Sort(parts)
	return strings.Join(parts, ", ")
}

// warnForwardReads logs inputs that registration order evaluates before their
// producer; those inputs see the previous pass's value.
func (m *Model) warnForwardReads() {
	for j, s := range m.subs {
		for _, in := range s.c.Meta().InputNames() {
			owner, ok := m.owners[in]
			if ok && m.index[owner] > j {
				m.log.Info("input read before its producer runs", "subsystem", s.name, "input", in, "producer", owner)
			}
		}
	}
}
