package dag

import (
	"fmt"
	"strings"
)

// Graph is a directed graph keyed by task name. It is built once during
// config validation and is not safe for concurrent mutation; loading is a
// single synchronous pass, so no locking is needed.
type Graph struct {
	nodes map[string]*node
	order []string // node IDs in insertion order, for stable iteration
}

type node struct {
	id         string
	deps       map[string]*node
	dependents map[string]*node
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.order = append(g.order, id)
}

// HasNode reports whether a node with the given ID exists in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist. A self-referential edge is recorded as a
// one-node cycle so that DetectCycles reports it with the node's name.
func (g *Graph) AddEdge(fromID, toID string) error {
	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// Dependencies returns a slice of node IDs that the given node depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}

	deps := make([]string, 0, len(n.deps))
	for depID := range n.deps {
		deps = append(deps, depID)
	}
	return deps, nil
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// if a cycle is found, naming every node on the detected cycle in traversal
// order.
func (g *Graph) DetectCycles() error {
	// Classic depth-first search with three sets of nodes:
	// permanent: nodes that have been fully visited and are not part of a cycle.
	// temporary: nodes currently in the recursion stack for the current traversal.
	// unvisited: all other nodes.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	var stack []string

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil // Already visited and known to be safe.
		}
		if temporary[n.id] {
			// We've hit a node that's already in our recursion stack, so we
			// have a cycle. Slice the stack from the first occurrence of this
			// node to name the full cycle.
			for i, id := range stack {
				if id == n.id {
					members := append(append([]string{}, stack[i:]...), n.id)
					return fmt.Errorf("cycle detected: %s", strings.Join(members, " -> "))
				}
			}
			return fmt.Errorf("cycle detected involving node '%s'", n.id)
		}

		temporary[n.id] = true
		stack = append(stack, n.id)

		for _, id := range g.order {
			if _, ok := n.dependents[id]; ok {
				if err := visit(g.nodes[id]); err != nil {
					return err
				}
			}
		}

		// All dependents have been visited, so we can move this node from
		// temporary to permanent.
		stack = stack[:len(stack)-1]
		delete(temporary, n.id)
		permanent[n.id] = true

		return nil
	}

	// Visit every node in the graph, in insertion order so the first
	// reported cycle is deterministic.
	for _, id := range g.order {
		if !permanent[id] {
			if err := visit(g.nodes[id]); err != nil {
				return err
			}
		}
	}

	return nil
}

// TopoSort returns the node IDs in topological order: every node appears
// after all of its dependencies. Ties are broken by insertion order, so the
// result is deterministic for a given build sequence. An error is returned
// if the graph contains a cycle.
func (g *Graph) TopoSort() ([]string, error) {
	indegree := make(map[string]int, len(g.nodes))
	for id, n := range g.nodes {
		indegree[id] = len(n.deps)
	}

	sorted := make([]string, 0, len(g.nodes))
	placed := make(map[string]bool, len(g.nodes))

	for len(sorted) < len(g.nodes) {
		progressed := false
		for _, id := range g.order {
			if placed[id] || indegree[id] != 0 {
				continue
			}
			placed[id] = true
			sorted = append(sorted, id)
			for depID := range g.nodes[id].dependents {
				indegree[depID]--
			}
			progressed = true
		}
		if !progressed {
			return nil, fmt.Errorf("cannot order graph: cycle present")
		}
	}

	return sorted, nil
}
