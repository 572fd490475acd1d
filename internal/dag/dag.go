// Package dag resolves the per-day component graph into a deterministic
// linear execution order. The graph is small and fixed, but the
// resolver is a general utility: Kahn's algorithm with two added
// determinism guarantees so the same graph always yields the same
// order, on any platform, on every call.
package dag

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownDependency is returned when a node depends on an id that is
// not present in the node set.
var ErrUnknownDependency = errors.New("dag: unknown dependency")

// ErrCycle is returned when the graph cannot be fully ordered, i.e. it
// contains a cycle.
var ErrCycle = errors.New("dag: cycle detected")

// Node is a single vertex in the dependency graph.
type Node struct {
	ID        string
	DependsOn []string
}

// Resolve computes a topological order over nodes using Kahn's
// algorithm with a lexicographically ordered frontier: the initial
// zero-in-degree queue is sorted by id, and every time a node's
// in-degree drops to zero it is inserted back into the frontier
// preserving lexicographic order. This makes the output a pure
// function of the node set — independent of map iteration order or
// insertion order — which is what lets the engine call Resolve once
// per day (or hoist it out of the loop entirely) and always get the
// same schedule.
func Resolve(nodes []Node) ([]string, error) {
	byID := make(map[string]Node, len(nodes))
	inDegree := make(map[string]int, len(nodes))
	dependents := make(map[string][]string, len(nodes))

	for _, n := range nodes {
		if _, dup := byID[n.ID]; dup {
			return nil, fmt.Errorf("dag: duplicate node id %q", n.ID)
		}
		byID[n.ID] = n
		if _, ok := inDegree[n.ID]; !ok {
			inDegree[n.ID] = 0
		}
	}

	for _, n := range nodes {
		for _, dep := range n.DependsOn {
			if _, ok := byID[dep]; !ok {
				return nil, fmt.Errorf("%w: %q depends on unknown node %q", ErrUnknownDependency, n.ID, dep)
			}
			inDegree[n.ID]++
			dependents[dep] = append(dependents[dep], n.ID)
		}
	}

	frontier := make([]string, 0, len(nodes))
	for id, deg := range inDegree {
		if deg == 0 {
			frontier = insertSorted(frontier, id)
		}
	}

	order := make([]string, 0, len(nodes))
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		order = append(order, id)

		// Visit id's dependents in lexicographic order so that ties among
		// nodes becoming ready at the same step are broken deterministically
		// regardless of map iteration order.
		next := append([]string(nil), dependents[id]...)
		sort.Strings(next)
		for _, dep := range next {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				frontier = insertSorted(frontier, dep)
			}
		}
	}

	if len(order) != len(nodes) {
		return nil, ErrCycle
	}
	return order, nil
}

// insertSorted inserts id into a sorted slice, preserving order.
func insertSorted(sorted []string, id string) []string {
	i := sort.SearchStrings(sorted, id)
	sorted = append(sorted, "")
	copy(sorted[i+1:], sorted[i:])
	sorted[i] = id
	return sorted
}
