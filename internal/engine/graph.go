package engine

import (
	"sort"

	"github.com/google/uuid"
)

// dependencyEdges collects the dependency edges among a set of definitions:
// formula dependencies always, conditional-rule references when includeRules
// is set. The returned map is node -> the nodes it depends on.
func dependencyEdges(defs []FieldDefinition, includeRules bool) map[uuid.UUID][]uuid.UUID {
	deps := make(map[uuid.UUID][]uuid.UUID, len(defs))
	for i := range defs {
		d := &defs[i]
		deps[d.ID] = nil
		if d.Formula != nil {
			deps[d.ID] = append(deps[d.ID], d.Formula.Dependencies...)
		}
		if includeRules {
			for _, rule := range d.Rules {
				deps[d.ID] = append(deps[d.ID], rule.FieldID)
			}
		}
	}
	return deps
}

// topoSort orders the graph so every node comes after everything it depends
// on. Dependencies outside the node set are ignored (they cannot form a
// cycle within the set). Returns a CycleError when no such order exists.
func topoSort(deps map[uuid.UUID][]uuid.UUID) ([]uuid.UUID, *CycleError) {
	indegree := make(map[uuid.UUID]int, len(deps))
	dependents := make(map[uuid.UUID][]uuid.UUID, len(deps))

	for node := range deps {
		indegree[node] = 0
	}
	for node, nodeDeps := range deps {
		for _, dep := range nodeDeps {
			if _, ok := deps[dep]; !ok {
				continue
			}
			indegree[node]++
			dependents[dep] = append(dependents[dep], node)
		}
	}

	// Deterministic order regardless of map iteration.
	queue := make([]uuid.UUID, 0, len(deps))
	for node, n := range indegree {
		if n == 0 {
			queue = append(queue, node)
		}
	}
	sortIDs(queue)

	order := make([]uuid.UUID, 0, len(deps))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		next := dependents[node]
		sortIDs(next)
		for _, dependent := range next {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(deps) {
		var members []string
		for node, n := range indegree {
			if n > 0 {
				members = append(members, node.String())
			}
		}
		sort.Strings(members)
		return nil, &CycleError{Members: members}
	}
	return order, nil
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}
