package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Field names a stored or derived value.
type Field string

// Node declares how a derived field is computed from its inputs. Inputs
// that are not themselves nodes are plain stored fields.
type Node[T any] struct {
	Field   Field
	Inputs  []Field
	Compute func(T) error
}

// Graph orders derived fields so that each is computed after its inputs.
type Graph[T any] struct {
	nodes      map[Field]Node[T]
	order      []Field
	dependents map[Field][]Field
}

// NewGraph validates the declared nodes and orders them topologically.
// Ties keep declaration order.
func NewGraph[T any](nodes ...Node[T]) (*Graph[T], error) {
	g := &Graph[T]{
		nodes:      make(map[Field]Node[T], len(nodes)),
		dependents: make(map[Field][]Field),
	}
	for _, n := range nodes {
		if _, dup := g.nodes[n.Field]; dup {
			return nil, fmt.Errorf("field %s is declared twice", n.Field)
		}
		if n.Compute == nil {
			return nil, fmt.Errorf("field %s has no compute function", n.Field)
		}
		g.nodes[n.Field] = n
	}

	indegree := make(map[Field]int, len(nodes))
	for _, n := range nodes {
		for _, in := range n.Inputs {
			g.dependents[in] = append(g.dependents[in], n.Field)
			if _, derived := g.nodes[in]; derived {
				indegree[n.Field]++
			}
		}
	}

	var queue []Field
	for _, n := range nodes {
		if indegree[n.Field] == 0 {
			queue = append(queue, n.Field)
		}
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		g.order = append(g.order, f)
		for _, d := range g.dependents[f] {
			indegree[d]--
			if indegree[d] == 0 {
				queue = append(queue, d)
			}
		}
	}

	if len(g.order) != len(nodes) {
		var stuck []string
		for f, n := range indegree {
			if n > 0 {
				stuck = append(stuck, string(f))
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("dependency cycle between %s", strings.Join(stuck, ", "))
	}
	return g, nil
}

// Order returns the derived fields in computation order.
func (g *Graph[T]) Order() []Field {
	return append([]Field(nil), g.order...)
}

// Affected returns the derived fields to recompute after changed were
// modified, in computation order. Without changes every field is affected.
func (g *Graph[T]) Affected(changed ...Field) []Field {
	if len(changed) == 0 {
		return g.Order()
	}
	dirty := make(map[Field]bool)
	stack := append([]Field(nil), changed...)
	for _, f := range changed {
		if _, derived := g.nodes[f]; derived {
			dirty[f] = true
		}
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range g.dependents[f] {
			if !dirty[d] {
				dirty[d] = true
				stack = append(stack, d)
			}
		}
	}

	var out []Field
	for _, f := range g.order {
		if dirty[f] {
			out = append(out, f)
		}
	}
	return out
}

// Recompute runs the compute functions of the affected fields and stops at
// the first error.
func (g *Graph[T]) Recompute(target T, changed ...Field) error {
	for _, f := range g.Affected(changed...) {
		if err := g.nodes[f].Compute(target); err != nil {
			return err
		}
	}
	return nil
}
