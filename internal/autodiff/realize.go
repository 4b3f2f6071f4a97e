package autodiff

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// realize is the single entry point that materializes a node. It computes
// every unrealized ancestor exactly once, in id order, and caches results.
// A failure is stored on the failing node and on every dependent, so later
// calls return the same error without computing anything.
func (g *Graph) realize(id NodeID) (Value, error) {
	root := &g.nodes[id]
	if root.realized {
		return root.value, nil
	}
	if root.err != nil {
		return Value{}, root.err
	}

	pending := g.pending(id)
	for _, pid := range pending {
		g.compute(pid)
	}

	root = &g.nodes[id]
	if root.err != nil {
		return Value{}, root.err
	}
	return root.value, nil
}

// pending collects the unrealized, non-failed ancestors of id (id included)
// in ascending order.
func (g *Graph) pending(id NodeID) []NodeID {
	seen := map[NodeID]bool{id: true}
	stack := []NodeID{id}
	var out []NodeID
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)
		for _, in := range g.nodes[cur].inputs {
			n := &g.nodes[in]
			if seen[in] || n.realized {
				continue
			}
			seen[in] = true
			stack = append(stack, in)
		}
	}
	slices.Sort(out)
	return out
}

func (g *Graph) compute(id NodeID) {
	n := &g.nodes[id]
	if n.realized || n.err != nil {
		return
	}

	args := make([]Value, len(n.inputs))
	for i, in := range n.inputs {
		src := &g.nodes[in]
		if src.err != nil {
			n.err = src.err
			return
		}
		args[i] = src.value
	}

	g.computes++
	v, err := n.op.Compute(args)
	if err != nil {
		n.err = errors.Wrapf(err, "%s (node %d)", n.op.Name(), id)
		return
	}
	if err := checkValue(n.meta, v); err != nil {
		n.err = errors.Wrapf(err, "%s (node %d)", n.op.Name(), id)
		return
	}
	n.value = v
	n.realized = true
}

// checkValue verifies that a computed value matches the inferred signature.
func checkValue(m Meta, v Value) error {
	if m.IsTuple() {
		if !v.IsTuple() || len(v.Items) != len(m.Items) {
			return errors.Wrap(ErrType, "compute returned the wrong kind of value, want a tuple")
		}
		for i, a := range v.Items {
			if !a.Shape().Equal(m.Items[i]) {
				return errors.Wrapf(ErrShape, "item %d: computed shape %v, inferred %v", i, a.Shape(), m.Items[i])
			}
		}
		return nil
	}
	if v.Array == nil {
		return errors.Wrap(ErrType, "compute returned the wrong kind of value, want an array")
	}
	if !v.Array.Shape().Equal(m.Shape) {
		return errors.Wrapf(ErrShape, "computed shape %v, inferred %v", v.Array.Shape(), m.Shape)
	}
	return nil
}

// setLeaf replaces the value of a tensor leaf.
func (g *Graph) setLeaf(id NodeID, a *tensor.NDArray) error {
	n := &g.nodes[id]
	if n.op != nil || n.meta.IsTuple() {
		return errors.Wrapf(ErrType, "node %d is not a tensor leaf", id)
	}
	if !a.Shape().Equal(n.meta.Shape) {
		return errors.Wrapf(ErrShape, "leaf %d has shape %v, got %v", id, n.meta.Shape, a.Shape())
	}
	n.value = Value{Array: a}
	return nil
}
