package autodiff

import (
	"slices"

	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// Backward computes the gradient of t with respect to every ancestor that
// requires gradients and stores it on that node (see Tensor.Grad).
//
// The seed is the gradient flowing into t; nil means ones of t's shape. A
// non-nil seed must match t's shape and is not allowed for tuples.
//
// Algorithm:
//  1. Sort the nodes reachable from t topologically and walk them in reverse,
//     so every consumer of a node is handled before the node itself
//  2. Sum the partial gradients collected for the node and store the sum
//  3. Ask the node's op for one gradient per input and append each to the
//     input's partials
//
// Errors raised with Must or Raise and panics carrying an error value inside
// gradient rules are returned as errors. Other panics propagate.
//
// Gradients from a previous pass are overwritten, not accumulated. Calling
// Backward on a node that does not require gradients fails with ErrNoGrad.
// Gradient nodes are regular graph nodes, so a gradient can itself be
// differentiated.
func (g *Graph) Backward(t Tensor, seed *tensor.NDArray) (err error) {
	if err := g.check(t); err != nil {
		return err
	}
	root := &g.nodes[t.id]
	if !root.requiresGrad {
		return errors.Wrapf(ErrNoGrad, "backward from node %d", t.id)
	}

	seedT, err := g.seed(t, seed)
	if err != nil {
		return err
	}

	defer guardGradient(&err)

	partials := map[NodeID][]Tensor{t.id: {seedT}}
	order := g.topoOrder(t.id)
	for _, id := range slices.Backward(order) {
		parts := partials[id]
		if len(parts) == 0 {
			continue
		}
		delete(partials, id)

		grad := parts[0]
		if len(parts) > 1 {
			grad, err = g.Apply(addN{}, parts...)
			if err != nil {
				return errors.Wrapf(err, "summing gradients of node %d", id)
			}
		}
		if _, err := g.realize(grad.id); err != nil {
			return errors.Wrapf(err, "gradient of node %d", id)
		}
		n := &g.nodes[id]
		n.grad = grad.id
		n.hasGrad = true
		if n.op == nil {
			continue
		}

		if err := g.propagate(id, grad, partials); err != nil {
			return err
		}
	}
	return nil
}

// propagate applies the gradient rule of node id and records the partial
// gradients of its inputs.
func (g *Graph) propagate(id NodeID, grad Tensor, partials map[NodeID][]Tensor) error {
	n := &g.nodes[id]
	op := n.op
	d, ok := op.(Differentiable)
	if !ok {
		return errors.Wrapf(ErrNotImplemented, "gradient of %s", op.Name())
	}
	inputs := slices.Clone(n.inputs)

	grads, err := d.Gradient(grad, g.handle(id))
	if err != nil {
		return errors.Wrapf(err, "gradient of %s (node %d)", op.Name(), id)
	}
	if len(grads) != len(inputs) {
		return errors.Errorf("gradient of %s returned %d gradients for %d inputs", op.Name(), len(grads), len(inputs))
	}

	for i, in := range inputs {
		src := &g.nodes[in]
		if !src.requiresGrad {
			continue
		}
		gi := grads[i]
		if err := g.check(gi); err != nil {
			return errors.Wrapf(err, "gradient %d of %s", i, op.Name())
		}
		if !sameMeta(g.nodes[gi.id].meta, src.meta) {
			return errors.Wrapf(ErrShape, "gradient %d of %s has signature %v, input has %v",
				i, op.Name(), g.nodes[gi.id].meta, src.meta)
		}
		partials[in] = append(partials[in], gi)
	}
	return nil
}

// seed builds the initial gradient node for a backward pass from t.
func (g *Graph) seed(t Tensor, seed *tensor.NDArray) (Tensor, error) {
	meta := g.nodes[t.id].meta
	if meta.IsTuple() {
		if seed != nil {
			return Tensor{}, errors.Wrap(ErrType, "explicit seed for a tuple")
		}
		items := make([]*tensor.NDArray, len(meta.Items))
		for i, s := range meta.Items {
			items[i] = tensor.Ones(s)
		}
		return g.ConstantTuple(items), nil
	}
	if seed == nil {
		return g.Constant(tensor.Ones(meta.Shape)), nil
	}
	if !seed.Shape().Equal(meta.Shape) {
		return Tensor{}, errors.Wrapf(ErrShape, "seed shape %v does not match %v", seed.Shape(), meta.Shape)
	}
	return g.Constant(seed.Clone()), nil
}

// topoOrder returns the nodes reachable from root through inputs that
// require gradients, ordered so that every node comes after its inputs.
// It is an iterative post-order depth-first search.
func (g *Graph) topoOrder(root NodeID) []NodeID {
	type frame struct {
		id   NodeID
		next int
	}
	visited := map[NodeID]bool{root: true}
	stack := []frame{{id: root}}
	var order []NodeID
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		inputs := g.nodes[top.id].inputs
		if top.next < len(inputs) {
			in := inputs[top.next]
			top.next++
			if !visited[in] && g.nodes[in].requiresGrad {
				visited[in] = true
				stack = append(stack, frame{id: in})
			}
			continue
		}
		order = append(order, top.id)
		stack = stack[:len(stack)-1]
	}
	return order
}

func sameMeta(a, b Meta) bool {
	if a.IsTuple() != b.IsTuple() {
		return false
	}
	if !a.IsTuple() {
		return a.Shape.Equal(b.Shape)
	}
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if !a.Items[i].Equal(b.Items[i]) {
			return false
		}
	}
	return true
}
