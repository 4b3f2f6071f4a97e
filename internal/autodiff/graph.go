// Package autodiff implements a reverse-mode automatic differentiation engine
// over float32 arrays.
//
// A Graph is an arena of nodes. Leaves hold user data (inputs, parameters);
// every other node records the Op that produced it and the ids of its
// inputs. Node ids grow monotonically and an op's inputs always exist before
// the op is applied, so the arena order is a topological order and the graph
// cannot contain cycles.
//
// Evaluation is lazy by default: applying an op only infers the output shape.
// The value is computed on first access (Tensor.Realize) and memoized.
// With Config.Eager every node is realized as soon as it is built.
//
// Example:
//
//	g := autodiff.NewGraph(autodiff.Config{})
//	x := g.Variable(tensor.MustFromSlice([]float32{2}, tensor.Shape{1}))
//	y, _ := ops.Add(autodiff.Must(ops.Mul(x, x)), x)
//	_ = y.Backward()
//	dx, _ := x.Grad() // dx.Data() == [5]
//
// A Graph is not safe for concurrent use.
package autodiff

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lazygrad/internal/tensor"
)

// NodeID addresses a node in its Graph.
type NodeID int

// Config configures a Graph.
type Config struct {
	// Eager realizes every node when it is built instead of on first access.
	Eager bool
}

type node struct {
	op     Op // nil for leaves
	inputs []NodeID
	meta   Meta
	gen    uint64

	value    Value
	realized bool
	err      error // sticky realization failure

	requiresGrad bool
	grad         NodeID
	hasGrad      bool
}

// Graph owns every node of a computation.
type Graph struct {
	cfg      Config
	nodes    []node
	gen      uint64
	computes int
}

// NewGraph creates an empty graph.
func NewGraph(cfg Config) *Graph {
	return &Graph{
		cfg:   cfg,
		nodes: make([]node, 0, 256),
	}
}

// Config returns the graph configuration.
func (g *Graph) Config() Config {
	return g.cfg
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// ComputeCount returns how many times an op's Compute has been invoked.
// Memoized realizations do not count.
func (g *Graph) ComputeCount() int {
	return g.computes
}

// Variable creates a leaf that requires gradients.
func (g *Graph) Variable(a *tensor.NDArray) Tensor {
	return g.Leaf(a, true)
}

// Constant creates a leaf that does not require gradients.
func (g *Graph) Constant(a *tensor.NDArray) Tensor {
	return g.Leaf(a, false)
}

// Leaf creates a leaf node holding a. The array is not copied.
func (g *Graph) Leaf(a *tensor.NDArray, requiresGrad bool) Tensor {
	if a == nil {
		panic("autodiff: nil array for leaf")
	}
	return g.push(node{
		meta:         TensorMeta(a.Shape().Clone()),
		value:        Value{Array: a},
		realized:     true,
		requiresGrad: requiresGrad,
	})
}

// ConstantTuple creates a tuple leaf holding items. It never requires
// gradients.
func (g *Graph) ConstantTuple(items []*tensor.NDArray) Tensor {
	shapes := make([]tensor.Shape, len(items))
	for i, a := range items {
		if a == nil {
			panic("autodiff: nil array in tuple leaf")
		}
		shapes[i] = a.Shape().Clone()
	}
	return g.push(node{
		meta:     TupleMeta(shapes),
		value:    Value{Items: items},
		realized: true,
	})
}

// Apply builds the node op(inputs...).
//
// Operands are validated first (ErrType, ErrStaleTensor), then the op infers
// the output signature (usually ErrShape on failure). The graph is only
// modified when both succeed. The new node requires gradients iff any input
// does. In eager mode the node is realized before Apply returns.
func (g *Graph) Apply(op Op, inputs ...Tensor) (Tensor, error) {
	metas := make([]Meta, len(inputs))
	ids := make([]NodeID, len(inputs))
	requiresGrad := false
	for i, in := range inputs {
		if err := g.check(in); err != nil {
			return Tensor{}, errors.Wrapf(err, "%s: operand %d", op.Name(), i)
		}
		n := &g.nodes[in.id]
		metas[i] = n.meta
		ids[i] = in.id
		requiresGrad = requiresGrad || n.requiresGrad
	}

	meta, err := op.Infer(metas)
	if err != nil {
		return Tensor{}, errors.Wrap(err, op.Name())
	}

	t := g.push(node{
		op:           op,
		inputs:       ids,
		meta:         meta,
		requiresGrad: requiresGrad,
	})
	if g.cfg.Eager {
		if _, err := g.realize(t.id); err != nil {
			return Tensor{}, err
		}
	}
	return t, nil
}

func (g *Graph) push(n node) Tensor {
	n.gen = g.gen
	g.nodes = append(g.nodes, n)
	id := NodeID(len(g.nodes) - 1)
	return Tensor{g: g, id: id, gen: n.gen}
}

// check validates a handle against this graph.
func (g *Graph) check(t Tensor) error {
	switch {
	case t.g == nil:
		return errors.Wrap(ErrType, "zero-value tensor")
	case t.g != g:
		return errors.Wrap(ErrType, "tensor belongs to another graph")
	case int(t.id) >= len(g.nodes) || g.nodes[t.id].gen != t.gen:
		return errors.Wrapf(ErrStaleTensor, "node %d", t.id)
	}
	return nil
}

// Mark records the current size of the graph.
type Mark struct {
	size int
}

// Mark returns a checkpoint for Release.
func (g *Graph) Mark() Mark {
	return Mark{size: len(g.nodes)}
}

// Release drops every node created after m. Gradients of surviving nodes
// that refer to dropped nodes are cleared, and handles to dropped nodes
// report ErrStaleTensor from then on.
//
// A training loop marks the graph after creating its parameters and
// releases it after each optimizer step.
func (g *Graph) Release(m Mark) {
	if m.size >= len(g.nodes) {
		return
	}
	clear(g.nodes[m.size:])
	g.nodes = g.nodes[:m.size]
	g.gen++
	for i := range g.nodes {
		n := &g.nodes[i]
		if n.hasGrad && int(n.grad) >= m.size {
			n.hasGrad = false
		}
	}
}
