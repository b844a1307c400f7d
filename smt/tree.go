// Package smt implements the fixed-height sparse Merkle tree used for the
// account tree and every per-account balance/order tree in the state
// forest. Internal nodes are cached sparsely; an unset subtree's root is
// served in O(1) from a precomputed default-node table.
package smt

import (
	"fmt"

	"github.com/kysee/spot-rollup-state/types"
)

// HashFn combines two child values into their parent. It is injected
// rather than hardcoded so callers can swap in a stub for tests or a
// different permutation without touching the tree's bookkeeping.
type HashFn func(left, right types.Fr) types.Fr

// Proof is an authentication path: path_elements[i] is the sibling at
// level i counted from the leaf, and recombines with the leaf according
// to the leaf index's bits (least-significant first) to reproduce Root.
type Proof struct {
	Leaf         types.Fr
	Root         types.Fr
	PathElements []types.Fr
}

// Tree is a binary Merkle tree of height Height over a domain of
// 2^Height leaves. It never allocates 2^Height leaves eagerly: only
// nodes touched by SetValue are stored, and default-subtree roots are
// precomputed per level.
type Tree struct {
	height uint32
	hash   HashFn

	// defaultNode[level] is the root of an untouched subtree of that
	// height; defaultNode[0] is the default leaf itself.
	defaultNode []types.Fr

	// nodes[level][index] holds every node this tree has actually
	// computed, keyed sparsely so an untouched tree costs O(1) memory.
	nodes []map[uint64]types.Fr
}

// New builds a tree of the given height where every leaf equals
// defaultLeaf, i.e. GetRoot() returns defaultNode[height] without a
// single SetValue call.
func New(height uint32, defaultLeaf types.Fr, hash HashFn) *Tree {
	defaultNode := make([]types.Fr, height+1)
	defaultNode[0] = defaultLeaf
	for i := uint32(0); i < height; i++ {
		defaultNode[i+1] = hash(defaultNode[i], defaultNode[i])
	}

	nodes := make([]map[uint64]types.Fr, height+1)
	for i := range nodes {
		nodes[i] = make(map[uint64]types.Fr)
	}

	return &Tree{
		height:      height,
		hash:        hash,
		defaultNode: defaultNode,
		nodes:       nodes,
	}
}

// MaxLeafNum returns 2^Height, the size of the tree's leaf domain.
func (t *Tree) MaxLeafNum() uint32 {
	return uint32(1) << t.height
}

func (t *Tree) checkIndex(idx uint32) {
	if idx >= t.MaxLeafNum() {
		panic(fmt.Errorf("smt: leaf index %d out of range for height %d", idx, t.height))
	}
}

// node returns the value at (level, idx), falling back to the
// default-subtree root for that level when nothing has been written
// there yet.
func (t *Tree) node(level uint32, idx uint64) types.Fr {
	if v, ok := t.nodes[level][idx]; ok {
		return v
	}
	return t.defaultNode[level]
}

// GetLeaf returns the current value of leaf idx (the default leaf if
// unset).
func (t *Tree) GetLeaf(idx uint32) types.Fr {
	t.checkIndex(idx)
	return t.node(0, uint64(idx))
}

// GetRoot returns the tree's current root.
func (t *Tree) GetRoot() types.Fr {
	return t.node(t.height, 0)
}

// SetValue writes leaf idx and recomputes every ancestor up to the root.
func (t *Tree) SetValue(idx uint32, value types.Fr) {
	t.checkIndex(idx)

	cur := uint64(idx)
	t.nodes[0][cur] = value
	for level := uint32(0); level < t.height; level++ {
		sibling := t.node(level, cur^1)
		var left, right types.Fr
		if cur%2 == 0 {
			left, right = t.node(level, cur), sibling
		} else {
			left, right = sibling, t.node(level, cur)
		}
		parent := t.hash(left, right)
		cur /= 2
		t.nodes[level+1][cur] = parent
	}
}

// GetProof returns the leaf, the root, and the authentication path for
// idx, without mutating any cached node.
func (t *Tree) GetProof(idx uint32) Proof {
	t.checkIndex(idx)

	path := make([]types.Fr, t.height)
	cur := uint64(idx)
	for level := uint32(0); level < t.height; level++ {
		path[level] = t.node(level, cur^1)
		cur /= 2
	}

	return Proof{
		Leaf:         t.GetLeaf(idx),
		Root:         t.GetRoot(),
		PathElements: path,
	}
}

// VerifyProof recomputes the root implied by (leaf, path, idx) under hash
// and reports whether it equals root. It never touches a Tree and is the
// standalone check a circuit (or a test) performs.
func VerifyProof(hash HashFn, leaf types.Fr, idx uint32, path []types.Fr, root types.Fr) bool {
	cur := leaf
	index := idx
	for _, sibling := range path {
		if index%2 == 0 {
			cur = hash(cur, sibling)
		} else {
			cur = hash(sibling, cur)
		}
		index /= 2
	}
	return cur.Equal(&root)
}
