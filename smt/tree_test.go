package smt_test

import (
	"testing"

	"github.com/kysee/spot-rollup-state/smt"
	"github.com/kysee/spot-rollup-state/types"
	"github.com/stretchr/testify/require"
)

func hashFn(left, right types.Fr) types.Fr {
	return types.H(left, right)
}

func TestEmptyTreeRootIsDeterministic(t *testing.T) {
	t1 := smt.New(4, types.ZeroFr(), hashFn)
	t2 := smt.New(4, types.ZeroFr(), hashFn)
	require.True(t, t1.GetRoot().Equal(ptr(t2.GetRoot())))
}

func TestSetValueChangesRootAndLeaf(t *testing.T) {
	tree := smt.New(4, types.ZeroFr(), hashFn)
	before := tree.GetRoot()

	v := types.U32ToFr(42)
	tree.SetValue(5, v)

	require.True(t, tree.GetLeaf(5).Equal(&v))
	require.False(t, tree.GetRoot().Equal(&before))
}

func TestProofSoundness(t *testing.T) {
	tree := smt.New(6, types.ZeroFr(), hashFn)
	for i := uint32(0); i < 10; i++ {
		tree.SetValue(i, types.U32ToFr(i+1))
	}

	for i := uint32(0); i < 10; i++ {
		proof := tree.GetProof(i)
		require.True(t, proof.Leaf.Equal(ptr(types.U32ToFr(i + 1))))
		require.True(t, smt.VerifyProof(hashFn, proof.Leaf, i, proof.PathElements, proof.Root))
	}
}

func TestProofCaptureDoesNotMutateCache(t *testing.T) {
	tree := smt.New(5, types.ZeroFr(), hashFn)
	tree.SetValue(3, types.U32ToFr(7))
	root := tree.GetRoot()

	_ = tree.GetProof(9) // untouched leaf, should not perturb state
	require.True(t, tree.GetRoot().Equal(&root))
}

func TestUnsetLeafIsDefault(t *testing.T) {
	defaultLeaf := types.U32ToFr(99)
	tree := smt.New(3, defaultLeaf, hashFn)
	require.True(t, tree.GetLeaf(0).Equal(&defaultLeaf))
}

func TestOutOfRangeIndexPanics(t *testing.T) {
	tree := smt.New(2, types.ZeroFr(), hashFn)
	require.Panics(t, func() {
		tree.SetValue(4, types.U32ToFr(1))
	})
}

func ptr(f types.Fr) *types.Fr { return &f }
