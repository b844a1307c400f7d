package circuit

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"
)

// MerklePathDepth is the fixed depth used by the illustrative circuits in
// this package. A production circuit would take this as a compile-time
// parameter per tree (balance/order/account trees all differ), but a
// single constant keeps the illustration readable.
const MerklePathDepth = 8

// merklePathCircuit recomputes a Poseidon2 Merkle root from a leaf, a
// sibling path and a direction bit per level, mirroring out-of-circuit
// smt.VerifyProof. Direction 0 means the tracked node is the left child.
type merklePathCircuit struct {
	Leaf       frontend.Variable
	Siblings   [MerklePathDepth]frontend.Variable
	Directions [MerklePathDepth]frontend.Variable
}

// computeRoot walks the path bottom-up, folding leaf and siblings with a
// fresh hasher per level so Reset never leaks a prior level's state. It
// builds its own Poseidon2 permutation rather than accepting one from the
// caller, since gnark's permutation handle isn't a type this package needs
// to name outside the function that constructs it.
func (m *merklePathCircuit) computeRoot(api frontend.API) (frontend.Variable, error) {
	p, err := poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
	if err != nil {
		return nil, err
	}

	current := m.Leaf

	for i := 0; i < MerklePathDepth; i++ {
		sibling := m.Siblings[i]
		dir := m.Directions[i]

		left := api.Select(dir, sibling, current)
		right := api.Select(dir, current, sibling)

		h := hash.NewMerkleDamgardHasher(api, p, 0)
		h.Write(left, right)
		current = h.Sum()
		h.Reset()
	}

	return current, nil
}
