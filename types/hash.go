package types

import "github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"

// H hashes a fixed or variable number of field elements with Poseidon2 in
// Merkle-Damgard mode, the concrete instantiation of the spec's abstract
// hash primitive. Every caller (Merkle node hashing, Order.Hash,
// AccountState.Hash) feeds it elements in a fixed, documented order.
func H(xs ...Fr) Fr {
	h := poseidon2.NewMerkleDamgardHasher()
	for _, x := range xs {
		b := x.Bytes()
		h.Write(b[:])
	}

	var out Fr
	out.SetBytes(h.Sum(nil))
	return out
}
