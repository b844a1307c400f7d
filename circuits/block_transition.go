package circuit

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"
)

// DepositStepCircuit is an illustrative (non-production) circuit that
// recomputes a single deposit-to-old root transition the way a batch
// prover would: hash the account leaf before and after the balance
// write, walk both up the account tree along the same path, and check
// the claimed before/after roots.
//
// It exercises exactly one of the four transaction types the state
// package produces (a deposit, state.TxDepositToOld); a full prover
// would repeat this shape once per slot in a state.L2Block and switch
// between deposit/place-order/spot-trade sub-circuits per
// state.RawTx.TxType, which is out of scope here. See state.RawTx and
// state.L2Block for the witness layout this circuit's fields are drawn
// from, and state.AccountState.Hash for the leaf-hashing order this
// circuit reproduces in-circuit.
type DepositStepCircuit struct {
	// Public inputs: the account-tree root before and after the tx.
	RootBefore frontend.Variable `gnark:",public"`
	RootAfter  frontend.Variable `gnark:",public"`

	// Payload fields, named after the state.payload slot they occupy.
	AccountID frontend.Variable
	TokenID   frontend.Variable
	Amount    frontend.Variable
	Nonce     frontend.Variable
	Sign      frontend.Variable
	Ay        frontend.Variable
	EthAddr   frontend.Variable

	// Account-leaf fields not carried in the payload but needed to
	// reconstruct the leaf hash before and after the write.
	BalanceRootBefore frontend.Variable
	BalanceRootAfter  frontend.Variable
	OrderRoot         frontend.Variable

	AccountPath       [MerklePathDepth]frontend.Variable
	AccountDirections [MerklePathDepth]frontend.Variable
}

// Define checks that the account leaf built from BalanceRootBefore,
// walked up AccountPath, equals RootBefore, and that swapping in
// BalanceRootAfter (everything else held fixed, since a deposit never
// touches nonce/sign/ay/ethAddr/orderRoot) produces RootAfter. The
// actual balance-tree recomputation that turns Amount into the new
// BalanceRootAfter is left to the out-of-circuit executor and to the
// balance-tree sub-circuit a production prover would compose here.
func (c *DepositStepCircuit) Define(api frontend.API) error {
	p, err := poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
	if err != nil {
		return fmt.Errorf("new poseidon2 permutation: %w", err)
	}

	hashLeaf := func(balanceRoot frontend.Variable) frontend.Variable {
		h := hash.NewMerkleDamgardHasher(api, p, 0)
		h.Write(c.Nonce, c.Sign, c.Ay, c.EthAddr, balanceRoot, c.OrderRoot)
		sum := h.Sum()
		h.Reset()
		return sum
	}

	rootBefore, err := (&merklePathCircuit{
		Leaf:       hashLeaf(c.BalanceRootBefore),
		Siblings:   c.AccountPath,
		Directions: c.AccountDirections,
	}).computeRoot(api)
	if err != nil {
		return fmt.Errorf("recompute root before: %w", err)
	}

	rootAfter, err := (&merklePathCircuit{
		Leaf:       hashLeaf(c.BalanceRootAfter),
		Siblings:   c.AccountPath,
		Directions: c.AccountDirections,
	}).computeRoot(api)
	if err != nil {
		return fmt.Errorf("recompute root after: %w", err)
	}

	api.AssertIsEqual(rootBefore, c.RootBefore)
	api.AssertIsEqual(rootAfter, c.RootAfter)

	// Deposits only ever increase a balance; reject any witness claiming
	// otherwise. Trade and order circuits would carry their own signed
	// deltas instead of this one-directional check.
	api.AssertIsLessOrEqual(0, c.Amount)

	return nil
}
