package circuit

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/kysee/spot-rollup-state/state"
	"github.com/kysee/spot-rollup-state/types"
)

// PrepareDepositWitness derives a DepositStepCircuit assignment from a
// state.RawTx produced by state.GlobalState.DepositToOld. It shows how a
// prover driver would turn the state package's witness records into a
// gnark assignment; it does not attempt to cover place-order or
// spot-trade, which would need their own circuits built the same way.
//
// It only accepts a RawTx captured against a tree whose account-tree
// height equals MerklePathDepth, since DepositStepCircuit's path arrays
// are fixed-size. A real deployment would generate this file's
// counterpart per configured height instead of hardcoding one.
func PrepareDepositWitness(tx state.RawTx) (*DepositStepCircuit, error) {
	if tx.TxType != state.TxDepositToOld {
		return nil, fmt.Errorf("circuit: expected a deposit tx, got %s", tx.TxType)
	}
	if len(tx.AccountPath0) != MerklePathDepth {
		return nil, fmt.Errorf("circuit: account path has %d elements, want %d", len(tx.AccountPath0), MerklePathDepth)
	}
	if len(tx.BalancePath0) == 0 {
		return nil, fmt.Errorf("circuit: missing balance path")
	}

	accountID := types.FrToU32(tx.Payload[state.AccountID2])
	tokenID := types.FrToU32(tx.Payload[state.TokenID])

	oldBalance := tx.Payload[state.Balance2]
	var newBalance types.Fr
	newBalance.Add(&oldBalance, &tx.Payload[state.Amount])

	balanceRootBefore := foldRoot(oldBalance, tokenID, tx.BalancePath0)
	balanceRootAfter := foldRoot(newBalance, tokenID, tx.BalancePath0)

	var path [MerklePathDepth]frontend.Variable
	var directions [MerklePathDepth]frontend.Variable
	idx := accountID
	for i := 0; i < MerklePathDepth; i++ {
		path[i] = frToBigInt(tx.AccountPath0[i])
		directions[i] = idx % 2
		idx /= 2
	}

	return &DepositStepCircuit{
		RootBefore:        frToBigInt(tx.RootBefore),
		RootAfter:         frToBigInt(tx.RootAfter),
		AccountID:         frToBigInt(tx.Payload[state.AccountID2]),
		TokenID:           frToBigInt(tx.Payload[state.TokenID]),
		Amount:            frToBigInt(tx.Payload[state.Amount]),
		Nonce:             frToBigInt(tx.Payload[state.Nonce2]),
		Sign:              frToBigInt(tx.Payload[state.Sign2]),
		Ay:                frToBigInt(tx.Payload[state.Ay2]),
		EthAddr:           frToBigInt(tx.Payload[state.EthAddr2]),
		BalanceRootBefore: frToBigInt(balanceRootBefore),
		BalanceRootAfter:  frToBigInt(balanceRootAfter),
		OrderRoot:         frToBigInt(tx.OrderRoot0),
		AccountPath:       path,
		AccountDirections: directions,
	}, nil
}

// frToBigInt renders a field element as the *big.Int form gnark expects
// when assigning a concrete witness value to a frontend.Variable field.
func frToBigInt(f types.Fr) *big.Int {
	var v big.Int
	f.BigInt(&v)
	return &v
}

// foldRoot recomputes the root implied by a leaf, its index and its
// authentication path, the same way smt.VerifyProof does out of
// circuit. PrepareDepositWitness uses it to recover the balance-tree
// root before and after a deposit, since RawTx only carries the
// path and the leaf, not the root.
func foldRoot(leaf types.Fr, idx uint32, path []types.Fr) types.Fr {
	cur := leaf
	for _, sibling := range path {
		if idx%2 == 0 {
			cur = types.H(cur, sibling)
		} else {
			cur = types.H(sibling, cur)
		}
		idx /= 2
	}
	return cur
}
