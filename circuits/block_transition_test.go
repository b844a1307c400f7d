package circuit

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	gnark_test "github.com/consensys/gnark/test"
	"github.com/kysee/spot-rollup-state/state"
	"github.com/kysee/spot-rollup-state/types"
	"github.com/stretchr/testify/require"
)

func TestDepositStepCircuit_IsSolved(t *testing.T) {
	gs, err := state.NewGlobalState(4, 4, MerklePathDepth, 2)
	require.NoError(t, err)

	accountID := gs.CreateNewAccount(1)
	raw := gs.DepositToOld(state.DepositToOldTx{
		AccountID: accountID,
		TokenID:   0,
		Amount:    types.U32ToFr(1_000_000),
	})

	witness, err := PrepareDepositWitness(raw)
	require.NoError(t, err)

	err = gnark_test.IsSolved(&DepositStepCircuit{}, witness, ecc.BN254.ScalarField())
	require.NoError(t, err)
}

func TestPrepareDepositWitnessRejectsWrongTxType(t *testing.T) {
	gs, err := state.NewGlobalState(4, 4, MerklePathDepth, 2)
	require.NoError(t, err)
	accountID := gs.CreateNewAccount(1)
	gs.DepositToOld(state.DepositToOldTx{AccountID: accountID, TokenID: 0, Amount: types.U32ToFr(1)})

	_, raw := gs.PlaceOrder(state.PlaceOrderTx{
		OrderID: 1, AccountID: accountID,
		TokenIDSell: 0, TokenIDBuy: 1,
		AmountSell: types.U32ToFr(1), AmountBuy: types.U32ToFr(1),
	})

	_, err = PrepareDepositWitness(raw)
	require.Error(t, err)
}
