package state_test

import (
	"testing"

	"github.com/kysee/spot-rollup-state/state"
	"github.com/kysee/spot-rollup-state/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T, nTx uint32) *state.GlobalState {
	t.Helper()
	gs, err := state.NewGlobalState(2, 7, 2, nTx)
	require.NoError(t, err)
	return gs
}

func TestGenesisRootIsDeterministic(t *testing.T) {
	gs1 := newTestState(t, 2)
	gs2 := newTestState(t, 2)
	root1 := gs1.Root()
	root2 := gs2.Root()
	require.True(t, root1.Equal(&root2))
}

func TestDepositOnNewAccount(t *testing.T) {
	gs := newTestState(t, 2)
	accountID := gs.CreateNewAccount(1)
	require.EqualValues(t, 0, accountID)

	defaultRoot := gs.Root()
	amount := types.U32ToFr(1_000_000)
	raw := gs.DepositToOld(state.DepositToOldTx{AccountID: accountID, TokenID: 0, Amount: amount})

	balance := gs.GetTokenBalance(accountID, 0)
	require.True(t, balance.Equal(&amount))
	require.Equal(t, state.TxDepositToOld, raw.TxType)
	require.True(t, raw.RootBefore.Equal(&defaultRoot))
	newRoot := gs.Root()
	require.True(t, raw.RootAfter.Equal(&newRoot))
	require.False(t, raw.RootBefore.Equal(&raw.RootAfter))
}

func TestPlaceAndFillOneTradeAskMaker(t *testing.T) {
	gs := newTestState(t, 2)
	maker := gs.CreateNewAccount(1)
	taker := gs.CreateNewAccount(1)

	// The trade precondition requires a strictly greater balance than
	// the amount sold (see the spot-trade preconditions), so the taker
	// deposits more USDT than it trades away.
	gs.DepositToOld(state.DepositToOldTx{AccountID: maker, TokenID: 0, Amount: types.U32ToFr(1_000_000)}) // 1.0 ETH
	gs.DepositToOld(state.DepositToOldTx{AccountID: taker, TokenID: 1, Amount: types.U32ToFr(2_000_000)}) // 2.0 USDT

	amount, err := types.NumberToInteger(mustDecimal("0.5"), 6)
	require.NoError(t, err)
	quoteAmount, err := types.NumberToInteger(mustDecimal("1.0"), 6)
	require.NoError(t, err)

	askPos, _ := gs.PlaceOrder(state.PlaceOrderTx{
		OrderID: 1, AccountID: maker,
		TokenIDSell: 0, TokenIDBuy: 1,
		AmountSell: amount, AmountBuy: quoteAmount,
	})
	bidPos, _ := gs.PlaceOrder(state.PlaceOrderTx{
		OrderID: 2, AccountID: taker,
		TokenIDSell: 1, TokenIDBuy: 0,
		AmountSell: quoteAmount, AmountBuy: amount,
	})
	require.EqualValues(t, 1, askPos)
	require.EqualValues(t, 1, bidPos)

	gs.SpotTrade(state.SpotTradeTx{
		Order1AccountID: maker, Order2AccountID: taker,
		Order1ID: 1, Order2ID: 2,
		TokenID1to2: 0, TokenID2to1: 1,
		Amount1to2: amount, Amount2to1: quoteAmount,
	})

	ethMaker := gs.GetTokenBalance(maker, 0)
	usdtMaker := gs.GetTokenBalance(maker, 1)
	usdtTaker := gs.GetTokenBalance(taker, 1)
	ethTaker := gs.GetTokenBalance(taker, 0)

	half := mustFr("0.5", 6)
	one := mustFr("1.0", 6)

	require.True(t, ethMaker.Equal(&half))
	require.True(t, usdtMaker.Equal(&one))
	require.True(t, usdtTaker.Equal(&one)) // 2.0 deposited, 1.0 traded away
	require.True(t, ethTaker.Equal(&half))
}

func TestSlotReuseWraps(t *testing.T) {
	gs := newTestState(t, 4)
	maker := gs.CreateNewAccount(1)
	counterparty := gs.CreateNewAccount(1)
	gs.DepositToOld(state.DepositToOldTx{AccountID: maker, TokenID: 0, Amount: types.U32ToFr(1 << 20)})
	gs.DepositToOld(state.DepositToOldTx{AccountID: counterparty, TokenID: 1, Amount: types.U32ToFr(1 << 20)})

	amt := types.U32ToFr(1)
	maxOrders := uint32(1) << 7
	var makerOrderID, cpOrderID uint32 = 1, 1
	for i := uint32(0); i < maxOrders+1; i++ {
		require.NotPanics(t, func() {
			gs.PlaceOrder(state.PlaceOrderTx{
				OrderID: makerOrderID, AccountID: maker,
				TokenIDSell: 0, TokenIDBuy: 1,
				AmountSell: amt, AmountBuy: amt,
			})
			gs.PlaceOrder(state.PlaceOrderTx{
				OrderID: cpOrderID, AccountID: counterparty,
				TokenIDSell: 1, TokenIDBuy: 0,
				AmountSell: amt, AmountBuy: amt,
			})
			gs.SpotTrade(state.SpotTradeTx{
				Order1AccountID: maker, Order2AccountID: counterparty,
				Order1ID: makerOrderID, Order2ID: cpOrderID,
				TokenID1to2: 0, TokenID2to1: 1,
				Amount1to2: amt, Amount2to1: amt,
			})
		})
		makerOrderID++
		cpOrderID++
	}
}

func TestBlockPadding(t *testing.T) {
	gs := newTestState(t, 2)
	account := gs.CreateNewAccount(1)
	gs.DepositToOld(state.DepositToOldTx{AccountID: account, TokenID: 0, Amount: types.U32ToFr(1)})

	gs.FlushWithNop()
	require.Equal(t, 0, gs.BufferedTxCount()%2)

	blocks := gs.TakeBlocks()
	require.Len(t, blocks, 1)
	block := blocks[0]
	require.Equal(t, state.TxDepositToOld, block.TxsType[0])
	require.Equal(t, state.TxNop, block.TxsType[1])
	require.True(t, block.OldAccountRoots[1].Equal(&block.NewAccountRoots[1]))
}

func TestSpotTradeRejectsNonStrictBalance(t *testing.T) {
	gs := newTestState(t, 2)
	maker := gs.CreateNewAccount(1)
	taker := gs.CreateNewAccount(1)
	amount := types.U32ToFr(1_000_000)

	gs.DepositToOld(state.DepositToOldTx{AccountID: maker, TokenID: 0, Amount: amount})
	gs.DepositToOld(state.DepositToOldTx{AccountID: taker, TokenID: 1, Amount: amount})

	gs.PlaceOrder(state.PlaceOrderTx{OrderID: 1, AccountID: maker, TokenIDSell: 0, TokenIDBuy: 1, AmountSell: amount, AmountBuy: amount})
	gs.PlaceOrder(state.PlaceOrderTx{OrderID: 2, AccountID: taker, TokenIDSell: 1, TokenIDBuy: 0, AmountSell: amount, AmountBuy: amount})

	require.Panics(t, func() {
		gs.SpotTrade(state.SpotTradeTx{
			Order1AccountID: maker, Order2AccountID: taker,
			Order1ID: 1, Order2ID: 2,
			TokenID1to2: 0, TokenID2to1: 1,
			Amount1to2: amount, Amount2to1: amount,
		})
	})
}

func mustDecimal(s string) types.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mustFr(s string, prec uint32) types.Fr {
	f, err := types.NumberToInteger(mustDecimal(s), prec)
	if err != nil {
		panic(err)
	}
	return f
}
