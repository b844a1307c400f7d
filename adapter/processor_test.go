package adapter_test

import (
	"testing"

	"github.com/kysee/spot-rollup-state/adapter"
	"github.com/kysee/spot-rollup-state/state"
	"github.com/kysee/spot-rollup-state/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newProcessor(t *testing.T) (*adapter.Processor, *state.GlobalState) {
	t.Helper()
	gs, err := state.NewGlobalState(2, 7, 2, 2)
	require.NoError(t, err)
	return adapter.NewProcessor(gs, types.DefaultTokenRegistry()), gs
}

func d(s string) types.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestProcessBalanceMessageCreatesAccountAndDeposits(t *testing.T) {
	p, gs := newProcessor(t)

	p.ProcessBalanceMessage(adapter.BalanceMessage{
		UserID: 101, Asset: "ETH",
		Change: d("1.000000"), Balance: d("1.000000"),
	})

	expected, err := types.NumberToInteger(d("1.000000"), 6)
	require.NoError(t, err)
	got := gs.GetTokenBalance(0, 0)
	require.True(t, got.Equal(&expected))
}

func TestProcessBalanceMessageRejectsPreStateMismatch(t *testing.T) {
	p, _ := newProcessor(t)

	p.ProcessBalanceMessage(adapter.BalanceMessage{
		UserID: 101, Asset: "ETH",
		Change: d("1.000000"), Balance: d("1.000000"),
	})

	require.Panics(t, func() {
		p.ProcessBalanceMessage(adapter.BalanceMessage{
			UserID: 101, Asset: "ETH",
			// implies a pre-deposit balance of 5.0, but the ledger has 1.0.
			Change: d("1.000000"), Balance: d("6.000000"),
		})
	})
}

func TestProcessTradeMessageAskMaker(t *testing.T) {
	p, gs := newProcessor(t)

	// The trade precondition requires a strictly greater balance than
	// the amount sold, so the bid side deposits more USDT than it
	// trades away.
	p.ProcessBalanceMessage(adapter.BalanceMessage{UserID: 101, Asset: "ETH", Change: d("1.0"), Balance: d("1.0")})
	p.ProcessBalanceMessage(adapter.BalanceMessage{UserID: 202, Asset: "USDT", Change: d("2.0"), Balance: d("2.0")})

	zeroOrder := adapter.VerboseOrderState{Amount: d("0.5"), Price: d("2.0"), FinishedBase: d("0"), FinishedQuote: d("0")}
	filledOrder := adapter.VerboseOrderState{Amount: d("0.5"), Price: d("2.0"), FinishedBase: d("0.5"), FinishedQuote: d("1.0")}

	trade := adapter.TradeMessage{
		ID: 1, Market: "ETH_USDT",
		Amount: d("0.5"), Price: d("2.0"), QuoteAmount: d("1.0"),
		AskUserID: 101, BidUserID: 202,
		AskOrderID: 1, BidOrderID: 2,
		AskRole: adapter.RoleMaker, BidRole: adapter.RoleTaker,
		StateBefore: adapter.TradeVerboseState{
			Balance:       adapter.VerboseBalanceState{BidUserBase: d("0"), BidUserQuote: d("2.0"), AskUserBase: d("1.0"), AskUserQuote: d("0")},
			AskOrderState: zeroOrder,
			BidOrderState: zeroOrder,
		},
		StateAfter: adapter.TradeVerboseState{
			Balance:       adapter.VerboseBalanceState{BidUserBase: d("0.5"), BidUserQuote: d("1.0"), AskUserBase: d("0.5"), AskUserQuote: d("1.0")},
			AskOrderState: filledOrder,
			BidOrderState: filledOrder,
		},
	}

	p.ProcessTradeMessage(trade)

	half, err := types.NumberToInteger(d("0.5"), 6)
	require.NoError(t, err)
	one, err := types.NumberToInteger(d("1.0"), 6)
	require.NoError(t, err)

	ethAsk := gs.GetTokenBalance(0, 0)
	usdtAsk := gs.GetTokenBalance(0, 1)
	usdtBid := gs.GetTokenBalance(1, 1)
	ethBid := gs.GetTokenBalance(1, 0)

	require.True(t, ethAsk.Equal(&half))
	require.True(t, usdtAsk.Equal(&one))
	require.True(t, usdtBid.Equal(&one)) // 2.0 deposited, 1.0 traded away
	require.True(t, ethBid.Equal(&half))
}

func TestDecodeMessageParsesBalanceMessage(t *testing.T) {
	line := []byte(`{"type":"BalanceMessage","value":{"user_id":7,"asset":"ETH","change":"1.5","balance":"1.5"}}`)
	msg, err := adapter.DecodeMessage(line)
	require.NoError(t, err)
	bm, ok := msg.(*adapter.BalanceMessage)
	require.True(t, ok)
	require.EqualValues(t, 7, bm.UserID)
	require.Equal(t, "ETH", bm.Asset)
}

func TestDecodeMessageRejectsUnknownType(t *testing.T) {
	_, err := adapter.DecodeMessage([]byte(`{"type":"Bogus","value":{}}`))
	require.Error(t, err)
}
