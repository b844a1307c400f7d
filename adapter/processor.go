package adapter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kysee/spot-rollup-state/logging"
	"github.com/kysee/spot-rollup-state/state"
	"github.com/kysee/spot-rollup-state/types"
	"github.com/rs/zerolog"
)

// orderRef is where the Processor remembers an externally-numbered
// order once it has been placed in the rollup state.
type orderRef struct {
	accountID uint32
	orderPos  uint32
}

// Processor owns the two identifier-remapping tables described by the
// message adapter: external user_id to internal account_id, and
// external order_id to the (account_id, order_pos) slot it landed in.
// It drives a single GlobalState and aborts the whole run (by panicking)
// the moment the matching engine's verbose state disagrees with the
// ledger's own state.
type Processor struct {
	gs     *state.GlobalState
	tokens types.TokenRegistry

	accounts map[uint32]uint32
	orders   map[uint32]orderRef

	logger zerolog.Logger
}

// NewProcessor builds a processor driving gs, resolving asset symbols
// through tokens.
func NewProcessor(gs *state.GlobalState, tokens types.TokenRegistry) *Processor {
	return &Processor{
		gs:       gs,
		tokens:   tokens,
		accounts: make(map[uint32]uint32),
		orders:   make(map[uint32]orderRef),
		logger:   logging.New("adapter"),
	}
}

// obtainPlaceID maps an external user_id to its account_id, creating a
// fresh account (order cursor seeded at 1) on first sight.
func (p *Processor) obtainPlaceID(userID uint32) uint32 {
	if accountID, ok := p.accounts[userID]; ok {
		return accountID
	}
	accountID := p.gs.CreateNewAccount(1)
	p.accounts[userID] = accountID
	p.logger.Debug().Uint32("user_id", userID).Uint32("account_id", accountID).Msg("account mapped")
	return accountID
}

// ProcessBalanceMessage applies a deposit. Any cross-check failure is
// fatal: it is logged and then panics, per the error taxonomy's
// ledger-disagreement handling.
func (p *Processor) ProcessBalanceMessage(msg BalanceMessage) {
	if err := p.processBalance(msg); err != nil {
		p.logger.Error().Err(err).Uint32("user_id", msg.UserID).Str("asset", msg.Asset).Msg("balance message rejected")
		panic(err)
	}
}

func (p *Processor) processBalance(msg BalanceMessage) error {
	if msg.Change.Sign() < 0 {
		return fmt.Errorf("%w: deposit change must be non-negative for user %d", ErrLedgerDisagreement, msg.UserID)
	}

	tok, err := p.tokens.Resolve(msg.Asset)
	if err != nil {
		return err
	}

	accountID := p.obtainPlaceID(msg.UserID)

	balanceBefore := msg.Balance.Sub(msg.Change)
	if balanceBefore.Sign() < 0 {
		return fmt.Errorf("%w: implied pre-deposit balance %s is negative for user %d", ErrLedgerDisagreement, balanceBefore, msg.UserID)
	}

	expectedBefore, err := types.NumberToInteger(balanceBefore, tok.Precision)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}
	actualBefore := p.gs.GetTokenBalance(accountID, tok.ID)
	if !actualBefore.Equal(&expectedBefore) {
		return fmt.Errorf("%w: pre-deposit balance mismatch for user %d asset %s", ErrLedgerDisagreement, msg.UserID, msg.Asset)
	}

	change, err := types.NumberToInteger(msg.Change, tok.Precision)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}

	p.gs.DepositToOld(state.DepositToOldTx{AccountID: accountID, TokenID: tok.ID, Amount: change})
	return nil
}

// marketTokenIDs splits a "BASE_QUOTE" market symbol and resolves both
// legs through the token registry.
func (p *Processor) marketTokenIDs(market string) (base, quote types.Token, err error) {
	parts := strings.SplitN(market, "_", 2)
	if len(parts) != 2 {
		return types.Token{}, types.Token{}, fmt.Errorf("adapter: malformed market %q", market)
	}
	base, err = p.tokens.Resolve(parts[0])
	if err != nil {
		return types.Token{}, types.Token{}, err
	}
	quote, err = p.tokens.Resolve(parts[1])
	if err != nil {
		return types.Token{}, types.Token{}, err
	}
	return base, quote, nil
}

// resolvedOrderState is an ASK/BID leg of a trade's before/after
// snapshot, projected into sell/buy terms per the order-side projection
// table.
type resolvedOrderState struct {
	orderID    uint32
	accountID  uint32
	tokenSell  types.Token
	tokenBuy   types.Token
	totalSell  types.Decimal
	totalBuy   types.Decimal
	filledSell types.Decimal
	filledBuy  types.Decimal
}

func resolveAskState(v VerboseOrderState, orderID, accountID uint32, base, quote types.Token) resolvedOrderState {
	return resolvedOrderState{
		orderID: orderID, accountID: accountID,
		tokenSell: base, tokenBuy: quote,
		totalSell: v.Amount, totalBuy: v.Amount.Mul(v.Price),
		filledSell: v.FinishedBase, filledBuy: v.FinishedQuote,
	}
}

func resolveBidState(v VerboseOrderState, orderID, accountID uint32, base, quote types.Token) resolvedOrderState {
	return resolvedOrderState{
		orderID: orderID, accountID: accountID,
		tokenSell: quote, tokenBuy: base,
		totalSell: v.Amount.Mul(v.Price), totalBuy: v.Amount,
		filledSell: v.FinishedQuote, filledBuy: v.FinishedBase,
	}
}

func (r resolvedOrderState) placeOrderTx() (state.PlaceOrderTx, error) {
	amountSell, err := types.NumberToInteger(r.totalSell, r.tokenSell.Precision)
	if err != nil {
		return state.PlaceOrderTx{}, fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}
	amountBuy, err := types.NumberToInteger(r.totalBuy, r.tokenBuy.Precision)
	if err != nil {
		return state.PlaceOrderTx{}, fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}
	return state.PlaceOrderTx{
		OrderID: r.orderID, AccountID: r.accountID,
		TokenIDSell: r.tokenSell.ID, TokenIDBuy: r.tokenBuy.ID,
		AmountSell: amountSell, AmountBuy: amountBuy,
	}, nil
}

func (r resolvedOrderState) toOrder() (state.Order, error) {
	filledSell, err := types.NumberToInteger(r.filledSell, r.tokenSell.Precision)
	if err != nil {
		return state.Order{}, fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}
	filledBuy, err := types.NumberToInteger(r.filledBuy, r.tokenBuy.Precision)
	if err != nil {
		return state.Order{}, fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}
	totalSell, err := types.NumberToInteger(r.totalSell, r.tokenSell.Precision)
	if err != nil {
		return state.Order{}, fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}
	totalBuy, err := types.NumberToInteger(r.totalBuy, r.tokenBuy.Precision)
	if err != nil {
		return state.Order{}, fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}
	return state.Order{
		OrderID:    types.U32ToFr(r.orderID),
		TokenBuy:   types.U32ToFr(r.tokenBuy.ID),
		TokenSell:  types.U32ToFr(r.tokenSell.ID),
		TotalSell:  totalSell,
		TotalBuy:   totalBuy,
		FilledSell: filledSell,
		FilledBuy:  filledBuy,
	}, nil
}

// ProcessTradeMessage remaps both sides of a trade, places whichever
// orders have not yet been observed, cross-checks pre-trade state,
// executes the spot trade, then cross-checks post-trade state. Any
// disagreement is fatal.
func (p *Processor) ProcessTradeMessage(msg TradeMessage) {
	if err := p.processTrade(msg); err != nil {
		p.logger.Error().Err(err).Uint64("trade_id", msg.ID).Str("market", msg.Market).Msg("trade message rejected")
		panic(err)
	}
}

func (p *Processor) processTrade(msg TradeMessage) error {
	base, quote, err := p.marketTokenIDs(msg.Market)
	if err != nil {
		return err
	}

	askUserID := p.obtainPlaceID(msg.AskUserID)
	bidUserID := p.obtainPlaceID(msg.BidUserID)
	askOrderID := uint32(msg.AskOrderID)
	bidOrderID := uint32(msg.BidOrderID)

	askBefore := resolveAskState(msg.StateBefore.AskOrderState, askOrderID, askUserID, base, quote)
	bidBefore := resolveBidState(msg.StateBefore.BidOrderState, bidOrderID, bidUserID, base, quote)
	askAfter := resolveAskState(msg.StateAfter.AskOrderState, askOrderID, askUserID, base, quote)
	bidAfter := resolveBidState(msg.StateAfter.BidOrderState, bidOrderID, bidUserID, base, quote)

	// Place whichever side has not yet been observed, ask and bid in
	// order_id order so repeated runs place in a deterministic sequence.
	toPlace := []resolvedOrderState{askBefore, bidBefore}
	sort.Slice(toPlace, func(i, j int) bool { return toPlace[i].orderID < toPlace[j].orderID })
	for _, leg := range toPlace {
		if _, ok := p.orders[leg.orderID]; ok {
			continue
		}
		tx, err := leg.placeOrderTx()
		if err != nil {
			return err
		}
		pos, _ := p.gs.PlaceOrder(tx)
		p.orders[leg.orderID] = orderRef{accountID: leg.accountID, orderPos: pos}
	}

	if err := p.assertBalanceState(msg.StateBefore.Balance, bidUserID, askUserID, base, quote); err != nil {
		return err
	}
	if err := p.assertOrderState(askBefore); err != nil {
		return err
	}
	if err := p.assertOrderState(bidBefore); err != nil {
		return err
	}

	spotTx, err := p.tradeIntoSpotTx(msg, base, quote)
	if err != nil {
		return err
	}
	p.gs.SpotTrade(spotTx)

	if err := p.assertBalanceState(msg.StateAfter.Balance, bidUserID, askUserID, base, quote); err != nil {
		return err
	}
	if err := p.assertOrderState(askAfter); err != nil {
		return err
	}
	return p.assertOrderState(bidAfter)
}

// tradeIntoSpotTx applies the spot-trade role projection: the maker
// side becomes order1, with amounts expressed in its own sell/buy
// terms.
func (p *Processor) tradeIntoSpotTx(msg TradeMessage, base, quote types.Token) (state.SpotTradeTx, error) {
	askUserID := p.accounts[msg.AskUserID]
	bidUserID := p.accounts[msg.BidUserID]
	askOrderID := uint32(msg.AskOrderID)
	bidOrderID := uint32(msg.BidOrderID)

	amountBase, err := types.NumberToInteger(msg.Amount, base.Precision)
	if err != nil {
		return state.SpotTradeTx{}, fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}
	amountQuote, err := types.NumberToInteger(msg.QuoteAmount, quote.Precision)
	if err != nil {
		return state.SpotTradeTx{}, fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}

	if msg.AskRole == RoleMaker {
		return state.SpotTradeTx{
			Order1AccountID: askUserID, Order2AccountID: bidUserID,
			Order1ID: askOrderID, Order2ID: bidOrderID,
			TokenID1to2: base.ID, TokenID2to1: quote.ID,
			Amount1to2: amountBase, Amount2to1: amountQuote,
		}, nil
	}
	return state.SpotTradeTx{
		Order1AccountID: bidUserID, Order2AccountID: askUserID,
		Order1ID: bidOrderID, Order2ID: askOrderID,
		TokenID1to2: quote.ID, TokenID2to1: base.ID,
		Amount1to2: amountQuote, Amount2to1: amountBase,
	}, nil
}

func (p *Processor) assertBalanceState(reported VerboseBalanceState, bidID, askID uint32, base, quote types.Token) error {
	expectBidBase, err := types.NumberToInteger(reported.BidUserBase, base.Precision)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}
	expectBidQuote, err := types.NumberToInteger(reported.BidUserQuote, quote.Precision)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}
	expectAskBase, err := types.NumberToInteger(reported.AskUserBase, base.Precision)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}
	expectAskQuote, err := types.NumberToInteger(reported.AskUserQuote, quote.Precision)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerDisagreement, err)
	}

	actualBidBase := p.gs.GetTokenBalance(bidID, base.ID)
	actualBidQuote := p.gs.GetTokenBalance(bidID, quote.ID)
	actualAskBase := p.gs.GetTokenBalance(askID, base.ID)
	actualAskQuote := p.gs.GetTokenBalance(askID, quote.ID)

	mismatch := !actualBidBase.Equal(&expectBidBase) ||
		!actualBidQuote.Equal(&expectBidQuote) ||
		!actualAskBase.Equal(&expectAskBase) ||
		!actualAskQuote.Equal(&expectAskQuote)
	if mismatch {
		return fmt.Errorf("%w: balance state mismatch for bid account %d / ask account %d", ErrLedgerDisagreement, bidID, askID)
	}
	return nil
}

func (p *Processor) assertOrderState(r resolvedOrderState) error {
	expected, err := r.toOrder()
	if err != nil {
		return err
	}
	actual, ok := p.gs.GetAccountOrderByID(r.accountID, r.orderID)
	if !ok {
		return fmt.Errorf("%w: account %d has no order %d", ErrLedgerDisagreement, r.accountID, r.orderID)
	}
	if !actual.Equal(expected) {
		return fmt.Errorf("%w: order state mismatch for account %d order %d", ErrLedgerDisagreement, r.accountID, r.orderID)
	}
	return nil
}
