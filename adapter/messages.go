// Package adapter remaps the exchange's external message stream
// (balance, order and trade records scoped to exchange user_id/order_id
// values) onto the state engine's internal (account_id, order_pos)
// addressing, cross-checking the matching engine's own verbose ledger
// snapshots against the rollup state at every step.
package adapter

import "github.com/kysee/spot-rollup-state/types"

// MarketRole identifies which side of a trade was resting (MAKER) and
// which crossed the book (TAKER).
type MarketRole string

const (
	RoleMaker MarketRole = "MAKER"
	RoleTaker MarketRole = "TAKER"
)

// MessageType tags the envelope's "type" field.
type MessageType string

const (
	MessageTypeBalance MessageType = "BalanceMessage"
	MessageTypeOrder   MessageType = "OrderMessage"
	MessageTypeTrade   MessageType = "TradeMessage"
)

// BalanceMessage reports a deposit: only a non-negative change is
// accepted, and balance is the ledger's post-change amount as reported
// by the matching engine.
type BalanceMessage struct {
	UserID uint32        `json:"user_id"`
	Asset  string        `json:"asset"`
	Change types.Decimal `json:"change"`
	Balance types.Decimal `json:"balance"`
}

// OrderMessage announces an order's existence on the book. The core
// never consumes it directly: every order the adapter actually places
// is discovered lazily from a TradeMessage's embedded order states
// (see handle_trade in the source this is ported from), so decoding is
// the only thing this type is for.
type OrderMessage struct {
	UserID  uint32        `json:"user_id"`
	OrderID uint64        `json:"order_id"`
	Market  string        `json:"market"`
	Side    string        `json:"side"`
	Amount  types.Decimal `json:"amount"`
	Price   types.Decimal `json:"price"`
}

// VerboseBalanceState is the matching engine's own view of all four
// balances touched by a trade, used to cross-check the ledger.
type VerboseBalanceState struct {
	BidUserBase  types.Decimal `json:"bid_user_base"`
	BidUserQuote types.Decimal `json:"bid_user_quote"`
	AskUserBase  types.Decimal `json:"ask_user_base"`
	AskUserQuote types.Decimal `json:"ask_user_quote"`
}

// VerboseOrderState is the matching engine's view of one side's order,
// in base/quote terms rather than sell/buy terms.
type VerboseOrderState struct {
	Amount       types.Decimal `json:"amount"`
	Price        types.Decimal `json:"price"`
	FinishedBase types.Decimal `json:"finished_base"`
	FinishedQuote types.Decimal `json:"finished_quote"`
}

// TradeVerboseState bundles one side of the before/after snapshot a
// TradeMessage carries.
type TradeVerboseState struct {
	Balance       VerboseBalanceState `json:"balance"`
	AskOrderState VerboseOrderState   `json:"ask_order_state"`
	BidOrderState VerboseOrderState   `json:"bid_order_state"`
}

// TradeMessage reports one matched trade between a resting (maker) and
// an incoming (taker) order.
type TradeMessage struct {
	ID          uint64            `json:"id"`
	Market      string            `json:"market"`
	Amount      types.Decimal     `json:"amount"`
	Price       types.Decimal     `json:"price"`
	QuoteAmount types.Decimal     `json:"quote_amount"`
	AskUserID   uint32            `json:"ask_user_id"`
	BidUserID   uint32            `json:"bid_user_id"`
	AskOrderID  uint64            `json:"ask_order_id"`
	BidOrderID  uint64            `json:"bid_order_id"`
	AskRole     MarketRole        `json:"ask_role"`
	BidRole     MarketRole        `json:"bid_role"`
	StateBefore TradeVerboseState `json:"state_before"`
	StateAfter  TradeVerboseState `json:"state_after"`
}
