package state

import "github.com/kysee/spot-rollup-state/types"

// Payload slot indices. This is the fixed enumeration every executor
// writes into and every downstream circuit reads from; two
// implementations of the core must agree byte-for-field on this
// mapping, so the order below must never change once fixed.
const (
	AccountID1 = iota
	AccountID2
	TokenID
	TokenID2
	TokenID3
	TokenID4
	Amount
	Amount2
	Balance1
	Balance2
	Balance3
	Balance4
	Nonce1
	Nonce2
	Sign1
	Sign2
	Ay1
	Ay2
	EthAddr1
	EthAddr2
	Order1ID
	Order2ID
	Order1AmountSell
	Order1AmountBuy
	Order1FilledSell
	Order1FilledBuy
	Order2AmountSell
	Order2AmountBuy
	Order2FilledSell
	Order2FilledBuy
	SigL2Hash
	SigS
	SigR8X
	SigR8Y

	// TxLength is the fixed width of every RawTx payload vector.
	TxLength
)

// TxType identifies which executor produced a RawTx.
type TxType uint8

const (
	TxNop TxType = iota
	TxDepositToOld
	TxPlaceOrder
	TxSpotTrade
)

func (t TxType) String() string {
	switch t {
	case TxNop:
		return "Nop"
	case TxDepositToOld:
		return "DepositToOld"
	case TxPlaceOrder:
		return "PlaceOrder"
	case TxSpotTrade:
		return "SpotTrade"
	default:
		return "Unknown"
	}
}

// RawTx is the uniform witness record every executor produces: a typed
// payload plus the before/after Merkle paths the circuit needs to
// replay and check the transition.
type RawTx struct {
	TxType TxType
	Payload [TxLength]types.Fr

	BalancePath0 []types.Fr
	BalancePath1 []types.Fr
	BalancePath2 []types.Fr
	BalancePath3 []types.Fr

	OrderPath0 []types.Fr
	OrderPath1 []types.Fr

	OrderRoot0 types.Fr
	OrderRoot1 types.Fr

	AccountPath0 []types.Fr
	AccountPath1 []types.Fr

	RootBefore types.Fr
	RootAfter  types.Fr
}

// L2Block is a batch of exactly n_tx RawTx entries, transposed field by
// field the way the circuit witness runner expects to consume them.
type L2Block struct {
	TxsType []TxType
	EncodedTxs [][TxLength]types.Fr

	BalancePathElements [][4][]types.Fr
	OrderPathElements   [][2][]types.Fr
	AccountPathElements [][2][]types.Fr
	OrderRoots          [][2]types.Fr

	OldAccountRoots []types.Fr
	NewAccountRoots []types.Fr
}

// stateProof bundles a balance-tree proof for one (account, token) with
// the enclosing account-tree proof, since every executor needs both
// together.
type stateProof struct {
	Leaf        types.Fr
	Root        types.Fr
	BalanceRoot types.Fr
	OrderRoot   types.Fr
	BalancePath []types.Fr
	AccountPath []types.Fr
}
