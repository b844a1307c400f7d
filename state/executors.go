package state

import (
	"fmt"

	"github.com/kysee/spot-rollup-state/types"
)

// DepositToOldTx credits an existing account's balance for one token.
type DepositToOldTx struct {
	AccountID uint32
	TokenID   uint32
	Amount    types.Fr
}

// DepositToOld applies a deposit and returns the RawTx witness. Pre:
// the account must already exist and the amount must be strictly
// positive; both are checked here as fatal assertions, since an unknown
// account or a non-positive deposit means the adapter handed the core a
// malformed instruction it should never have produced.
func (s *GlobalState) DepositToOld(tx DepositToOldTx) RawTx {
	acc, ok := s.accounts[tx.AccountID]
	if !ok {
		panic(fmt.Errorf("state: deposit_to_old: unknown account %d", tx.AccountID))
	}
	if tx.TokenID >= s.balanceTrees[tx.AccountID].MaxLeafNum() {
		panic(fmt.Errorf("state: deposit_to_old: token_id %d out of range", tx.TokenID))
	}
	if tx.Amount.IsZero() {
		panic(fmt.Errorf("state: deposit_to_old: amount must be positive"))
	}

	// Step 1: proof against the current trees, before any mutation.
	proof := s.stateProofFor(tx.AccountID, tx.TokenID)

	var raw RawTx
	raw.TxType = TxDepositToOld

	oldBalance := proof.Leaf
	raw.Payload[TokenID] = types.U32ToFr(tx.TokenID)
	raw.Payload[Amount] = tx.Amount
	// A deposit is the recipient-side half of a transfer, so its identity
	// and balance fields occupy the slot-2 columns, matching the
	// recipient convention the reference deposit/deposit-to-new paths use.
	raw.Payload[AccountID2] = types.U32ToFr(tx.AccountID)
	raw.Payload[Balance2] = oldBalance
	raw.Payload[Nonce2] = acc.Nonce
	raw.Payload[Sign2] = acc.Sign
	raw.Payload[Ay2] = acc.Ay
	raw.Payload[EthAddr2] = acc.EthAddr

	// Step 3: pre-path, trivial order paths, before/after order root
	// both equal to the account's current order root (untouched).
	raw.BalancePath0 = proof.BalancePath
	raw.BalancePath1 = proof.BalancePath
	raw.BalancePath2 = proof.BalancePath
	raw.BalancePath3 = proof.BalancePath
	raw.OrderPath0 = s.trivialOrderPathElements()
	raw.OrderPath1 = s.trivialOrderPathElements()
	raw.OrderRoot0 = acc.OrderRoot
	raw.OrderRoot1 = acc.OrderRoot
	raw.AccountPath0 = proof.AccountPath
	raw.AccountPath1 = proof.AccountPath
	raw.RootBefore = proof.Root

	// Step 4: apply.
	var newBalance types.Fr
	newBalance.Add(&oldBalance, &tx.Amount)
	s.setTokenBalance(tx.AccountID, tx.TokenID, newBalance)

	raw.RootAfter = s.Root()
	s.addRawTx(raw)
	return raw
}

// PlaceOrderTx opens a new resting order for an account.
type PlaceOrderTx struct {
	OrderID     uint32
	AccountID   uint32
	TokenIDSell uint32
	TokenIDBuy  uint32
	AmountSell  types.Fr
	AmountBuy   types.Fr
}

// PlaceOrderTxData is the structured view of a place-order payload
// before it is flattened into the shared Fr slot layout: both the order
// slot's previous occupant (possibly the zero order) and the order that
// replaces it, plus the identity fields the circuit checks against the
// account leaf.
type PlaceOrderTxData struct {
	OrderPos uint32

	OldOrderID         types.Fr
	OldOrderFilledSell types.Fr
	OldOrderAmountSell types.Fr
	OldOrderFilledBuy  types.Fr
	OldOrderAmountBuy  types.Fr

	NewOrderID         types.Fr
	NewOrderTokenSell  uint32
	NewOrderAmountSell types.Fr
	NewOrderTokenBuy   uint32
	NewOrderAmountBuy  types.Fr

	AccountID uint32
	Balance   types.Fr
	Nonce     types.Fr
	Sign      types.Fr
	Ay        types.Fr
	EthAddr   types.Fr
}

// Encode flattens the structured place-order data into the shared
// TX_LENGTH payload vector.
func (d PlaceOrderTxData) Encode() [TxLength]types.Fr {
	var p [TxLength]types.Fr
	p[AccountID1] = types.U32ToFr(d.AccountID)
	p[TokenID] = types.U32ToFr(d.NewOrderTokenSell)
	p[TokenID2] = types.U32ToFr(d.NewOrderTokenBuy)
	p[TokenID3] = types.U32ToFr(d.OrderPos)
	p[Amount] = d.NewOrderAmountSell
	p[Amount2] = d.NewOrderAmountBuy
	p[Balance1] = d.Balance
	p[Nonce1] = d.Nonce
	p[Sign1] = d.Sign
	p[Ay1] = d.Ay
	p[EthAddr1] = d.EthAddr

	p[Order1ID] = d.NewOrderID
	p[Order1AmountSell] = d.NewOrderAmountSell
	p[Order1AmountBuy] = d.NewOrderAmountBuy
	p[Order1FilledSell] = types.ZeroFr()
	p[Order1FilledBuy] = types.ZeroFr()

	p[Order2ID] = d.OldOrderID
	p[Order2AmountSell] = d.OldOrderAmountSell
	p[Order2AmountBuy] = d.OldOrderAmountBuy
	p[Order2FilledSell] = d.OldOrderFilledSell
	p[Order2FilledBuy] = d.OldOrderFilledBuy
	return p
}

// PlaceOrder opens a new order for tx.AccountID, returning both the
// allocated slot and the RawTx witness. Pre: the account must exist.
func (s *GlobalState) PlaceOrder(tx PlaceOrderTx) (uint32, RawTx) {
	acc, ok := s.accounts[tx.AccountID]
	if !ok {
		panic(fmt.Errorf("state: place_order: unknown account %d", tx.AccountID))
	}

	// Step 1: proof against the seller token balance and the account
	// leaf, before the slot is touched.
	proof := s.stateProofFor(tx.AccountID, tx.TokenIDSell)

	var raw RawTx
	raw.TxType = TxPlaceOrder
	raw.BalancePath0 = proof.BalancePath
	raw.BalancePath1 = proof.BalancePath
	raw.BalancePath2 = proof.BalancePath
	raw.BalancePath3 = proof.BalancePath
	raw.OrderRoot0 = acc.OrderRoot
	raw.AccountPath0 = proof.AccountPath
	raw.AccountPath1 = proof.AccountPath
	raw.RootBefore = proof.Root

	// Steps 2-3: allocate the slot and overwrite it.
	orderPos, oldOrder := s.createNewOrder(tx)
	newOrder := s.orderMap[tx.AccountID][orderPos]

	data := PlaceOrderTxData{
		OrderPos:           orderPos,
		OldOrderID:         oldOrder.OrderID,
		OldOrderFilledSell: oldOrder.FilledSell,
		OldOrderAmountSell: oldOrder.TotalSell,
		OldOrderFilledBuy:  oldOrder.FilledBuy,
		OldOrderAmountBuy:  oldOrder.TotalBuy,
		NewOrderID:         newOrder.OrderID,
		NewOrderTokenSell:  tx.TokenIDSell,
		NewOrderAmountSell: newOrder.TotalSell,
		NewOrderTokenBuy:   tx.TokenIDBuy,
		NewOrderAmountBuy:  newOrder.TotalBuy,
		AccountID:          tx.AccountID,
		Balance:            proof.Leaf,
		Nonce:              acc.Nonce,
		Sign:               acc.Sign,
		Ay:                 acc.Ay,
		EthAddr:            acc.EthAddr,
	}
	raw.Payload = data.Encode()

	// Step 5: the new tree's proof for orderPos serves as the shared
	// path for both the before (old_order) and after (new_order) leaf.
	orderProof := s.orderTrees[tx.AccountID].GetProof(orderPos)
	raw.OrderPath0 = orderProof.PathElements
	raw.OrderRoot1 = orderProof.Root

	raw.RootAfter = s.Root()
	s.addRawTx(raw)
	return orderPos, raw
}

// SpotTradeTx matches two previously placed orders against each other.
// Order1 is the maker side by caller convention.
type SpotTradeTx struct {
	Order1AccountID uint32
	Order2AccountID uint32
	Order1ID        uint32
	Order2ID        uint32
	TokenID1to2     uint32
	TokenID2to1     uint32
	Amount1to2      types.Fr
	Amount2to1      types.Fr
}

// SpotTrade executes a trade between two resting orders. The mutation
// and capture order below is a contract (see the component design's
// spot-trade notes): reordering it produces a valid ledger but an
// invalid witness, since the circuit replays this exact interleaving.
func (s *GlobalState) SpotTrade(tx SpotTradeTx) RawTx {
	account1, ok := s.accounts[tx.Order1AccountID]
	if !ok {
		panic(fmt.Errorf("state: spot_trade: unknown account %d", tx.Order1AccountID))
	}
	account2, ok := s.accounts[tx.Order2AccountID]
	if !ok {
		panic(fmt.Errorf("state: spot_trade: unknown account %d", tx.Order2AccountID))
	}

	order1Pos := s.GetOrderPosByID(tx.Order1AccountID, tx.Order1ID)
	order2Pos := s.GetOrderPosByID(tx.Order2AccountID, tx.Order2ID)
	order1 := s.orderMap[tx.Order1AccountID][order1Pos]
	order2 := s.orderMap[tx.Order2AccountID][order2Pos]

	account1BalanceSell := s.GetTokenBalance(tx.Order1AccountID, tx.TokenID1to2)
	account2BalanceBuy := s.GetTokenBalance(tx.Order2AccountID, tx.TokenID1to2)
	account2BalanceSell := s.GetTokenBalance(tx.Order2AccountID, tx.TokenID2to1)
	account1BalanceBuy := s.GetTokenBalance(tx.Order1AccountID, tx.TokenID2to1)

	if account1BalanceSell.Cmp(&tx.Amount1to2) <= 0 {
		panic(fmt.Errorf("state: spot_trade: account %d has insufficient balance of token %d", tx.Order1AccountID, tx.TokenID1to2))
	}
	if account2BalanceSell.Cmp(&tx.Amount2to1) <= 0 {
		panic(fmt.Errorf("state: spot_trade: account %d has insufficient balance of token %d", tx.Order2AccountID, tx.TokenID2to1))
	}

	// Step 1.
	var raw RawTx
	raw.TxType = TxSpotTrade
	raw.RootBefore = s.Root()

	// Step 2: proofs and order-tree state, captured before any mutation.
	proofOrder1Seller := s.stateProofFor(tx.Order1AccountID, tx.TokenID1to2)
	proofOrder2Seller := s.stateProofFor(tx.Order2AccountID, tx.TokenID2to1)
	order1PathBefore := s.orderTrees[tx.Order1AccountID].GetProof(order1Pos).PathElements
	order2PathBefore := s.orderTrees[tx.Order2AccountID].GetProof(order2Pos).PathElements

	// Step 3: payload.
	raw.Payload[AccountID1] = types.U32ToFr(tx.Order1AccountID)
	raw.Payload[AccountID2] = types.U32ToFr(tx.Order2AccountID)
	raw.Payload[EthAddr1] = account1.EthAddr
	raw.Payload[EthAddr2] = account2.EthAddr
	raw.Payload[Sign1] = account1.Sign
	raw.Payload[Sign2] = account2.Sign
	raw.Payload[Ay1] = account1.Ay
	raw.Payload[Ay2] = account2.Ay
	raw.Payload[Nonce1] = account1.Nonce
	raw.Payload[Nonce2] = account2.Nonce
	raw.Payload[TokenID] = types.U32ToFr(tx.TokenID1to2)
	raw.Payload[Amount] = tx.Amount1to2
	raw.Payload[Balance1] = account1BalanceSell
	raw.Payload[Balance2] = account2BalanceBuy
	raw.Payload[Balance3] = account2BalanceSell
	raw.Payload[Balance4] = account1BalanceBuy
	raw.Payload[TokenID2] = types.U32ToFr(tx.TokenID2to1)
	raw.Payload[Amount2] = tx.Amount2to1
	raw.Payload[TokenID3] = types.U32ToFr(order1Pos)
	raw.Payload[Order1ID] = order1.OrderID
	raw.Payload[Order1AmountSell] = order1.TotalSell
	raw.Payload[Order1AmountBuy] = order1.TotalBuy
	raw.Payload[Order1FilledSell] = order1.FilledSell
	raw.Payload[Order1FilledBuy] = order1.FilledBuy
	raw.Payload[TokenID4] = types.U32ToFr(order2Pos)
	raw.Payload[Order2ID] = order2.OrderID
	raw.Payload[Order2AmountSell] = order2.TotalSell
	raw.Payload[Order2AmountBuy] = order2.TotalBuy
	raw.Payload[Order2FilledSell] = order2.FilledSell
	raw.Payload[Order2FilledBuy] = order2.FilledBuy

	raw.OrderPath0 = order1PathBefore
	raw.OrderPath1 = order2PathBefore
	raw.OrderRoot0 = account1.OrderRoot
	raw.OrderRoot1 = account2.OrderRoot
	raw.AccountPath0 = proofOrder1Seller.AccountPath

	// Step 4.
	raw.BalancePath0 = proofOrder1Seller.BalancePath
	raw.BalancePath2 = proofOrder2Seller.BalancePath

	// Step 5: deduct from account1's sell-token balance directly,
	// bypassing the account-leaf recompute — the account tree must not
	// see this mutation yet.
	var balance1AfterSell types.Fr
	balance1AfterSell.Sub(&account1BalanceSell, &tx.Amount1to2)
	s.balanceTrees[tx.Order1AccountID].SetValue(tx.TokenID1to2, balance1AfterSell)
	raw.BalancePath3 = s.balanceTrees[tx.Order1AccountID].GetProof(tx.TokenID2to1).PathElements

	// Step 6: same for account2.
	var balance2AfterSell types.Fr
	balance2AfterSell.Sub(&account2BalanceSell, &tx.Amount2to1)
	s.balanceTrees[tx.Order2AccountID].SetValue(tx.TokenID2to1, balance2AfterSell)
	raw.BalancePath1 = s.balanceTrees[tx.Order2AccountID].GetProof(tx.TokenID1to2).PathElements

	// Step 7: order1 fills.
	newOrder1 := order1
	newOrder1.FilledSell.Add(&order1.FilledSell, &tx.Amount1to2)
	newOrder1.FilledBuy.Add(&order1.FilledBuy, &tx.Amount2to1)
	s.setAccountOrder(tx.Order1AccountID, order1Pos, newOrder1)

	// Step 8: credit account1's buy-token balance; this is the first
	// recompute of account1's leaf that picks up its new balance root
	// (step 7 restamped the leaf with the new order root only), folding
	// in both the step-5 deduction and this credit at once.
	var balance1AfterBuy types.Fr
	balance1AfterBuy.Add(&account1BalanceBuy, &tx.Amount2to1)
	s.setTokenBalance(tx.Order1AccountID, tx.TokenID2to1, balance1AfterBuy)

	// Step 9: account2's position, with account1 fully settled but
	// account2 still only balance-deducted.
	raw.AccountPath1 = s.accountTree.GetProof(tx.Order2AccountID).PathElements

	// Step 10: order2 fills.
	newOrder2 := order2
	newOrder2.FilledSell.Add(&order2.FilledSell, &tx.Amount2to1)
	newOrder2.FilledBuy.Add(&order2.FilledBuy, &tx.Amount1to2)
	s.setAccountOrder(tx.Order2AccountID, order2Pos, newOrder2)

	// Step 11: credit account2's buy-token balance.
	var balance2AfterBuy types.Fr
	balance2AfterBuy.Add(&account2BalanceBuy, &tx.Amount1to2)
	s.setTokenBalance(tx.Order2AccountID, tx.TokenID1to2, balance2AfterBuy)

	// Step 12.
	raw.RootAfter = s.Root()
	s.addRawTx(raw)
	return raw
}

// Nop emits a padding RawTx whose before and after roots are equal,
// built against the trivial (account 0, token 0) slot.
func (s *GlobalState) Nop() RawTx {
	var raw RawTx
	raw.TxType = TxNop

	root := s.Root()
	raw.RootBefore = root
	raw.RootAfter = root

	if _, ok := s.accounts[0]; ok {
		proof := s.stateProofFor(0, 0)
		raw.BalancePath0 = proof.BalancePath
		raw.BalancePath1 = proof.BalancePath
		raw.BalancePath2 = proof.BalancePath
		raw.BalancePath3 = proof.BalancePath
		raw.AccountPath0 = proof.AccountPath
		raw.AccountPath1 = proof.AccountPath
		raw.OrderRoot0 = s.accounts[0].OrderRoot
		raw.OrderRoot1 = s.accounts[0].OrderRoot
	} else {
		accountProof := s.accountTree.GetProof(0)
		raw.BalancePath0 = make([]types.Fr, s.balanceLevels)
		raw.BalancePath1 = raw.BalancePath0
		raw.BalancePath2 = raw.BalancePath0
		raw.BalancePath3 = raw.BalancePath0
		raw.AccountPath0 = accountProof.PathElements
		raw.AccountPath1 = accountProof.PathElements
		raw.OrderRoot0 = s.defaultOrderRoot
		raw.OrderRoot1 = s.defaultOrderRoot
	}
	raw.OrderPath0 = s.trivialOrderPathElements()
	raw.OrderPath1 = s.trivialOrderPathElements()

	s.addRawTx(raw)
	return raw
}
