// Package state implements the Merkle forest, transaction executors and
// block forger that together make up the rollup's state engine: every
// exported mutation on GlobalState produces both the new authoritative
// state and the RawTx witness a downstream circuit needs to check it.
package state

import (
	"fmt"

	"github.com/kysee/spot-rollup-state/logging"
	"github.com/kysee/spot-rollup-state/smt"
	"github.com/kysee/spot-rollup-state/types"
	"github.com/rs/zerolog"
)

const maxTreeHeight = 31

// GlobalState owns the account tree and, per active account, a balance
// tree and an order tree. accounts/balanceTrees/orderTrees are siblings
// keyed by account_id rather than nested structures, so the forest has
// no cyclic ownership: the account leaf is a hash of cached roots, never
// a pointer into the subtrees themselves.
type GlobalState struct {
	balanceLevels uint32
	orderLevels   uint32
	accountLevels uint32
	nTx           uint32

	maxOrderNumPerUser uint32

	hash smt.HashFn

	defaultBalanceRoot types.Fr
	defaultOrderLeaf   types.Fr
	defaultOrderRoot   types.Fr
	defaultAccountLeaf types.Fr

	accountTree  *smt.Tree
	balanceTrees map[uint32]*smt.Tree
	orderTrees   map[uint32]*smt.Tree

	accounts      map[uint32]AccountState
	orderMap      map[uint32]map[uint32]Order
	orderIDToPos  map[orderKey]uint32
	nextOrderIdxs map[uint32]uint32

	bufferedTxs    []RawTx
	bufferedBlocks []L2Block

	logger zerolog.Logger
}

type orderKey struct {
	accountID uint32
	orderID   uint32
}

// NewGlobalState builds an empty forest with the given subtree heights
// and the per-block transaction count. It returns ErrCapacityExhausted
// rather than constructing a tree whose leaf domain cannot be addressed
// by a uint32 index; every other capacity error is a fatal assertion
// raised later against the live tree.
func NewGlobalState(balanceLevels, orderLevels, accountLevels, nTx uint32) (*GlobalState, error) {
	for _, h := range []uint32{balanceLevels, orderLevels, accountLevels} {
		if h > maxTreeHeight {
			return nil, fmt.Errorf("%w: height %d exceeds %d", ErrCapacityExhausted, h, maxTreeHeight)
		}
	}
	if nTx == 0 {
		return nil, fmt.Errorf("state: n_tx must be positive")
	}

	hash := func(left, right types.Fr) types.Fr { return types.H(left, right) }

	defaultBalanceRoot := smt.New(balanceLevels, types.ZeroFr(), hash).GetRoot()
	defaultOrderLeaf := Order{}.Hash()
	defaultOrderRoot := smt.New(orderLevels, defaultOrderLeaf, hash).GetRoot()
	defaultAccountLeaf := EmptyAccountState(defaultBalanceRoot, defaultOrderRoot).Hash()

	gs := &GlobalState{
		balanceLevels:      balanceLevels,
		orderLevels:        orderLevels,
		accountLevels:      accountLevels,
		nTx:                nTx,
		maxOrderNumPerUser: uint32(1) << orderLevels,
		hash:               hash,
		defaultBalanceRoot: defaultBalanceRoot,
		defaultOrderLeaf:   defaultOrderLeaf,
		defaultOrderRoot:   defaultOrderRoot,
		defaultAccountLeaf: defaultAccountLeaf,
		accountTree:        smt.New(accountLevels, defaultAccountLeaf, hash),
		balanceTrees:       make(map[uint32]*smt.Tree),
		orderTrees:         make(map[uint32]*smt.Tree),
		accounts:           make(map[uint32]AccountState),
		orderMap:           make(map[uint32]map[uint32]Order),
		orderIDToPos:       make(map[orderKey]uint32),
		nextOrderIdxs:      make(map[uint32]uint32),
		logger:             logging.New("state"),
	}
	return gs, nil
}

// Root returns the current account-tree root, the single value that
// summarizes the entire forest.
func (s *GlobalState) Root() types.Fr {
	return s.accountTree.GetRoot()
}

// NumAccounts reports how many accounts have been created so far; the
// next account to be created takes this value as its id.
func (s *GlobalState) NumAccounts() uint32 {
	return uint32(len(s.accounts))
}

func (s *GlobalState) recalculateFromAccountState(accountID uint32) {
	s.accountTree.SetValue(accountID, s.accounts[accountID].Hash())
}

func (s *GlobalState) recalculateFromBalanceTree(accountID uint32) {
	acc := s.accounts[accountID]
	acc.BalanceRoot = s.balanceTrees[accountID].GetRoot()
	s.accounts[accountID] = acc
	s.recalculateFromAccountState(accountID)
}

func (s *GlobalState) recalculateFromOrderTree(accountID uint32) {
	acc := s.accounts[accountID]
	acc.OrderRoot = s.orderTrees[accountID].GetRoot()
	s.accounts[accountID] = acc
	s.recalculateFromAccountState(accountID)
}

// IncreaseNonce advances an account's nonce by one field unit. No
// in-scope executor calls this; it exists because the data model
// defines nonce increment as field addition, exercised by transfer and
// withdraw paths that sit outside the core contract.
func (s *GlobalState) IncreaseNonce(accountID uint32) {
	acc, ok := s.accounts[accountID]
	if !ok {
		panic(fmt.Errorf("state: increase_nonce: unknown account %d", accountID))
	}
	one := types.OneFr()
	acc.Nonce.Add(&acc.Nonce, &one)
	s.accounts[accountID] = acc
	s.recalculateFromAccountState(accountID)
}

// CreateNewAccount allocates a fresh account_id, seeds its order cursor
// at nextOrderID, creates its empty balance and order trees, and stamps
// the default account leaf into the account tree. It
// panics when the account tree has no room left, since account_levels
// is a deployment-time sizing decision, not something live data can
// violate without being misconfigured.
func (s *GlobalState) CreateNewAccount(nextOrderID uint32) uint32 {
	accountID := s.NumAccounts()
	if accountID >= s.accountTree.MaxLeafNum() {
		s.logger.Error().Uint32("account_id", accountID).Msg("account tree exhausted")
		panic(fmt.Errorf("state: create_new_account: account tree exhausted at %d", accountID))
	}

	s.accounts[accountID] = EmptyAccountState(s.defaultBalanceRoot, s.defaultOrderRoot)
	s.balanceTrees[accountID] = smt.New(s.balanceLevels, types.ZeroFr(), s.hash)
	s.orderTrees[accountID] = smt.New(s.orderLevels, s.defaultOrderLeaf, s.hash)
	s.orderMap[accountID] = make(map[uint32]Order)
	s.nextOrderIdxs[accountID] = nextOrderID

	s.accountTree.SetValue(accountID, s.defaultAccountLeaf)

	s.logger.Debug().Uint32("account_id", accountID).Msg("account created")
	return accountID
}

// getNextOrderIdxForUser scans forward from the account's cursor for an
// empty or eagerly-recyclable (filled) slot. It panics if every slot in
// the order tree is active and unfilled, since order_levels is sized to
// the workload and a full scan means that sizing was wrong.
func (s *GlobalState) getNextOrderIdxForUser(accountID uint32) (pos uint32, isOverwrite bool) {
	cur := s.nextOrderIdxs[accountID]
	leafNum := s.orderTrees[accountID].MaxLeafNum()
	orders := s.orderMap[accountID]

	for offset := uint32(0); offset < leafNum; offset++ {
		idx := (cur + offset) % leafNum
		order, ok := orders[idx]
		if !ok {
			return idx, false
		}
		if order.IsFilled() {
			return idx, true
		}
	}

	panic(fmt.Errorf("state: order tree for account %d is full", accountID))
}

// setAccountOrder writes an order into both the order tree and the
// order_map/order_id_to_pos side tables, then restamps the owning
// account's leaf.
func (s *GlobalState) setAccountOrder(accountID, orderPos uint32, order Order) {
	s.orderTrees[accountID].SetValue(orderPos, order.Hash())
	s.orderMap[accountID][orderPos] = order
	s.orderIDToPos[orderKey{accountID, types.FrToU32(order.OrderID)}] = orderPos
	s.recalculateFromOrderTree(accountID)
}

// createNewOrder allocates a slot for tx, overwrites it with a fresh
// unfilled order, and returns the slot together with whatever order
// (possibly the zero order) previously lived there.
func (s *GlobalState) createNewOrder(tx PlaceOrderTx) (orderPos uint32, oldOrder Order) {
	pos, _ := s.getNextOrderIdxForUser(tx.AccountID)
	oldOrder = s.orderMap[tx.AccountID][pos]

	order := Order{
		OrderID:    types.U32ToFr(tx.OrderID),
		TokenBuy:   types.U32ToFr(tx.TokenIDBuy),
		TokenSell:  types.U32ToFr(tx.TokenIDSell),
		TotalSell:  tx.AmountSell,
		TotalBuy:   tx.AmountBuy,
		FilledSell: types.ZeroFr(),
		FilledBuy:  types.ZeroFr(),
	}
	s.setAccountOrder(tx.AccountID, pos, order)
	s.nextOrderIdxs[tx.AccountID] = (pos + 1) % s.maxOrderNumPerUser

	return pos, oldOrder
}

// GetTokenBalance returns the raw Fr balance stored at (accountID,
// tokenID); the zero Fr for a token never deposited to.
func (s *GlobalState) GetTokenBalance(accountID, tokenID uint32) types.Fr {
	tree, ok := s.balanceTrees[accountID]
	if !ok {
		panic(fmt.Errorf("state: get_token_balance: unknown account %d", accountID))
	}
	return tree.GetLeaf(tokenID)
}

// setTokenBalance writes a balance leaf and propagates the new balance
// root up into the account leaf.
func (s *GlobalState) setTokenBalance(accountID, tokenID uint32, balance types.Fr) {
	s.balanceTrees[accountID].SetValue(tokenID, balance)
	s.recalculateFromBalanceTree(accountID)
}

// GetAccountOrderByPos returns the order at a given slot, if any.
func (s *GlobalState) GetAccountOrderByPos(accountID, pos uint32) (Order, bool) {
	order, ok := s.orderMap[accountID][pos]
	return order, ok
}

// GetOrderPosByID resolves a previously placed user-facing order_id to
// its slot. It panics on a miss: callers (the trade executor, the
// adapter) only ever call this for orders they have already placed, so
// a miss means the caller's bookkeeping disagrees with the ledger.
func (s *GlobalState) GetOrderPosByID(accountID, orderID uint32) uint32 {
	pos, ok := s.orderIDToPos[orderKey{accountID, orderID}]
	if !ok {
		panic(fmt.Errorf("state: get_order_pos_by_id: account %d has no order %d", accountID, orderID))
	}
	return pos
}

// GetAccountOrderByID resolves a user-facing order_id to the order
// currently occupying its slot.
func (s *GlobalState) GetAccountOrderByID(accountID, orderID uint32) (Order, bool) {
	pos := s.GetOrderPosByID(accountID, orderID)
	return s.GetAccountOrderByPos(accountID, pos)
}

// HasAccount reports whether accountID has been created.
func (s *GlobalState) HasAccount(accountID uint32) bool {
	_, ok := s.accounts[accountID]
	return ok
}

// GetAccountState returns a copy of an account's cached leaf fields.
func (s *GlobalState) GetAccountState(accountID uint32) (AccountState, bool) {
	acc, ok := s.accounts[accountID]
	return acc, ok
}

// stateProofFor captures a balance-tree proof for (accountID, tokenID)
// together with the enclosing account-tree proof, both read against the
// forest's current state.
func (s *GlobalState) stateProofFor(accountID, tokenID uint32) stateProof {
	balanceProof := s.balanceTrees[accountID].GetProof(tokenID)
	accountProof := s.accountTree.GetProof(accountID)
	return stateProof{
		Leaf:        balanceProof.Leaf,
		Root:        accountProof.Root,
		BalanceRoot: balanceProof.Root,
		OrderRoot:   s.orderTrees[accountID].GetRoot(),
		BalancePath: balanceProof.PathElements,
		AccountPath: accountProof.PathElements,
	}
}

// trivialOrderPathElements returns the authentication path to leaf 0 of
// a throwaway all-zero-leaf order tree. It is not a real order's path:
// deposit and nop transactions touch no order slot, so the circuit
// never dereferences this path, and it must be built against Fr::zero
// rather than the real empty-order leaf to keep that distinction
// explicit.
func (s *GlobalState) trivialOrderPathElements() []types.Fr {
	return smt.New(s.orderLevels, types.ZeroFr(), s.hash).GetProof(0).PathElements
}
