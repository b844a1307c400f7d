package state

import "github.com/kysee/spot-rollup-state/types"

// AccountState is the leaf payload of the account tree. BalanceRoot and
// OrderRoot are caches of the two subtrees owned by this account; they
// are never the source of truth, only mirrors restamped by the
// recalculateFrom* helpers on GlobalState.
type AccountState struct {
	Nonce       types.Fr
	Sign        types.Fr
	Ay          types.Fr
	EthAddr     types.Fr
	BalanceRoot types.Fr
	OrderRoot   types.Fr
}

// EmptyAccountState builds the AccountState a freshly created account
// starts with: zeroed identity fields, subtree roots pointing at empty
// balance/order trees.
func EmptyAccountState(defaultBalanceRoot, defaultOrderRoot types.Fr) AccountState {
	return AccountState{
		Nonce:       types.ZeroFr(),
		Sign:        types.ZeroFr(),
		Ay:          types.ZeroFr(),
		EthAddr:     types.ZeroFr(),
		BalanceRoot: defaultBalanceRoot,
		OrderRoot:   defaultOrderRoot,
	}
}

// Hash returns the Poseidon2 digest of the account's 6 fields in their
// declared order; this is the value stored at the account's leaf.
func (a AccountState) Hash() types.Fr {
	return types.H(a.Nonce, a.Sign, a.Ay, a.EthAddr, a.BalanceRoot, a.OrderRoot)
}
