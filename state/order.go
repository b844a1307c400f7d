package state

import "github.com/kysee/spot-rollup-state/types"

// Order is one resting limit order living in an account's order tree.
// Hash is computed over this 7-tuple in fixed order; changing the field
// order changes every order leaf hash and therefore every downstream
// root, so it must never be reordered casually.
type Order struct {
	OrderID    types.Fr
	TokenBuy   types.Fr
	TokenSell  types.Fr
	TotalSell  types.Fr
	TotalBuy   types.Fr
	FilledSell types.Fr
	FilledBuy  types.Fr
}

// Hash returns the Poseidon2 digest of the order's 7 fields in their
// declared order. The zero Order (an empty slot) hashes to a fixed
// constant used as the order tree's default leaf.
func (o Order) Hash() types.Fr {
	return types.H(o.OrderID, o.TokenBuy, o.TokenSell, o.TotalSell, o.TotalBuy, o.FilledSell, o.FilledBuy)
}

// Equal reports whether two orders hold the same 7 fields.
func (o Order) Equal(other Order) bool {
	return o.OrderID.Equal(&other.OrderID) &&
		o.TokenBuy.Equal(&other.TokenBuy) &&
		o.TokenSell.Equal(&other.TokenSell) &&
		o.TotalSell.Equal(&other.TotalSell) &&
		o.TotalBuy.Equal(&other.TotalBuy) &&
		o.FilledSell.Equal(&other.FilledSell) &&
		o.FilledBuy.Equal(&other.FilledBuy)
}

// IsFilled reports whether the order has sold everything it offered,
// meaning its slot is eligible for eager recycling by the allocator.
func (o Order) IsFilled() bool {
	return o.FilledSell.Cmp(&o.TotalSell) >= 0
}
