package state

import (
	"encoding/json"

	"github.com/kysee/spot-rollup-state/types"
)

// l2BlockWire mirrors L2Block field-for-field, with every types.Fr
// replaced by types.FrHex. It is the JSON shape a circuit witness
// runner consumes, the Go analogue of the Rust reference's
// L2BlockSerde.
type l2BlockWire struct {
	TxsType    []TxType               `json:"txs_type"`
	EncodedTxs [][TxLength]types.FrHex `json:"encoded_txs"`

	BalancePathElements [][4][]types.FrHex `json:"balance_path_elements"`
	OrderPathElements   [][2][]types.FrHex `json:"order_path_elements"`
	AccountPathElements [][2][]types.FrHex `json:"account_path_elements"`
	OrderRoots          [][2]types.FrHex   `json:"order_roots"`

	OldAccountRoots []types.FrHex `json:"old_account_roots"`
	NewAccountRoots []types.FrHex `json:"new_account_roots"`
}

// frHexSlice converts a slice of field elements to their hex wire form.
func frHexSlice(fs []types.Fr) []types.FrHex {
	out := make([]types.FrHex, len(fs))
	for i, f := range fs {
		out[i] = types.FrHex(f)
	}
	return out
}

// MarshalJSON renders an L2Block as the structured record a circuit
// witness runner consumes, with every Fr field hex-encoded via
// types.FrHex.
func (b L2Block) MarshalJSON() ([]byte, error) {
	w := l2BlockWire{
		TxsType:             b.TxsType,
		EncodedTxs:          make([][TxLength]types.FrHex, len(b.EncodedTxs)),
		BalancePathElements: make([][4][]types.FrHex, len(b.BalancePathElements)),
		OrderPathElements:   make([][2][]types.FrHex, len(b.OrderPathElements)),
		AccountPathElements: make([][2][]types.FrHex, len(b.AccountPathElements)),
		OrderRoots:          make([][2]types.FrHex, len(b.OrderRoots)),
		OldAccountRoots:     frHexSlice(b.OldAccountRoots),
		NewAccountRoots:     frHexSlice(b.NewAccountRoots),
	}

	for i, tx := range b.EncodedTxs {
		for j, f := range tx {
			w.EncodedTxs[i][j] = types.FrHex(f)
		}
	}
	for i, paths := range b.BalancePathElements {
		for j, p := range paths {
			w.BalancePathElements[i][j] = frHexSlice(p)
		}
	}
	for i, paths := range b.OrderPathElements {
		for j, p := range paths {
			w.OrderPathElements[i][j] = frHexSlice(p)
		}
	}
	for i, paths := range b.AccountPathElements {
		for j, p := range paths {
			w.AccountPathElements[i][j] = frHexSlice(p)
		}
	}
	for i, roots := range b.OrderRoots {
		for j, r := range roots {
			w.OrderRoots[i][j] = types.FrHex(r)
		}
	}

	return json.Marshal(w)
}
