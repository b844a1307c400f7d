package types

import "fmt"

// Token describes one entry of the closed asset registry: its dense
// token_id (the balance-tree leaf index) and the fixed-point precision
// used to convert its decimal amounts into Fr.
type Token struct {
	ID        uint32
	Precision uint32
}

// TokenRegistry is a closed mapping from asset symbol to Token. The core
// never needs this directly — it is the adapter's job to resolve symbols
// before calling into the state engine with a u32 token_id — but it lives
// here so the adapter and tests share one definition of "the assets this
// exchange lists".
type TokenRegistry map[string]Token

// DefaultTokenRegistry mirrors spec.md's worked example: ETH and USDT, both
// priced to 6 fractional digits.
func DefaultTokenRegistry() TokenRegistry {
	return TokenRegistry{
		"ETH":  {ID: 0, Precision: 6},
		"USDT": {ID: 1, Precision: 6},
	}
}

// Resolve looks up a symbol, returning an error instead of panicking since
// an unknown asset in an input message is malformed input, not a
// programmer error.
func (r TokenRegistry) Resolve(symbol string) (Token, error) {
	tok, ok := r[symbol]
	if !ok {
		return Token{}, fmt.Errorf("unknown asset %q", symbol)
	}
	return tok, nil
}
