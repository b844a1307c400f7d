package adapter

import "errors"

// ErrLedgerDisagreement marks a mismatch between the matching engine's
// reported state and the rollup ledger's own state: a negative implied
// balance, a pre/post balance or order cross-check that fails, or a
// non-representable decimal. Every internal check function returns it
// wrapped with context; every exported Process* entry point treats it
// (and any other error) as fatal and panics, since a disagreement means
// the input stream is no longer in sync with ledger reality.
var ErrLedgerDisagreement = errors.New("adapter: ledger disagreement")
