package types

import "github.com/shopspring/decimal"

// Decimal is the exact decimal type used for every monetary field in the
// external message formats, before it is narrowed to a fixed-point Fr.
type Decimal = decimal.Decimal
