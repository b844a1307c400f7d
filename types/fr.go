// Package types holds the field-element, fixed-point and token primitives
// shared by the state engine, the message adapter and the illustrative
// circuit. Fr is bound concretely to the BN254 scalar field so that values
// produced here are usable as gnark circuit witnesses without conversion.
package types

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Fr is a BN254 scalar field element. Every hash, balance, amount and
// identifier that ends up inside a Merkle tree or a RawTx payload is an Fr.
type Fr = fr.Element

// ZeroFr returns the additive identity.
func ZeroFr() Fr {
	var z Fr
	return z
}

// OneFr returns the multiplicative identity, used by nonce increments.
func OneFr() Fr {
	var o Fr
	o.SetOne()
	return o
}

// U32ToFr injects a u32 identifier or count into the field.
func U32ToFr(v uint32) Fr {
	var f Fr
	f.SetUint64(uint64(v))
	return f
}

// FrToU32 extracts a previously-injected u32 value. It panics if the
// element does not fit in 32 bits, since this is only ever called on
// values this package itself produced via U32ToFr.
func FrToU32(f Fr) uint32 {
	var b big.Int
	f.BigInt(&b)
	if !b.IsUint64() || b.Uint64() > uint64(^uint32(0)) {
		panic(fmt.Errorf("field element %s does not fit in u32", f.String()))
	}
	return uint32(b.Uint64())
}

// NumberToInteger converts a decimal value to its fixed-point integer
// representation at the given precision: value * 10^prec, rejecting
// negative values and values that are not exactly representable at that
// precision (no silent truncation).
func NumberToInteger(value Decimal, prec uint32) (Fr, error) {
	if value.Sign() < 0 {
		return Fr{}, fmt.Errorf("number_to_integer: negative value %s", value.String())
	}

	coeff := value.Coefficient()
	shift := int64(value.Exponent()) + int64(prec)

	v := new(big.Int).Set(coeff)
	if shift >= 0 {
		v.Mul(v, new(big.Int).Exp(big.NewInt(10), big.NewInt(shift), nil))
	} else {
		divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(-shift), nil)
		rem := new(big.Int)
		v.QuoRem(v, divisor, rem)
		if rem.Sign() != 0 {
			return Fr{}, fmt.Errorf("number_to_integer: %s is not representable at precision %d", value.String(), prec)
		}
	}

	var f Fr
	f.SetBigInt(v)
	return f, nil
}
