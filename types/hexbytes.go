package types

import (
	"encoding/hex"
	"fmt"
)

// HexBytes is a byte slice that marshals to JSON as a "0x"-prefixed hex
// string, the wire form used for every Fr-bearing field that leaves the
// process as circuit witness input.
type HexBytes []byte

func (b HexBytes) String() string {
	return hex.EncodeToString(b)
}

func (hb HexBytes) MarshalJSON() ([]byte, error) {
	s := "0x" + hex.EncodeToString(hb)
	jbz := make([]byte, len(s)+2)
	jbz[0] = '"'
	copy(jbz[1:], s)
	jbz[len(jbz)-1] = '"'
	return jbz, nil
}

func (hb *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid hex string: %s", data)
	}
	val := string(data[1 : len(data)-1])
	if len(val) >= 2 && val[0:2] == "0x" {
		val = val[2:]
	}
	bz, err := hex.DecodeString(val)
	if err != nil {
		return err
	}
	*hb = bz
	return nil
}

// FrHex is the JSON wire encoding of an Fr: its 32-byte canonical
// big-endian representation, hex-encoded via HexBytes.
type FrHex Fr

func (f FrHex) MarshalJSON() ([]byte, error) {
	fr := Fr(f)
	b := fr.Bytes()
	return HexBytes(b[:]).MarshalJSON()
}

func (f *FrHex) UnmarshalJSON(data []byte) error {
	var hb HexBytes
	if err := hb.UnmarshalJSON(data); err != nil {
		return err
	}
	var fr Fr
	fr.SetBytes(hb)
	*f = FrHex(fr)
	return nil
}
