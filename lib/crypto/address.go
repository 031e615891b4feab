package crypto

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
)

type Address []byte

var _ AddressI = &Address{}

const (
	AddressSize = 20
)

func (a *Address) MarshalJSON() ([]byte, error) { return json.Marshal(a.String()) }
func (a *Address) Bytes() []byte                { return (*a)[:] }
func (a *Address) String() string               { return hex.EncodeToString(a.Bytes()) }
func (a *Address) Equals(e AddressI) bool       { return bytes.Equal(a.Bytes(), e.Bytes()) }

// UnmarshalJSON() implements the json.Unmarshaler interface
func (a *Address) UnmarshalJSON(b []byte) error {
	var hexString string
	if err := json.Unmarshal(b, &hexString); err != nil {
		return err
	}
	bz, err := hex.DecodeString(hexString)
	if err != nil {
		return err
	}
	*a = bz
	return nil
}

// Marshal() returns the raw byte representation of the address
func (a *Address) Marshal() ([]byte, error) {
	return a.Bytes(), nil
}
