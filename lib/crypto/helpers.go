package crypto

import (
	"encoding/hex"
	"github.com/drand/kyber"
	"github.com/drand/kyber/sign"
	"github.com/drand/kyber/util/random"
)

// KeyGroup bundles a private key together with its derived public key and address
type KeyGroup struct {
	Address    AddressI
	PublicKey  PublicKeyI
	PrivateKey PrivateKeyI
}

// NewKeyGroup() derives the public key and address from a private key and bundles them together
func NewKeyGroup(pk PrivateKeyI) *KeyGroup {
	pub := pk.PublicKey()
	return &KeyGroup{
		Address:    pub.Address(),
		PublicKey:  pub,
		PrivateKey: pk,
	}
}

// NewAddress() wraps raw bytes as an AddressI
func NewAddress(bz []byte) AddressI {
	a := Address(bz)
	return &a
}

// NewAddressFromBytes() wraps raw bytes as an AddressI, returning nil for a nil input
func NewAddressFromBytes(bz []byte) AddressI {
	if bz == nil {
		return nil
	}
	a := Address(bz)
	return &a
}

// NewAddressFromString() parses a hex string into an AddressI
func NewAddressFromString(hexString string) (AddressI, error) {
	bz, err := hex.DecodeString(hexString)
	if err != nil {
		return nil, err
	}
	return NewAddressFromBytes(bz), nil
}

// NewBLSPrivateKey() generates a fresh random BLS12-381 private key
func NewBLSPrivateKey() (PrivateKeyI, error) {
	privateKey, _ := newBLSScheme().NewKeyPair(random.New())
	return NewBLS12381PrivateKey(privateKey), nil
}

// NewBLSPrivateKeyFromString() parses a hex-encoded BLS12-381 private key
func NewBLSPrivateKeyFromString(hexString string) (PrivateKeyI, error) {
	bz, err := hex.DecodeString(hexString)
	if err != nil {
		return nil, err
	}
	return NewBLSPrivateKeyFromBytes(bz)
}

// NewBLSPrivateKeyFromBytes() deserializes a BLS12-381 private key scalar
func NewBLSPrivateKeyFromBytes(bz []byte) (PrivateKeyI, error) {
	scalar := newBLSSuite().G2().Scalar()
	if err := scalar.UnmarshalBinary(bz); err != nil {
		return nil, err
	}
	return &BLS12381PrivateKey{Scalar: scalar, scheme: newBLSScheme()}, nil
}

// NewBLSPublicKey() derives a fresh random BLS12-381 public key, mostly useful in tests
func NewBLSPublicKey() (PublicKeyI, error) {
	pk, err := NewBLSPrivateKey()
	if err != nil {
		return nil, err
	}
	return pk.PublicKey(), nil
}

// NewBLSPublicKeyFromString() parses a hex-encoded BLS12-381 public key
func NewBLSPublicKeyFromString(hexString string) (PublicKeyI, error) {
	bz, err := hex.DecodeString(hexString)
	if err != nil {
		return nil, err
	}
	return NewBLSPublicKeyFromBytes(bz)
}

// NewBLSPublicKeyFromBytes() deserializes a BLS12-381 public key point
func NewBLSPublicKeyFromBytes(bz []byte) (PublicKeyI, error) {
	point, err := NewBLSPointFromBytes(bz)
	if err != nil {
		return nil, err
	}
	return &BLS12381PublicKey{Point: point, scheme: newBLSScheme()}, nil
}

// NewBLSPointFromBytes() deserializes a kyber G1 point from its compressed form
func NewBLSPointFromBytes(bz []byte) (kyber.Point, error) {
	point := newBLSSuite().G1().Point()
	if err := point.UnmarshalBinary(bz); err != nil {
		return nil, err
	}
	return point, nil
}

// NewMultiBLSFromPoints() builds an aggregatable multi-public-key from an ordered list of points and an optional bitmap
func NewMultiBLSFromPoints(publicKeys []kyber.Point, bitmap []byte) (MultiPublicKeyI, error) {
	mask, err := sign.NewMask(newBLSSuite(), publicKeys, nil)
	if err != nil {
		return nil, err
	}
	if bitmap != nil {
		if err = mask.SetMask(bitmap); err != nil {
			return nil, err
		}
	}
	return NewBLSMultiPublicKey(mask), nil
}

// NewMultiBLS() builds an aggregatable multi-public-key from raw point bytes
func NewMultiBLS(publicKeys [][]byte, bitmap []byte) (MultiPublicKeyI, error) {
	points := make([]kyber.Point, 0, len(publicKeys))
	for _, bz := range publicKeys {
		point, err := NewBLSPointFromBytes(bz)
		if err != nil {
			return nil, err
		}
		points = append(points, point)
	}
	return NewMultiBLSFromPoints(points, bitmap)
}
