package crypto

import (
	"github.com/stretchr/testify/require"
	"testing"
)

func TestNewPublicKeyFromString(t *testing.T) {
	// pre-generate a ED25519
	ed25519Pk, err := NewEd25519PrivateKey()
	require.NoError(t, err)
	// pre-generate a BLS12381
	blsPrivateKey, err := NewBLSPrivateKey()
	require.NoError(t, err)
	tests := []struct {
		name     string
		string   string
		expected PublicKeyI
		error    string
	}{
		{
			name:   "not a recognized key",
			string: "abcd",
			error:  "unrecognized public key format",
		},
		{
			name:     "ed25519 public key",
			string:   ed25519Pk.PublicKey().String(),
			expected: ed25519Pk.PublicKey(),
		},
		{
			name:     "bls12381 public key",
			string:   blsPrivateKey.PublicKey().String(),
			expected: blsPrivateKey.PublicKey(),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, e := NewPublicKeyFromString(test.string)
			require.Equal(t, test.error != "", e != nil)
			if e != nil {
				require.ErrorContains(t, e, test.error)
				return
			}
			require.EqualExportedValues(t, test.expected, got)
		})
	}
}

func TestNewPublicKeyFromBytes(t *testing.T) {
	ed25519Pk, err := NewEd25519PrivateKey()
	require.NoError(t, err)
	blsPrivateKey, err := NewBLSPrivateKey()
	require.NoError(t, err)
	tests := []struct {
		name     string
		bytes    []byte
		expected PublicKeyI
		error    string
	}{
		{
			name:  "not a recognized key",
			bytes: []byte("abcd"),
			error: "unrecognized public key format",
		},
		{
			name:     "ed25519 public key",
			bytes:    ed25519Pk.PublicKey().Bytes(),
			expected: ed25519Pk.PublicKey(),
		},
		{
			name:     "bls12381 public key",
			bytes:    blsPrivateKey.PublicKey().Bytes(),
			expected: blsPrivateKey.PublicKey(),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, e := NewPublicKeyFromBytes(test.bytes)
			require.Equal(t, test.error != "", e != nil)
			if e != nil {
				require.ErrorContains(t, e, test.error)
				return
			}
			require.EqualExportedValues(t, test.expected, got)
		})
	}
}

func TestNewPrivateKeyFromString(t *testing.T) {
	ed25519Pk, err := NewEd25519PrivateKey()
	require.NoError(t, err)
	blsPrivateKey, err := NewBLSPrivateKey()
	require.NoError(t, err)
	tests := []struct {
		name     string
		string   string
		expected PrivateKeyI
		error    string
	}{
		{
			name:   "not a recognized key",
			string: "abcd",
			error:  "unrecognized private key format",
		},
		{
			name:     "ed25519 private key",
			string:   ed25519Pk.String(),
			expected: ed25519Pk,
		},
		{
			name:     "bls12381 private key",
			string:   blsPrivateKey.String(),
			expected: blsPrivateKey,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, e := NewPrivateKeyFromString(test.string)
			require.Equal(t, test.error != "", e != nil)
			if e != nil {
				require.ErrorContains(t, e, test.error)
				return
			}
			require.EqualExportedValues(t, test.expected, got)
		})
	}
}

func TestNewPrivateKeyFromBytes(t *testing.T) {
	ed25519Pk, err := NewEd25519PrivateKey()
	require.NoError(t, err)
	blsPrivateKey, err := NewBLSPrivateKey()
	require.NoError(t, err)
	tests := []struct {
		name     string
		bytes    []byte
		expected PrivateKeyI
		error    string
	}{
		{
			name:  "not a recognized key",
			bytes: []byte("abcd"),
			error: "unrecognized private key format",
		},
		{
			name:     "ed25519 private key",
			bytes:    ed25519Pk.Bytes(),
			expected: ed25519Pk,
		},
		{
			name:     "bls12381 private key",
			bytes:    blsPrivateKey.Bytes(),
			expected: blsPrivateKey,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, e := NewPrivateKeyFromBytes(test.bytes)
			require.Equal(t, test.error != "", e != nil)
			if e != nil {
				require.ErrorContains(t, e, test.error)
				return
			}
			require.EqualExportedValues(t, test.expected, got)
		})
	}
}
