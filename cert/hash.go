package cert

import (
	"encoding/hex"

	"github.com/lucent-chain/hotstuff/lib/crypto"
)

// Hash is a 256-bit content hash, used both to identify blocks and as the payload of an object hash
type Hash [32]byte

// ZeroHash is the nil/unset hash value
var ZeroHash = Hash{}

// HashBytes() runs the module's hash function over b and returns a fixed-size Hash
func HashBytes(b []byte) Hash {
	h := crypto.Hash(b)
	var out Hash
	copy(out[:], h)
	return out
}

func (h Hash) Bytes() []byte   { return h[:] }
func (h Hash) String() string  { return hex.EncodeToString(h[:]) }
func (h Hash) IsZero() bool    { return h == ZeroHash }
func (h Hash) Equals(o Hash) bool { return h == o }

// HashFromBytes() copies a 32-byte slice into a Hash, reporting false if the length is wrong
func HashFromBytes(b []byte) (Hash, bool) {
	var out Hash
	if len(b) != len(out) {
		return out, false
	}
	copy(out[:], b)
	return out, true
}

// Kind distinguishes the four object-hash domains partial certificates sign over
type Kind byte

const (
	KindVote      Kind = 0x00
	KindBlame     Kind = 0x01
	KindPropagate Kind = 0x02
	KindPreCommit Kind = 0x03
)

// ObjHash computes H(kind ∥ payload), the value every partial/quorum certificate in this module signs over
func ObjHash(kind Kind, payload []byte) Hash {
	buf := make([]byte, 0, 1+len(payload))
	buf = append(buf, byte(kind))
	buf = append(buf, payload...)
	return HashBytes(buf)
}

// ViewPayload encodes a view number as the big-endian payload BLAME certificates sign over
func ViewPayload(view uint64) []byte {
	var viewBz [8]byte
	for i := 0; i < 8; i++ {
		viewBz[7-i] = byte(view >> (8 * i))
	}
	return viewBz[:]
}

// ObjHashForView builds the BLAME object hash, H(BLAME ∥ view)
func ObjHashForView(view uint64) Hash {
	return ObjHash(KindBlame, ViewPayload(view))
}
