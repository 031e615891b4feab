package cert

import (
	"github.com/lucent-chain/hotstuff/lib"
)

// QuorumCert is the aggregate of n-f partial certificates over the same (Kind, ObjHash), the module's
// "polymorphic certificate" — a vote QC, a blame QC, an echo/ack QC and a pre-commit QC all share this shape
type QuorumCert struct {
	Kind   Kind   `json:"kind"`
	Obj    Hash   `json:"obj"`
	Bitmap []byte `json:"bitmap"`
	AggSig []byte `json:"aggSig"`
}

// Verify() checks that the aggregate signature validates against the bitmap's subset of the validator set,
// and that the bitmap actually names at least NMajority() distinct signers
func (q *QuorumCert) Verify(vs *ValidatorSet) lib.ErrorI {
	if q == nil || len(q.AggSig) == 0 {
		return lib.ErrEmptyQuorumCertificate()
	}
	multi, err := vs.newMultiKey()
	if err != nil {
		return lib.ErrAggregateFailure(err.Error())
	}
	if err = multi.SetBitmap(q.Bitmap); err != nil {
		return lib.ErrAggregateFailure(err.Error())
	}
	if n := popcount(q.Bitmap); n < vs.NMajority() {
		return lib.ErrNotEnoughSigners(n, vs.NMajority())
	}
	if !multi.VerifyBytes(q.Obj.Bytes(), q.AggSig) {
		return lib.ErrInvalidPartialCert()
	}
	return nil
}

// Clone() returns a deep copy of the quorum certificate
func (q *QuorumCert) Clone() *QuorumCert {
	if q == nil {
		return nil
	}
	bm := make([]byte, len(q.Bitmap))
	copy(bm, q.Bitmap)
	sig := make([]byte, len(q.AggSig))
	copy(sig, q.AggSig)
	return &QuorumCert{Kind: q.Kind, Obj: q.Obj, Bitmap: bm, AggSig: sig}
}

func popcount(bm []byte) int {
	n := 0
	for _, b := range bm {
		for b != 0 {
			n += int(b & 1)
			b >>= 1
		}
	}
	return n
}
