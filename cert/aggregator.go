package cert

import (
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/lib/crypto"
)

// Aggregator accumulates partial certificates over a single (Kind, ObjHash) until n-f distinct signers have
// contributed, at which point Compute() produces the QuorumCert. One Aggregator instance backs one
// echo/ack/vote/blame round; echo and ack aggregators stay in the engine's maps after their round closes.
type Aggregator struct {
	kind    Kind
	obj     Hash
	vs      *ValidatorSet
	multi   crypto.MultiPublicKeyI
	signers map[lib.ReplicaID]bool
	done    bool
}

// NewAggregator() opens a fresh quorum round over (kind, objHash)
func NewAggregator(kind Kind, objHash Hash, vs *ValidatorSet) (*Aggregator, lib.ErrorI) {
	multi, err := vs.newMultiKey()
	if err != nil {
		return nil, lib.ErrAggregateFailure(err.Error())
	}
	return &Aggregator{
		kind:    kind,
		obj:     objHash,
		vs:      vs,
		multi:   multi,
		signers: make(map[lib.ReplicaID]bool),
	}, nil
}

// AddPart() verifies and folds in one replica's partial certificate, rejecting wrong-kind/wrong-object
// certificates and duplicate signers. Returns true once this call closed the quorum.
func (a *Aggregator) AddPart(part *PartialCert) (quorumClosed bool, err lib.ErrorI) {
	if a.done {
		return false, lib.ErrQuorumAlreadyMet()
	}
	if part.Kind != a.kind || part.Obj != a.obj {
		return false, lib.ErrObjHashMismatch()
	}
	if a.signers[part.Signer] {
		return false, lib.ErrDuplicateVoter(uint16(part.Signer))
	}
	if verr := part.Verify(a.vs); verr != nil {
		return false, verr
	}
	idx, ok := a.vs.IndexOf(part.Signer)
	if !ok {
		return false, lib.ErrUnknownSigner(uint16(part.Signer))
	}
	if addErr := a.multi.AddSigner(part.Sig, idx); addErr != nil {
		return false, lib.ErrAggregateFailure(addErr.Error())
	}
	a.signers[part.Signer] = true
	if len(a.signers) >= a.vs.NMajority() {
		a.done = true
		return true, nil
	}
	return false, nil
}

// Count() is the number of distinct valid signers folded in so far
func (a *Aggregator) Count() int { return len(a.signers) }

// Signers() returns the set of replicas that have contributed a part so far, used by callers that
// need to address a reply to exactly the set of current contributors (e.g. multicasting an Ack back
// to every echo-sender).
func (a *Aggregator) Signers() []lib.ReplicaID {
	out := make([]lib.ReplicaID, 0, len(a.signers))
	for id := range a.signers {
		out = append(out, id)
	}
	return out
}

// HasSigner() reports whether a given replica has already contributed a part to this round
func (a *Aggregator) HasSigner(id lib.ReplicaID) bool { return a.signers[id] }

// Compute() finalizes the round into a QuorumCert. Must only be called once AddPart() reports quorumClosed.
func (a *Aggregator) Compute() (*QuorumCert, lib.ErrorI) {
	if len(a.signers) < a.vs.NMajority() {
		return nil, lib.ErrNotEnoughSigners(len(a.signers), a.vs.NMajority())
	}
	aggSig, err := a.multi.AggregateSignatures()
	if err != nil {
		return nil, lib.ErrAggregateFailure(err.Error())
	}
	bm := make([]byte, len(a.multi.Bitmap()))
	copy(bm, a.multi.Bitmap())
	return &QuorumCert{Kind: a.kind, Obj: a.obj, Bitmap: bm, AggSig: aggSig}, nil
}
