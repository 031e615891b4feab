package cert

import (
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/lib/crypto"
)

// PartialCert is one replica's BLS signature over an ObjHash, the unit a QuorumCert aggregates from n-f of
type PartialCert struct {
	Signer lib.ReplicaID `json:"signer"`
	Kind   Kind          `json:"kind"`
	Obj    Hash          `json:"obj"`
	Sig    []byte        `json:"sig"`
}

// SignPartialCert() produces a PartialCert over ObjHash(kind, payload) using the replica's own BLS private key
func SignPartialCert(self lib.ReplicaID, kind Kind, payload []byte, priv crypto.PrivateKeyI) *PartialCert {
	obj := ObjHash(kind, payload)
	return &PartialCert{
		Signer: self,
		Kind:   kind,
		Obj:    obj,
		Sig:    priv.Sign(obj.Bytes()),
	}
}

// Verify() checks the partial certificate's signature against the signer's registered public key
func (p *PartialCert) Verify(vs *ValidatorSet) lib.ErrorI {
	pub, err := vs.PublicKey(p.Signer)
	if err != nil {
		return lib.ErrUnknownSigner(uint16(p.Signer))
	}
	if !pub.VerifyBytes(p.Obj.Bytes(), p.Sig) {
		return lib.ErrInvalidPartialCert()
	}
	return nil
}

// Clone() returns a deep copy of the partial certificate
func (p *PartialCert) Clone() *PartialCert {
	sig := make([]byte, len(p.Sig))
	copy(sig, p.Sig)
	return &PartialCert{Signer: p.Signer, Kind: p.Kind, Obj: p.Obj, Sig: sig}
}
