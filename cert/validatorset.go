package cert

import (
	"sort"

	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/lib/crypto"
)

// ValidatorSet is the fixed-order list of replica BLS public keys a QuorumCert's bitmap indexes into
type ValidatorSet struct {
	ids  []lib.ReplicaID
	keys []crypto.PublicKeyI
	idx  map[lib.ReplicaID]int
	n    int
	f    int
}

// NewValidatorSet() parses every validator's hex-encoded BLS public key out of a ReplicaConfig
func NewValidatorSet(cfg *lib.ReplicaConfig) (*ValidatorSet, error) {
	ids := cfg.OrderedReplicas()
	vs := &ValidatorSet{
		ids:  ids,
		keys: make([]crypto.PublicKeyI, len(ids)),
		idx:  make(map[lib.ReplicaID]int, len(ids)),
		n:    int(cfg.NReplicas),
		f:    int(cfg.NFaulty),
	}
	for i, id := range ids {
		hexKey, ok := cfg.Validators[id]
		if !ok {
			return nil, lib.ErrMissingValidator(uint16(id))
		}
		pub, err := crypto.NewPublicKeyFromString(hexKey)
		if err != nil {
			return nil, err
		}
		vs.keys[i] = pub
		vs.idx[id] = i
	}
	return vs, nil
}

// NMajority() is the n-f quorum threshold
func (v *ValidatorSet) NMajority() int { return v.n - v.f }

// Len() is the number of validators in the set
func (v *ValidatorSet) Len() int { return len(v.ids) }

// IndexOf() returns the validator's fixed bitmap position
func (v *ValidatorSet) IndexOf(id lib.ReplicaID) (int, bool) {
	i, ok := v.idx[id]
	return i, ok
}

// PublicKey() returns a single validator's BLS public key
func (v *ValidatorSet) PublicKey(id lib.ReplicaID) (crypto.PublicKeyI, error) {
	i, ok := v.idx[id]
	if !ok {
		return nil, lib.ErrUnknownSigner(uint16(id))
	}
	return v.keys[i], nil
}

// newMultiKey() builds a fresh, all-zero-bitmap aggregate public key over the full validator set
func (v *ValidatorSet) newMultiKey() (crypto.MultiPublicKeyI, error) {
	return crypto.NewMultiBLS(publicKeyBytes(v.keys), nil)
}

func publicKeyBytes(keys []crypto.PublicKeyI) [][]byte {
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = k.Bytes()
	}
	return out
}

// assertSorted is a sanity guard confirming OrderedReplicas() stays ascending; nothing in this module calls it
func assertSorted(ids []lib.ReplicaID) bool {
	return sort.SliceIsSorted(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
