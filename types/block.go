package types

import (
	"github.com/lucent-chain/hotstuff/cert"
)

// Decision is the lifecycle state of a block, or of a single committed command inside a Finality message
type Decision int8

const (
	DecisionPending   Decision = 0
	DecisionCommitted Decision = 1
)

// Block is the unit of the DAG the protocol orders. Wire fields are parsed directly off the network;
// the remaining fields are runtime-only bookkeeping filled in as the block moves through delivery,
// propagation, voting and commit.
type Block struct {
	// wire fields
	ParentHashes []cert.Hash `json:"parentHashes"` // first entry is parent₀, the chain the commit rule walks
	Cmds         []cert.Hash `json:"cmds"`          // ordered command hashes
	QC           *cert.QuorumCert `json:"qc,omitempty"`
	QCRefHash    cert.Hash   `json:"qcRefHash,omitempty"`
	Extra        []byte      `json:"extra,omitempty"`

	// runtime-only
	Hash         cert.Hash        `json:"hash"`
	Height       uint64           `json:"height"`
	Delivered    bool             `json:"delivered"`
	Decision     Decision         `json:"decision"`
	Parents      []*Block         `json:"-"` // resolved once delivered
	QCRef        *Block           `json:"-"` // resolved once delivered, nil if QC is nil
	SelfQC       *cert.Aggregator `json:"-"` // in-progress vote-QC aggregator, owned until handed to hqc
	Voted        map[uint16]bool  `json:"-"`
	PreCommitted map[uint16]bool  `json:"-"`
}

// HasQC() reports whether this block embeds a quorum certificate
func (b *Block) HasQC() bool { return b.QC != nil }

// Parent0() returns the block's primary parent handle, or nil if unresolved/absent
func (b *Block) Parent0() *Block {
	if len(b.Parents) == 0 {
		return nil
	}
	return b.Parents[0]
}

// ParentHash0() returns the wire hash of the primary parent
func (b *Block) ParentHash0() cert.Hash {
	if len(b.ParentHashes) == 0 {
		return cert.ZeroHash
	}
	return b.ParentHashes[0]
}

// NewGenesis() builds the trivially-valid, self-referential genesis block: height 0, its own qc_ref,
// already delivered, with no real signatures backing its "self-QC" since there is nothing to vote on.
func NewGenesis() *Block {
	b := &Block{
		ParentHashes: nil,
		Cmds:         nil,
		Extra:        nil,
		Height:       0,
		Delivered:    true,
		Decision:     DecisionCommitted,
		Voted:        make(map[uint16]bool),
		PreCommitted: make(map[uint16]bool),
	}
	b.Hash = computeBlockHash(b)
	b.QCRefHash = b.Hash
	b.QC = &cert.QuorumCert{Kind: cert.KindVote, Obj: cert.ObjHash(cert.KindVote, b.Hash.Bytes())}
	return b
}

// computeBlockHash() hashes a block's wire-format encoding, used as its content address
func computeBlockHash(b *Block) cert.Hash {
	return cert.HashBytes(MarshalBlockBody(b))
}
