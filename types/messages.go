package types

import (
	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
)

// PropagateOpcode distinguishes the payload carried by an Echo/Ack message; BLOCK is the only kind
// this protocol version ships, but the field is kept distinct from the part_cert Kind so a future
// propagation payload can be added without perturbing the certificate's signing domain.
type PropagateOpcode byte

const PropagateBlock PropagateOpcode = 0x00

// Proposal: proposer(u16) ∥ Block
type Proposal struct {
	Proposer lib.ReplicaID
	Block    *Block
}

// Vote: voter(u16) ∥ blk_hash(32B) ∥ part_cert (kind=VOTE, obj=blk_hash)
type Vote struct {
	Voter   lib.ReplicaID
	BlkHash cert.Hash
	Cert    *cert.PartialCert
}

// Notify: blk_hash(32B) ∥ quorum_cert (kind=VOTE, obj=blk_hash)
type Notify struct {
	BlkHash cert.Hash
	QC      *cert.QuorumCert
}

// Blame: blamer(u16) ∥ view(u32) ∥ part_cert (kind=BLAME, obj=H(BLAME||view))
type Blame struct {
	Blamer lib.ReplicaID
	View   uint64 // wire-truncated to u32
	Cert   *cert.PartialCert
}

// BlameNotify: view(u32) ∥ hqc_hash(32B) ∥ hqc_qc(kind=VOTE,obj=hqc_hash) ∥ qc(kind=BLAME,obj=H(BLAME||view))
type BlameNotify struct {
	View   uint64
	HQCHash cert.Hash
	HQCQC  *cert.QuorumCert
	QC     *cert.QuorumCert
}

// Echo / Ack: rid(u16) ∥ blk_hash(32B) ∥ opcode(u8) ∥ part_cert (kind=PROPAGATE, obj=blk_hash)
type Echo struct {
	Rid     lib.ReplicaID
	BlkHash cert.Hash
	Opcode  PropagateOpcode
	Cert    *cert.PartialCert
}

type Ack struct {
	Rid     lib.ReplicaID
	BlkHash cert.Hash
	Opcode  PropagateOpcode
	Cert    *cert.PartialCert
}

// PreCommit: rid(u16) ∥ blk_hash(32B) ∥ part_cert (kind=PRE_COMMIT, obj=blk_hash)
type PreCommit struct {
	Rid     lib.ReplicaID
	BlkHash cert.Hash
	Cert    *cert.PartialCert
}

// Finality: rid(u16) ∥ decision(i8) ∥ cmd_idx(u32) ∥ cmd_height(u32) ∥ cmd_hash(32B) [∥ blk_hash(32B) if decision==1]
type Finality struct {
	Rid       lib.ReplicaID
	Decision  Decision
	CmdIdx    uint32
	CmdHeight uint32
	CmdHash   cert.Hash
	BlkHash   cert.Hash // only meaningful/present on the wire when Decision == DecisionCommitted
}

func propagateObjHash(blkHash cert.Hash) cert.Hash { return cert.ObjHash(cert.KindPropagate, blkHash.Bytes()) }
func voteObjHash(blkHash cert.Hash) cert.Hash      { return cert.ObjHash(cert.KindVote, blkHash.Bytes()) }
func preCommitObjHash(blkHash cert.Hash) cert.Hash { return cert.ObjHash(cert.KindPreCommit, blkHash.Bytes()) }

// MarshalProposal()/UnmarshalProposal()
func MarshalProposal(p *Proposal) []byte {
	w := &buffer{}
	w.writeU16(uint16(p.Proposer))
	w.writeBytes(MarshalBlockBody(p.Block))
	return w.bytes()
}

func UnmarshalProposal(bz []byte) (*Proposal, lib.ErrorI) {
	r := newReader(bz)
	proposer, err := r.readU16()
	if err != nil {
		return nil, err
	}
	blk, err := UnmarshalBlockBody(r)
	if err != nil {
		return nil, err
	}
	if err = r.expectEOF(); err != nil {
		return nil, err
	}
	return &Proposal{Proposer: lib.ReplicaID(proposer), Block: blk}, nil
}

// MarshalVote()/UnmarshalVote()
func MarshalVote(v *Vote) []byte {
	w := &buffer{}
	w.writeU16(uint16(v.Voter))
	w.writeHash(v.BlkHash)
	writePartialCert(w, v.Cert)
	return w.bytes()
}

func UnmarshalVote(bz []byte) (*Vote, lib.ErrorI) {
	r := newReader(bz)
	voter, err := r.readU16()
	if err != nil {
		return nil, err
	}
	blkHash, err := r.readHash()
	if err != nil {
		return nil, err
	}
	pc, err := readPartialCert(r, cert.KindVote, voteObjHash(blkHash))
	if err != nil {
		return nil, err
	}
	if err = r.expectEOF(); err != nil {
		return nil, err
	}
	return &Vote{Voter: lib.ReplicaID(voter), BlkHash: blkHash, Cert: pc}, nil
}

// MarshalNotify()/UnmarshalNotify()
func MarshalNotify(n *Notify) []byte {
	w := &buffer{}
	w.writeHash(n.BlkHash)
	writeQuorumCert(w, n.QC)
	return w.bytes()
}

func UnmarshalNotify(bz []byte) (*Notify, lib.ErrorI) {
	r := newReader(bz)
	blkHash, err := r.readHash()
	if err != nil {
		return nil, err
	}
	qc, err := readQuorumCert(r, cert.KindVote, voteObjHash(blkHash))
	if err != nil {
		return nil, err
	}
	if err = r.expectEOF(); err != nil {
		return nil, err
	}
	return &Notify{BlkHash: blkHash, QC: qc}, nil
}

// MarshalBlame()/UnmarshalBlame()
func MarshalBlame(b *Blame) []byte {
	w := &buffer{}
	w.writeU16(uint16(b.Blamer))
	w.writeU32(uint32(b.View))
	writePartialCert(w, b.Cert)
	return w.bytes()
}

func UnmarshalBlame(bz []byte) (*Blame, lib.ErrorI) {
	r := newReader(bz)
	blamer, err := r.readU16()
	if err != nil {
		return nil, err
	}
	view, err := r.readU32()
	if err != nil {
		return nil, err
	}
	pc, err := readPartialCert(r, cert.KindBlame, cert.ObjHashForView(uint64(view)))
	if err != nil {
		return nil, err
	}
	if err = r.expectEOF(); err != nil {
		return nil, err
	}
	return &Blame{Blamer: lib.ReplicaID(blamer), View: uint64(view), Cert: pc}, nil
}

// MarshalBlameNotify()/UnmarshalBlameNotify()
func MarshalBlameNotify(bn *BlameNotify) []byte {
	w := &buffer{}
	w.writeU32(uint32(bn.View))
	w.writeHash(bn.HQCHash)
	writeQuorumCert(w, bn.HQCQC)
	writeQuorumCert(w, bn.QC)
	return w.bytes()
}

func UnmarshalBlameNotify(bz []byte) (*BlameNotify, lib.ErrorI) {
	r := newReader(bz)
	view, err := r.readU32()
	if err != nil {
		return nil, err
	}
	hqcHash, err := r.readHash()
	if err != nil {
		return nil, err
	}
	hqcQC, err := readQuorumCert(r, cert.KindVote, voteObjHash(hqcHash))
	if err != nil {
		return nil, err
	}
	blameQC, err := readQuorumCert(r, cert.KindBlame, cert.ObjHashForView(uint64(view)))
	if err != nil {
		return nil, err
	}
	if err = r.expectEOF(); err != nil {
		return nil, err
	}
	return &BlameNotify{View: uint64(view), HQCHash: hqcHash, HQCQC: hqcQC, QC: blameQC}, nil
}

// MarshalEcho()/UnmarshalEcho()
func MarshalEcho(e *Echo) []byte {
	w := &buffer{}
	w.writeU16(uint16(e.Rid))
	w.writeHash(e.BlkHash)
	w.writeByte(byte(e.Opcode))
	writePartialCert(w, e.Cert)
	return w.bytes()
}

func UnmarshalEcho(bz []byte) (*Echo, lib.ErrorI) {
	r := newReader(bz)
	rid, err := r.readU16()
	if err != nil {
		return nil, err
	}
	blkHash, err := r.readHash()
	if err != nil {
		return nil, err
	}
	opcode, err := r.readByte()
	if err != nil {
		return nil, err
	}
	pc, err := readPartialCert(r, cert.KindPropagate, propagateObjHash(blkHash))
	if err != nil {
		return nil, err
	}
	if err = r.expectEOF(); err != nil {
		return nil, err
	}
	return &Echo{Rid: lib.ReplicaID(rid), BlkHash: blkHash, Opcode: PropagateOpcode(opcode), Cert: pc}, nil
}

// MarshalAck()/UnmarshalAck() — identical shape to Echo
func MarshalAck(a *Ack) []byte {
	return MarshalEcho(&Echo{Rid: a.Rid, BlkHash: a.BlkHash, Opcode: a.Opcode, Cert: a.Cert})
}

func UnmarshalAck(bz []byte) (*Ack, lib.ErrorI) {
	e, err := UnmarshalEcho(bz)
	if err != nil {
		return nil, err
	}
	return &Ack{Rid: e.Rid, BlkHash: e.BlkHash, Opcode: e.Opcode, Cert: e.Cert}, nil
}

// MarshalPreCommit()/UnmarshalPreCommit()
func MarshalPreCommit(p *PreCommit) []byte {
	w := &buffer{}
	w.writeU16(uint16(p.Rid))
	w.writeHash(p.BlkHash)
	writePartialCert(w, p.Cert)
	return w.bytes()
}

func UnmarshalPreCommit(bz []byte) (*PreCommit, lib.ErrorI) {
	r := newReader(bz)
	rid, err := r.readU16()
	if err != nil {
		return nil, err
	}
	blkHash, err := r.readHash()
	if err != nil {
		return nil, err
	}
	pc, err := readPartialCert(r, cert.KindPreCommit, preCommitObjHash(blkHash))
	if err != nil {
		return nil, err
	}
	if err = r.expectEOF(); err != nil {
		return nil, err
	}
	return &PreCommit{Rid: lib.ReplicaID(rid), BlkHash: blkHash, Cert: pc}, nil
}

// MarshalFinality()/UnmarshalFinality()
func MarshalFinality(f *Finality) []byte {
	w := &buffer{}
	w.writeU16(uint16(f.Rid))
	w.writeI8(int8(f.Decision))
	w.writeU32(f.CmdIdx)
	w.writeU32(f.CmdHeight)
	w.writeHash(f.CmdHash)
	if f.Decision == DecisionCommitted {
		w.writeHash(f.BlkHash)
	}
	return w.bytes()
}

func UnmarshalFinality(bz []byte) (*Finality, lib.ErrorI) {
	r := newReader(bz)
	rid, err := r.readU16()
	if err != nil {
		return nil, err
	}
	decision, err := r.readI8()
	if err != nil {
		return nil, err
	}
	cmdIdx, err := r.readU32()
	if err != nil {
		return nil, err
	}
	cmdHeight, err := r.readU32()
	if err != nil {
		return nil, err
	}
	cmdHash, err := r.readHash()
	if err != nil {
		return nil, err
	}
	f := &Finality{
		Rid:       lib.ReplicaID(rid),
		Decision:  Decision(decision),
		CmdIdx:    cmdIdx,
		CmdHeight: cmdHeight,
		CmdHash:   cmdHash,
	}
	if f.Decision == DecisionCommitted {
		blkHash, herr := r.readHash()
		if herr != nil {
			return nil, herr
		}
		f.BlkHash = blkHash
	}
	if err = r.expectEOF(); err != nil {
		return nil, err
	}
	return f, nil
}
