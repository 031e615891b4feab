package types

import (
	"testing"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/stretchr/testify/require"
)

func fakeBlkHash(b byte) cert.Hash {
	var h cert.Hash
	h[0] = b
	return h
}

func fakePartialCert(kind cert.Kind, obj cert.Hash, signer lib.ReplicaID) *cert.PartialCert {
	return &cert.PartialCert{Signer: signer, Kind: kind, Obj: obj, Sig: make([]byte, 96)}
}

func fakeQuorumCert(kind cert.Kind, obj cert.Hash) *cert.QuorumCert {
	return &cert.QuorumCert{Kind: kind, Obj: obj, Bitmap: []byte{0x07}, AggSig: make([]byte, 96)}
}

func TestGenesisIsSelfReferential(t *testing.T) {
	g := NewGenesis()
	require.True(t, g.Delivered)
	require.Equal(t, uint64(0), g.Height)
	require.Equal(t, g.Hash, g.QCRefHash)
	require.Equal(t, DecisionCommitted, g.Decision)
}

func TestProposalRoundTrip(t *testing.T) {
	blk := &Block{
		ParentHashes: []cert.Hash{fakeBlkHash(1)},
		Cmds:         []cert.Hash{fakeBlkHash(2), fakeBlkHash(3)},
		Extra:        []byte("hello"),
	}
	p := &Proposal{Proposer: 2, Block: blk}
	bz := MarshalProposal(p)
	got, err := UnmarshalProposal(bz)
	require.Nil(t, err)
	require.Equal(t, p.Proposer, got.Proposer)
	require.Equal(t, blk.ParentHashes, got.Block.ParentHashes)
	require.Equal(t, blk.Cmds, got.Block.Cmds)
	require.Equal(t, blk.Extra, got.Block.Extra)
}

func TestProposalRoundTripWithQC(t *testing.T) {
	qcRef := fakeBlkHash(9)
	blk := &Block{
		ParentHashes: []cert.Hash{fakeBlkHash(1)},
		Cmds:         nil,
		QCRefHash:    qcRef,
		QC:           fakeQuorumCert(cert.KindVote, cert.ObjHash(cert.KindVote, qcRef.Bytes())),
	}
	p := &Proposal{Proposer: 0, Block: blk}
	bz := MarshalProposal(p)
	got, err := UnmarshalProposal(bz)
	require.Nil(t, err)
	require.True(t, got.Block.HasQC())
	require.Equal(t, qcRef, got.Block.QCRefHash)
	require.Equal(t, blk.QC.Bitmap, got.Block.QC.Bitmap)
	require.Equal(t, blk.QC.AggSig, got.Block.QC.AggSig)
}

func TestVoteRoundTrip(t *testing.T) {
	blkHash := fakeBlkHash(5)
	v := &Vote{Voter: 3, BlkHash: blkHash, Cert: fakePartialCert(cert.KindVote, voteObjHash(blkHash), 3)}
	bz := MarshalVote(v)
	got, err := UnmarshalVote(bz)
	require.Nil(t, err)
	require.Equal(t, v.Voter, got.Voter)
	require.Equal(t, v.BlkHash, got.BlkHash)
	require.Equal(t, v.Cert.Sig, got.Cert.Sig)
	require.Equal(t, cert.KindVote, got.Cert.Kind)
}

func TestBlameRoundTrip(t *testing.T) {
	b := &Blame{Blamer: 1, View: 7, Cert: fakePartialCert(cert.KindBlame, cert.ObjHashForView(7), 1)}
	bz := MarshalBlame(b)
	got, err := UnmarshalBlame(bz)
	require.Nil(t, err)
	require.Equal(t, b.View, got.View)
	require.Equal(t, cert.KindBlame, got.Cert.Kind)
}

func TestBlameNotifyRoundTrip(t *testing.T) {
	hqcHash := fakeBlkHash(11)
	bn := &BlameNotify{
		View:    4,
		HQCHash: hqcHash,
		HQCQC:   fakeQuorumCert(cert.KindVote, voteObjHash(hqcHash)),
		QC:      fakeQuorumCert(cert.KindBlame, cert.ObjHashForView(4)),
	}
	bz := MarshalBlameNotify(bn)
	got, err := UnmarshalBlameNotify(bz)
	require.Nil(t, err)
	require.Equal(t, bn.View, got.View)
	require.Equal(t, bn.HQCHash, got.HQCHash)
	require.Equal(t, bn.HQCQC.Bitmap, got.HQCQC.Bitmap)
	require.Equal(t, bn.QC.Bitmap, got.QC.Bitmap)
}

func TestEchoAckRoundTrip(t *testing.T) {
	blkHash := fakeBlkHash(6)
	e := &Echo{Rid: 2, BlkHash: blkHash, Opcode: PropagateBlock, Cert: fakePartialCert(cert.KindPropagate, propagateObjHash(blkHash), 2)}
	bz := MarshalEcho(e)
	got, err := UnmarshalEcho(bz)
	require.Nil(t, err)
	require.Equal(t, e.Rid, got.Rid)
	require.Equal(t, e.Opcode, got.Opcode)

	a := &Ack{Rid: 2, BlkHash: blkHash, Opcode: PropagateBlock, Cert: fakePartialCert(cert.KindPropagate, propagateObjHash(blkHash), 2)}
	abz := MarshalAck(a)
	agot, err := UnmarshalAck(abz)
	require.Nil(t, err)
	require.Equal(t, a.Rid, agot.Rid)
}

func TestPreCommitRoundTrip(t *testing.T) {
	blkHash := fakeBlkHash(8)
	pc := &PreCommit{Rid: 3, BlkHash: blkHash, Cert: fakePartialCert(cert.KindPreCommit, preCommitObjHash(blkHash), 3)}
	bz := MarshalPreCommit(pc)
	got, err := UnmarshalPreCommit(bz)
	require.Nil(t, err)
	require.Equal(t, pc.Rid, got.Rid)
	require.Equal(t, pc.BlkHash, got.BlkHash)
}

func TestFinalityRoundTripCommitted(t *testing.T) {
	f := &Finality{Rid: 1, Decision: DecisionCommitted, CmdIdx: 3, CmdHeight: 10, CmdHash: fakeBlkHash(4), BlkHash: fakeBlkHash(5)}
	bz := MarshalFinality(f)
	got, err := UnmarshalFinality(bz)
	require.Nil(t, err)
	require.Equal(t, f.BlkHash, got.BlkHash)
	require.Equal(t, f.CmdIdx, got.CmdIdx)
}

func TestFinalityRoundTripPendingOmitsBlockHash(t *testing.T) {
	f := &Finality{Rid: 1, Decision: DecisionPending, CmdIdx: 0, CmdHeight: 1, CmdHash: fakeBlkHash(4)}
	bz := MarshalFinality(f)
	got, err := UnmarshalFinality(bz)
	require.Nil(t, err)
	require.Equal(t, cert.ZeroHash, got.BlkHash)
}

func TestUnmarshalRejectsTrailingBytes(t *testing.T) {
	blkHash := fakeBlkHash(1)
	pc := &PreCommit{Rid: 1, BlkHash: blkHash, Cert: fakePartialCert(cert.KindPreCommit, preCommitObjHash(blkHash), 1)}
	bz := append(MarshalPreCommit(pc), 0xFF)
	_, err := UnmarshalPreCommit(bz)
	require.NotNil(t, err)
	require.Equal(t, lib.CodeTrailingBytes, err.Code())
}

func TestUnmarshalRejectsShortBuffer(t *testing.T) {
	_, err := UnmarshalVote([]byte{0x00})
	require.NotNil(t, err)
}
