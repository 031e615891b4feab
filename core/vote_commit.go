package core

import (
	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/types"
)

// OnReceiveVote() implements §4.5's on_receive_vote: if the block has not been marked
// finished_propose, synthesize a Proposal locally first so the safety/equivocation bookkeeping sees
// it. Dedupe by voter, cap at n-f; on the n-f-th acceptance compute the QC and call update_hqc. A
// vote arriving once the quorum has already closed (blk.SelfQC nilled by the round that closed it)
// is dropped before it can rebuild a fresh aggregator — state must stay unchanged past the n-f-th
// vote, not just deduped per-voter.
func (e *Engine) OnReceiveVote(v *types.Vote) lib.ErrorI {
	blk, ok := e.store.Find(v.BlkHash)
	if !ok {
		return lib.ErrUnknownBlock(v.BlkHash.String())
	}
	if !e.finishedPropose[blk.Hash] {
		if perr := e.OnReceiveProposal(&types.Proposal{Proposer: e.getProposer(), Block: blk}); perr != nil {
			return perr
		}
	}
	if len(blk.Voted) >= e.vs.NMajority() {
		return lib.ErrQuorumAlreadyMet()
	}
	if blk.SelfQC == nil {
		agg, err := cert.NewAggregator(cert.KindVote, cert.ObjHash(cert.KindVote, blk.Hash.Bytes()), e.vs)
		if err != nil {
			return err
		}
		blk.SelfQC = agg
	}
	if blk.Voted[uint16(v.Voter)] {
		return lib.ErrDuplicateVoter(uint16(v.Voter))
	}
	closed, err := blk.SelfQC.AddPart(v.Cert)
	if err != nil {
		return nil // dropped: duplicate signer, wrong object hash, bad signature, or quorum already met
	}
	blk.Voted[uint16(v.Voter)] = true
	if !closed {
		return nil
	}
	qc, cerr := blk.SelfQC.Compute()
	if cerr != nil {
		return cerr
	}
	blk.SelfQC = nil // quorum absorbed into hqc; stop pinning this block as "vote round in flight"
	e.updateHQC(blk, qc)
	return nil
}

// OnPreCommitTimeout() implements on_pre_commit_timeout(b): broadcast a PreCommit and feed self.
func (e *Engine) OnPreCommitTimeout(b *types.Block) {
	part := cert.SignPartialCert(e.self, cert.KindPreCommit, b.Hash.Bytes(), e.priv)
	pc := &types.PreCommit{Rid: e.self, BlkHash: b.Hash, Cert: part}
	e.net.BroadcastPreCommit(pc)
	_ = e.OnReceivePreCommit(pc)
}

// OnReceivePreCommit() implements on_receive_pre_commit: dedupe sender, cap at n-f, and on the
// n-f-th acceptance run the commit rule.
func (e *Engine) OnReceivePreCommit(pc *types.PreCommit) lib.ErrorI {
	blk, ok := e.store.Find(pc.BlkHash)
	if !ok {
		return lib.ErrUnknownBlock(pc.BlkHash.String())
	}
	if blk.PreCommitted[uint16(pc.Rid)] {
		return lib.ErrDuplicatePreVote(uint16(pc.Rid))
	}
	if len(blk.PreCommitted) >= e.vs.NMajority() {
		return lib.ErrQuorumAlreadyMet()
	}
	// pc.Cert is verified by the transport's async pool before this handler is ever posted;
	// a self-fed PreCommit (OnPreCommitTimeout) never went through that gate but is always self-signed.
	blk.PreCommitted[uint16(pc.Rid)] = true
	if len(blk.PreCommitted) == e.vs.NMajority() {
		return e.checkCommit(blk)
	}
	return nil
}
