package core

import (
	"time"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/types"
)

func hashesOfParents(parents []*types.Block) []cert.Hash {
	out := make([]cert.Hash, len(parents))
	for i, p := range parents {
		out[i] = p.Hash
	}
	return out
}

func (e *Engine) deltaDur(multiple int) time.Duration {
	return time.Duration(multiple*e.cfg.DeltaMS) * time.Millisecond
}

// OnPropose() implements §4.4's leader entry point: build a new block atop parents, optionally
// embedding hqc as the block's own QC at a commit height, deliver it locally, and kick off
// propagation.
func (e *Engine) OnPropose(cmds []cert.Hash, parents []*types.Block, extra []byte) (*types.Block, lib.ErrorI) {
	if e.viewTrans {
		return nil, lib.ErrInViewTransition()
	}
	if len(parents) == 0 {
		return nil, lib.ErrEmptyParents()
	}
	parent0 := parents[0]
	newHeight := parent0.Height + 1
	if newHeight <= e.vheight {
		return nil, lib.ErrNonMonotonicVote(newHeight, e.vheight)
	}
	isCommitHeight := e.cfg.CommitInterval > 0 && newHeight%e.cfg.CommitInterval == 0

	b := &types.Block{
		ParentHashes: hashesOfParents(parents),
		Cmds:         cmds,
		Extra:        extra,
		Parents:      parents,
		Height:       newHeight,
		Voted:        map[uint16]bool{},
		PreCommitted: map[uint16]bool{},
	}
	if isCommitHeight && e.lastQCRef != e.hqc.block.Hash {
		b.QCRefHash = e.hqc.block.Hash
		b.QC = e.hqc.qc.Clone()
		e.lastQCRef = e.hqc.block.Hash
	}
	b.Hash = cert.HashBytes(types.MarshalBlockBody(b))

	stored, _ := e.store.AddBlk(b)
	if stored.Delivered {
		return nil, lib.ErrAlreadyDelivered(stored.Hash.String())
	}
	if stored.QCRef == nil && stored.HasQC() {
		if ref, ok := e.store.Find(stored.QCRefHash); ok {
			stored.QCRef = ref
		}
	}
	if _, err := e.store.Deliver(stored); err != nil {
		return nil, err
	}

	agg, aerr := cert.NewAggregator(cert.KindVote, cert.ObjHash(cert.KindVote, stored.Hash.Bytes()), e.vs)
	if aerr != nil {
		return nil, aerr
	}
	stored.SelfQC = agg
	e.vheight = newHeight
	e.finishedPropose[stored.Hash] = true
	e.voteEligible[stored.Hash] = true

	old := e.waitProposal
	e.waitProposal = NewPromise()
	old.Resolve(stored)

	e.propagateBlk(stored, isCommitHeight)
	return stored, nil
}

// propagateBlk() implements _propagate_blk(b): commit-height blocks fan out an Echo to everyone and
// arm the propagate timer; non-commit-height blocks unicast a single Echo to the current proposer.
func (e *Engine) propagateBlk(b *types.Block, isCommitHeight bool) {
	part := cert.SignPartialCert(e.self, cert.KindPropagate, b.Hash.Bytes(), e.priv)
	echo := &types.Echo{Rid: e.self, BlkHash: b.Hash, Opcode: types.PropagateBlock, Cert: part}
	if isCommitHeight {
		e.net.BroadcastEcho(echo)
		_ = e.OnReceiveEcho(echo)
		e.timer.SetPropagateTimer(b.Hash, e.deltaDur(3))
		return
	}
	proposer := e.getProposer()
	e.net.SendEcho(echo, proposer)
}

func (e *Engine) echoAggregator(blkHash cert.Hash) (*cert.Aggregator, lib.ErrorI) {
	if agg, ok := e.propagateEchos[blkHash]; ok {
		return agg, nil
	}
	agg, err := cert.NewAggregator(cert.KindPropagate, cert.ObjHash(cert.KindPropagate, blkHash.Bytes()), e.vs)
	if err != nil {
		return nil, err
	}
	e.propagateEchos[blkHash] = agg
	return agg, nil
}

func (e *Engine) ackAggregator(blkHash cert.Hash) (*cert.Aggregator, lib.ErrorI) {
	if agg, ok := e.propagateAcks[blkHash]; ok {
		return agg, nil
	}
	agg, err := cert.NewAggregator(cert.KindPropagate, cert.ObjHash(cert.KindPropagate, blkHash.Bytes()), e.vs)
	if err != nil {
		return nil, err
	}
	e.propagateAcks[blkHash] = agg
	return agg, nil
}

// OnReceiveEcho() implements §4.4's on_receive_echo: accumulate echoes for a block, and on reaching
// exactly n-f before the propagate timer fires, broadcast the Proposal and multicast an Ack to every
// echo-sender. Late echoes received before the ack timer fires get a lone Ack reply.
//
// The first echo this replica sees for a hash triggers its own echo in reply, relayed to everyone
// rather than just the sender: a Bracha-style echo round, since only the proposer would otherwise ever
// sign one and the n-f threshold could never close on a single signer's cert.
func (e *Engine) OnReceiveEcho(ec *types.Echo) lib.ErrorI {
	agg, err := e.echoAggregator(ec.BlkHash)
	if err != nil {
		return err
	}
	if agg.Count() >= e.vs.NMajority() {
		if !e.timer.IsAckTimeout(ec.BlkHash) {
			e.replyLoneAck(ec.BlkHash, ec.Rid)
		}
		return nil
	}
	relay := agg.Count() == 0 && ec.Rid != e.self
	closed, aerr := agg.AddPart(ec.Cert)
	if aerr != nil {
		return aerr
	}
	if relay {
		ownPart := cert.SignPartialCert(e.self, cert.KindPropagate, ec.BlkHash.Bytes(), e.priv)
		ownEcho := &types.Echo{Rid: e.self, BlkHash: ec.BlkHash, Opcode: types.PropagateBlock, Cert: ownPart}
		e.net.BroadcastEcho(ownEcho)
		closed, aerr = agg.AddPart(ownPart)
		if aerr != nil {
			return aerr
		}
	}
	if !closed {
		return nil
	}
	if e.timer.IsPropagateTimeout(ec.BlkHash) {
		return nil
	}
	e.timer.StopPropagateTimer(ec.BlkHash)
	if blk, ok := e.store.Find(ec.BlkHash); ok {
		e.qcFinishPromise(blk).Resolve(blk)
		e.net.BroadcastProposal(&types.Proposal{Proposer: e.self, Block: blk})
	}
	ackPart := cert.SignPartialCert(e.self, cert.KindPropagate, ec.BlkHash.Bytes(), e.priv)
	ack := &types.Ack{Rid: e.self, BlkHash: ec.BlkHash, Opcode: types.PropagateBlock, Cert: ackPart}
	e.net.MulticastAck(ack, agg.Signers())
	_ = e.OnReceiveAck(ack)
	e.timer.SetAckTimer(ec.BlkHash, e.deltaDur(2))
	return nil
}

func (e *Engine) replyLoneAck(blkHash cert.Hash, to lib.ReplicaID) {
	part := cert.SignPartialCert(e.self, cert.KindPropagate, blkHash.Bytes(), e.priv)
	ack := &types.Ack{Rid: e.self, BlkHash: blkHash, Opcode: types.PropagateBlock, Cert: part}
	e.net.SendAck(ack, to)
}

// OnReceiveAck() implements on_receive_ack: accumulate acks, capped at n-f, and on the n-f-th
// acceptance transition the block to "propagated".
func (e *Engine) OnReceiveAck(ac *types.Ack) lib.ErrorI {
	if e.propagated[ac.BlkHash] {
		return nil
	}
	agg, err := e.ackAggregator(ac.BlkHash)
	if err != nil {
		return err
	}
	closed, aerr := agg.AddPart(ac.Cert)
	if aerr != nil {
		return nil
	}
	if closed {
		e.propagated[ac.BlkHash] = true
		e.onProposePropagated(ac.BlkHash)
	}
	return nil
}

// onProposePropagated() implements on_propose_propagated(hash): vote for the block unless voting is
// disabled or the opinion rule rejected it, and if it carries a qc_ref, arm the pre-commit timer
// targeted at that ancestor.
func (e *Engine) onProposePropagated(hash cert.Hash) {
	if e.viewTrans {
		return
	}
	blk, ok := e.store.Find(hash)
	if !ok {
		return
	}
	if !e.voteDisabled && e.voteEligible[hash] {
		e.castVote(blk)
	}
	if blk.HasQC() {
		e.timer.SetPreCommitTimer(blk.QCRefHash, e.deltaDur(2))
	}
}

// castVote() implements _vote(blk): sign and broadcast a vote unconditionally. The opinion rule,
// vheight monotonicity, and equivocation poisoning are decided earlier, at proposal-acceptance time
// (OnPropose for this replica's own block, OnReceiveProposal's shouldVote gate for a received one) and
// recorded in voteEligible; by the time propagation has completed and on_propose_propagated calls in
// here, that decision already stands and voting itself never re-checks it.
func (e *Engine) castVote(blk *types.Block) {
	part := cert.SignPartialCert(e.self, cert.KindVote, blk.Hash.Bytes(), e.priv)
	vote := &types.Vote{Voter: e.self, BlkHash: blk.Hash, Cert: part}
	e.net.BroadcastVote(vote)
	_ = e.OnReceiveVote(vote)
}
