package core

import (
	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/types"
)

// OnReceiveProposal() delivers a proposed block (idempotent), adopts any QC it carries as hqc, checks
// it against the opinion rule (registering it for equivocation detection along the way), marks local
// progress for the current view, and resolves the wait_receive_proposal wait-point. The opinion
// decision made here — not a later re-check — is what gates this replica's eventual vote: recorded in
// voteEligible, it's the one onProposePropagated consults once the echo/ack pipeline marks the block
// propagated. finishedPropose skips this decision on a block already settled elsewhere (this
// replica's own proposal, handled directly by OnPropose), since the self-feed BroadcastProposal
// triggers for that block must still mark progress without re-deciding its opinion.
func (e *Engine) OnReceiveProposal(p *types.Proposal) lib.ErrorI {
	stored, _ := e.store.AddBlk(p.Block)
	if !stored.Delivered {
		if _, err := e.store.Deliver(stored); err != nil {
			return err
		}
	}
	if !e.finishedPropose[stored.Hash] {
		if stored.HasQC() {
			e.updateHQC(stored.QCRef, stored.QC)
		}
		e.checkEquivocation(stored)
		if e.shouldVote(stored) {
			e.vheight = stored.Height
			e.voteEligible[stored.Hash] = true
		}
		e.finishedPropose[stored.Hash] = true
	}
	e.progress = true

	old := e.waitReceiveProposal
	e.waitReceiveProposal = NewPromise()
	old.Resolve(stored)
	return nil
}

// OnBlameTimeout() implements blame trigger (a): the blame timer elapsed without progress in the
// current view.
func (e *Engine) OnBlameTimeout() {
	if e.progress {
		return
	}
	e._blame()
}

// _blame() stops the blame timer, builds this replica's own Blame for the current view, feeds it to
// itself, and broadcasts it. Idempotent per view: a replica blames at most once per view.
func (e *Engine) _blame() {
	if e.blamed[e.self] {
		return
	}
	e.timer.StopBlameTimer()
	part := cert.SignPartialCert(e.self, cert.KindBlame, cert.ViewPayload(e.view), e.priv)
	blame := &types.Blame{Blamer: e.self, View: e.view, Cert: part}
	_ = e.OnReceiveBlame(blame)
	e.net.BroadcastBlame(blame)
}

// OnReceiveBlame() implements on_receive_blame: no-op mid view-transition, dedupes by blamer, and on
// the n-f-th distinct blamer for the current view runs _new_view().
func (e *Engine) OnReceiveBlame(b *types.Blame) lib.ErrorI {
	if e.viewTrans || b.View != e.view {
		return nil
	}
	if e.blamed[b.Blamer] {
		return lib.ErrDuplicateBlamer(uint16(b.Blamer))
	}
	if e.blameQC == nil {
		agg, err := cert.NewAggregator(cert.KindBlame, cert.ObjHashForView(e.view), e.vs)
		if err != nil {
			return err
		}
		e.blameQC = agg
	}
	closed, err := e.blameQC.AddPart(b.Cert)
	if err != nil {
		return nil
	}
	e.blamed[b.Blamer] = true
	if closed {
		qc, cerr := e.blameQC.Compute()
		if cerr != nil {
			return cerr
		}
		e._newView(qc)
	}
	return nil
}

// _newView() implements _new_view(): broadcast a BlameNotify carrying the blame QC and the current
// hqc, enter the view-transition state, stop the blame timer, arm the view-transition timer, and
// self-feed the notify (a no-op pass through on_receive_blamenotify, since view_trans is already
// true by the time it runs — this just keeps self-originated and network-received notifies on the
// same code path).
func (e *Engine) _newView(qc *cert.QuorumCert) {
	bn := &types.BlameNotify{View: e.view, HQCHash: e.hqc.block.Hash, HQCQC: e.hqc.qc.Clone(), QC: qc}
	e.viewTrans = true
	e.timer.StopBlameTimer()
	e.timer.SetViewTransTimer(e.deltaDur(2))

	oldVT := e.viewTransP
	e.viewTransP = NewPromise()
	oldVT.Resolve(e.view)

	e.net.BroadcastBlameNotify(bn)
	_ = e.OnReceiveBlameNotify(bn)
}

// OnReceiveBlameNotify() implements on_receive_blamenotify: no-op mid view-transition, otherwise
// adopts the carried QC as this replica's blame certificate and runs _new_view.
func (e *Engine) OnReceiveBlameNotify(bn *types.BlameNotify) lib.ErrorI {
	if e.viewTrans {
		return nil
	}
	// bn.QC is verified by the transport's async pool before this handler is posted; the self-fed
	// notify from _newView never gets here, since view_trans is already set by then.
	e._newView(bn.QC)
	return nil
}

// OnViewTransTimeout() implements on_viewtrans_timeout: increments the view, leaves the transition
// state, resets per-view bookkeeping, re-arms the blame timer, and notifies the new view's leader of
// this replica's hqc.
func (e *Engine) OnViewTransTimeout() {
	e.view++
	e.viewTrans = false
	e.progress = false
	e.proposals = map[uint64]map[cert.Hash]*types.Block{}
	e.blameQC = nil
	e.blamed = map[lib.ReplicaID]bool{}
	e.timer.SetBlameTimer(e.deltaDur(3))
	e.net.SendNotify(&types.Notify{BlkHash: e.hqc.block.Hash, QC: e.hqc.qc.Clone()})

	old := e.viewChangeP
	e.viewChangeP = NewPromise()
	old.Resolve(e.view)
}

// OnReceiveNotify() implements on_receive_notify: a new-view leader's peers report their hqc so the
// leader can propose from the highest one seen rather than only its own. Silently ignores a notify
// whose block this replica has not delivered yet or whose hqc is not higher than its own.
func (e *Engine) OnReceiveNotify(n *types.Notify) lib.ErrorI {
	// n.QC is verified by the transport's async pool before this handler is posted.
	blk, ok := e.store.Find(n.BlkHash)
	if !ok {
		return nil
	}
	e.updateHQC(blk, n.QC)
	return nil
}
