package pacemaker

import (
	"time"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/metrics"
)

// SetCommitTimer()/StopCommitTimer() are the pacemaker-driven commit watchdog §9 says the visible
// core never arms itself; retained here as a no-op-by-default pair a caller may opt into.
func (p *Pacemaker) SetCommitTimer(blkHash cert.Hash, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.commitTimers[blkHash]; ok {
		t.Stop()
	}
	p.commitTimers[blkHash] = time.AfterFunc(d, func() {
		p.logger.Warnf("commit watchdog fired for block %s", blkHash)
	})
}

func (p *Pacemaker) StopCommitTimer(blkHash cert.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.commitTimers[blkHash]; ok {
		t.Stop()
		delete(p.commitTimers, blkHash)
	}
}

// SetBlameTimer()/StopBlameTimer() drive on_blame_timeout, re-entering the engine on the event loop
func (p *Pacemaker) SetBlameTimer(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.blameTimer != nil {
		p.blameTimer.Stop()
	}
	p.blameTimer = time.AfterFunc(d, func() {
		p.Post(p.engine.OnBlameTimeout)
	})
}

func (p *Pacemaker) StopBlameTimer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.blameTimer != nil {
		p.blameTimer.Stop()
		p.blameTimer = nil
	}
}

// SetViewTransTimer()/StopViewTransTimer() drive on_viewtrans_timeout
func (p *Pacemaker) SetViewTransTimer(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.viewTransTimer != nil {
		p.viewTransTimer.Stop()
	}
	p.viewTransTimer = time.AfterFunc(d, func() {
		p.Post(p.engine.OnViewTransTimeout)
	})
}

func (p *Pacemaker) StopViewTransTimer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.viewTransTimer != nil {
		p.viewTransTimer.Stop()
		p.viewTransTimer = nil
	}
}

// SetPropagateTimer()/StopPropagateTimer()/IsPropagateTimeout() back the propagation pipeline's
// "before its propagate timer fires" late-echo check (§4.4). Firing only flips the fired bit the
// predicate reads; no handler is re-entered, since nothing defines an on_propagate_timeout handler.
func (p *Pacemaker) SetPropagateTimer(blkHash cert.Hash, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.propagateFired, blkHash)
	if t, ok := p.propagateTimers[blkHash]; ok {
		t.Stop()
	}
	p.propagateTimers[blkHash] = time.AfterFunc(d, func() {
		p.mu.Lock()
		p.propagateFired[blkHash] = true
		p.mu.Unlock()
		metrics.IncPropagateTimers(-1)
	})
	metrics.IncPropagateTimers(1)
}

func (p *Pacemaker) StopPropagateTimer(blkHash cert.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.propagateTimers[blkHash]; ok {
		stopped := t.Stop()
		delete(p.propagateTimers, blkHash)
		if stopped {
			metrics.IncPropagateTimers(-1)
		}
	}
}

func (p *Pacemaker) IsPropagateTimeout(blkHash cert.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.propagateFired[blkHash]
}

// SetAckTimer()/StopAckTimer()/IsAckTimeout() mirror the propagate timer, for the ack phase
func (p *Pacemaker) SetAckTimer(blkHash cert.Hash, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.ackFired, blkHash)
	if t, ok := p.ackTimers[blkHash]; ok {
		t.Stop()
	}
	p.ackTimers[blkHash] = time.AfterFunc(d, func() {
		p.mu.Lock()
		p.ackFired[blkHash] = true
		p.mu.Unlock()
		metrics.IncAckTimers(-1)
	})
	metrics.IncAckTimers(1)
}

func (p *Pacemaker) StopAckTimer(blkHash cert.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.ackTimers[blkHash]; ok {
		stopped := t.Stop()
		delete(p.ackTimers, blkHash)
		if stopped {
			metrics.IncAckTimers(-1)
		}
	}
}

func (p *Pacemaker) IsAckTimeout(blkHash cert.Hash) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ackFired[blkHash]
}

// SetPreCommitTimer()/StopPreCommitTimer() drive on_pre_commit_timeout(b), resolving the target block
// handle via the engine's own store before re-entering on the event loop.
func (p *Pacemaker) SetPreCommitTimer(blkHash cert.Hash, d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.preCommitTimers[blkHash]; ok {
		t.Stop()
	}
	p.preCommitTimers[blkHash] = time.AfterFunc(d, func() {
		p.Post(func() {
			metrics.IncPreCommitTimers(-1)
			blk, ok := p.engine.Store().Find(blkHash)
			if !ok {
				p.logger.Warnf("pre-commit timer fired for unknown block %s", blkHash)
				return
			}
			p.engine.OnPreCommitTimeout(blk)
		})
	})
	metrics.IncPreCommitTimers(1)
}

func (p *Pacemaker) StopPreCommitTimer(blkHash cert.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if t, ok := p.preCommitTimers[blkHash]; ok {
		stopped := t.Stop()
		delete(p.preCommitTimers, blkHash)
		if stopped {
			metrics.IncPreCommitTimers(-1)
		}
	}
}
