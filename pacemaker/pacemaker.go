// Package pacemaker implements the proposer-rotation, retry, and liveness-policy collaborator the
// core deliberately leaves external (§1, §4.9, §9's get_proposer/commit-timer open questions). It
// also hosts the single-goroutine event loop §5's "Go realization" describes: every call into an
// Engine, whether triggered by a network message or a timer firing, is funneled through one inbound
// channel so the engine never needs internal locking.
package pacemaker

import (
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/core"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/metrics"
	"github.com/lucent-chain/hotstuff/types"
)

// Pacemaker owns proposer rotation, redrive-on-stall retry, and the event loop that serializes every
// entry into its Engine. It implements core.Timers directly: timers schedule real time.Timers whose
// callbacks re-post onto the same inbound channel the engine's handlers run from, per §5's "timer
// callbacks re-enter the core on the same event loop."
type Pacemaker struct {
	cfg    *lib.ReplicaConfig
	self   lib.ReplicaID
	engine *core.Engine
	logger lib.LoggerI

	inbox chan func()
	quit  chan struct{}
	wg    sync.WaitGroup

	mu              sync.Mutex
	blameTimer      *time.Timer
	viewTransTimer  *time.Timer
	propagateTimers map[cert.Hash]*time.Timer
	propagateFired  map[cert.Hash]bool
	ackTimers       map[cert.Hash]*time.Timer
	ackFired        map[cert.Hash]bool
	preCommitTimers map[cert.Hash]*time.Timer
	commitTimers    map[cert.Hash]*time.Timer
	pruneTicker     *time.Ticker
}

var _ core.Timers = (*Pacemaker)(nil)

// New() builds a Pacemaker for the given replica config; the caller wires the returned Pacemaker's
// GetProposer method into core.NewEngine and calls SetEngine once the engine exists (the two are
// mutually referential: the engine needs GetProposer at construction, the pacemaker needs the engine
// for its timer callbacks and wait-point watches).
func New(self lib.ReplicaID, cfg *lib.ReplicaConfig, logger lib.LoggerI) *Pacemaker {
	return &Pacemaker{
		cfg:             cfg,
		self:            self,
		logger:          logger,
		inbox:           make(chan func(), 256),
		quit:            make(chan struct{}),
		propagateTimers: map[cert.Hash]*time.Timer{},
		propagateFired:  map[cert.Hash]bool{},
		ackTimers:       map[cert.Hash]*time.Timer{},
		ackFired:        map[cert.Hash]bool{},
		preCommitTimers: map[cert.Hash]*time.Timer{},
		commitTimers:    map[cert.Hash]*time.Timer{},
	}
}

// SetEngine() attaches the engine this pacemaker drives, starts watching its wait-points, and arms
// the periodic prune sweep (§4.9 leaves prune's cadence to the caller, not the core).
func (p *Pacemaker) SetEngine(e *core.Engine) {
	p.engine = e
	p.watchProposal()
	p.watchReceiveProposal()
	p.watchHQCUpdate()
	p.watchViewChange()
	p.watchViewTrans()
	p.startPruneTicker()
}

func (p *Pacemaker) startPruneTicker() {
	p.pruneTicker = time.NewTicker(p.deltaDur(5))
	go func() {
		for {
			select {
			case <-p.pruneTicker.C:
				p.Post(func() { p.engine.Prune(p.cfg.PruneStaleness) })
			case <-p.quit:
				return
			}
		}
	}()
}

// Post() enqueues fn to run on the event loop goroutine, in order, alongside every other engine
// entry point. Safe to call from any goroutine (network dispatch, timer callbacks).
func (p *Pacemaker) Post(fn func()) {
	select {
	case p.inbox <- fn:
	case <-p.quit:
	}
}

// Run() drains the inbox on the calling goroutine until Stop() is called; this is the "one goroutine
// draining one inbound channel" §5 requires. It should be started in its own goroutine by the caller.
func (p *Pacemaker) Run() {
	p.wg.Add(1)
	defer p.wg.Done()
	for {
		select {
		case fn := <-p.inbox:
			fn()
		case <-p.quit:
			return
		}
	}
}

// Stop() ends Run()'s loop and blocks until it has exited
func (p *Pacemaker) Stop() {
	close(p.quit)
	if p.pruneTicker != nil {
		p.pruneTicker.Stop()
	}
	p.wg.Wait()
}

// GetProposer() realizes §9's open question: simple round-robin over the ordered validator set, keyed
// by the engine's current view.
func (p *Pacemaker) GetProposer() lib.ReplicaID {
	ids := p.cfg.OrderedReplicas()
	if len(ids) == 0 {
		return 0
	}
	return ids[p.engine.View()%uint64(len(ids))]
}

// IsLeader() reports whether this replica is the current view's proposer
func (p *Pacemaker) IsLeader() bool { return p.GetProposer() == p.self }

// ProposeWithRetry() redrives on_propose with exponential backoff until it succeeds, the stall policy
// §4.9 attributes to the pacemaker rather than the core (a leader's on_propose returns an error, not
// a panic, whenever the replica is mid view-change — the pacemaker is what decides to keep trying).
func (p *Pacemaker) ProposeWithRetry(cmds []cert.Hash, parents []*types.Block, extra []byte) (*types.Block, error) {
	var blk *types.Block
	op := func() error {
		done := make(chan struct{})
		var operr error
		p.Post(func() {
			b, err := p.engine.OnPropose(cmds, parents, extra)
			if err != nil {
				operr = err
			} else {
				blk = b
			}
			close(done)
		})
		<-done
		return operr
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 10 * p.deltaDur(1)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return blk, nil
}

func (p *Pacemaker) deltaDur(multiple int) time.Duration {
	return time.Duration(multiple*p.cfg.DeltaMS) * time.Millisecond
}

func (p *Pacemaker) watchProposal() {
	p.engine.WaitProposal().Then(func(v interface{}) {
		if b, ok := v.(*types.Block); ok {
			p.logger.Debugf("local proposal ready at height %d", b.Height)
		}
		p.watchProposal()
	})
}

func (p *Pacemaker) watchReceiveProposal() {
	p.engine.WaitReceiveProposal().Then(func(v interface{}) {
		if b, ok := v.(*types.Block); ok {
			p.logger.Debugf("received proposal for block %s at height %d", b.Hash, b.Height)
		}
		p.watchReceiveProposal()
	})
}

func (p *Pacemaker) watchHQCUpdate() {
	p.engine.WaitHQCUpdate().Then(func(v interface{}) {
		if b, ok := v.(*types.Block); ok {
			metrics.SetHQCHeight(b.Height)
		}
		p.watchHQCUpdate()
	})
}

func (p *Pacemaker) watchViewChange() {
	p.engine.WaitViewChange().Then(func(v interface{}) {
		view, _ := v.(uint64)
		metrics.SetView(view)
		p.logger.Infof("view advanced to %d", view)
		p.watchViewChange()
	})
}

func (p *Pacemaker) watchViewTrans() {
	p.engine.WaitViewTrans().Then(func(v interface{}) {
		metrics.IncViewTransitions()
		p.logger.Warnf("entering view transition at view %d", p.engine.View())
		p.watchViewTrans()
	})
}
