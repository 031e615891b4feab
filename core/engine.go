package core

import (
	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/lib/crypto"
	"github.com/lucent-chain/hotstuff/store"
	"github.com/lucent-chain/hotstuff/types"
)

// hqcState is the replica's highest-known VOTE quorum certificate and the block it certifies
type hqcState struct {
	block *types.Block
	qc    *cert.QuorumCert
}

// Engine is the single-threaded, event-driven protocol core. Every exported On*/handler method must
// be invoked from a single goroutine (the pacemaker's event loop) — the engine does no internal
// locking, matching §5's "mutation confined to the event loop" model.
type Engine struct {
	self   lib.ReplicaID
	cfg    *lib.ReplicaConfig
	vs     *cert.ValidatorSet
	priv   crypto.PrivateKeyI
	store  *store.Store
	logger lib.LoggerI

	net         Network
	timer       Timers
	app         Application
	getProposer func() lib.ReplicaID

	hqc      hqcState
	vheight  uint64
	view     uint64
	viewTrans bool
	progress  bool // true once a proposal has been heard in the current view
	voteDisabled bool

	proposals       map[uint64]map[cert.Hash]*types.Block // view -> hash -> block, for equivocation detection
	finishedPropose map[cert.Hash]bool
	voteEligible    map[cert.Hash]bool // opinion held at proposal-acceptance time; gates castVote

	blameQC *cert.Aggregator
	blamed  map[lib.ReplicaID]bool

	propagateEchos map[cert.Hash]*cert.Aggregator // blk_hash -> echo aggregator
	propagateAcks  map[cert.Hash]*cert.Aggregator
	propagated     map[cert.Hash]bool // blocks that completed the ack quorum

	lastQCRef cert.Hash

	// wait-points (§4.7), replaced with a fresh Promise each cycle
	qcFinish            map[cert.Hash]*Promise
	waitProposal        *Promise
	waitReceiveProposal *Promise
	hqcUpdateP          *Promise
	viewChangeP         *Promise
	viewTransP          *Promise
}

// NewEngine() wires a fresh engine rooted at genesis; the caller supplies the already-opened store
// (so a restarting replica can pass one repopulated from store/persist), the validator set, this
// replica's own BLS signing key, and the three collaborator interfaces.
func NewEngine(self lib.ReplicaID, cfg *lib.ReplicaConfig, vs *cert.ValidatorSet, priv crypto.PrivateKeyI,
	st *store.Store, logger lib.LoggerI, net Network, timer Timers, app Application,
	getProposer func() lib.ReplicaID) *Engine {
	g := st.Genesis()
	e := &Engine{
		self:        self,
		cfg:         cfg,
		vs:          vs,
		priv:        priv,
		store:       st,
		logger:      logger,
		net:         net,
		timer:       timer,
		app:         app,
		getProposer: getProposer,

		hqc:     hqcState{block: g, qc: g.QC},
		vheight: 0,
		view:    0,

		proposals:       map[uint64]map[cert.Hash]*types.Block{},
		finishedPropose: map[cert.Hash]bool{g.Hash: true},
		voteEligible:    map[cert.Hash]bool{g.Hash: true},

		blamed: map[lib.ReplicaID]bool{},

		propagateEchos: map[cert.Hash]*cert.Aggregator{},
		propagateAcks:  map[cert.Hash]*cert.Aggregator{},
		propagated:     map[cert.Hash]bool{g.Hash: true},

		lastQCRef: g.Hash,

		qcFinish:            map[cert.Hash]*Promise{},
		waitProposal:        NewPromise(),
		waitReceiveProposal: NewPromise(),
		hqcUpdateP:          NewPromise(),
		viewChangeP:         NewPromise(),
		viewTransP:          NewPromise(),
	}
	return e
}

// SetVoteDisabled() toggles the vote_disabled flag consulted by on_propose_propagated
func (e *Engine) SetVoteDisabled(disabled bool) { e.voteDisabled = disabled }

// View() returns the current view number
func (e *Engine) View() uint64 { return e.view }

// HQC() returns the highest known (block, QC) pair
func (e *Engine) HQC() (*types.Block, *cert.QuorumCert) { return e.hqc.block, e.hqc.qc }

// BExec() returns the last-executed block
func (e *Engine) BExec() *types.Block { return e.store.BExec() }

// Store() exposes the block store to collaborators (the pacemaker resolving a pre-commit timer's
// target hash, the transport resolving a proposal's parents) that need read access to delivered
// blocks without reaching into engine internals.
func (e *Engine) Store() *store.Store { return e.store }

// Self() returns this engine's own ReplicaID
func (e *Engine) Self() lib.ReplicaID { return e.self }

// InViewTransition() reports whether the replica is currently mid view-change
func (e *Engine) InViewTransition() bool { return e.viewTrans }

// isPinned() is the PinnedFunc the store's prune/try_release consult: a block is still referenced if
// it is hqc.block, b_exec, a DAG tail, or the subject of an in-flight certificate aggregator.
func (e *Engine) isPinned(h cert.Hash) bool {
	if h == e.hqc.block.Hash || h == e.store.BExec().Hash {
		return true
	}
	for _, t := range e.store.Tails() {
		if t.Hash == h {
			return true
		}
	}
	// an echo/ack aggregator lingers in its map after its round closes (late arrivals still need to
	// consult it for a lone-reply), so only an aggregator that has NOT yet reached quorum still
	// counts as in-flight; one that already closed must not pin its block forever.
	if agg, ok := e.propagateEchos[h]; ok && agg.Count() < e.vs.NMajority() {
		return true
	}
	if agg, ok := e.propagateAcks[h]; ok && agg.Count() < e.vs.NMajority() {
		return true
	}
	if b, ok := e.store.Find(h); ok && b.SelfQC != nil {
		return true
	}
	return false
}

// Prune() releases b_exec's ancestor staleness blocks back and every block reachable below it,
// never releasing anything still pinned by hqc/b_exec/tails/an in-flight aggregator.
func (e *Engine) Prune(staleness uint64) {
	e.store.Prune(staleness, e.isPinned)
}

// qcFinishPromise() returns the (possibly freshly created) one-shot for a block's echo quorum,
// resolving immediately for genesis or a block whose echoes already reached n-f.
func (e *Engine) qcFinishPromise(b *types.Block) *Promise {
	if p, ok := e.qcFinish[b.Hash]; ok {
		return p
	}
	p := NewPromise()
	e.qcFinish[b.Hash] = p
	if b.Hash == e.store.Genesis().Hash {
		p.Resolve(b)
	} else if agg, ok := e.propagateEchos[b.Hash]; ok && agg.Count() >= e.vs.NMajority() {
		p.Resolve(b)
	}
	return p
}

// WaitProposal() is the wait-point a pacemaker attaches to for this replica's own next proposal
func (e *Engine) WaitProposal() *Promise { return e.waitProposal }

// WaitReceiveProposal() is the wait-point for the next proposal heard from the network
func (e *Engine) WaitReceiveProposal() *Promise { return e.waitReceiveProposal }

// WaitHQCUpdate() is the wait-point for the next hqc advancement
func (e *Engine) WaitHQCUpdate() *Promise { return e.hqcUpdateP }

// WaitViewChange() is the wait-point fired once a view increment completes
func (e *Engine) WaitViewChange() *Promise { return e.viewChangeP }

// WaitViewTrans() is the wait-point fired on entering a view transition
func (e *Engine) WaitViewTrans() *Promise { return e.viewTransP }

// QCFinish() is the per-block wait-point for that block's echo quorum completing
func (e *Engine) QCFinish(b *types.Block) *Promise { return e.qcFinishPromise(b) }
