package core

import (
	"testing"
	"time"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/lib/crypto"
	"github.com/lucent-chain/hotstuff/store"
	"github.com/lucent-chain/hotstuff/types"
	"github.com/stretchr/testify/require"
)

// fabric is a deterministic stand-in for transport/: every Broadcast*/Send*/Multicast* call enqueues
// a closure instead of dispatching through a real goroutine per replica, and drain() runs the queue to
// completion (closures appended mid-drain keep draining), so a test gets one serialized, reproducible
// interleaving of what would otherwise be independent per-replica event loops.
type fabric struct {
	t       *testing.T
	engines map[lib.ReplicaID]*Engine
	queue   []func()

	blames      []*types.Blame
	blameNotify []*types.BlameNotify
	notifies    []*types.Notify
}

func newFabric(t *testing.T) *fabric {
	return &fabric{t: t, engines: map[lib.ReplicaID]*Engine{}}
}

func (f *fabric) register(id lib.ReplicaID, e *Engine) { f.engines[id] = e }

func (f *fabric) drain() {
	for len(f.queue) > 0 {
		next := f.queue[0]
		f.queue = f.queue[1:]
		next()
	}
}

// netFor builds the per-replica core.Network backed by this fabric
func (f *fabric) netFor(self lib.ReplicaID) Network { return &fabricNetwork{f: f, self: self} }

type fabricNetwork struct {
	f    *fabric
	self lib.ReplicaID
}

func (n *fabricNetwork) enqueueOthers(fn func(*Engine)) {
	for id, e := range n.f.engines {
		if id == n.self {
			continue
		}
		e := e
		n.f.queue = append(n.f.queue, func() { fn(e) })
	}
}

// BroadcastProposal re-decodes the block for every recipient other than the proposer, exactly the
// way transport/network.go does, so two replicas never alias the same Voted/PreCommitted/SelfQC state.
func (n *fabricNetwork) BroadcastProposal(p *types.Proposal) {
	if self, ok := n.f.engines[n.self]; ok {
		n.f.queue = append(n.f.queue, func() { _ = self.OnReceiveProposal(p) })
	}
	bz := types.MarshalProposal(p)
	n.enqueueOthers(func(e *Engine) {
		decoded, err := types.UnmarshalProposal(bz)
		require.NoError(n.f.t, err)
		_ = e.OnReceiveProposal(decoded)
	})
}

func (n *fabricNetwork) BroadcastVote(v *types.Vote) {
	n.enqueueOthers(func(e *Engine) { _ = e.OnReceiveVote(v) })
}

func (n *fabricNetwork) BroadcastBlame(b *types.Blame) {
	n.f.blames = append(n.f.blames, b)
	n.enqueueOthers(func(e *Engine) { _ = e.OnReceiveBlame(b) })
}

func (n *fabricNetwork) BroadcastBlameNotify(bn *types.BlameNotify) {
	n.f.blameNotify = append(n.f.blameNotify, bn)
	n.enqueueOthers(func(e *Engine) { _ = e.OnReceiveBlameNotify(bn) })
}

func (n *fabricNetwork) BroadcastEcho(ec *types.Echo) {
	n.enqueueOthers(func(e *Engine) { _ = e.OnReceiveEcho(ec) })
}

func (n *fabricNetwork) BroadcastAck(a *types.Ack) {
	n.enqueueOthers(func(e *Engine) { _ = e.OnReceiveAck(a) })
}

func (n *fabricNetwork) BroadcastPreCommit(pc *types.PreCommit) {
	n.enqueueOthers(func(e *Engine) { _ = e.OnReceivePreCommit(pc) })
}

func (n *fabricNetwork) MulticastAck(a *types.Ack, to []lib.ReplicaID) {
	for _, id := range to {
		if id == n.self {
			continue
		}
		e, ok := n.f.engines[id]
		if !ok {
			continue
		}
		n.f.queue = append(n.f.queue, func() { _ = e.OnReceiveAck(a) })
	}
}

func (n *fabricNetwork) SendAck(a *types.Ack, to lib.ReplicaID) {
	if e, ok := n.f.engines[to]; ok {
		e := e
		n.f.queue = append(n.f.queue, func() { _ = e.OnReceiveAck(a) })
	}
}

func (n *fabricNetwork) SendEcho(ec *types.Echo, to lib.ReplicaID) {
	if e, ok := n.f.engines[to]; ok {
		e := e
		n.f.queue = append(n.f.queue, func() { _ = e.OnReceiveEcho(ec) })
	}
}

func (n *fabricNetwork) SendNotify(no *types.Notify) {
	n.f.notifies = append(n.f.notifies, no)
}

// fakeTimers records every set/stop call but never fires anything; tests drive timeouts explicitly by
// calling the matching On*Timeout method themselves.
type fakeTimers struct {
	commitSet, propagateSet, ackSet, preCommitSet map[cert.Hash]bool
	blameSet, viewTransSet                        bool
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{
		commitSet:    map[cert.Hash]bool{},
		propagateSet: map[cert.Hash]bool{},
		ackSet:       map[cert.Hash]bool{},
		preCommitSet: map[cert.Hash]bool{},
	}
}

func (f *fakeTimers) SetCommitTimer(h cert.Hash, _ time.Duration)  { f.commitSet[h] = true }
func (f *fakeTimers) StopCommitTimer(h cert.Hash)                  { delete(f.commitSet, h) }
func (f *fakeTimers) SetBlameTimer(_ time.Duration)                { f.blameSet = true }
func (f *fakeTimers) StopBlameTimer()                              { f.blameSet = false }
func (f *fakeTimers) SetViewTransTimer(_ time.Duration)            { f.viewTransSet = true }
func (f *fakeTimers) StopViewTransTimer()                          { f.viewTransSet = false }
func (f *fakeTimers) SetPropagateTimer(h cert.Hash, _ time.Duration) { f.propagateSet[h] = true }
func (f *fakeTimers) StopPropagateTimer(h cert.Hash)                { delete(f.propagateSet, h) }
func (f *fakeTimers) IsPropagateTimeout(h cert.Hash) bool           { return false }
func (f *fakeTimers) SetAckTimer(h cert.Hash, _ time.Duration)     { f.ackSet[h] = true }
func (f *fakeTimers) StopAckTimer(h cert.Hash)                     { delete(f.ackSet, h) }
func (f *fakeTimers) IsAckTimeout(h cert.Hash) bool                { return false }
func (f *fakeTimers) SetPreCommitTimer(h cert.Hash, _ time.Duration) { f.preCommitSet[h] = true }
func (f *fakeTimers) StopPreCommitTimer(h cert.Hash)                { delete(f.preCommitSet, h) }

var _ Timers = (*fakeTimers)(nil)

// fakeApp records every decision and committed block, in the order the engine reports them.
type fakeApp struct {
	decided    []*types.Finality
	consensus  []*types.Block
}

func (a *fakeApp) DoDecide(f *types.Finality)  { a.decided = append(a.decided, f) }
func (a *fakeApp) DoConsensus(b *types.Block)  { a.consensus = append(a.consensus, b) }

var _ Application = (*fakeApp)(nil)

// testCluster bundles n wired replicas sharing one fabric, a fixed leader (replica 0, matching
// pacemaker's default round-robin start), and per-replica collaborator doubles for direct inspection.
type testCluster struct {
	f       *fabric
	engines map[lib.ReplicaID]*Engine
	timers  map[lib.ReplicaID]*fakeTimers
	apps    map[lib.ReplicaID]*fakeApp
	vs      *cert.ValidatorSet
	leader  lib.ReplicaID
}

func buildTestCluster(t *testing.T, n, f int) *testCluster {
	t.Helper()
	cfg := &lib.ReplicaConfig{
		NReplicas:      uint16(n),
		NFaulty:        uint16(f),
		DeltaMS:        100,
		CommitInterval: 1,
		PruneStaleness: 3,
		Validators:     make(map[lib.ReplicaID]string, n),
	}
	privs := make([]crypto.PrivateKeyI, n)
	for i := 0; i < n; i++ {
		priv, err := crypto.NewBLSPrivateKey()
		require.NoError(t, err)
		privs[i] = priv
		cfg.Validators[lib.ReplicaID(i)] = priv.PublicKey().String()
	}
	vs, err := cert.NewValidatorSet(cfg)
	require.NoError(t, err)

	fab := newFabric(t)
	leader := lib.ReplicaID(0)
	getProposer := func() lib.ReplicaID { return leader }

	tc := &testCluster{
		f:       fab,
		engines: map[lib.ReplicaID]*Engine{},
		timers:  map[lib.ReplicaID]*fakeTimers{},
		apps:    map[lib.ReplicaID]*fakeApp{},
		vs:      vs,
		leader:  leader,
	}
	for i := 0; i < n; i++ {
		id := lib.ReplicaID(i)
		genesis := types.NewGenesis()
		st := store.NewStore(genesis, lib.NewNullLogger())
		timer := newFakeTimers()
		app := &fakeApp{}
		e := NewEngine(id, cfg, vs, privs[i], st, lib.NewNullLogger(), fab.netFor(id), timer, app, getProposer)
		fab.register(id, e)
		tc.engines[id] = e
		tc.timers[id] = timer
		tc.apps[id] = app
	}
	return tc
}

// mustVote/mustEcho build a message exactly the way the engine itself would, for tests that feed a
// replica's own handlers directly rather than going through OnPropose/propagateBlk.
func mustVote(e *Engine, b *types.Block) *types.Vote {
	part := cert.SignPartialCert(e.self, cert.KindVote, b.Hash.Bytes(), e.priv)
	return &types.Vote{Voter: e.self, BlkHash: b.Hash, Cert: part}
}

func mustEcho(e *Engine, b *types.Block) *types.Echo {
	part := cert.SignPartialCert(e.self, cert.KindPropagate, b.Hash.Bytes(), e.priv)
	return &types.Echo{Rid: e.self, BlkHash: b.Hash, Opcode: types.PropagateBlock, Cert: part}
}

// proposeAndPropagate has the leader build a block over parents and drains the fabric until every
// replica's echo/ack round for it settles.
func (tc *testCluster) proposeAndPropagate(t *testing.T, cmds []cert.Hash, parents []*types.Block) *types.Block {
	t.Helper()
	b, err := tc.engines[tc.leader].OnPropose(cmds, parents, nil)
	require.NoError(t, err)
	tc.f.drain()
	return b
}
