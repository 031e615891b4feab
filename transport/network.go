package transport

import (
	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/core"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/pacemaker"
	"github.com/lucent-chain/hotstuff/types"
	"github.com/lucent-chain/hotstuff/verify"
)

// Network is the per-replica core.Network implementation backed by a Hub. For every message kind the
// engine already self-feeds explicitly before or after handing it to Network (OnReceiveEcho calls
// OnReceiveAck itself right after MulticastAck, _blame calls OnReceiveBlame before BroadcastBlame, and so
// on), this dispatches only to the other replicas — delivering to self too would re-run the handler a
// second time on a message the engine already processed inline. BroadcastProposal is the one
// exception (see below); the unicast Send* methods deliver to whatever target the engine names,
// including self, since the engine computes that target itself and nothing here should second-guess it.
type Network struct {
	hub    *Hub
	self   lib.ReplicaID
	pace   *pacemaker.Pacemaker
	vs     *cert.ValidatorSet
	vp     *verify.Pool
	logger lib.LoggerI
}

// NewNetwork() builds the Network a given replica's Engine will use to reach its peers through hub.
// pace is that same replica's own pacemaker, consulted only to resolve SendNotify's implicit
// recipient (the new view's leader), since core.Network's SendNotify carries no target parameter.
// vp is the asynchronous verification pool §5.2 requires messages carrying an aggregate certificate
// to clear before any engine acts on them; vs is the validator set that pool checks signatures against.
func NewNetwork(hub *Hub, self lib.ReplicaID, pace *pacemaker.Pacemaker, vs *cert.ValidatorSet,
	vp *verify.Pool, logger lib.LoggerI) *Network {
	return &Network{hub: hub, self: self, pace: pace, vs: vs, vp: vp, logger: logger}
}

var _ core.Network = (*Network)(nil)

func (n *Network) warn(kind string, id lib.ReplicaID, err lib.ErrorI) {
	if err != nil {
		n.logger.Warnf("replica %d rejected %s from %d: %s", id, kind, n.self, err.Error())
	}
}

// BroadcastProposal() reaches every replica including the sender: unlike every other broadcast the
// engine emits, on_propose never self-feeds on_receive_proposal directly (the proposer's own progress
// and wait_receive_proposal bookkeeping live in on_receive_proposal), so the transport has to close that
// loop itself rather than exclude self the way it does for every other outbound message.
//
// Every recipient other than the proposer gets its own block decoded fresh off the wire rather than
// the proposer's in-memory struct: blocks carry per-replica runtime bookkeeping (Voted, PreCommitted,
// SelfQC) that a real network boundary would never let two replicas share a pointer into.
func (n *Network) BroadcastProposal(p *types.Proposal) {
	bz := types.MarshalProposal(p)
	n.hub.dispatch(n.self, func(e *core.Engine) {
		n.warn("proposal", e.Self(), e.OnReceiveProposal(p))
	})
	n.hub.broadcast(n.self, func(e *core.Engine) {
		decoded, derr := types.UnmarshalProposal(bz)
		if derr != nil {
			n.warn("proposal", e.Self(), derr)
			return
		}
		n.warn("proposal", e.Self(), e.OnReceiveProposal(decoded))
	})
}

func (n *Network) BroadcastVote(v *types.Vote) {
	n.hub.broadcast(n.self, func(e *core.Engine) {
		n.warn("vote", e.Self(), e.OnReceiveVote(v))
	})
}

func (n *Network) BroadcastBlame(b *types.Blame) {
	n.hub.broadcast(n.self, func(e *core.Engine) {
		n.warn("blame", e.Self(), e.OnReceiveBlame(b))
	})
}

// BroadcastBlameNotify() carries an aggregate blame QC every recipient must verify before acting on
// it; that check runs once, off this goroutine, on the verification pool, and the broadcast itself is
// deferred until it resolves (§5.2: "the caller must not act on a message until verification resolves").
func (n *Network) BroadcastBlameNotify(bn *types.BlameNotify) {
	n.vp.VerifyQuorumAsync(bn.QC, n.vs).Then(func(v interface{}) {
		if verr := verify.Err(v); verr != nil {
			n.warn("blame-notify", n.self, verr)
			return
		}
		n.hub.broadcast(n.self, func(e *core.Engine) {
			n.warn("blame-notify", e.Self(), e.OnReceiveBlameNotify(bn))
		})
	})
}

func (n *Network) BroadcastEcho(ec *types.Echo) {
	n.hub.broadcast(n.self, func(e *core.Engine) {
		n.warn("echo", e.Self(), e.OnReceiveEcho(ec))
	})
}

func (n *Network) BroadcastAck(a *types.Ack) {
	n.hub.broadcast(n.self, func(e *core.Engine) {
		n.warn("ack", e.Self(), e.OnReceiveAck(a))
	})
}

// BroadcastPreCommit() gates delivery on the sender's partial certificate clearing the verification
// pool first, the same asynchronous check BroadcastBlameNotify runs for its aggregate QC.
func (n *Network) BroadcastPreCommit(pc *types.PreCommit) {
	n.vp.VerifyPartialAsync(pc.Cert, n.vs).Then(func(v interface{}) {
		if verr := verify.Err(v); verr != nil {
			n.warn("pre-commit", n.self, verr)
			return
		}
		n.hub.broadcast(n.self, func(e *core.Engine) {
			n.warn("pre-commit", e.Self(), e.OnReceivePreCommit(pc))
		})
	})
}

func (n *Network) MulticastAck(a *types.Ack, to []lib.ReplicaID) {
	n.hub.multicast(n.self, to, func(e *core.Engine) {
		n.warn("ack", e.Self(), e.OnReceiveAck(a))
	})
}

func (n *Network) SendAck(a *types.Ack, to lib.ReplicaID) {
	n.hub.dispatch(to, func(e *core.Engine) {
		n.warn("ack", e.Self(), e.OnReceiveAck(a))
	})
}

// SendEcho() delivers even when to == self: a non-commit-height block's propagate_blk addresses its
// lone echo at the current proposer, which is this replica itself whenever it is also the leader, and
// nothing else feeds that echo into its own aggregator.
func (n *Network) SendEcho(ec *types.Echo, to lib.ReplicaID) {
	n.hub.dispatch(to, func(e *core.Engine) {
		n.warn("echo", e.Self(), e.OnReceiveEcho(ec))
	})
}

// SendNotify() routes to the new view's leader, resolved from this replica's own pacemaker since the
// message carries no explicit recipient (§6 defines do_notify as addressed to "the new leader"). Its
// QC clears the verification pool before the leader's event loop ever sees it.
func (n *Network) SendNotify(no *types.Notify) {
	leader := n.pace.GetProposer()
	n.vp.VerifyQuorumAsync(no.QC, n.vs).Then(func(v interface{}) {
		if verr := verify.Err(v); verr != nil {
			n.warn("notify", n.self, verr)
			return
		}
		n.hub.dispatch(leader, func(e *core.Engine) {
			n.warn("notify", e.Self(), e.OnReceiveNotify(no))
		})
	})
}
