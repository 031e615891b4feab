package core

import (
	"time"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/types"
)

// Network is the outbound messaging surface a transport collaborator must implement (§6 "Outbound").
type Network interface {
	BroadcastProposal(*types.Proposal)
	BroadcastVote(*types.Vote)
	BroadcastBlame(*types.Blame)
	BroadcastBlameNotify(*types.BlameNotify)
	BroadcastEcho(*types.Echo)
	BroadcastAck(*types.Ack)
	BroadcastPreCommit(*types.PreCommit)
	MulticastAck(ack *types.Ack, to []lib.ReplicaID)
	SendAck(ack *types.Ack, to lib.ReplicaID)
	SendEcho(echo *types.Echo, to lib.ReplicaID)
	SendNotify(n *types.Notify)
}

// Timers is the timer control surface §5.2/§6 requires: set/stop pairs per timer kind, plus the two
// late-fire predicates the propagation pipeline consults (is_propagate_timeout/is_ack_timeout).
type Timers interface {
	SetCommitTimer(blkHash cert.Hash, d time.Duration)
	StopCommitTimer(blkHash cert.Hash)
	SetBlameTimer(d time.Duration)
	StopBlameTimer()
	SetViewTransTimer(d time.Duration)
	StopViewTransTimer()
	SetPropagateTimer(blkHash cert.Hash, d time.Duration)
	StopPropagateTimer(blkHash cert.Hash)
	IsPropagateTimeout(blkHash cert.Hash) bool
	SetAckTimer(blkHash cert.Hash, d time.Duration)
	StopAckTimer(blkHash cert.Hash)
	IsAckTimeout(blkHash cert.Hash) bool
	SetPreCommitTimer(blkHash cert.Hash, d time.Duration)
	StopPreCommitTimer(blkHash cert.Hash)
}

// Application is the decision-reporting surface: do_decide emits one Finality per committed command,
// do_consensus reports a committed block once, in commit order.
type Application interface {
	DoDecide(f *types.Finality)
	DoConsensus(b *types.Block)
}
