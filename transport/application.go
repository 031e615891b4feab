package transport

import (
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/metrics"
	"github.com/lucent-chain/hotstuff/types"
)

// LogApplication is the minimal core.Application the demo CLI and scenario tests wire in: it has no
// ledger of its own, it just logs every decision and pushes the consensus-domain gauges/counters.
type LogApplication struct {
	self   lib.ReplicaID
	logger lib.LoggerI
}

// NewLogApplication() builds a logging-only Application for the given replica
func NewLogApplication(self lib.ReplicaID, logger lib.LoggerI) *LogApplication {
	return &LogApplication{self: self, logger: logger}
}

// DoDecide() implements do_decide: logs one line per finalized or rejected command
func (a *LogApplication) DoDecide(f *types.Finality) {
	if f.Decision == types.DecisionCommitted {
		a.logger.Infof("replica %d: committed cmd %s (height %d, block %s)", a.self, f.CmdHash, f.CmdHeight, f.BlkHash)
		return
	}
	a.logger.Infof("replica %d: rejected cmd %s (height %d)", a.self, f.CmdHash, f.CmdHeight)
}

// DoConsensus() implements do_consensus: logs the newly-committed block and advances the commit gauge
func (a *LogApplication) DoConsensus(b *types.Block) {
	a.logger.Infof("replica %d: consensus on block %s at height %d", a.self, b.Hash, b.Height)
	metrics.SetLastCommitHeight(b.Height)
	metrics.IncCommits()
}
