package core

import (
	"testing"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/types"
	"github.com/stretchr/testify/require"
)

// TestHappyPathTwoBlocksCommit drives a 4-replica cluster (n=4, f=1) through two proposals: the first
// block's echo/ack/vote round advances every replica's hqc to it, and the second block (carrying that
// hqc as its qc_ref) arms the pre-commit timer that, once fired on enough replicas, commits block one.
func TestHappyPathTwoBlocksCommit(t *testing.T) {
	tc := buildTestCluster(t, 4, 1)
	leader := tc.engines[tc.leader]
	genesis := leader.Store().Genesis()

	cmd1 := cert.HashBytes([]byte("cmd-1"))
	b1 := tc.proposeAndPropagate(t, []cert.Hash{cmd1}, []*types.Block{genesis})

	for id, e := range tc.engines {
		_, ok := e.Store().Find(b1.Hash)
		require.True(t, ok, "replica %d should have delivered block 1", id)
		hqcBlk, _ := e.HQC()
		require.Equal(t, b1.Hash, hqcBlk.Hash, "replica %d should have advanced hqc to block 1", id)
	}

	cmd2 := cert.HashBytes([]byte("cmd-2"))
	b1AtLeader, _ := leader.Store().Find(b1.Hash)
	b2 := tc.proposeAndPropagate(t, []cert.Hash{cmd2}, []*types.Block{b1AtLeader})
	require.True(t, b2.HasQC(), "block 2 should carry a qc_ref now that hqc has advanced past genesis")
	require.Equal(t, b1.Hash, b2.QCRefHash)

	for _, e := range tc.engines {
		blk, ok := e.Store().Find(b1.Hash)
		require.True(t, ok)
		e.OnPreCommitTimeout(blk)
	}
	tc.f.drain()

	for id, e := range tc.engines {
		require.Equal(t, b1.Hash, e.BExec().Hash, "replica %d should have committed block 1", id)
		app := tc.apps[id]
		require.Len(t, app.consensus, 1)
		require.Equal(t, b1.Hash, app.consensus[0].Hash)
		require.Len(t, app.decided, 1)
		require.Equal(t, cmd1, app.decided[0].CmdHash)
	}
}

// TestDuplicateVoteIsRejected confirms a second vote from the same replica on the same block is
// dropped rather than double-counted toward the quorum.
func TestDuplicateVoteIsRejected(t *testing.T) {
	tc := buildTestCluster(t, 4, 1)
	leader := tc.engines[tc.leader]
	genesis := leader.Store().Genesis()

	cmd := cert.HashBytes([]byte("cmd"))
	b, err := leader.OnPropose([]cert.Hash{cmd}, []*types.Block{genesis}, nil)
	require.NoError(t, err)

	vote := mustVote(leader, b)
	require.Nil(t, leader.OnReceiveVote(vote))
	err2 := leader.OnReceiveVote(vote)
	require.NotNil(t, err2)
}

// TestDuplicateEchoDoesNotDoubleRelay confirms a second echo from the same sender for a hash this
// replica has already relayed is rejected rather than triggering a second relay broadcast.
func TestDuplicateEchoDoesNotDoubleRelay(t *testing.T) {
	tc := buildTestCluster(t, 4, 1)
	leader := tc.engines[tc.leader]
	genesis := leader.Store().Genesis()
	other := tc.engines[lib.ReplicaID(1)]

	cmd := cert.HashBytes([]byte("cmd"))
	b, err := leader.OnPropose([]cert.Hash{cmd}, []*types.Block{genesis}, nil)
	require.NoError(t, err)

	echo := mustEcho(leader, b)
	require.Nil(t, other.OnReceiveEcho(echo))
	beforeQueueLen := len(tc.f.queue)
	require.NotNil(t, other.OnReceiveEcho(echo))
	require.Equal(t, beforeQueueLen, len(tc.f.queue), "a rejected duplicate echo must not enqueue a second relay")
}
