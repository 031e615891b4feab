package core

import (
	"testing"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/types"
	"github.com/stretchr/testify/require"
)

// TestPruneReleasesStaleAncestorsButKeepsPinned drives the leader through three blocks, commits the
// first two, and confirms Prune(0) releases the committed-but-now-stale block one while b_exec (block
// two) and genesis stay resolvable.
func TestPruneReleasesStaleAncestorsButKeepsPinned(t *testing.T) {
	tc := buildTestCluster(t, 4, 1)
	leader := tc.engines[tc.leader]
	genesis := leader.Store().Genesis()

	b1 := tc.proposeAndPropagate(t, []cert.Hash{cert.HashBytes([]byte("cmd-1"))}, []*types.Block{genesis})
	b1AtLeader, _ := leader.Store().Find(b1.Hash)
	b2 := tc.proposeAndPropagate(t, []cert.Hash{cert.HashBytes([]byte("cmd-2"))}, []*types.Block{b1AtLeader})
	b2AtLeader, _ := leader.Store().Find(b2.Hash)
	b3 := tc.proposeAndPropagate(t, []cert.Hash{cert.HashBytes([]byte("cmd-3"))}, []*types.Block{b2AtLeader})
	require.NotNil(t, b3)

	for _, e := range tc.engines {
		blk, ok := e.Store().Find(b1.Hash)
		require.True(t, ok)
		e.OnPreCommitTimeout(blk)
	}
	tc.f.drain()
	for id, e := range tc.engines {
		require.Equal(t, b1.Hash, e.BExec().Hash, "replica %d should have committed block 1", id)
	}

	for _, e := range tc.engines {
		blk, ok := e.Store().Find(b2.Hash)
		require.True(t, ok)
		e.OnPreCommitTimeout(blk)
	}
	tc.f.drain()
	for id, e := range tc.engines {
		require.Equal(t, b2.Hash, e.BExec().Hash, "replica %d should have committed block 2", id)
	}

	leader.Prune(0)

	_, stillHasB1 := leader.Store().Find(b1.Hash)
	require.False(t, stillHasB1, "block 1 is no longer pinned once block 2 is b_exec and should be released")

	_, stillHasB2 := leader.Store().Find(b2.Hash)
	require.True(t, stillHasB2, "b_exec itself must never be released")

	_, stillHasGenesis := leader.Store().Find(genesis.Hash)
	require.True(t, stillHasGenesis, "genesis must never be released")
}
