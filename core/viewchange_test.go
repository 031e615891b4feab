package core

import (
	"testing"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/types"
	"github.com/stretchr/testify/require"
)

// TestBlameQuorumTriggersViewChange has n-f replicas blame the current view and confirms every
// replica that observes the resulting blame-notify enters view transition and, once its own
// transition timer fires, advances its view and notifies the new leader of its hqc.
func TestBlameQuorumTriggersViewChange(t *testing.T) {
	tc := buildTestCluster(t, 4, 1)

	blamers := []lib.ReplicaID{0, 1, 2} // n-f = 3
	for _, id := range blamers {
		tc.engines[id]._blame()
	}
	tc.f.drain()

	for id, e := range tc.engines {
		require.True(t, e.InViewTransition(), "replica %d should have entered view transition", id)
	}
	require.NotEmpty(t, tc.f.blameNotify)

	for _, e := range tc.engines {
		e.OnViewTransTimeout()
	}

	for id, e := range tc.engines {
		require.Equal(t, uint64(1), e.View(), "replica %d should have advanced to view 1", id)
		require.False(t, e.InViewTransition())
	}
	require.Len(t, tc.f.notifies, len(tc.engines), "every replica should have notified the new leader")
}

// TestBlameIsIdempotentPerReplica confirms a replica that has already blamed this view does not blame
// again, and that a duplicate blame from the same blamer is rejected rather than double-counted.
func TestBlameIsIdempotentPerReplica(t *testing.T) {
	tc := buildTestCluster(t, 4, 1)
	e := tc.engines[lib.ReplicaID(0)]

	e._blame()
	require.Len(t, tc.f.blames, 1)
	e._blame()
	require.Len(t, tc.f.blames, 1, "a replica must not blame twice in the same view")

	dup := tc.f.blames[0]
	err := tc.engines[lib.ReplicaID(1)].OnReceiveBlame(dup)
	require.Nil(t, err)
	err2 := tc.engines[lib.ReplicaID(1)].OnReceiveBlame(dup)
	require.NotNil(t, err2)
	require.Equal(t, lib.CodeDuplicateBlamer, err2.Code())
}

// TestOnReceiveNotifyAdoptsHigherHQC confirms a new-view leader that receives a peer's notify adopts
// that peer's hqc when it is strictly higher than its own, and ignores one for a block it hasn't seen.
func TestOnReceiveNotifyAdoptsHigherHQC(t *testing.T) {
	tc := buildTestCluster(t, 4, 1)
	leader := tc.engines[tc.leader]
	other := tc.engines[lib.ReplicaID(1)]
	genesis := leader.Store().Genesis()

	cmd := cert.HashBytes([]byte("cmd"))
	b1 := tc.proposeAndPropagate(t, []cert.Hash{cmd}, []*types.Block{genesis})

	leaderHQC, leaderQC := leader.HQC()
	require.Equal(t, b1.Hash, leaderHQC.Hash)

	// simulate other having missed the vote round entirely: roll it back to genesis before notifying it
	otherGenesis := other.Store().Genesis()
	other.hqc = hqcState{block: otherGenesis, qc: otherGenesis.QC}
	otherBlk, ok := other.Store().Find(b1.Hash)
	require.True(t, ok)
	require.Nil(t, other.OnReceiveNotify(&types.Notify{BlkHash: otherBlk.Hash, QC: leaderQC}))
	otherHQC, _ := other.HQC()
	require.Equal(t, b1.Hash, otherHQC.Hash, "a notify carrying a higher hqc must be adopted")

	unknown := cert.HashBytes([]byte("unknown-block"))
	require.Nil(t, other.OnReceiveNotify(&types.Notify{BlkHash: unknown, QC: leaderQC}))
	otherHQCAfter, _ := other.HQC()
	require.Equal(t, b1.Hash, otherHQCAfter.Hash, "a notify for an undelivered block must be ignored")
}
