package core

import (
	"testing"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/types"
	"github.com/stretchr/testify/require"
)

// TestEquivocationTriggersBlame has the leader's two distinct blocks at the same height delivered to
// one replica; the second delivery must be detected as equivocation and trigger that replica's blame.
func TestEquivocationTriggersBlame(t *testing.T) {
	tc := buildTestCluster(t, 4, 1)
	leader := tc.engines[tc.leader]
	victim := tc.engines[lib.ReplicaID(2)]
	genesis := leader.Store().Genesis()

	cmdA := cert.HashBytes([]byte("fork-a"))
	cmdB := cert.HashBytes([]byte("fork-b"))
	blkA, err := leader.OnPropose([]cert.Hash{cmdA}, []*types.Block{genesis}, nil)
	require.NoError(t, err)
	// a second, independently-built block at the same height, forcing a distinct hash
	blkB := &types.Block{
		ParentHashes: []cert.Hash{genesis.Hash},
		Cmds:         []cert.Hash{cmdB},
		Height:       1,
		Voted:        map[uint16]bool{},
		PreCommitted: map[uint16]bool{},
	}
	blkB.Hash = cert.HashBytes(types.MarshalBlockBody(blkB))
	blkB.Parents = []*types.Block{genesis}
	blkB.Delivered = true

	require.Nil(t, victim.OnReceiveProposal(&types.Proposal{Proposer: tc.leader, Block: blkA}))
	require.Nil(t, victim.OnReceiveProposal(&types.Proposal{Proposer: tc.leader, Block: blkB}))

	require.NotEmpty(t, tc.f.blames, "equivocation at height 1 should have produced a blame")
	require.Equal(t, lib.ReplicaID(2), tc.f.blames[0].Blamer)
	require.False(t, victim.shouldVote(blkA), "a poisoned height must refuse to vote for either fork")
	require.False(t, victim.shouldVote(blkB))
}

// TestCheckCommitRejectsDisconnectedChain confirms the commit rule refuses a block whose parent0
// chain cannot be walked back to b_exec, surfacing a safety-violation error rather than committing.
func TestCheckCommitRejectsDisconnectedChain(t *testing.T) {
	tc := buildTestCluster(t, 4, 1)
	e := tc.engines[tc.leader]

	floating := &types.Block{Height: 5, Hash: cert.HashBytes([]byte("floating"))}
	err := e.checkCommit(floating)
	require.NotNil(t, err)
	require.Equal(t, lib.CodeSafetyViolation, err.Code())
	require.Equal(t, e.Store().Genesis().Hash, e.BExec().Hash, "a rejected commit must not move b_exec")
}

// TestUpdateHQCIsMonotone confirms update_hqc refuses a QC for a block no higher than the current hqc.
func TestUpdateHQCIsMonotone(t *testing.T) {
	tc := buildTestCluster(t, 4, 1)
	e := tc.engines[tc.leader]
	genesis := e.Store().Genesis()

	accepted := e.updateHQC(genesis, genesis.QC)
	require.False(t, accepted, "genesis is already hqc.block; re-accepting it would not be monotone")
}
