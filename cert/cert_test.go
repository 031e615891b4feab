package cert

import (
	"testing"

	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/lib/crypto"
	"github.com/stretchr/testify/require"
)

// buildTestValidatorSet creates n replicas each with a fresh BLS key and returns the set plus
// the private keys indexed the same way as cfg.OrderedReplicas()
func buildTestValidatorSet(t *testing.T, n, f int) (*ValidatorSet, []crypto.PrivateKeyI, *lib.ReplicaConfig) {
	t.Helper()
	cfg := &lib.ReplicaConfig{
		NReplicas:  uint16(n),
		NFaulty:    uint16(f),
		Validators: make(map[lib.ReplicaID]string, n),
	}
	privs := make([]crypto.PrivateKeyI, n)
	for i := 0; i < n; i++ {
		priv, err := crypto.NewBLSPrivateKey()
		require.NoError(t, err)
		privs[i] = priv
		cfg.Validators[lib.ReplicaID(i)] = priv.PublicKey().String()
	}
	vs, err := NewValidatorSet(cfg)
	require.NoError(t, err)
	return vs, privs, cfg
}

func TestAggregatorReachesQuorum(t *testing.T) {
	vs, privs, _ := buildTestValidatorSet(t, 4, 1)
	payload := []byte("block-hash-payload")
	obj := ObjHash(KindVote, payload)

	agg, err := NewAggregator(KindVote, obj, vs)
	require.NoError(t, err)

	var closed bool
	for i := 0; i < vs.NMajority(); i++ {
		part := SignPartialCert(lib.ReplicaID(i), KindVote, payload, privs[i])
		var aerr lib.ErrorI
		closed, aerr = agg.AddPart(part)
		require.Nil(t, aerr)
	}
	require.True(t, closed)

	qc, qerr := agg.Compute()
	require.Nil(t, qerr)
	require.Nil(t, qc.Verify(vs))
	require.Equal(t, vs.NMajority(), popcount(qc.Bitmap))
}

func TestAggregatorRejectsDuplicateSigner(t *testing.T) {
	vs, privs, _ := buildTestValidatorSet(t, 4, 1)
	payload := []byte("dup-payload")
	obj := ObjHash(KindBlame, payload)

	agg, err := NewAggregator(KindBlame, obj, vs)
	require.NoError(t, err)

	part := SignPartialCert(0, KindBlame, payload, privs[0])
	_, aerr := agg.AddPart(part)
	require.Nil(t, aerr)

	_, aerr = agg.AddPart(part)
	require.NotNil(t, aerr)
	require.Equal(t, lib.CodeDuplicateVoter, aerr.Code())
}

func TestAggregatorRejectsWrongObjHash(t *testing.T) {
	vs, privs, _ := buildTestValidatorSet(t, 4, 1)
	obj := ObjHash(KindPropagate, []byte("a"))
	agg, err := NewAggregator(KindPropagate, obj, vs)
	require.NoError(t, err)

	badPart := SignPartialCert(0, KindPropagate, []byte("b"), privs[0])
	_, aerr := agg.AddPart(badPart)
	require.NotNil(t, aerr)
	require.Equal(t, lib.CodeObjHashMismatch, aerr.Code())
}

func TestAggregatorComputeFailsBelowThreshold(t *testing.T) {
	vs, privs, _ := buildTestValidatorSet(t, 4, 1)
	payload := []byte("short")
	obj := ObjHash(KindPreCommit, payload)

	agg, err := NewAggregator(KindPreCommit, obj, vs)
	require.NoError(t, err)

	// one signer short of NMajority (3)
	part := SignPartialCert(0, KindPreCommit, payload, privs[0])
	_, aerr := agg.AddPart(part)
	require.Nil(t, aerr)
	part2 := SignPartialCert(1, KindPreCommit, payload, privs[1])
	_, aerr = agg.AddPart(part2)
	require.Nil(t, aerr)

	_, cerr := agg.Compute()
	require.NotNil(t, cerr)
}

func TestPartialCertVerifyRejectsTamperedSignature(t *testing.T) {
	vs, privs, _ := buildTestValidatorSet(t, 4, 1)
	part := SignPartialCert(0, KindVote, []byte("x"), privs[0])
	part.Sig[0] ^= 0xFF
	require.NotNil(t, part.Verify(vs))
}

func TestHashRoundTrip(t *testing.T) {
	h := HashBytes([]byte("hello world"))
	back, ok := HashFromBytes(h.Bytes())
	require.True(t, ok)
	require.Equal(t, h, back)
	require.False(t, h.IsZero())
}
