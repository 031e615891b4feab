package main

import (
	"fmt"
	"path/filepath"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/core"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/lib/crypto"
	"github.com/lucent-chain/hotstuff/pacemaker"
	"github.com/lucent-chain/hotstuff/store"
	"github.com/lucent-chain/hotstuff/store/persist"
	"github.com/lucent-chain/hotstuff/transport"
	"github.com/lucent-chain/hotstuff/types"
	"github.com/lucent-chain/hotstuff/verify"
)

// node bundles one replica's full collaborator stack, wired the way a restarting process would: a
// store seeded from its persistence log, a pacemaker-driven event loop, a verification pool, and the
// hub-backed network that reaches its peers.
type node struct {
	id     lib.ReplicaID
	engine *core.Engine
	pace   *pacemaker.Pacemaker
	net    *transport.Network
	vp     *verify.Pool
	log    *persist.Log
}

// newNode() constructs and registers one replica into hub, replaying any persisted blocks first
func newNode(id lib.ReplicaID, cfg *lib.ReplicaConfig, vs *cert.ValidatorSet, priv crypto.PrivateKeyI,
	hub *transport.Hub, logger lib.LoggerI) (*node, error) {
	genesis := types.NewGenesis()
	st := store.NewStore(genesis, logger)

	var plog *persist.Log
	if cfg.DataDirPath != "" {
		dir := filepath.Join(cfg.DataDirPath, fmt.Sprintf("replica-%d", id))
		l, err := persist.Open(dir, logger)
		if err != nil {
			return nil, err
		}
		if err = l.Replay(func(raw []byte) error {
			blk, derr := types.UnmarshalBlock(raw)
			if derr != nil {
				return derr
			}
			st.AddBlk(blk)
			return nil
		}); err != nil {
			return nil, err
		}
		st.SetPersister(l)
		plog = l
	}

	pace := pacemaker.New(id, cfg, logger)
	vp := verify.New(2)
	net := transport.NewNetwork(hub, id, pace, vs, vp, logger)
	app := transport.NewLogApplication(id, logger)

	engine := core.NewEngine(id, cfg, vs, priv, st, logger, net, pace, app, pace.GetProposer)
	pace.SetEngine(engine)

	hub.Register(&transport.Replica{ID: id, Engine: engine, Pace: pace})

	return &node{id: id, engine: engine, pace: pace, net: net, vp: vp, log: plog}, nil
}

func (n *node) start() { go n.pace.Run() }

func (n *node) stop() {
	n.pace.Stop()
	n.vp.Stop()
	if n.log != nil {
		_ = n.log.Close()
	}
}
