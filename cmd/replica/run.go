package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lucent-chain/hotstuff/cert"
	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/lib/crypto"
	"github.com/lucent-chain/hotstuff/metrics"
	"github.com/lucent-chain/hotstuff/transport"
)

var (
	runDataDir string
	runMetrics bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "run an in-process demo cluster of replicas driving the protocol against each other",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runDemo(); err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&runDataDir, "data-dir", "", "data directory root for each replica's persistence log (default $HOME/.hotstuff)")
	runCmd.Flags().BoolVar(&runMetrics, "metrics", true, "serve prometheus metrics")
}

// runDemo() builds a DefaultReplicaConfig()-sized cluster, generating a fresh BLS key per replica,
// and drives it by having the current view's leader propose against its own tails every delta.
func runDemo() error {
	logger := lib.NewDefaultLogger()
	cfg := lib.DefaultReplicaConfig()
	if runDataDir != "" {
		cfg.DataDirPath = runDataDir
	}

	keys := make(map[lib.ReplicaID]crypto.PrivateKeyI, cfg.NReplicas)
	cfg.Validators = make(map[lib.ReplicaID]string, cfg.NReplicas)
	for i := uint16(0); i < cfg.NReplicas; i++ {
		priv, err := crypto.NewBLSPrivateKey()
		if err != nil {
			return err
		}
		id := lib.ReplicaID(i)
		keys[id] = priv
		cfg.Validators[id] = priv.PublicKey().String()
	}

	vs, err := cert.NewValidatorSet(&cfg)
	if err != nil {
		return err
	}

	var srv *metrics.MetricsServer
	if runMetrics {
		mc := metrics.DefaultMetricsConfig()
		mc.Addr = cfg.MetricsAddress
		srv = metrics.NewMetricsServer(mc)
		go func() {
			if srv != nil {
				_ = srv.Start()
			}
		}()
	}

	hub := transport.NewHub()
	nodes := make([]*node, 0, cfg.NReplicas)
	for id, priv := range keys {
		n, err := newNode(id, &cfg, vs, priv, hub, logger)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
	}
	for _, n := range nodes {
		n.start()
	}

	ticker := time.NewTicker(time.Duration(cfg.DeltaMS) * time.Millisecond)
	defer ticker.Stop()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var seq uint64
	for {
		select {
		case <-ticker.C:
			driveLeader(nodes, &seq)
		case s := <-stop:
			logger.Infof("received signal %s, shutting down", s)
			for _, n := range nodes {
				n.stop()
			}
			if srv != nil {
				_ = srv.Stop()
			}
			return nil
		}
	}
}

// driveLeader() has whichever node is this view's leader propose one block over its current tails,
// using an incrementing counter as a stand-in command hash (this demo has no real command mempool).
func driveLeader(nodes []*node, seq *uint64) {
	for _, n := range nodes {
		if !n.pace.IsLeader() {
			continue
		}
		*seq++
		cmd := cert.HashBytes([]byte(fmt.Sprintf("cmd-%d", *seq)))
		parents := n.engine.Store().Tails()
		if len(parents) == 0 {
			return
		}
		_, _ = n.pace.ProposeWithRetry([]cert.Hash{cmd}, parents, nil)
		return
	}
}
