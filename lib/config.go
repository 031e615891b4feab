package lib

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

/* This file implements logic for the 'user controlled' configuration of a single replica */

const (
	// FILE NAMES in the 'data directory'
	ConfigFilePath = "config.json" // the file path for the replica configuration
	ValKeyPath     = "bls_key.json"
	DataDirName    = ".hotstuff"
)

// ReplicaID is a validator's index into ReplicaConfig.Validators, matching the wire format's u16 signer fields
type ReplicaID uint16

// ReplicaConfig is the structure of the user configuration options for a single consensus replica
type ReplicaConfig struct {
	LogLevel       string               `json:"logLevel"`       // debug < info < warning < error
	NetworkID      uint64               `json:"networkID"`      // the identifier of the network this replica participates in
	Self           ReplicaID            `json:"self"`           // this replica's own id
	NReplicas      uint16               `json:"nReplicas"`      // n = 3f+1
	NFaulty        uint16               `json:"nFaulty"`        // f
	DeltaMS        int                  `json:"deltaMS"`        // delta, the protocol timing unit, in milliseconds
	CommitInterval uint64               `json:"commitInterval"` // height modulus at which a block is a 'commit height'
	PruneStaleness uint64               `json:"pruneStaleness"` // ancestors walked back from b_exec before pruning
	Validators     map[ReplicaID]string `json:"validators"`      // ReplicaID -> hex BLS12-381 public key
	DataDirPath    string               `json:"dataDirPath"`     // where the optional badger persistence log lives
	MetricsEnabled bool                 `json:"metricsEnabled"`
	MetricsAddress string               `json:"metricsAddress"`
}

// NMajority() is the quorum size n-f required to form a QC
func (c *ReplicaConfig) NMajority() uint16 { return c.NReplicas - c.NFaulty }

// DeltaSeconds() returns the protocol timing unit as a duration-friendly float of seconds
func (c *ReplicaConfig) DeltaSeconds() float64 { return float64(c.DeltaMS) / 1000.0 }

// OrderedReplicas() returns the validator set's ReplicaIDs in ascending order, used by round-robin proposer rotation
func (c *ReplicaConfig) OrderedReplicas() []ReplicaID {
	ids := make([]ReplicaID, 0, len(c.Validators))
	for id := range c.Validators {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// DefaultReplicaConfig() returns a ReplicaConfig with developer set options for a 4-replica (f=1) demo cluster
func DefaultReplicaConfig() ReplicaConfig {
	return ReplicaConfig{
		LogLevel:       "info",
		NetworkID:      1,
		NReplicas:      4,
		NFaulty:        1,
		DeltaMS:        1000, // 1 second protocol timing unit
		CommitInterval: 1,    // every block is a commit-height block by default
		PruneStaleness: 3,
		Validators:     map[ReplicaID]string{},
		DataDirPath:    DefaultDataDirPath(),
		MetricsEnabled: true,
		MetricsAddress: "0.0.0.0:9090",
	}
}

// GetLogLevel() parses the log string in the config file into a LogLevel enum
func (c *ReplicaConfig) GetLogLevel() int32 {
	switch {
	case strings.Contains(strings.ToLower(c.LogLevel), "deb"):
		return DebugLevel
	case strings.Contains(strings.ToLower(c.LogLevel), "war"):
		return WarnLevel
	case strings.Contains(strings.ToLower(c.LogLevel), "err"):
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// DefaultDataDirPath() is $USERHOME/.hotstuff
func DefaultDataDirPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return filepath.Join(home, DataDirName)
}

// WriteToFile() saves the ReplicaConfig to a JSON file
func (c ReplicaConfig) WriteToFile(filepath string) error {
	jsonBytes, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath, jsonBytes, os.ModePerm)
}

// NewConfigFromFile() populates a ReplicaConfig from a JSON file, filling any blanks with the default
func NewConfigFromFile(filepath string) (ReplicaConfig, error) {
	fileBytes, err := os.ReadFile(filepath)
	if err != nil {
		return ReplicaConfig{}, err
	}
	c := DefaultReplicaConfig()
	if err = json.Unmarshal(fileBytes, &c); err != nil {
		return ReplicaConfig{}, err
	}
	return c, nil
}
