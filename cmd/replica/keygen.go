package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lucent-chain/hotstuff/lib"
	"github.com/lucent-chain/hotstuff/lib/crypto"
)

var keygenOut string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "generate a BLS12-381 validator key and print its hex public key",
	Run: func(cmd *cobra.Command, args []string) {
		priv, err := crypto.NewBLSPrivateKey()
		if err != nil {
			fmt.Println(err)
			return
		}
		path := keygenOut
		if path == "" {
			path = filepath.Join(lib.DefaultDataDirPath(), lib.ValKeyPath)
		}
		if err = crypto.PrivateKeyToFile(priv, path); err != nil {
			fmt.Println(err)
			return
		}
		fmt.Printf("wrote private key to %s\npublic key: %s\n", path, priv.PublicKey().String())
	},
}

func init() {
	keygenCmd.Flags().StringVar(&keygenOut, "out", "", "output path for the private key file (default $HOME/.hotstuff/bls_key.json)")
}
