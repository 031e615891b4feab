package main

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "hotstuff", Short: "hotstuff runs a demo BFT consensus cluster"}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(keygenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
