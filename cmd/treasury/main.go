package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Optional .env for local overrides; absence is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "treasury",
		Short: "Treasury automator: scheduled USDC->ETH conversion",
	}

	root.AddCommand(
		newSimrunCmd(),
		newJournalCmd(),
		newConfigCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
