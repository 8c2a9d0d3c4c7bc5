package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/treasury/config"
)

func newConfigCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Default().SaveToFile(out); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", out)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&out, "out", "o", "./treasury.yaml", "destination path")

	cmd.AddCommand(initCmd)
	return cmd
}
