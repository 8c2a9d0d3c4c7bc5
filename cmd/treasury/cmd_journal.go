package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/treasury/chain"
	"github.com/rustyeddy/treasury/journal"
)

func newJournalCmd() *cobra.Command {
	var dbPath string
	var limit int
	var decimals int32

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Query the execution journal",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "./treasury.sqlite", "path to SQLite journal DB")

	executions := &cobra.Command{
		Use:   "executions",
		Short: "List recent conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.NewSQLite(dbPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer j.Close()

			recs, err := j.ListExecutions(limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tAMOUNT IN\tAMOUNT OUT (wei)\tID")
			for _, rec := range recs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					rec.Time.Format(time.RFC3339),
					chain.FormatUnits(rec.AmountIn, decimals),
					rec.AmountOut.String(),
					rec.ID,
				)
			}
			return w.Flush()
		},
	}
	executions.Flags().IntVarP(&limit, "limit", "n", 20, "max records")
	executions.Flags().Int32Var(&decimals, "decimals", 6, "input asset decimal precision")

	totals := &cobra.Command{
		Use:   "totals",
		Short: "Show lifetime converted totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := journal.NewSQLite(dbPath)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer j.Close()

			in, out, err := j.Totals()
			if err != nil {
				return err
			}
			fmt.Printf("input spent:     %s base units\n", in)
			fmt.Printf("native received: %s wei\n", out)
			return nil
		},
	}

	cmd.AddCommand(executions, totals)
	return cmd
}
