package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/treasury/automator"
	"github.com/rustyeddy/treasury/chain"
	"github.com/rustyeddy/treasury/config"
	"github.com/rustyeddy/treasury/journal"
	ledgersim "github.com/rustyeddy/treasury/ledger/sim"
	"github.com/rustyeddy/treasury/metrics"
	"github.com/rustyeddy/treasury/pkg/logging"
	"github.com/rustyeddy/treasury/runner"
	venuesim "github.com/rustyeddy/treasury/venue/sim"
)

func newSimrunCmd() *cobra.Command {
	var cfgPath string
	var runNow bool

	cmd := &cobra.Command{
		Use:   "simrun",
		Short: "Run the automator against the simulated ledger and venue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return simrun(cfgPath, runNow)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "./treasury.yaml", "path to config file")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "attempt one conversion immediately on start")
	return cmd
}

func simrun(cfgPath string, runNow bool) error {
	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		return err
	}
	log := logging.New(cfg.Log.Level)

	clock := chain.SystemClock{}
	bank := chain.NewMemoryBank()
	token := ledgersim.NewToken(chain.Address(cfg.Token.Address), cfg.Token.Symbol, cfg.Token.Decimals)
	exchange := venuesim.NewExchange(
		chain.Address(cfg.Venue.Address),
		chain.Address(cfg.Venue.WrappedNative),
		token, bank, clock,
	)

	rate, _ := cfg.Rate()
	exchange.SetRate(rate, big.NewInt(1))

	liquidity, _ := cfg.NativeLiquidity()
	bank.Mint(exchange.Address(), liquidity)

	treasury, _ := cfg.InitialTreasury()
	token.Mint(cfg.AutomatorAddress(), treasury)

	j, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer j.Close()

	auto, err := automator.New(automator.Config{
		Owner:  cfg.OwnerAddress(),
		Self:   cfg.AutomatorAddress(),
		Token:  token,
		Venue:  exchange,
		Bank:   bank,
		Clock:  clock,
		Events: journal.NewRecorder(j, log, clock),
	})
	if err != nil {
		return err
	}

	amount, _ := cfg.InvestmentAmount()
	interval, _ := cfg.Interval()
	if err := auto.UpdateParameters(context.Background(), cfg.OwnerAddress(), amount, interval); err != nil {
		return fmt.Errorf("apply schedule parameters: %w", err)
	}

	minOut, _ := cfg.MinOutput()
	window, _ := cfg.DeadlineWindow()
	r := runner.New(runner.Options{
		Automator:      auto,
		Owner:          cfg.OwnerAddress(),
		CronSpec:       cfg.Schedule.Cron,
		MinOutput:      minOut,
		DeadlineWindow: window,
		Clock:          clock,
		Log:            log,
	})

	if cfg.Metrics.Enabled {
		metrics.Serve(cfg.Metrics.Addr)
		log.Info().Str("addr", cfg.Metrics.Addr).Msg("metrics listening")
	}

	if runNow {
		if err := r.RunOnce(context.Background()); err != nil {
			log.Warn().Err(err).Msg("initial attempt failed")
		}
	}

	if err := r.Start(); err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	r.Stop()
	return nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	case "csv":
		return journal.NewCSV(jc.ExecutionsFile, jc.EventsFile)
	default:
		return journal.Noop{}, nil
	}
}
