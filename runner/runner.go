// Package runner drives the automator on a cron schedule. It is purely
// a harness: the automator never schedules itself, and every attempt
// goes through the same owner-gated PerformDCA path an external caller
// would use.
package runner

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/treasury/automator"
	"github.com/rustyeddy/treasury/chain"
	"github.com/rustyeddy/treasury/metrics"
)

// Options configures a Runner. MinOutput is supplied by the operator;
// the runner computes no price-derived slippage bound of its own.
type Options struct {
	Automator      *automator.Automator
	Owner          chain.Address
	CronSpec       string
	MinOutput      *big.Int
	DeadlineWindow time.Duration
	Clock          chain.Clock
	Log            zerolog.Logger
}

type Runner struct {
	auto      *automator.Automator
	owner     chain.Address
	spec      string
	minOut    *big.Int
	window    time.Duration
	clock     chain.Clock
	log       zerolog.Logger
	cron      *cron.Cron
}

func New(opts Options) *Runner {
	clock := opts.Clock
	if clock == nil {
		clock = chain.SystemClock{}
	}
	return &Runner{
		auto:   opts.Automator,
		owner:  opts.Owner,
		spec:   opts.CronSpec,
		minOut: opts.MinOutput,
		window: opts.DeadlineWindow,
		clock:  clock,
		log:    opts.Log,
		cron:   cron.New(),
	}
}

// Start registers the DCA job and starts the scheduler.
func (r *Runner) Start() error {
	if _, err := r.cron.AddFunc(r.spec, func() {
		_ = r.RunOnce(context.Background())
	}); err != nil {
		return err
	}
	r.cron.Start()
	r.log.Info().Str("cron", r.spec).Msg("runner started")
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.log.Info().Msg("runner stopped")
}

// RunOnce attempts a single conversion. An attempt inside the interval
// window is a skip, not a failure; everything else is surfaced.
func (r *Runner) RunOnce(ctx context.Context) error {
	deadline := r.clock.Now().Add(r.window)

	received, err := r.auto.PerformDCA(ctx, r.owner, r.minOut, deadline)
	if err != nil {
		if errors.Is(err, automator.ErrTooEarly) {
			metrics.ExecutionSkips.Inc()
			r.log.Debug().Time("last_execution", r.auto.LastExecution()).Msg("interval not elapsed, skipping")
			return nil
		}
		metrics.ExecutionFailures.WithLabelValues(reason(err)).Inc()
		r.log.Error().Err(err).Msg("dca attempt failed")
		return err
	}

	metrics.ExecutionsTotal.Inc()
	recv, _ := new(big.Float).SetInt(received).Float64()
	metrics.NativeReceivedWei.Add(recv)
	r.log.Info().
		Str("amount_in", r.auto.InvestmentAmount().String()).
		Str("amount_out", received.String()).
		Msg("dca executed")
	return nil
}

// reason maps known failures to stable metric labels.
func reason(err error) string {
	switch {
	case errors.Is(err, automator.ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, automator.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, automator.ErrReentrantCall):
		return "reentrant"
	default:
		return "venue"
	}
}
