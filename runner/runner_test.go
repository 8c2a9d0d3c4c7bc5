package runner

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/treasury/automator"
	"github.com/rustyeddy/treasury/chain"
	ledgersim "github.com/rustyeddy/treasury/ledger/sim"
	venuesim "github.com/rustyeddy/treasury/venue/sim"
)

const (
	owner  = chain.Address("0xOWNER")
	self   = chain.Address("0xTREASURY")
	router = chain.Address("0xROUTER")
	weth   = chain.Address("0xWETH")
	usdc   = chain.Address("0xUSDC")
)

type fixture struct {
	clock *chain.SimClock
	bank  *chain.MemoryBank
	token *ledgersim.Token
	auto  *automator.Automator
	run   *Runner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := chain.NewSimClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	bank := chain.NewMemoryBank()
	token := ledgersim.NewToken(usdc, "USDC", 6)
	venue := venuesim.NewExchange(router, weth, token, bank, clock)
	venue.SetRate(big.NewInt(400_000_000), big.NewInt(1))
	bank.Mint(router, chain.Units(100, 18))

	auto, err := automator.New(automator.Config{
		Owner: owner,
		Self:  self,
		Token: token,
		Venue: venue,
		Bank:  bank,
		Clock: clock,
	})
	require.NoError(t, err)

	run := New(Options{
		Automator:      auto,
		Owner:          owner,
		CronSpec:       "0 0 * * *",
		MinOutput:      big.NewInt(1),
		DeadlineWindow: time.Hour,
		Clock:          clock,
		Log:            zerolog.Nop(),
	})
	return &fixture{clock: clock, bank: bank, token: token, auto: auto, run: run}
}

func TestRunOnceSkipsInsideWindow(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.token.Mint(self, chain.Units(1_000, 6))

	// Interval has not elapsed since construction: a skip, not an error.
	require.NoError(t, f.run.RunOnce(context.Background()))
	assert.Zero(t, f.bank.BalanceOf(self).Sign())
}

func TestRunOnceExecutes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.token.Mint(self, chain.Units(1_000, 6))

	f.clock.Advance(48 * time.Hour)
	require.NoError(t, f.run.RunOnce(context.Background()))

	assert.Equal(t, chain.Units(2, 17), f.bank.BalanceOf(self))
	assert.Equal(t, f.clock.Now(), f.auto.LastExecution())
}

func TestRunOnceSurfacesFailures(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// No custody at all: this is a real failure, not a skip.
	f.clock.Advance(48 * time.Hour)
	err := f.run.RunOnce(context.Background())
	assert.ErrorIs(t, err, automator.ErrInsufficientBalance)
}

func TestStartStop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	require.NoError(t, f.run.Start())
	f.run.Stop()
}

func TestStartRejectsBadCron(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.run.spec = "not a cron spec"

	assert.Error(t, f.run.Start())
}
