package automator_test

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/treasury/automator"
	"github.com/rustyeddy/treasury/chain"
	ledgersim "github.com/rustyeddy/treasury/ledger/sim"
	venuesim "github.com/rustyeddy/treasury/venue/sim"
)

const (
	owner    = chain.Address("0xOWNER")
	self     = chain.Address("0xTREASURY")
	router   = chain.Address("0xROUTER")
	weth     = chain.Address("0xWETH")
	usdc     = chain.Address("0xUSDC")
	alice    = chain.Address("0xALICE")
	stranger = chain.Address("0xMALLORY")
)

// eventLog captures automator notifications for assertions.
type eventLog struct {
	mu sync.Mutex

	deposits    []*big.Int
	executions  [][2]*big.Int // amountIn, amountOut
	lastExecAt  time.Time
	withdrawals []*big.Int
	params      []*big.Int
}

func (e *eventLog) FundsDeposited(_ chain.Address, amount *big.Int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deposits = append(e.deposits, amount)
}

func (e *eventLog) DCAExecuted(in, out *big.Int, at time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.executions = append(e.executions, [2]*big.Int{in, out})
	e.lastExecAt = at
}

func (e *eventLog) ETHWithdrawn(_ chain.Address, amount *big.Int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.withdrawals = append(e.withdrawals, amount)
}

func (e *eventLog) ParametersUpdated(amount *big.Int, _ time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.params = append(e.params, amount)
}

type fixture struct {
	clock  *chain.SimClock
	bank   *chain.MemoryBank
	token  *ledgersim.Token
	venue  *venuesim.Exchange
	auto   *automator.Automator
	events *eventLog
}

// newFixture builds a world where 500 USDC converts to 0.2 ETH and the
// venue holds 100 ETH of liquidity.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := chain.NewSimClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	bank := chain.NewMemoryBank()
	token := ledgersim.NewToken(usdc, "USDC", 6)
	venue := venuesim.NewExchange(router, weth, token, bank, clock)
	venue.SetRate(big.NewInt(400_000_000), big.NewInt(1))
	bank.Mint(router, chain.Units(100, 18))

	events := &eventLog{}
	auto, err := automator.New(automator.Config{
		Owner:  owner,
		Self:   self,
		Token:  token,
		Venue:  venue,
		Bank:   bank,
		Clock:  clock,
		Events: events,
	})
	require.NoError(t, err)

	return &fixture{clock: clock, bank: bank, token: token, venue: venue, auto: auto, events: events}
}

// fund credits the automator's custody directly, as if deposited.
func (f *fixture) fund(whole int64) {
	f.token.Mint(self, chain.Units(whole, 6))
}

// deposit goes through the full allowance + pull path.
func (f *fixture) deposit(t *testing.T, from chain.Address, amount *big.Int) {
	t.Helper()
	f.token.Mint(from, amount)
	require.NoError(t, f.token.Approve(context.Background(), from, self, amount))
	require.NoError(t, f.auto.Deposit(context.Background(), from, amount))
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	clock := chain.NewSimClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	bank := chain.NewMemoryBank()
	token := ledgersim.NewToken(usdc, "USDC", 6)
	venue := venuesim.NewExchange(router, weth, token, bank, clock)

	tests := []struct {
		name string
		cfg  automator.Config
	}{
		{"zero_owner", automator.Config{Self: self, Token: token, Venue: venue, Bank: bank}},
		{"zero_self", automator.Config{Owner: owner, Token: token, Venue: venue, Bank: bank}},
		{"nil_token", automator.Config{Owner: owner, Self: self, Venue: venue, Bank: bank}},
		{"nil_venue", automator.Config{Owner: owner, Self: self, Token: token, Bank: bank}},
		{"nil_bank", automator.Config{Owner: owner, Self: self, Token: token, Venue: venue}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := automator.New(tt.cfg)
			assert.ErrorIs(t, err, automator.ErrInvalidAddress)
		})
	}
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	assert.Equal(t, owner, f.auto.Owner())
	assert.Equal(t, chain.Units(500, 6), f.auto.InvestmentAmount())
	assert.Equal(t, time.Duration(0), f.auto.Interval())
	assert.Equal(t, f.clock.Now(), f.auto.LastExecution())
	assert.Equal(t, usdc, f.auto.TokenAddress())
	assert.Equal(t, router, f.auto.VenueAddress())
}

func TestDepositZeroAmount(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	err := f.auto.Deposit(context.Background(), alice, big.NewInt(0))
	assert.ErrorIs(t, err, automator.ErrInvalidAmount)
	assert.Zero(t, f.token.BalanceOf(self).Sign())
}

func TestDepositPullsFunds(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	amount := chain.Units(500, 6)
	f.deposit(t, alice, amount)

	assert.Equal(t, amount, f.token.BalanceOf(self))
	assert.Zero(t, f.token.BalanceOf(alice).Sign())
	require.Len(t, f.events.deposits, 1)
	assert.Equal(t, amount, f.events.deposits[0])
}

func TestDepositWithoutAllowance(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.token.Mint(alice, chain.Units(500, 6))
	err := f.auto.Deposit(context.Background(), alice, chain.Units(500, 6))
	assert.ErrorIs(t, err, ledgersim.ErrInsufficientAllowance)
	assert.Zero(t, f.token.BalanceOf(self).Sign())
}

func TestDepositOpenToAnyCaller(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.deposit(t, stranger, chain.Units(10, 6))
	assert.Equal(t, chain.Units(10, 6), f.token.BalanceOf(self))
}

func TestPrivilegedOpsRejectNonOwner(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fund(1_000)
	ctx := context.Background()

	ops := []struct {
		name string
		call func() error
	}{
		{"perform_dca", func() error {
			_, err := f.auto.PerformDCA(ctx, stranger, big.NewInt(1), f.clock.Now().Add(time.Hour))
			return err
		}},
		{"withdraw", func() error {
			return f.auto.Withdraw(ctx, stranger, chain.Units(1, 18))
		}},
		{"update_parameters", func() error {
			return f.auto.UpdateParameters(ctx, stranger, chain.Units(100, 6), 24*time.Hour)
		}},
		{"rescue_tokens", func() error {
			return f.auto.RescueTokens(ctx, stranger, f.token, alice, big.NewInt(1))
		}},
		{"transfer_ownership", func() error {
			return f.auto.TransferOwnership(ctx, stranger, stranger)
		}},
	}

	before := f.token.BalanceOf(self)
	lastExec := f.auto.LastExecution()

	for _, op := range ops {
		op := op
		t.Run(op.name, func(t *testing.T) {
			assert.ErrorIs(t, op.call(), automator.ErrNotAuthorized)
		})
	}

	assert.Equal(t, before, f.token.BalanceOf(self))
	assert.Equal(t, lastExec, f.auto.LastExecution())
	assert.Equal(t, owner, f.auto.Owner())
}

func TestPerformDCAImmediatelyAfterConstruction(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.fund(1_000)

	_, err := f.auto.PerformDCA(context.Background(), owner, big.NewInt(1), f.clock.Now().Add(time.Hour))
	assert.ErrorIs(t, err, automator.ErrTooEarly)
}

func TestPerformDCAColdStart(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.deposit(t, alice, chain.Units(500, 6))
	f.clock.Advance(31 * 24 * time.Hour)

	received, err := f.auto.PerformDCA(context.Background(), owner, big.NewInt(1), f.clock.Now().Add(time.Hour))
	require.NoError(t, err)

	// 500 USDC at 4e8 wei per base unit is 0.2 ETH.
	assert.Equal(t, chain.Units(2, 17), received)
	assert.Equal(t, f.clock.Now(), f.auto.LastExecution())
	assert.Zero(t, f.token.BalanceOf(self).Sign())
	assert.Equal(t, received, f.bank.BalanceOf(self))

	require.Len(t, f.events.executions, 1)
	assert.Equal(t, chain.Units(500, 6), f.events.executions[0][0])
	assert.Equal(t, received, f.events.executions[0][1])
	assert.Equal(t, f.clock.Now(), f.events.lastExecAt)
}

func TestPerformDCAGateIdempotent(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.fund(10_000)
	require.NoError(t, f.auto.UpdateParameters(ctx, owner, chain.Units(500, 6), 24*time.Hour))

	f.clock.Advance(25 * time.Hour)
	_, err := f.auto.PerformDCA(ctx, owner, big.NewInt(1), f.clock.Now().Add(time.Hour))
	require.NoError(t, err)

	lastExec := f.auto.LastExecution()
	tokenBal := f.token.BalanceOf(self)
	nativeBal := f.bank.BalanceOf(self)

	// Second call inside the same window changes nothing.
	_, err = f.auto.PerformDCA(ctx, owner, big.NewInt(1), f.clock.Now().Add(time.Hour))
	assert.ErrorIs(t, err, automator.ErrTooEarly)
	assert.Equal(t, lastExec, f.auto.LastExecution())
	assert.Equal(t, tokenBal, f.token.BalanceOf(self))
	assert.Equal(t, nativeBal, f.bank.BalanceOf(self))
	assert.Len(t, f.events.executions, 1)
}

func TestPerformDCAInsufficientBalance(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.clock.Advance(48 * time.Hour)
	_, err := f.auto.PerformDCA(context.Background(), owner, big.NewInt(1), f.clock.Now().Add(time.Hour))
	assert.ErrorIs(t, err, automator.ErrInsufficientBalance)
}

func TestPerformDCASlippageRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.fund(500)
	f.clock.Advance(48 * time.Hour)
	lastExec := f.auto.LastExecution()

	// Demand more than the 0.2 ETH the venue quotes.
	_, err := f.auto.PerformDCA(context.Background(), owner, chain.Units(1, 18), f.clock.Now().Add(time.Hour))
	assert.ErrorIs(t, err, venuesim.ErrInsufficientOutput)

	assert.Equal(t, lastExec, f.auto.LastExecution())
	assert.Equal(t, chain.Units(500, 6), f.token.BalanceOf(self))
	assert.Zero(t, f.bank.BalanceOf(self).Sign())
	assert.Zero(t, f.token.Allowance(self, router).Sign(), "allowance must not dangle after a failed swap")
}

func TestPerformDCAExpiredDeadline(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	f.fund(500)
	f.clock.Advance(48 * time.Hour)

	_, err := f.auto.PerformDCA(context.Background(), owner, big.NewInt(1), f.clock.Now().Add(-time.Second))
	assert.ErrorIs(t, err, venuesim.ErrDeadlineExpired)
	assert.Len(t, f.events.executions, 0)
}

func TestLastExecutionMonotonic(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.fund(10_000)
	require.NoError(t, f.auto.UpdateParameters(ctx, owner, chain.Units(500, 6), 24*time.Hour))

	prev := f.auto.LastExecution()
	for i := 0; i < 5; i++ {
		f.clock.Advance(25 * time.Hour)
		_, err := f.auto.PerformDCA(ctx, owner, big.NewInt(1), f.clock.Now().Add(time.Hour))
		require.NoError(t, err)

		cur := f.auto.LastExecution()
		assert.False(t, cur.Before(prev), "lastExecution went backwards")
		assert.Equal(t, f.clock.Now(), cur)
		prev = cur
	}
}

func TestWithdraw(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("zero_amount", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		assert.ErrorIs(t, f.auto.Withdraw(ctx, owner, big.NewInt(0)), automator.ErrInvalidAmount)
	})

	t.Run("empty_balance", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		err := f.auto.Withdraw(ctx, owner, chain.Units(1, 18))
		assert.ErrorIs(t, err, automator.ErrInsufficientBalance)
	})

	t.Run("partial_withdrawal", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.bank.Mint(self, chain.Units(2, 18))

		require.NoError(t, f.auto.Withdraw(ctx, owner, chain.Units(1, 18)))
		assert.Equal(t, chain.Units(1, 18), f.bank.BalanceOf(self))
		assert.Equal(t, chain.Units(1, 18), f.bank.BalanceOf(owner))
		require.Len(t, f.events.withdrawals, 1)
		assert.Equal(t, chain.Units(1, 18), f.events.withdrawals[0])
	})

	t.Run("failed_send", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.bank.Mint(self, chain.Units(2, 18))
		f.bank.FailNextSend(errors.New("receiver rejected payment"))

		err := f.auto.Withdraw(ctx, owner, chain.Units(1, 18))
		assert.ErrorIs(t, err, automator.ErrTransferFailed)
		assert.Equal(t, chain.Units(2, 18), f.bank.BalanceOf(self))
		assert.Len(t, f.events.withdrawals, 0, "no notification before the transfer is confirmed")
	})
}

func TestUpdateParameters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name     string
		amount   *big.Int
		interval time.Duration
		wantErr  error
	}{
		{"zero_amount", big.NewInt(0), 24 * time.Hour, automator.ErrInvalidAmount},
		{"nil_amount", nil, 24 * time.Hour, automator.ErrInvalidAmount},
		{"zero_interval", chain.Units(100, 6), 0, automator.ErrInvalidInterval},
		{"sub_day_interval", chain.Units(100, 6), 23 * time.Hour, automator.ErrInvalidInterval},
		{"valid", chain.Units(100, 6), 48 * time.Hour, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			lastExec := f.auto.LastExecution()

			err := f.auto.UpdateParameters(ctx, owner, tt.amount, tt.interval)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, chain.Units(500, 6), f.auto.InvestmentAmount())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.amount, f.auto.InvestmentAmount())
			assert.Equal(t, tt.interval, f.auto.Interval())
			assert.Equal(t, lastExec, f.auto.LastExecution(), "update must not touch the schedule baseline")
			require.Len(t, f.events.params, 1)
		})
	}
}

func TestRescueTokens(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("zero_recipient", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		err := f.auto.RescueTokens(ctx, owner, f.token, chain.ZeroAddress, big.NewInt(1))
		assert.ErrorIs(t, err, automator.ErrInvalidAddress)
	})

	t.Run("nil_asset", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		err := f.auto.RescueTokens(ctx, owner, nil, alice, big.NewInt(1))
		assert.ErrorIs(t, err, automator.ErrInvalidAddress)
	})

	t.Run("zero_amount_noop", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.fund(100)
		require.NoError(t, f.auto.RescueTokens(ctx, owner, f.token, alice, big.NewInt(0)))
		assert.Equal(t, chain.Units(100, 6), f.token.BalanceOf(self))
		assert.Zero(t, f.token.BalanceOf(alice).Sign())
	})

	t.Run("drains_working_asset", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.fund(100)
		require.NoError(t, f.auto.RescueTokens(ctx, owner, f.token, alice, chain.Units(100, 6)))
		assert.Zero(t, f.token.BalanceOf(self).Sign())
		assert.Equal(t, chain.Units(100, 6), f.token.BalanceOf(alice))
	})

	t.Run("stray_asset", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		stray := ledgersim.NewToken(chain.Address("0xDAI"), "DAI", 18)
		stray.Mint(self, chain.Units(7, 18))
		require.NoError(t, f.auto.RescueTokens(ctx, owner, stray, alice, chain.Units(7, 18)))
		assert.Equal(t, chain.Units(7, 18), stray.BalanceOf(alice))
	})
}

func TestTransferOwnership(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.auto.TransferOwnership(ctx, owner, chain.ZeroAddress), automator.ErrInvalidAddress)

	require.NoError(t, f.auto.TransferOwnership(ctx, owner, alice))
	assert.Equal(t, alice, f.auto.Owner())

	// Old owner loses all privileges.
	err := f.auto.UpdateParameters(ctx, owner, chain.Units(100, 6), 24*time.Hour)
	assert.ErrorIs(t, err, automator.ErrNotAuthorized)
	require.NoError(t, f.auto.UpdateParameters(ctx, alice, chain.Units(100, 6), 24*time.Hour))
}

func TestReentrantTokenLedger(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	var innerErr error
	f.token.Mint(alice, chain.Units(500, 6))
	require.NoError(t, f.token.Approve(ctx, alice, self, chain.Units(500, 6)))

	f.token.SetTransferHook(func(_, _ chain.Address, _ *big.Int) {
		f.token.SetTransferHook(nil)
		innerErr = f.auto.Deposit(ctx, alice, big.NewInt(1))
	})

	require.NoError(t, f.auto.Deposit(ctx, alice, chain.Units(500, 6)))
	assert.ErrorIs(t, innerErr, automator.ErrReentrantCall)
	assert.Equal(t, chain.Units(500, 6), f.token.BalanceOf(self))
}

func TestReentrantVenue(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.fund(500)
	f.bank.Mint(self, chain.Units(1, 18))
	f.clock.Advance(48 * time.Hour)

	var withdrawErr, dcaErr error
	f.venue.SetSwapHook(func() {
		withdrawErr = f.auto.Withdraw(ctx, owner, chain.Units(1, 18))
		_, dcaErr = f.auto.PerformDCA(ctx, owner, big.NewInt(1), f.clock.Now().Add(time.Hour))
	})

	received, err := f.auto.PerformDCA(ctx, owner, big.NewInt(1), f.clock.Now().Add(time.Hour))
	require.NoError(t, err)

	assert.ErrorIs(t, withdrawErr, automator.ErrReentrantCall)
	assert.ErrorIs(t, dcaErr, automator.ErrReentrantCall)
	assert.Equal(t, chain.Units(2, 17), received)
	// The pre-existing 1 ETH is untouched and the swap proceeds arrived.
	assert.Equal(t, new(big.Int).Add(chain.Units(1, 18), chain.Units(2, 17)), f.bank.BalanceOf(self))
}
