// Package automator implements the treasury automator: custody of an
// input-asset balance that is periodically converted into native
// currency through an external exchange venue, on behalf of a single
// owner. All durable state lives on one Automator value; the token
// ledger and the venue are capability interfaces supplied at
// construction.
package automator

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rustyeddy/treasury/chain"
	"github.com/rustyeddy/treasury/ledger"
	"github.com/rustyeddy/treasury/venue"
)

// MinInterval is the smallest interval UpdateParameters accepts. It
// exists to keep the schedule from degenerating into near-continuous
// execution.
const MinInterval = 24 * time.Hour

// DefaultInvestmentAmount is the per-execution conversion size before
// the owner configures one: 500 whole units of a 6-decimal asset.
func DefaultInvestmentAmount() *big.Int {
	return big.NewInt(500_000_000)
}

// Config carries the construction parameters. Owner, Self, Token,
// Venue, and Bank are required; Clock defaults to the system clock and
// Events to a no-op sink.
type Config struct {
	// Owner is the only identity allowed to trigger swaps, withdraw,
	// update parameters, or rescue assets.
	Owner chain.Address

	// Self is the automator's own account identity on the ledger and
	// the bank; deposits accumulate here and swaps spend from here.
	Self chain.Address

	Token ledger.Ledger
	Venue venue.Venue
	Bank  chain.Bank

	Clock  chain.Clock
	Events Events
}

// Automator is live for its entire existence; a failed operation
// leaves all durable state unchanged and may simply be retried.
type Automator struct {
	auth  auth
	latch latch

	self  chain.Address
	token ledger.Ledger
	venue venue.Venue
	bank  chain.Bank
	clock chain.Clock
	ev    Events

	stateMu       sync.RWMutex
	lastExecution time.Time
	interval      time.Duration
	investment    *big.Int
}

// New validates the configuration and returns an automator whose
// lastExecution is initialized to construction time, so the first swap
// cannot fire until time has moved past the configured interval.
func New(cfg Config) (*Automator, error) {
	if cfg.Owner.IsZero() {
		return nil, fmt.Errorf("owner: %w", ErrInvalidAddress)
	}
	if cfg.Self.IsZero() {
		return nil, fmt.Errorf("self: %w", ErrInvalidAddress)
	}
	if cfg.Token == nil {
		return nil, fmt.Errorf("token ledger: %w", ErrInvalidAddress)
	}
	if cfg.Venue == nil {
		return nil, fmt.Errorf("exchange venue: %w", ErrInvalidAddress)
	}
	if cfg.Bank == nil {
		return nil, fmt.Errorf("native bank: %w", ErrInvalidAddress)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = chain.SystemClock{}
	}
	ev := cfg.Events
	if ev == nil {
		ev = NopEvents{}
	}

	a := &Automator{
		self:          cfg.Self,
		token:         cfg.Token,
		venue:         cfg.Venue,
		bank:          cfg.Bank,
		clock:         clock,
		ev:            ev,
		lastExecution: clock.Now(),
		investment:    DefaultInvestmentAmount(),
	}
	a.auth.owner = cfg.Owner
	return a, nil
}

// Deposit pulls amount of the input asset from the caller into the
// automator's custody. The caller must have approved the automator on
// the token ledger beforehand. Any caller may fund the automator.
func (a *Automator) Deposit(ctx context.Context, caller chain.Address, amount *big.Int) error {
	if err := a.latch.acquire(); err != nil {
		return err
	}
	defer a.latch.release()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := a.token.TransferFrom(ctx, a.self, caller, a.self, amount); err != nil {
		return fmt.Errorf("pull deposit: %w", err)
	}
	a.ev.FundsDeposited(caller, new(big.Int).Set(amount))
	return nil
}

// PerformDCA converts the configured investment amount of the input
// asset into native currency through the venue, crediting the automator
// itself. It is gated: a swap is allowed only strictly after
// lastExecution + interval. The credited amount is derived from the
// automator's native balance before and after the swap, never from
// anything the venue reports. Returns the amount received.
func (a *Automator) PerformDCA(ctx context.Context, caller chain.Address, minOut *big.Int, deadline time.Time) (*big.Int, error) {
	if err := a.auth.authorize(caller); err != nil {
		return nil, err
	}
	if err := a.latch.acquire(); err != nil {
		return nil, err
	}
	defer a.latch.release()

	a.stateMu.RLock()
	gateOpen := a.clock.Now().After(a.lastExecution.Add(a.interval))
	amountIn := new(big.Int).Set(a.investment)
	a.stateMu.RUnlock()

	if !gateOpen {
		return nil, ErrTooEarly
	}
	if a.token.BalanceOf(a.self).Cmp(amountIn) < 0 {
		return nil, fmt.Errorf("input asset: need %s: %w", amountIn, ErrInsufficientBalance)
	}

	// Read before the swap: the venue credits native currency as a
	// side effect rather than returning the amount.
	preBalance := a.bank.BalanceOf(a.self)

	venueAddr := a.venue.Address()
	if err := a.token.Approve(ctx, a.self, venueAddr, amountIn); err != nil {
		return nil, fmt.Errorf("approve venue: %w", err)
	}

	req := venue.SwapRequest{
		Payer:     a.self,
		Recipient: a.self,
		AmountIn:  amountIn,
		MinOut:    minOut,
		Path:      []chain.Address{a.token.Address(), a.venue.WrappedNative()},
		Deadline:  deadline,
	}
	if err := a.venue.SwapExactTokensForNative(ctx, req); err != nil {
		// No transactional revert at this boundary, so clear the
		// allowance rather than leave it dangling.
		_ = a.token.Approve(ctx, a.self, venueAddr, new(big.Int))
		return nil, fmt.Errorf("swap: %w", err)
	}

	received := new(big.Int).Sub(a.bank.BalanceOf(a.self), preBalance)

	now := a.clock.Now()
	a.stateMu.Lock()
	a.lastExecution = now
	a.stateMu.Unlock()

	a.ev.DCAExecuted(amountIn, new(big.Int).Set(received), now)
	return received, nil
}

// Withdraw sends amount of accumulated native currency to the owner.
func (a *Automator) Withdraw(ctx context.Context, caller chain.Address, amount *big.Int) error {
	if err := a.auth.authorize(caller); err != nil {
		return err
	}
	if err := a.latch.acquire(); err != nil {
		return err
	}
	defer a.latch.release()

	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if a.bank.BalanceOf(a.self).Cmp(amount) < 0 {
		return fmt.Errorf("native currency: need %s: %w", amount, ErrInsufficientBalance)
	}

	owner := a.auth.current()
	if err := a.bank.Send(ctx, a.self, owner, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	// Only after the transfer is confirmed.
	a.ev.ETHWithdrawn(owner, new(big.Int).Set(amount))
	return nil
}

// UpdateParameters rewrites the per-execution size and the schedule
// interval. It does not touch lastExecution, and the interval persists
// exactly as configured across executions.
func (a *Automator) UpdateParameters(ctx context.Context, caller chain.Address, newInvestmentAmount *big.Int, newInterval time.Duration) error {
	_ = ctx

	if err := a.auth.authorize(caller); err != nil {
		return err
	}
	if err := a.latch.acquire(); err != nil {
		return err
	}
	defer a.latch.release()

	if newInvestmentAmount == nil || newInvestmentAmount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if newInterval < MinInterval {
		return fmt.Errorf("%s: %w", newInterval, ErrInvalidInterval)
	}

	amount := new(big.Int).Set(newInvestmentAmount)
	a.stateMu.Lock()
	a.investment = amount
	a.interval = newInterval
	a.stateMu.Unlock()

	a.ev.ParametersUpdated(new(big.Int).Set(amount), newInterval)
	return nil
}

// RescueTokens transfers amount of an arbitrary asset out of the
// automator's custody. The working asset is deliberately not excluded;
// full custodial power for the owner is the point of the escape hatch.
// A zero amount succeeds as a no-op.
func (a *Automator) RescueTokens(ctx context.Context, caller chain.Address, asset ledger.Ledger, recipient chain.Address, amount *big.Int) error {
	if err := a.auth.authorize(caller); err != nil {
		return err
	}
	if err := a.latch.acquire(); err != nil {
		return err
	}
	defer a.latch.release()

	if asset == nil || recipient.IsZero() {
		return ErrInvalidAddress
	}
	if amount == nil {
		amount = new(big.Int)
	}
	if amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	if err := asset.Transfer(ctx, a.self, recipient, amount); err != nil {
		return fmt.Errorf("rescue %s: %w", asset.Address(), err)
	}
	return nil
}

// TransferOwnership hands the owner role to newOwner.
func (a *Automator) TransferOwnership(ctx context.Context, caller, newOwner chain.Address) error {
	_ = ctx

	if err := a.auth.authorize(caller); err != nil {
		return err
	}
	if err := a.latch.acquire(); err != nil {
		return err
	}
	defer a.latch.release()

	if newOwner.IsZero() {
		return ErrInvalidAddress
	}
	a.auth.transfer(newOwner)
	return nil
}

// Owner returns the current owner identity.
func (a *Automator) Owner() chain.Address { return a.auth.current() }

// Self returns the automator's own account identity.
func (a *Automator) Self() chain.Address { return a.self }

// TokenAddress returns the input asset's ledger address.
func (a *Automator) TokenAddress() chain.Address { return a.token.Address() }

// VenueAddress returns the exchange venue's address.
func (a *Automator) VenueAddress() chain.Address { return a.venue.Address() }

// InvestmentAmount returns a copy of the per-execution conversion size.
func (a *Automator) InvestmentAmount() *big.Int {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return new(big.Int).Set(a.investment)
}

// Interval returns the configured minimum time between executions.
func (a *Automator) Interval() time.Duration {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.interval
}

// LastExecution returns the time of the most recent successful swap,
// or the construction time if none has happened yet.
func (a *Automator) LastExecution() time.Time {
	a.stateMu.RLock()
	defer a.stateMu.RUnlock()
	return a.lastExecution
}
