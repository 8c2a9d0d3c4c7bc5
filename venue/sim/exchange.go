// Package sim provides an in-memory exchange venue with a fixed
// conversion rate, deadline and slippage enforcement, and failure
// injection for tests.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/rustyeddy/treasury/chain"
	"github.com/rustyeddy/treasury/ledger"
	"github.com/rustyeddy/treasury/venue"
)

var (
	ErrDeadlineExpired       = errors.New("swap deadline expired")
	ErrBadPath               = errors.New("unsupported swap path")
	ErrInsufficientOutput    = errors.New("output below minimum")
	ErrInsufficientLiquidity = errors.New("insufficient native liquidity")
)

// Exchange converts the configured token into native currency at a
// fixed rate of rateNum/rateDen wei per base unit of input. Output is
// paid out of the exchange's own native balance, so liquidity must be
// minted to its address before use.
type Exchange struct {
	addr    chain.Address
	wnative chain.Address
	token   ledger.Ledger
	bank    chain.Bank
	clock   chain.Clock

	mu       sync.Mutex
	rateNum  *big.Int
	rateDen  *big.Int
	swapHook func()
	nextErr  error
}

// NewExchange constructs an exchange over the given token ledger and
// native bank. The default rate is 1 wei per base unit; set a real one
// with SetRate.
func NewExchange(addr, wnative chain.Address, token ledger.Ledger, bank chain.Bank, clock chain.Clock) *Exchange {
	return &Exchange{
		addr:    addr,
		wnative: wnative,
		token:   token,
		bank:    bank,
		clock:   clock,
		rateNum: big.NewInt(1),
		rateDen: big.NewInt(1),
	}
}

func (e *Exchange) Address() chain.Address       { return e.addr }
func (e *Exchange) WrappedNative() chain.Address { return e.wnative }

// SetRate fixes the conversion rate to num/den wei of native currency
// per base unit of input token.
func (e *Exchange) SetRate(num, den *big.Int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rateNum = new(big.Int).Set(num)
	e.rateDen = new(big.Int).Set(den)
}

// Quote returns the native amount the exchange would credit for
// amountIn at the current rate.
func (e *Exchange) Quote(amountIn *big.Int) *big.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.quote(amountIn)
}

// SwapExactTokensForNative pulls req.AmountIn of the token from the
// payer and credits the quoted native amount to the recipient. The
// swap hook, if set, runs between the pull and the payout; it stands in
// for untrusted venue code in reentrancy tests.
func (e *Exchange) SwapExactTokensForNative(ctx context.Context, req venue.SwapRequest) error {
	e.mu.Lock()
	if e.nextErr != nil {
		err := e.nextErr
		e.nextErr = nil
		e.mu.Unlock()
		return err
	}
	out := e.quote(req.AmountIn)
	hook := e.swapHook
	e.mu.Unlock()

	if e.clock.Now().After(req.Deadline) {
		return ErrDeadlineExpired
	}
	if len(req.Path) != 2 || req.Path[0] != e.token.Address() || req.Path[1] != e.wnative {
		return fmt.Errorf("path %v: %w", req.Path, ErrBadPath)
	}
	if req.MinOut != nil && out.Cmp(req.MinOut) < 0 {
		return fmt.Errorf("quoted %s, minimum %s: %w", out, req.MinOut, ErrInsufficientOutput)
	}
	if e.bank.BalanceOf(e.addr).Cmp(out) < 0 {
		return fmt.Errorf("need %s wei: %w", out, ErrInsufficientLiquidity)
	}

	if err := e.token.TransferFrom(ctx, e.addr, req.Payer, e.addr, req.AmountIn); err != nil {
		return fmt.Errorf("pull input token: %w", err)
	}

	if hook != nil {
		hook()
	}

	if err := e.bank.Send(ctx, e.addr, req.Recipient, out); err != nil {
		return fmt.Errorf("pay out native: %w", err)
	}
	return nil
}

// FailNext makes the next swap return err without effect.
func (e *Exchange) FailNext(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextErr = err
}

// SetSwapHook installs a callback invoked mid-swap, after the input
// token is pulled and before the native payout.
func (e *Exchange) SetSwapHook(hook func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.swapHook = hook
}

// quote assumes e.mu is held.
func (e *Exchange) quote(amountIn *big.Int) *big.Int {
	out := new(big.Int).Mul(amountIn, e.rateNum)
	return out.Quo(out, e.rateDen)
}
