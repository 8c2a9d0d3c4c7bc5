// Package sim provides an in-memory token ledger used by the sim
// runner and by tests that need an adversarial ledger implementation.
package sim

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/rustyeddy/treasury/chain"
)

var (
	ErrInsufficientBalance   = errors.New("insufficient token balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrNegativeAmount        = errors.New("negative amount")
)

// Token is an in-memory fungible-token ledger. Zero-amount transfers
// succeed as no-ops, matching common token semantics.
type Token struct {
	addr     chain.Address
	symbol   string
	decimals int32

	mu         sync.Mutex
	balances   map[chain.Address]*big.Int
	allowances map[chain.Address]map[chain.Address]*big.Int

	transferHook func(from, to chain.Address, amount *big.Int)
	nextErr      error
}

// NewToken constructs an empty ledger identified by addr.
func NewToken(addr chain.Address, symbol string, decimals int32) *Token {
	return &Token{
		addr:       addr,
		symbol:     symbol,
		decimals:   decimals,
		balances:   make(map[chain.Address]*big.Int),
		allowances: make(map[chain.Address]map[chain.Address]*big.Int),
	}
}

func (t *Token) Address() chain.Address { return t.addr }
func (t *Token) Symbol() string         { return t.symbol }
func (t *Token) Decimals() int32        { return t.decimals }

// Mint credits amount to addr. Simulation setup only.
func (t *Token) Mint(addr chain.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.credit(addr, amount)
}

// BalanceOf returns a copy of the holder's balance.
func (t *Token) BalanceOf(addr chain.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if bal, ok := t.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Allowance returns a copy of what spender may move out of holder's
// balance.
func (t *Token) Allowance(holder, spender chain.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if byHolder, ok := t.allowances[holder]; ok {
		if a, ok := byHolder[spender]; ok {
			return new(big.Int).Set(a)
		}
	}
	return new(big.Int)
}

// Transfer moves amount from one holder to another.
func (t *Token) Transfer(ctx context.Context, from, to chain.Address, amount *big.Int) error {
	_ = ctx
	return t.transfer(from, to, amount)
}

// TransferFrom moves amount out of from's balance on behalf of spender,
// consuming allowance. The transfer hook, if set, runs after the move
// and stands in for untrusted token code in reentrancy tests.
func (t *Token) TransferFrom(ctx context.Context, spender, from, to chain.Address, amount *big.Int) error {
	_ = ctx

	t.mu.Lock()
	if err := t.takeInjectedErr(); err != nil {
		t.mu.Unlock()
		return err
	}
	if amount.Sign() < 0 {
		t.mu.Unlock()
		return ErrNegativeAmount
	}
	allowance := t.allowanceRef(from, spender)
	if allowance.Cmp(amount) < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%s spender %s holder %s: %w", t.symbol, spender, from, ErrInsufficientAllowance)
	}
	bal := t.balances[from]
	if bal == nil || bal.Cmp(amount) < 0 {
		t.mu.Unlock()
		return fmt.Errorf("%s holder %s: %w", t.symbol, from, ErrInsufficientBalance)
	}
	allowance.Sub(allowance, amount)
	bal.Sub(bal, amount)
	t.credit(to, amount)
	hook := t.transferHook
	t.mu.Unlock()

	if hook != nil {
		hook(from, to, amount)
	}
	return nil
}

// Approve sets spender's allowance over holder's balance to exactly
// amount, replacing any previous value.
func (t *Token) Approve(ctx context.Context, holder, spender chain.Address, amount *big.Int) error {
	_ = ctx

	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.takeInjectedErr(); err != nil {
		return err
	}
	if amount.Sign() < 0 {
		return ErrNegativeAmount
	}
	t.allowanceRef(holder, spender).Set(amount)
	return nil
}

// FailNext makes the next mutating call return err without effect.
func (t *Token) FailNext(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextErr = err
}

// SetTransferHook installs a callback invoked after every successful
// Transfer or TransferFrom.
func (t *Token) SetTransferHook(hook func(from, to chain.Address, amount *big.Int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transferHook = hook
}

func (t *Token) transfer(from, to chain.Address, amount *big.Int) error {
	t.mu.Lock()
	if err := t.takeInjectedErr(); err != nil {
		t.mu.Unlock()
		return err
	}
	if amount.Sign() < 0 {
		t.mu.Unlock()
		return ErrNegativeAmount
	}
	bal := t.balances[from]
	if amount.Sign() > 0 && (bal == nil || bal.Cmp(amount) < 0) {
		t.mu.Unlock()
		return fmt.Errorf("%s holder %s: %w", t.symbol, from, ErrInsufficientBalance)
	}
	if amount.Sign() > 0 {
		bal.Sub(bal, amount)
		t.credit(to, amount)
	}
	hook := t.transferHook
	t.mu.Unlock()

	if hook != nil {
		hook(from, to, amount)
	}
	return nil
}

// credit and allowanceRef assume t.mu is held.

func (t *Token) credit(addr chain.Address, amount *big.Int) {
	if bal, ok := t.balances[addr]; ok {
		bal.Add(bal, amount)
		return
	}
	t.balances[addr] = new(big.Int).Set(amount)
}

func (t *Token) allowanceRef(holder, spender chain.Address) *big.Int {
	byHolder, ok := t.allowances[holder]
	if !ok {
		byHolder = make(map[chain.Address]*big.Int)
		t.allowances[holder] = byHolder
	}
	a, ok := byHolder[spender]
	if !ok {
		a = new(big.Int)
		byHolder[spender] = a
	}
	return a
}

func (t *Token) takeInjectedErr() error {
	if t.nextErr != nil {
		err := t.nextErr
		t.nextErr = nil
		return err
	}
	return nil
}
