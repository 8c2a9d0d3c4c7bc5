package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
)

// ErrInsufficientFunds is reported by a Bank when the sender does not
// hold enough native currency to cover a transfer.
var ErrInsufficientFunds = errors.New("insufficient native funds")

// Bank tracks native-currency balances and moves value between
// accounts. A Send may hand control to untrusted code on the receiving
// side, so implementations are fallible and callers must treat a
// returned error as "nothing moved".
type Bank interface {
	BalanceOf(addr Address) *big.Int
	Send(ctx context.Context, from, to Address, amount *big.Int) error
}

// MemoryBank is an in-memory Bank for simulations and tests. The zero
// value is not usable; construct with NewMemoryBank.
type MemoryBank struct {
	mu       sync.Mutex
	balances map[Address]*big.Int

	sendHook func(from, to Address, amount *big.Int)
	nextErr  error
}

func NewMemoryBank() *MemoryBank {
	return &MemoryBank{balances: make(map[Address]*big.Int)}
}

// Mint credits amount to addr out of thin air. Simulation setup only.
func (b *MemoryBank) Mint(addr Address, amount *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.credit(addr, amount)
}

// BalanceOf returns a copy of the balance; callers may mutate it freely.
func (b *MemoryBank) BalanceOf(addr Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[addr]; ok {
		return new(big.Int).Set(bal)
	}
	return new(big.Int)
}

// Send moves amount from one account to another. The receive hook, if
// set, runs after the debit and credit; it stands in for untrusted
// receiver code in reentrancy tests.
func (b *MemoryBank) Send(ctx context.Context, from, to Address, amount *big.Int) error {
	_ = ctx

	b.mu.Lock()
	if b.nextErr != nil {
		err := b.nextErr
		b.nextErr = nil
		b.mu.Unlock()
		return err
	}
	bal := b.balances[from]
	if bal == nil || bal.Cmp(amount) < 0 {
		b.mu.Unlock()
		return fmt.Errorf("send %s from %s: %w", amount, from, ErrInsufficientFunds)
	}
	bal.Sub(bal, amount)
	b.credit(to, amount)
	hook := b.sendHook
	b.mu.Unlock()

	if hook != nil {
		hook(from, to, amount)
	}
	return nil
}

// FailNextSend makes the next Send return err without moving funds.
func (b *MemoryBank) FailNextSend(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextErr = err
}

// SetSendHook installs a callback invoked after every successful Send.
func (b *MemoryBank) SetSendHook(hook func(from, to Address, amount *big.Int)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendHook = hook
}

// credit assumes b.mu is held.
func (b *MemoryBank) credit(addr Address, amount *big.Int) {
	if bal, ok := b.balances[addr]; ok {
		bal.Add(bal, amount)
		return
	}
	b.balances[addr] = new(big.Int).Set(amount)
}
