// Package ledger defines the fungible-token ledger boundary the
// automator depends on. The interface mirrors the classic
// transfer/approve/allowance surface; implementations are external and
// untrusted, so every mutating call is fallible and may hand control to
// arbitrary code before returning.
package ledger

import (
	"context"
	"math/big"

	"github.com/rustyeddy/treasury/chain"
)

// Ledger tracks balances and spending allowances for one fungible
// asset. Transfers are all-or-nothing: an error means no balance moved.
type Ledger interface {
	// Address is the ledger's own account identity, used as the first
	// hop of a swap path.
	Address() chain.Address

	BalanceOf(addr chain.Address) *big.Int
	Allowance(holder, spender chain.Address) *big.Int

	Transfer(ctx context.Context, from, to chain.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, spender, from, to chain.Address, amount *big.Int) error
	Approve(ctx context.Context, holder, spender chain.Address, amount *big.Int) error
}
