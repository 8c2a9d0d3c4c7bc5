// Package venue defines the exchange boundary: convert an exact input
// amount of a token into at least a minimum amount of native currency,
// along a path, crediting a recipient, before a deadline. The venue is
// adversarial at the boundary: it may revert, credit less than quoted,
// or hand control to arbitrary code mid-swap.
package venue

import (
	"context"
	"math/big"
	"time"

	"github.com/rustyeddy/treasury/chain"
)

// SwapRequest describes one exact-input swap. The venue pulls AmountIn
// of the path's first token from Payer (which must have approved the
// venue beforehand) and credits native currency directly to Recipient.
// It never reports the credited amount; callers derive it from the
// observed balance change.
type SwapRequest struct {
	Payer     chain.Address
	Recipient chain.Address
	AmountIn  *big.Int
	MinOut    *big.Int
	Path      []chain.Address
	Deadline  time.Time
}

// Venue executes exact-input swaps of a token for native currency.
type Venue interface {
	// Address is the venue's account identity, the spender the payer
	// must approve.
	Address() chain.Address

	// WrappedNative is the wrapped-native-currency address the venue
	// expects as the final hop of a path.
	WrappedNative() chain.Address

	SwapExactTokensForNative(ctx context.Context, req SwapRequest) error
}
