package automator

import (
	"math/big"
	"time"

	"github.com/rustyeddy/treasury/chain"
)

// Events receives notifications after each successful state change.
// Implementations must not re-enter the automator; sinks are called
// while no effect is pending, strictly after the change is confirmed.
type Events interface {
	FundsDeposited(sender chain.Address, amount *big.Int)
	DCAExecuted(amountIn, amountOut *big.Int, at time.Time)
	ETHWithdrawn(to chain.Address, amount *big.Int)
	ParametersUpdated(investmentAmount *big.Int, interval time.Duration)
}

// NopEvents discards all notifications.
type NopEvents struct{}

func (NopEvents) FundsDeposited(chain.Address, *big.Int) {}

func (NopEvents) DCAExecuted(*big.Int, *big.Int, time.Time) {}

func (NopEvents) ETHWithdrawn(chain.Address, *big.Int) {}

func (NopEvents) ParametersUpdated(*big.Int, time.Duration) {}
