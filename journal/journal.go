// Package journal records what the automator did: deposits,
// executions, withdrawals, and parameter changes. Backends exist for
// SQLite, CSV, and a no-op sink.
package journal

import (
	"math/big"
	"time"

	"github.com/rustyeddy/treasury/chain"
)

// ExecutionRecord captures one successful conversion.
type ExecutionRecord struct {
	ID        string
	AmountIn  *big.Int
	AmountOut *big.Int
	Time      time.Time
}

// DepositRecord captures one successful deposit of the input asset.
type DepositRecord struct {
	ID     string
	Sender chain.Address
	Amount *big.Int
	Time   time.Time
}

// WithdrawalRecord captures one successful native-currency withdrawal.
type WithdrawalRecord struct {
	ID     string
	To     chain.Address
	Amount *big.Int
	Time   time.Time
}

// ParamsRecord captures one parameter update.
type ParamsRecord struct {
	ID               string
	InvestmentAmount *big.Int
	Interval         time.Duration
	Time             time.Time
}

type Journal interface {
	RecordExecution(ExecutionRecord) error
	RecordDeposit(DepositRecord) error
	RecordWithdrawal(WithdrawalRecord) error
	RecordParams(ParamsRecord) error
	Close() error
}
