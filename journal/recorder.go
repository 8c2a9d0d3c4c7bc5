package journal

import (
	"math/big"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/treasury/chain"
	"github.com/rustyeddy/treasury/pkg/id"
)

// Recorder adapts a Journal to the automator's event sink. Journal
// failures are logged and dropped; a persistence hiccup must never fail
// the operation that already committed.
type Recorder struct {
	journal Journal
	log     zerolog.Logger
	clock   chain.Clock
}

func NewRecorder(j Journal, log zerolog.Logger, clock chain.Clock) *Recorder {
	if clock == nil {
		clock = chain.SystemClock{}
	}
	return &Recorder{journal: j, log: log, clock: clock}
}

func (r *Recorder) FundsDeposited(sender chain.Address, amount *big.Int) {
	err := r.journal.RecordDeposit(DepositRecord{
		ID:     id.New(),
		Sender: sender,
		Amount: amount,
		Time:   r.clock.Now(),
	})
	if err != nil {
		r.log.Error().Err(err).Str("sender", sender.String()).Msg("record deposit")
	}
}

func (r *Recorder) DCAExecuted(amountIn, amountOut *big.Int, at time.Time) {
	err := r.journal.RecordExecution(ExecutionRecord{
		ID:        id.New(),
		AmountIn:  amountIn,
		AmountOut: amountOut,
		Time:      at,
	})
	if err != nil {
		r.log.Error().Err(err).Msg("record execution")
	}
}

func (r *Recorder) ETHWithdrawn(to chain.Address, amount *big.Int) {
	err := r.journal.RecordWithdrawal(WithdrawalRecord{
		ID:     id.New(),
		To:     to,
		Amount: amount,
		Time:   r.clock.Now(),
	})
	if err != nil {
		r.log.Error().Err(err).Str("to", to.String()).Msg("record withdrawal")
	}
}

func (r *Recorder) ParametersUpdated(investmentAmount *big.Int, interval time.Duration) {
	err := r.journal.RecordParams(ParamsRecord{
		ID:               id.New(),
		InvestmentAmount: investmentAmount,
		Interval:         interval,
		Time:             r.clock.Now(),
	})
	if err != nil {
		r.log.Error().Err(err).Msg("record params update")
	}
}
