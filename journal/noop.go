package journal

// Noop discards every record. Useful when running without persistence.
type Noop struct{}

func (Noop) RecordExecution(ExecutionRecord) error { return nil }

func (Noop) RecordDeposit(DepositRecord) error { return nil }

func (Noop) RecordWithdrawal(WithdrawalRecord) error { return nil }

func (Noop) RecordParams(ParamsRecord) error { return nil }

func (Noop) Close() error { return nil }
