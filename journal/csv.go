package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

// CSV writes executions to one file and all cash movements (deposits,
// withdrawals, parameter updates) to another, with a type column.
type CSV struct {
	executions *csv.Writer
	events     *csv.Writer
	xf, ef     *os.File
}

func NewCSV(executionsPath, eventsPath string) (*CSV, error) {
	xf, err := os.Create(executionsPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(eventsPath)
	if err != nil {
		xf.Close()
		return nil, err
	}

	xw := csv.NewWriter(xf)
	ew := csv.NewWriter(ef)

	if err := xw.Write([]string{"id", "amount_in", "amount_out", "time"}); err != nil {
		return nil, err
	}
	if err := ew.Write([]string{"id", "type", "account", "amount", "interval_seconds", "time"}); err != nil {
		return nil, err
	}

	xw.Flush()
	if err := xw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSV{xw, ew, xf, ef}, nil
}

func (j *CSV) RecordExecution(r ExecutionRecord) error {
	j.executions.Write([]string{
		r.ID,
		r.AmountIn.String(),
		r.AmountOut.String(),
		r.Time.UTC().Format(time.RFC3339),
	})
	j.executions.Flush()
	return j.executions.Error()
}

func (j *CSV) RecordDeposit(r DepositRecord) error {
	return j.event(r.ID, "deposit", string(r.Sender), r.Amount.String(), "", r.Time)
}

func (j *CSV) RecordWithdrawal(r WithdrawalRecord) error {
	return j.event(r.ID, "withdrawal", string(r.To), r.Amount.String(), "", r.Time)
}

func (j *CSV) RecordParams(r ParamsRecord) error {
	secs := strconv.FormatInt(int64(r.Interval/time.Second), 10)
	return j.event(r.ID, "params", "", r.InvestmentAmount.String(), secs, r.Time)
}

func (j *CSV) Close() error {
	j.executions.Flush()
	j.events.Flush()
	if err := j.xf.Close(); err != nil {
		j.ef.Close()
		return err
	}
	return j.ef.Close()
}

func (j *CSV) event(id, kind, account, amount, interval string, t time.Time) error {
	j.events.Write([]string{id, kind, account, amount, interval, t.UTC().Format(time.RFC3339)})
	j.events.Flush()
	return j.events.Error()
}
