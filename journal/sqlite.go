package journal

import (
	"database/sql"
	"fmt"
	"math/big"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordExecution(r ExecutionRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO executions (id, amount_in, amount_out, time)
		VALUES (?, ?, ?, ?)`,
		r.ID, r.AmountIn.String(), r.AmountOut.String(), r.Time.UTC(),
	)
	return err
}

func (j *SQLite) RecordDeposit(r DepositRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO deposits (id, sender, amount, time)
		VALUES (?, ?, ?, ?)`,
		r.ID, string(r.Sender), r.Amount.String(), r.Time.UTC(),
	)
	return err
}

func (j *SQLite) RecordWithdrawal(r WithdrawalRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO withdrawals (id, recipient, amount, time)
		VALUES (?, ?, ?, ?)`,
		r.ID, string(r.To), r.Amount.String(), r.Time.UTC(),
	)
	return err
}

func (j *SQLite) RecordParams(r ParamsRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO params_updates (id, investment_amount, interval_seconds, time)
		VALUES (?, ?, ?, ?)`,
		r.ID, r.InvestmentAmount.String(), int64(r.Interval/time.Second), r.Time.UTC(),
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}

// parseAmount recovers a big.Int from its stored TEXT form.
func parseAmount(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed stored amount %q", s)
	}
	return v, nil
}
