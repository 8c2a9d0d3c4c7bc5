package journal

import (
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/rustyeddy/treasury/chain"
)

// GetExecution returns a single execution record by ID.
func (j *SQLite) GetExecution(id string) (ExecutionRecord, error) {
	row := j.db.QueryRow(`
		SELECT id, amount_in, amount_out, time
		FROM executions
		WHERE id = ?`, id)

	rec, err := scanExecution(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return ExecutionRecord{}, fmt.Errorf("execution %q not found", id)
		}
		return ExecutionRecord{}, err
	}
	return rec, nil
}

// ListExecutions returns the most recent executions, newest first.
func (j *SQLite) ListExecutions(limit int) ([]ExecutionRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, amount_in, amount_out, time
		FROM executions
		ORDER BY time DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExecutionRecord
	for rows.Next() {
		rec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListExecutionsBetween returns executions with time within [start, end),
// oldest first.
func (j *SQLite) ListExecutionsBetween(start, end time.Time) ([]ExecutionRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, amount_in, amount_out, time
		FROM executions
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start.UTC(), end.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExecutionRecord
	for rows.Next() {
		rec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Totals sums everything ever converted: input asset spent and native
// currency received.
func (j *SQLite) Totals() (in *big.Int, out *big.Int, err error) {
	rows, err := j.db.Query(`SELECT amount_in, amount_out FROM executions`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	in, out = new(big.Int), new(big.Int)
	for rows.Next() {
		var inStr, outStr string
		if err := rows.Scan(&inStr, &outStr); err != nil {
			return nil, nil, err
		}
		v, err := parseAmount(inStr)
		if err != nil {
			return nil, nil, err
		}
		in.Add(in, v)
		if v, err = parseAmount(outStr); err != nil {
			return nil, nil, err
		}
		out.Add(out, v)
	}
	return in, out, rows.Err()
}

// ListDeposits returns the most recent deposits, newest first.
func (j *SQLite) ListDeposits(limit int) ([]DepositRecord, error) {
	rows, err := j.db.Query(`
		SELECT id, sender, amount, time
		FROM deposits
		ORDER BY time DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DepositRecord
	for rows.Next() {
		var rec DepositRecord
		var sender, amount string
		if err := rows.Scan(&rec.ID, &sender, &amount, &rec.Time); err != nil {
			return nil, err
		}
		rec.Sender = chain.Address(sender)
		if rec.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExecution(s scanner) (ExecutionRecord, error) {
	var rec ExecutionRecord
	var in, out string
	if err := s.Scan(&rec.ID, &in, &out, &rec.Time); err != nil {
		return ExecutionRecord{}, err
	}
	var err error
	if rec.AmountIn, err = parseAmount(in); err != nil {
		return ExecutionRecord{}, err
	}
	if rec.AmountOut, err = parseAmount(out); err != nil {
		return ExecutionRecord{}, err
	}
	return rec, nil
}
