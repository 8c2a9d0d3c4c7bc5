package journal

import (
	"encoding/csv"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/treasury/chain"
)

func TestCSVRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	execPath := filepath.Join(dir, "executions.csv")
	eventsPath := filepath.Join(dir, "events.csv")

	j, err := NewCSV(execPath, eventsPath)
	require.NoError(t, err)

	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordExecution(ExecutionRecord{
		ID: "X1", AmountIn: big.NewInt(500_000_000), AmountOut: chain.Units(2, 17), Time: at,
	}))
	require.NoError(t, j.RecordDeposit(DepositRecord{
		ID: "D1", Sender: chain.Address("0xALICE"), Amount: big.NewInt(42), Time: at,
	}))
	require.NoError(t, j.RecordWithdrawal(WithdrawalRecord{
		ID: "W1", To: chain.Address("0xOWNER"), Amount: chain.Units(1, 18), Time: at,
	}))
	require.NoError(t, j.RecordParams(ParamsRecord{
		ID: "P1", InvestmentAmount: big.NewInt(100_000_000), Interval: 48 * time.Hour, Time: at,
	}))
	require.NoError(t, j.Close())

	rows := readCSV(t, execPath)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"id", "amount_in", "amount_out", "time"}, rows[0])
	assert.Equal(t, []string{"X1", "500000000", "200000000000000000", "2026-02-01T12:00:00Z"}, rows[1])

	rows = readCSV(t, eventsPath)
	require.Len(t, rows, 4)
	assert.Equal(t, "deposit", rows[1][1])
	assert.Equal(t, "withdrawal", rows[2][1])
	assert.Equal(t, "params", rows[3][1])
	assert.Equal(t, "172800", rows[3][4])
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
