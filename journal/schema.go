package journal

// Amounts are stored as decimal TEXT: base units do not fit SQLite
// integers once the native side is denominated in wei.
const Schema = `
CREATE TABLE IF NOT EXISTS executions (
	id TEXT PRIMARY KEY,
	amount_in TEXT NOT NULL,
	amount_out TEXT NOT NULL,
	time DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS deposits (
	id TEXT PRIMARY KEY,
	sender TEXT NOT NULL,
	amount TEXT NOT NULL,
	time DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS withdrawals (
	id TEXT PRIMARY KEY,
	recipient TEXT NOT NULL,
	amount TEXT NOT NULL,
	time DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS params_updates (
	id TEXT PRIMARY KEY,
	investment_amount TEXT NOT NULL,
	interval_seconds INTEGER NOT NULL,
	time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_executions_time ON executions(time);
CREATE INDEX IF NOT EXISTS idx_deposits_time ON deposits(time);
`
