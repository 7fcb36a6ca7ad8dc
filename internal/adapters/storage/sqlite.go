package storage

// sqlite.go: el ledger completo vive en cuatro tablas (triggers.go usa una quinta).
//
//   - `account`: una única fila (id = 1) con balance, starting balance y fechas.
//   - `positions`: una fila por posición abierta, clave "<marketID>_<side>".
//     Save las reemplaza enteras dentro de la misma transacción.
//   - `trades`: historial append-only. Save solo inserta la cola nueva; si el
//     historial en memoria es más corto que el persistido (reset) se reescribe.
//   - `snapshots`: una fila por fecha, acotadas a domain.MaxSnapshots.

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/alejandrodnm/polyclaw/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS account (
    id               INTEGER PRIMARY KEY CHECK (id = 1),
    starting_balance REAL NOT NULL,
    balance          REAL NOT NULL,
    created_at       TEXT NOT NULL,
    last_trade_at    TEXT
);

CREATE TABLE IF NOT EXISTS positions (
    key         TEXT PRIMARY KEY,
    market_id   TEXT NOT NULL,
    question    TEXT,
    side        TEXT NOT NULL,
    shares      REAL NOT NULL,
    avg_price   REAL NOT NULL,
    opened_at   TEXT NOT NULL,
    strategy    TEXT NOT NULL,
    entry_score INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS trades (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    id          TEXT,
    action      TEXT NOT NULL,
    market_id   TEXT NOT NULL,
    question    TEXT,
    side        TEXT NOT NULL,
    price       REAL NOT NULL,
    amount      REAL NOT NULL,
    shares      REAL NOT NULL,
    strategy    TEXT,
    at          TEXT NOT NULL,
    proceeds    REAL NOT NULL DEFAULT 0,
    profit      REAL NOT NULL DEFAULT 0,
    exit_reason TEXT
);

CREATE TABLE IF NOT EXISTS snapshots (
    date        TEXT PRIMARY KEY,
    total_value REAL NOT NULL,
    pnl         REAL NOT NULL,
    positions   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS triggers (
    id           TEXT PRIMARY KEY,
    alerts       TEXT NOT NULL,
    triggered_at TEXT NOT NULL,
    status       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_at       ON trades(at DESC);
CREATE INDEX IF NOT EXISTS idx_triggers_at     ON triggers(triggered_at DESC);
`

// timeLayout es de ancho fijo para que ORDER BY sobre TEXT respete el orden temporal.
// RFC3339Nano recorta ceros y rompe esa comparación.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStorage implementa ports.LedgerStore y ports.TriggerStore usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// Close cierra la conexión a la base de datos limpiamente.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Load reconstruye el ledger. Devuelve domain.ErrLedgerNotFound si no hay cuenta.
func (s *SQLiteStorage) Load(ctx context.Context) (*domain.Ledger, error) {
	l := &domain.Ledger{Positions: make(map[string]*domain.Position)}

	var createdAt string
	var lastTrade sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT starting_balance, balance, created_at, last_trade_at FROM account WHERE id = 1`,
	).Scan(&l.StartingBalance, &l.Balance, &createdAt, &lastTrade)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrLedgerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage.Load: account: %w", err)
	}
	l.CreatedAt = parseTime(createdAt)
	if lastTrade.Valid {
		t := parseTime(lastTrade.String)
		l.LastTradeAt = &t
	}

	if err := s.loadPositions(ctx, l); err != nil {
		return nil, err
	}
	if err := s.loadTrades(ctx, l); err != nil {
		return nil, err
	}
	if err := s.loadSnapshots(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *SQLiteStorage) loadPositions(ctx context.Context, l *domain.Ledger) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, market_id, COALESCE(question, ''), side, shares, avg_price, opened_at, strategy, entry_score
		FROM positions`)
	if err != nil {
		return fmt.Errorf("storage.Load: positions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p        domain.Position
			key      string
			side     string
			openedAt string
			strategy string
		)
		if err := rows.Scan(&key, &p.MarketID, &p.Question, &side, &p.Shares, &p.AvgPrice, &openedAt, &strategy, &p.EntryScore); err != nil {
			return fmt.Errorf("storage.Load: scan position: %w", err)
		}
		p.Side = domain.Side(side)
		p.Strategy = domain.StrategyTag(strategy)
		p.OpenedAt = parseTime(openedAt)
		l.Positions[key] = &p
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadTrades(ctx context.Context, l *domain.Ledger) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(id, ''), action, market_id, COALESCE(question, ''), side, price, amount, shares,
		       COALESCE(strategy, ''), at, proceeds, profit, COALESCE(exit_reason, '')
		FROM trades ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("storage.Load: trades: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t                              domain.TradeRecord
			action, side, strategy, reason string
			at                             string
		)
		if err := rows.Scan(&t.ID, &action, &t.MarketID, &t.Question, &side, &t.Price, &t.Amount, &t.Shares,
			&strategy, &at, &t.Proceeds, &t.Profit, &reason); err != nil {
			return fmt.Errorf("storage.Load: scan trade: %w", err)
		}
		t.Action = domain.TradeAction(action)
		t.Side = domain.Side(side)
		t.Strategy = domain.StrategyTag(strategy)
		t.ExitReason = domain.ExitReason(reason)
		t.At = parseTime(at)
		l.History = append(l.History, t)
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadSnapshots(ctx context.Context, l *domain.Ledger) error {
	rows, err := s.db.QueryContext(ctx, `SELECT date, total_value, pnl, positions FROM snapshots ORDER BY date`)
	if err != nil {
		return fmt.Errorf("storage.Load: snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d domain.DailySnapshot
		if err := rows.Scan(&d.Date, &d.TotalValue, &d.PnL, &d.Positions); err != nil {
			return fmt.Errorf("storage.Load: scan snapshot: %w", err)
		}
		l.Snapshots = append(l.Snapshots, d)
	}
	return rows.Err()
}

// Save persiste el ledger completo en una única transacción.
func (s *SQLiteStorage) Save(ctx context.Context, l *domain.Ledger) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.Save: begin tx: %w", err)
	}
	defer tx.Rollback()

	var lastTrade *string
	if l.LastTradeAt != nil {
		v := l.LastTradeAt.UTC().Format(timeLayout)
		lastTrade = &v
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO account (id, starting_balance, balance, created_at, last_trade_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			starting_balance = excluded.starting_balance,
			balance          = excluded.balance,
			created_at       = excluded.created_at,
			last_trade_at    = excluded.last_trade_at`,
		l.StartingBalance, l.Balance, l.CreatedAt.UTC().Format(timeLayout), lastTrade,
	); err != nil {
		return fmt.Errorf("storage.Save: account: %w", err)
	}

	if err := savePositions(ctx, tx, l); err != nil {
		return err
	}
	if err := saveTrades(ctx, tx, l.History); err != nil {
		return err
	}
	if err := saveSnapshots(ctx, tx, l.Snapshots); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.Save: commit: %w", err)
	}
	return nil
}

func savePositions(ctx context.Context, tx *sql.Tx, l *domain.Ledger) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM positions`); err != nil {
		return fmt.Errorf("storage.Save: clear positions: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO positions (key, market_id, question, side, shares, avg_price, opened_at, strategy, entry_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.Save: prepare positions: %w", err)
	}
	defer stmt.Close()

	for _, key := range l.SortedKeys() {
		p := l.Positions[key]
		if _, err := stmt.ExecContext(ctx, key, p.MarketID, p.Question, string(p.Side), p.Shares, p.AvgPrice,
			p.OpenedAt.UTC().Format(timeLayout), string(p.Strategy), p.EntryScore); err != nil {
			return fmt.Errorf("storage.Save: insert position %s: %w", key, err)
		}
	}
	return nil
}

func saveTrades(ctx context.Context, tx *sql.Tx, history []domain.TradeRecord) error {
	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM trades`).Scan(&stored); err != nil {
		return fmt.Errorf("storage.Save: count trades: %w", err)
	}
	if stored > len(history) {
		if _, err := tx.ExecContext(ctx, `DELETE FROM trades`); err != nil {
			return fmt.Errorf("storage.Save: clear trades: %w", err)
		}
		stored = 0
	}
	if stored == len(history) {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trades (id, action, market_id, question, side, price, amount, shares, strategy, at, proceeds, profit, exit_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("storage.Save: prepare trades: %w", err)
	}
	defer stmt.Close()

	for _, t := range history[stored:] {
		if _, err := stmt.ExecContext(ctx, t.ID, string(t.Action), t.MarketID, t.Question, string(t.Side),
			t.Price, t.Amount, t.Shares, string(t.Strategy), t.At.UTC().Format(timeLayout),
			t.Proceeds, t.Profit, string(t.ExitReason)); err != nil {
			return fmt.Errorf("storage.Save: insert trade: %w", err)
		}
	}
	return nil
}

func saveSnapshots(ctx context.Context, tx *sql.Tx, snaps []domain.DailySnapshot) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("storage.Save: clear snapshots: %w", err)
	}
	for _, d := range snaps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshots (date, total_value, pnl, positions) VALUES (?, ?, ?, ?)`,
			d.Date, d.TotalValue, d.PnL, d.Positions,
		); err != nil {
			return fmt.Errorf("storage.Save: insert snapshot %s: %w", d.Date, err)
		}
	}
	return nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
