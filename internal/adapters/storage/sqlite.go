package storage

// sqlite.go: historial de señales y snapshots del ledger de paper trading.
//
//   - `signals`: una fila por señal emitida. Columnas planas para filtrar
//     y el JSON completo en `payload` para reconstruir la señal.
//   - `paper_orders` / `paper_positions`: estado del ledger por run_id.
//     SaveLedger reescribe el run completo en una transacción (idempotente).
//   - `ledger_snapshots`: una fila por run con balances y stats.
//   - Prune al arrancar: señales de más de 30 días.

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alejandrodnm/polyarb/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS signals (
    id          TEXT    PRIMARY KEY,
    run_id      TEXT    NOT NULL,
    strategy    TEXT    NOT NULL,
    kind        TEXT    NOT NULL,
    market_id   TEXT,
    confidence  REAL    NOT NULL DEFAULT 0,
    reason      TEXT,
    created_at  INTEGER NOT NULL,
    payload     TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS paper_orders (
    run_id          TEXT NOT NULL,
    id              TEXT NOT NULL,
    market_id       TEXT NOT NULL,
    market_question TEXT,
    side            TEXT NOT NULL,
    size            REAL NOT NULL,
    price           REAL NOT NULL,
    timestamp       REAL NOT NULL,
    crypto_price    REAL,
    crypto_symbol   TEXT,
    PRIMARY KEY (run_id, id)
);

CREATE TABLE IF NOT EXISTS paper_positions (
    run_id          TEXT NOT NULL,
    id              TEXT NOT NULL,
    market_id       TEXT NOT NULL,
    market_question TEXT,
    entry_order_id  TEXT NOT NULL,
    exit_order_id   TEXT,
    status          TEXT NOT NULL,
    PRIMARY KEY (run_id, id)
);

CREATE TABLE IF NOT EXISTS ledger_snapshots (
    run_id          TEXT    PRIMARY KEY,
    saved_at        INTEGER NOT NULL,
    initial_balance REAL    NOT NULL,
    current_balance REAL    NOT NULL,
    total_trades    INTEGER NOT NULL DEFAULT 0,
    total_pnl       REAL    NOT NULL DEFAULT 0,
    win_rate        REAL    NOT NULL DEFAULT 0,
    total_return    REAL    NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_signals_at       ON signals(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_signals_strategy ON signals(strategy);
CREATE INDEX IF NOT EXISTS idx_signals_run      ON signals(run_id);
`

const retentionSignals = 30 * 24 * time.Hour

// SQLiteStorage implementa ports.TradeLog usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada
// y aplica el schema.
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

	s := &SQLiteStorage{db: db}
	s.pruneOld(context.Background())
	return s, nil
}

// SaveSignals persiste las señales del ciclo. Re-guardar una señal con el
// mismo ID la sobreescribe.
func (s *SQLiteStorage) SaveSignals(ctx context.Context, runID string, signals []domain.TradingSignal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveSignals: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO signals
			(id, run_id, strategy, kind, market_id, confidence, reason, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveSignals: prepare: %w", err)
	}
	defer stmt.Close()

	for _, sig := range signals {
		payload, err := json.Marshal(sig)
		if err != nil {
			return fmt.Errorf("storage.SaveSignals: encode %s: %w", sig.ID, err)
		}
		createdAt := sig.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			sig.ID,
			runID,
			sig.Strategy,
			string(sig.Kind),
			sig.MarketID,
			sig.Confidence,
			sig.Reason,
			createdAt.UnixNano(),
			string(payload),
		); err != nil {
			return fmt.Errorf("storage.SaveSignals: insert %s: %w", sig.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveSignals: commit: %w", err)
	}
	return nil
}

// GetSignals devuelve las señales creadas en [from, to], de la más reciente
// a la más antigua.
func (s *SQLiteStorage) GetSignals(ctx context.Context, from, to time.Time) ([]domain.TradingSignal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM signals
		WHERE created_at BETWEEN ? AND ?
		ORDER BY created_at DESC, id
	`, from.UnixNano(), to.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("storage.GetSignals: query: %w", err)
	}
	defer rows.Close()

	var signals []domain.TradingSignal
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("storage.GetSignals: scan row: %w", err)
		}
		var sig domain.TradingSignal
		if err := json.Unmarshal([]byte(payload), &sig); err != nil {
			return nil, fmt.Errorf("storage.GetSignals: decode payload: %w", err)
		}
		signals = append(signals, sig)
	}
	return signals, rows.Err()
}

// SaveLedger reescribe órdenes, posiciones y snapshot del run dado.
func (s *SQLiteStorage) SaveLedger(ctx context.Context, runID string, export domain.LedgerExport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveLedger: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"paper_orders", "paper_positions"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("storage.SaveLedger: clear %s: %w", table, err)
		}
	}

	orderStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO paper_orders
			(run_id, id, market_id, market_question, side, size, price, timestamp, crypto_price, crypto_symbol)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveLedger: prepare orders: %w", err)
	}
	defer orderStmt.Close()

	for _, o := range export.Orders {
		if _, err := orderStmt.ExecContext(ctx,
			runID, o.ID, o.MarketID, o.MarketQuestion, o.Side,
			o.Size, o.Price, o.Timestamp, o.CryptoPrice, o.CryptoSymbol,
		); err != nil {
			return fmt.Errorf("storage.SaveLedger: insert order %s: %w", o.ID, err)
		}
	}

	posStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO paper_positions
			(run_id, id, market_id, market_question, entry_order_id, exit_order_id, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("storage.SaveLedger: prepare positions: %w", err)
	}
	defer posStmt.Close()

	for _, p := range export.Positions {
		var exitID *string
		if p.ExitOrder != nil {
			id := p.ExitOrder.ID
			exitID = &id
		}
		if _, err := posStmt.ExecContext(ctx,
			runID, p.ID, p.MarketID, p.MarketQuestion, p.EntryOrder.ID, exitID, p.Status,
		); err != nil {
			return fmt.Errorf("storage.SaveLedger: insert position %s: %w", p.ID, err)
		}
	}

	st := export.Stats
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO ledger_snapshots
			(run_id, saved_at, initial_balance, current_balance, total_trades, total_pnl, win_rate, total_return)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			saved_at        = excluded.saved_at,
			current_balance = excluded.current_balance,
			total_trades    = excluded.total_trades,
			total_pnl       = excluded.total_pnl,
			win_rate        = excluded.win_rate,
			total_return    = excluded.total_return
	`, runID, time.Now().UnixNano(), export.InitialBalance, export.CurrentBalance,
		st.TotalTrades, st.TotalPnL, st.WinRate, st.TotalReturn,
	); err != nil {
		return fmt.Errorf("storage.SaveLedger: upsert snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveLedger: commit: %w", err)
	}
	return nil
}

// GetLedgerSnapshot devuelve el último snapshot del run. sql.ErrNoRows si no existe.
func (s *SQLiteStorage) GetLedgerSnapshot(ctx context.Context, runID string) (domain.LedgerSnapshot, error) {
	snap := domain.LedgerSnapshot{RunID: runID}
	var savedAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT saved_at, initial_balance, current_balance, total_trades, total_pnl, win_rate, total_return,
		       (SELECT COUNT(*) FROM paper_orders WHERE run_id = ?),
		       (SELECT COUNT(*) FROM paper_positions WHERE run_id = ?)
		FROM ledger_snapshots WHERE run_id = ?
	`, runID, runID, runID).Scan(
		&savedAt, &snap.InitialBalance, &snap.CurrentBalance,
		&snap.Stats.TotalTrades, &snap.Stats.TotalPnL, &snap.Stats.WinRate, &snap.Stats.TotalReturn,
		&snap.Orders, &snap.Positions,
	)
	if err != nil {
		return domain.LedgerSnapshot{}, fmt.Errorf("storage.GetLedgerSnapshot: %w", err)
	}
	snap.SavedAt = time.Unix(0, savedAt)
	snap.Stats.CurrentBalance = snap.CurrentBalance
	return snap, nil
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// pruneOld elimina señales antiguas para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	cutoff := time.Now().Add(-retentionSignals).UnixNano()
	s.db.ExecContext(ctx, `DELETE FROM signals WHERE created_at < ?`, cutoff)
}
