// Package sqlite persists run summaries and trade logs so backtest results
// survive the process and can be compared across parameter sweeps.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"quantsim/internal/domain"
	"quantsim/internal/ports"
)

// Repository implements ports.RunRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository opens (or creates) the database at cfg.DBPath and ensures
// the schema exists.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("%w: logger is required for SQLite repository", ports.ErrConfiguration)
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/quantsim.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory %q: %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at %q: %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at %q: %w: %w", dbPath, ports.ErrDBConnection, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite serializes writes internally; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	cfg.Logger.Info(context.Background(), "SQLite database ready", map[string]interface{}{"path": dbPath})
	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		base_currency TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NOT NULL,
		starting_equity REAL NOT NULL,
		final_equity REAL NOT NULL,
		trades INTEGER NOT NULL,
		rejected INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		symbol TEXT NOT NULL,
		asset_type TEXT NOT NULL,
		currency TEXT NOT NULL,
		size REAL NOT NULL,
		price REAL NOT NULL,
		fee REAL NOT NULL,
		pnl REAL NOT NULL,
		executed_at TIMESTAMP NOT NULL,
		order_id INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_trades_run_id ON trades (run_id);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w: %w", ports.ErrQueryFailed, err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// SaveRun persists a run summary and returns its storage ID.
func (r *Repository) SaveRun(ctx context.Context, rec *ports.RunRecord) (int64, error) {
	const query = `
	INSERT INTO runs (run_id, name, base_currency, started_at, finished_at,
	                  starting_equity, final_equity, trades, rejected, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		rec.RunID, rec.Name, string(rec.BaseCurrency), rec.StartedAt, rec.FinishedAt,
		rec.StartingEquity, rec.FinalEquity, rec.Trades, rec.Rejected, rec.Err)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run %s: %w: %w", rec.RunID, ports.ErrQueryFailed, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert ID for run %s: %w", rec.RunID, err)
	}
	r.logger.Debug(ctx, "Run saved", map[string]interface{}{"runID": rec.RunID, "id": id})
	return id, nil
}

// SaveTrades persists the trades of a run in a single transaction.
func (r *Repository) SaveTrades(ctx context.Context, runID string, trades []domain.Trade) error {
	if len(trades) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin trade insert for run %s: %w: %w", runID, ports.ErrQueryFailed, err)
	}
	defer tx.Rollback()

	const query = `
	INSERT INTO trades (run_id, symbol, asset_type, currency, size, price, fee, pnl, executed_at, order_id)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare trade insert for run %s: %w: %w", runID, ports.ErrQueryFailed, err)
	}
	defer stmt.Close()

	for _, t := range trades {
		_, err := stmt.ExecContext(ctx,
			runID, t.Asset.Symbol, string(t.Asset.Type), string(t.Asset.Currency),
			t.Size, t.Price, t.Fee, t.PNL, t.Time, int64(t.OrderID))
		if err != nil {
			return fmt.Errorf("failed to insert trade for run %s: %w: %w", runID, ports.ErrQueryFailed, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit trades for run %s: %w: %w", runID, ports.ErrQueryFailed, err)
	}
	r.logger.Debug(ctx, "Trades saved", map[string]interface{}{"runID": runID, "count": len(trades)})
	return nil
}

// FindRun retrieves a run summary by its run ID. Returns nil, nil when no
// such run exists.
func (r *Repository) FindRun(ctx context.Context, runID string) (*ports.RunRecord, error) {
	const query = `
	SELECT run_id, name, base_currency, started_at, finished_at,
	       starting_equity, final_equity, trades, rejected, error
	FROM runs
	WHERE run_id = ?`

	row := r.db.QueryRowContext(ctx, query, runID)
	var rec ports.RunRecord
	var baseCurrency string
	err := row.Scan(&rec.RunID, &rec.Name, &baseCurrency, &rec.StartedAt, &rec.FinishedAt,
		&rec.StartingEquity, &rec.FinalEquity, &rec.Trades, &rec.Rejected, &rec.Err)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query run %s: %w: %w", runID, ports.ErrQueryFailed, err)
	}
	rec.BaseCurrency = domain.Currency(baseCurrency)
	return &rec, nil
}

// FindTrades retrieves the trades of a run in execution order.
func (r *Repository) FindTrades(ctx context.Context, runID string) ([]domain.Trade, error) {
	const query = `
	SELECT symbol, asset_type, currency, size, price, fee, pnl, executed_at, order_id
	FROM trades
	WHERE run_id = ?
	ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trades for run %s: %w: %w", runID, ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	var trades []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var symbol, assetType, currency string
		var orderID int64
		if err := rows.Scan(&symbol, &assetType, &currency, &t.Size, &t.Price, &t.Fee, &t.PNL, &t.Time, &orderID); err != nil {
			return nil, fmt.Errorf("failed to scan trade for run %s: %w", runID, err)
		}
		t.Asset = domain.Asset{Symbol: symbol, Type: domain.AssetType(assetType), Currency: domain.Currency(currency)}
		t.OrderID = domain.OrderID(orderID)
		trades = append(trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating trades for run %s: %w", runID, err)
	}
	return trades, nil
}

var _ ports.RunRepository = (*Repository)(nil)
