package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/snowflakedb/gosnowflake"

	"github.com/de-tools/statement-atlas/pkg/export"
)

// Settings configure the warehouse loader.
type Settings struct {
	Table string
	// BatchSize bounds the rows per INSERT statement.
	BatchSize int
}

func DefaultSettings() Settings {
	return Settings{
		Table:     "balance_sheet_line_items",
		BatchSize: 1000,
	}
}

// Loader writes extracted line items into a Snowflake table.
type Loader interface {
	EnsureTable(ctx context.Context) error
	Load(ctx context.Context, records []export.Record) (int, error)
}

type loader struct {
	db       *sql.DB
	settings Settings
}

// Open connects to Snowflake with the given profile config.
func Open(cfg *gosnowflake.Config) (*sql.DB, error) {
	dsn, err := gosnowflake.DSN(cfg)
	if err != nil {
		return nil, fmt.Errorf("build snowflake dsn: %w", err)
	}
	return sql.Open("snowflake", dsn)
}

func NewLoader(db *sql.DB, settings Settings) (Loader, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if settings.Table == "" {
		settings.Table = DefaultSettings().Table
	}
	if settings.BatchSize <= 0 {
		settings.BatchSize = DefaultSettings().BatchSize
	}
	return &loader{db: db, settings: settings}, nil
}

func (l *loader) EnsureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			fiscal_quarter VARCHAR,
			category VARCHAR,
			line_item VARCHAR,
			amount NUMBER(38, 2),
			is_total BOOLEAN,
			loaded_at TIMESTAMP_NTZ DEFAULT CURRENT_TIMESTAMP()
		)`, l.settings.Table)
	if _, err := l.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure table %s: %w", l.settings.Table, err)
	}
	return nil
}

// Load inserts all records in one transaction, batched, and verifies the
// table row count grew by exactly the number of inserted rows.
func (l *loader) Load(ctx context.Context, records []export.Record) (int, error) {
	logger := zerolog.Ctx(ctx)
	if len(records) == 0 {
		return 0, nil
	}

	before, err := l.count(ctx)
	if err != nil {
		return 0, err
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	inserted := 0
	for start := 0; start < len(records); start += l.settings.BatchSize {
		end := start + l.settings.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		if err := l.insertBatch(ctx, tx, batch); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert batch at row %d: %w", start, err)
		}
		inserted += len(batch)
		logger.Debug().Int("rows", len(batch)).Int("total", inserted).Msg("inserted batch")
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	after, err := l.count(ctx)
	if err != nil {
		return inserted, err
	}
	if after-before != inserted {
		return inserted, fmt.Errorf("row count verification failed: expected %d new rows, table grew by %d",
			inserted, after-before)
	}
	logger.Info().Int("rows", inserted).Str("table", l.settings.Table).Msg("load verified")
	return inserted, nil
}

func (l *loader) insertBatch(ctx context.Context, tx *sql.Tx, batch []export.Record) error {
	placeholders := make([]string, len(batch))
	args := make([]any, 0, len(batch)*5)
	for i, r := range batch {
		placeholders[i] = "(?, ?, ?, ?, ?)"
		args = append(args, r.FiscalQuarter, r.Category, r.LineItem, r.Amount.String(), r.IsTotal)
	}
	query := fmt.Sprintf(
		"INSERT INTO %s (fiscal_quarter, category, line_item, amount, is_total) VALUES %s",
		l.settings.Table, strings.Join(placeholders, ", "))
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

func (l *loader) count(ctx context.Context) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", l.settings.Table)
	if err := l.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", l.settings.Table, err)
	}
	return n, nil
}
