// Package warehouse runs queries and bulk loads against the analytics
// database over database/sql.
package warehouse

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	dserrors "github.com/systmms/containerkit/internal/errors"
	"github.com/systmms/containerkit/internal/logging"
	"github.com/systmms/containerkit/internal/metrics"
)

// Supported driver names.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config selects the driver and connection string for a warehouse.
type Config struct {
	Driver string
	DSN    string
}

// Warehouse wraps one database connection pool.
type Warehouse struct {
	db     *sql.DB
	driver string
	logger *logging.Logger
}

// Open connects to the warehouse described by cfg and verifies the
// connection with a ping.
func Open(ctx context.Context, cfg Config, logger *logging.Logger) (*Warehouse, error) {
	if cfg.Driver != DriverPostgres && cfg.Driver != DriverMySQL {
		return nil, dserrors.ConfigError{
			Field:      "driver",
			Message:    fmt.Sprintf("unsupported warehouse driver %q", cfg.Driver),
			Suggestion: fmt.Sprintf("Use %q or %q", DriverPostgres, DriverMySQL),
		}
	}
	if cfg.DSN == "" {
		return nil, dserrors.ConfigError{
			Field:      "dsn",
			Message:    "warehouse DSN is empty",
			Suggestion: "Set warehouse.dsn in config or provide warehouse credentials in the secret folder",
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, dserrors.WarehouseError(cfg.Driver, "open", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, dserrors.WarehouseError(cfg.Driver, "ping", err)
	}

	return New(db, cfg.Driver, logger), nil
}

// New wraps an existing pool. Used by Open and by tests that inject a
// mock connection.
func New(db *sql.DB, driver string, logger *logging.Logger) *Warehouse {
	if logger == nil {
		logger = logging.New(false, false)
	}
	return &Warehouse{db: db, driver: driver, logger: logger}
}

// Close releases the connection pool.
func (w *Warehouse) Close() error {
	return w.db.Close()
}

// Driver returns the driver name the pool was opened with.
func (w *Warehouse) Driver() string { return w.driver }

// Query runs one statement and materializes the result set as maps
// keyed by column name.
func (w *Warehouse) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := w.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dserrors.WarehouseError(w.driver, "query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, dserrors.WarehouseError(w.driver, "query", err)
	}

	var out []map[string]any
	values := make([]any, len(cols))
	scan := make([]any, len(cols))
	for i := range values {
		scan[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, dserrors.WarehouseError(w.driver, "scan", err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = normalize(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, dserrors.WarehouseError(w.driver, "query", err)
	}
	return out, nil
}

// Load bulk inserts rows into a table inside one transaction. Postgres
// uses COPY; MySQL uses a multi-row INSERT.
func (w *Warehouse) Load(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return dserrors.WarehouseError(w.driver, "load", err)
	}
	defer tx.Rollback()

	switch w.driver {
	case DriverPostgres:
		err = copyRows(ctx, tx, table, columns, rows)
	default:
		err = insertRows(ctx, tx, table, columns, rows)
	}
	if err != nil {
		return dserrors.WarehouseError(w.driver, "load", err)
	}

	if err := tx.Commit(); err != nil {
		return dserrors.WarehouseError(w.driver, "load", err)
	}

	metrics.RecordWarehouseRows(w.driver, float64(len(rows)))
	w.logger.Info("Loaded %d rows into %s", len(rows), table)
	return nil
}

func copyRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn(table, columns...))
	if err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			stmt.Close()
			return err
		}
	}
	// A final Exec with no arguments flushes the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return err
	}
	return stmt.Close()
}

func insertRows(ctx context.Context, tx *sql.Tx, table string, columns []string, rows [][]any) error {
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"
	groups := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		groups[i] = placeholder
		args = append(args, row...)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		table, strings.Join(columns, ", "), strings.Join(groups, ", "))
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// NewJobID produces a sortable identifier for one load or query run.
func NewJobID(prefix string) string {
	suffix := make([]byte, 4)
	rand.Read(suffix)
	return fmt.Sprintf("%s_%s_%s", prefix,
		time.Now().UTC().Format("20060102T150405"), hex.EncodeToString(suffix))
}

func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
