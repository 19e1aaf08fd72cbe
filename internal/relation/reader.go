// Package relation implements the adapter answering single-field lookups
// against one external data source.
package relation

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/keuin/daigunyun/internal/config"
	"github.com/keuin/daigunyun/internal/logger"
	"github.com/keuin/daigunyun/internal/sqlutil"
)

// Reader answers lookups against a single configured relation.
// The lookup SQL is prebuilt per field at construction time, and the
// underlying *sql.DB pool is safe for use by overlapping requests.
type Reader struct {
	name     string
	fieldIDs []string
	db       *sql.DB
	queries  map[string]string // field id -> lookup SQL
	log      *logger.Logger
}

// New opens the relation's data source and verifies connectivity.
// Construction is eager: an unreachable source fails here, at startup,
// never during a request.
func New(ctx context.Context, cfg config.Relation, log *logger.Logger) (*Reader, error) {
	driver, dsn, err := ParseConnect(cfg.Connect)
	if err != nil {
		return nil, fmt.Errorf("relation %q: %w", cfg.Name, err)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open data source for relation %q: %w", cfg.Name, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %q for relation %q: %w", cfg.Connect, cfg.Name, err)
	}

	r, err := NewWithDB(cfg, db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// NewWithDB builds a Reader over an existing database handle, skipping
// the connectivity check. Primarily used by tests.
func NewWithDB(cfg config.Relation, db *sql.DB, log *logger.Logger) (*Reader, error) {
	if len(cfg.Fields) == 0 {
		return nil, fmt.Errorf("relation %q does not have any field", cfg.Name)
	}

	queries, err := buildQueries(cfg)
	if err != nil {
		return nil, err
	}

	fieldIDs := make([]string, len(cfg.Fields))
	for i, f := range cfg.Fields {
		fieldIDs[i] = f.ID
	}

	return &Reader{
		name:     cfg.Name,
		fieldIDs: fieldIDs,
		db:       db,
		queries:  queries,
		log:      log.WithRelation(cfg.Name),
	}, nil
}

// buildQueries constructs one lookup statement per declared field.
// Every statement projects all declared extraction expressions aliased
// to their field ids, filtered on the probed field's expression.
func buildQueries(cfg config.Relation) (map[string]string, error) {
	table, err := sqlutil.QuoteIdentifierSafe(cfg.TableName)
	if err != nil {
		return nil, fmt.Errorf("relation %q: %w", cfg.Name, err)
	}

	cols := make([]string, 0, len(cfg.Fields))
	for _, f := range cfg.Fields {
		alias, err := sqlutil.QuoteIdentifierSafe(f.ID)
		if err != nil {
			return nil, fmt.Errorf("relation %q: %w", cfg.Name, err)
		}
		cols = append(cols, fmt.Sprintf("(%s) AS %s", f.Query, alias))
	}
	projection := strings.Join(cols, ", ")

	queries := make(map[string]string, len(cfg.Fields))
	for _, f := range cfg.Fields {
		queries[f.ID] = fmt.Sprintf("SELECT %s FROM %s WHERE (%s) = ?", projection, table, f.Query)
	}
	return queries, nil
}

// Name returns the relation's configured name.
func (r *Reader) Name() string {
	return r.name
}

// FieldIDs returns the declared field ids in declaration order.
func (r *Reader) FieldIDs() []string {
	return r.fieldIDs
}

// Lookup runs the prebuilt query for field against value and returns
// every matched row's projected columns, keyed by field id. Rows are
// aggregated: one lookup may yield several values per field, and later
// rows never overwrite earlier ones. NULL columns are skipped.
func (r *Reader) Lookup(ctx context.Context, field, value string) (map[string][]string, error) {
	query, ok := r.queries[field]
	if !ok {
		return nil, fmt.Errorf("relation %q does not expose field %q", r.name, field)
	}

	r.log.Debugw("running lookup", "field", field, "sql", query)

	rows, err := r.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("executing lookup: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading result columns: %w", err)
	}

	result := make(map[string][]string)
	scanned := make([]sql.NullString, len(cols))
	dest := make([]interface{}, len(cols))
	for i := range scanned {
		dest[i] = &scanned[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning matched row: %w", err)
		}
		for i, col := range cols {
			if !scanned[i].Valid {
				continue
			}
			result[col] = append(result[col], scanned[i].String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matched rows: %w", err)
	}

	return result, nil
}

// Close releases the underlying connection pool.
func (r *Reader) Close() error {
	return r.db.Close()
}
