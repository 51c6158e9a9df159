package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/okian/finishline/internal/domain/results"
	"github.com/okian/finishline/internal/domain/types"
	"github.com/okian/finishline/pkg/logger"
	"github.com/okian/finishline/pkg/metrics"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const defaultMaxOpenConns = 8

// SQLStore implements Store over database/sql. The same queries run on
// SQLite and PostgreSQL; placeholders are rebound for PostgreSQL.
type SQLStore struct {
	db           *sql.DB
	driver       string
	maxOpenConns int
	logger       logger.Logger
}

// Open connects to dsn with driver, verifies the connection and creates the schema.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	switch driver {
	case DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	s := New(db, driver, opts...)
	if driver == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := CreateSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.logger.Info(ctx, "database ready", logger.String("driver", driver))
	return s, nil
}

// New wraps an open database.
func New(db *sql.DB, driver string, opts ...Option) *SQLStore {
	s := &SQLStore{
		db:           db,
		driver:       driver,
		maxOpenConns: defaultMaxOpenConns,
		logger:       logger.Get().Named("repository"),
	}
	for _, opt := range opts {
		opt(s)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	return s
}

// Close closes the database.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind turns ? placeholders into $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func observe(query string, start time.Time) {
	metrics.RecordRepositoryQueryLatency(query, float64(time.Since(start).Microseconds())/1000)
}

// Results implements ResultSource.
func (s *SQLStore) Results(ctx context.Context, eventID, category string) ([]results.Row, error) {
	defer observe("results", time.Now())

	rows, err := s.db.QueryContext(ctx, s.rebind(`
SELECT bib, name, rank, chip_time, avg_pace, division, gender, age, division_place, age_performance
FROM results
WHERE event_id = ? AND category = ?
ORDER BY rank, position`), eventID, category)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	out := make([]results.Row, 0)
	for rows.Next() {
		var (
			r        results.Row
			division sql.NullString
			gender   sql.NullString
			age      sql.NullInt64
			place    sql.NullInt64
			perf     sql.NullFloat64
		)
		if err := rows.Scan(&r.Bib, &r.Name, &r.Rank, &r.ChipTime, &r.AvgPace,
			&division, &gender, &age, &place, &perf); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		r.Division = division.String
		r.Gender = types.ParseGender(gender.String)
		if age.Valid {
			v := int(age.Int64)
			r.Age = &v
		}
		if place.Valid {
			v := int(place.Int64)
			r.DivisionPlace = &v
		}
		if perf.Valid {
			v := perf.Float64
			r.AgePerformance = &v
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

// Photos implements PhotoSource.
func (s *SQLStore) Photos(ctx context.Context, eventID, bib string) ([]types.PhotoRef, error) {
	defer observe("photos", time.Now())
	return s.refs(ctx, `SELECT url FROM photos WHERE event_id = ? AND bib = ? ORDER BY position, url`, eventID, bib)
}

// EventPhotos implements PhotoSource. A photo tagged with several bibs is returned once.
func (s *SQLStore) EventPhotos(ctx context.Context, eventID string) ([]types.PhotoRef, error) {
	defer observe("event_photos", time.Now())
	return s.refs(ctx, `SELECT DISTINCT url FROM photos WHERE event_id = ? ORDER BY url`, eventID)
}

func (s *SQLStore) refs(ctx context.Context, query string, args ...any) ([]types.PhotoRef, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query photos: %w", err)
	}
	defer rows.Close()

	out := make([]types.PhotoRef, 0)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		out = append(out, types.PhotoRef(url))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate photos: %w", err)
	}
	return out, nil
}

// Event implements EventSource.
func (s *SQLStore) Event(ctx context.Context, eventID string) (Event, error) {
	defer observe("event", time.Now())

	e := Event{ID: eventID, Categories: []string{}}
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT name, event_date FROM events WHERE id = ?`), eventID).
		Scan(&e.Name, &e.Date)
	if errors.Is(err, sql.ErrNoRows) {
		return Event{}, ErrNotFound
	}
	if err != nil {
		return Event{}, fmt.Errorf("query event: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT name FROM categories WHERE event_id = ? ORDER BY position, name`), eventID)
	if err != nil {
		return Event{}, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return Event{}, fmt.Errorf("scan category: %w", err)
		}
		e.Categories = append(e.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return Event{}, fmt.Errorf("iterate categories: %w", err)
	}
	return e, nil
}

// PutEvent implements Writer. Categories are replaced.
func (s *SQLStore) PutEvent(ctx context.Context, e Event) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO events (id, name, event_date) VALUES (?, ?, ?)
ON CONFLICT (id) DO UPDATE SET name = excluded.name, event_date = excluded.event_date`),
			e.ID, e.Name, e.Date); err != nil {
			return fmt.Errorf("upsert event: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM categories WHERE event_id = ?`), e.ID); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		for i, c := range e.Categories {
			if _, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO categories (event_id, name, position) VALUES (?, ?, ?)`),
				e.ID, c, i); err != nil {
				return fmt.Errorf("insert category: %w", err)
			}
		}
		return nil
	})
}

// PutResults implements Writer. The category's rows are replaced; input
// order is kept as the tie-break for equal ranks.
func (s *SQLStore) PutResults(ctx context.Context, eventID, category string, rows []results.Row) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM results WHERE event_id = ? AND category = ?`),
			eventID, category); err != nil {
			return fmt.Errorf("clear results: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, s.rebind(`
INSERT INTO results (event_id, category, position, bib, name, rank, chip_time, avg_pace,
    division, gender, age, division_place, age_performance)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("prepare results: %w", err)
		}
		defer stmt.Close()
		for i, r := range rows {
			if _, err := stmt.ExecContext(ctx, eventID, category, i, r.Bib, r.Name, r.Rank, r.ChipTime, r.AvgPace,
				nullString(r.Division), nullString(string(r.Gender)), nullInt(r.Age), nullInt(r.DivisionPlace),
				nullFloat(r.AgePerformance)); err != nil {
				return fmt.Errorf("insert result %s: %w", r.Bib, err)
			}
		}
		return nil
	})
}

// PutPhotos implements Writer. Refs already stored for the bib are kept.
func (s *SQLStore) PutPhotos(ctx context.Context, eventID, bib string, refs []types.PhotoRef) error {
	return s.tx(ctx, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx, s.rebind(`SELECT COUNT(*) FROM photos WHERE event_id = ? AND bib = ?`),
			eventID, bib).Scan(&next); err != nil {
			return fmt.Errorf("count photos: %w", err)
		}
		for _, ref := range refs {
			res, err := tx.ExecContext(ctx, s.rebind(`
INSERT INTO photos (event_id, bib, url, position) VALUES (?, ?, ?, ?)
ON CONFLICT (event_id, bib, url) DO NOTHING`), eventID, bib, string(ref), next)
			if err != nil {
				return fmt.Errorf("insert photo: %w", err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				next++
			}
		}
		return nil
	})
}

func (s *SQLStore) tx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: strings.TrimSpace(v) != ""}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
