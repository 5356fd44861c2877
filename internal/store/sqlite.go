package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/amishk599/internfeed/internal/model"
)

// Ensure SQLiteStore implements the store interfaces.
var (
	_ model.RecordStore = (*SQLiteStore)(nil)
	_ model.QuotaStore  = (*SQLiteStore)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	id           TEXT NOT NULL UNIQUE,
	link         TEXT UNIQUE,
	title        TEXT NOT NULL,
	company      TEXT NOT NULL,
	location     TEXT NOT NULL,
	country      TEXT NOT NULL,
	field        TEXT NOT NULL,
	source       TEXT NOT NULL,
	duration     TEXT NOT NULL,
	stipend      TEXT NOT NULL,
	deadline     TEXT NOT NULL,
	requirements TEXT NOT NULL DEFAULT '[]',
	logo         TEXT NOT NULL DEFAULT '',
	posted_at    INTEGER, -- unix microseconds
	ingested_at  INTEGER NOT NULL,
	delivered    INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_records_pending ON records (delivered, ingested_at);
CREATE TABLE IF NOT EXISTS user_requests (
	requester TEXT NOT NULL,
	day       TEXT NOT NULL,
	count     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (requester, day)
);`

const recordColumns = `id, link, title, company, location, country, field, source,
	duration, stipend, deadline, requirements, logo, posted_at, ingested_at, delivered`

// SQLiteStore keeps the full record table and the per-user quota table in a
// SQLite database.
type SQLiteStore struct {
	mu sync.Mutex // serializes writers so the dual-key check and insert are atomic
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures the
// schema exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// InsertIfAbsent stores rec unless its ID or link is already present.
func (s *SQLiteStore) InsertIfAbsent(ctx context.Context, rec model.Record) (model.InsertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("inserting %s: begin: %w", rec.ID, err)
	}
	defer tx.Rollback()

	var storedID string
	var storedLink sql.NullString
	err = tx.QueryRowContext(ctx,
		"SELECT id, link FROM records WHERE id = ? OR (link IS NOT NULL AND link = ?) LIMIT 1",
		rec.ID, nullable(rec.Link),
	).Scan(&storedID, &storedLink)
	switch {
	case err == nil:
		return classifyCollision(rec, storedID, storedLink.String), nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("inserting %s: checking keys: %w", rec.ID, err)
	}

	reqs, err := json.Marshal(nonNil(rec.Requirements))
	if err != nil {
		return 0, fmt.Errorf("inserting %s: encoding requirements: %w", rec.ID, err)
	}

	_, err = tx.ExecContext(ctx, "INSERT INTO records ("+recordColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		rec.ID, nullable(rec.Link), rec.Title, rec.Company, rec.Location, rec.Country, rec.Field, rec.Source,
		rec.Duration, rec.Stipend, rec.Deadline, string(reqs), rec.Logo,
		unixMicroPtr(rec.PostedAt), rec.IngestedAt.UnixNano(), rec.Delivered,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting %s: %w", rec.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("inserting %s: commit: %w", rec.ID, err)
	}
	return model.Inserted, nil
}

// MarkDelivered flags a record as delivered. The flag is never cleared.
func (s *SQLiteStore) MarkDelivered(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "UPDATE records SET delivered = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking %s delivered: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("marking %s delivered: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("marking %s delivered: %w", id, model.ErrNotFound)
	}
	return nil
}

// QueryPending returns up to limit undelivered records. A non-positive limit
// returns all of them.
func (s *SQLiteStore) QueryPending(ctx context.Context, limit int, order model.PendingOrder) ([]model.Record, error) {
	orderBy := "ingested_at DESC, seq ASC"
	if order == model.OldestFirst {
		orderBy = "ingested_at ASC, seq ASC"
	}
	q := "SELECT " + recordColumns + " FROM records WHERE delivered = 0 ORDER BY " + orderBy + " LIMIT ?"
	return s.query(ctx, q, sqlLimit(limit))
}

// QueryByFilter returns the most recent records matching f. Country matches
// the whole stored name case-insensitively, field matches exactly.
func (s *SQLiteStore) QueryByFilter(ctx context.Context, f model.SearchFilter) ([]model.Record, error) {
	var where []string
	var args []any
	if !matchesAll(f.Country) {
		where = append(where, "lower(country) = lower(?)")
		args = append(args, strings.TrimSpace(f.Country))
	}
	if !matchesAll(f.Field) {
		where = append(where, "field = ?")
		args = append(args, strings.TrimSpace(f.Field))
	}

	q := "SELECT " + recordColumns + " FROM records"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY posted_at IS NULL, posted_at DESC, ingested_at DESC, seq ASC LIMIT ?"
	args = append(args, sqlLimit(f.Limit))
	return s.query(ctx, q, args...)
}

// Stats counts stored, delivered and pending records.
func (s *SQLiteStore) Stats(ctx context.Context) (model.StoreStats, error) {
	var st model.StoreStats
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(delivered), 0) FROM records",
	).Scan(&st.Total, &st.Delivered)
	if err != nil {
		return st, fmt.Errorf("reading store stats: %w", err)
	}
	st.Pending = st.Total - st.Delivered
	return st, nil
}

// ConsumeQuota increments the request count for (requester, day) when it is
// below limit. A rejected request leaves the count untouched.
func (s *SQLiteStore) ConsumeQuota(ctx context.Context, requester, day string, limit int) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, 0, fmt.Errorf("consuming quota for %s: %w", requester, err)
	}
	defer tx.Rollback()

	var count int
	err = tx.QueryRowContext(ctx,
		"SELECT count FROM user_requests WHERE requester = ? AND day = ?", requester, day,
	).Scan(&count)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, 0, fmt.Errorf("consuming quota for %s: %w", requester, err)
	}
	if count >= limit {
		return false, count, nil
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO user_requests (requester, day, count) VALUES (?, ?, 1)
		ON CONFLICT (requester, day) DO UPDATE SET count = count + 1`, requester, day)
	if err != nil {
		return false, count, fmt.Errorf("consuming quota for %s: %w", requester, err)
	}
	if err := tx.Commit(); err != nil {
		return false, count, fmt.Errorf("consuming quota for %s: commit: %w", requester, err)
	}
	return true, count + 1, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		var (
			rec       model.Record
			link      sql.NullString
			reqs      string
			postedAt  sql.NullInt64
			ingested  int64
			delivered bool
		)
		if err := rows.Scan(&rec.ID, &link, &rec.Title, &rec.Company, &rec.Location, &rec.Country,
			&rec.Field, &rec.Source, &rec.Duration, &rec.Stipend, &rec.Deadline, &reqs, &rec.Logo,
			&postedAt, &ingested, &delivered); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec.Link = link.String
		if err := json.Unmarshal([]byte(reqs), &rec.Requirements); err != nil {
			return nil, fmt.Errorf("decoding requirements of %s: %w", rec.ID, err)
		}
		if len(rec.Requirements) == 0 {
			rec.Requirements = nil
		}
		if postedAt.Valid {
			t := time.UnixMicro(postedAt.Int64).UTC()
			rec.PostedAt = &t
		}
		rec.IngestedAt = time.Unix(0, ingested).UTC()
		rec.Delivered = delivered
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return out, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// unixMicroPtr encodes a posting date. Posting dates may be far in the
// future or past, where UnixNano overflows; microseconds cover any year.
func unixMicroPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixMicro()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// sqlLimit maps "no limit" to SQLite's LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
