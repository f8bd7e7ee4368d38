package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "modernc.org/sqlite"

	"resume-screener/internal/common"
)

// timestampLayout is how DATETIME values are written and read back. It is
// the same format SQLite's CURRENT_TIMESTAMP produces, so rows created by
// either path stay comparable.
const timestampLayout = "2006-01-02 15:04:05"

// Store is the SQLite-backed job store. Foreign-key enforcement in SQLite is
// connection-scoped, not database-global: the DSN pragma turns it on for
// every pooled connection, and write/delete paths additionally pin a
// connection and re-assert it before touching rows.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if needed) the database at path and verifies the
// connection. Call InitSchema before first use.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.WrapError(err, "open database")
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, common.WrapError(err, "ping database")
	}
	logger.Info("db.open", "path", path)
	return &Store{db: db, log: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const createJobsSQL = `
CREATE TABLE IF NOT EXISTS jobs (
    job_id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_name TEXT UNIQUE NOT NULL,
    pdf_filename TEXT,
    job_description_snippet TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// candidateColumns is the canonical column order of the candidates table,
// minus the autoincrement id. Shared by schema creation, migration copy, and
// inserts so the three can never drift apart.
var candidateColumns = []string{
	"resume_page_range",
	"processing_timestamp",
	"job_description_used",
	"personal_information",
	"professional_summary",
	"work_experience",
	"education",
	"skills",
	"certifications",
	"score_percent",
	"score_reasoning",
	"matched_skills",
	"missing_skills",
	"raw_assistant1_json",
	"raw_assistant2_json",
	"job_id",
	"total_years_experience",
	"total_internship_duration",
	"overall_score_percent",
}

const createCandidatesSQL = `
CREATE TABLE candidates (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    resume_page_range TEXT,
    processing_timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
    job_description_used TEXT,
    personal_information TEXT,
    professional_summary TEXT,
    work_experience TEXT,
    education TEXT,
    skills TEXT,
    certifications TEXT,
    score_percent REAL,
    score_reasoning TEXT,
    matched_skills TEXT,
    missing_skills TEXT,
    raw_assistant1_json TEXT,
    raw_assistant2_json TEXT,
    job_id INTEGER,
    total_years_experience REAL,
    total_internship_duration TEXT,
    overall_score_percent REAL,
    FOREIGN KEY (job_id) REFERENCES jobs(job_id) ON DELETE CASCADE
);`

// InitSchema creates the schema when absent and migrates an existing
// candidates table whose job_id foreign key is missing or lacks cascade
// delete. It runs on every start-up and is a no-op beyond introspection once
// the schema is current. Unlike the per-row operations, schema failures
// propagate: there is nothing sensible to do with a half-built store.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createJobsSQL); err != nil {
		return common.WrapError(err, "create jobs table")
	}

	exists, err := s.tableExists(ctx, "candidates")
	if err != nil {
		return err
	}
	if !exists {
		if _, err := s.db.ExecContext(ctx, createCandidatesSQL); err != nil {
			return common.WrapError(err, "create candidates table")
		}
		s.log.Info("db.schema.created")
		return nil
	}

	ok, err := s.hasCascadeFK(ctx)
	if err != nil {
		return err
	}
	if ok {
		s.log.Debug("db.schema.current")
		return nil
	}

	s.log.Warn("db.schema.migrating", "reason", "candidates foreign key missing or not ON DELETE CASCADE")
	if err := s.migrateCandidates(ctx); err != nil {
		return common.WrapError(err, "migrate candidates table")
	}
	s.log.Info("db.schema.migrated")
	return nil
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var n string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, common.WrapError(err, "inspect sqlite_master")
	}
	return true, nil
}

// hasCascadeFK reports whether candidates.job_id references jobs(job_id)
// with ON DELETE CASCADE.
func (s *Store) hasCascadeFK(ctx context.Context) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `PRAGMA foreign_key_list(candidates)`)
	if err != nil {
		return false, common.WrapError(err, "read foreign key list")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id, seq                             int
			table, from, to, onUpdate, onDelete string
			match                               string
		)
		if err := rows.Scan(&id, &seq, &table, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return false, common.WrapError(err, "scan foreign key row")
		}
		if strings.EqualFold(table, "jobs") && strings.EqualFold(from, "job_id") &&
			strings.EqualFold(onDelete, "CASCADE") {
			return true, nil
		}
	}
	return false, rows.Err()
}

// migrateCandidates rebuilds the candidates table with the canonical schema:
// rename the old table aside, create the new one, copy every column common
// to both, drop the old table. All of it inside one transaction so a failure
// never leaves a half-renamed state visible. The FK pragma is switched off
// around the rebuild (SQLite requires that for table rewrites) on a pinned
// connection and restored afterwards.
func (s *Store) migrateCandidates(ctx context.Context) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return err
	}
	defer func() {
		if _, perr := conn.ExecContext(context.WithoutCancel(ctx), `PRAGMA foreign_keys = ON`); perr != nil {
			s.log.Error("db.migrate.pragma_restore_failed", "error", perr)
		}
	}()

	oldColumns, err := tableColumns(ctx, conn, "candidates")
	if err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `ALTER TABLE candidates RENAME TO candidates_old`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, createCandidatesSQL); err != nil {
		return err
	}

	shared := commonColumns(oldColumns)
	if len(shared) > 0 {
		cols := strings.Join(shared, ", ")
		copySQL := fmt.Sprintf(`INSERT INTO candidates (%s) SELECT %s FROM candidates_old`, cols, cols)
		if _, err := tx.ExecContext(ctx, copySQL); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `DROP TABLE candidates_old`); err != nil {
		return err
	}
	return tx.Commit()
}

func tableColumns(ctx context.Context, conn *sql.Conn, name string) ([]string, error) {
	rows, err := conn.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, name))
	if err != nil {
		return nil, common.WrapError(err, "read table info")
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid, notnull, pk int
			colName, colType string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &colName, &colType, &notnull, &dflt, &pk); err != nil {
			return nil, common.WrapError(err, "scan table info row")
		}
		cols = append(cols, colName)
	}
	return cols, rows.Err()
}

// commonColumns intersects the old table's columns with the canonical set
// (id included: the copy keeps existing row identities).
func commonColumns(oldColumns []string) []string {
	canonical := make(map[string]struct{}, len(candidateColumns)+1)
	canonical["id"] = struct{}{}
	for _, c := range candidateColumns {
		canonical[c] = struct{}{}
	}
	var out []string
	for _, c := range oldColumns {
		if _, ok := canonical[strings.ToLower(c)]; ok {
			out = append(out, c)
		}
	}
	return out
}

// writeConn pins a connection and re-asserts foreign-key enforcement on it.
// Cascade deletes silently stop cascading on any connection that lost the
// pragma, so writes and deletes never rely on the pool's DSN default alone.
func (s *Store) writeConn(ctx context.Context) (*sql.Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
