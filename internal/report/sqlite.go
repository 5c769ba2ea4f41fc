package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/comalice/creepstack/stacking"
)

// SQLitePersister keeps every report in one database file. Saving a session
// again replaces its rows.
type SQLitePersister struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string) (*SQLitePersister, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLitePersister{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		`CREATE TABLE IF NOT EXISTS reports (
			session TEXT PRIMARY KEY,
			saved_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS stages (
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			from_stage TEXT NOT NULL,
			to_stage TEXT NOT NULL,
			at TEXT NOT NULL,
			PRIMARY KEY (session, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			session TEXT NOT NULL,
			seq INTEGER NOT NULL,
			success INTEGER NOT NULL,
			tries INTEGER NOT NULL,
			stacks INTEGER NOT NULL,
			PRIMARY KEY (session, seq)
		);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("sqlite schema: %w", err)
		}
	}
	return nil
}

func (p *SQLitePersister) Save(ctx context.Context, r Report) error {
	if err := r.Validate(); err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM stages WHERE session=?`,
		`DELETE FROM outcomes WHERE session=?`,
	} {
		if _, err := tx.ExecContext(ctx, q, r.Session); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO reports(session, saved_at) VALUES(?, ?)
		 ON CONFLICT(session) DO UPDATE SET saved_at=excluded.saved_at`,
		r.Session, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	for i, s := range r.Stages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO stages(session, seq, from_stage, to_stage, at) VALUES(?, ?, ?, ?, ?)`,
			r.Session, i, s.From, s.To, s.At.UTC().Format(time.RFC3339Nano)); err != nil {
			return err
		}
	}
	for i, o := range r.Outcomes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes(session, seq, success, tries, stacks) VALUES(?, ?, ?, ?, ?)`,
			r.Session, i, o.Success, o.Tries, o.Stacks); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *SQLitePersister) Load(ctx context.Context, session string) (Report, error) {
	var saved string
	err := p.db.QueryRowContext(ctx, `SELECT saved_at FROM reports WHERE session=?`, session).Scan(&saved)
	if errors.Is(err, sql.ErrNoRows) {
		return Report{}, fmt.Errorf("session %q: %w", session, os.ErrNotExist)
	}
	if err != nil {
		return Report{}, err
	}

	r := Report{Session: session}
	rows, err := p.db.QueryContext(ctx, `SELECT from_stage, to_stage, at FROM stages WHERE session=? ORDER BY seq`, session)
	if err != nil {
		return Report{}, err
	}
	for rows.Next() {
		var s Stage
		var at string
		if err := rows.Scan(&s.From, &s.To, &at); err != nil {
			rows.Close()
			return Report{}, err
		}
		if s.At, err = time.Parse(time.RFC3339Nano, at); err != nil {
			rows.Close()
			return Report{}, fmt.Errorf("stage time %q: %w", at, err)
		}
		r.Stages = append(r.Stages, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Report{}, err
	}

	rows, err = p.db.QueryContext(ctx, `SELECT success, tries, stacks FROM outcomes WHERE session=? ORDER BY seq`, session)
	if err != nil {
		return Report{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var o stacking.Outcome
		if err := rows.Scan(&o.Success, &o.Tries, &o.Stacks); err != nil {
			return Report{}, err
		}
		r.Outcomes = append(r.Outcomes, o)
	}
	return r, rows.Err()
}

// Sessions lists saved sessions, most recently saved first.
func (p *SQLitePersister) Sessions(ctx context.Context) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT session FROM reports ORDER BY saved_at DESC, session`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *SQLitePersister) Close() error {
	return p.db.Close()
}
