//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	logx "github.com/AbdallahZerfaoui/terminjetzt-bot/pkg/logx"

	_ "modernc.org/sqlite"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) AppendQuestion(ctx context.Context, q Question) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if q.At.IsZero() {
		q.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO questions(at_ms, chat_id, from_id, username, text) VALUES(?,?,?,?,?)`,
		q.At.UnixMilli(), q.ChatID, q.FromID, nullStr(q.Username), q.Text,
	)
	return err
}

func (s *sqliteStore) RecentQuestions(ctx context.Context, since time.Time, limit int) ([]Question, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}

	query := `SELECT at_ms, chat_id, from_id, COALESCE(username, ''), text
		FROM questions WHERE at_ms >= ? ORDER BY at_ms DESC, id DESC`
	args := []any{since.UnixMilli()}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Question
	for rows.Next() {
		var (
			ms int64
			q  Question
		)
		if err := rows.Scan(&ms, &q.ChatID, &q.FromID, &q.Username, &q.Text); err != nil {
			return nil, err
		}
		q.At = time.UnixMilli(ms)
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The query returns newest-first so LIMIT keeps the newest; callers want
	// chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
