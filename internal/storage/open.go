package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "github.com/AbdallahZerfaoui/terminjetzt-bot/pkg/logx"
)

// Store is the question journal API used by the bot and the digest.
type Store interface {
	// AppendQuestion records an unanswered free-text message.
	AppendQuestion(ctx context.Context, q Question) error

	// RecentQuestions returns questions recorded at or after since, in
	// chronological order, keeping at most limit of the newest ones.
	// limit <= 0 means no limit.
	RecentQuestions(ctx context.Context, since time.Time, limit int) ([]Question, error)

	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
