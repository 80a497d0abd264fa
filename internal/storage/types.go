package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free JSON Lines backend
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Question records one free-text message the bot could not answer.
// Keep it compact and schema-stable.
type Question struct {
	At       time.Time `json:"at"`
	ChatID   int64     `json:"chat_id"`
	FromID   int64     `json:"from_id"`
	Username string    `json:"username,omitempty"`
	Text     string    `json:"text"`
}
