// Package storage persists the unanswered-question journal: free-text
// messages the bot could not match against any menu answer. The digest
// service reads it back to tell the operator where users got lost.
//
// Two drivers: an append-only JSON Lines file (default) and SQLite
// (behind the "sqlite" build tag, keeping the large translated-C driver
// out of plain builds).
package storage
