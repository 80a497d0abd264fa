package adapter

import "time"

// Config carries the settings the adapter needs to open a Telegram session.
type Config struct {
	// Token is the BotFather token. Required.
	Token string

	// PollTimeout is the long-poll timeout. Zero means a default of 10s.
	PollTimeout time.Duration
}
