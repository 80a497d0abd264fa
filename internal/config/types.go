package config

// Config is the full bot configuration.
//
// Sources, in override order:
//  1. defaults (Normalize)
//  2. optional YAML/JSON config file (strict decode: unknown keys rejected)
//  3. environment variables (envconfig tags below)
type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Menu     MenuConfig     `json:"menu"`
	Messages MessagesConfig `json:"messages"`
	Logging  LoggingConfig  `json:"logging"`
	Storage  StorageConfig  `json:"storage"`
	Digest   DigestConfig   `json:"digest"`
	Pprof    PprofConfig    `json:"pprof"`
}

type TelegramConfig struct {
	Token string `json:"token" envconfig:"TELEGRAM_TJBOT_TOKEN"`
	// GroupLog is the chat the Telegram log sink posts to. Numeric chat IDs
	// only ("-100..."); "@name" is not supported.
	GroupLog string `json:"group_log" envconfig:"TELEGRAM_GROUP_LOG"`
	// PollTimeout is a Go duration string (e.g. "10s", "2m").
	PollTimeout string `json:"poll_timeout"`
}

type MenuConfig struct {
	// Path points at the YAML menu definition.
	Path string `json:"path" envconfig:"MENU_FILE"`
	// Language selects the top-level language block when the menu file has one.
	Language string `json:"language" envconfig:"DEFAULT_LANG"`
	// Channel is the announcement channel advertised on the root menu
	// (with or without a leading "@").
	Channel string `json:"channel" envconfig:"CHANNEL"`
}

// MessagesConfig carries user-facing texts. Both are sent with ParseMode=HTML,
// so values may contain Telegram HTML tags.
type MessagesConfig struct {
	Welcome  string `json:"welcome"`
	Fallback string `json:"fallback"`
}

type LoggingConfig struct {
	Level    string          `json:"level"`
	Console  bool            `json:"console"`
	File     LoggingFile     `json:"file"`
	Telegram LoggingTelegram `json:"telegram"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type LoggingTelegram struct {
	Enabled    bool   `json:"enabled"`
	ThreadID   int    `json:"thread_id"`
	MinLevel   string `json:"min_level"`
	RatePerSec int    `json:"rate_per_sec"`
}

// StorageConfig controls the unanswered-question journal.
// An empty driver (or "none") disables it.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./questions.jsonl" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}

// DigestConfig controls the periodic unanswered-questions digest.
//
// Schedule is a cron expression (standard 5-field or a descriptor like
// "@daily"). Window is a Go duration string bounding how far back the digest
// looks. ChatID falls back to telegram.group_log when empty.
type DigestConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
	ChatID   string `json:"chat_id"`
	Timezone string `json:"timezone,omitempty"`
	Window   string `json:"window"`
}

// PprofConfig controls the optional pprof HTTP server.
//
// Security note:
//   - Prefer binding to localhost (e.g. "127.0.0.1:6060").
//   - If you bind to a non-loopback address, set a token or explicitly allow_insecure.
type PprofConfig struct {
	Enabled       bool   `json:"enabled"`
	Addr          string `json:"addr,omitempty"`   // default: "127.0.0.1:6060"
	Prefix        string `json:"prefix,omitempty"` // default: "/debug/pprof/"
	Token         string `json:"token,omitempty"`  // optional bearer token (do not log)
	AllowInsecure bool   `json:"allow_insecure,omitempty"`

	// Server timeouts (Go duration strings). WriteTimeout defaults to 0 (disabled)
	// so /profile (which can take 30s+) works reliably.
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}
