package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Default user-facing texts. Overridable under "messages".
const (
	DefaultWelcome  = "<b>Welcome to TerminJetzt Heilbronn!\n</b>Use the buttons below to explore appointment info, docs, and FAQs."
	DefaultFallback = "Sorry, I didn't understand that. Please use the menu below."
)

const (
	DefaultMenuPath = "data/menu.yaml"
	DefaultLanguage = "en"

	DefaultDigestSchedule = "@daily"
	DefaultDigestWindow   = "24h"
)

// Normalize applies defaults and validates the config in place.
// It is called on every load, including hot reloads, so a rejected
// config never reaches subscribers.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	// telegram
	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	cfg.Telegram.GroupLog = strings.TrimSpace(cfg.Telegram.GroupLog)
	if cfg.Telegram.GroupLog != "" {
		if _, err := strconv.ParseInt(cfg.Telegram.GroupLog, 10, 64); err != nil {
			return fmt.Errorf("telegram.group_log: not a numeric chat id: %q", cfg.Telegram.GroupLog)
		}
	}
	if _, err := ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout); err != nil {
		return err
	}

	// menu
	cfg.Menu.Path = strings.TrimSpace(cfg.Menu.Path)
	if cfg.Menu.Path == "" {
		cfg.Menu.Path = DefaultMenuPath
	}
	cfg.Menu.Language = strings.TrimSpace(cfg.Menu.Language)
	if cfg.Menu.Language == "" {
		cfg.Menu.Language = DefaultLanguage
	}
	cfg.Menu.Channel = strings.TrimSpace(cfg.Menu.Channel)

	// messages
	if strings.TrimSpace(cfg.Messages.Welcome) == "" {
		cfg.Messages.Welcome = DefaultWelcome
	}
	if strings.TrimSpace(cfg.Messages.Fallback) == "" {
		cfg.Messages.Fallback = DefaultFallback
	}

	// logging
	if err := checkLevel("logging.level", cfg.Logging.Level); err != nil {
		return err
	}
	if err := checkLevel("logging.telegram.min_level", cfg.Logging.Telegram.MinLevel); err != nil {
		return err
	}

	// storage
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	switch cfg.Storage.Driver {
	case "", "none", "file", "sqlite":
	default:
		return fmt.Errorf("storage.driver: unknown driver %q (allowed: file, sqlite, none)", cfg.Storage.Driver)
	}
	if _, err := ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
		return err
	}

	// digest
	cfg.Digest.ChatID = strings.TrimSpace(cfg.Digest.ChatID)
	if cfg.Digest.Enabled {
		if strings.TrimSpace(cfg.Digest.Schedule) == "" {
			cfg.Digest.Schedule = DefaultDigestSchedule
		}
		if _, err := cron.ParseStandard(cfg.Digest.Schedule); err != nil {
			return fmt.Errorf("digest.schedule: invalid cron spec %q: %w", cfg.Digest.Schedule, err)
		}
		if tz := strings.TrimSpace(cfg.Digest.Timezone); tz != "" {
			if _, err := time.LoadLocation(tz); err != nil {
				return fmt.Errorf("digest.timezone: %w", err)
			}
		}
		if strings.TrimSpace(cfg.Digest.Window) == "" {
			cfg.Digest.Window = DefaultDigestWindow
		}
		if _, err := ParseDurationField("digest.window", cfg.Digest.Window); err != nil {
			return err
		}
		if cfg.Digest.ChatID == "" && cfg.Telegram.GroupLog == "" {
			return fmt.Errorf("digest.chat_id (or telegram.group_log) is required when digest is enabled")
		}
		if cfg.Digest.ChatID != "" {
			if _, err := strconv.ParseInt(cfg.Digest.ChatID, 10, 64); err != nil {
				return fmt.Errorf("digest.chat_id: not a numeric chat id: %q", cfg.Digest.ChatID)
			}
		}
	}

	// pprof
	if cfg.Pprof.Enabled {
		if _, err := ParseDurationField("pprof.read_timeout", cfg.Pprof.ReadTimeout); err != nil {
			return err
		}
		if _, err := ParseDurationField("pprof.write_timeout", cfg.Pprof.WriteTimeout); err != nil {
			return err
		}
		if _, err := ParseDurationField("pprof.idle_timeout", cfg.Pprof.IdleTimeout); err != nil {
			return err
		}
	}

	return nil
}

func checkLevel(path, raw string) error {
	s := strings.ToUpper(strings.TrimSpace(raw))
	switch s {
	case "", "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return nil
	}
	return fmt.Errorf("%s: unknown level %q", path, raw)
}
