package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func clearBotEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"TELEGRAM_TJBOT_TOKEN", "TELEGRAM_GROUP_LOG", "CHANNEL", "DEFAULT_LANG", "MENU_FILE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestParseEnvOnly(t *testing.T) {
	clearBotEnv(t)
	t.Setenv("TELEGRAM_TJBOT_TOKEN", "123:abc")
	t.Setenv("CHANNEL", "@terminjetzt_hn")
	t.Setenv("DEFAULT_LANG", "de")

	m := NewManager("")
	cfg, err := m.Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("Telegram.Token = %q, want %q", cfg.Telegram.Token, "123:abc")
	}
	if cfg.Menu.Channel != "@terminjetzt_hn" {
		t.Errorf("Menu.Channel = %q, want %q", cfg.Menu.Channel, "@terminjetzt_hn")
	}
	if cfg.Menu.Language != "de" {
		t.Errorf("Menu.Language = %q, want %q", cfg.Menu.Language, "de")
	}
	// Defaults fill the rest.
	if cfg.Menu.Path != DefaultMenuPath {
		t.Errorf("Menu.Path = %q, want default %q", cfg.Menu.Path, DefaultMenuPath)
	}
	if cfg.Messages.Welcome != DefaultWelcome || cfg.Messages.Fallback != DefaultFallback {
		t.Errorf("default messages not applied")
	}
}

func TestParseFileWithEnvOverride(t *testing.T) {
	clearBotEnv(t)
	path := writeFile(t, "config.yaml", strings.Join([]string{
		"telegram:",
		`  token: "file-token"`,
		"menu:",
		"  language: de",
		`  path: "custom/menu.yaml"`,
	}, "\n"))

	t.Setenv("TELEGRAM_TJBOT_TOKEN", "env-token")

	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Errorf("Telegram.Token = %q, want env override %q", cfg.Telegram.Token, "env-token")
	}
	if cfg.Menu.Language != "de" {
		t.Errorf("Menu.Language = %q, want %q from file", cfg.Menu.Language, "de")
	}
	if cfg.Menu.Path != "custom/menu.yaml" {
		t.Errorf("Menu.Path = %q, want %q from file", cfg.Menu.Path, "custom/menu.yaml")
	}
}

func TestParseJSONFile(t *testing.T) {
	clearBotEnv(t)
	path := writeFile(t, "config.json", `{"telegram":{"token":"t"},"menu":{"channel":"hn_termine"}}`)

	cfg, err := NewManager(path).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Menu.Channel != "hn_termine" {
		t.Errorf("Menu.Channel = %q, want %q", cfg.Menu.Channel, "hn_termine")
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	clearBotEnv(t)
	path := writeFile(t, "config.yaml", "menu:\n  pathx: nope\n")

	if _, err := NewManager(path).Parse(); err == nil {
		t.Fatalf("Parse() accepted unknown key, want error")
	}
}

func TestParseMissingFile(t *testing.T) {
	clearBotEnv(t)
	if _, err := NewManager(filepath.Join(t.TempDir(), "missing.yaml")).Parse(); err == nil {
		t.Fatalf("Parse() with missing file: want error")
	}
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{
			name: "bad group_log",
			cfg:  Config{Telegram: TelegramConfig{GroupLog: "not-a-number"}},
		},
		{
			name: "bad poll timeout",
			cfg:  Config{Telegram: TelegramConfig{PollTimeout: "soon"}},
		},
		{
			name: "bad log level",
			cfg:  Config{Logging: LoggingConfig{Level: "LOUD"}},
		},
		{
			name: "bad storage driver",
			cfg:  Config{Storage: StorageConfig{Driver: "postgres"}},
		},
		{
			name: "bad digest schedule",
			cfg:  Config{Digest: DigestConfig{Enabled: true, Schedule: "whenever", ChatID: "42"}},
		},
		{
			name: "digest without target",
			cfg:  Config{Digest: DigestConfig{Enabled: true}},
		},
		{
			name: "bad digest timezone",
			cfg:  Config{Digest: DigestConfig{Enabled: true, ChatID: "42", Timezone: "Mars/Olympus"}},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := tt.cfg
			if err := Normalize(&cfg); err == nil {
				t.Fatalf("Normalize() accepted %s, want error", tt.name)
			}
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()
	cfg := Config{Digest: DigestConfig{Enabled: true, ChatID: "-100200300"}}
	if err := Normalize(&cfg); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if cfg.Menu.Language != DefaultLanguage {
		t.Errorf("Menu.Language = %q, want %q", cfg.Menu.Language, DefaultLanguage)
	}
	if cfg.Digest.Schedule != DefaultDigestSchedule {
		t.Errorf("Digest.Schedule = %q, want %q", cfg.Digest.Schedule, DefaultDigestSchedule)
	}
	if cfg.Digest.Window != DefaultDigestWindow {
		t.Errorf("Digest.Window = %q, want %q", cfg.Digest.Window, DefaultDigestWindow)
	}
}
