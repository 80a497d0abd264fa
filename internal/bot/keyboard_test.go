package bot

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/menu"
)

func TestKeyboardRootView(t *testing.T) {
	t.Parallel()
	items := []menu.Node{
		{ID: "book", Text: "📅 Book Appointment"},
		{ID: "docs", Text: "📋 Required Documents"},
	}

	t.Run("with channel", func(t *testing.T) {
		t.Parallel()
		kb := Keyboard(nil, items, "@tj_hn")
		rows := kb.Markup().InlineKeyboard
		if len(rows) != 3 {
			t.Fatalf("rows = %d, want items + channel link", len(rows))
		}
		if got := rows[0][0].Data; got != "book" {
			t.Errorf("rows[0] data = %q, want %q", got, "book")
		}
		if got := rows[1][0].Data; got != "docs" {
			t.Errorf("rows[1] data = %q, want %q", got, "docs")
		}
		last := rows[2][0]
		if last.URL != "https://t.me/tj_hn" || last.Text != "🔔 Notify Me (Join)" {
			t.Errorf("channel button = %+v", last)
		}
	})

	t.Run("without channel", func(t *testing.T) {
		t.Parallel()
		kb := Keyboard(nil, items, "")
		rows := kb.Markup().InlineKeyboard
		if len(rows) != 2 {
			t.Fatalf("rows = %d, want items only", len(rows))
		}
		for _, row := range rows {
			if row[0].URL != "" {
				t.Errorf("unexpected URL button %+v", row[0])
			}
		}
	})
}

func TestKeyboardBackButton(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		path     []string
		items    []menu.Node
		wantBack string
	}{
		{"depth one", []string{"a"}, []menu.Node{{ID: "b", Text: "B"}}, menu.RootToken},
		{"depth two", []string{"a", "b"}, nil, "a"},
		{"depth three", []string{"a", "b", "c"}, nil, "a:b"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			kb := Keyboard(tt.path, tt.items, "@tj_hn")
			rows := kb.Markup().InlineKeyboard
			if want := len(tt.items) + 1; len(rows) != want {
				t.Fatalf("rows = %d, want %d", len(rows), want)
			}
			back := rows[len(rows)-1][0]
			if back.Text != "⬅️ Back" || back.Data != tt.wantBack {
				t.Errorf("back button = %+v, want token %q", back, tt.wantBack)
			}
			// The channel link belongs to the root view only.
			for _, row := range rows {
				if row[0].URL != "" {
					t.Errorf("unexpected URL button %+v on non-root view", row[0])
				}
			}
		})
	}
}

func TestKeyboardItemTokens(t *testing.T) {
	t.Parallel()
	items := []menu.Node{{ID: "x", Text: "X"}, {ID: "y", Text: "Y"}}
	kb := Keyboard([]string{"a", "b"}, items, "")
	rows := kb.Markup().InlineKeyboard
	if got := rows[0][0].Data; got != "a:b:x" {
		t.Errorf("rows[0] data = %q, want %q", got, "a:b:x")
	}
	if got := rows[1][0].Data; got != "a:b:y" {
		t.Errorf("rows[1] data = %q, want %q", got, "a:b:y")
	}
}

func TestKeyboardTruncatesLongLabels(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("ä", 100)
	kb := Keyboard(nil, []menu.Node{{ID: "x", Text: long}}, "")
	label := kb.Markup().InlineKeyboard[0][0].Text
	if !strings.HasSuffix(label, "…") {
		t.Fatalf("label %q not truncated", label)
	}
	if got := utf8.RuneCountInString(label); got != maxButtonLabelRunes+1 {
		t.Errorf("label runes = %d, want %d plus ellipsis", got, maxButtonLabelRunes)
	}
}

func TestChannelURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"@tj_hn", "https://t.me/tj_hn"},
		{"tj_hn", "https://t.me/tj_hn"},
		{"  @tj_hn  ", "https://t.me/tj_hn"},
		{"@@weird", "https://t.me/weird"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := ChannelURL(tt.in); got != tt.want {
				t.Errorf("ChannelURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
