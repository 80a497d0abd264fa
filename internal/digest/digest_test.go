package digest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/storage"
	logx "github.com/AbdallahZerfaoui/terminjetzt-bot/pkg/logx"
)

type stubStore struct{}

func (stubStore) AppendQuestion(ctx context.Context, q storage.Question) error { return nil }
func (stubStore) RecentQuestions(ctx context.Context, since time.Time, limit int) ([]storage.Question, error) {
	return nil, nil
}
func (stubStore) Close() error { return nil }

func TestFormat(t *testing.T) {
	t.Parallel()
	at := time.Date(2025, 8, 4, 9, 30, 0, 0, time.UTC) // a Monday
	qs := []storage.Question{
		{At: at, ChatID: 1, FromID: 10, Username: "anna", Text: "wann ist der termin frei?"},
		{At: at.Add(time.Hour), ChatID: 2, FromID: 20, Text: "can I bring <b>my dog</b>?"},
	}

	msg := Format(qs, 24*time.Hour, time.UTC)

	if msg.Opt == nil || msg.Opt.ParseMode != "HTML" {
		t.Fatalf("Opt = %+v, want HTML parse mode", msg.Opt)
	}
	wants := []string{
		"<b>Unanswered questions</b>",
		"2 in the last 24h",
		"<b>Mon 09:30</b>: anna",
		"<b>Mon 10:30</b>: id 20",
		"<code>wann ist der termin frei?</code>",
		"<code>can I bring &lt;b&gt;my dog&lt;/b&gt;?</code>",
	}
	for _, want := range wants {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("digest missing %q:\n%s", want, msg.Text)
		}
	}
}

func TestFormatEscapesQuestionText(t *testing.T) {
	t.Parallel()
	qs := []storage.Question{{At: time.Now(), FromID: 1, Text: `<a href="x">click</a>`}}
	msg := Format(qs, time.Hour, time.UTC)
	if strings.Contains(msg.Text, `<a href=`) {
		t.Fatalf("raw HTML leaked into digest:\n%s", msg.Text)
	}
}

func TestWindowLabel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    time.Duration
		want string
	}{
		{24 * time.Hour, "24h"},
		{36 * time.Hour, "36h"},
		{90 * time.Minute, "90m"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		if got := windowLabel(tt.d); got != tt.want {
			t.Errorf("windowLabel(%s) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestStartValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		store storage.Store
		cfg   Config
	}{
		{"no store", nil, Config{Schedule: "@daily", ChatID: 1, Window: time.Hour}},
		{"no chat", stubStore{}, Config{Schedule: "@daily", Window: time.Hour}},
		{"no window", stubStore{}, Config{Schedule: "@daily", ChatID: 1}},
		{"bad schedule", stubStore{}, Config{Schedule: "not a spec", ChatID: 1, Window: time.Hour}},
		{"bad timezone", stubStore{}, Config{Schedule: "@daily", ChatID: 1, Window: time.Hour, Timezone: "Mars/Olympus"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := New(logx.Nop(), nil, tt.store, tt.cfg)
			if err := s.Start(context.Background()); err == nil {
				t.Fatalf("Start() = nil, want error")
			}
		})
	}
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()
	s := New(logx.Nop(), nil, stubStore{}, Config{})
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop() = %v, want nil", err)
	}
}
