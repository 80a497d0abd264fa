// Package digest posts a scheduled summary of unanswered questions to an
// operator chat. It reads the question journal, never the live update
// stream, so it can be disabled without touching the menu flow.
package digest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/storage"
	kit "github.com/AbdallahZerfaoui/terminjetzt-bot/internal/transport"
	logx "github.com/AbdallahZerfaoui/terminjetzt-bot/pkg/logx"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/pkg/tgui"
)

// maxQuestions caps one digest message; the journal keeps everything.
const maxQuestions = 50

// runTimeout bounds one digest run (journal read + Telegram send).
const runTimeout = 30 * time.Second

type Config struct {
	Schedule string        // standard cron spec or descriptor ("@daily")
	ChatID   int64         // target chat
	Timezone string        // IANA name; empty means the host timezone
	Window   time.Duration // how far back to collect
}

type Service struct {
	log   logx.Logger
	ad    kit.Adapter
	store storage.Store
	cfg   Config

	mu sync.Mutex
	c  *cron.Cron
}

func New(log logx.Logger, ad kit.Adapter, store storage.Store, cfg Config) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{log: log, ad: ad, store: store, cfg: cfg}
}

// Start registers the schedule and launches the cron runner. The job itself
// runs on the cron goroutine and is bounded by runTimeout.
func (s *Service) Start(ctx context.Context) error {
	if s.store == nil {
		return errors.New("digest requires a storage driver")
	}
	if s.cfg.ChatID == 0 {
		return errors.New("digest target chat is not set")
	}
	if s.cfg.Window <= 0 {
		return fmt.Errorf("digest window must be positive, got %s", s.cfg.Window)
	}

	loc := time.Local
	if s.cfg.Timezone != "" {
		l, err := time.LoadLocation(s.cfg.Timezone)
		if err != nil {
			return fmt.Errorf("digest timezone: %w", err)
		}
		loc = l
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil {
		return nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	c := cron.New(cron.WithParser(parser), cron.WithLocation(loc))
	id, err := c.AddFunc(s.cfg.Schedule, func() { s.runOnce(ctx, loc) })
	if err != nil {
		return fmt.Errorf("digest schedule %q: %w", s.cfg.Schedule, err)
	}
	c.Start()
	s.c = c

	s.log.Info("digest scheduled",
		logx.String("schedule", s.cfg.Schedule),
		logx.Int64("chat_id", s.cfg.ChatID),
		logx.Duration("window", s.cfg.Window),
		logx.Time("next", c.Entry(id).Next),
	)
	return nil
}

// Stop halts the schedule and waits for an in-flight run, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		s.log.Info("digest stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) runOnce(ctx context.Context, loc *time.Location) {
	rctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	since := time.Now().Add(-s.cfg.Window)
	qs, err := s.store.RecentQuestions(rctx, since, maxQuestions)
	if err != nil {
		s.log.Warn("digest journal read failed", logx.Any("err", err))
		return
	}
	if len(qs) == 0 {
		s.log.Debug("digest skipped, no unanswered questions", logx.Duration("window", s.cfg.Window))
		return
	}

	msg := Format(qs, s.cfg.Window, loc)
	if _, err := msg.Send(rctx, s.ad, kit.ChatTarget{ChatID: s.cfg.ChatID}); err != nil {
		s.log.Warn("digest send failed", logx.Any("err", err), logx.Int("questions", len(qs)))
		return
	}
	s.log.Info("digest posted", logx.Int("questions", len(qs)))
}

// Format renders the digest message. Question text goes through <code> so
// user input can never break out of the HTML.
func Format(qs []storage.Question, window time.Duration, loc *time.Location) tgui.Message {
	if loc == nil {
		loc = time.Local
	}
	b := tgui.New().
		Title("📬", "Unanswered questions").
		Line(fmt.Sprintf("%d in the last %s; consider extending the menu.", len(qs), windowLabel(window)))

	for _, q := range qs {
		who := q.Username
		if who == "" {
			who = "id " + strconv.FormatInt(q.FromID, 10)
		}
		b.Blank().
			KV(q.At.In(loc).Format("Mon 15:04"), who).
			Code(q.Text)
	}
	return b.Build()
}

// windowLabel renders whole-hour and whole-minute windows without the
// trailing zero units of Duration.String ("24h", not "24h0m0s").
func windowLabel(d time.Duration) string {
	if d%time.Hour == 0 {
		return strconv.FormatInt(int64(d/time.Hour), 10) + "h"
	}
	if d%time.Minute == 0 {
		return strconv.FormatInt(int64(d/time.Minute), 10) + "m"
	}
	return d.String()
}
