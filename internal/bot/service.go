// Package bot is the menu orchestrator: it consumes transport updates and
// turns them into menu navigation, free-text answers, and the FAQ summary.
// The service is stateless between turns; everything a button press needs
// travels inside its callback token.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/menu"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/storage"
	kit "github.com/AbdallahZerfaoui/terminjetzt-bot/internal/transport"
	logx "github.com/AbdallahZerfaoui/terminjetzt-bot/pkg/logx"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/pkg/tgui"
)

// handlerTimeout bounds one update end to end, Telegram calls included.
const handlerTimeout = 30 * time.Second

// Config carries the orchestrator's fixed runtime settings. Texts may
// contain Telegram HTML; Channel is the public channel linked from the root
// keyboard ("@name" or "name", empty disables the button).
type Config struct {
	Welcome  string
	Fallback string
	Channel  string
}

// Service serves the menu over a transport adapter. The forest is read-only
// after construction; the only mutable state is the search memo cache.
type Service struct {
	log    logx.Logger
	ad     kit.Adapter
	forest menu.Forest
	cfg    Config
	store  storage.Store // nil when the question journal is disabled

	cache *searchCache
}

func New(log logx.Logger, ad kit.Adapter, forest menu.Forest, cfg Config, store storage.Store) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:    log,
		ad:     ad,
		forest: forest,
		cfg:    cfg,
		store:  store,
		cache:  newSearchCache(defaultSearchCacheMax),
	}
}

// Commands lists the slash commands for the Telegram command menu.
func Commands() []kit.BotCommand {
	return []kit.BotCommand{
		{Command: "start", Description: "show the main menu"},
		{Command: "help", Description: "show the main menu"},
		{Command: "faq", Description: "all answers in one message"},
	}
}

// Run consumes updates until ctx is canceled or the channel closes. Updates
// are handled one at a time: edits on the same message must not interleave,
// and the handlers are cheap apart from the Telegram round-trips.
func (s *Service) Run(ctx context.Context, updates <-chan kit.Update) error {
	s.log.Info("menu dispatcher started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info("menu dispatcher stopped", logx.Any("err", ctx.Err()))
			return nil
		case up, ok := <-updates:
			if !ok {
				s.log.Info("menu dispatcher stopped (updates channel closed)")
				return nil
			}
			s.dispatch(ctx, up)
		}
	}
}

func (s *Service) dispatch(root context.Context, up kit.Update) {
	switch up.Kind {
	case kit.UpdateMessage:
		s.dispatchMessage(root, up)
	case kit.UpdateCallback:
		s.dispatchCallback(root, up)
	}
}

func (s *Service) dispatchMessage(root context.Context, up kit.Update) {
	msg := up.Message
	if msg == nil {
		return
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	cmd, handler := s.route(text)

	rid := newReqID()
	reqLog := s.log.With(
		logx.String("rid", rid),
		logx.Int64("chat_id", msg.ChatID),
		logx.Int("thread_id", msg.ThreadID),
		logx.Int64("from_id", msg.FromID),
		logx.String("cmd", cmd),
	)
	req := &Request{
		Update:  up,
		Chat:    kit.ChatTarget{ChatID: msg.ChatID, ThreadID: msg.ThreadID},
		FromID:  msg.FromID,
		Command: cmd,
		Text:    text,
		ReqID:   rid,
		Logger:  reqLog,
	}

	final := Chain(
		handler,
		MWPanicRecover(s.log),
		MWRequestLog(s.log),
		MWTimeout(handlerTimeout),
	)
	_ = final(root, req)
}

// route classifies a message. Known slash commands get their handler;
// everything else, unknown commands included, goes to the free-text search.
func (s *Service) route(text string) (string, HandlerFunc) {
	if strings.HasPrefix(text, "/") {
		word := text
		if i := strings.IndexAny(word, " \t\n"); i >= 0 {
			word = word[:i]
		}
		word = strings.TrimPrefix(word, "/")
		// strip the "@BotName" suffix used in groups
		if i := strings.IndexByte(word, '@'); i >= 0 {
			word = word[:i]
		}
		switch strings.ToLower(word) {
		case "start":
			return "start", s.handleStart
		case "help":
			return "help", s.handleStart
		case "faq":
			return "faq", s.handleFAQ
		}
	}
	return "text", s.handleText
}

func (s *Service) dispatchCallback(root context.Context, up kit.Update) {
	cb := up.Callback
	if cb == nil {
		return
	}
	// telebot prefixes callback data with "\f" for its own routing; we get
	// the raw bytes, so strip it defensively.
	token := strings.TrimSpace(strings.TrimPrefix(cb.Data, "\f"))

	rid := newReqID()
	reqLog := s.log.With(
		logx.String("rid", rid),
		logx.Int64("chat_id", cb.ChatID),
		logx.Int("thread_id", cb.ThreadID),
		logx.Int64("from_id", cb.FromID),
		logx.String("cmd", "callback"),
		logx.String("token", token),
	)
	req := &Request{
		Update:  up,
		Chat:    kit.ChatTarget{ChatID: cb.ChatID, ThreadID: cb.ThreadID},
		FromID:  cb.FromID,
		Command: "callback",
		Text:    token,
		ReqID:   rid,
		Logger:  reqLog,
	}

	final := Chain(
		s.handleNavigate,
		MWPanicRecover(s.log),
		MWRequestLog(s.log),
		MWTimeout(handlerTimeout),
	)
	_ = final(root, req)
}

// handleStart serves /start and /help: welcome text plus the root keyboard.
func (s *Service) handleStart(ctx context.Context, req *Request) error {
	msg := tgui.New().
		Inline(Keyboard(nil, s.forest, s.cfg.Channel)).
		RawLine(s.cfg.Welcome).
		Build()
	if _, err := msg.Send(ctx, s.ad, req.Chat); err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}
	return nil
}

// handleFAQ serves /faq: every leaf answer in one flat message, breadcrumb
// headings included. The adapter chunks it if it outgrows Telegram's limit.
func (s *Service) handleFAQ(ctx context.Context, req *Request) error {
	b := tgui.New().Title("📖", "TerminJetzt Heilbronn FAQ")

	n := 0
	for _, lf := range s.forest.Leaves() {
		if strings.TrimSpace(lf.Node.Answer) == "" {
			continue
		}
		b.Blank().
			RawLine(tgui.B(s.forest.Breadcrumb(lf.Path)).String()).
			RawLine(lf.Node.Answer)
		n++
	}
	if n == 0 {
		b.Blank().RawLine(tgui.I("No answers configured yet.").String())
	}
	if ch := strings.TrimSpace(s.cfg.Channel); ch != "" {
		b.Blank().RawLine(tgui.Link("➕ Join channel", ChannelURL(ch)).String())
	}

	if _, err := b.Build().Send(ctx, s.ad, req.Chat); err != nil {
		return fmt.Errorf("send faq: %w", err)
	}
	return nil
}

// handleText answers free text from the leaf answers, or replies with the
// fallback and journals the question so the menu can grow where users get
// lost.
func (s *Service) handleText(ctx context.Context, req *Request) error {
	res, ok := s.cache.get(req.Text)
	if !ok {
		answer, found := s.forest.MatchAnswer(req.Text)
		res = searchResult{answer: answer, ok: found}
		s.cache.put(req.Text, res)
	}

	opt := &kit.SendOptions{
		ParseMode:      "HTML",
		DisablePreview: true,
		ReplyTo:        req.Update.Message.ID,
	}
	if res.ok {
		if _, err := s.ad.SendText(ctx, req.Chat, res.answer, opt); err != nil {
			return fmt.Errorf("send answer: %w", err)
		}
		return nil
	}

	s.journalQuestion(ctx, req)
	if _, err := s.ad.SendText(ctx, req.Chat, s.cfg.Fallback, opt); err != nil {
		return fmt.Errorf("send fallback: %w", err)
	}
	return nil
}

func (s *Service) journalQuestion(ctx context.Context, req *Request) {
	if s.store == nil {
		return
	}
	msg := req.Update.Message
	q := storage.Question{
		At:       time.Now().UTC(),
		ChatID:   msg.ChatID,
		FromID:   msg.FromID,
		Username: msg.FromUsername,
		Text:     req.Text,
	}
	if err := s.store.AppendQuestion(ctx, q); err != nil {
		req.Logger.Warn("question journal append failed", logx.Any("err", err))
	}
}

// handleNavigate serves a button press. The token is the full path to the
// target node; an unknown or stale token resets the keyboard to the root
// menu instead of erroring at the user.
func (s *Service) handleNavigate(ctx context.Context, req *Request) error {
	cb := req.Update.Callback

	// Ack first: stops the client spinner even when the edit below is a
	// no-op Telegram rejects ("message is not modified").
	if err := s.ad.AnswerCallback(ctx, cb.ID, ""); err != nil {
		req.Logger.Debug("callback ack failed", logx.Any("err", err))
	}

	ref := kit.MessageRef{ChatID: cb.ChatID, ThreadID: cb.ThreadID, MessageID: cb.MessageID}
	path := menu.SplitPath(req.Text)

	node, ok := s.forest.Find(path)
	if !ok {
		kb := Keyboard(nil, s.forest, s.cfg.Channel)
		if err := s.ad.EditMarkup(ctx, ref, kb.Markup()); err != nil {
			return fmt.Errorf("reset to root keyboard: %w", err)
		}
		return nil
	}

	if node.IsLeaf() && node.Answer != "" {
		msg := tgui.New().
			Inline(Keyboard(path, nil, s.cfg.Channel)).
			RawLine(tgui.B(s.forest.Breadcrumb(path)).String()).
			Blank().
			RawLine(node.Answer).
			Build()
		if err := msg.Edit(ctx, s.ad, ref); err != nil {
			return fmt.Errorf("edit answer view: %w", err)
		}
		return nil
	}

	// Submenu (an inert leaf degenerates to a back-only keyboard).
	kb := Keyboard(path, node.Children, s.cfg.Channel)
	if err := s.ad.EditMarkup(ctx, ref, kb.Markup()); err != nil {
		return fmt.Errorf("edit submenu keyboard: %w", err)
	}
	return nil
}
