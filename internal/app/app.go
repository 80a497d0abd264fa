// Package app wires the bot together: config, logging, transport adapter,
// menu, storage, digest, pprof, and the supervised goroutines running them.
package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/bot"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/config"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/digest"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/menu"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/observability/pprof"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/runtime/supervisor"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/storage"
	kit "github.com/AbdallahZerfaoui/terminjetzt-bot/internal/transport"
	telegram "github.com/AbdallahZerfaoui/terminjetzt-bot/internal/transport/telegram/adapter"
	logx "github.com/AbdallahZerfaoui/terminjetzt-bot/pkg/logx"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/pkg/tgui"
)

// StopReason is used for structured shutdown tracing.
type StopReason string

const (
	StopUnknown    StopReason = "unknown"
	StopSIGINT     StopReason = "sigint"
	StopSIGTERM    StopReason = "sigterm"
	StopFatalError StopReason = "fatal_error"
	StopAppStop    StopReason = "app_stop"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log   logx.Logger
	logs  *logx.Service
	store storage.Store

	adapter kit.Adapter
	forest  menu.Forest
	bot     *bot.Service
	digest  *digest.Service
	pprof   *pprof.Service

	updates chan kit.Update
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return nil, fmt.Errorf("telegram.token is required (set TELEGRAM_TJBOT_TOKEN)")
	}

	bootLog := logx.NewConsole("INFO").With(logx.String("comp", "telegram"))

	pollTimeout, err := config.ParseDurationOrDefault("telegram.poll_timeout", cfg.Telegram.PollTimeout, 10*time.Second)
	if err != nil {
		return nil, err
	}
	ad, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, bootLog)
	if err != nil {
		return nil, err
	}

	// logx.New applies its config immediately. Bootstrap with the Telegram
	// sink disabled, set the target, then apply the final config, so Apply
	// can't warn about a missing chat id on startup.
	baseLogCfg := mapLogxConfig(cfg)
	baseLogCfg.Telegram.Enabled = false
	logSvc, log := logx.New(baseLogCfg, ad)
	log = log.With(logx.String("comp", "app"))

	if chatID, ok := groupLogChatID(cfg); ok {
		logSvc.SetTelegramTarget(chatID, cfg.Logging.Telegram.ThreadID)
	}
	logSvc.Apply(mapLogxConfig(cfg))

	// Question journal (optional).
	var store storage.Store
	sc, storageEnabled, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	if storageEnabled {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		store = st
		log.Info("question journal enabled", logx.String("driver", sc.Driver))
	}

	forest := loadForest(cfg, log)

	botSvc := bot.New(
		log.With(logx.String("comp", "bot")),
		ad,
		forest,
		bot.Config{
			Welcome:  cfg.Messages.Welcome,
			Fallback: cfg.Messages.Fallback,
			Channel:  cfg.Menu.Channel,
		},
		store,
	)

	var digSvc *digest.Service
	if cfg.Digest.Enabled {
		if store == nil {
			log.Warn("digest enabled but no storage driver is configured; digest disabled")
		} else {
			dcfg, err := mapDigestConfig(cfg)
			if err != nil {
				return nil, err
			}
			digSvc = digest.New(log.With(logx.String("comp", "digest")), ad, store, dcfg)
		}
	}

	var ppSvc *pprof.Service
	if cfg.Pprof.Enabled {
		ppc, err := mapPprofConfig(cfg)
		if err != nil {
			return nil, err
		}
		ppSvc = pprof.New(ppc, log.With(logx.String("comp", "pprof")))
	}

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		store:   store,
		adapter: ad,
		forest:  forest,
		bot:     botSvc,
		digest:  digSvc,
		pprof:   ppSvc,
		updates: make(chan kit.Update, 256),
	}, nil
}

// Done is closed when the app supervisor context is canceled (fatal error or Stop()).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor (if any).
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.NewSupervisor(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true),
	)

	// Transactional config reload: validate before commit/publish. Normalize
	// runs inside Parse; the validator re-checks the app-level mappings.
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(c context.Context, cfg *config.Config) error {
		if strings.TrimSpace(cfg.Telegram.Token) == "" {
			return fmt.Errorf("telegram.token must not be cleared")
		}
		if _, _, err := mapStorageConfig(cfg); err != nil {
			return err
		}
		if _, err := mapPprofConfig(cfg); err != nil {
			return err
		}
		if cfg.Digest.Enabled {
			if _, err := mapDigestConfig(cfg); err != nil {
				return err
			}
		}
		return nil
	})

	if err := a.adapter.Start(a.sup.Context(), a.updates); err != nil {
		return err
	}

	if a.pprof != nil {
		a.pprof.Start(a.sup.Context())
	}
	if a.digest != nil {
		if err := a.digest.Start(a.sup.Context()); err != nil {
			return err
		}
	}

	a.sup.Go("bot.dispatch", func(c context.Context) error {
		return a.bot.Run(c, a.updates)
	})

	// Best-effort Telegram command menu registration.
	if up, ok := a.adapter.(kit.CommandMenuUpdater); ok {
		a.sup.Go0("telegram.menu.update", func(c context.Context) {
			cctx, cancel := context.WithTimeout(c, 5*time.Second)
			defer cancel()
			if err := up.UpdateMenuCommands(cctx, bot.Commands()); err != nil {
				a.log.Debug("command menu update failed", logx.Any("err", err))
			}
		})
	}

	// Hot reload fan-out. Only logging settings apply live; everything else
	// logs a restart hint so an edited file can't half-reconfigure the bot.
	sub := a.cfgm.Subscribe(8)
	a.sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		lastApplied := a.cfgm.Get()
		for {
			select {
			case <-c.Done():
				return
			case newCfg, ok := <-sub:
				if !ok {
					return
				}
				// Coalesce bursts: keep only the latest config in the channel.
				for {
					select {
					case newer := <-sub:
						if newer != nil {
							newCfg = newer
						}
					default:
						goto APPLY
					}
				}
			APPLY:
				changed, attrs := config.SummarizeConfigChange(lastApplied, newCfg)
				if len(changed) == 0 {
					a.log.Debug("config reload received, but no effective changes detected")
					lastApplied = newCfg
					continue
				}
				lastApplied = newCfg

				for _, section := range changed {
					if section == "logging" {
						continue
					}
					a.log.Warn("config change needs a restart to take effect",
						logx.String("section", section))
				}

				// Update the log target first so Apply doesn't warn when the
				// Telegram sink is enabled.
				if chatID, ok := groupLogChatID(newCfg); ok {
					a.logs.SetTelegramTarget(chatID, newCfg.Logging.Telegram.ThreadID)
				} else {
					a.logs.SetTelegramTarget(0, 0)
				}
				a.logs.Apply(mapLogxConfig(newCfg))

				fields := append([]logx.Field{logx.String("changed", strings.Join(changed, ","))}, attrs...)
				a.log.Info("config reloaded", fields...)
			}
		}
	})

	a.sup.Go("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	a.log.Info("app started",
		logx.Int("menu_roots", len(a.forest)),
		logx.Bool("journal", a.store != nil),
		logx.Bool("digest", a.digest != nil),
	)
	return nil
}

func (a *App) Stop(ctx context.Context, reason StopReason) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping", logx.String("reason", string(reason)))

	// Cancel the run context first so background loops start unwinding.
	a.sup.Cancel()

	// Run a shutdown step with an upper bound so one component can't stall
	// the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		start := time.Now()

		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			// respect the caller's deadline; never extend it
			if dl, ok := ctx.Deadline(); ok {
				rem := time.Until(dl)
				if rem <= 0 {
					max = 0
				} else if rem < max {
					max = rem
				}
			}
			if max > 0 {
				stepCtx, cancel = context.WithTimeout(ctx, max)
				defer cancel()
			}
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.String("err", err.Error()))
			}
			a.log.Debug("stop step end", logx.String("name", name), logx.Duration("took", time.Since(start)))
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name),
				logx.Duration("elapsed", time.Since(start)),
			)
		}
	}

	step("digest", 2*time.Second, func(c context.Context) error {
		if a.digest != nil {
			return a.digest.Stop(c)
		}
		return nil
	})
	step("pprof", 1*time.Second, func(c context.Context) error {
		if a.pprof != nil {
			a.pprof.Stop(c)
		}
		return nil
	})
	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	step("storage", 1*time.Second, func(c context.Context) error {
		if a.store != nil {
			return a.store.Close()
		}
		return nil
	})

	// Finally, wait for supervised goroutines (dispatch, config watch/reload).
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return nil
}

// loadForest reads the menu, degrading to an empty forest on failure: a bad
// menu file must not take the bot down, only leave it answerless.
func loadForest(cfg *config.Config, log logx.Logger) menu.Forest {
	path := strings.TrimSpace(cfg.Menu.Path)
	forest, err := menu.Load(path, cfg.Menu.Language)
	if err != nil {
		log.Warn("menu load failed; serving an empty menu",
			logx.String("path", path), logx.Any("err", err))
		return menu.Forest{}
	}
	for _, warn := range menu.Lint(forest, tgui.MaxCallbackDataLen) {
		log.Warn("menu lint", logx.String("warn", warn))
	}
	log.Info("menu loaded",
		logx.String("path", path),
		logx.Int("roots", len(forest)),
		logx.Int("leaves", len(forest.Leaves())),
	)
	return forest
}

func mapLogxConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
		Telegram: logx.TelegramConfig{
			Enabled:    cfg.Logging.Telegram.Enabled,
			ThreadID:   cfg.Logging.Telegram.ThreadID,
			MinLevel:   cfg.Logging.Telegram.MinLevel,
			RatePerSec: cfg.Logging.Telegram.RatePerSec,
		},
	}
}

func groupLogChatID(cfg *config.Config) (int64, bool) {
	raw := strings.TrimSpace(cfg.Telegram.GroupLog)
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func mapStorageConfig(cfg *config.Config) (storage.Config, bool, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if driver == "" || driver == "none" {
		return storage.Config{}, false, nil
	}
	path := strings.TrimSpace(cfg.Storage.Path)

	switch driver {
	case "file":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=file")
		}
		return storage.Config{Driver: driver, Path: path}, true, nil
	case "sqlite", "sqlite3":
		if path == "" {
			return storage.Config{}, false, fmt.Errorf("storage.path is required when storage.driver=sqlite")
		}
		busy, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, time.Second)
		if err != nil {
			return storage.Config{}, false, err
		}
		return storage.Config{Driver: driver, Path: path, BusyTimeout: busy}, true, nil
	default:
		return storage.Config{}, false, fmt.Errorf("unknown storage.driver: %s", cfg.Storage.Driver)
	}
}

func mapDigestConfig(cfg *config.Config) (digest.Config, error) {
	window, err := config.ParseDurationField("digest.window", cfg.Digest.Window)
	if err != nil {
		return digest.Config{}, err
	}

	// Normalize guarantees one of digest.chat_id / telegram.group_log is set
	// and numeric when the digest is enabled.
	target := strings.TrimSpace(cfg.Digest.ChatID)
	if target == "" {
		target = strings.TrimSpace(cfg.Telegram.GroupLog)
	}
	chatID, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return digest.Config{}, fmt.Errorf("digest chat id %q: %w", target, err)
	}

	return digest.Config{
		Schedule: cfg.Digest.Schedule,
		ChatID:   chatID,
		Timezone: cfg.Digest.Timezone,
		Window:   window,
	}, nil
}

func mapPprofConfig(cfg *config.Config) (pprof.Config, error) {
	readT, err := config.ParseDurationField("pprof.read_timeout", cfg.Pprof.ReadTimeout)
	if err != nil {
		return pprof.Config{}, err
	}
	writeT, err := config.ParseDurationField("pprof.write_timeout", cfg.Pprof.WriteTimeout)
	if err != nil {
		return pprof.Config{}, err
	}
	idleT, err := config.ParseDurationField("pprof.idle_timeout", cfg.Pprof.IdleTimeout)
	if err != nil {
		return pprof.Config{}, err
	}
	return pprof.Config{
		Addr:          cfg.Pprof.Addr,
		Prefix:        cfg.Pprof.Prefix,
		Token:         cfg.Pprof.Token,
		AllowInsecure: cfg.Pprof.AllowInsecure,
		ReadTimeout:   readT,
		WriteTimeout:  writeT,
		IdleTimeout:   idleT,
	}, nil
}
