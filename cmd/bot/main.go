package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"

	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/app"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/config"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/internal/menu"
	"github.com/AbdallahZerfaoui/terminjetzt-bot/pkg/tgui"
)

func main() {
	var (
		cfgPath string
		check   bool
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (YAML or JSON)")
	flag.BoolVar(&check, "check", false, "validate config and menu, print a summary, exit")
	flag.Parse()

	// The config file is optional: when -config was not given and nothing
	// sits at the default path, run on environment variables alone. An
	// explicitly passed path that is missing stays fatal.
	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	if !explicit {
		if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
			cfgPath = ""
		}
	}

	if check {
		os.Exit(runCheck(cfgPath))
	}

	a, err := app.New(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	if err := a.Start(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		os.Exit(1)
	}
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	reason := app.StopUnknown
	select {
	case sig := <-sigCh:
		if sig == syscall.SIGTERM {
			reason = app.StopSIGTERM
		} else {
			reason = app.StopSIGINT
		}
	case <-a.Done():
		if sig := drainSignal(sigCh); sig != nil {
			if sig == syscall.SIGTERM {
				reason = app.StopSIGTERM
			} else {
				reason = app.StopSIGINT
			}
		} else {
			reason = app.StopFatalError
			if err := a.Err(); err != nil {
				fmt.Fprintln(os.Stderr, "fatal:", err)
			}
		}
	}
	// A second signal during shutdown falls back to the default disposition
	// and kills the process.
	signal.Stop(sigCh)

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	stopCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = a.Stop(stopCtx, reason)

	if reason == app.StopFatalError {
		os.Exit(1)
	}
}

func drainSignal(ch <-chan os.Signal) os.Signal {
	select {
	case sig := <-ch:
		return sig
	default:
		return nil
	}
}

// runCheck validates the deployable pair (config file, menu file) without
// touching the network. Meant for CI and deploy hooks.
func runCheck(cfgPath string) int {
	cfg, err := config.NewManager(cfgPath).Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}

	forest, err := menu.Load(cfg.Menu.Path, cfg.Menu.Language)
	if err != nil {
		fmt.Fprintln(os.Stderr, "menu:", err)
		return 1
	}

	warns := menu.Lint(forest, tgui.MaxCallbackDataLen)
	fmt.Printf("%s: %d root entries, %d leaves, %d warnings\n",
		cfg.Menu.Path, len(forest), len(forest.Leaves()), len(warns))
	for _, w := range warns {
		fmt.Println("  warn:", w)
	}
	return 0
}
