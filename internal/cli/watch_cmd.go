// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// watch_cmd.go - the interactive session coordinator.
//
// Watch mode mirrors the web client's session handling: every stdin line is
// user activity, a warning fires after the configured idle span, and the
// session is closed when the countdown runs out. Configuration changes are
// picked up live through the config watcher.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sisinv/inventario-cli/internal/api"
	"github.com/sisinv/inventario-cli/internal/audit"
	"github.com/sisinv/inventario-cli/internal/auth"
	"github.com/sisinv/inventario-cli/internal/config"
	"github.com/sisinv/inventario-cli/internal/nav"
	"github.com/sisinv/inventario-cli/internal/session"
)

// continueWord is what the user types during the warning to stay logged in.
const continueWord = "continue"

// HandleWatch runs the session coordinator until logout or interrupt.
func HandleWatch(args Args) {
	a, err := buildApp(args)
	if err != nil {
		exitErr(err)
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.client.SetLocation(nav.RouteHome)

	// Classifier-driven redirects are session-lifecycle events: record them
	// alongside applying the navigation.
	a.client.OnRedirect(func(intent *nav.Intent) {
		switch intent.Target {
		case nav.RouteLogin:
			a.record(audit.EventSessionExpired, "", string(intent.Target))
		case nav.RouteAccountDisabled:
			a.record(audit.EventAccountDisabled, "", string(intent.Target))
		}
		a.client.Navigate(intent)
	})

	id, err := establishIdentity(ctx, a)
	if err != nil {
		if a.client.Location() == nav.RouteMaintenance || api.IsMaintenance(err) {
			exitErr(fmt.Errorf("backend em manutenção, tente novamente mais tarde"))
		}
		exitErr(err)
	}

	if !args.Quiet {
		fmt.Println(TitleStyle.Render("inventario watch"))
		fmt.Printf("%s %s (%s) on %s\n", RenderLabel("Session:"),
			ValueStyle.Render(id.Username), id.Role, routeName(a.client.Location()))
		fmt.Println(DimStyle.Render("Type anything to register activity. Ctrl+C to quit."))
	}

	w := &watchLoop{app: a, args: args, identity: id}
	w.run(ctx)
}

// watchLoop owns the scheduler and rebuilds it when the config reloads.
type watchLoop struct {
	app      *app
	args     Args
	identity *auth.Identity

	mu    sync.Mutex
	sched *session.Scheduler

	logoutOnce sync.Once
	done       chan struct{}
}

func (w *watchLoop) run(ctx context.Context) {
	w.done = make(chan struct{})

	if err := w.installScheduler(w.app.cfg); err != nil {
		exitErr(err)
	}

	watcher, err := config.NewWatcher(500*time.Millisecond, func(cfg *config.Config) {
		if err := w.installScheduler(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: config reload rejected: %v\n", err)
			return
		}
		if !w.args.Quiet {
			fmt.Println(DimStyle.Render(fmt.Sprintf("Config reloaded: warn %dm, logout %dm",
				cfg.Session.WarningAfterMinutes, cfg.Session.LogoutAfterMinutes)))
		}
	})
	if err == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		} else {
			watcher.Close()
		}
	}

	go w.readInput(ctx)
	w.render(ctx)
}

// installScheduler swaps in a scheduler built from cfg, tearing down the
// previous one.
func (w *watchLoop) installScheduler(cfg *config.Config) error {
	sched, err := session.New(session.Config{
		WarningAfter: cfg.WarningAfter(),
		LogoutAfter:  cfg.LogoutAfter(),
		OnLogout:     w.onInactivityLogout,
	})
	if err != nil {
		return err
	}

	w.mu.Lock()
	old := w.sched
	w.sched = sched
	w.mu.Unlock()

	if old != nil {
		old.Stop()
	}
	sched.SetActive(true)
	return nil
}

func (w *watchLoop) scheduler() *session.Scheduler {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sched
}

// onInactivityLogout runs when the countdown expires.
func (w *watchLoop) onInactivityLogout() {
	w.logoutOnce.Do(func() {
		fmt.Println()
		fmt.Println(ErrorStyle.Render("Sessão encerrada por inatividade."))

		w.app.record(audit.EventInactivityEnd, w.identity.Username, "")

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.app.boot.Logout(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: server logout failed: %v\n", err)
		}
		w.app.clearSession()
		close(w.done)
	})
}

// readInput turns stdin lines into activity events. While the warning is
// showing, only the continue word resets the session; anything else is
// ignored, matching the web client where background activity does not
// dismiss the warning dialog.
func (w *watchLoop) readInput(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		sched := w.scheduler()
		if sched == nil {
			continue
		}

		if sched.ShowWarning() {
			if strings.EqualFold(line, continueWord) {
				sched.Reset()
				if !w.args.Quiet {
					fmt.Println(SuccessStyle.Render("Session extended."))
				}
			}
			continue
		}
		sched.Touch()
	}
}

// render drives the warning countdown display until logout or interrupt.
func (w *watchLoop) render(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	warned := false
	for {
		select {
		case <-ctx.Done():
			w.shutdown()
			return
		case <-w.done:
			return
		case <-ticker.C:
			sched := w.scheduler()
			if sched == nil {
				continue
			}
			if !sched.ShowWarning() {
				warned = false
				continue
			}
			if !warned {
				warned = true
				w.app.record(audit.EventInactivityWarn, w.identity.Username, "")
				fmt.Println(WarningStyle.Render("Sessão prestes a expirar por inatividade."))
			}
			left := sched.SecondsLeft()
			line := fmt.Sprintf("Logout em %ds. Digite %q para continuar.", left, continueWord)
			if IsStdoutTTY() {
				fmt.Printf("\r%s", WarningStyle.Render(line))
			} else if left%10 == 0 {
				fmt.Println(WarningStyle.Render(line))
			}
		}
	}
}

// shutdown ends the session cleanly on interrupt.
func (w *watchLoop) shutdown() {
	if sched := w.scheduler(); sched != nil {
		sched.Stop()
	}
	fmt.Println()
	fmt.Println(DimStyle.Render("Session coordinator stopped."))
}
