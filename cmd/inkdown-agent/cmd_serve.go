package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkdown/inkdown-agent/internal/config"
	"github.com/inkdown/inkdown-agent/internal/exitcodes"
	"github.com/inkdown/inkdown-agent/internal/i18n"
	"github.com/inkdown/inkdown-agent/internal/logging"
	"github.com/inkdown/inkdown-agent/internal/notify"
	"github.com/inkdown/inkdown-agent/internal/update"
)

// server owns the long-running state of serve mode.
type server struct {
	cfg        config.Config
	log        *slog.Logger
	hub        *notify.Hub
	checker    *update.Checker
	version    string
	lastDigest uint64
}

// runCheckCycle runs one periodic check and broadcasts the decision to
// connected editor windows. Repeating an unchanged feed is suppressed
// by the decision digest.
func (s *server) runCheckCycle(ctx context.Context) {
	settings, err := config.LoadSettings(s.cfg.SettingsPath)
	if err != nil {
		s.log.Warn("settings unreadable, using defaults", "err", err)
		settings = config.DefaultSettings()
	}
	if !settings.AutoCheck {
		s.log.Debug("auto check disabled, skipping cycle")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 35*time.Second)
	defer cancel()

	decision, err := s.checker.Check(ctx, s.version, settings.CheckForBeta)
	if err != nil {
		if update.IsNoUpdate(err) {
			s.log.Debug("no update available")
			s.lastDigest = 0
			return
		}
		if errors.Is(err, update.ErrCheckInProgress) {
			s.log.Warn("previous check still running, skipping cycle")
			return
		}
		s.log.Error("update check failed", "err", err)
		s.hub.Broadcast(notify.NotificationEvent(
			i18n.T("check_failed"), update.LocalizedMessage(err), "error"))
		return
	}

	digest := update.DecisionDigest(decision)
	if digest == s.lastDigest {
		s.log.Debug("feed unchanged, suppressing notification", "version", decision.NewVersion)
		return
	}
	s.lastDigest = digest

	_ = update.SaveCache(s.cfg.HomeDir, &update.CacheEntry{
		CheckedAt:       time.Now(),
		LatestVersion:   decision.NewVersion,
		UpdateAvailable: true,
		FeedDigest:      digest,
	})

	s.log.Info("update available", "version", decision.NewVersion, "beta", decision.IsBeta)
	s.hub.Broadcast(notify.UpdateEvent(decision))
}

func (s *server) run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/events", s.hub.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	ln, err := net.Listen("tcp", s.cfg.EventAddr)
	if err != nil {
		return exitcodes.ProcessErr("cannot listen on " + s.cfg.EventAddr + ": " + err.Error())
	}

	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.hub.Close()
	}()

	s.log.Info("agent serving", "addr", ln.Addr().String(), "interval", s.cfg.CheckInterval)

	// First check shortly after startup so a freshly opened editor gets
	// notified without waiting a full interval.
	go func() {
		select {
		case <-time.After(10 * time.Second):
			s.runCheckCycle(ctx)
		case <-ctx.Done():
			return
		}

		ticker := time.NewTicker(s.cfg.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.runCheckCycle(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Info("agent stopped")
	return nil
}

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the agent in the background for the editor",
		Long: `Run the long-lived agent process. It checks the release feed on an
interval and pushes update events to connected editor windows over a
local WebSocket endpoint.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadCfg()

			level := slog.LevelInfo
			if flagQuiet {
				level = slog.LevelError
			}
			log, closer, err := logging.New(os.Stderr, logging.Options{
				Level:    level,
				NoColor:  flagNoColor,
				FilePath: cfg.LogPath(),
			})
			if err != nil {
				return err
			}
			defer func() { _ = closer.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := &server{
				cfg:     cfg,
				log:     log,
				hub:     notify.NewHub(log),
				checker: update.NewChecker(cfg.ReleasesURL),
				version: Version,
			}
			return s.run(ctx)
		},
	}
	rootCmd.AddCommand(serveCmd)
}
