package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/map-veto-backend/internal/config"
	"github.com/DoyleJ11/map-veto-backend/internal/httpapi"
	"github.com/DoyleJ11/map-veto-backend/internal/hub"
	"github.com/DoyleJ11/map-veto-backend/internal/lobby"
	"github.com/DoyleJ11/map-veto-backend/internal/logging"
	"github.com/DoyleJ11/map-veto-backend/internal/notify"
	"github.com/DoyleJ11/map-veto-backend/internal/slackbot"
	"github.com/DoyleJ11/map-veto-backend/internal/template"
	"github.com/DoyleJ11/map-veto-backend/internal/veto"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the veto HTTP, websocket and Slack endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logging.New(cfg.LogLevel, cfg.LogDev)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, log)
	},
}

func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (template.Store, error) {
	if cfg.DatabaseDSN == "" {
		log.Info("no database configured, keeping templates in memory")
		return template.NewMemoryStore(), nil
	}
	db, err := template.OpenPostgres(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	store := template.NewGormStore(db)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func serve(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := template.Seed(ctx, store); err != nil {
		return err
	}

	deliverers := notify.Multi{notify.LogDeliverer{Logger: log}}
	var watchers []veto.Watcher
	var sl httpapi.Slack
	if cfg.SlackEnabled() {
		client := slack.New(cfg.SlackToken)
		deliverers = append(deliverers, slackbot.NewDeliverer(client))
		watchers = append(watchers, slackbot.NewPrompter(client, log))
		sl = httpapi.Slack{Client: client, SigningSecret: cfg.SlackSigningSecret}
	}

	h := hub.NewHub(ctx, lobby.Options{
		TurnTimeout: cfg.TurnTimeout,
		Deliverer:   deliverers,
		Logger:      log,
	})
	svc := veto.NewService(ctx, h, store, veto.Options{
		Sides:             cfg.Sides,
		ContinueHoldsTurn: cfg.ContinueHoldsTurn,
		Logger:            log,
		Watchers:          watchers,
	})

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(svc, log, sl),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("slack", cfg.SlackEnabled()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		h.Shutdown()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
