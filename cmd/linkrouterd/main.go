// Command linkrouterd hosts the router behind HTTP and WebSocket endpoints so
// an app shell can forward links and notification responses and receive
// navigation frames.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-linkrouter/adapters/wsnav"
	"github.com/goliatone/go-linkrouter/pkg/activity"
	"github.com/goliatone/go-linkrouter/pkg/activity/console"
	"github.com/goliatone/go-linkrouter/pkg/activity/webhook"
	"github.com/goliatone/go-linkrouter/pkg/config"
	"github.com/goliatone/go-linkrouter/pkg/interfaces/logger"
	"github.com/goliatone/go-linkrouter/pkg/linkrouter"
	"github.com/goliatone/go-linkrouter/pkg/sources"
	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file")
	initialURL := flag.String("initial-url", "", "launch URL delivered on init")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to load .env: %v", err)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lgr := logger.NewText(os.Stderr, cfg.Logging.Level)

	ctx := context.Background()
	links := sources.NewLinkFeed(*initialURL)
	notes := sources.NewNotificationFeed()
	hub := wsnav.NewHub(wsnav.Options{
		Logger:         lgr,
		OnLink:         links.Open,
		OnNotification: wsnav.FeedNotifications(notes),
		AllowAnyOrigin: cfg.Server.AllowAnyOrigin,
	})

	module, err := linkrouter.NewModule(ctx, linkrouter.ModuleOptions{
		Config:               cfg,
		Logger:               lgr,
		Navigator:            hub,
		LinkPlatform:         links,
		NotificationPlatform: notes,
		Activity:             activityHooks(cfg.Activity, lgr),
	})
	if err != nil {
		log.Fatalf("failed to build module: %v", err)
	}
	if err := module.Start(ctx); err != nil {
		log.Fatalf("failed to start router: %v", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(&server{module: module, hub: hub, logger: lgr}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		lgr.Info("linkrouterd listening", logger.F("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	lgr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.Warn("server shutdown error", logger.F("error", err))
	}
	hub.Close()
	if err := module.Close(); err != nil {
		lgr.Warn("module close error", logger.F("error", err))
	}
}

func loadConfig(path string) (config.Config, error) {
	env := config.WithEnv(config.LookupOS)
	if path == "" {
		return config.Load(map[string]any{}, env)
	}
	return config.LoadFile(path, env)
}

func activityHooks(cfg config.ActivityConfig, lgr logger.Logger) activity.Hook {
	var hooks activity.Hooks
	if cfg.Console {
		hooks = append(hooks, console.New(lgr))
	}
	if cfg.Webhook.URL != "" || cfg.Webhook.DryRun {
		hooks = append(hooks, webhook.New(lgr, webhook.WithConfig(webhook.Config{
			URL:           cfg.Webhook.URL,
			Method:        cfg.Webhook.Method,
			Headers:       cfg.Webhook.Headers,
			Timeout:       cfg.Webhook.Timeout,
			BasicAuthUser: cfg.Webhook.BasicAuthUser,
			BasicAuthPass: cfg.Webhook.BasicAuthPass,
			DryRun:        cfg.Webhook.DryRun,
		})))
	}
	if len(hooks) == 0 {
		return activity.Nop{}
	}
	return hooks
}
