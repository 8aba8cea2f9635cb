package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/urfave/cli/v2"

	"irrigation-status-backend/internal/api"
	"irrigation-status-backend/internal/controller"
	"irrigation-status-backend/internal/countdown"
	"irrigation-status-backend/internal/db"
	"irrigation-status-backend/internal/loop"
	"irrigation-status-backend/internal/notification"
	"irrigation-status-backend/internal/schedule"
	"irrigation-status-backend/internal/status"
	"irrigation-status-backend/internal/store"
	"irrigation-status-backend/internal/view"
)

func cmdServe() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the schedule, status and countdown controllers behind the HTTP API (default)",
		Action: func(c *cli.Context) error {
			return runServe(c)
		},
	}
}

func runServe(c *cli.Context) error {
	logger := log.New(os.Stdout, "irrigationd ", log.LstdFlags)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger.Printf("configuration loaded successfully from %s", c.String("config"))

	clk, err := deviceClock(cfg.Display)
	if err != nil {
		return err
	}

	client, err := controller.NewClient(cfg.Controller, clk)
	if err != nil {
		return fmt.Errorf("failed to create controller client: %w", err)
	}

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	logger.Println("database initialized successfully")
	appStore := store.NewGormStore(gormDB)

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	events := loop.New(0)
	go events.Run(ctx)

	board := view.NewBoard()
	scheduleCtl := schedule.New(events, clk, client, board, cfg.Schedule, cfg.Display)
	poller := status.NewPoller(events, clk, client, board, cfg.Status)
	countdowns := countdown.New(events, board, cfg.Countdown, func() {
		scheduleCtl.Refresh()
		poller.Poll()
	})

	var webpushOptions *webpush.Options
	var notifier status.Notifier
	if cfg.Push.Enabled() {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, webpushOptions)
		workerPool.Start(ctx)
		notifier = workerPool
		logger.Printf("notification worker pool started with %d workers", cfg.WorkerPool.Size)
	} else {
		logger.Println("VAPID keys are not configured; push notifications are disabled")
	}

	events.Post(func() {
		poller.SetRecorder(appStore, notifier)
		// The first schedule is laid out before any station list is known.
		poller.OnFirstBatch(scheduleCtl.Refresh)
		scheduleCtl.Start(ctx)
		poller.Start(ctx)
	})

	router := api.NewRouter(api.Deps{
		Store:      appStore,
		WebPush:    webpushOptions,
		Views:      board,
		Loop:       events,
		Schedule:   scheduleCtl,
		Status:     poller,
		Countdowns: countdowns,
		Controller: client,
		ManualMode: cfg.Display.ManualMode,
	}, cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown: %w", err)
	}
	cancel()
	<-events.Done()

	logger.Println("Server gracefully stopped")
	return nil
}
