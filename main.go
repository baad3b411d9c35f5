package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pathakanu/medMemo/internal/api"
	"github.com/pathakanu/medMemo/internal/bot"
	"github.com/pathakanu/medMemo/internal/config"
	"github.com/pathakanu/medMemo/internal/database"
	"github.com/pathakanu/medMemo/internal/notify"
	myopenai "github.com/pathakanu/medMemo/internal/openai"
	"github.com/pathakanu/medMemo/internal/reminder"
	"github.com/pathakanu/medMemo/internal/store"
	"github.com/pathakanu/medMemo/internal/twilio"
)

func main() {
	logger := log.New(os.Stdout, "[medMemo] ", log.LstdFlags|log.Lshortfile)
	cfg := config.Load()

	medStore := store.New(cfg.DataFile, store.WithLogger(logger))
	if err := medStore.Reload(); err != nil {
		logger.Printf("store: starting empty: %v", err)
	}

	loopOpts := []reminder.Option{
		reminder.WithLocation(cfg.ReminderTimezone),
		reminder.WithInterval(cfg.PollInterval),
		reminder.WithEnabled(cfg.NotificationsEnabled),
		reminder.WithLogger(logger),
		reminder.WithSummarizer(myopenai.New(cfg.OpenAIAPIKey)),
	}

	var history api.History
	db, err := database.New(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.Printf("database init failed, dispatch history disabled: %v", err)
	} else {
		dispatchLog := database.NewDispatchLog(db)
		loopOpts = append(loopOpts, reminder.WithRecorder(dispatchLog))
		history = dispatchLog
	}

	loop := reminder.New(medStore, buildNotifier(cfg, logger), loopOpts...)
	if err := loop.Start(context.Background()); err != nil {
		logger.Fatalf("reminder loop start: %v", err)
	}

	srv := api.New(api.Options{
		Store:        medStore,
		Toggle:       loop,
		History:      history,
		Logger:       logger,
		ReminderZone: cfg.ReminderTimezone,
		Webhook:      bot.New(medStore, logger).Handler(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Printf("server starting on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	waitForShutdown(server, loop, medStore, logger)
}

func buildNotifier(cfg *config.Config, logger *log.Logger) notify.Notifier {
	var sinks notify.Multi
	for _, name := range cfg.Notifiers {
		switch name {
		case "desktop":
			sinks = append(sinks, notify.Desktop{})
		case "log":
			sinks = append(sinks, notify.Log{Logger: logger})
		case "twilio":
			sinks = append(sinks, twilio.New(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber, cfg.TwilioNotifyTo))
		default:
			logger.Printf("config: unknown notifier %q ignored", name)
		}
	}
	if len(sinks) == 0 {
		logger.Printf("config: no notifiers configured, falling back to log")
		sinks = append(sinks, notify.Log{Logger: logger})
	}
	return sinks
}

func waitForShutdown(server *http.Server, loop *reminder.Loop, medStore *store.Store, logger *log.Logger) {
	stopCtx := make(chan os.Signal, 1)
	signal.Notify(stopCtx, syscall.SIGINT, syscall.SIGTERM)
	<-stopCtx
	logger.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Printf("server shutdown error: %v", err)
	}
	loop.Stop()
	if err := medStore.Persist(); err != nil {
		logger.Printf("store: final persist: %v", err)
	}
}
