package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sjawhar/voicebrief/internal/config"
	"github.com/sjawhar/voicebrief/internal/gdrive"
	"github.com/sjawhar/voicebrief/internal/llm"
	"github.com/sjawhar/voicebrief/internal/server"
	"github.com/sjawhar/voicebrief/internal/session"
	"github.com/sjawhar/voicebrief/internal/storage"
	"github.com/sjawhar/voicebrief/internal/summary"
)

func main() {
	log.Println("voicebrief: starting")

	cfg, warnings, err := config.Load(os.Getenv(config.EnvPrefix + "CONFIG"))
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	for _, warning := range warnings {
		log.Printf("warning: %s", warning)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	summarizer := summary.New(func() (llm.Client, error) {
		provider, model, err := llm.ParseModel(cfg.SummaryModel)
		if err != nil {
			return nil, err
		}
		return llm.NewClient(provider, cfg.APIKeyFor(provider), model)
	})

	hub := server.NewHub()
	registry := session.NewRegistry()
	watchdog := session.NewWatchdog(cfg.ParsedSilenceTimeout())
	controller := session.NewController(registry, summarizer, store, hub, watchdog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.GDriveFolderID != "" {
		syncer, syncErr := gdrive.NewSyncer(ctx, cfg.GoogleCredentialsFile, cfg.GDriveFolderID)
		if syncErr != nil {
			log.Printf("warning: gdrive sync disabled: %v", syncErr)
		} else {
			go func() {
				ticker := time.NewTicker(5 * time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						date := time.Now().UTC().Format("2006-01-02")
						if err := syncer.Sync(cfg.DBPath, date); err != nil {
							log.Printf("gdrive sync error: %v", err)
						}
					}
				}
			}()
		}
	}

	handler := server.Handler(hub, controller, controller, store, cfg.ParsedSummaryTimeout())
	httpServer := &http.Server{Addr: cfg.Addr, Handler: handler}
	go func() {
		log.Printf("voicebrief: API on http://127.0.0.1%s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("voicebrief: shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("warning: http shutdown failed: %v", err)
	}
}
