package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"KingOfTheBlock/internal/api"
	"KingOfTheBlock/internal/config"
	"KingOfTheBlock/internal/engine"
	"KingOfTheBlock/internal/game"
	"KingOfTheBlock/internal/keeper"
	"KingOfTheBlock/internal/ledger"
	"KingOfTheBlock/internal/model"
	"KingOfTheBlock/internal/notifier"
	"KingOfTheBlock/internal/recorder"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] KingOfTheBlock starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Open ledger
	clock := ledger.NewWallClock(cfg.Ledger.Genesis, cfg.Ledger.SlotDuration)
	ldg, err := ledger.Open(ledger.Options{
		FilePath:   cfg.Ledger.StateFile,
		ProgramID:  cfg.Ledger.ProgramID,
		MinReserve: cfg.Ledger.MinReserve,
		Clock:      clock,
	})
	if err != nil {
		log.Fatalf("[FATAL] open ledger: %v", err)
	}
	addrs := ldg.Addresses()
	log.Printf("[INFO] vaults: pot=%s next_pot=%s slot=%d", addrs.Pot, addrs.NextPot, ldg.Slot())

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Telegram notifier
	var tn *notifier.TelegramNotifier
	var announcer engine.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		announcer = tn
	} else {
		log.Println("[INFO] telegram not configured, announcements disabled")
	}

	eng := engine.New(ctx, ldg, rec, announcer)
	defer eng.Wait()

	if cfg.Game.AutoInitialize {
		_, err := eng.InitializeState(ctx,
			model.Identity(cfg.Game.Payer),
			model.Identity(cfg.Game.Authority),
			model.Identity(cfg.Game.FeeAccount))
		switch {
		case errors.Is(err, game.ErrAlreadyInitialized):
			log.Println("[INFO] game already initialized")
		case err != nil:
			log.Fatalf("[FATAL] initialize game: %v", err)
		}
	}

	// Init keeper
	kp := keeper.New(ctx, eng, rec, announcer)
	if err := kp.RegisterAll(cfg.Keeper.SettleCron, cfg.Keeper.SnapshotCron, cfg.Keeper.SummaryCron); err != nil {
		log.Fatalf("[FATAL] register cron jobs: %v", err)
	}
	kp.Start()
	defer kp.Stop()

	// Start Telegram polling
	if tn != nil {
		go tn.StartPolling(ctx, kp.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	// Start HTTP server
	srv := api.NewServer(cfg.Server.Addr, api.NewHandler(eng, cfg.Server.EnableFaucet))
	srv.Start()

	log.Println("[INFO] KingOfTheBlock is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] KingOfTheBlock stopped")
}
