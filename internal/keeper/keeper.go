// Package keeper runs the periodic jobs that keep the game moving: settling
// expired rounds, sampling the treasury and posting a daily digest.
package keeper

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"KingOfTheBlock/internal/engine"
	"KingOfTheBlock/internal/game"
	"KingOfTheBlock/internal/notifier"
	"KingOfTheBlock/internal/recorder"
)

// summaryWindow is how far back the daily digest looks.
const summaryWindow = 24 * time.Hour

// summaryScanLimit bounds how many recent rows the digest reads.
const summaryScanLimit = 1000

// Keeper manages all cron jobs.
type Keeper struct {
	Cron     *cron.Cron
	Engine   *engine.Engine
	Recorder recorder.Recorder
	Notifier engine.Notifier // nil disables the digest
	Ctx      context.Context
}

// New creates a Keeper.
func New(ctx context.Context, eng *engine.Engine, rec recorder.Recorder, n engine.Notifier) *Keeper {
	return &Keeper{
		Cron:     cron.New(cron.WithSeconds()),
		Engine:   eng,
		Recorder: rec,
		Notifier: n,
		Ctx:      ctx,
	}
}

// RegisterAll registers the settle, snapshot and summary jobs. An empty spec
// leaves that job off.
func (k *Keeper) RegisterAll(settleCron, snapshotCron, summaryCron string) error {
	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"settle", settleCron, k.settleTask},
		{"snapshot", snapshotCron, k.snapshotTask},
		{"summary", summaryCron, k.summaryTask},
	}
	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		if _, err := k.Cron.AddFunc(j.spec, j.fn); err != nil {
			return fmt.Errorf("register %s job: %w", j.name, err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (k *Keeper) Start() {
	k.Cron.Start()
	log.Println("[INFO] keeper started")
}

// Stop stops the scheduler and waits for running jobs.
func (k *Keeper) Stop() {
	<-k.Cron.Stop().Done()
	log.Println("[INFO] keeper stopped")
}

// settleTask ends an expired round on behalf of its leader.
func (k *Keeper) settleTask() {
	rcpt, err := k.Engine.SettleExpired(k.Ctx)
	switch {
	case errors.Is(err, game.ErrNotInitialized):
		return
	case err != nil:
		log.Printf("[ERROR] settle expired round: %v", err)
		return
	case rcpt != nil:
		log.Printf("[INFO] keeper settled round: winner=%s prize=%d", rcpt.Event.Winner, rcpt.Event.Prize)
	}
}

func (k *Keeper) snapshotTask() {
	snap, err := k.Engine.Snapshot()
	if err != nil {
		if !errors.Is(err, game.ErrNotInitialized) {
			log.Printf("[ERROR] treasury snapshot: %v", err)
		}
		return
	}
	if err := k.Recorder.RecordTreasury(&recorder.TreasurySnapshot{
		At:             time.Now().UTC(),
		Slot:           snap.Slot,
		Phase:          snap.Phase,
		PotBalance:     snap.Treasury.PotBalance,
		NextPotBalance: snap.Treasury.NextPotBalance,
		BidValue:       game.BidPrice(snap.State, snap.Settings),
	}); err != nil {
		log.Printf("[ERROR] record treasury: %v", err)
	}
}

func (k *Keeper) summaryTask() {
	report, err := k.DailySummary(time.Now())
	if err != nil {
		log.Printf("[ERROR] daily summary: %v", err)
		return
	}
	k.trySend(report)
}

// DailySummary builds the digest of the summaryWindow before now.
func (k *Keeper) DailySummary(now time.Time) (string, error) {
	snap, err := k.Engine.Snapshot()
	if err != nil {
		return "", err
	}
	since := now.Add(-summaryWindow)

	allBids, err := k.Recorder.RecentBids(summaryScanLimit)
	if err != nil {
		return "", fmt.Errorf("read bids: %w", err)
	}
	var bids []recorder.BidRecord
	for _, b := range allBids {
		if b.Meta.At.After(since) {
			bids = append(bids, b)
		}
	}

	allGames, err := k.Recorder.RecentGames(summaryScanLimit)
	if err != nil {
		return "", fmt.Errorf("read games: %w", err)
	}
	var games []recorder.GameRecord
	for _, g := range allGames {
		if g.Meta.At.After(since) {
			games = append(games, g)
		}
	}
	return notifier.FormatDailySummary(snap, bids, games), nil
}

// HandleCommand answers a chat command.
func (k *Keeper) HandleCommand(_ context.Context, command string) string {
	switch command {
	case "/state", "/status":
		snap, err := k.Engine.Snapshot()
		if err != nil {
			return commandError(err)
		}
		return notifier.FormatStatus(snap)
	case "/treasury":
		snap, err := k.Engine.Snapshot()
		if err != nil {
			return commandError(err)
		}
		return notifier.FormatTreasury(snap)
	case "/settings":
		snap, err := k.Engine.Snapshot()
		if err != nil {
			return commandError(err)
		}
		return notifier.FormatSettings(&snap.Settings)
	case "/summary":
		report, err := k.DailySummary(time.Now())
		if err != nil {
			return commandError(err)
		}
		return report
	default:
		return "Commands:\n• /state\n• /treasury\n• /settings\n• /summary"
	}
}

func commandError(err error) string {
	if errors.Is(err, game.ErrNotInitialized) {
		return "⏳ The game has not been initialized yet."
	}
	log.Printf("[ERROR] command: %v", err)
	return "❌ Something went wrong, try again later."
}

func (k *Keeper) trySend(text string) {
	if k.Notifier == nil {
		return
	}
	if err := k.Notifier.SendWithRetry(k.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
