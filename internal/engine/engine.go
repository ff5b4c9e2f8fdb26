// Package engine runs game operations against the ledger and publishes the
// resulting events to the recorder and the notifier.
package engine

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"KingOfTheBlock/internal/game"
	"KingOfTheBlock/internal/ledger"
	"KingOfTheBlock/internal/model"
	"KingOfTheBlock/internal/notifier"
	"KingOfTheBlock/internal/recorder"
)

// Notifier delivers announcements. *notifier.TelegramNotifier satisfies it.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// BidReceipt is a committed bid.
type BidReceipt struct {
	Tx    model.TxMeta    `json:"tx"`
	Event model.BidPlaced `json:"event"`
}

// GameReceipt is a committed endgame.
type GameReceipt struct {
	Tx    model.TxMeta    `json:"tx"`
	Event model.GameEnded `json:"event"`
}

// SettingsReceipt is a committed settings change.
type SettingsReceipt struct {
	Tx    model.TxMeta          `json:"tx"`
	Event model.SettingsUpdated `json:"event"`
}

// Engine is the application service in front of the ledger.
type Engine struct {
	Ledger   *ledger.Ledger
	Recorder recorder.Recorder
	Notifier Notifier // nil disables announcements
	Ctx      context.Context
	Now      func() time.Time

	wg sync.WaitGroup
}

// New creates an Engine. ctx bounds the background fan-out.
func New(ctx context.Context, l *ledger.Ledger, rec recorder.Recorder, n Notifier) *Engine {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Engine{Ledger: l, Recorder: rec, Notifier: n, Ctx: ctx, Now: time.Now}
}

// Wait blocks until every pending fan-out has finished.
func (e *Engine) Wait() { e.wg.Wait() }

func (e *Engine) meta(slot uint64) model.TxMeta {
	return model.TxMeta{ID: uuid.New(), Slot: slot, At: e.Now().UTC()}
}

// InitializeState bootstraps the game, paid for by payer.
func (e *Engine) InitializeState(ctx context.Context, payer, authority, feeAccount model.Identity) (*SettingsReceipt, error) {
	if err := e.Ledger.CheckSigner(payer); err != nil {
		return nil, err
	}
	var rcpt SettingsReceipt
	err := e.Ledger.Execute(ctx, func(tx game.Tx) error {
		settings, err := game.Initialize(tx, payer, authority, feeAccount)
		if err != nil {
			return err
		}
		rcpt = SettingsReceipt{Tx: e.meta(tx.Slot()), Event: model.NewSettingsUpdated(settings)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] game initialized: authority=%s fee_account=%s tx=%s", authority, feeAccount, rcpt.Tx.ID)
	e.publish(func() error { return e.Recorder.RecordSettings(rcpt.Tx, &rcpt.Event) }, "")
	return &rcpt, nil
}

// Bid places a bid for bidder. Non-empty vaults are checked against the
// derived vault addresses before anything runs.
func (e *Engine) Bid(ctx context.Context, bidder, feeAccount model.Identity, vaults model.Vaults) (*BidReceipt, error) {
	if err := e.Ledger.CheckVaults(vaults); err != nil {
		return nil, err
	}
	if err := e.Ledger.CheckSigner(bidder); err != nil {
		return nil, err
	}
	var rcpt BidReceipt
	err := e.Ledger.Execute(ctx, func(tx game.Tx) error {
		evt, err := game.PlaceBid(tx, bidder, feeAccount)
		if err != nil {
			return err
		}
		rcpt = BidReceipt{Tx: e.meta(tx.Slot()), Event: *evt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] bid placed: bidder=%s value=%d final_slot=%d pot=%d",
		bidder, rcpt.Event.BidValue, rcpt.Event.FinalSlot, rcpt.Event.PotBalance)
	e.publish(func() error { return e.Recorder.RecordBid(rcpt.Tx, &rcpt.Event) },
		notifier.FormatBidPlaced(rcpt.Tx, &rcpt.Event))
	return &rcpt, nil
}

// UpdateSettings applies a settings patch signed by caller.
func (e *Engine) UpdateSettings(ctx context.Context, caller model.Identity, patch model.SettingsPatch) (*SettingsReceipt, error) {
	var rcpt SettingsReceipt
	err := e.Ledger.Execute(ctx, func(tx game.Tx) error {
		evt, err := game.ApplyUpdate(tx, caller, patch)
		if err != nil {
			return err
		}
		rcpt = SettingsReceipt{Tx: e.meta(tx.Slot()), Event: *evt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] settings updated by %s: slots_to_win=%d shares=%d/%d/%d bid_value=%d",
		caller, rcpt.Event.SlotsToWin, rcpt.Event.FeeBps, rcpt.Event.PotBps, rcpt.Event.NextBps, rcpt.Event.BidValue)
	e.publish(func() error { return e.Recorder.RecordSettings(rcpt.Tx, &rcpt.Event) },
		notifier.FormatSettingsUpdated(rcpt.Tx, &rcpt.Event))
	return &rcpt, nil
}

// Endgame resolves the expired round in favour of winner.
func (e *Engine) Endgame(ctx context.Context, winner model.Identity, vaults model.Vaults) (*GameReceipt, error) {
	if err := e.Ledger.CheckVaults(vaults); err != nil {
		return nil, err
	}
	var rcpt GameReceipt
	err := e.Ledger.Execute(ctx, func(tx game.Tx) error {
		evt, err := game.Resolve(tx, winner)
		if err != nil {
			return err
		}
		rcpt = GameReceipt{Tx: e.meta(tx.Slot()), Event: *evt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[INFO] round resolved: winner=%s prize=%d pot_after=%d",
		winner, rcpt.Event.Prize, rcpt.Event.PotBalanceAfter)
	e.publish(func() error { return e.Recorder.RecordGameEnded(rcpt.Tx, &rcpt.Event) },
		notifier.FormatGameEnded(rcpt.Tx, &rcpt.Event))
	return &rcpt, nil
}

// SettleExpired resolves the current round if it has expired. It returns
// nil when there is nothing to settle.
func (e *Engine) SettleExpired(ctx context.Context) (*GameReceipt, error) {
	snap, err := e.Snapshot()
	if err != nil {
		return nil, err
	}
	leader, ok := snap.State.LastBidder.Get()
	if !ok || snap.Phase != game.PhaseExpired.String() {
		return nil, nil
	}
	return e.Endgame(ctx, leader, model.Vaults{})
}

// Snapshot reads state, settings and treasury in one consistent view.
func (e *Engine) Snapshot() (*model.Snapshot, error) {
	var snap model.Snapshot
	err := e.Ledger.View(func(tx game.Tx) error {
		state, err := tx.GameState()
		if err != nil {
			return err
		}
		settings, err := tx.Settings()
		if err != nil {
			return err
		}
		now := tx.Slot()
		snap = model.Snapshot{
			Slot:     now,
			Phase:    game.PhaseAt(state, now).String(),
			State:    state,
			Settings: settings,
			Treasury: game.ReadTreasury(tx),
			Vaults:   tx.Vaults(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Airdrop funds id from the faucet.
func (e *Engine) Airdrop(ctx context.Context, id model.Identity, amount uint64) error {
	if err := e.Ledger.Airdrop(ctx, id, amount); err != nil {
		return err
	}
	log.Printf("[INFO] airdrop: %s +%d", id, amount)
	return nil
}

// Balance returns the committed balance of id.
func (e *Engine) Balance(id model.Identity) uint64 { return e.Ledger.Balance(id) }

// publish records and announces a committed event in the background.
// Failures are logged and never surface to the caller.
func (e *Engine) publish(record func() error, announcement string) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := record(); err != nil {
			log.Printf("[ERROR] record event: %v", err)
		}
		if announcement == "" || e.Notifier == nil {
			return
		}
		if err := e.Notifier.SendWithRetry(e.Ctx, announcement, 3); err != nil {
			log.Printf("[ERROR] send notification: %v", err)
		}
	}()
}
