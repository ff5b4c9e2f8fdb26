package engine

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KingOfTheBlock/internal/game"
	"KingOfTheBlock/internal/ledger"
	"KingOfTheBlock/internal/model"
	"KingOfTheBlock/internal/recorder"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type harness struct {
	eng   *Engine
	clock *ledger.ManualClock
	rec   *recorder.SQLiteRecorder
	note  *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	clock := ledger.NewManualClock(10)
	l, err := ledger.Open(ledger.Options{ProgramID: "kotb-test", Clock: clock})
	require.NoError(t, err)
	rec, err := recorder.NewSQLiteRecorder(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })

	note := &fakeNotifier{}
	eng := New(context.Background(), l, rec, note)
	t.Cleanup(eng.Wait)

	ctx := context.Background()
	require.NoError(t, eng.Airdrop(ctx, "payer", 10*game.UnitsPerCoin))
	require.NoError(t, eng.Airdrop(ctx, "alice", game.UnitsPerCoin))
	require.NoError(t, eng.Airdrop(ctx, "bob", game.UnitsPerCoin))
	return &harness{eng: eng, clock: clock, rec: rec, note: note}
}

func (h *harness) bootstrap(t *testing.T) {
	t.Helper()
	_, err := h.eng.InitializeState(context.Background(), "payer", "auth", "fees")
	require.NoError(t, err)
}

func TestFullRound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.bootstrap(t)

	first, err := h.eng.Bid(ctx, "alice", "fees", model.Vaults{})
	require.NoError(t, err)
	assert.Equal(t, game.MinPriceFloor, first.Event.BidValue)
	assert.Equal(t, uint64(160), first.Event.FinalSlot)
	assert.Equal(t, uint64(6_000_000), first.Event.PotBalance)
	assert.Equal(t, uint64(10), first.Tx.Slot)

	h.clock.Set(20)
	second, err := h.eng.Bid(ctx, "bob", "fees", h.eng.Ledger.Addresses().Vaults())
	require.NoError(t, err)
	assert.Equal(t, uint64(170), second.Event.FinalSlot)
	assert.Equal(t, uint64(11_000_000), second.Event.PotBalance)
	assert.Equal(t, uint64(9_000_000), second.Event.NextPotBalance)

	h.clock.Set(170)
	_, err = h.eng.Bid(ctx, "alice", "fees", model.Vaults{})
	require.ErrorIs(t, err, game.ErrBidIsOver)

	ended, err := h.eng.SettleExpired(ctx)
	require.NoError(t, err)
	require.NotNil(t, ended)
	assert.Equal(t, model.Identity("bob"), ended.Event.Winner)
	assert.Equal(t, uint64(10_000_000), ended.Event.Prize)
	assert.Equal(t, uint64(9_000_000), ended.Event.PotBalanceAfter)
	assert.Equal(t, uint64(1_000_000), ended.Event.NextPotBalanceAfter)

	assert.Equal(t, game.UnitsPerCoin, h.eng.Balance("bob"))
	assert.Equal(t, uint64(2_000_000), h.eng.Balance("fees"))

	snap, err := h.eng.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, game.PhaseIdle.String(), snap.Phase)
	assert.True(t, snap.State.LastWinner.Is("bob"))
	assert.False(t, snap.State.LastBidder.IsSet())

	h.eng.Wait()
	bids, err := h.rec.RecentBids(10)
	require.NoError(t, err)
	assert.Len(t, bids, 2)
	games, err := h.rec.RecentGames(10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, ended.Tx.ID, games[0].Meta.ID)
	hist, err := h.rec.RecentSettings(10)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
	assert.Equal(t, 3, h.note.count())
}

func TestSettleExpiredNothingToDo(t *testing.T) {
	h := newHarness(t)
	h.bootstrap(t)
	ctx := context.Background()

	got, err := h.eng.SettleExpired(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = h.eng.Bid(ctx, "alice", "fees", model.Vaults{})
	require.NoError(t, err)
	got, err = h.eng.SettleExpired(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBidRejectsForeignVault(t *testing.T) {
	h := newHarness(t)
	h.bootstrap(t)

	_, err := h.eng.Bid(context.Background(), "alice", "fees", model.Vaults{Pot: "somewhere-else"})
	require.ErrorIs(t, err, game.ErrAccountMismatch)
	assert.Equal(t, game.UnitsPerCoin, h.eng.Balance("alice"))
}

func TestOperationsBeforeInitialize(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.eng.Bid(ctx, "alice", "fees", model.Vaults{})
	require.ErrorIs(t, err, game.ErrNotInitialized)
	_, err = h.eng.Snapshot()
	require.ErrorIs(t, err, game.ErrNotInitialized)
	_, err = h.eng.SettleExpired(ctx)
	require.ErrorIs(t, err, game.ErrNotInitialized)
}

func TestInitializeTwice(t *testing.T) {
	h := newHarness(t)
	h.bootstrap(t)
	_, err := h.eng.InitializeState(context.Background(), "payer", "auth", "fees")
	require.ErrorIs(t, err, game.ErrAlreadyInitialized)
}

func TestUpdateSettingsThroughEngine(t *testing.T) {
	h := newHarness(t)
	h.bootstrap(t)
	ctx := context.Background()
	slots := uint64(5)

	_, err := h.eng.UpdateSettings(ctx, "alice", model.SettingsPatch{SlotsToWin: &slots})
	require.ErrorIs(t, err, game.ErrUnauthorized)

	rcpt, err := h.eng.UpdateSettings(ctx, "auth", model.SettingsPatch{SlotsToWin: &slots})
	require.NoError(t, err)
	assert.Equal(t, slots, rcpt.Event.SlotsToWin)

	bid, err := h.eng.Bid(ctx, "alice", "fees", model.Vaults{})
	require.NoError(t, err)
	assert.Equal(t, uint64(15), bid.Event.FinalSlot)
}

func TestSideChannelFailureDoesNotFailOperation(t *testing.T) {
	h := newHarness(t)
	h.note.err = errors.New("telegram down")
	h.bootstrap(t)

	_, err := h.eng.Bid(context.Background(), "alice", "fees", model.Vaults{})
	require.NoError(t, err)
	h.eng.Wait()
	assert.Equal(t, 1, h.note.count())
}

func TestVaultBidCannotDrainPot(t *testing.T) {
	h := newHarness(t)
	h.bootstrap(t)
	ctx := context.Background()
	addrs := h.eng.Ledger.Addresses()
	u16 := func(v uint16) *uint16 { return &v }

	_, err := h.eng.UpdateSettings(ctx, "auth", model.SettingsPatch{
		FeeBps: u16(0), PotBps: u16(10_000), NextBps: u16(0),
	})
	require.NoError(t, err)
	_, err = h.eng.Bid(ctx, "alice", "fees", model.Vaults{})
	require.NoError(t, err)
	require.Equal(t, uint64(11_000_000), h.eng.Balance(addrs.Pot))

	price := uint64(11_000_000)
	_, err = h.eng.UpdateSettings(ctx, "auth", model.SettingsPatch{
		FeeBps: u16(10_000), PotBps: u16(0), NextBps: u16(0), BidValue: &price,
	})
	require.NoError(t, err)

	before, err := h.eng.Snapshot()
	require.NoError(t, err)
	fees := h.eng.Balance("fees")

	for _, id := range []model.Identity{addrs.Pot, addrs.NextPot, addrs.GameState, addrs.Settings} {
		_, err := h.eng.Bid(ctx, id, "fees", model.Vaults{})
		require.ErrorIs(t, err, game.ErrUnauthorized)
	}

	after, err := h.eng.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, before.State, after.State)
	assert.Equal(t, uint64(11_000_000), h.eng.Balance(addrs.Pot))
	assert.GreaterOrEqual(t, h.eng.Balance(addrs.NextPot), uint64(1_000_000))
	assert.Equal(t, fees, h.eng.Balance("fees"))
}

func TestInitializeRejectsProgramPayer(t *testing.T) {
	h := newHarness(t)
	addrs := h.eng.Ledger.Addresses()

	for _, id := range []model.Identity{addrs.Pot, addrs.NextPot, addrs.GameState, addrs.Settings} {
		_, err := h.eng.InitializeState(context.Background(), id, "auth", "fees")
		require.ErrorIs(t, err, game.ErrUnauthorized)
	}
	_, err := h.eng.Snapshot()
	require.ErrorIs(t, err, game.ErrNotInitialized)
	assert.Zero(t, h.eng.Balance(addrs.Pot))
}
