package game

import (
	"strconv"
	"testing"

	"KingOfTheBlock/internal/model"
)

const (
	testPot     model.Identity = "vault-pot"
	testNextPot model.Identity = "vault-next-pot"
	testReserve uint64         = 1_000_000
)

// fakeTx is an in-memory Tx. It applies writes directly, so tests can check
// that failed operations wrote nothing.
type fakeTx struct {
	slot     uint64
	balances map[model.Identity]uint64
	state    *model.GameState
	settings *model.GameSettings
	writes   int
}

func newFakeTx() *fakeTx {
	return &fakeTx{balances: make(map[model.Identity]uint64)}
}

// newGame returns a fakeTx initialized with default settings.
func newGame(t *testing.T) *fakeTx {
	t.Helper()
	tx := newFakeTx()
	tx.balances["payer"] = 10 * UnitsPerCoin
	if _, err := Initialize(tx, "payer", "authority", "fees"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	tx.writes = 0
	return tx
}

func (f *fakeTx) Slot() uint64         { return f.slot }
func (f *fakeTx) MinReserve() uint64   { return testReserve }
func (f *fakeTx) Vaults() model.Vaults { return model.Vaults{Pot: testPot, NextPot: testNextPot} }

func (f *fakeTx) GameState() (model.GameState, error) {
	if f.state == nil {
		return model.GameState{}, ErrNotInitialized
	}
	return *f.state, nil
}

func (f *fakeTx) Settings() (model.GameSettings, error) {
	if f.settings == nil {
		return model.GameSettings{}, ErrNotInitialized
	}
	return *f.settings, nil
}

func (f *fakeTx) SetGameState(s model.GameState) {
	f.writes++
	f.state = &s
}

func (f *fakeTx) SetSettings(s model.GameSettings) {
	f.writes++
	f.settings = &s
}

func (f *fakeTx) CreateRecords(state model.GameState, settings model.GameSettings) error {
	if f.state != nil || f.settings != nil {
		return ErrAlreadyInitialized
	}
	f.writes++
	f.state = &state
	f.settings = &settings
	return nil
}

func (f *fakeTx) Balance(id model.Identity) uint64 { return f.balances[id] }

func (f *fakeTx) Transfer(from, to model.Identity, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if f.balances[from] < amount {
		return WithMetadata(ErrInsufficientFunds, map[string]string{
			"account": from.String(),
			"needed":  strconv.FormatUint(amount, 10),
		})
	}
	f.writes++
	f.balances[from] -= amount
	f.balances[to] += amount
	return nil
}
