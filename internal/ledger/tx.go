package ledger

import (
	"encoding/json"
	"fmt"

	"KingOfTheBlock/internal/game"
	"KingOfTheBlock/internal/model"
)

// Tx is one transaction's working copy of the ledger state.
type Tx struct {
	state      *State
	slot       uint64
	addrs      Addresses
	minReserve uint64
	dirty      bool
}

var _ game.Tx = (*Tx)(nil)

func (t *Tx) Slot() uint64         { return t.slot }
func (t *Tx) MinReserve() uint64   { return t.minReserve }
func (t *Tx) Vaults() model.Vaults { return t.addrs.Vaults() }

func (t *Tx) GameState() (model.GameState, error) {
	var s model.GameState
	err := t.load(t.addrs.GameState, &s)
	return s, err
}

func (t *Tx) Settings() (model.GameSettings, error) {
	var s model.GameSettings
	err := t.load(t.addrs.Settings, &s)
	return s, err
}

func (t *Tx) SetGameState(s model.GameState) { t.store(t.addrs.GameState, s) }

func (t *Tx) SetSettings(s model.GameSettings) { t.store(t.addrs.Settings, s) }

// CreateRecords is create-if-absent: it fails when either record exists.
func (t *Tx) CreateRecords(state model.GameState, settings model.GameSettings) error {
	_, hasState := t.state.Records[t.addrs.GameState]
	_, hasSettings := t.state.Records[t.addrs.Settings]
	if hasState || hasSettings {
		return game.ErrAlreadyInitialized
	}
	t.store(t.addrs.GameState, state)
	t.store(t.addrs.Settings, settings)
	return nil
}

func (t *Tx) Balance(id model.Identity) uint64 { return t.state.Balances[id] }

func (t *Tx) Transfer(from, to model.Identity, amount uint64) error {
	if amount == 0 {
		return nil
	}
	have := t.state.Balances[from]
	if have < amount {
		return insufficient(from, have, amount)
	}
	if from == to {
		return nil
	}
	if t.state.Balances[to]+amount < amount {
		return game.ErrMathOverflow
	}
	t.state.Balances[from] = have - amount
	t.state.Balances[to] += amount
	t.dirty = true
	return nil
}

func (t *Tx) credit(id model.Identity, amount uint64) error {
	if t.state.Balances[id]+amount < amount {
		return game.ErrMathOverflow
	}
	t.state.Balances[id] += amount
	t.dirty = true
	return nil
}

func (t *Tx) load(addr model.Identity, v any) error {
	raw, ok := t.state.Records[addr]
	if !ok {
		return game.ErrNotInitialized
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode record %s: %w", addr, err)
	}
	return nil
}

func (t *Tx) store(addr model.Identity, v any) {
	data, _ := json.Marshal(v)
	t.state.Records[addr] = data
	t.dirty = true
}
