package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"KingOfTheBlock/internal/model"
)

// State is everything the ledger persists.
type State struct {
	Balances  map[model.Identity]uint64          `json:"balances"`
	Records   map[model.Identity]json.RawMessage `json:"records"`
	LastSlot  uint64                             `json:"last_slot"`
	TxCount   uint64                             `json:"tx_count"`
	UpdatedAt time.Time                          `json:"updated_at"`
}

func newState() *State {
	return &State{
		Balances: make(map[model.Identity]uint64),
		Records:  make(map[model.Identity]json.RawMessage),
	}
}

// clone copies the maps so a transaction can write without touching the
// committed state. Record payloads are replaced, never mutated, so sharing
// the byte slices is safe.
func (s *State) clone() *State {
	c := &State{
		Balances:  make(map[model.Identity]uint64, len(s.Balances)),
		Records:   make(map[model.Identity]json.RawMessage, len(s.Records)),
		LastSlot:  s.LastSlot,
		TxCount:   s.TxCount,
		UpdatedAt: s.UpdatedAt,
	}
	for k, v := range s.Balances {
		c.Balances[k] = v
	}
	for k, v := range s.Records {
		c.Records[k] = v
	}
	return c
}

// LoadState reads the ledger state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return newState(), nil
		}
		return nil, err
	}
	state := newState()
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.Balances == nil {
		state.Balances = make(map[model.Identity]uint64)
	}
	if state.Records == nil {
		state.Records = make(map[model.Identity]json.RawMessage)
	}
	return state, nil
}

// SaveState writes the ledger state to a JSON file through a temp file and
// rename, so a crash never leaves a half-written file behind.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
