// Package game holds the bid, endgame, settings and bootstrap logic.
//
// Every operation runs against a Tx supplied by the ledger. The ledger
// guarantees that one Tx sees committed state only and that its writes land
// all together or not at all. Operations still validate every precondition
// before the first write.
package game

import "KingOfTheBlock/internal/model"

// Tx is the view of the ledger a single operation runs against.
type Tx interface {
	// Slot is the current value of the monotonic time counter.
	Slot() uint64
	// MinReserve is the smallest balance a vault account may hold.
	MinReserve() uint64
	// Vaults returns the seed-derived Pot and NextPot addresses.
	Vaults() model.Vaults

	GameState() (model.GameState, error)
	Settings() (model.GameSettings, error)
	SetGameState(s model.GameState)
	SetSettings(s model.GameSettings)
	// CreateRecords stores both records if neither exists, else fails with
	// ErrAlreadyInitialized.
	CreateRecords(state model.GameState, settings model.GameSettings) error

	Balance(id model.Identity) uint64
	// Transfer moves amount from one account to another, failing with
	// ErrInsufficientFunds when from cannot pay.
	Transfer(from, to model.Identity, amount uint64) error
}

// ReadTreasury loads the two vault balances.
func ReadTreasury(tx Tx) model.Treasury {
	v := tx.Vaults()
	return model.Treasury{
		PotBalance:     tx.Balance(v.Pot),
		NextPotBalance: tx.Balance(v.NextPot),
	}
}

// requireSigner rejects identities that cannot sign: the vaults are held by
// the program and only move funds through game operations.
func requireSigner(tx Tx, id model.Identity) error {
	v := tx.Vaults()
	if id == v.Pot || id == v.NextPot {
		return WithMetadata(ErrUnauthorized, map[string]string{
			"account": id.String(),
			"reason":  "vault accounts cannot sign",
		})
	}
	return nil
}
