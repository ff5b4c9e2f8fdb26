package ledger

import (
	"github.com/google/uuid"

	"KingOfTheBlock/internal/model"
)

// Seeds the long-lived records are derived from.
const (
	GameStateSeed = "game_state"
	SettingsSeed  = "settings"
	PotSeed       = "pot"
	NextPotSeed   = "next_pot"
)

// Addresses are the seed-derived identifiers of the game's records.
type Addresses struct {
	GameState model.Identity `json:"game_state"`
	Settings  model.Identity `json:"settings"`
	Pot       model.Identity `json:"pot"`
	NextPot   model.Identity `json:"next_pot"`
}

// DeriveAddress returns the deterministic address of seed under programID.
// The same inputs always give the same address.
func DeriveAddress(programID, seed string) model.Identity {
	ns := uuid.NewSHA1(uuid.NameSpaceURL, []byte("kotb:"+programID))
	return model.Identity(uuid.NewSHA1(ns, []byte(seed)).String())
}

// DeriveAddresses derives every record address for programID.
func DeriveAddresses(programID string) Addresses {
	return Addresses{
		GameState: DeriveAddress(programID, GameStateSeed),
		Settings:  DeriveAddress(programID, SettingsSeed),
		Pot:       DeriveAddress(programID, PotSeed),
		NextPot:   DeriveAddress(programID, NextPotSeed),
	}
}

// Vaults returns the two escrow addresses.
func (a Addresses) Vaults() model.Vaults {
	return model.Vaults{Pot: a.Pot, NextPot: a.NextPot}
}

// Owns reports whether id is one of the program's derived addresses.
func (a Addresses) Owns(id model.Identity) bool {
	return id == a.GameState || id == a.Settings || id == a.Pot || id == a.NextPot
}
