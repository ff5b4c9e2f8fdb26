package recorder

import (
	"time"

	"KingOfTheBlock/internal/model"
)

// BidRecord is a stored BidPlaced event.
type BidRecord struct {
	Meta model.TxMeta    `json:"meta"`
	Bid  model.BidPlaced `json:"bid"`
}

// GameRecord is a stored GameEnded event.
type GameRecord struct {
	Meta model.TxMeta    `json:"meta"`
	Game model.GameEnded `json:"game"`
}

// SettingsRecord is a stored SettingsUpdated event.
type SettingsRecord struct {
	Meta     model.TxMeta          `json:"meta"`
	Settings model.SettingsUpdated `json:"settings"`
}

// TreasurySnapshot is a periodic reading of the vaults taken by the keeper.
type TreasurySnapshot struct {
	At             time.Time `json:"at"`
	Slot           uint64    `json:"slot"`
	Phase          string    `json:"phase"`
	PotBalance     uint64    `json:"pot_balance"`
	NextPotBalance uint64    `json:"next_pot_balance"`
	BidValue       uint64    `json:"bid_value"`
}

// Recorder persists the event history for analysis.
type Recorder interface {
	RecordBid(meta model.TxMeta, evt *model.BidPlaced) error
	RecordGameEnded(meta model.TxMeta, evt *model.GameEnded) error
	RecordSettings(meta model.TxMeta, evt *model.SettingsUpdated) error
	RecordTreasury(snap *TreasurySnapshot) error
	RecentBids(limit int) ([]BidRecord, error)
	RecentGames(limit int) ([]GameRecord, error)
	RecentSettings(limit int) ([]SettingsRecord, error)
	RecentTreasury(limit int) ([]TreasurySnapshot, error)
	Close() error
}
