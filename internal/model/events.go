package model

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names an observation event.
type EventKind string

const (
	KindBidPlaced       EventKind = "BID_PLACED"
	KindGameEnded       EventKind = "GAME_ENDED"
	KindSettingsUpdated EventKind = "SETTINGS_UPDATED"
)

// TxMeta identifies the committed transaction an event came from.
type TxMeta struct {
	ID   uuid.UUID `json:"tx_id"`
	Slot uint64    `json:"slot"`
	At   time.Time `json:"at"`
}

// BidPlaced is emitted for every accepted bid.
type BidPlaced struct {
	Bidder         Identity `json:"bidder"`
	BidValue       uint64   `json:"bid_value"`
	FinalSlot      uint64   `json:"final_slot"`
	PotBalance     uint64   `json:"pot_balance"`
	NextPotBalance uint64   `json:"next_pot_balance"`
}

// GameEnded is emitted when a round is resolved.
type GameEnded struct {
	Winner              Identity `json:"winner"`
	Prize               uint64   `json:"prize"`
	PotBalanceAfter     uint64   `json:"pot_balance_after"`
	NextPotBalanceAfter uint64   `json:"next_pot_balance_after"`
	Slot                uint64   `json:"slot"`
}

// SettingsUpdated carries the full settings record after an update.
type SettingsUpdated struct {
	Authority       Identity `json:"authority"`
	FeeAccount      Identity `json:"fee_account"`
	SlotsToWin      uint64   `json:"slots_to_win"`
	BidValueRateBps uint16   `json:"bid_value_rate_bps"`
	FeeBps          uint16   `json:"fee_bps"`
	PotBps          uint16   `json:"pot_bps"`
	NextBps         uint16   `json:"next_bps"`
	BidValue        uint64   `json:"bid_value"`
	MinReserve      uint64   `json:"min_reserve"`
}

func (BidPlaced) Kind() EventKind       { return KindBidPlaced }
func (GameEnded) Kind() EventKind       { return KindGameEnded }
func (SettingsUpdated) Kind() EventKind { return KindSettingsUpdated }

// NewSettingsUpdated builds the event from a settings record.
func NewSettingsUpdated(s GameSettings) SettingsUpdated {
	return SettingsUpdated{
		Authority:       s.Authority,
		FeeAccount:      s.FeeAccount,
		SlotsToWin:      s.SlotsToWin,
		BidValueRateBps: s.BidValueRateBps,
		FeeBps:          s.FeeBps,
		PotBps:          s.PotBps,
		NextBps:         s.NextBps,
		BidValue:        s.BidValue,
		MinReserve:      s.MinReserve,
	}
}
