package model

// GameState is the mutable round record.
type GameState struct {
	LastBidder OptionalIdentity `json:"last_bidder"`
	FinalSlot  uint64           `json:"final_slot"` // 0 means no active round
	LastWinner OptionalIdentity `json:"last_winner"`
	BidValue   uint64           `json:"bid_value"` // price of the next bid
}

// GameSettings is the governance record.
type GameSettings struct {
	Authority       Identity `json:"authority"`
	FeeAccount      Identity `json:"fee_account"`
	SlotsToWin      uint64   `json:"slots_to_win"`
	BidValueRateBps uint16   `json:"bid_value_rate_bps"`
	FeeBps          uint16   `json:"fee_bps"`
	PotBps          uint16   `json:"pot_bps"`
	NextBps         uint16   `json:"next_bps"`
	BidValue        uint64   `json:"bid_value"` // 0 selects dynamic pricing
	MinReserve      uint64   `json:"min_reserve"`
}

// SettingsPatch carries a partial settings update. Nil fields keep their
// current value.
type SettingsPatch struct {
	Authority       *Identity `json:"authority,omitempty"`
	FeeAccount      *Identity `json:"fee_account,omitempty"`
	SlotsToWin      *uint64   `json:"slots_to_win,omitempty"`
	BidValueRateBps *uint16   `json:"bid_value_rate_bps,omitempty"`
	FeeBps          *uint16   `json:"fee_bps,omitempty"`
	PotBps          *uint16   `json:"pot_bps,omitempty"`
	NextBps         *uint16   `json:"next_bps,omitempty"`
	BidValue        *uint64   `json:"bid_value,omitempty"`
}

// Treasury holds the two vault balances.
type Treasury struct {
	PotBalance     uint64 `json:"pot_balance"`
	NextPotBalance uint64 `json:"next_pot_balance"`
}

// Vaults names the two escrow accounts.
type Vaults struct {
	Pot     Identity `json:"pot"`
	NextPot Identity `json:"next_pot"`
}

// Snapshot is a consistent read of the whole game at one slot.
type Snapshot struct {
	Slot     uint64       `json:"slot"`
	Phase    string       `json:"phase"`
	State    GameState    `json:"state"`
	Settings GameSettings `json:"settings"`
	Treasury Treasury     `json:"treasury"`
	Vaults   Vaults       `json:"vaults"`
}
