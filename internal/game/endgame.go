package game

import "KingOfTheBlock/internal/model"

// Resolve ends an expired round: the leader receives everything in the pot
// above the reserve, and the next pot is rolled into the pot.
func Resolve(tx Tx, claimedWinner model.Identity) (*model.GameEnded, error) {
	settings, err := tx.Settings()
	if err != nil {
		return nil, err
	}
	state, err := tx.GameState()
	if err != nil {
		return nil, err
	}

	now := tx.Slot()
	if PhaseAt(state, now) != PhaseExpired {
		return nil, ErrGameInProgress
	}
	if !state.LastBidder.Is(claimedWinner) {
		return nil, ErrWrongWinner
	}

	vaults := tx.Vaults()
	before := ReadTreasury(tx)
	prize := aboveReserve(before.PotBalance, settings.MinReserve)
	rollover := aboveReserve(before.NextPotBalance, settings.MinReserve)

	if err := tx.Transfer(vaults.Pot, claimedWinner, prize); err != nil {
		return nil, err
	}
	if err := tx.Transfer(vaults.NextPot, vaults.Pot, rollover); err != nil {
		return nil, err
	}

	after := ReadTreasury(tx)
	tx.SetGameState(model.GameState{
		LastBidder: model.None(),
		FinalSlot:  0,
		LastWinner: model.Some(claimedWinner),
		BidValue:   DeriveNextPrice(settings, after.PotBalance),
	})

	return &model.GameEnded{
		Winner:              claimedWinner,
		Prize:               prize,
		PotBalanceAfter:     after.PotBalance,
		NextPotBalanceAfter: after.NextPotBalance,
		Slot:                now,
	}, nil
}

func aboveReserve(balance, reserve uint64) uint64 {
	if balance <= reserve {
		return 0
	}
	return balance - reserve
}
