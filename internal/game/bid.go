package game

import (
	"strconv"

	"KingOfTheBlock/internal/model"
)

// PlaceBid charges bidder the current price, splits it between the fee
// account and the two vaults, and makes bidder the round leader.
func PlaceBid(tx Tx, bidder, feeAccount model.Identity) (*model.BidPlaced, error) {
	settings, err := tx.Settings()
	if err != nil {
		return nil, err
	}
	state, err := tx.GameState()
	if err != nil {
		return nil, err
	}

	if err := requireSigner(tx, bidder); err != nil {
		return nil, err
	}
	if feeAccount != settings.FeeAccount {
		return nil, ErrWrongFeeAccount
	}
	now := tx.Slot()
	if PhaseAt(state, now) == PhaseExpired {
		return nil, ErrBidIsOver
	}

	price := BidPrice(state, settings)
	finalSlot, err := extendDeadline(state.FinalSlot, now, settings.SlotsToWin)
	if err != nil {
		return nil, err
	}
	if have := tx.Balance(bidder); have < price {
		return nil, WithMetadata(ErrInsufficientFunds, map[string]string{
			"account": bidder.String(),
			"balance": strconv.FormatUint(have, 10),
			"needed":  strconv.FormatUint(price, 10),
		})
	}

	feeAmt, potAmt, nextAmt := Split(price, settings.FeeBps, settings.PotBps, settings.NextBps)
	vaults := tx.Vaults()
	if err := tx.Transfer(bidder, settings.FeeAccount, feeAmt); err != nil {
		return nil, err
	}
	if err := tx.Transfer(bidder, vaults.Pot, potAmt); err != nil {
		return nil, err
	}
	if err := tx.Transfer(bidder, vaults.NextPot, nextAmt); err != nil {
		return nil, err
	}

	after := ReadTreasury(tx)
	state.LastBidder = model.Some(bidder)
	state.FinalSlot = finalSlot
	state.BidValue = DeriveNextPrice(settings, after.PotBalance)
	tx.SetGameState(state)

	return &model.BidPlaced{
		Bidder:         bidder,
		BidValue:       price,
		FinalSlot:      finalSlot,
		PotBalance:     after.PotBalance,
		NextPotBalance: after.NextPotBalance,
	}, nil
}

// extendDeadline returns now+slotsToWin, bumped past prev so that every
// accepted bid moves the deadline forward even when two bids share a slot or
// slots_to_win was lowered mid-round.
func extendDeadline(prev, now, slotsToWin uint64) (uint64, error) {
	next := now + slotsToWin
	if next < now {
		return 0, ErrMathOverflow
	}
	if next <= prev {
		if prev == ^uint64(0) {
			return 0, ErrMathOverflow
		}
		next = prev + 1
	}
	return next, nil
}
