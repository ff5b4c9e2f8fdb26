package game

import (
	"strconv"

	"KingOfTheBlock/internal/model"
)

// Initialize creates the game records with defaults and tops both vaults up
// to the minimum reserve out of payer's funds. It succeeds once.
func Initialize(tx Tx, payer, authority, feeAccount model.Identity) (model.GameSettings, error) {
	if _, err := tx.GameState(); err == nil {
		return model.GameSettings{}, ErrAlreadyInitialized
	}

	if err := requireSigner(tx, payer); err != nil {
		return model.GameSettings{}, err
	}
	if authority == "" {
		return model.GameSettings{}, invalidField("authority", "")
	}
	if feeAccount == "" {
		return model.GameSettings{}, invalidField("fee_account", "")
	}

	minReserve := tx.MinReserve()
	vaults := tx.Vaults()
	potMissing := aboveReserve(minReserve, tx.Balance(vaults.Pot))
	nextMissing := aboveReserve(minReserve, tx.Balance(vaults.NextPot))
	if have, need := tx.Balance(payer), potMissing+nextMissing; have < need {
		return model.GameSettings{}, WithMetadata(ErrInsufficientFunds, map[string]string{
			"account": payer.String(),
			"balance": strconv.FormatUint(have, 10),
			"needed":  strconv.FormatUint(need, 10),
		})
	}

	state := model.GameState{
		LastBidder: model.None(),
		FinalSlot:  0,
		LastWinner: model.None(),
		BidValue:   MinPriceFloor,
	}
	settings := DefaultSettings(authority, feeAccount, minReserve)
	if err := tx.CreateRecords(state, settings); err != nil {
		return model.GameSettings{}, err
	}

	if err := tx.Transfer(payer, vaults.Pot, potMissing); err != nil {
		return model.GameSettings{}, err
	}
	if err := tx.Transfer(payer, vaults.NextPot, nextMissing); err != nil {
		return model.GameSettings{}, err
	}
	return settings, nil
}
