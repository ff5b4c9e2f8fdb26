package game

import (
	"strconv"

	"KingOfTheBlock/internal/model"
)

const (
	DefaultSlotsToWin      uint64 = 150
	DefaultBidValueRateBps uint16 = 100
	DefaultFeeBps          uint16 = 1_000
	DefaultPotBps          uint16 = 5_000
	DefaultNextBps         uint16 = 4_000
)

// DefaultSettings returns the settings a fresh game starts with.
func DefaultSettings(authority, feeAccount model.Identity, minReserve uint64) model.GameSettings {
	return model.GameSettings{
		Authority:       authority,
		FeeAccount:      feeAccount,
		SlotsToWin:      DefaultSlotsToWin,
		BidValueRateBps: DefaultBidValueRateBps,
		FeeBps:          DefaultFeeBps,
		PotBps:          DefaultPotBps,
		NextBps:         DefaultNextBps,
		BidValue:        0,
		MinReserve:      minReserve,
	}
}

// ValidatePatch range-checks every present field of a patch.
func ValidatePatch(p model.SettingsPatch) error {
	if p.Authority != nil && *p.Authority == "" {
		return invalidField("authority", "")
	}
	if p.FeeAccount != nil && *p.FeeAccount == "" {
		return invalidField("fee_account", "")
	}
	if p.SlotsToWin != nil && *p.SlotsToWin == 0 {
		return invalidField("slots_to_win", "0")
	}
	if p.BidValueRateBps != nil {
		if v := uint64(*p.BidValueRateBps); v == 0 || v > BpsDenom {
			return invalidField("bid_value_rate_bps", strconv.FormatUint(v, 10))
		}
	}
	shares := []struct {
		name string
		v    *uint16
	}{{"fee_bps", p.FeeBps}, {"pot_bps", p.PotBps}, {"next_bps", p.NextBps}}
	for _, s := range shares {
		if s.v != nil && uint64(*s.v) > BpsDenom {
			return invalidField(s.name, strconv.FormatUint(uint64(*s.v), 10))
		}
	}
	return nil
}

// MergePatch copies the present fields of p onto current.
func MergePatch(current model.GameSettings, p model.SettingsPatch) model.GameSettings {
	merged := current
	if p.Authority != nil {
		merged.Authority = *p.Authority
	}
	if p.FeeAccount != nil {
		merged.FeeAccount = *p.FeeAccount
	}
	if p.SlotsToWin != nil {
		merged.SlotsToWin = *p.SlotsToWin
	}
	if p.BidValueRateBps != nil {
		merged.BidValueRateBps = *p.BidValueRateBps
	}
	if p.FeeBps != nil {
		merged.FeeBps = *p.FeeBps
	}
	if p.PotBps != nil {
		merged.PotBps = *p.PotBps
	}
	if p.NextBps != nil {
		merged.NextBps = *p.NextBps
	}
	if p.BidValue != nil {
		merged.BidValue = *p.BidValue
	}
	return merged
}

// CheckPercentages verifies the three shares add up to 100%.
func CheckPercentages(s model.GameSettings) error {
	total := uint64(s.FeeBps) + uint64(s.PotBps) + uint64(s.NextBps)
	if total != BpsDenom {
		return WithMetadata(ErrInvalidPercentages, map[string]string{
			"total": strconv.FormatUint(total, 10),
		})
	}
	return nil
}

// Update computes the settings that result from caller applying p to
// current. The cross-field check runs on the merged record.
func Update(current model.GameSettings, caller model.Identity, p model.SettingsPatch) (model.GameSettings, error) {
	if caller != current.Authority {
		return current, ErrUnauthorized
	}
	if err := ValidatePatch(p); err != nil {
		return current, err
	}
	merged := MergePatch(current, p)
	if err := CheckPercentages(merged); err != nil {
		return current, err
	}
	return merged, nil
}

// ApplyUpdate commits a settings patch and returns the resulting event.
func ApplyUpdate(tx Tx, caller model.Identity, p model.SettingsPatch) (*model.SettingsUpdated, error) {
	current, err := tx.Settings()
	if err != nil {
		return nil, err
	}
	next, err := Update(current, caller, p)
	if err != nil {
		return nil, err
	}
	tx.SetSettings(next)
	evt := model.NewSettingsUpdated(next)
	return &evt, nil
}

func invalidField(field, value string) error {
	return WithMetadata(ErrInvalidValue, map[string]string{"field": field, "value": value})
}
