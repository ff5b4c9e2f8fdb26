package notifier

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"KingOfTheBlock/internal/model"
	"KingOfTheBlock/internal/recorder"
)

// coinDecimals is the number of base units per coin as a power of ten.
const coinDecimals = 9

// FormatCoins renders an amount of base units as whole coins.
func FormatCoins(units uint64) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(units), -coinDecimals)
	return d.String() + " SOL"
}

// FormatBps renders basis points as a percentage.
func FormatBps(bps uint16) string {
	return decimal.New(int64(bps), -2).String() + "%"
}

// FormatBidPlaced formats a new-leader announcement.
func FormatBidPlaced(meta model.TxMeta, evt *model.BidPlaced) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("👑 <b>New leader</b> | slot %d\n\n", meta.Slot))
	b.WriteString(fmt.Sprintf("Bidder: <code>%s</code>\n", evt.Bidder))
	b.WriteString(fmt.Sprintf("Paid: %s\n", FormatCoins(evt.BidValue)))
	b.WriteString(fmt.Sprintf("Round ends at slot %d\n", evt.FinalSlot))
	b.WriteString(fmt.Sprintf("Pot: %s | Next pot: %s\n", FormatCoins(evt.PotBalance), FormatCoins(evt.NextPotBalance)))
	return b.String()
}

// FormatGameEnded formats a round result.
func FormatGameEnded(meta model.TxMeta, evt *model.GameEnded) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏆 <b>Round over</b> | slot %d\n\n", evt.Slot))
	b.WriteString(fmt.Sprintf("Winner: <code>%s</code>\n", evt.Winner))
	b.WriteString(fmt.Sprintf("Prize: %s\n", FormatCoins(evt.Prize)))
	b.WriteString(fmt.Sprintf("New pot: %s | Next pot: %s\n", FormatCoins(evt.PotBalanceAfter), FormatCoins(evt.NextPotBalanceAfter)))
	b.WriteString(fmt.Sprintf("tx %s", meta.ID))
	return b.String()
}

// FormatSettingsUpdated formats a settings change.
func FormatSettingsUpdated(meta model.TxMeta, evt *model.SettingsUpdated) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("⚙️ <b>Settings updated</b> | slot %d\n\n", meta.Slot))
	b.WriteString(formatSettings(evt.FeeAccount, evt.SlotsToWin, evt.BidValueRateBps, evt.FeeBps, evt.PotBps, evt.NextBps, evt.BidValue))
	return b.String()
}

// FormatStatus formats the current round for the /state command.
func FormatStatus(snap *model.Snapshot) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎮 <b>King of the Block</b> | slot %d\n\n", snap.Slot))
	b.WriteString(fmt.Sprintf("Phase: %s\n", snap.Phase))
	if leader, ok := snap.State.LastBidder.Get(); ok {
		b.WriteString(fmt.Sprintf("Leader: <code>%s</code>\n", leader))
		if snap.State.FinalSlot > snap.Slot {
			b.WriteString(fmt.Sprintf("Ends at slot %d (%d left)\n", snap.State.FinalSlot, snap.State.FinalSlot-snap.Slot))
		} else {
			b.WriteString(fmt.Sprintf("Ended at slot %d, awaiting endgame\n", snap.State.FinalSlot))
		}
	} else {
		b.WriteString("No active round\n")
	}
	if winner, ok := snap.State.LastWinner.Get(); ok {
		b.WriteString(fmt.Sprintf("Last winner: <code>%s</code>\n", winner))
	}
	price := snap.State.BidValue
	if snap.Settings.BidValue != 0 {
		price = snap.Settings.BidValue
	}
	b.WriteString(fmt.Sprintf("Next bid: %s\n", FormatCoins(price)))
	b.WriteString(fmt.Sprintf("Pot: %s\n", FormatCoins(snap.Treasury.PotBalance)))
	return b.String()
}

// FormatTreasury formats the vault balances for the /treasury command.
func FormatTreasury(snap *model.Snapshot) string {
	var b strings.Builder
	b.WriteString("🏦 <b>Treasury</b>\n\n")
	b.WriteString(fmt.Sprintf("Pot: %s\n", FormatCoins(snap.Treasury.PotBalance)))
	b.WriteString(fmt.Sprintf("Next pot: %s\n", FormatCoins(snap.Treasury.NextPotBalance)))
	b.WriteString(fmt.Sprintf("Reserve per vault: %s\n", FormatCoins(snap.Settings.MinReserve)))
	return b.String()
}

// FormatSettings formats the governance record for the /settings command.
func FormatSettings(s *model.GameSettings) string {
	var b strings.Builder
	b.WriteString("⚙️ <b>Settings</b>\n\n")
	b.WriteString(fmt.Sprintf("Authority: <code>%s</code>\n", s.Authority))
	b.WriteString(formatSettings(s.FeeAccount, s.SlotsToWin, s.BidValueRateBps, s.FeeBps, s.PotBps, s.NextBps, s.BidValue))
	return b.String()
}

// FormatDailySummary formats the once-a-day digest.
func FormatDailySummary(snap *model.Snapshot, bids []recorder.BidRecord, games []recorder.GameRecord) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Daily summary</b> | %s\n\n", time.Now().Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Bids: %d\n", len(bids)))

	var volume, paid uint64
	for _, r := range bids {
		volume += r.Bid.BidValue
	}
	for _, g := range games {
		paid += g.Game.Prize
	}
	b.WriteString(fmt.Sprintf("Volume: %s\n", FormatCoins(volume)))
	b.WriteString(fmt.Sprintf("Rounds won: %d (%s paid out)\n", len(games), FormatCoins(paid)))
	b.WriteString(fmt.Sprintf("Pot now: %s\n", FormatCoins(snap.Treasury.PotBalance)))
	return b.String()
}

func formatSettings(feeAccount model.Identity, slots uint64, rate, fee, pot, next uint16, fixed uint64) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Fee account: <code>%s</code>\n", feeAccount))
	b.WriteString(fmt.Sprintf("Slots to win: %d\n", slots))
	b.WriteString(fmt.Sprintf("Split: fee %s / pot %s / next %s\n", FormatBps(fee), FormatBps(pot), FormatBps(next)))
	if fixed != 0 {
		b.WriteString(fmt.Sprintf("Pricing: fixed %s\n", FormatCoins(fixed)))
	} else {
		b.WriteString(fmt.Sprintf("Pricing: %s of pot\n", FormatBps(rate)))
	}
	return b.String()
}
