package game

import (
	"math/bits"

	"KingOfTheBlock/internal/model"
)

const (
	// UnitsPerCoin converts whole coins to base units.
	UnitsPerCoin uint64 = 1_000_000_000
	// MinPriceFloor is the lowest price a bid can cost (0.01 coin).
	MinPriceFloor = UnitsPerCoin / 100
	// BpsDenom is 100% in basis points.
	BpsDenom uint64 = 10_000
)

// mulBps returns floor(amount * bps / 10000) without overflowing.
func mulBps(amount uint64, bps uint16) uint64 {
	hi, lo := bits.Mul64(amount, uint64(bps))
	if hi >= BpsDenom {
		// bps > 10000 and the quotient does not fit; callers validate bps first
		return ^uint64(0)
	}
	q, _ := bits.Div64(hi, lo, BpsDenom)
	return q
}

// DeriveNextPrice returns the price of the next bid: the fixed price when one
// is set, else a share of the pot clamped to MinPriceFloor.
func DeriveNextPrice(settings model.GameSettings, potBalance uint64) uint64 {
	if settings.BidValue != 0 {
		return settings.BidValue
	}
	price := mulBps(potBalance, settings.BidValueRateBps)
	if price < MinPriceFloor {
		return MinPriceFloor
	}
	return price
}

// BidPrice is what the next bid is charged. A fixed price applies as soon as
// it is configured, otherwise the price cached by the previous bid.
func BidPrice(state model.GameState, settings model.GameSettings) uint64 {
	if settings.BidValue != 0 {
		return settings.BidValue
	}
	return state.BidValue
}

// Split divides amount into fee, pot and next-pot shares. The bps values must
// sum to 10000; the flooring residual goes to the pot share so the three
// shares always add up to amount.
func Split(amount uint64, feeBps, potBps, nextBps uint16) (fee, pot, next uint64) {
	fee = mulBps(amount, feeBps)
	next = mulBps(amount, nextBps)
	// floor(amount*potBps/10000) plus at most 2 units of residual
	pot = amount - fee - next
	return fee, pot, next
}
