package ledger

import (
	"sync"
	"time"
)

// Clock supplies the slot counter.
type Clock interface {
	Slot() uint64
}

// WallClock derives slots from elapsed wall time since Genesis.
type WallClock struct {
	Genesis      time.Time
	SlotDuration time.Duration
	Now          func() time.Time
}

// NewWallClock creates a WallClock ticking every slotDuration.
func NewWallClock(genesis time.Time, slotDuration time.Duration) *WallClock {
	return &WallClock{Genesis: genesis, SlotDuration: slotDuration, Now: time.Now}
}

func (c *WallClock) Slot() uint64 {
	elapsed := c.Now().Sub(c.Genesis)
	if elapsed <= 0 || c.SlotDuration <= 0 {
		return 0
	}
	return uint64(elapsed / c.SlotDuration)
}

// ManualClock is a clock moved by hand, used by tests and tools.
type ManualClock struct {
	mu   sync.Mutex
	slot uint64
}

func NewManualClock(slot uint64) *ManualClock { return &ManualClock{slot: slot} }

func (c *ManualClock) Slot() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slot
}

// Set moves the clock to slot.
func (c *ManualClock) Set(slot uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot = slot
}

// Advance moves the clock forward by n slots.
func (c *ManualClock) Advance(n uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slot += n
}
