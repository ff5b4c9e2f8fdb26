package game

import "KingOfTheBlock/internal/model"

// Phase is the round state derived from GameState and the current slot.
type Phase uint8

const (
	// PhaseIdle means no round is running.
	PhaseIdle Phase = iota
	// PhaseActive means a leader exists and the deadline has not passed.
	PhaseActive
	// PhaseExpired means the deadline passed and the leader can claim.
	PhaseExpired
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhaseActive:
		return "ACTIVE"
	case PhaseExpired:
		return "EXPIRED"
	default:
		return "UNKNOWN"
	}
}

// PhaseAt derives the phase at slot now. Reaching final_slot counts as expired.
func PhaseAt(state model.GameState, now uint64) Phase {
	switch {
	case state.FinalSlot == 0:
		return PhaseIdle
	case now < state.FinalSlot:
		return PhaseActive
	default:
		return PhaseExpired
	}
}
