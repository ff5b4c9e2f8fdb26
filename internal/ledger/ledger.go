// Package ledger is an in-process stand-in for the chain the game runs on.
// It keeps account balances and the game records, hands out a monotonic
// slot counter and runs each operation as one serialized, all-or-nothing
// transaction.
package ledger

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"

	"KingOfTheBlock/internal/game"
	"KingOfTheBlock/internal/model"
)

// DefaultMinReserve is the smallest balance a vault account may hold.
const DefaultMinReserve uint64 = 1_000_000

// Options configures a Ledger.
type Options struct {
	// FilePath is where the state is persisted. Empty keeps it in memory.
	FilePath   string
	ProgramID  string
	MinReserve uint64
	Clock      Clock
}

// Ledger serializes transactions over a State.
type Ledger struct {
	mu         sync.Mutex
	state      *State
	filePath   string
	clock      Clock
	addrs      Addresses
	minReserve uint64
}

// Open creates a Ledger, loading state from disk when a file path is set.
func Open(opts Options) (*Ledger, error) {
	if opts.Clock == nil {
		return nil, fmt.Errorf("ledger clock is required")
	}
	if opts.ProgramID == "" {
		return nil, fmt.Errorf("ledger program id is required")
	}
	if opts.MinReserve == 0 {
		opts.MinReserve = DefaultMinReserve
	}

	state := newState()
	if opts.FilePath != "" {
		loaded, err := LoadState(opts.FilePath)
		if err != nil {
			return nil, fmt.Errorf("load ledger state: %w", err)
		}
		state = loaded
		log.Printf("[INFO] ledger loaded: %s (%d accounts, %d txs)", opts.FilePath, len(state.Balances), state.TxCount)
	}

	return &Ledger{
		state:      state,
		filePath:   opts.FilePath,
		clock:      opts.Clock,
		addrs:      DeriveAddresses(opts.ProgramID),
		minReserve: opts.MinReserve,
	}, nil
}

// Addresses returns the seed-derived record addresses.
func (l *Ledger) Addresses() Addresses { return l.addrs }

// Execute runs fn as one transaction. Writes made through the Tx are
// committed and persisted only if fn returns nil.
func (l *Ledger) Execute(ctx context.Context, fn func(tx game.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	work := l.state.clone()
	tx := l.newTx(work)
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}

	work.LastSlot = tx.slot
	work.TxCount++
	if l.filePath != "" {
		if err := SaveState(l.filePath, work); err != nil {
			return fmt.Errorf("persist ledger state: %w", err)
		}
	}
	l.state = work
	return nil
}

// View runs fn against a read-only snapshot. Writes are discarded.
func (l *Ledger) View(fn func(tx game.Tx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.newTx(l.state.clone()))
}

// Airdrop credits amount to id out of thin air. Used to fund test accounts.
func (l *Ledger) Airdrop(ctx context.Context, id model.Identity, amount uint64) error {
	if id == "" {
		return game.WithMetadata(game.ErrInvalidValue, map[string]string{"field": "account"})
	}
	return l.Execute(ctx, func(tx game.Tx) error {
		return tx.(*Tx).credit(id, amount)
	})
}

// CheckSigner rejects program-derived addresses used as a signing account.
func (l *Ledger) CheckSigner(id model.Identity) error {
	if l.addrs.Owns(id) {
		return game.WithMetadata(game.ErrUnauthorized, map[string]string{
			"account": id.String(),
			"reason":  "program accounts cannot sign",
		})
	}
	return nil
}

// Balance returns the committed balance of id.
func (l *Ledger) Balance(id model.Identity) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Balances[id]
}

// Slot returns the slot the next transaction would run at.
func (l *Ledger) Slot() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextSlot()
}

// CheckVaults rejects caller-supplied vault addresses that differ from the
// derived ones. Empty fields are not checked.
func (l *Ledger) CheckVaults(v model.Vaults) error {
	if v.Pot != "" && v.Pot != l.addrs.Pot {
		return game.WithMetadata(game.ErrAccountMismatch, map[string]string{
			"account": "pot", "expected": l.addrs.Pot.String(), "got": v.Pot.String(),
		})
	}
	if v.NextPot != "" && v.NextPot != l.addrs.NextPot {
		return game.WithMetadata(game.ErrAccountMismatch, map[string]string{
			"account": "next_pot", "expected": l.addrs.NextPot.String(), "got": v.NextPot.String(),
		})
	}
	return nil
}

func (l *Ledger) newTx(s *State) *Tx {
	return &Tx{state: s, slot: l.nextSlot(), addrs: l.addrs, minReserve: l.minReserve}
}

// nextSlot never goes below the slot of the last committed transaction.
func (l *Ledger) nextSlot() uint64 {
	slot := l.clock.Slot()
	if slot < l.state.LastSlot {
		return l.state.LastSlot
	}
	return slot
}

func insufficient(id model.Identity, have, need uint64) error {
	return game.WithMetadata(game.ErrInsufficientFunds, map[string]string{
		"account": id.String(),
		"balance": strconv.FormatUint(have, 10),
		"needed":  strconv.FormatUint(need, 10),
	})
}
