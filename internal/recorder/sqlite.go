package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"KingOfTheBlock/internal/model"
)

// SQLiteRecorder persists the event history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so dashboards can read while the node writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := applyMigrations(db, migrationFiles, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) RecordBid(meta model.TxMeta, evt *model.BidPlaced) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO bids
		(tx_id, slot, at_ms, bidder, bid_value, final_slot, pot_balance, next_pot_balance)
		VALUES (?,?,?,?,?,?,?,?)`,
		meta.ID, i64(meta.Slot), meta.At.UnixMilli(),
		evt.Bidder, i64(evt.BidValue), i64(evt.FinalSlot), i64(evt.PotBalance), i64(evt.NextPotBalance),
	)
	return err
}

func (r *SQLiteRecorder) RecordGameEnded(meta model.TxMeta, evt *model.GameEnded) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO games
		(tx_id, slot, at_ms, winner, prize, pot_balance_after, next_pot_balance_after)
		VALUES (?,?,?,?,?,?,?)`,
		meta.ID, i64(meta.Slot), meta.At.UnixMilli(),
		evt.Winner, i64(evt.Prize), i64(evt.PotBalanceAfter), i64(evt.NextPotBalanceAfter),
	)
	return err
}

func (r *SQLiteRecorder) RecordSettings(meta model.TxMeta, evt *model.SettingsUpdated) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO settings_history
		(tx_id, slot, at_ms, authority, fee_account, slots_to_win, bid_value_rate_bps,
		 fee_bps, pot_bps, next_bps, bid_value, min_reserve)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		meta.ID, i64(meta.Slot), meta.At.UnixMilli(),
		evt.Authority, evt.FeeAccount, i64(evt.SlotsToWin), evt.BidValueRateBps,
		evt.FeeBps, evt.PotBps, evt.NextBps, i64(evt.BidValue), i64(evt.MinReserve),
	)
	return err
}

func (r *SQLiteRecorder) RecordTreasury(snap *TreasurySnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO treasury_snapshots
		(at_ms, slot, phase, pot_balance, next_pot_balance, bid_value)
		VALUES (?,?,?,?,?,?)`,
		snap.At.UnixMilli(), i64(snap.Slot), snap.Phase,
		i64(snap.PotBalance), i64(snap.NextPotBalance), i64(snap.BidValue),
	)
	return err
}

// RecentBids returns up to limit bids, newest first.
func (r *SQLiteRecorder) RecentBids(limit int) ([]BidRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT tx_id, slot, at_ms, bidder, bid_value, final_slot, pot_balance, next_pot_balance
		FROM bids ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BidRecord
	for rows.Next() {
		var rec BidRecord
		var atMs int64
		if err := rows.Scan(&rec.Meta.ID, u64(&rec.Meta.Slot), &atMs,
			&rec.Bid.Bidder, u64(&rec.Bid.BidValue), u64(&rec.Bid.FinalSlot),
			u64(&rec.Bid.PotBalance), u64(&rec.Bid.NextPotBalance)); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		rec.Meta.At = time.UnixMilli(atMs).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecentGames returns up to limit resolved rounds, newest first.
func (r *SQLiteRecorder) RecentGames(limit int) ([]GameRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT tx_id, slot, at_ms, winner, prize, pot_balance_after, next_pot_balance_after
		FROM games ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GameRecord
	for rows.Next() {
		var rec GameRecord
		var atMs int64
		if err := rows.Scan(&rec.Meta.ID, u64(&rec.Meta.Slot), &atMs,
			&rec.Game.Winner, u64(&rec.Game.Prize),
			u64(&rec.Game.PotBalanceAfter), u64(&rec.Game.NextPotBalanceAfter)); err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		rec.Meta.At = time.UnixMilli(atMs).UTC()
		rec.Game.Slot = rec.Meta.Slot
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecentSettings returns up to limit settings changes, newest first.
func (r *SQLiteRecorder) RecentSettings(limit int) ([]SettingsRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT tx_id, slot, at_ms, authority, fee_account, slots_to_win,
		bid_value_rate_bps, fee_bps, pot_bps, next_bps, bid_value, min_reserve
		FROM settings_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SettingsRecord
	for rows.Next() {
		var rec SettingsRecord
		var atMs int64
		s := &rec.Settings
		if err := rows.Scan(&rec.Meta.ID, u64(&rec.Meta.Slot), &atMs,
			&s.Authority, &s.FeeAccount, u64(&s.SlotsToWin), &s.BidValueRateBps,
			&s.FeeBps, &s.PotBps, &s.NextBps, u64(&s.BidValue), u64(&s.MinReserve)); err != nil {
			return nil, fmt.Errorf("scan settings: %w", err)
		}
		rec.Meta.At = time.UnixMilli(atMs).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// RecentTreasury returns up to limit treasury snapshots, newest first.
func (r *SQLiteRecorder) RecentTreasury(limit int) ([]TreasurySnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT at_ms, slot, phase, pot_balance, next_pot_balance, bid_value
		FROM treasury_snapshots ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TreasurySnapshot
	for rows.Next() {
		var snap TreasurySnapshot
		var atMs int64
		if err := rows.Scan(&atMs, u64(&snap.Slot), &snap.Phase,
			u64(&snap.PotBalance), u64(&snap.NextPotBalance), u64(&snap.BidValue)); err != nil {
			return nil, fmt.Errorf("scan treasury: %w", err)
		}
		snap.At = time.UnixMilli(atMs).UTC()
		out = append(out, snap)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

// Amounts and slots are stored as their int64 bit pattern. database/sql does
// not accept uint64 values with the high bit set, and SQLite INTEGER columns
// are signed. Values at or above 1<<63 read back as negative in raw SQL.
func i64(v uint64) int64 { return int64(v) }

type uint64Column struct{ dst *uint64 }

func u64(dst *uint64) uint64Column { return uint64Column{dst: dst} }

func (c uint64Column) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*c.dst = uint64(v)
	case nil:
		*c.dst = 0
	default:
		return fmt.Errorf("unexpected %T in unsigned column", src)
	}
	return nil
}
