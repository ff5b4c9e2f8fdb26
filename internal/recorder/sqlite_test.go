package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"KingOfTheBlock/internal/model"
)

func openTestDB(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "kotb.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func meta(slot uint64) model.TxMeta {
	return model.TxMeta{ID: uuid.New(), Slot: slot, At: time.UnixMilli(1_700_000_000_000).UTC()}
}

func TestRecordAndReadBids(t *testing.T) {
	r := openTestDB(t)

	first := meta(10)
	require.NoError(t, r.RecordBid(first, &model.BidPlaced{
		Bidder: "alice", BidValue: 10_000_000, FinalSlot: 160, PotBalance: 6_000_000, NextPotBalance: 5_000_000,
	}))
	require.NoError(t, r.RecordBid(meta(11), &model.BidPlaced{
		Bidder: "bob", BidValue: 10_000_000, FinalSlot: 161, PotBalance: 11_000_000, NextPotBalance: 9_000_000,
	}))

	bids, err := r.RecentBids(10)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	assert.Equal(t, model.Identity("bob"), bids[0].Bid.Bidder)
	assert.Equal(t, first.ID, bids[1].Meta.ID)
	assert.Equal(t, first.At, bids[1].Meta.At)
	assert.Equal(t, uint64(6_000_000), bids[1].Bid.PotBalance)

	limited, err := r.RecentBids(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestDuplicateTxRejected(t *testing.T) {
	r := openTestDB(t)
	m := meta(1)
	evt := &model.BidPlaced{Bidder: "alice", BidValue: 1}
	require.NoError(t, r.RecordBid(m, evt))
	require.Error(t, r.RecordBid(m, evt))
}

func TestRecordGamesAndSettings(t *testing.T) {
	r := openTestDB(t)

	require.NoError(t, r.RecordGameEnded(meta(200), &model.GameEnded{
		Winner: "alice", Prize: 5_000_000, PotBalanceAfter: 5_000_000, NextPotBalanceAfter: 1_000_000, Slot: 200,
	}))
	games, err := r.RecentGames(5)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, model.Identity("alice"), games[0].Game.Winner)
	assert.Equal(t, uint64(200), games[0].Game.Slot)

	s := model.SettingsUpdated{
		Authority: "auth", FeeAccount: "fees", SlotsToWin: 10, BidValueRateBps: 100,
		FeeBps: 1000, PotBps: 5000, NextBps: 4000, MinReserve: 1_000_000,
	}
	require.NoError(t, r.RecordSettings(meta(3), &s))
	hist, err := r.RecentSettings(5)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, s, hist[0].Settings)
}

func TestRecordTreasury(t *testing.T) {
	r := openTestDB(t)
	require.NoError(t, r.RecordTreasury(&TreasurySnapshot{
		At: time.Now(), Slot: 5, Phase: "IDLE", PotBalance: 1, NextPotBalance: 2, BidValue: 3,
	}))

	snaps, err := r.RecentTreasury(10)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "IDLE", snaps[0].Phase)
	assert.Equal(t, uint64(3), snaps[0].BidValue)
}

func TestMigrationsRunOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kotb.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	require.NoError(t, r.RecordBid(meta(1), &model.BidPlaced{Bidder: "alice"}))
	require.NoError(t, r.Close())

	reopened, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	defer reopened.Close()

	var applied int
	require.NoError(t, reopened.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	assert.Equal(t, 2, applied)

	bids, err := reopened.RecentBids(10)
	require.NoError(t, err)
	assert.Len(t, bids, 1)
}

func TestUpSection(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (x INT);\n", upSection(content))
	assert.Equal(t, "SELECT 1;", upSection("SELECT 1;"))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	require.NoError(t, r.RecordBid(meta(1), &model.BidPlaced{}))
	bids, err := r.RecentBids(1)
	require.NoError(t, err)
	assert.Empty(t, bids)
}

func TestNewSQLiteRecorderCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "kotb.db")
	r, err := NewSQLiteRecorder(path)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })

	require.NoError(t, r.RecordBid(meta(1), &model.BidPlaced{Bidder: "alice", BidValue: 1}))
	assert.FileExists(t, path)
}

func TestFullRangeAmountsRoundTrip(t *testing.T) {
	r := openTestDB(t)
	maxU := ^uint64(0)
	high := uint64(1) << 63

	m := meta(maxU)
	bid := model.BidPlaced{
		Bidder: "alice", BidValue: high, FinalSlot: maxU, PotBalance: high, NextPotBalance: high + 1,
	}
	require.NoError(t, r.RecordBid(m, &bid))
	require.NoError(t, r.RecordGameEnded(m, &model.GameEnded{
		Winner: "alice", Prize: maxU, PotBalanceAfter: high, NextPotBalanceAfter: 1,
	}))
	require.NoError(t, r.RecordTreasury(&TreasurySnapshot{
		At: m.At, Slot: maxU, Phase: "active", PotBalance: high, NextPotBalance: maxU - 1, BidValue: high,
	}))

	bids, err := r.RecentBids(1)
	require.NoError(t, err)
	require.Len(t, bids, 1)
	assert.Equal(t, maxU, bids[0].Meta.Slot)
	assert.Equal(t, bid, bids[0].Bid)

	games, err := r.RecentGames(1)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, maxU, games[0].Game.Prize)
	assert.Equal(t, high, games[0].Game.PotBalanceAfter)

	snaps, err := r.RecentTreasury(1)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, maxU, snaps[0].Slot)
	assert.Equal(t, maxU-1, snaps[0].NextPotBalance)
}
