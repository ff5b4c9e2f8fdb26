package recorder

import "KingOfTheBlock/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordBid(model.TxMeta, *model.BidPlaced) error            { return nil }
func (n *NoopRecorder) RecordGameEnded(model.TxMeta, *model.GameEnded) error      { return nil }
func (n *NoopRecorder) RecordSettings(model.TxMeta, *model.SettingsUpdated) error { return nil }
func (n *NoopRecorder) RecordTreasury(*TreasurySnapshot) error                    { return nil }
func (n *NoopRecorder) RecentBids(int) ([]BidRecord, error)                       { return nil, nil }
func (n *NoopRecorder) RecentGames(int) ([]GameRecord, error)                     { return nil, nil }
func (n *NoopRecorder) RecentSettings(int) ([]SettingsRecord, error)              { return nil, nil }
func (n *NoopRecorder) RecentTreasury(int) ([]TreasurySnapshot, error)            { return nil, nil }
func (n *NoopRecorder) Close() error                                              { return nil }
