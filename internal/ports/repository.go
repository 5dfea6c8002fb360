package ports

import (
	"context"

	"stockMonitor/internal/domain"
)

// SnapshotRepository persists computed snapshots.
type SnapshotRepository interface {
	// Save stores a computed snapshot and returns its assigned ID.
	Save(ctx context.Context, snap *domain.Snapshot) (int64, error)
	// FindRecent returns the most recent snapshots for a ticker, newest first.
	FindRecent(ctx context.Context, ticker string, limit int) ([]*domain.Snapshot, error)
	// CountToday counts snapshots journaled today for a ticker.
	CountToday(ctx context.Context, ticker string) (int, error)
}
