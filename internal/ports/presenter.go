package ports

import (
	"context"

	"stockMonitor/internal/domain"
)

// Presenter renders the outcome of a polling cycle.
type Presenter interface {
	Render(ctx context.Context, snap *domain.Snapshot) error
}
