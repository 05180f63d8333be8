package usecase

import (
	"context"
	"log/slog"
	"time"
)

const archiveChunkSize = 500

// ArchiveOldOrders soft-archives orders past the retention window in chunks.
// Archived orders drop out of default queries but stay reachable by explicit
// lookups, so late webhooks still find them.
type ArchiveOldOrders struct {
	orders OrderRepo
	after  time.Duration
	log    *slog.Logger
}

func NewArchiveOldOrders(orders OrderRepo, after time.Duration, log *slog.Logger) *ArchiveOldOrders {
	return &ArchiveOldOrders{orders: orders, after: after, log: log}
}

func (uc *ArchiveOldOrders) Execute(ctx context.Context) (int64, error) {
	threshold := time.Now().Add(-uc.after)

	var total int64
	for {
		n, err := uc.orders.ArchiveOlderThan(ctx, threshold, archiveChunkSize)
		if err != nil {
			return total, err
		}
		total += n
		if n < archiveChunkSize {
			break
		}
	}

	if total > 0 {
		uc.log.Info("order housekeeping completed",
			"archived_count", total, "threshold_date", threshold.Format(time.RFC3339))
	}
	return total, nil
}
