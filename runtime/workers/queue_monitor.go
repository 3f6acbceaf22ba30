package workers

import (
	"chat-sync/domain"
	"chat-sync/observability"
	"context"
	"log/slog"
	"time"
)

type QueueStat struct {
	Room     domain.RoomID
	Length   int
	Capacity int
}

// QueueMonitor periodically samples the room queues. Reading len and cap of
// a channel is non-blocking, so sampling never slows the rooms down.
// A queue close to full means the room worker can't keep up with the
// transport, which is then slowed down.
type QueueMonitor struct {
	log                  *slog.Logger
	stats                func() []QueueStat
	metrics              *observability.Metrics
	interval             time.Duration
	lowCapacityThreshold int
}

func NewQueueMonitor(log *slog.Logger, stats func() []QueueStat, metrics *observability.Metrics,
	interval time.Duration, lowCapacityThreshold int) *QueueMonitor {
	return &QueueMonitor{
		log:                  log,
		stats:                stats,
		metrics:              metrics,
		interval:             interval,
		lowCapacityThreshold: lowCapacityThreshold,
	}
}

func (w *QueueMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping queue monitor")
			return nil
		case <-ticker.C:
			w.Sample()
		}
	}
}

func (w *QueueMonitor) Sample() {
	for _, s := range w.stats() {
		w.metrics.SetQueueLength(string(s.Room), s.Length)
		if s.Capacity <= 0 {
			// In case of unbuffered channel
			continue
		}
		capacityLeft := s.Capacity - s.Length
		if capacityLeft <= w.lowCapacityThreshold {
			w.log.Warn("Room queue almost full", "room", s.Room, "length", s.Length, "capacity", s.Capacity)
		}
	}
}
