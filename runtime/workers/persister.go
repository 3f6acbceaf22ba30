package workers

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/observability"
	"chat-sync/projection"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Persister saves room snapshots in the background.
// Schedule never blocks the caller; bursts of mutations are coalesced into
// one save per room after the debounce delay. Failures are logged and
// counted, the next change of the room schedules a new attempt.
type Persister struct {
	log      *slog.Logger
	store    contract.ProjectionStore
	metrics  *observability.Metrics
	debounce time.Duration
	timeout  time.Duration

	mu      sync.Mutex
	dirty   map[domain.RoomID]*projection.Room
	trigger chan struct{}
}

func NewPersister(log *slog.Logger, store contract.ProjectionStore, metrics *observability.Metrics,
	debounce, timeout time.Duration) *Persister {
	return &Persister{
		log:      log,
		store:    store,
		metrics:  metrics,
		debounce: debounce,
		timeout:  timeout,
		dirty:    make(map[domain.RoomID]*projection.Room),
		trigger:  make(chan struct{}, 1),
	}
}

// Schedule marks a room as needing a save.
func (p *Persister) Schedule(room *projection.Room) {
	p.mu.Lock()
	p.dirty[room.ID()] = room
	p.mu.Unlock()
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

func (p *Persister) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			// Last chance to save what is pending, detached from the canceled ctx
			p.Flush(context.WithoutCancel(ctx))
			return nil
		case <-p.trigger:
			if p.debounce > 0 {
				timer := time.NewTimer(p.debounce)
				select {
				case <-ctx.Done():
					timer.Stop()
					p.Flush(context.WithoutCancel(ctx))
					return nil
				case <-timer.C:
				}
			}
			p.Flush(ctx)
		}
	}
}

// Flush saves every dirty room now.
func (p *Persister) Flush(ctx context.Context) {
	p.mu.Lock()
	dirty := p.dirty
	p.dirty = make(map[domain.RoomID]*projection.Room)
	p.mu.Unlock()

	for roomID, room := range dirty {
		p.save(ctx, roomID, room)
	}
}

func (p *Persister) save(ctx context.Context, roomID domain.RoomID, room *projection.Room) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	snapshot := room.Snapshot()
	if err := p.store.Save(ctx, roomID, snapshot); err != nil {
		p.metrics.IncPersistFailure()
		p.log.Error("Unable to save projection", "room", roomID, "version", snapshot.Version, "error", err)
	}
}
