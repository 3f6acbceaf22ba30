package workers

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/errors"
	"chat-sync/observability"
	"chat-sync/projection"
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RoomWorker is the sequential queue of one room.
// It applies mutations one at a time, so a room projection never sees two
// concurrent writers, and fans the resulting deltas out to the sinks.
type RoomWorker struct {
	log         *slog.Logger
	room        *projection.Room
	mutations   <-chan event.Mutation
	registry    contract.IRegistry
	sinks       []contract.DeltaSink
	rejections  []contract.RejectionSink
	persister   *Persister
	clock       *domain.HybridClock
	metrics     *observability.Metrics
	sinkTimeout time.Duration
}

type RoomWorkerDeps struct {
	Registry    contract.IRegistry
	Sinks       []contract.DeltaSink
	Rejections  []contract.RejectionSink
	Persister   *Persister
	Clock       *domain.HybridClock
	Metrics     *observability.Metrics
	SinkTimeout time.Duration
}

func NewRoomWorker(log *slog.Logger, room *projection.Room, mutations <-chan event.Mutation, deps RoomWorkerDeps) *RoomWorker {
	return &RoomWorker{
		log:         log.With("room", room.ID()),
		room:        room,
		mutations:   mutations,
		registry:    deps.Registry,
		sinks:       deps.Sinks,
		rejections:  deps.Rejections,
		persister:   deps.Persister,
		clock:       deps.Clock,
		metrics:     deps.Metrics,
		sinkTimeout: deps.SinkTimeout,
	}
}

func (w *RoomWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping room worker")
			return nil
		case m, ok := <-w.mutations:
			if !ok {
				return nil
			}
			w.Handle(ctx, m)
		}
	}
}

// Handle applies one mutation and publishes its outcome.
func (w *RoomWorker) Handle(ctx context.Context, m event.Mutation) {
	if w.clock != nil {
		w.clock.Observe(m.Metadata().At)
	}
	meta := m.Metadata()

	delta, err := w.room.Apply(m)
	switch {
	case err == nil:
		w.metrics.IncDelta()
		w.publish(ctx, delta)
		if w.persister != nil {
			w.persister.Schedule(w.room)
		}
		for _, rejection := range delta.Rejected {
			w.unauthorized(ctx, rejection)
		}
	case errors.IsStaleNoop(err):
		w.metrics.IncConflict(string(errors.ConflictStaleNoop))
		w.log.Debug("Mutation had no effect", "event_id", meta.EventID, "reason", err)
	case errors.IsUnauthorized(err):
		w.unauthorized(ctx, event.Rejection{Mutation: m, Reason: err})
	default:
		w.log.Error("Unable to apply mutation", "event_id", meta.EventID, "error", err)
	}
}

// publish sends the delta to every sink with its own timeout, so a slow
// subscriber delays the room but never blocks it for good.
func (w *RoomWorker) publish(ctx context.Context, delta event.Delta) {
	sinks := w.sinks
	if w.registry != nil {
		sinks = append(sinks[:len(sinks):len(sinks)], w.registry.GetSinksForRoom(delta.Room)...)
	}
	for _, sink := range sinks {
		sinkCtx, cancel := w.withTimeout(ctx)
		if err := sink.Consume(sinkCtx, delta); err != nil {
			w.log.Warn("Delta sink failed", "sink", fmt.Sprintf("%T", sink), "version", delta.Version, "error", err)
		}
		cancel()
	}
}

func (w *RoomWorker) unauthorized(ctx context.Context, r event.Rejection) {
	meta := r.Mutation.Metadata()
	w.metrics.IncConflict(string(errors.ConflictUnauthorized))
	w.log.Warn("Unauthorized mutation rejected", "event_id", meta.EventID, "actor", meta.Actor, "reason", r.Reason)
	w.reject(ctx, r)
}

func (w *RoomWorker) reject(ctx context.Context, r event.Rejection) {
	for _, sink := range w.rejections {
		sinkCtx, cancel := w.withTimeout(ctx)
		if err := sink.Reject(sinkCtx, r); err != nil {
			w.log.Warn("Rejection sink failed", "error", err)
		}
		cancel()
	}
}

func (w *RoomWorker) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if w.sinkTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, w.sinkTimeout)
}
