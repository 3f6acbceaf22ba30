// Package runtime wires the ingest pipeline, the per-room workers and the
// persistence worker together. It owns no business rule: conflicts are
// settled by the projections it drives.
package runtime

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/errors"
	"chat-sync/ingest"
	"chat-sync/moderation"
	"chat-sync/observability"
	"chat-sync/projection"
	"chat-sync/runtime/workers"
	"chat-sync/services"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type Config struct {
	BufferSize      int
	DedupCapacity   int
	SinkTimeout     time.Duration
	RestartInterval time.Duration
	SaveDebounce    time.Duration
	SaveTimeout     time.Duration
	TypingTTL       time.Duration

	// MetricInterval enables the queue monitor when positive.
	MetricInterval       time.Duration
	LowCapacityThreshold int
}

// Deps are the collaborators of the engine. Store, Moderator and Metrics
// may be nil.
type Deps struct {
	Identity  domain.Identity
	Source    contract.MutationSource
	Store     contract.ProjectionStore
	Moderator *moderation.Moderator
	Metrics   *observability.Metrics
	Clock     domain.Clock
}

// SearchIndex is implemented by search.Index.
type SearchIndex interface {
	contract.DeltaSink
	services.Searcher
}

type openRoom struct {
	projection   *projection.Room
	queue        chan event.Mutation
	subscription contract.Subscription
}

// Engine hosts the open rooms of the local client.
// Remote mutations and local writes go through the same ingest, then into
// the bounded queue of their room, drained by a supervised RoomWorker.
type Engine struct {
	mu         sync.RWMutex
	log        *slog.Logger
	cfg        Config
	identity   domain.Identity
	source     contract.MutationSource
	store      contract.ProjectionStore
	metrics    *observability.Metrics
	clock      *domain.HybridClock
	ingestor   *ingest.Ingestor
	supervisor *workers.Supervisor
	persister  *workers.Persister
	registry   *Registry
	query      *services.QueryService
	sinks      []contract.DeltaSink
	rejections []contract.RejectionSink
	rooms      map[domain.RoomID]*openRoom
	ctx        context.Context
}

func NewEngine(log *slog.Logger, cfg Config, deps Deps) *Engine {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	e := &Engine{
		log:        log,
		cfg:        cfg,
		identity:   deps.Identity,
		source:     deps.Source,
		store:      deps.Store,
		metrics:    deps.Metrics,
		clock:      domain.NewHybridClock(deps.Clock),
		ingestor:   ingest.NewIngestor(log, cfg.DedupCapacity, deps.Moderator, deps.Metrics),
		supervisor: workers.NewSupervisor(log, cfg.RestartInterval),
		registry:   NewRegistry(),
		rooms:      make(map[domain.RoomID]*openRoom),
	}
	if deps.Store != nil {
		e.persister = workers.NewPersister(log, deps.Store, deps.Metrics, cfg.SaveDebounce, cfg.SaveTimeout)
	}
	e.query = services.NewQueryService(e, e.clock, cfg.TypingTTL, nil)
	e.supervisor.OnRestart(func(name string) { e.metrics.IncWorkerRestart(name) })
	return e
}

// Start binds the engine to ctx. Rooms can be opened afterwards.
func (e *Engine) Start(ctx context.Context) {
	supervised := e.supervisor.Context(ctx)
	e.mu.Lock()
	e.ctx = supervised
	e.mu.Unlock()
	if e.persister != nil {
		e.supervisor.Start(supervised, e.persister)
	}
	if e.cfg.MetricInterval > 0 {
		monitor := workers.NewQueueMonitor(e.log, e.QueueStats, e.metrics,
			e.cfg.MetricInterval, e.cfg.LowCapacityThreshold)
		e.supervisor.Start(supervised, monitor)
	}
}

// RegisterSinks adds sinks receiving the deltas of every room opened afterwards.
func (e *Engine) RegisterSinks(sinks ...contract.DeltaSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, sinks...)
}

func (e *Engine) RegisterRejectionSinks(sinks ...contract.RejectionSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rejections = append(e.rejections, sinks...)
}

// EnableSearch feeds the index with deltas and serves Query().Search from it.
// Like the other sinks, it must be registered before rooms are opened.
func (e *Engine) EnableSearch(index SearchIndex) {
	e.RegisterSinks(index)
	e.mu.Lock()
	e.query = services.NewQueryService(e, e.clock, e.cfg.TypingTTL, index)
	e.mu.Unlock()
}

// Open makes a room live: its cached projection is restored, a worker is
// started and the transport subscription begins. Opening a closed room
// only subscribes again, the projection is kept as is.
func (e *Engine) Open(ctx context.Context, roomID domain.RoomID) error {
	e.mu.RLock()
	started, known := e.ctx, e.rooms[roomID]
	e.mu.RUnlock()
	if started == nil {
		return errors.ErrEngineNotStarted
	}
	if known == nil {
		// Loading is I/O, done before taking the lock
		proj := e.load(ctx, roomID)
		known = e.register(started, roomID, proj)
	}

	e.mu.RLock()
	subscribed := known.subscription != nil
	e.mu.RUnlock()
	if subscribed {
		return nil
	}
	sub, err := e.source.Subscribe(started, roomID, func(raw event.RawMutation) {
		if err := e.enqueue(started, raw); err != nil && !errors.IsMalformed(err) {
			e.log.Warn("Unable to queue remote mutation", "room", roomID, "event_id", raw.EventID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to room %s: %w", roomID, err)
	}

	e.mu.Lock()
	if known.subscription != nil {
		// A concurrent Open won
		e.mu.Unlock()
		return sub.Close()
	}
	known.subscription = sub
	e.mu.Unlock()

	e.metrics.RoomOpened()
	e.log.Info("Room opened", "room", roomID, "version", known.projection.Version())
	return nil
}

func (e *Engine) load(ctx context.Context, roomID domain.RoomID) *projection.Room {
	if e.store == nil {
		return projection.NewRoom(roomID, e.identity)
	}
	snapshot, err := e.store.Load(ctx, roomID)
	if err != nil {
		e.log.Error("Unable to load cached projection, starting empty", "room", roomID, "error", err)
		return projection.NewRoom(roomID, e.identity)
	}
	if snapshot == nil {
		return projection.NewRoom(roomID, e.identity)
	}
	e.log.Debug("Projection restored", "room", roomID, "version", snapshot.Version)
	return projection.FromSnapshot(*snapshot, e.identity)
}

// register starts the worker of a room unless a concurrent Open did it first.
func (e *Engine) register(ctx context.Context, roomID domain.RoomID, proj *projection.Room) *openRoom {
	e.mu.Lock()
	defer e.mu.Unlock()
	if known, ok := e.rooms[roomID]; ok {
		return known
	}
	room := &openRoom{projection: proj, queue: make(chan event.Mutation, e.cfg.BufferSize)}
	e.rooms[roomID] = room
	worker := workers.NewRoomWorker(e.log, proj, room.queue, workers.RoomWorkerDeps{
		Registry:    e.registry,
		Sinks:       e.sinks,
		Rejections:  e.rejections,
		Persister:   e.persister,
		Clock:       e.clock,
		Metrics:     e.metrics,
		SinkTimeout: e.cfg.SinkTimeout,
	})
	e.supervisor.Start(ctx, worker)
	return room
}

// Close stops receiving remote mutations for the room. The projection stays
// queryable and local writes are still accepted.
func (e *Engine) Close(roomID domain.RoomID) error {
	e.mu.Lock()
	room, ok := e.rooms[roomID]
	if !ok || room.subscription == nil {
		e.mu.Unlock()
		return nil
	}
	sub := room.subscription
	room.subscription = nil
	e.mu.Unlock()

	e.metrics.RoomClosed()
	e.log.Info("Room closed", "room", roomID)
	return sub.Close()
}

// Submit runs a local write through the same pipeline as remote mutations.
func (e *Engine) Submit(ctx context.Context, raw event.RawMutation) error {
	return e.enqueue(ctx, raw)
}

// enqueue blocks while the room queue is full, which slows the transport
// down instead of dropping mutations. A mutation that is not queued is
// forgotten by ingest so that its re-delivery goes through.
func (e *Engine) enqueue(ctx context.Context, raw event.RawMutation) error {
	m, err := e.ingestor.Ingest(raw)
	if err != nil {
		return err
	}
	if m == nil {
		return nil
	}
	e.mu.RLock()
	room, ok := e.rooms[m.RoomID()]
	e.mu.RUnlock()
	if !ok {
		e.ingestor.Forget(m)
		return fmt.Errorf("%w: %s", errors.ErrUnknownRoom, m.RoomID())
	}
	select {
	case room.queue <- m:
		return nil
	case <-ctx.Done():
		e.ingestor.Forget(m)
		return ctx.Err()
	}
}

// Room implements contract.RoomLookup.
func (e *Engine) Room(roomID domain.RoomID) (*projection.Room, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	room, ok := e.rooms[roomID]
	if !ok {
		return nil, false
	}
	return room.projection, true
}

func (e *Engine) Query() *services.QueryService {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.query
}

// Clock stamps local writes, see services.ChatService.
func (e *Engine) Clock() *domain.HybridClock { return e.clock }

func (e *Engine) IngestStats() ingest.Stats { return e.ingestor.Stats() }

// QueueStats samples the queue of every known room.
func (e *Engine) QueueStats() []workers.QueueStat {
	e.mu.RLock()
	defer e.mu.RUnlock()
	stats := make([]workers.QueueStat, 0, len(e.rooms))
	for roomID, room := range e.rooms {
		stats = append(stats, workers.QueueStat{Room: roomID, Length: len(room.queue), Capacity: cap(room.queue)})
	}
	return stats
}

// Subscribe attaches a UI collaborator to the deltas of a room.
func (e *Engine) Subscribe(subscriberID string, roomID domain.RoomID, sink contract.DeltaSink) {
	e.registry.Subscribe(subscriberID, roomID, sink)
}

func (e *Engine) Unsubscribe(subscriberID string, roomID domain.RoomID) {
	e.registry.Unsubscribe(subscriberID, roomID)
}

// Stop closes every subscription, then stops the workers. Pending snapshots
// are flushed before Stop returns.
func (e *Engine) Stop() {
	e.mu.Lock()
	var subs []contract.Subscription
	for _, room := range e.rooms {
		if room.subscription != nil {
			subs = append(subs, room.subscription)
			room.subscription = nil
		}
	}
	e.mu.Unlock()

	for _, sub := range subs {
		e.metrics.RoomClosed()
		if err := sub.Close(); err != nil {
			e.log.Warn("Unable to close subscription", "error", err)
		}
	}
	e.supervisor.Stop()
	e.supervisor.Wait()
}
