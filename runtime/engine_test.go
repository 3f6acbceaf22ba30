package runtime_test

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	"chat-sync/errors"
	"chat-sync/mocks"
	"chat-sync/projection"
	"chat-sync/runtime"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const general = domain.RoomID("general")

// feed captures the callback handed to the mutation source.
type feed struct {
	mu         sync.Mutex
	onMutation func(event.RawMutation)
}

func (f *feed) subscribe(_ context.Context, _ domain.RoomID, onMutation func(event.RawMutation)) (contract.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onMutation = onMutation
	return nil, nil
}

func (f *feed) deliver(raws ...event.RawMutation) {
	f.mu.Lock()
	cb := f.onMutation
	f.mu.Unlock()
	for _, raw := range raws {
		cb(raw)
	}
}

func text(id, actor string, ts int64, body string) event.RawMutation {
	return event.RawMutation{
		EventID:   "evt-" + id,
		Kind:      event.KindMessageCreated,
		RoomID:    string(general),
		ActorID:   actor,
		Timestamp: ts,
		MessageID: id,
		Text:      body,
	}
}

func newEngine(t *testing.T, source contract.MutationSource, store contract.ProjectionStore) *runtime.Engine {
	t.Helper()
	engine := runtime.NewEngine(logs.GetLoggerFromLevel(slog.LevelDebug), runtime.Config{
		BufferSize:      16,
		DedupCapacity:   100,
		SinkTimeout:     time.Second,
		RestartInterval: 10 * time.Millisecond,
		SaveDebounce:    10 * time.Millisecond,
		SaveTimeout:     time.Second,
		TypingTTL:       time.Minute,
	}, runtime.Deps{
		Identity: domain.StaticIdentity{UserID: "alice"},
		Source:   source,
		Store:    store,
	})
	engine.Start(context.Background())
	t.Cleanup(engine.Stop)
	return engine
}

func TestEngine_OpenDeliversRemoteMutations(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	source := mocks.NewMockMutationSource(ctrl)
	sub := mocks.NewMockSubscription(ctrl)
	f := &feed{}
	source.EXPECT().Subscribe(gomock.Any(), general, gomock.Any()).
		DoAndReturn(func(ctx context.Context, roomID domain.RoomID, cb func(event.RawMutation)) (contract.Subscription, error) {
			_, _ = f.subscribe(ctx, roomID, cb)
			return sub, nil
		})
	sub.EXPECT().Close().Return(nil)

	engine := newEngine(t, source, nil)
	req.NoError(engine.Open(context.Background(), general))

	f.deliver(text("m2", "bob", 20, "second"), text("m1", "carol", 10, "first"))
	req.Eventually(func() bool {
		return len(engine.Query().VisibleMessages(general, "alice")) == 2
	}, time.Second, 5*time.Millisecond)

	visible := engine.Query().VisibleMessages(general, "alice")
	req.Equal(domain.MessageID("m1"), visible[0].ID)
	req.Equal(domain.MessageID("m2"), visible[1].ID)
}

func TestEngine_OpenRestoresSnapshot(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	source := mocks.NewMockMutationSource(ctrl)
	store := mocks.NewMockProjectionStore(ctrl)

	cached := projection.NewRoom(general, nil)
	_, err := cached.Apply(event.MessageCreated{
		Meta:      event.Meta{EventID: "e1", Room: general, Actor: "bob", At: 5, Seq: 1},
		MessageID: "m1",
		Content:   domain.Content{Text: "from disk"},
	})
	req.NoError(err)
	snapshot := cached.Snapshot()

	store.EXPECT().Load(gomock.Any(), general).Return(&snapshot, nil)
	store.EXPECT().Save(gomock.Any(), general, gomock.Any()).Return(nil).AnyTimes()
	source.EXPECT().Subscribe(gomock.Any(), general, gomock.Any()).Return(nil, nil)

	engine := newEngine(t, source, store)
	req.NoError(engine.Open(context.Background(), general))

	visible := engine.Query().VisibleMessages(general, "alice")
	req.Len(visible, 1)
	req.Equal("from disk", visible[0].Content.Text)
	room, ok := engine.Room(general)
	req.True(ok)
	req.Equal(uint64(1), room.Version())
}

func TestEngine_LoadFailureStartsEmpty(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	source := mocks.NewMockMutationSource(ctrl)
	store := mocks.NewMockProjectionStore(ctrl)
	store.EXPECT().Load(gomock.Any(), general).Return(nil, fmt.Errorf("corrupted value"))
	source.EXPECT().Subscribe(gomock.Any(), general, gomock.Any()).Return(nil, nil)

	engine := newEngine(t, source, store)
	req.NoError(engine.Open(context.Background(), general))
	_, ok := engine.Room(general)
	req.True(ok)
	req.Empty(engine.Query().VisibleMessages(general, "alice"))
}

func TestEngine_SubscribeFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	source := mocks.NewMockMutationSource(ctrl)
	source.EXPECT().Subscribe(gomock.Any(), general, gomock.Any()).Return(nil, fmt.Errorf("connection refused"))

	engine := newEngine(t, source, nil)
	err := engine.Open(context.Background(), general)
	req.ErrorContains(err, "connection refused")
}

func TestEngine_OpenBeforeStart(t *testing.T) {
	req := require.New(t)
	engine := runtime.NewEngine(logs.GetLoggerFromLevel(slog.LevelDebug), runtime.Config{}, runtime.Deps{})
	req.ErrorIs(engine.Open(context.Background(), general), errors.ErrEngineNotStarted)
}

func TestEngine_SubmitToUnknownRoom(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	engine := newEngine(t, mocks.NewMockMutationSource(ctrl), nil)

	err := engine.Submit(context.Background(), text("m1", "alice", 1, "hello"))
	req.ErrorIs(err, errors.ErrUnknownRoom)

	malformed := text("m1", "alice", 1, "hello")
	malformed.ActorID = ""
	req.True(errors.IsMalformed(engine.Submit(context.Background(), malformed)))
}

func TestEngine_RefusedSubmitCanBeRedelivered(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	source := mocks.NewMockMutationSource(ctrl)
	f := &feed{}
	source.EXPECT().Subscribe(gomock.Any(), general, gomock.Any()).DoAndReturn(f.subscribe)

	engine := newEngine(t, source, nil)
	early := text("m1", "bob", 1, "sent before open")
	req.ErrorIs(engine.Submit(context.Background(), early), errors.ErrUnknownRoom)

	req.NoError(engine.Open(context.Background(), general))
	f.deliver(early)
	req.Eventually(func() bool {
		return len(engine.Query().VisibleMessages(general, "alice")) == 1
	}, time.Second, 5*time.Millisecond)
	stats := engine.IngestStats()
	req.Equal(uint64(1), stats.Accepted)
	req.Equal(uint64(0), stats.Duplicates)
}

func TestEngine_SubmitCanceledWhileQueueIsFull(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	source := mocks.NewMockMutationSource(ctrl)
	sink := mocks.NewMockDeltaSink(ctrl)
	source.EXPECT().Subscribe(gomock.Any(), general, gomock.Any()).Return(nil, nil)

	release := make(chan struct{})
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, event.Delta) error {
		<-release
		return nil
	}).AnyTimes()

	engine := runtime.NewEngine(logs.GetLoggerFromLevel(slog.LevelDebug), runtime.Config{BufferSize: 1, DedupCapacity: 100},
		runtime.Deps{Identity: domain.StaticIdentity{UserID: "alice"}, Source: source})
	engine.RegisterSinks(sink)
	engine.Start(context.Background())
	t.Cleanup(engine.Stop)
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)
	req.NoError(engine.Open(context.Background(), general))

	// the worker holds the first one in the sink, the second fills the queue
	req.NoError(engine.Submit(context.Background(), text("m1", "alice", 1, "one")))
	req.Eventually(func() bool { return len(engine.QueueStats()) == 1 && engine.QueueStats()[0].Length == 0 }, time.Second, 5*time.Millisecond)
	req.NoError(engine.Submit(context.Background(), text("m2", "alice", 2, "two")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	blocked := text("m3", "alice", 3, "three")
	req.ErrorIs(engine.Submit(ctx, blocked), context.DeadlineExceeded)
	req.Equal(uint64(2), engine.IngestStats().Accepted)

	unblock()
	req.NoError(engine.Submit(context.Background(), blocked))
	req.Eventually(func() bool {
		return len(engine.Query().VisibleMessages(general, "alice")) == 3
	}, time.Second, 5*time.Millisecond)
	req.Equal(uint64(0), engine.IngestStats().Duplicates)
}

func TestEngine_CloseKeepsProjectionAndReopenResubscribes(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	source := mocks.NewMockMutationSource(ctrl)
	sub := mocks.NewMockSubscription(ctrl)
	f := &feed{}
	source.EXPECT().Subscribe(gomock.Any(), general, gomock.Any()).
		DoAndReturn(func(ctx context.Context, roomID domain.RoomID, cb func(event.RawMutation)) (contract.Subscription, error) {
			_, _ = f.subscribe(ctx, roomID, cb)
			return sub, nil
		}).Times(2)
	sub.EXPECT().Close().Return(nil).Times(2)

	engine := newEngine(t, source, nil)
	req.NoError(engine.Open(context.Background(), general))
	req.NoError(engine.Open(context.Background(), general))
	f.deliver(text("m1", "bob", 1, "before close"))
	req.Eventually(func() bool {
		return len(engine.Query().VisibleMessages(general, "alice")) == 1
	}, time.Second, 5*time.Millisecond)

	req.NoError(engine.Close(general))
	req.NoError(engine.Close(general))
	req.Len(engine.Query().VisibleMessages(general, "alice"), 1)

	// local writes are still accepted while closed
	req.NoError(engine.Submit(context.Background(), text("m2", "alice", 2, "offline")))
	req.Eventually(func() bool {
		return len(engine.Query().VisibleMessages(general, "alice")) == 2
	}, time.Second, 5*time.Millisecond)

	req.NoError(engine.Open(context.Background(), general))
	f.deliver(text("m1", "bob", 1, "before close"), text("m3", "bob", 3, "after reopen"))
	req.Eventually(func() bool {
		return len(engine.Query().VisibleMessages(general, "alice")) == 3
	}, time.Second, 5*time.Millisecond)
	req.Equal(uint64(1), engine.IngestStats().Duplicates)

	stats := engine.QueueStats()
	req.Len(stats, 1)
	req.Equal(general, stats[0].Room)
	req.Equal(16, stats[0].Capacity)
}

func TestEngine_UnauthorizedIsRejectedToSinks(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	source := mocks.NewMockMutationSource(ctrl)
	rejections := mocks.NewMockRejectionSink(ctrl)
	f := &feed{}
	source.EXPECT().Subscribe(gomock.Any(), general, gomock.Any()).DoAndReturn(f.subscribe)

	var rejected atomic.Value
	rejections.EXPECT().Reject(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r event.Rejection) error {
			rejected.Store(r.Mutation.Metadata().EventID)
			return nil
		})

	engine := newEngine(t, source, nil)
	engine.RegisterRejectionSinks(rejections)
	req.NoError(engine.Open(context.Background(), general))

	edit := event.RawMutation{
		EventID: "evt-edit", Kind: event.KindMessageEdited, RoomID: string(general),
		ActorID: "mallory", Timestamp: 2, MessageID: "m1", Text: "pwned",
	}
	f.deliver(text("m1", "bob", 1, "original"), edit)

	req.Eventually(func() bool {
		id, _ := rejected.Load().(string)
		return id == "evt-edit"
	}, time.Second, 5*time.Millisecond)
	req.Equal("original", engine.Query().VisibleMessages(general, "alice")[0].Content.Text)
}

func TestEngine_DeltasReachSubscribersAndStore(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	source := mocks.NewMockMutationSource(ctrl)
	store := mocks.NewMockProjectionStore(ctrl)
	sink := mocks.NewMockDeltaSink(ctrl)
	f := &feed{}

	var saved, consumed atomic.Int32
	store.EXPECT().Load(gomock.Any(), general).Return(nil, nil)
	store.EXPECT().Save(gomock.Any(), general, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ domain.RoomID, s projection.Snapshot) error {
			if len(s.Messages) == 1 {
				saved.Add(1)
			}
			return nil
		}).MinTimes(1)
	source.EXPECT().Subscribe(gomock.Any(), general, gomock.Any()).DoAndReturn(f.subscribe)
	sink.EXPECT().Consume(gomock.Any(), gomock.Cond(func(d event.Delta) bool {
		return d.Room == general && len(d.Messages) == 1
	})).DoAndReturn(func(context.Context, event.Delta) error {
		consumed.Add(1)
		return nil
	})

	engine := newEngine(t, source, store)
	engine.Subscribe("ui", general, sink)
	req.NoError(engine.Open(context.Background(), general))
	f.deliver(text("m1", "bob", 1, "hello"))

	req.Eventually(func() bool { return consumed.Load() == 1 && saved.Load() >= 1 }, time.Second, 5*time.Millisecond)
}
