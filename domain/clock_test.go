package domain

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type frozen struct{ now time.Time }

func (f frozen) Now() time.Time { return f.now }

func TestHybridClock_TickIsStrictlyIncreasing(t *testing.T) {
	req := require.New(t)
	clock := NewHybridClock(frozen{now: time.UnixMilli(1_000)})

	req.Equal(Timestamp(1_000), clock.Tick())
	req.Equal(Timestamp(1_001), clock.Tick())
	req.Equal(Timestamp(1_002), clock.Tick())
}

func TestHybridClock_ObserveMovesPastRemoteStamps(t *testing.T) {
	req := require.New(t)
	clock := NewHybridClock(frozen{now: time.UnixMilli(1_000)})

	clock.Observe(5_000)
	req.Equal(Timestamp(5_001), clock.Tick())
	// older remote stamps change nothing
	clock.Observe(10)
	req.Equal(Timestamp(5_002), clock.Tick())
}

func TestHybridClock_ConcurrentTicksAreUnique(t *testing.T) {
	req := require.New(t)
	clock := NewHybridClock(nil)
	const n = 1000

	var mu sync.Mutex
	seen := make(map[Timestamp]struct{}, n)
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ts := clock.Tick()
			mu.Lock()
			seen[ts] = struct{}{}
			mu.Unlock()
		}()
	}
	wg.Wait()
	req.Len(seen, n)
}

func TestStamp_After(t *testing.T) {
	req := require.New(t)
	req.True(Stamp{At: 2, Seq: 1}.After(Stamp{At: 1, Seq: 9}))
	req.True(Stamp{At: 2, Seq: 3}.After(Stamp{At: 2, Seq: 1}))
	req.False(Stamp{At: 2, Seq: 1}.After(Stamp{At: 2, Seq: 1}))
	req.True(Stamp{}.IsZero())
}
