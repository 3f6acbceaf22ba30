// Package ws receives the mutations of a room over a websocket.
package ws

import (
	"chat-sync/contract"
	"chat-sync/domain"
	"chat-sync/domain/event"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultMinBackoff = 200 * time.Millisecond
	DefaultMaxBackoff = 30 * time.Second
)

type Config struct {
	// URL is the ws:// or wss:// endpoint, the room is added as a query parameter.
	URL        string
	Token      string
	MinBackoff time.Duration
	MaxBackoff time.Duration
}

// Source is a contract.MutationSource reading JSON RawMutation frames.
// Each subscription keeps its own connection and reconnects with an
// exponential backoff until it is closed.
type Source struct {
	log        *slog.Logger
	url        string
	token      string
	minBackoff time.Duration
	maxBackoff time.Duration
	dialer     *websocket.Dialer
}

func NewSource(log *slog.Logger, cfg Config) *Source {
	if cfg.MinBackoff <= 0 {
		cfg.MinBackoff = DefaultMinBackoff
	}
	if cfg.MaxBackoff < cfg.MinBackoff {
		cfg.MaxBackoff = max(DefaultMaxBackoff, cfg.MinBackoff)
	}
	return &Source{
		log:        log,
		url:        cfg.URL,
		token:      cfg.Token,
		minBackoff: cfg.MinBackoff,
		maxBackoff: cfg.MaxBackoff,
		dialer:     websocket.DefaultDialer,
	}
}

func (s *Source) Subscribe(ctx context.Context, roomID domain.RoomID, onMutation func(event.RawMutation)) (contract.Subscription, error) {
	joinURL, err := buildJoinURL(s.url, roomID)
	if err != nil {
		return nil, err
	}
	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{cancel: cancel, done: make(chan struct{})}
	go s.loop(subCtx, sub, joinURL, roomID, onMutation)
	return sub, nil
}

func buildJoinURL(base string, roomID domain.RoomID) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "ws" && parsed.Scheme != "wss" {
		return "", fmt.Errorf("invalid scheme for websocket: %s", parsed.Scheme)
	}
	query := parsed.Query()
	query.Set("room", string(roomID))
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (s *Source) loop(ctx context.Context, sub *subscription, joinURL string, roomID domain.RoomID, onMutation func(event.RawMutation)) {
	defer close(sub.done)
	log := s.log.With("room", roomID)
	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	backoff := s.minBackoff
	for ctx.Err() == nil {
		conn, _, err := s.dialer.DialContext(ctx, joinURL, header)
		if err != nil {
			log.Warn("Unable to connect, retrying", "backoff", backoff, "error", err)
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, s.maxBackoff)
			continue
		}
		if !sub.attach(conn) {
			_ = conn.Close()
			return
		}
		log.Debug("Connected")
		backoff = s.minBackoff

		err = s.read(ctx, conn, log, onMutation)
		sub.detach()
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		log.Warn("Connection lost, reconnecting", "error", err)
		if !sleep(ctx, backoff) {
			return
		}
	}
}

// read delivers frames until the connection fails. Frames that are not
// valid JSON are skipped, validation is left to ingest.
func (s *Source) read(ctx context.Context, conn *websocket.Conn, log *slog.Logger, onMutation func(event.RawMutation)) error {
	for {
		messageType, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var raw event.RawMutation
		if err := json.Unmarshal(payload, &raw); err != nil {
			log.Warn("Undecodable frame skipped", "error", err)
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		onMutation(raw)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

type subscription struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *subscription) attach(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conn = conn
	return true
}

func (s *subscription) detach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = nil
}

// Close stops delivery: once it returns, the callback is not called again.
func (s *subscription) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.cancel()
	if s.conn != nil {
		_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		// unblocks the pending read
		_ = s.conn.Close()
	}
	s.mu.Unlock()
	<-s.done
	return nil
}
