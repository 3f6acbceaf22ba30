package internal

import (
	"chat-sync/projection"
	"chat-sync/repositories"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed inspect.html
var templatesFS embed.FS

const DefaultPrefix = "proj:"

type InspectRow struct {
	Key    string
	Type   string
	Room   string
	Detail string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

type PageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

// DebugServer exposes the prometheus metrics and a read-only view of the
// badger keys of the daemon.
type DebugServer struct {
	log    *slog.Logger
	server *http.Server
}

func NewDebugServer(log *slog.Logger, addr string, db *badger.DB, gatherer prometheus.Gatherer,
	mapper RowMapper, stats StatsProvider) *DebugServer {
	if mapper == nil {
		mapper = DefaultMapper
	}
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		health := map[string]any{"status": "ok"}
		if stats != nil {
			for k, v := range stats() {
				health[k] = v
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(health); err != nil {
			log.Warn("Unable to write health", "error", err)
		}
	})
	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = DefaultPrefix
		}
		data := PageData{Prefix: prefix, Stats: make(map[string]any)}
		if stats != nil {
			data.Stats = stats()
		}
		err := db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				err := item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	return &DebugServer{
		log:    log,
		server: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
	}
}

func (s *DebugServer) Handler() http.Handler { return s.server.Handler }

// Run serves until ctx is canceled. It implements contract.Worker.
func (s *DebugServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("Debug server listening", "addr", s.server.Addr)
		errCh <- s.server.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// DefaultMapper decodes room snapshots ("proj:{room}") and rejections
// ("rej:{len}:{room}:..."). Anything else is shown by size.
func DefaultMapper(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:    key,
		Type:   "RAW",
		Room:   "-",
		Detail: "Size: " + strconv.Itoa(len(val)) + " bytes",
	}
	if room, ok := strings.CutPrefix(key, DefaultPrefix); ok {
		row.Type = "SNAPSHOT"
		row.Room = room
		var snapshot projection.Snapshot
		if err := json.Unmarshal(val, &snapshot); err != nil {
			row.Detail = "Undecodable: " + err.Error()
			return row
		}
		row.Detail = fmt.Sprintf("Version %d, %d messages, %d members, %d pins",
			snapshot.Version, len(snapshot.Messages), len(snapshot.Members), len(snapshot.Pins))
		return row
	}
	if room, ok := repositories.RejectionRoom(key); ok {
		row.Type = "REJECTION"
		row.Room = string(room)
		var rejection repositories.DiskRejection
		if err := json.Unmarshal(val, &rejection); err != nil {
			row.Detail = "Undecodable: " + err.Error()
			return row
		}
		row.Detail = fmt.Sprintf("%s by %s at %d: %s", rejection.Kind, rejection.Actor, rejection.At, rejection.Reason)
	}
	return row
}
