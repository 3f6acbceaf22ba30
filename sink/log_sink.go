package sink

import (
	"chat-sync/domain/event"
	"context"
	"log/slog"
)

// LogSink traces every delta and rejection of the engine.
type LogSink struct {
	log *slog.Logger
}

func NewLogSink(log *slog.Logger) LogSink {
	return LogSink{log: log}
}

func (s LogSink) Consume(_ context.Context, d event.Delta) error {
	s.log.Debug("Delta applied",
		"room", d.Room,
		"version", d.Version,
		"messages", d.Messages,
		"members", d.Members,
		"pins", d.Pins,
		"typing", d.Typing,
		"cause", d.Cause,
	)
	return nil
}

func (s LogSink) Reject(_ context.Context, r event.Rejection) error {
	meta := r.Mutation.Metadata()
	s.log.Info("Mutation rejected",
		"room", meta.Room,
		"event_id", meta.EventID,
		"kind", event.KindOf(r.Mutation),
		"actor", meta.Actor,
		"reason", r.Reason,
	)
	return nil
}
