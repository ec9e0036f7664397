package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/attpc/daqdash/model"
)

// Sink receives log records that should show up on the dashboard.
type Sink interface {
	AppendLog(ctx context.Context, entry model.LogEntry) error
}

// StoreHandler copies records at or above its level into a Sink and passes
// every record on to the next handler.
type StoreHandler struct {
	next   slog.Handler
	sink   Sink
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

func NewStoreHandler(next slog.Handler, sink Sink, level slog.Leveler) *StoreHandler {
	return &StoreHandler{next: next, sink: sink, level: level}
}

func (h *StoreHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level.Level() || h.next.Enabled(ctx, level)
}

func (h *StoreHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error

	if r.Level >= h.level.Level() {
		if err := h.sink.AppendLog(context.WithoutCancel(ctx), h.entry(r)); err != nil {
			errs = append(errs, fmt.Errorf("could not store log record: %w", err))
		}
	}

	if h.next.Enabled(ctx, r.Level) {
		if err := h.next.Handle(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (h *StoreHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.next = h.next.WithAttrs(attrs)
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)

	for _, a := range attrs {
		clone.attrs = append(clone.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}

	return &clone
}

func (h *StoreHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	clone := *h
	clone.next = h.next.WithGroup(name)
	clone.prefix = h.prefix + name + "."

	return &clone
}

func (h *StoreHandler) entry(r slog.Record) model.LogEntry {
	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}

	parts := make([]string, 0, len(h.attrs)+r.NumAttrs())

	for _, a := range h.attrs {
		parts = appendAttr(parts, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		parts = appendAttr(parts, h.prefix, a)

		return true
	})

	return model.LogEntry{
		Time:    when,
		Level:   r.Level.String(),
		Message: r.Message,
		Attrs:   strings.Join(parts, " "),
	}
}

func appendAttr(parts []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()

	if a.Equal(slog.Attr{}) {
		return parts
	}

	if a.Value.Kind() == slog.KindGroup {
		groupPrefix := prefix
		if a.Key != "" {
			groupPrefix = prefix + a.Key + "."
		}

		for _, inner := range a.Value.Group() {
			parts = appendAttr(parts, groupPrefix, inner)
		}

		return parts
	}

	return append(parts, prefix+a.Key+"="+a.Value.String())
}
