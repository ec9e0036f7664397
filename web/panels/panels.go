// Package panels holds the dashboard panels. A panel fetches a snapshot of
// the data it shows and renders it; each open page keeps refreshing its
// panels on their own schedule.
package panels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/a-h/templ"
	"github.com/attpc/daqdash/db"
	"github.com/attpc/daqdash/layout"
	"github.com/attpc/daqdash/model"
	cs "github.com/attpc/daqdash/web/components"
)

const (
	DefaultRefreshInterval = 5 * time.Second
	DefaultLogLimit        = 25
	fetchTimeout           = 5 * time.Second
)

type Panel interface {
	ID() layout.PanelID
	// Interval between refreshes. Zero means the panel is rendered once.
	Interval() time.Duration
	// Refresh loads fresh data and renders the panel body. Load failures are
	// rendered as part of the body.
	Refresh(ctx context.Context) templ.Component
}

type panel[T any] struct {
	id       layout.PanelID
	interval time.Duration
	fetch    func(ctx context.Context) (T, error)
	view     func(T) templ.Component
}

// New builds a panel that renders view(fetch()) on every refresh.
func New[T any](
	id layout.PanelID,
	interval time.Duration,
	fetch func(ctx context.Context) (T, error),
	view func(T) templ.Component,
) Panel {
	return &panel[T]{id: id, interval: interval, fetch: fetch, view: view}
}

func (p *panel[T]) ID() layout.PanelID {
	return p.id
}

func (p *panel[T]) Interval() time.Duration {
	return p.interval
}

func (p *panel[T]) Refresh(ctx context.Context) templ.Component {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	snapshot, err := p.fetch(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Could not load panel data", "panel", p.id, "error", err)

		return cs.PanelError(p.id, err)
	}

	return p.view(snapshot)
}

type Config struct {
	RefreshInterval time.Duration
	LogLimit        int
}

// Set is the collection of panels shown on the dashboard.
type Set struct {
	panels map[layout.PanelID]Panel
}

// NewSet builds every dashboard panel over store.
func NewSet(store db.Storage, cfg Config) *Set {
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = DefaultRefreshInterval
	}

	if cfg.LogLimit <= 0 {
		cfg.LogLimit = DefaultLogLimit
	}

	all := []Panel{
		New(layout.RunInfo, cfg.RefreshInterval, runInfoFetcher(store), cs.RunInfo),
		New(layout.ServerStatus, cfg.RefreshInterval, store.ECCServers, cs.ECCServers),
		New(layout.DataRouterStatus, cfg.RefreshInterval, store.DataRouters, cs.DataRouters),
		New(layout.RecentLogs, cfg.RefreshInterval, func(ctx context.Context) ([]model.LogEntry, error) {
			return store.RecentLogs(ctx, cfg.LogLimit)
		}, cs.Logs),
		New(layout.SystemStatus, cfg.RefreshInterval, systemStatusFetcher(store), cs.SystemStatus),
		New(layout.SystemControls, 0, func(context.Context) (cs.ControlsResult, error) {
			return cs.ControlsResult{}, nil
		}, cs.Controls),
	}

	s := &Set{panels: make(map[layout.PanelID]Panel, len(all))}
	for _, p := range all {
		s.panels[p.ID()] = p
	}

	return s
}

func (s *Set) Get(id layout.PanelID) (Panel, bool) {
	p, ok := s.panels[id]

	return p, ok
}

// Len reports how many panels the set holds.
func (s *Set) Len() int {
	return len(s.panels)
}

func runInfoFetcher(store db.RunStore) func(ctx context.Context) (cs.RunInfoView, error) {
	return func(ctx context.Context) (cs.RunInfoView, error) {
		view := cs.RunInfoView{Now: time.Now()}

		exp, err := store.Experiment(ctx)

		switch {
		case errors.Is(err, db.ErrNoExperiment):
		case err != nil:
			return view, fmt.Errorf("could not load experiment: %w", err)
		default:
			view.Experiment = &exp
		}

		run, err := store.LatestRun(ctx)
		if err != nil {
			return view, fmt.Errorf("could not load latest run: %w", err)
		}

		view.Run = run

		return view, nil
	}
}

func systemStatusFetcher(store db.NodeStore) func(ctx context.Context) (model.SystemStatus, error) {
	return func(ctx context.Context) (model.SystemStatus, error) {
		servers, err := store.ECCServers(ctx)
		if err != nil {
			return model.SystemStatus{}, err
		}

		routers, err := store.DataRouters(ctx)
		if err != nil {
			return model.SystemStatus{}, err
		}

		return model.SummarizeSystem(servers, routers), nil
	}
}
