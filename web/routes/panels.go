package routes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/attpc/daqdash/layout"
	cs "github.com/attpc/daqdash/web/components"
	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"
)

const refreshAllTimeout = 30 * time.Second

// PanelUpdates streams one panel for as long as the browser keeps it mounted.
// The panel is rendered right away and then on every tick of its interval.
func (s *ServerHandler) PanelUpdates(w http.ResponseWriter, r *http.Request) {
	id := layout.PanelID(chi.URLParam(r, "panel"))

	panel, ok := s.Panels.Get(id)
	if !ok {
		http.Error(w, "unknown panel "+string(id), http.StatusNotFound)

		return
	}

	ctx := r.Context()
	sse := datastar.NewSSE(w, r)

	slog.DebugContext(ctx, "Panel mounted", "panel", id)
	defer slog.DebugContext(ctx, "Panel unmounted", "panel", id)

	patch := func() bool {
		if err := sse.PatchElementTempl(panel.Refresh(ctx)); err != nil {
			if ctx.Err() == nil {
				slog.ErrorContext(ctx, "Could not send panel update", "panel", id, "error", err)
				_ = sse.ConsoleError(err)
			}

			return false
		}

		return true
	}

	if !patch() || panel.Interval() <= 0 {
		return
	}

	ticker := time.NewTicker(panel.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !patch() {
				return
			}
		}
	}
}

// ControlsRefresh runs all status checks and reports the outcome in the controls panel.
func (s *ServerHandler) ControlsRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), refreshAllTimeout)
	defer cancel()

	sse := datastar.NewSSE(w, r)

	slog.InfoContext(ctx, "Refreshing status of all nodes")

	result := cs.ControlsResult{At: time.Now()}

	if err := s.Refresher.RefreshAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Status refresh failed", "error", err)

		result.Err = err
	} else {
		result.Message = "Status refreshed"
	}

	if err := sse.PatchElementTempl(cs.Controls(result)); err != nil {
		_ = sse.ConsoleError(err)
	}
}
