package routes

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/attpc/daqdash/layout"
	"github.com/attpc/daqdash/web/panels"
	cs "github.com/attpc/daqdash/web/components"
)

// PanelLookup finds a dashboard panel by id.
type PanelLookup interface {
	Get(id layout.PanelID) (panels.Panel, bool)
}

// Refresher runs every status check once.
type Refresher interface {
	RefreshAll(ctx context.Context) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerHandler holds all dependencies needed for the web server handlers.
type ServerHandler struct {
	Panels    PanelLookup
	Refresher Refresher
	Store     Pinger
	Options   cs.DashboardOptions
}

// SafeRenderTemplate safely renders a templ component to an http.ResponseWriter.
func SafeRenderTemplate(ctx context.Context, component templ.Component, w http.ResponseWriter) error {
	// Do not write to w because it implies 200 status
	var buf bytes.Buffer

	err := component.Render(ctx, &buf)
	if err != nil {
		return fmt.Errorf("could not render template: %w", err)
	}

	// Template executed successfully to the buffer.
	// Now, copy it over to the ResponseWriter
	// This implies a 200 OK status code
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")

	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("Failed to write response", "error", err)

		return fmt.Errorf("could not write to response writer: %w", err)
	}

	return nil
}

// DashboardHandle serves the page with one placeholder per panel.
func (s *ServerHandler) DashboardHandle(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Handling dashboard request")

	if err := SafeRenderTemplate(r.Context(), cs.Dashboard(layout.Compose(), s.Options), w); err != nil {
		slog.Error("Failed to render dashboard", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
