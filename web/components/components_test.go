package components_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/attpc/daqdash/layout"
	"github.com/attpc/daqdash/model"
	"github.com/attpc/daqdash/web/components"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))

	return buf.String()
}

func TestDashboardEscapesOptions(t *testing.T) {
	html := render(t, components.Dashboard(layout.Compose(), components.DashboardOptions{
		Title:  "<b>DAQ</b>",
		Script: `/static/js/datastar.js"><script>alert(1)</script>`,
	}))

	assert.Contains(t, html, "&lt;b&gt;DAQ&lt;/b&gt;")
	assert.NotContains(t, html, "<b>DAQ</b>")
	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestDashboard(t *testing.T) {
	page := layout.Compose()
	html := render(t, components.Dashboard(page, components.DashboardOptions{
		Stylesheet: "/static/style.css",
		Script:     "/static/js/datastar.js",
	}))

	assert.Contains(t, html, "<!doctype html>")
	assert.Contains(t, html, `href="/static/style.css"`)
	assert.Contains(t, html, `<script type="module" src="/static/js/datastar.js"></script>`)

	t.Run("every slot has a placeholder that opens its stream", func(t *testing.T) {
		for _, id := range page.Panels() {
			assert.Equal(t, 1, strings.Count(html, `id="panel-`+string(id)+`"`), id)
			assert.Contains(t, html, `data-init="@get('/panels/`+string(id)+`/updates')"`)
			assert.Contains(t, html, `id="panel-`+string(id)+`-body"`)
		}
	})

	t.Run("slots keep the layout order", func(t *testing.T) {
		last := -1

		for _, id := range page.Panels() {
			pos := strings.Index(html, `id="panel-`+string(id)+`"`)
			assert.Greater(t, pos, last, id)
			last = pos
		}

		primary := strings.Index(html, "column-primary")
		secondary := strings.Index(html, "column-secondary")
		assert.Less(t, primary, strings.Index(html, `id="panel-recent-logs"`))
		assert.Less(t, strings.Index(html, `id="panel-recent-logs"`), secondary)
		assert.Less(t, secondary, strings.Index(html, `id="panel-system-status"`))
	})
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{name: "zero", in: 0, want: "00:00:00"},
		{name: "rounds seconds", in: 61*time.Second + 600*time.Millisecond, want: "00:01:02"},
		{name: "hours", in: 26*time.Hour + 3*time.Minute, want: "26:03:00"},
		{name: "negative", in: -time.Minute, want: "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, components.FormatDuration(tt.in))
		})
	}
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "never", components.FormatTime(nil))

	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.Local)
	assert.Equal(t, "2024-03-01 12:30:00", components.FormatTime(&at))
}

func TestRunInfo(t *testing.T) {
	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.Local)

	t.Run("nothing configured", func(t *testing.T) {
		html := render(t, components.RunInfo(components.RunInfoView{Now: start}))

		assert.Contains(t, html, `id="panel-run-info-body"`)
		assert.Contains(t, html, "not set")
		assert.Contains(t, html, "no runs yet")
	})

	t.Run("active run past its target", func(t *testing.T) {
		html := render(t, components.RunInfo(components.RunInfoView{
			Experiment: &model.Experiment{Name: "e20009", TargetRunDuration: time.Hour},
			Run:        &model.Run{Number: 42, Title: "Beam <on>", StartedAt: start},
			Now:        start.Add(time.Hour + time.Minute),
		}))

		assert.Contains(t, html, "e20009")
		assert.Contains(t, html, "42")
		assert.Contains(t, html, "running")
		assert.Contains(t, html, "Beam &lt;on&gt;")
		assert.Contains(t, html, "01:01:00")
		assert.Contains(t, html, "target reached")
	})
}

func TestNodeTables(t *testing.T) {
	html := render(t, components.ECCServers([]model.ECCServer{
		{Name: "ecc0", Address: "10.0.0.1", Port: 8083, Online: true},
		{Name: "ecc1", Address: "10.0.0.2", Port: 8083},
	}))

	assert.Contains(t, html, `id="panel-server-status-body"`)
	assert.Contains(t, html, "10.0.0.1:8083")
	assert.Equal(t, 1, strings.Count(html, ">online<"))
	assert.Equal(t, 1, strings.Count(html, ">offline<"))

	html = render(t, components.DataRouters([]model.DataRouter{
		{Name: "dr0", Address: "10.0.1.1", Port: 46005, Type: model.RouterICE, RouterStatus: model.RouterStatus{Online: true}},
	}))

	assert.Contains(t, html, `id="panel-data-router-status-body"`)
	assert.Contains(t, html, "ICE")
	assert.Contains(t, html, "has files")

	assert.Contains(t, render(t, components.ECCServers(nil)), "No ECC servers configured")
	assert.Contains(t, render(t, components.DataRouters(nil)), "No data routers configured")
}

func TestLogs(t *testing.T) {
	html := render(t, components.Logs([]model.LogEntry{
		{Time: time.Now(), Level: "WARN", Message: "Staging directory has GRAW files", Attrs: "data_router=dr0"},
	}))

	assert.Contains(t, html, "badge-warn")
	assert.Contains(t, html, "data_router=dr0")
	assert.Contains(t, render(t, components.Logs(nil)), "Nothing logged yet")
}

func TestSystemStatus(t *testing.T) {
	html := render(t, components.SystemStatus(model.SystemStatus{
		State: model.StateDegraded, ECCOnline: 1, ECCTotal: 2, RoutersOnline: 2, RoutersTotal: 2,
	}))

	assert.Contains(t, html, `id="panel-system-status-body"`)
	assert.Contains(t, html, "degraded")
	assert.Contains(t, html, "1 / 2")
	assert.Contains(t, html, "2 / 2")
}

func TestControls(t *testing.T) {
	html := render(t, components.Controls(components.ControlsResult{}))

	assert.Contains(t, html, `data-on:click="@post('/controls/refresh')"`)
	assert.NotContains(t, html, "panel-error")

	html = render(t, components.Controls(components.ControlsResult{Err: errors.New("could not list ECC servers")}))
	assert.Contains(t, html, "panel-error")
	assert.Contains(t, html, "could not list ECC servers")

	html = render(t, components.Controls(components.ControlsResult{Message: "Status refreshed", At: time.Now()}))
	assert.Contains(t, html, "Status refreshed")
}

func TestPanelError(t *testing.T) {
	html := render(t, components.PanelError(layout.RecentLogs, errors.New("database is locked")))

	assert.Contains(t, html, `id="panel-recent-logs-body"`)
	assert.Contains(t, html, "Could not load Recent Logs: database is locked")
}
