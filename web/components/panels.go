package components

import (
	"strconv"
	"time"

	"github.com/a-h/templ"
	"github.com/attpc/daqdash/layout"
	"github.com/attpc/daqdash/model"
)

// RunInfoView is what the run info panel shows. Experiment and Run are nil
// when not configured yet.
type RunInfoView struct {
	Experiment *model.Experiment
	Run        *model.Run
	Now        time.Time
}

func RunInfo(v RunInfoView) templ.Component {
	return panelBody(layout.RunInfo, func(h *htmlWriter) {
		h.raw(`<table><tbody>`)

		h.raw(`<tr><th>Experiment</th><td>`)

		if v.Experiment != nil {
			h.text(v.Experiment.Name)
		} else {
			h.raw(`<span class="muted">not set</span>`)
		}

		h.raw(`</td></tr>`)

		if v.Run == nil {
			h.raw(`<tr><th>Run</th><td><span class="muted">no runs yet</span></td></tr>`)
		} else {
			h.raw(`<tr><th>Run</th><td>`)
			h.text(strconv.Itoa(v.Run.Number))
			h.raw(` `)

			if v.Run.Active() {
				badge(h, BadgeOK, "running")
			} else {
				badge(h, BadgeNeutral, "stopped")
			}

			h.raw(`</td></tr><tr><th>Title</th><td>`)
			h.text(v.Run.Title)
			h.raw(`</td></tr><tr><th>Started</th><td>`)
			h.text(FormatTime(&v.Run.StartedAt))
			h.raw(`</td></tr><tr><th>Elapsed</th><td>`)
			h.text(FormatDuration(v.Run.Elapsed(v.Now)))
			h.raw(`</td></tr>`)
		}

		if v.Experiment != nil && v.Experiment.TargetRunDuration > 0 {
			h.raw(`<tr><th>Target duration</th><td>`)
			h.text(FormatDuration(v.Experiment.TargetRunDuration))

			if v.Run != nil && v.Run.Active() && v.Run.Elapsed(v.Now) >= v.Experiment.TargetRunDuration {
				h.raw(` `)
				badge(h, BadgeWarn, "target reached")
			}

			h.raw(`</td></tr>`)
		}

		h.raw(`</tbody></table>`)
	})
}

func ECCServers(servers []model.ECCServer) templ.Component {
	return panelBody(layout.ServerStatus, func(h *htmlWriter) {
		if len(servers) == 0 {
			h.raw(`<p class="muted">No ECC servers configured.</p>`)

			return
		}

		h.raw(`<table><thead><tr><th>Name</th><th>Address</th><th>Status</th><th>Checked</th></tr></thead><tbody>`)

		for _, s := range servers {
			h.raw(`<tr><td>`)
			h.text(s.Name)
			h.raw(`</td><td>`)
			h.text(s.Address + ":" + strconv.Itoa(s.Port))
			h.raw(`</td><td>`)
			onlineBadge(h, s.Online)
			h.raw(`</td><td class="muted">`)
			h.text(FormatTime(s.CheckedAt))
			h.raw(`</td></tr>`)
		}

		h.raw(`</tbody></table>`)
	})
}

func DataRouters(routers []model.DataRouter) templ.Component {
	return panelBody(layout.DataRouterStatus, func(h *htmlWriter) {
		if len(routers) == 0 {
			h.raw(`<p class="muted">No data routers configured.</p>`)

			return
		}

		h.raw(`<table><thead><tr><th>Name</th><th>Address</th><th>Type</th><th>Status</th><th>Staging</th></tr></thead><tbody>`)

		for _, r := range routers {
			h.raw(`<tr><td>`)
			h.text(r.Name)
			h.raw(`</td><td>`)
			h.text(r.Address + ":" + strconv.Itoa(r.Port))
			h.raw(`</td><td>`)
			h.text(string(r.Type))
			h.raw(`</td><td>`)
			onlineBadge(h, r.Online)
			h.raw(`</td><td>`)

			if r.StagingClean {
				badge(h, BadgeOK, "clean")
			} else {
				badge(h, BadgeWarn, "has files")
			}

			h.raw(`</td></tr>`)
		}

		h.raw(`</tbody></table>`)
	})
}

func Logs(entries []model.LogEntry) templ.Component {
	return panelBody(layout.RecentLogs, func(h *htmlWriter) {
		if len(entries) == 0 {
			h.raw(`<p class="muted">Nothing logged yet.</p>`)

			return
		}

		h.raw(`<table class="logs"><tbody>`)

		for _, e := range entries {
			h.raw(`<tr><td class="muted">`)
			h.text(FormatTime(&e.Time))
			h.raw(`</td><td>`)
			badge(h, levelBadge(e.Level), e.Level)
			h.raw(`</td><td>`)
			h.text(e.Message)

			if e.Attrs != "" {
				h.raw(` <span class="muted">`)
				h.text(e.Attrs)
				h.raw(`</span>`)
			}

			h.raw(`</td></tr>`)
		}

		h.raw(`</tbody></table>`)
	})
}

func levelBadge(level string) BadgeKind {
	switch level {
	case "ERROR":
		return BadgeBad
	case "WARN":
		return BadgeWarn
	default:
		return BadgeNeutral
	}
}

func stateBadge(state model.SystemState) BadgeKind {
	switch state {
	case model.StateReady:
		return BadgeOK
	case model.StateDegraded, model.StateStagingDirty:
		return BadgeWarn
	case model.StateOffline:
		return BadgeBad
	default:
		return BadgeNeutral
	}
}

func SystemStatus(status model.SystemStatus) templ.Component {
	return panelBody(layout.SystemStatus, func(h *htmlWriter) {
		h.raw(`<p class="system-state">`)
		badge(h, stateBadge(status.State), string(status.State))
		h.raw(`</p><table><tbody><tr><th>ECC servers online</th><td>`)
		h.rawf("%d / %d", status.ECCOnline, status.ECCTotal)
		h.raw(`</td></tr><tr><th>Data routers online</th><td>`)
		h.rawf("%d / %d", status.RoutersOnline, status.RoutersTotal)
		h.raw(`</td></tr></tbody></table>`)
	})
}

// ControlsResult is the outcome of the last action taken from the controls panel.
// The zero value means nothing was done yet.
type ControlsResult struct {
	Message string
	Err     error
	At      time.Time
}

func Controls(result ControlsResult) templ.Component {
	return panelBody(layout.SystemControls, func(h *htmlWriter) {
		h.raw(`<button type="button" data-on:click="@post('/controls/refresh')">Refresh status</button>`)

		switch {
		case result.Err != nil:
			h.raw(`<p class="panel-error">`)
			h.text(result.Err.Error())
			h.raw(`</p>`)
		case result.Message != "":
			h.raw(`<p>`)
			h.text(result.Message)

			if !result.At.IsZero() {
				h.raw(` <span class="muted">`)
				h.text(FormatTime(&result.At))
				h.raw(`</span>`)
			}

			h.raw(`</p>`)
		}
	})
}
