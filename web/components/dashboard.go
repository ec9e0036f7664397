// Package components renders the dashboard markup.
package components

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/attpc/daqdash/layout"
)

type DashboardOptions struct {
	Title      string
	Stylesheet string
	// Script is the URL of the Datastar runtime.
	Script string
}

func PanelDOMID(id layout.PanelID) string {
	return "panel-" + string(id)
}

// BodyDOMID is the element replaced by every panel update.
func BodyDOMID(id layout.PanelID) string {
	return PanelDOMID(id) + "-body"
}

func UpdatesURL(id layout.PanelID) string {
	return "/panels/" + string(id) + "/updates"
}

// Dashboard renders the page shell: one placeholder per slot of page, in
// column order. Panels fill themselves in once the browser opens their streams.
func Dashboard(page layout.Page, opts DashboardOptions) templ.Component {
	if opts.Title == "" {
		opts.Title = "AT-TPC DAQ"
	}

	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}

		h.raw(`<!doctype html><html lang="en"><head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw(`<title>`)
		h.text(opts.Title)
		h.raw(`</title>`)

		if opts.Stylesheet != "" {
			h.rawf(`<link rel="stylesheet" href="%s">`, templ.EscapeString(opts.Stylesheet))
		}

		if opts.Script != "" {
			h.rawf(`<script type="module" src="%s"></script>`, templ.EscapeString(opts.Script))
		}

		h.raw(`</head><body><header><h1>`)
		h.text(opts.Title)
		h.raw(`</h1></header><main class="dashboard">`)

		for _, column := range page.Columns {
			h.rawf(`<div class="column column-%s">`, templ.EscapeString(string(column.Name)))

			for _, id := range column.Panels {
				if h.err != nil {
					return h.err
				}

				if err := PanelSlot(id).Render(ctx, w); err != nil {
					return err
				}
			}

			h.raw(`</div>`)
		}

		h.raw(`</main></body></html>`)

		return h.err
	})
}

// PanelSlot is the placeholder for one panel. Mounting it opens the panel's
// update stream; the stream closes when the slot goes away.
func PanelSlot(id layout.PanelID) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}

		h.rawf(`<section id="%s" class="panel" data-init="@get('%s')">`,
			templ.EscapeString(PanelDOMID(id)), templ.EscapeString(UpdatesURL(id)))
		h.raw(`<h2>`)
		h.text(id.Title())
		h.raw(`</h2>`)
		h.rawf(`<div id="%s" class="panel-body"><p class="muted">Loading...</p></div>`,
			templ.EscapeString(BodyDOMID(id)))
		h.raw(`</section>`)

		return h.err
	})
}

// panelBody wraps content in the element that panel updates replace.
func panelBody(id layout.PanelID, content func(h *htmlWriter)) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}

		h.rawf(`<div id="%s" class="panel-body">`, templ.EscapeString(BodyDOMID(id)))
		content(h)
		h.raw(`</div>`)

		return h.err
	})
}

// PanelError replaces a panel's content when its data could not be loaded.
func PanelError(id layout.PanelID, err error) templ.Component {
	return panelBody(id, func(h *htmlWriter) {
		h.raw(`<p class="panel-error">`)
		h.text("Could not load " + id.Title() + ": " + err.Error())
		h.raw(`</p>`)
	})
}
