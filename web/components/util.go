package components

import (
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

// htmlWriter keeps the first write error so components can write markup
// without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}

	_, h.err = io.WriteString(h.w, s)
}

// rawf writes markup from format. String args must already be escaped;
// dynamic text goes through text.
func (h *htmlWriter) rawf(format string, args ...any) {
	if h.err != nil {
		return
	}

	_, h.err = fmt.Fprintf(h.w, format, args...)
}

// text writes s with HTML escaping.
func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	d = d.Round(time.Second)
	hours := int(d / time.Hour)
	minutes := int(d % time.Hour / time.Minute)
	seconds := int(d % time.Minute / time.Second)

	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "never"
	}

	return t.Local().Format(time.DateTime)
}

type BadgeKind string

const (
	BadgeOK      BadgeKind = "ok"
	BadgeWarn    BadgeKind = "warn"
	BadgeBad     BadgeKind = "bad"
	BadgeNeutral BadgeKind = ""
)

func badge(h *htmlWriter, kind BadgeKind, label string) {
	class := "badge"
	if kind != BadgeNeutral {
		class += " badge-" + string(kind)
	}

	h.rawf(`<span class="%s">`, templ.EscapeString(class))
	h.text(label)
	h.raw(`</span>`)
}

func onlineBadge(h *htmlWriter, online bool) {
	if online {
		badge(h, BadgeOK, "online")
	} else {
		badge(h, BadgeBad, "offline")
	}
}
