// Package layout describes where each dashboard panel goes on the page.
//
// The page is fixed: two columns whose contents and order never change at
// runtime. Panels themselves are opaque here; only their identifiers are
// placed.
package layout

type PanelID string

const (
	RunInfo          PanelID = "run-info"
	ServerStatus     PanelID = "server-status"
	DataRouterStatus PanelID = "data-router-status"
	RecentLogs       PanelID = "recent-logs"
	SystemStatus     PanelID = "system-status"
	SystemControls   PanelID = "system-controls"
)

var titles = map[PanelID]string{
	RunInfo:          "Run Info",
	ServerStatus:     "ECC Servers",
	DataRouterStatus: "Data Routers",
	RecentLogs:       "Recent Logs",
	SystemStatus:     "System Status",
	SystemControls:   "System Controls",
}

// Title returns the heading shown above the panel.
func (p PanelID) Title() string {
	if t, ok := titles[p]; ok {
		return t
	}

	return string(p)
}

type ColumnName string

const (
	Primary   ColumnName = "primary"
	Secondary ColumnName = "secondary"
)

type Column struct {
	Name   ColumnName
	Panels []PanelID
}

type Page struct {
	Columns []Column
}

// Compose builds the dashboard layout. Every call returns a new value, so
// callers may modify the result freely.
func Compose() Page {
	return Page{
		Columns: []Column{
			{
				Name:   Primary,
				Panels: []PanelID{RunInfo, ServerStatus, DataRouterStatus, RecentLogs},
			},
			{
				Name:   Secondary,
				Panels: []PanelID{SystemStatus, SystemControls},
			},
		},
	}
}

// Panels lists every slot on the page in column order.
func (p Page) Panels() []PanelID {
	result := make([]PanelID, 0, 6)

	for _, c := range p.Columns {
		result = append(result, c.Panels...)
	}

	return result
}
