package routes_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/attpc/daqdash/layout"
	"github.com/attpc/daqdash/web/panels"
)

// PanelMock renders a numbered body on every refresh.
type PanelMock struct {
	PanelID       layout.PanelID
	RefreshPeriod time.Duration

	mu        sync.Mutex
	refreshes int
}

func (p *PanelMock) ID() layout.PanelID {
	return p.PanelID
}

func (p *PanelMock) Interval() time.Duration {
	return p.RefreshPeriod
}

func (p *PanelMock) Refresh(_ context.Context) templ.Component {
	p.mu.Lock()
	p.refreshes++
	n := p.refreshes
	p.mu.Unlock()

	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<div id="panel-%s-body">refresh %d</div>`, p.PanelID, n)

		return err
	})
}

func (p *PanelMock) Refreshes() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.refreshes
}

// PanelSetMock is a manual mock implementation of the PanelLookup interface
type PanelSetMock map[layout.PanelID]panels.Panel

func (m PanelSetMock) Get(id layout.PanelID) (panels.Panel, bool) {
	p, ok := m[id]

	return p, ok
}

type RefresherMock struct {
	ReturnError error
	CallCount   int
}

func (m *RefresherMock) RefreshAll(_ context.Context) error {
	m.CallCount++

	return m.ReturnError
}

type PingerMock struct {
	ReturnError error
}

func (m PingerMock) Ping(_ context.Context) error {
	return m.ReturnError
}
