package model

import (
	"time"
)

type Experiment struct {
	Name              string
	TargetRunDuration time.Duration
}

// Run is a single data-taking run. StoppedAt is nil while the run is active.
type Run struct {
	Number    int
	Title     string
	StartedAt time.Time
	StoppedAt *time.Time
}

func (r *Run) Active() bool {
	return r.StoppedAt == nil
}

// Elapsed returns how long the run has been going (or lasted, once stopped).
func (r *Run) Elapsed(now time.Time) time.Duration {
	if r.StoppedAt != nil {
		return r.StoppedAt.Sub(r.StartedAt)
	}

	return now.Sub(r.StartedAt)
}

type ECCServer struct {
	Name      string
	Address   string
	Port      int
	Online    bool
	CheckedAt *time.Time
}

type RouterType string

const (
	RouterTCP  RouterType = "TCP"
	RouterFDT  RouterType = "FDT"
	RouterZBUF RouterType = "ZBUF"
	RouterICE  RouterType = "ICE"
)

func ParseRouterType(s string) (RouterType, bool) {
	switch t := RouterType(s); t {
	case RouterTCP, RouterFDT, RouterZBUF, RouterICE:
		return t, true
	default:
		return "", false
	}
}

type DataRouter struct {
	Name    string
	Address string
	Port    int
	Type    RouterType
	RouterStatus
	CheckedAt *time.Time
}

// RouterStatus is what a worker check learns about a data router.
type RouterStatus struct {
	Online       bool
	StagingClean bool
}

type LogEntry struct {
	Time    time.Time
	Level   string
	Message string
	Attrs   string
}

type SystemState string

const (
	StateNotConfigured SystemState = "not configured"
	StateReady         SystemState = "ready"
	StateDegraded      SystemState = "degraded"
	StateStagingDirty  SystemState = "staging dirty"
	StateOffline       SystemState = "offline"
)

type SystemStatus struct {
	State         SystemState
	ECCOnline     int
	ECCTotal      int
	RoutersOnline int
	RoutersTotal  int
}

// SummarizeSystem derives the overall state from the individual node statuses.
func SummarizeSystem(servers []ECCServer, routers []DataRouter) SystemStatus {
	status := SystemStatus{ECCTotal: len(servers), RoutersTotal: len(routers)}

	dirty := false

	for _, s := range servers {
		if s.Online {
			status.ECCOnline++
		}
	}

	for _, r := range routers {
		if r.Online {
			status.RoutersOnline++

			if !r.StagingClean {
				dirty = true
			}
		}
	}

	total := status.ECCTotal + status.RoutersTotal
	online := status.ECCOnline + status.RoutersOnline

	switch {
	case total == 0:
		status.State = StateNotConfigured
	case online == 0:
		status.State = StateOffline
	case online < total:
		status.State = StateDegraded
	case dirty:
		status.State = StateStagingDirty
	default:
		status.State = StateReady
	}

	return status
}
