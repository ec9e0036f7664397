package db

import (
	"context"
	"errors"
	"time"

	"github.com/attpc/daqdash/model"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNoExperiment = errors.New("experiment settings have not been set")
	ErrRunActive    = errors.New("a run is already in progress")
	ErrNoActiveRun  = errors.New("no run is in progress")
)

type RunStore interface {
	Experiment(ctx context.Context) (model.Experiment, error)
	SetExperiment(ctx context.Context, exp model.Experiment) error
	LatestRun(ctx context.Context) (*model.Run, error)
	StartRun(ctx context.Context, title string, at time.Time) (model.Run, error)
	StopRun(ctx context.Context, at time.Time) (model.Run, error)
}

// NodeStore keeps the configured worker nodes and their last known status.
type NodeStore interface {
	ECCServers(ctx context.Context) ([]model.ECCServer, error)
	SaveECCServer(ctx context.Context, server model.ECCServer) error
	SetECCServerOnline(ctx context.Context, name string, online bool, at time.Time) error
	DataRouters(ctx context.Context) ([]model.DataRouter, error)
	SaveDataRouter(ctx context.Context, router model.DataRouter) error
	SetDataRouterStatus(ctx context.Context, name string, status model.RouterStatus, at time.Time) error
}

type LogStore interface {
	AppendLog(ctx context.Context, entry model.LogEntry) error
	RecentLogs(ctx context.Context, limit int) ([]model.LogEntry, error)
	PruneLogs(ctx context.Context, cutoff time.Time) (int64, error)
}

type Storage interface {
	RunStore
	NodeStore
	LogStore
	Ping(ctx context.Context) error
	Close()
}
