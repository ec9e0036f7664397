package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/attpc/daqdash/model"
)

func (s *SQLStorage) Experiment(ctx context.Context) (model.Experiment, error) {
	var (
		exp     model.Experiment
		seconds int64
	)

	err := s.db.QueryRowContext(ctx,
		`select name, target_run_duration from experiment where id = 1`).
		Scan(&exp.Name, &seconds)
	if errors.Is(err, sql.ErrNoRows) {
		return exp, ErrNoExperiment
	}

	if err != nil {
		return exp, fmt.Errorf("could not read experiment: %w", err)
	}

	exp.TargetRunDuration = time.Duration(seconds) * time.Second

	return exp, nil
}

func (s *SQLStorage) SetExperiment(ctx context.Context, exp model.Experiment) error {
	_, err := s.db.ExecContext(ctx,
		`insert into experiment (id, name, target_run_duration) values (1, $1, $2)
		on conflict (id) do update set name = excluded.name, target_run_duration = excluded.target_run_duration`,
		exp.Name, int64(exp.TargetRunDuration/time.Second))
	if err != nil {
		return fmt.Errorf("could not save experiment: %w", err)
	}

	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func latestRun(ctx context.Context, q queryRower) (*model.Run, error) {
	var (
		run     model.Run
		started time.Time
		stopped sql.NullTime
	)

	err := q.QueryRowContext(ctx,
		`select run_number, title, started_at, stopped_at from runs order by run_number desc limit 1`).
		Scan(&run.Number, &run.Title, &started, &stopped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("could not read latest run: %w", err)
	}

	run.StartedAt = started
	run.StoppedAt = nullTime(stopped)

	return &run, nil
}

// LatestRun returns the most recent run, or nil if no run was ever started.
func (s *SQLStorage) LatestRun(ctx context.Context) (*model.Run, error) {
	return latestRun(ctx, s.db)
}

// StartRun begins the next run. Only one run may be active at a time.
func (s *SQLStorage) StartRun(ctx context.Context, title string, at time.Time) (model.Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Run{}, fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	last, err := latestRun(ctx, tx)
	if err != nil {
		return model.Run{}, err
	}

	run := model.Run{Number: 1, Title: title, StartedAt: at.UTC()}

	if last != nil {
		if last.Active() {
			return model.Run{}, fmt.Errorf("cannot start run: %w (run %d)", ErrRunActive, last.Number)
		}

		run.Number = last.Number + 1
	}

	_, err = tx.ExecContext(ctx,
		`insert into runs (run_number, title, started_at) values ($1, $2, $3)`,
		run.Number, run.Title, run.StartedAt)
	if err != nil {
		return model.Run{}, fmt.Errorf("could not insert run %d: %w", run.Number, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Run{}, fmt.Errorf("could not commit run %d: %w", run.Number, err)
	}

	return run, nil
}

// StopRun ends the active run.
func (s *SQLStorage) StopRun(ctx context.Context, at time.Time) (model.Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Run{}, fmt.Errorf("could not begin transaction: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	last, err := latestRun(ctx, tx)
	if err != nil {
		return model.Run{}, err
	}

	if last == nil || !last.Active() {
		return model.Run{}, ErrNoActiveRun
	}

	stopped := at.UTC()

	_, err = tx.ExecContext(ctx,
		`update runs set stopped_at = $1 where run_number = $2`, stopped, last.Number)
	if err != nil {
		return model.Run{}, fmt.Errorf("could not stop run %d: %w", last.Number, err)
	}

	if err := tx.Commit(); err != nil {
		return model.Run{}, fmt.Errorf("could not commit run %d: %w", last.Number, err)
	}

	last.StoppedAt = &stopped

	return *last, nil
}
