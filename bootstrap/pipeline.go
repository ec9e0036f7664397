// Package bootstrap brings a deployment from a bare container to a serving
// dashboard: wait for the database, migrate, collect static files, serve.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	StepWaitForDatabase = "wait-for-database"
	StepMigrate         = "migrate"
	StepCollectStatic   = "collect-static"
	StepServe           = "serve"
)

type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// StepError reports which step stopped the pipeline.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("bootstrap step %s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type Pipeline struct {
	steps []Step
}

func New(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

func (p *Pipeline) Steps() []string {
	names := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		names = append(names, s.Name)
	}

	return names
}

// Run executes the steps in order. The first failing step ends the run and
// no later step is started.
func (p *Pipeline) Run(ctx context.Context) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}

		start := time.Now()

		slog.InfoContext(ctx, "Running bootstrap step", "step", step.Name)

		if err := step.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "Bootstrap step failed", "step", step.Name, "error", err)

			return &StepError{Step: step.Name, Err: err}
		}

		slog.DebugContext(ctx, "Bootstrap step done", "step", step.Name, "took", time.Since(start))
	}

	return nil
}
