// Package worker runs commands on the DAQ worker nodes, the machines where
// the data router and the ECC server processes live.
package worker

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/alessio/shellescape"
)

const DefaultTailLines = 50

// Runner executes a shell command on a node and returns its standard output.
// A non-zero exit status is not an error: callers judge the output.
type Runner interface {
	Run(ctx context.Context, cmd string) (string, error)
}

type Session interface {
	Runner
	Close() error
}

// Dialer opens a session to the node known as host.
type Dialer interface {
	Dial(ctx context.Context, host string) (Session, error)
}

type Interface struct {
	runner Runner
}

func New(runner Runner) *Interface {
	return &Interface{runner: runner}
}

// FindDataRouter returns the directory where the data router is running,
// and therefore writing data. lsof must be available on the node.
func (w *Interface) FindDataRouter(ctx context.Context) (string, error) {
	out, err := w.runner.Run(ctx, "lsof -a -d cwd -c dataRouter -Fcn")
	if err != nil {
		return "", fmt.Errorf("could not run lsof: %w", err)
	}

	return ParseLsofCwd(out)
}

// GrawList lists the GRAW files in the data router's working directory.
func (w *Interface) GrawList(ctx context.Context) ([]string, error) {
	dir, err := w.FindDataRouter(ctx)
	if err != nil {
		return nil, err
	}

	return w.grawsIn(ctx, dir)
}

func (w *Interface) grawsIn(ctx context.Context, dir string) ([]string, error) {
	out, err := w.runner.Run(ctx, "ls -1 "+shellescape.Quote(dir)+"/*.graw")
	if err != nil {
		return nil, fmt.Errorf("could not list files in %s: %w", dir, err)
	}

	return ParseGrawList(out), nil
}

// WorkingDirIsClean reports whether the data router's staging directory has no GRAW files.
func (w *Interface) WorkingDirIsClean(ctx context.Context) (bool, error) {
	graws, err := w.GrawList(ctx)
	if err != nil {
		return false, err
	}

	return len(graws) == 0, nil
}

// RunDir is where OrganizeFiles puts the GRAW files of a run, relative to the
// data router's working directory.
func RunDir(experiment string, run int) string {
	return path.Join(experiment, fmt.Sprintf("run_%04d", run))
}

// OrganizeFiles moves the GRAW files out of the data router's working
// directory into <dir>/<experiment>/run_NNNN, creating it if needed. It
// returns the number of files moved.
func (w *Interface) OrganizeFiles(ctx context.Context, experiment string, run int) (int, error) {
	if experiment == "" || strings.Contains(experiment, "/") || experiment == ".." {
		return 0, fmt.Errorf("invalid experiment name %q", experiment)
	}

	dir, err := w.FindDataRouter(ctx)
	if err != nil {
		return 0, err
	}

	graws, err := w.grawsIn(ctx, dir)
	if err != nil {
		return 0, err
	}

	if len(graws) == 0 {
		return 0, nil
	}

	runDir := shellescape.Quote(path.Join(dir, RunDir(experiment, run)))

	if _, err := w.runner.Run(ctx, "mkdir -p "+runDir); err != nil {
		return 0, fmt.Errorf("could not create %s: %w", runDir, err)
	}

	if _, err := w.runner.Run(ctx, "mv "+shellescape.QuoteCommand(graws)+" "+runDir); err != nil {
		return 0, fmt.Errorf("could not move files into %s: %w", runDir, err)
	}

	return len(graws), nil
}

// ProcessStatus checks whether the ECC server and data router are running.
func (w *Interface) ProcessStatus(ctx context.Context) (ProcessStatus, error) {
	out, err := w.runner.Run(ctx, "ps -e")
	if err != nil {
		return ProcessStatus{}, fmt.Errorf("could not list processes: %w", err)
	}

	return ParseProcessList(out), nil
}

// TailFile returns the last lines of a text file on the node.
func (w *Interface) TailFile(ctx context.Context, filePath string, lines int) (string, error) {
	if lines <= 0 {
		lines = DefaultTailLines
	}

	out, err := w.runner.Run(ctx, fmt.Sprintf("tail -n %d %s", lines, shellescape.Quote(path.Clean(filePath))))
	if err != nil {
		return "", fmt.Errorf("could not read %s: %w", filePath, err)
	}

	return out, nil
}
