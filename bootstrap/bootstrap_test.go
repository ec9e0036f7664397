package bootstrap_test

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/attpc/daqdash/bootstrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingStep(name string, ran *[]string, err error) bootstrap.Step {
	return bootstrap.Step{Name: name, Run: func(context.Context) error {
		*ran = append(*ran, name)

		return err
	}}
}

func TestPipeline(t *testing.T) {
	t.Run("runs steps in order", func(t *testing.T) {
		var ran []string

		p := bootstrap.New(
			recordingStep(bootstrap.StepWaitForDatabase, &ran, nil),
			recordingStep(bootstrap.StepMigrate, &ran, nil),
			recordingStep(bootstrap.StepCollectStatic, &ran, nil),
			recordingStep(bootstrap.StepServe, &ran, nil),
		)

		require.NoError(t, p.Run(context.Background()))
		assert.Equal(t, []string{"wait-for-database", "migrate", "collect-static", "serve"}, ran)
		assert.Equal(t, ran, p.Steps())
	})

	t.Run("stops at the first failure", func(t *testing.T) {
		var ran []string

		cause := errors.New("no such table")
		p := bootstrap.New(
			recordingStep(bootstrap.StepWaitForDatabase, &ran, nil),
			recordingStep(bootstrap.StepMigrate, &ran, cause),
			recordingStep(bootstrap.StepCollectStatic, &ran, nil),
			recordingStep(bootstrap.StepServe, &ran, nil),
		)

		err := p.Run(context.Background())

		var stepErr *bootstrap.StepError
		require.ErrorAs(t, err, &stepErr)
		assert.Equal(t, bootstrap.StepMigrate, stepErr.Step)
		require.ErrorIs(t, err, cause)
		assert.Equal(t, []string{"wait-for-database", "migrate"}, ran)
	})

	t.Run("unreachable database keeps the server from starting", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		addr := listener.Addr().String()
		require.NoError(t, listener.Close())

		var ran []string

		p := bootstrap.New(
			bootstrap.Step{Name: bootstrap.StepWaitForDatabase, Run: func(ctx context.Context) error {
				return bootstrap.WaitForTCP(ctx, addr, 100*time.Millisecond, 20*time.Millisecond)
			}},
			recordingStep(bootstrap.StepMigrate, &ran, nil),
			recordingStep(bootstrap.StepServe, &ran, nil),
		)

		err = p.Run(context.Background())

		require.ErrorIs(t, err, bootstrap.ErrDependencyNotReady)
		assert.Empty(t, ran)
	})

	t.Run("reachable database runs the remaining steps in order", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		t.Cleanup(func() { _ = listener.Close() })

		var ran []string

		p := bootstrap.New(
			bootstrap.Step{Name: bootstrap.StepWaitForDatabase, Run: func(ctx context.Context) error {
				return bootstrap.WaitForTCP(ctx, listener.Addr().String(), time.Second, 20*time.Millisecond)
			}},
			recordingStep(bootstrap.StepMigrate, &ran, nil),
			recordingStep(bootstrap.StepCollectStatic, &ran, nil),
			recordingStep(bootstrap.StepServe, &ran, nil),
		)

		require.NoError(t, p.Run(context.Background()))
		assert.Equal(t, []string{"migrate", "collect-static", "serve"}, ran)
	})

	t.Run("cancelled context", func(t *testing.T) {
		var ran []string

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := bootstrap.New(recordingStep(bootstrap.StepServe, &ran, nil)).Run(ctx)

		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, ran)
	})
}

func TestWaitForTCP(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = listener.Close() })

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}

			_ = conn.Close()
		}
	}()

	err = bootstrap.WaitForTCP(context.Background(), listener.Addr().String(), time.Second, 10*time.Millisecond)

	assert.NoError(t, err)
}

func TestWaitForDialUnixSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), ".s.PGSQL.5432")

	listener, err := net.Listen("unix", sock)
	require.NoError(t, err)

	t.Cleanup(func() { _ = listener.Close() })

	err = bootstrap.WaitForDial(context.Background(), "unix", sock, time.Second, 10*time.Millisecond)

	assert.NoError(t, err)
}

func TestCollectStatic(t *testing.T) {
	fsys := fstest.MapFS{
		"style.css":      {Data: []byte("body { margin: 0; }")},
		"img/attpc.svg":  {Data: []byte("<svg/>")},
		"js/datastar.js": {Data: []byte("// empty")},
	}

	dir := filepath.Join(t.TempDir(), "static")

	// Stale copies get replaced.
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.css"), []byte("old"), 0o644))

	n, err := bootstrap.CollectStatic(fsys, dir)

	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := os.ReadFile(filepath.Join(dir, "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "body { margin: 0; }", string(data))

	data, err = os.ReadFile(filepath.Join(dir, "img", "attpc.svg"))
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))
}
