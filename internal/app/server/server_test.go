package server

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loglens/internal/app/aggregator"
	"loglens/internal/app/discovery"
	"loglens/internal/app/errors"
	"loglens/internal/app/highlight"
	"loglens/internal/app/host"
	"loglens/internal/app/parser"
	"loglens/internal/app/summary"
	"loglens/internal/app/worker"
	"loglens/internal/config"
	"loglens/internal/config/logger"
)

func testLogger() logger.Logger {
	cfg := config.DefaultConfig()
	cfg.Logging.Format = logger.JSONFormat

	return logger.NewLoggerWithOutput(cfg, io.Discard)
}

func testService(t *testing.T, cfg *config.Config) host.Service {
	t.Helper()

	fs := afero.NewMemMapFs()
	log := testLogger()

	require.NoError(t, afero.WriteFile(fs, "ws/Auth_2024-01-01_10-00-00.log",
		[]byte("2024-01-01T10:00:01.000Z Inf hello\n"), 0644))
	require.NoError(t, afero.WriteFile(fs, "ws/metadata.txt",
		[]byte("Session Id: sess-42\n"), 0644))

	disc, err := discovery.NewDiscoveryWithFs(fs, cfg, log)
	require.NoError(t, err)

	gen := aggregator.NewGeneratorWithFs(fs, parser.NewParser(), worker.NewPoolWithSize(2), log)

	return host.NewWithFs(fs, cfg, log, disc, gen,
		summary.NewScraperWithFs(fs, cfg, log),
		highlight.NewStoreWithFs(fs, cfg, log))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Workspace = "ws"
	cfg.Output = "out/loglens.log"
	cfg.Summary = "ws/metadata.txt"
	cfg.Highlights = "out/highlights.yaml"
	cfg.Socket = filepath.Join(t.TempDir(), "loglens-test.sock")
	cfg.Regen.Debounce = 5 * time.Millisecond

	return cfg
}

func startServer(t *testing.T, cfg *config.Config) Server {
	t.Helper()

	svc := testService(t, cfg)
	srv := NewServer(cfg, svc, testLogger())

	require.NoError(t, srv.Start(context.Background()))

	t.Cleanup(func() {
		require.NoError(t, srv.Stop())
		svc.Close()
	})

	return srv
}

func Test_Server_ClientRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	startServer(t, cfg)

	c, err := Dial(cfg, testLogger())
	require.NoError(t, err)

	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = c.Run(ctx) }()

	require.NoError(t, c.NotifyReady(ctx))

	payload, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sess-42", payload.SessionID)
}

func Test_Server_MultipleClients(t *testing.T) {
	cfg := testConfig(t)
	startServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 3; i++ {
		c, err := Dial(cfg, testLogger())
		require.NoError(t, err)

		defer c.Close()

		go func() { _ = c.Run(ctx) }()

		require.NoError(t, c.NotifyReady(ctx))
	}
}

func Test_Server_RemovesStaleSocket(t *testing.T) {
	cfg := testConfig(t)

	// A leftover file from a crashed instance that nothing answers on.
	require.NoError(t, os.WriteFile(cfg.Socket, nil, 0644))

	startServer(t, cfg)

	c, err := Dial(cfg, testLogger())
	require.NoError(t, err)
	require.NoError(t, c.Close())
}

func Test_Server_RefusesSocketInUse(t *testing.T) {
	cfg := testConfig(t)
	startServer(t, cfg)

	second := NewServer(cfg, testService(t, cfg), testLogger())

	err := second.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSocketAlreadyInUse)
}

func Test_Server_StopWithIdleClient(t *testing.T) {
	cfg := testConfig(t)

	svc := testService(t, cfg)
	srv := NewServer(cfg, svc, testLogger())

	require.NoError(t, srv.Start(context.Background()))

	// An attached panel that never sends anything keeps its channel
	// parked in a blocking read.
	c, err := Dial(cfg, testLogger())
	require.NoError(t, err)

	defer c.Close()

	stopped := make(chan error, 1)

	go func() { stopped <- srv.Stop() }()

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return with an idle connected panel")
	}

	svc.Close()
}

func Test_Server_StopRemovesSocket(t *testing.T) {
	cfg := testConfig(t)

	svc := testService(t, cfg)
	srv := NewServer(cfg, svc, testLogger())

	require.NoError(t, srv.Start(context.Background()))
	require.NoError(t, srv.Stop())

	_, err := os.Stat(cfg.Socket)
	assert.True(t, os.IsNotExist(err))

	svc.Close()
}
