package helpers

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/bwerff/ExcelAiRate-sub000/internal/config"
	"github.com/bwerff/ExcelAiRate-sub000/internal/engine"
	"github.com/bwerff/ExcelAiRate-sub000/internal/store"
)

// TestEngineEnv holds all the components needed for engine testing. The
// executor's backoff sleeper is replaced with one that records requested
// waits instead of sleeping, so retry timing is observable and instant
type TestEngineEnv struct {
	Engine     *engine.Engine
	Redis      *miniredis.Miniredis
	Dispatcher *MockDispatcher
	Store      *store.RedisStore
	Config     *config.Config
	Cleanup    func()

	waits []time.Duration
	mu    sync.Mutex
}

// NewTestConfig creates a default configuration with debug logging and a
// short shutdown window
func NewTestConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LogLevel = "debug"
	cfg.ShutdownTimeout = 2 * time.Second
	return cfg
}

// NewTestEngine creates a fully configured test engine environment with
// an in-memory Redis backend and a mock dispatcher
func NewTestEngine(t *testing.T) *TestEngineEnv {
	t.Helper()

	server, err := miniredis.Run()
	require.NoError(t, err)

	cfg := NewTestConfig()
	cfg.Store.Addr = server.Addr()
	cfg.Store.Prefix = "test"

	st := store.NewRedisStore(&cfg.Store)
	dispatcher := NewMockDispatcher()

	eng, err := engine.New(&engine.Dependencies{
		Dispatcher: dispatcher,
		Store:      st,
		Config:     cfg,
	})
	require.NoError(t, err)

	env := &TestEngineEnv{
		Engine:     eng,
		Redis:      server,
		Dispatcher: dispatcher,
		Store:      st,
		Config:     cfg,
	}
	eng.Executor().SetClock(time.Now, env.recordWait)

	env.Cleanup = func() {
		_ = eng.Stop()
		_ = st.Close()
		server.Close()
	}
	return env
}

// RecordedWaits returns the backoff delays requested so far, in order
func (e *TestEngineEnv) RecordedWaits() []time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := make([]time.Duration, len(e.waits))
	copy(res, e.waits)
	return res
}

func (e *TestEngineEnv) recordWait(
	ctx context.Context, d time.Duration,
) error {
	e.mu.Lock()
	e.waits = append(e.waits, d)
	e.mu.Unlock()
	return ctx.Err()
}
