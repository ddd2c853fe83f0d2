package server

import (
	"bytes"
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/server/config"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/repomanager"
)

func devConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrHTTP = "127.0.0.1:0"
	return c
}

func TestNewApp_DevWithoutSecretWarns(t *testing.T) {
	var buf bytes.Buffer
	app, err := NewApp(context.Background(), devConfig(), logging.NewJSONLogger(&buf, "debug"))
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Contains(t, buf.String(), "random one")
}

func TestNewApp_ProductionRequiresSecret(t *testing.T) {
	c := devConfig()
	c.Production = true

	_, err := NewApp(context.Background(), c, logging.Discard())
	assert.ErrorIs(t, err, config.ErrMissingSecretKey)

	c.SecretKey = "short"
	_, err = NewApp(context.Background(), c, logging.Discard())
	assert.ErrorIs(t, err, config.ErrWeakSecretKey)

	c.SecretKey = "0123456789abcdef0123456789abcdef"
	_, err = NewApp(context.Background(), c, logging.Discard())
	assert.NoError(t, err)
}

type brokenMigrations struct {
	*repomanager.MemoryRepositoryManager
	closed bool
}

func (b *brokenMigrations) RunMigrations(context.Context) error { return errors.New("migrate-fail") }
func (b *brokenMigrations) Close() error {
	b.closed = true
	return nil
}

func TestNewApp_StoreErrors(t *testing.T) {
	orig := openStore
	t.Cleanup(func() { openStore = orig })

	openStore = func(context.Context, *config.Config) (repomanager.RepositoryManager, error) {
		return nil, errors.New("dial-fail")
	}
	_, err := NewApp(context.Background(), devConfig(), logging.Discard())
	assert.ErrorContains(t, err, "dial-fail")

	broken := &brokenMigrations{MemoryRepositoryManager: repomanager.NewMemoryRepositoryManager()}
	openStore = func(context.Context, *config.Config) (repomanager.RepositoryManager, error) {
		return broken, nil
	}
	_, err = NewApp(context.Background(), devConfig(), logging.Discard())
	assert.ErrorContains(t, err, "migrate-fail")
	assert.True(t, broken.closed)
}

func TestNewApp_WithBackups(t *testing.T) {
	c := devConfig()
	c.S3Bucket = "passvault"
	c.S3AccessKey = "minioadmin"
	c.S3SecretKey = "minioadmin"
	c.S3BaseEndpoint = "http://127.0.0.1:9000"

	app, err := NewApp(context.Background(), c, logging.Discard())
	require.NoError(t, err)
	assert.NotNil(t, app.httpServer)
}

func TestApp_RunStopsOnContextCancel(t *testing.T) {
	app, err := NewApp(context.Background(), devConfig(), logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

// stubSignals records the channel Run registers and whether it was released.
func stubSignals(t *testing.T) (registered chan chan<- os.Signal, stopped chan chan<- os.Signal) {
	t.Helper()
	origNotify, origStop := notifySignals, stopSignals
	t.Cleanup(func() { notifySignals, stopSignals = origNotify, origStop })

	registered = make(chan chan<- os.Signal, 1)
	stopped = make(chan chan<- os.Signal, 1)
	notifySignals = func(c chan<- os.Signal, _ ...os.Signal) { registered <- c }
	stopSignals = func(c chan<- os.Signal) { stopped <- c }
	return registered, stopped
}

func TestApp_RunReleasesSignalWatcher(t *testing.T) {
	registered, stopped := stubSignals(t)
	app, err := NewApp(context.Background(), devConfig(), logging.Discard())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	sigs := <-registered
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
	// Run only returns after the watcher has unregistered
	select {
	case got := <-stopped:
		assert.Equal(t, sigs, got)
	default:
		t.Fatal("signal channel was not released")
	}
}

func TestApp_RunStopsOnSignal(t *testing.T) {
	registered, stopped := stubSignals(t)
	app, err := NewApp(context.Background(), devConfig(), logging.Discard())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		app.Run(context.Background())
		close(done)
	}()

	sigs := <-registered
	sigs <- syscall.SIGTERM

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop on SIGTERM")
	}
	assert.Len(t, stopped, 1)
}
