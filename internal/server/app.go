// Package server wires configuration, storage, services and the HTTP API
// together and runs them until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/passvault/internal/common"
	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/server/auth"
	"github.com/dmitrijs2005/passvault/internal/server/config"
	"github.com/dmitrijs2005/passvault/internal/server/httpapi"
	"github.com/dmitrijs2005/passvault/internal/server/objectstore"
	"github.com/dmitrijs2005/passvault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/passvault/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repomanager repomanager.RepositoryManager
	httpServer  *httpapi.HTTPServer
}

// openStore is a seam for tests.
var openStore = func(ctx context.Context, cfg *config.Config) (repomanager.RepositoryManager, error) {
	if cfg.DatabaseDSN == config.MemoryDSN {
		return repomanager.NewMemoryRepositoryManager(), nil
	}
	return repomanager.OpenPostgres(ctx, cfg.DatabaseDSN)
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	ephemeral, err := c.Validate()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	secret := []byte(c.SecretKey)
	if ephemeral {
		s, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
		secret = []byte(s)
		logger.Warn(ctx, "No secret key configured, using a random one for this process; tokens will not survive a restart")
	}

	tokens, err := auth.NewTokenService(secret, c.TokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}

	rm, err := openStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx); err != nil {
		rm.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if c.DatabaseDSN == config.MemoryDSN {
		logger.Warn(ctx, "Using in-memory storage, data will be lost on exit")
	}

	var store services.ObjectStore
	if c.BackupsEnabled() {
		s3store, err := objectstore.NewS3Store(ctx, c)
		if err != nil {
			rm.Close()
			return nil, fmt.Errorf("object storage: %w", err)
		}
		store = s3store
	}

	us := services.NewUserService(rm, tokens)
	rs := services.NewRecordService(rm)
	bs := services.NewBackupService(rm, store)

	return &App{
		config:      c,
		logger:      logger,
		repomanager: rm,
		httpServer:  httpapi.NewHTTPServer(c.EndpointAddrHTTP, logger, us, rs, bs, tokens),
	}, nil
}

// notifySignals and stopSignals are seams for tests.
var (
	notifySignals = signal.Notify
	stopSignals   = signal.Stop
)

// initSignalHandler cancels on SIGINT, SIGTERM or SIGQUIT. The watcher also
// ends with ctx and unregisters itself; the returned channel closes then.
func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) <-chan struct{} {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	notifySignals(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stopSignals(sigs)

		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
	return done
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled, a signal arrives or the server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	signalsDone := app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	cancelFunc()
	<-signalsDone

	if err := app.repomanager.Close(); err != nil {
		app.logger.Error(ctx, "close storage", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
