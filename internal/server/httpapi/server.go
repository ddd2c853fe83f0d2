// Package httpapi exposes the passvault services over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/passvault/internal/logging"
	"github.com/dmitrijs2005/passvault/internal/server/auth"
	"github.com/dmitrijs2005/passvault/internal/server/services"
)

const (
	shutdownTimeout = 5 * time.Second
	maxBodyBytes    = 1 << 20
)

type HTTPServer struct {
	address string
	users   *services.UserService
	records *services.RecordService
	backups *services.BackupService
	tokens  *auth.TokenService
	logger  logging.Logger
}

func NewHTTPServer(a string, l logging.Logger, us *services.UserService, rs *services.RecordService,
	bs *services.BackupService, ts *auth.TokenService) *HTTPServer {
	return &HTTPServer{
		address: a,
		logger:  l.With("module", "http_server"),
		users:   us,
		records: rs,
		backups: bs,
		tokens:  ts,
	}
}

// Handler returns the fully wired router with logging and panic recovery.
func (s *HTTPServer) Handler() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/salt", s.handleSalt).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)

	vault := api.PathPrefix("/vault").Subrouter()
	vault.Use(s.authMiddleware)
	vault.HandleFunc("", s.handleList).Methods(http.MethodGet)
	vault.HandleFunc("", s.handleCreate).Methods(http.MethodPost)
	vault.HandleFunc("/backup", s.handleBackup).Methods(http.MethodPost)
	vault.HandleFunc("/{id}", s.handleUpdate).Methods(http.MethodPut)
	vault.HandleFunc("/{id}", s.handleDelete).Methods(http.MethodDelete)

	recovered := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)(r)

	return loggingMiddleware(s.logger, recovered)
}

func (s *HTTPServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}
