package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prior-it/addressd/config"
)

type (
	ErrorHandler    func(request *Request, err error)
	NotFoundHandler func(request *Request)
)

// State is the application-specific object that gets passed to every handler.
// It owns shared resources such as the store handle and releases them in Close.
type State interface {
	Close(ctx context.Context)
}

type Server[state State] struct {
	mux          *chi.Mux
	state        state
	logger       *slog.Logger
	errorHandler ErrorHandler
	cfg          *config.Config
}

type (
	Handler[state any] func(request *Request, state state) error
)

// New creates a new server with the specified state object and configuration.
func New[state State](s state, cfg *config.Config) *Server[state] {
	server := &Server[state]{
		mux:          chi.NewMux(),
		state:        s,
		logger:       slog.Default(),
		errorHandler: DefaultErrorHandler,
		cfg:          cfg,
	}

	// Attach default not found handlers
	server.WithNotFoundHandler(
		func(request *Request) {
			request.JSON(http.StatusNotFound, ErrorResponse{Error: "route not found"})
		},
	)
	server.mux.MethodNotAllowed(server.handle(func(request *Request, _ state) error {
		request.JSON(http.StatusMethodNotAllowed, ErrorResponse{Error: "method not allowed"})
		return nil
	}))

	return server
}

func (server *Server[state]) WithErrorHandler(errorHandler ErrorHandler) *Server[state] {
	server.errorHandler = errorHandler
	return server
}

func (server *Server[state]) WithNotFoundHandler(notFoundHandler NotFoundHandler) *Server[state] {
	server.mux.NotFound(server.handle(func(request *Request, _ state) error {
		notFoundHandler(request)
		return nil
	}))
	return server
}

func (server *Server[state]) WithLogger(logger *slog.Logger) *Server[state] {
	server.logger = logger
	return server
}

func (server *Server[state]) NewRequest(w http.ResponseWriter, r *http.Request) *Request {
	return &Request{
		Writer:  w,
		Request: r,
		logger:  server.logger,
		Cfg:     server.cfg,
	}
}

func (server *Server[state]) handle(handler Handler[state]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		request := server.NewRequest(w, r)
		err := handler(request, server.state)
		if err != nil {
			server.errorHandler(request, err)
		}
		_ = r.Body.Close()
	}
}

func (server *Server[state]) AttachDefaultMiddleware() {
	server.UseStd(
		middleware.Recoverer,
		middleware.RealIP,
		middleware.RequestID,
		HTTPLogger(server.cfg),
		CORS(server.cfg.CORS),
	)
	if server.cfg.App.Debug {
		server.UseStd(Debug(server.cfg.Log.Verbose))
	}
	if server.cfg.App.RequestTimeout > 0 {
		server.UseStd(Timeout(
			time.Duration(server.cfg.App.RequestTimeout) * time.Second,
		))
	}
}

// Start runs the server until the context is cancelled, an interrupt signal arrives, or the server fails.
// If no listener is provided, a new TCP listener will be created on the configured host and port.
// The state is always closed before Start returns, also when the server could not start at all.
func (server *Server[state]) Start(ctx context.Context, listener net.Listener) error {
	// Handle OS signals to cancel the context
	ctxServer, stopSignal := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignal()

	httpServer := &http.Server{
		Addr:              server.cfg.App.Address(),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second, //nolint:mnd
	}

	errorCh := make(chan error, 1)
	// Run the actual server
	go func() {
		host := httpServer.Addr
		if listener != nil {
			host = listener.Addr().String()
		}
		slog.Info("Starting server", "host", host)
		var err error
		if listener != nil {
			err = httpServer.Serve(listener)
		} else {
			err = httpServer.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorCh <- err
		}
		close(errorCh)
	}()

	var errServer error
	select {
	case errServer = <-errorCh:
		slog.Error("Server stopped unexpectedly", "error", errServer)
	case <-ctxServer.Done():
		slog.Info("Server interrupt received")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(
		context.Background(),
		time.Duration(server.cfg.App.ShutdownTimeout)*time.Second,
	)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		slog.Error("Could not shut down the server gracefully", "error", err)
	}
	server.Shutdown(ctxShutdown)

	return errServer
}

// Shutdown will gracefully release all server resources. You generally don't need to call this manually.
func (server *Server[state]) Shutdown(ctx context.Context) {
	sentryTimeout := max(0, time.Duration(server.cfg.App.ShutdownTimeout-1))
	sentry.Flush(sentryTimeout * time.Second)
	server.state.Close(ctx)
}

// ServeHTTP implements [net/http.Handler].
func (server *Server[state]) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	server.mux.ServeHTTP(writer, request)
}

// UseStd appends a stdlib middleware handler to the middleware stack.
//
// The middleware stack for any server will execute before searching for a matching
// route to a specific handler, which provides opportunity to respond early,
// change the course of the request execution, or set request-scoped values for
// the next Handler.
func (server *Server[state]) UseStd(middlewares ...func(http.Handler) http.Handler) *Server[state] {
	server.mux.Use(middlewares...)
	return server
}

// Get adds the route `pattern` that matches a GET http method to execute the `handlerFn` HandlerFunc.
func (server *Server[state]) Get(
	pattern string,
	handlerFn func(request *Request, state state) error,
) *Server[state] {
	server.mux.Get(pattern, server.handle(handlerFn))
	return server
}

// Put adds the route `pattern` that matches a PUT http method to execute the `handlerFn` HandlerFunc.
func (server *Server[state]) Put(
	pattern string,
	handlerFn func(request *Request, state state) error,
) *Server[state] {
	server.mux.Put(pattern, server.handle(handlerFn))
	return server
}

// Delete adds the route `pattern` that matches a DELETE http method to execute the `handlerFn` HandlerFunc.
func (server *Server[state]) Delete(
	pattern string,
	handlerFn func(request *Request, state state) error,
) *Server[state] {
	server.mux.Delete(pattern, server.handle(handlerFn))
	return server
}
