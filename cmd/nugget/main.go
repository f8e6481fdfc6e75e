// Command nugget starts the declarative HTTP stub server: it loads a route
// table from a YAML file, wires up the object store, script state store,
// and script bridge, and serves the configured routes plus the reserved
// state-admin and metrics endpoints.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nugget-stub/nugget/internal/config"
	"github.com/nugget-stub/nugget/internal/logging"
	"github.com/nugget-stub/nugget/internal/metrics"
	"github.com/nugget-stub/nugget/internal/router"
	"github.com/nugget-stub/nugget/internal/server"
	"github.com/nugget-stub/nugget/internal/store"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, diags, err := config.Load(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "nugget: %v\n", err)
		return 1
	}

	log := logging.New(cfg.LogFormat)
	for _, d := range diags {
		logging.Startup(log, d.Message)
	}

	objects := store.NewObjectStore()
	state := store.NewScriptState()
	srv := server.New(objects, state, cfg.Defaults, log)

	var metricsHandler http.Handler
	if cfg.Metrics {
		metricsHandler = metrics.Handler()
	}

	mux := router.New(cfg.Routes, srv.HandlerFor, srv.StateClearHandler(), metricsHandler)

	handler := http.Handler(mux)
	if cfg.Metrics {
		handler = metrics.Instrument(mux)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{Addr: addr, Handler: handler}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logging.Fatal(log, err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(ln) }()

	log.Info().Int("port", cfg.Port).Int("routes", len(cfg.Routes)).Msg("nugget listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return 0
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logging.Fatal(log, err)
			return 2
		}
		return 0
	}
}
