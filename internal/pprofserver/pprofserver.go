// Package pprofserver serves the runtime profiles on a separate listener so that they are never exposed on the
// public address of the game.
package pprofserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/myrjola/gumshoe/internal/errors"
)

func Handle(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
}

func newServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	Handle(mux)
	return mux
}

// Launch starts a pprof server at addr, for example "[::1]:6060", and stops it when ctx is done. Failures are
// logged since profiling is never essential.
func Launch(ctx context.Context, addr string, logger *slog.Logger) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newServeMux(),
		ReadHeaderTimeout: time.Second,
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "pprof server not started",
			errors.SlogError(errors.Wrap(err, "listen", slog.String("pprof_addr", addr))))
		return
	}
	logger.LogAttrs(ctx, slog.LevelInfo, "starting pprof server", slog.String("pprof_addr", listener.Addr().String()))
	go func() {
		if serveErr := srv.Serve(listener); !errors.Is(serveErr, http.ErrServerClosed) {
			logger.LogAttrs(ctx, slog.LevelError, "pprof server stopped",
				errors.SlogError(errors.Wrap(serveErr, "serve")))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx) //nolint:contextcheck // ctx is already done.
	}()
}
