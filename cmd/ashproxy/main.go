package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	ashhttpcache "github.com/Borislavv/go-ash-httpcache"
	"github.com/Borislavv/go-ash-httpcache/config"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// CLI flags
	configFilenameFlag string
	originFlag         string
	portFlag           int
	statsPathFlag      string
	verbosityTraceFlag bool
)

func init() {
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&originFlag, "origin", "", "Origin URL to proxy to")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&statsPathFlag, "stats", "/_ash/stats", "Path serving cache counters as JSON (empty to disable)")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
}

func main() {
	flag.Parse()

	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}
	log.Logger = log.Level(logLevel).Output(zerolog.ConsoleWriter{Out: os.Stdout})

	if configFilenameFlag == "" {
		log.Fatal().Msg("Please specify config")
	}
	if originFlag == "" {
		log.Fatal().Msg("Please specify origin")
	}

	cfg, err := config.LoadConfig(configFilenameFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	originURL, err := url.Parse(originFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot parse origin")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, cfg, originURL); err != nil {
		log.Fatal().Err(err).Msg("Proxy stopped")
	}
}

func run(ctx context.Context, cfg *config.Cache, origin *url.URL) error {
	c, err := ashhttpcache.New(ctx, cfg, log.Logger)
	if err != nil {
		return fmt.Errorf("init cache: %w", err)
	}
	defer c.Close()

	upstream := httputil.NewSingleHostReverseProxy(origin)
	upstream.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn().Err(err).Str("url", r.URL.String()).Msg("Origin request failed")
		w.WriteHeader(http.StatusBadGateway)
	}

	r := chi.NewRouter()
	if statsPathFlag != "" {
		r.Get(statsPathFlag, func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewEncoder(w).Encode(c.Metrics()); err != nil {
				log.Error().Err(err).Msg("Cannot encode stats")
			}
		})
	}
	r.Group(func(r chi.Router) {
		r.Use(c.Middleware)
		r.Handle("/*", upstream)
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", portFlag),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("origin", origin.String()).Int("port", portFlag).Msg("Proxy listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
