// Command pagedump streams the rows of a query as JSON lines, page by page,
// and resumes after the last checkpoint when restarted.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/Alp4ka/pagereader"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Value: "pagedump.yaml",
		Usage: "path to the job configuration file",
	}
	outputFlag = cli.StringFlag{
		Name:  "output",
		Usage: "file to append rows to (default: stdout)",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Value: "info",
		Usage: "log level (debug|info|warn|error)",
	}
	prettyFlag = cli.BoolFlag{
		Name:  "pretty",
		Usage: "human-readable console logs instead of JSON",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "serve Prometheus metrics on this address, e.g. localhost:2112",
	}
)

func main() {
	app := cli.App{
		Name:  "pagedump",
		Usage: "Dump a query as JSON lines with restartable keyset pagination",
		Flags: []cli.Flag{
			configFlag,
			outputFlag,
			logLevelFlag,
			prettyFlag,
			metricsAddrFlag,
		},
		Action: dumpAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string, pretty bool, out io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level '%s'", level)
	}

	if pretty {
		out = zerolog.ConsoleWriter{Out: out}
	}

	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func dumpAction(ctx *cli.Context) error {
	logger, err := newLogger(ctx.String(logLevelFlag.Name), ctx.Bool(prettyFlag.Name), os.Stderr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if path := ctx.String(outputFlag.Name); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		defer f.Close()
		out = f
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Checkpoint)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := pagereader.NewMetrics(reg)

	if addr := ctx.String(metricsAddrFlag.Name); addr != "" {
		srv := serveMetrics(addr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	j := &job{
		cfg:     cfg,
		db:      db,
		store:   store,
		metrics: metrics,
		logger:  logger.With().Str("job", cfg.Job).Logger(),
	}

	start := time.Now()
	rows, err := j.run(runCtx, out)
	if err != nil {
		j.logger.Error().Err(err).Int64("rows", rows).Msg("Dump failed")
		return err
	}

	j.logger.Info().Int64("rows", rows).Dur("duration", time.Since(start)).Msg("Dump finished")

	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger zerolog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("Metrics server failed")
		}
	}()

	return srv
}
