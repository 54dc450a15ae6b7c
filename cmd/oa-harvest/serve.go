// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/oa-harvest/internal/jobs"
	"github.com/pdiddy/oa-harvest/internal/metrics"
	"github.com/pdiddy/oa-harvest/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP job service",
	Long: `Serve accepts harvest jobs over HTTP:

  POST   /jobs                 submit {"description", "email", "max"}
  GET    /jobs                 list jobs
  GET    /jobs/{id}            job status, log, and result
  GET    /jobs/{id}/stream     live log as server-sent events
  GET    /jobs/{id}/archive    zip of a completed job's PDFs
  DELETE /jobs/{id}            remove a job and its files
  GET    /healthz, /metrics`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.String("addr", "", "listen address (default :5000)")
	f.Int("max-jobs", 0, "jobs allowed to run at once (default 3)")
	f.String("work-dir", "", "parent directory for job output (default system temp)")
	f.String("job-store", "", "job store backend: memory or sqlite")
	f.String("job-db", "", "SQLite job database path")

	viper.BindPFlag("server.addr", f.Lookup("addr"))
	viper.BindPFlag("server.max_concurrent_jobs", f.Lookup("max-jobs"))
	viper.BindPFlag("server.work_dir", f.Lookup("work-dir"))
	viper.BindPFlag("server.jobs.backend", f.Lookup("job-store"))
	viper.BindPFlag("server.jobs.path", f.Lookup("job-db"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics("oa_harvest", reg)

	exp, err := newExpander(cfg.AI, m)
	if err != nil {
		return err
	}
	if exp.Backend == nil {
		logger.Warn().Msg("no AI provider configured; descriptions are searched as-is")
	} else {
		logger.Info().Str("provider", exp.Backend.Name()).Msg("keyword expansion enabled")
	}

	store, err := jobs.NewStore(cfg.Server.Jobs)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := jobs.NewRunner(jobs.RunnerConfig{
		Store:         store,
		Expander:      exp,
		Harvester:     newHarvester(cfg.Harvest, cfg.Server.WorkDir, m),
		MaxConcurrent: cfg.Server.MaxConcurrentJobs,
		Metrics:       m,
		Logger:        logger,
	})
	if _, err := runner.Recover(cmd.Context()); err != nil {
		logger.Warn().Err(err).Msg("recovering interrupted jobs")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.Server, runner, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), logger)
	serveErr := srv.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("jobs still running at shutdown")
	}
	return serveErr
}
