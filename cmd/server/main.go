package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"teamflow/internal/actions"
	"teamflow/internal/api"
	"teamflow/internal/api/handler"
	"teamflow/internal/auth"
	"teamflow/internal/config"
	"teamflow/internal/core/database"
	"teamflow/internal/core/ports"
	"teamflow/internal/core/postgres/repository"
	"teamflow/internal/executor"
	"teamflow/internal/infrastructure/memory"
	infraredis "teamflow/internal/infrastructure/redis"
	"teamflow/internal/logging"
	"teamflow/internal/metrics"
	"teamflow/internal/service"
	"teamflow/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const orphanedReason = "service restarted before run finished"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "teamflow",
		Short:         "Workflow automation engine",
		Long:          "Teamflow stores workflow definitions and runs their actions against the workspace.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./config.yaml)")

	rootCmd.AddCommand(newServeCommand(&configPath))
	rootCmd.AddCommand(newMigrateCommand(&configPath))
	rootCmd.AddCommand(newTokenCommand(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return serve(cfg)
		},
	}
}

func newMigrateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger := logging.New(cfg.Log.Level, cfg.Log.Format)

			db, err := database.Open(cfg.Database, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			logger.Info("schema is up to date")
			return nil
		},
	}
}

// newTokenCommand signs a bearer token for a user, for local use and scripts.
func newTokenCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Print a bearer token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			token, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, nil).IssueToken(userID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func serve(cfg *config.Config) error {
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Database
	db, err := database.Open(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	workflows := repository.NewWorkflowRepository(db)
	runs := repository.NewRunRepository(db)
	collab := repository.NewCollabRepository(db)

	// 2. Queue and broadcaster
	var (
		queue       ports.RunQueue
		broadcaster ports.MessageBroadcaster
	)
	switch cfg.Queue.Kind {
	case "redis":
		rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		queue = infraredis.NewRedisQueue(rdb, cfg.Queue.Name)
		broadcaster = infraredis.NewRedisBroadcaster(rdb)
	default:
		queue = memory.NewQueue(cfg.Queue.Buffer)
		logger.Warn("using in-memory run queue; queued runs are lost on restart")

		// Nothing can still be executing runs held by a previous process.
		n, err := runs.FailRunning(ctx, orphanedReason, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to reconcile orphaned runs: %w", err)
		}
		if n > 0 {
			logger.WithField("runs", n).Warn("failed runs orphaned by a previous process")
		}
	}

	// 3. Actions
	var mailer ports.Mailer = actions.NewLogMailer(logger)
	if cfg.SMTP.Host != "" {
		mailer = actions.NewSMTPMailer(cfg.SMTP)
	}
	registry := actions.NewRegistry()
	err = actions.RegisterBuiltins(registry, actions.Deps{
		Tasks:       collab,
		Messages:    collab,
		Documents:   collab,
		Users:       collab,
		Mailer:      mailer,
		Broadcaster: broadcaster,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	// 4. Executor and workers
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exec := executor.NewExecutor(workflows, runs, registry, logger,
		executor.WithMetrics(metrics.New(reg)),
		executor.WithActionTimeout(cfg.Executor.ActionTimeout),
	)
	// The pool outlives the signal: HTTP stops first so no run is queued
	// after the workers are gone.
	poolCtx, stopPool := context.WithCancel(context.Background())
	defer stopPool()
	pool := worker.NewWorker(queue, exec, logger)
	pool.StartPool(poolCtx, cfg.Executor.Workers)

	// 5. HTTP
	authSvc := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, collab)
	workflowSvc := service.NewWorkflowService(workflows, runs, queue, authSvc, logger)
	workflowHandler := handler.NewWorkflowHandler(workflowSvc, registry, logger)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewRouter(workflowHandler, authSvc, reg, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.WithFields(logrus.Fields{
			"addr":    cfg.Server.Addr,
			"queue":   cfg.Queue.Kind,
			"workers": cfg.Executor.Workers,
			"actions": registry.Kinds(),
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			stopPool()
			pool.Wait()
			pool.FailPending(context.Background())
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("http shutdown incomplete")
	}

	stopPool()
	pool.Wait()
	pool.FailPending(context.Background())
	logger.Info("stopped")
	return nil
}
