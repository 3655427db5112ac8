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

	"github.com/sirupsen/logrus"

	"github.com/overseerhq/overseer/capability"
	"github.com/overseerhq/overseer/engine"
	"github.com/overseerhq/overseer/httpapi"
	"github.com/overseerhq/overseer/journal"
	"github.com/overseerhq/overseer/nodes"
	"github.com/overseerhq/overseer/registry"
	"github.com/overseerhq/overseer/router"
	"github.com/overseerhq/overseer/router/model/anthropic"
	"github.com/overseerhq/overseer/runstore"
)

// gitToProdGraph is the reference git-to-prod-multi graph from
// original_source/engine.py, seeded at startup so a freshly-started
// daemon is immediately useful against examples/sample_repo.
func gitToProdGraph() registry.Graph {
	return registry.Graph{
		Name:   "git-to-prod-multi",
		Agents: []string{"planner", "py_fixer", "fe_fixer", "test_writer", "aggregator", "tester", "security", "release"},
		DAG: []registry.Edge{
			{From: "planner", To: "py_fixer", Parallel: true},
			{From: "planner", To: "fe_fixer", Parallel: true},
			{From: "planner", To: "test_writer", Parallel: true},
			{From: "py_fixer", To: "aggregator", Join: "all"},
			{From: "fe_fixer", To: "aggregator", Join: "all"},
			{From: "test_writer", To: "aggregator", Join: "all"},
			{From: "aggregator", To: "tester"},
			{From: "tester", To: "security", On: []string{"tests_passed"}},
			{From: "security", To: "release", On: []string{"security_ok"}},
		},
	}
}

func newStore(flags *rootFlags) (runstore.Store, error) {
	switch flags.storeDriver {
	case "", "memory":
		return runstore.NewMemStore(), nil
	case "sqlite":
		if flags.storeDSN == "" {
			return nil, errors.New("--store-dsn is required for the sqlite store driver")
		}
		return runstore.NewSQLiteStore(flags.storeDSN)
	case "mysql":
		if flags.storeDSN == "" {
			return nil, errors.New("--store-dsn is required for the mysql store driver")
		}
		return runstore.NewMySQLStore(flags.storeDSN)
	default:
		return nil, fmt.Errorf("unknown store driver %q", flags.storeDriver)
	}
}

func runServe(ctx context.Context, flags *rootFlags) error {
	log := newLogger(flags.logLevel)

	shutdownTracing := setupTracing()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.WithError(err).Warn("shut down tracer provider")
		}
	}()

	pollInterval, err := time.ParseDuration(flags.pollInterval)
	if err != nil {
		return fmt.Errorf("parse --poll-interval: %w", err)
	}

	files, err := capability.NewSafeRootFile(flags.safeRoot)
	if err != nil {
		return fmt.Errorf("open safe root %q: %w", flags.safeRoot, err)
	}
	security := capability.NewSafeRootSecurity(flags.safeRoot)
	tests := capability.NewCommandTest(flags.safeRoot, "pytest", "-q")

	store, err := newStore(flags)
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()

	reg := registry.New()
	if err := reg.RegisterGraph(gitToProdGraph()); err != nil {
		return fmt.Errorf("register default graph: %w", err)
	}
	if err := reg.RegisterProviderPool(registry.DefaultPool()); err != nil {
		return fmt.Errorf("register default pool: %w", err)
	}

	jr := journal.NewJournal(flags.dataRoot)
	pool := router.NewPool(registry.DefaultPool())
	bindModelAdapters(pool, log)
	handlers := nodes.Handlers(nodes.Deps{Files: files, Tests: tests, Security: security, Pool: pool})
	executor := engine.NewExecutor(reg, jr, files, pool, handlers)
	scheduler := engine.NewScheduler(jr, executor)
	runner := engine.NewRunner(reg, jr, store, scheduler, nil)
	supervisor := engine.NewSupervisor(runner, pollInterval, log)

	srv := httpapi.New(reg, jr, runner, store, log)
	httpServer := &http.Server{Addr: flags.listenAddr, Handler: srv}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go supervisor.Run(ctx)

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", flags.listenAddr).Info("http control plane listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-serveErr:
		return err
	}
}

// bindModelAdapters binds a live provider under the pool's catalog model
// names so fe_fixer's dial succeeds, when credentials are configured.
// Without ANTHROPIC_API_KEY set, the pool stays unbound and fe_fixer
// keeps the scenario's deterministic no-op.
func bindModelAdapters(pool *router.Pool, log *logrus.Logger) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return
	}
	chat := anthropic.NewChatModel(apiKey, os.Getenv("ANTHROPIC_MODEL"))
	for _, m := range pool.Spec().Models {
		pool.Bind(m.Name, chat)
	}
	log.Info("bound Anthropic adapter to provider pool")
}
