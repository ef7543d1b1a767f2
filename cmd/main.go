package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/S1riyS/vaultfs/internal/config"
	"github.com/S1riyS/vaultfs/internal/fuse"
	"github.com/S1riyS/vaultfs/internal/handler"
	"github.com/S1riyS/vaultfs/internal/metrics"
	"github.com/S1riyS/vaultfs/internal/repository"
	"github.com/S1riyS/vaultfs/internal/service"
	"github.com/S1riyS/vaultfs/internal/tree"
	"github.com/S1riyS/vaultfs/internal/vault"
	"github.com/S1riyS/vaultfs/pkg/database/postgresql"
	"github.com/S1riyS/vaultfs/pkg/logging"
	"github.com/S1riyS/vaultfs/pkg/logging/slogext"
	"github.com/S1riyS/vaultfs/pkg/logging/slogpretty"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

var errUnmounted = errors.New("filesystem unmounted")

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("vaultfs", pflag.ContinueOnError)
	allowOther := flags.Bool("allow-other", false, "allow other users to access the mount")
	debug := flags.Bool("debug", false, "log at debug level and trace FUSE requests")
	strict := flags.Bool("strict", false, "refuse to mount when any subtree failed to build")
	statusAddr := flags.String("status-addr", "", "listen address for /health, /api/build and /metrics (overrides config)")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Mounts vault secrets as a folder.\n\nUsage: vaultfs [flags] <mount_path> <config_file>\n\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.NArg() != 2 {
		flags.Usage()
		return 2
	}
	mountPath, configPath := flags.Arg(0), flags.Arg(1)

	cfg := config.MustLoad(configPath)
	if *allowOther {
		cfg.Mount.AllowOther = true
	}
	if *statusAddr != "" {
		cfg.Status.Addr = *statusAddr
	}

	prettyLogger := setupPrettySlog(*debug)

	// Root context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.MakeContextWithLogger(ctx, prettyLogger)

	// Build
	client := vault.NewClient(cfg.Vault)
	startedAt := time.Now()
	t, partial, err := tree.Build(ctx, client)
	report := tree.NewReport(t, partial, err, startedAt, time.Now())

	m := metrics.New()
	m.ObserveBuild(report)
	journalBuild(ctx, cfg.Database, mountPath, report)

	if err != nil {
		prettyLogger.Error("Cannot build secret tree, not mounting", slogext.Err(err))
		return 1
	}
	if partialErr := tree.CombinePartial(partial); partialErr != nil {
		if *strict {
			prettyLogger.Error("Refusing to mount partial tree", slogext.Err(partialErr))
			return 1
		}
		prettyLogger.Warn("Mounting partial tree",
			slog.Int("failed_subtrees", len(partial)),
			slogext.Err(partialErr),
		)
	}

	// Mount
	server, err := fuse.Mount(fuse.Options{
		Mountpoint: mountPath,
		Service:    service.NewFileSystemService(t),
		Mount:      cfg.Mount,
		Debug:      *debug,
		Metrics:    m,
		Logger:     prettyLogger,
	})
	if err != nil {
		prettyLogger.Error("Failed to mount", slogext.Err(err))
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		server.Wait()
		return errUnmounted
	})
	g.Go(func() error {
		<-gctx.Done()
		if err := server.Unmount(); err != nil {
			prettyLogger.Debug("Unmount", slogext.Err(err))
		}
		return nil
	})

	if cfg.Status.Addr != "" {
		httpServer := handler.NewServer(cfg.Status, handler.NewHandler(report, m), prettyLogger)

		g.Go(func() error {
			prettyLogger.Info("Status server listening", slog.String("addr", cfg.Status.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errUnmounted) {
		prettyLogger.Error("Stopped with error", slogext.Err(err))
		return 1
	}

	prettyLogger.Info("Unmounted", slog.String("mountpoint", mountPath))
	return 0
}

// journalBuild records the build in Postgres when enabled. Journal failures
// never stop the mount.
func journalBuild(ctx context.Context, cfg config.DatabaseConfig, mountPath string, report *tree.BuildReport) {
	if !cfg.Enabled {
		return
	}

	logger := logging.GetLoggerFromContextWithOp(ctx, "main.journalBuild")

	db, err := postgresql.NewClient(ctx, cfg)
	if err != nil {
		logger.Warn("Build journal unavailable", slogext.Err(err))
		return
	}
	defer db.Close()

	repo := repository.NewBuildRepository(db, cfg.Schema)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Warn("Build journal unavailable", slogext.Err(err))
		return
	}

	id, err := repo.Save(ctx, mountPath, report)
	if err != nil {
		logger.Warn("Failed to journal build", slogext.Err(err))
		return
	}

	logger.Info("Build journaled", slog.String("build_id", id.String()))
}

func setupPrettySlog(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: level,
		},
	}

	return slog.New(opts.NewPrettyHandler(os.Stderr))
}
