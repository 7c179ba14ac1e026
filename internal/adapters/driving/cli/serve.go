package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/adapters/driven/watch"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driven"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/services"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the background indexing daemon",
	Long: `Keeps the corpus index current: a full sync runs on startup and on a
fixed interval, and filesystem changes are picked up as they happen.
Stops cleanly on SIGINT or SIGTERM; the document being indexed at that
moment is finished first.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.checkProvider(ctx); err != nil {
		return err
	}

	var watcher driven.CorpusWatcher
	if cfg.Indexing.Watch {
		w, err := watch.New(a.source, watch.DefaultDebounce)
		if err != nil {
			return err
		}
		defer w.Close()
		watcher = w
		logger.Info("Watching %s", a.source.Root())
	}

	scheduler := services.NewScheduler(cfg.Indexing.SyncInterval, a.indexer, watcher)

	cmd.Printf("semsearchd %s serving corpus %s\n", version, a.source.Root())
	err = scheduler.Start(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	logger.Info("Shutting down")
	if stopErr := scheduler.Stop(); stopErr != nil {
		return stopErr
	}
	return err
}
