package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/ports/driving"
)

var indexCmd = &cobra.Command{
	Use:   "index [document-id...]",
	Short: "Index documents into the embedding store",
	Long: `Chunks, embeds and stores the given documents. With no arguments the
whole corpus is indexed. Documents that fail are reported and skipped;
the rest of the run continues.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	if err := a.checkProvider(ctx); err != nil {
		return err
	}

	if len(args) == 0 {
		cmd.Println("Indexing corpus...")
	} else {
		cmd.Printf("Indexing %d documents...\n", len(args))
	}

	jobID, err := a.indexer.Start(ctx, args)
	if err != nil {
		return fmt.Errorf("starting index job: %w", err)
	}

	job, err := waitWithProgress(cmd, a.indexer, jobID)
	if err != nil {
		return err
	}

	return reportJob(cmd, job)
}

// waitWithProgress polls job status while the job runs.
func waitWithProgress(cmd *cobra.Command, indexer driving.IndexOrchestrator, jobID string) (domain.IndexJob, error) {
	done := make(chan struct{})
	var (
		final   domain.IndexJob
		waitErr error
	)
	go func() {
		final, waitErr = indexer.Wait(jobID)
		close(done)
	}()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	last := -1
	for {
		select {
		case <-done:
			if last >= 0 {
				cmd.Println()
			}
			return final, waitErr
		case <-ticker.C:
			job, err := indexer.Status(jobID)
			if err != nil {
				continue
			}
			if job.Completed > last {
				last = job.Completed
				cmd.Printf("\rIndexing... %d/%d documents", job.Completed, job.Total)
			}
		}
	}
}

// reportJob prints the job outcome, failing the command when the job
// did not complete.
func reportJob(cmd *cobra.Command, job domain.IndexJob) error {
	failed := 0
	chunks := 0
	for _, outcome := range job.Outcomes {
		if outcome.OK() {
			chunks += outcome.Chunks
			continue
		}
		failed++
		cmd.Printf("  failed: %s: %s\n", outcome.DocumentID, outcome.Err)
	}

	switch job.State {
	case domain.JobCompleted:
		cmd.Printf("Indexed %d documents (%d chunks), %d failed.\n",
			job.Completed-failed, chunks, failed)
		return nil
	case domain.JobCancelled:
		cmd.Printf("Cancelled after %d/%d documents.\n", job.Completed, job.Total)
		return nil
	default:
		return fmt.Errorf("index job %s: %s", job.State, job.Err)
	}
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := buildApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		count, err := a.store.Count(context.Background())
		if err != nil {
			return err
		}
		docs, err := a.source.List(context.Background())
		if err != nil {
			return err
		}

		cmd.Printf("Corpus:     %s (%d documents)\n", a.source.Root(), len(docs))
		cmd.Printf("Store:      %s (%d chunks, dimension %d)\n", a.store.Path(), count, a.store.Dimension())
		cmd.Printf("Provider:   %s\n", a.embedder.ProviderTag())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
