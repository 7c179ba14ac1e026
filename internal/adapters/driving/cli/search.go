package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/core/domain"
)

var (
	searchLimit     int
	searchThreshold float64
	searchDocs      []string
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the indexed corpus",
	Long: `Embeds the query and ranks indexed chunks by cosine similarity.
Restrict the search to specific documents with --doc.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 uses the configured default)")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum similarity score (0 uses the configured default)")
	searchCmd.Flags().StringArrayVar(&searchDocs, "doc", nil, "restrict search to a document ID (repeatable)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := domain.SearchOptions{
		DocumentIDs: searchDocs,
		Limit:       searchLimit,
		Threshold:   searchThreshold,
	}

	// Each CLI invocation is its own session.
	result, err := a.searcher.Search(context.Background(), uuid.New().String(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result)
	}
	return outputSearchTable(cmd, result)
}

func outputSearchJSON(cmd *cobra.Command, result domain.RankedResult) error {
	data, err := json.MarshalIndent(result.Matches, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, result domain.RankedResult) error {
	if len(result.Matches) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for _, m := range result.Matches {
		cmd.Printf("  [%d] %s, chunk %d (%.3f)\n",
			m.Rank+1, m.ChunkID.DocumentID, m.ChunkID.ChunkIndex, m.Score)
	}
	cmd.Println()
	return nil
}
