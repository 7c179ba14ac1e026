// Package cli provides the command-line interface: the long-running
// serve daemon plus one-shot search and index commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/loganrooks/calibre-semantic-search-sub002/internal/config"
	"github.com/loganrooks/calibre-semantic-search-sub002/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	configPath string
	verbose    bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "semsearchd",
	Short: "Local semantic search over a document corpus",
	Long: `semsearchd indexes a directory of documents into vector embeddings
and answers similarity queries against them. Indexing runs in the
background; search stays available throughout.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.semsearch/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
