package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nmorrow/covmap/internal/index"
)

var indexTimeout time.Duration

// indexCmd represents the index command
var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Embed policy provisions for vector matching",
	Long: `Index embeds every provision that does not yet carry a vector and
stores the result, so the vector signal has a populated nearest-neighbor
index to query. Run it after loading or updating the policy corpus.

Indexing stops on the first embedding failure rather than leaving a
partially embedded corpus behind.

Example:
  covmap index
  covmap index --timeout 1h`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().DurationVar(&indexTimeout, "timeout", 30*time.Minute, "total timeout for indexing")
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	p, err := buildPipeline(ctx, false)
	if err != nil {
		return err
	}
	defer p.Close()

	if p.embedder == nil {
		return fmt.Errorf("indexing requires an embedding API key")
	}

	ix := index.New(p.store, p.embedder, p.cfg.OrgID, p.logger)
	n, err := ix.Run(ctx)
	if err != nil {
		return fmt.Errorf("indexing failed after %d provisions: %w", n, err)
	}

	fmt.Printf("✓ Embedded %d provisions\n", n)
	return nil
}
