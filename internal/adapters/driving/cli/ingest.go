package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessera-search/tessera/internal/adapters/driven/normaliser/pagestream"
	"github.com/tessera-search/tessera/internal/core/domain"
)

// roundTo trims outcome durations for display.
const roundTo = time.Millisecond

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Ingest documents into the index",
	Long: `Reads page-stream files and runs the full pipeline on each:
classify pages, extract text and image units, caption images, embed
every unit and write both index sides. Prints a per-document outcome.
Exits nonzero if any document failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&flagMIME, "mime", pagestream.MIMEType, "MIME type of the input files")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	svc, err := requireIngestService()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := 0
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		raw := &domain.RawDocument{
			FileName: filepath.Base(path),
			MIMEType: flagMIME,
			Content:  content,
		}

		outcome, err := svc.Ingest(ctx, raw)
		printOutcome(cmd, outcome)
		if err != nil {
			failed++
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(args))
	}
	return nil
}

func printOutcome(cmd *cobra.Command, outcome *domain.Outcome) {
	if outcome == nil {
		return
	}

	cmd.Printf("%s: %s (%d pages, %d text entries, %d image entries",
		outcome.FileName, outcome.Status, outcome.Pages,
		outcome.TextEntries, outcome.ImageEntries)
	if len(outcome.UnsummarizedUnits) > 0 {
		cmd.Printf(", %d unsummarized images", len(outcome.UnsummarizedUnits))
	}
	if len(outcome.FailedUnits) > 0 {
		cmd.Printf(", %d failed units", len(outcome.FailedUnits))
	}
	cmd.Printf(") in %s\n", outcome.Elapsed.Round(roundTo))

	if outcome.Reason != "" {
		cmd.Printf("  reason: %s\n", outcome.Reason)
	}
	for _, f := range outcome.FailedUnits {
		cmd.Printf("  failed %s at %s: %s\n", f.UnitID, f.Stage, f.Reason)
	}
}
