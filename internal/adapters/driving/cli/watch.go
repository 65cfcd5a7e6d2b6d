package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/tessera-search/tessera/internal/adapters/driven/normaliser/pagestream"
	"github.com/tessera-search/tessera/internal/core/domain"
	"github.com/tessera-search/tessera/internal/logger"
)

// watchExt is the file extension the watcher reacts to.
const watchExt = ".pages"

// settleDelay lets the writer finish before the file is read. Create
// and write events fire while the converter is still streaming.
const settleDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and ingest new page-stream files",
	Long: `Watches a directory and ingests every ` + watchExt + ` file that is
created or written there, until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if _, err := requireIngestService(); err != nil {
		return err
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch target %s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("Watching %s for %s files. Ctrl-C to stop.\n", dir, watchExt)

	// pending debounces bursts of events for the same file.
	pending := make(map[string]*time.Timer)
	ingest := make(chan string)

	for {
		select {
		case <-ctx.Done():
			return nil

		case path := <-ingest:
			delete(pending, path)
			ingestWatchedFile(ctx, cmd, path)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), watchExt) {
				continue
			}

			path := event.Name
			if timer, exists := pending[path]; exists {
				timer.Reset(settleDelay)
				continue
			}
			pending[path] = time.AfterFunc(settleDelay, func() {
				select {
				case ingest <- path:
				case <-ctx.Done():
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)
		}
	}
}

func ingestWatchedFile(ctx context.Context, cmd *cobra.Command, path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("reading %s: %v", path, err)
		return
	}

	raw := &domain.RawDocument{
		FileName: filepath.Base(path),
		MIMEType: pagestream.MIMEType,
		Content:  content,
	}

	outcome, err := ingestService.Ingest(ctx, raw)
	printOutcome(cmd, outcome)
	if err != nil && ctx.Err() == nil {
		logger.Warn("ingest %s: %v", path, err)
	}
}
