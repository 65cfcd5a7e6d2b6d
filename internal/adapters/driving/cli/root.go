// Package cli provides the tessera command line interface.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/tessera-search/tessera/internal/core/ports/driving"
	"github.com/tessera-search/tessera/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Injected services. main wires these before Execute; tests swap them
// for mocks.
var (
	ingestService driving.IngestService
	wireErr       error
	closers       []func() error
)

// Global flags.
var (
	flagConfig  string
	flagVerbose bool
	flagDryRun  bool
	flagMIME    string
)

var rootCmd = &cobra.Command{
	Use:   "tessera",
	Short: "Document ingestion for dual-modality search",
	Long: `Tessera ingests documents into a dual-modality search index:
text chunks are embedded directly, images are captioned by a vision
model and embedded via their captions. Both index sides share the
same document and page identifiers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false, "process without persisting the index")
}

// SetIngestService injects the pipeline entry point.
func SetIngestService(svc driving.IngestService) {
	ingestService = svc
}

// SetWireError records why services could not be built. Commands that
// need them report it; version and help still work.
func SetWireError(err error) {
	wireErr = err
}

// requireIngestService returns the injected service or the reason it
// is absent.
func requireIngestService() (driving.IngestService, error) {
	if ingestService != nil {
		return ingestService, nil
	}
	if wireErr != nil {
		return nil, wireErr
	}
	return nil, errors.New("ingest service not configured")
}

// AddCloser registers a resource to release after Execute.
func AddCloser(fn func() error) {
	closers = append(closers, fn)
}

// DryRun reports whether --dry-run was requested.
func DryRun() bool {
	return flagDryRun
}

// ConfigPath returns the --config value, empty for the default.
func ConfigPath() string {
	return flagConfig
}

// Execute parses flags once so main can wire services from them, then
// runs the selected command and closes registered resources.
func Execute() error {
	defer func() {
		for _, fn := range closers {
			if err := fn(); err != nil {
				logger.Warn("close: %v", err)
			}
		}
	}()
	return rootCmd.Execute()
}

// ParseFlags evaluates the global flags against args without running a
// command, so main can build services that depend on them.
func ParseFlags(args []string) {
	// Errors surface again during Execute.
	_ = rootCmd.PersistentFlags().Parse(args)
}
