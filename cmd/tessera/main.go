// Command tessera ingests documents into a dual-modality search index.
package main

import (
	"fmt"
	"os"

	"github.com/tessera-search/tessera/internal/adapters/driven/ai"
	"github.com/tessera-search/tessera/internal/adapters/driven/config/file"
	"github.com/tessera-search/tessera/internal/adapters/driven/normaliser/pagestream"
	"github.com/tessera-search/tessera/internal/adapters/driven/normaliser/plaintext"
	"github.com/tessera-search/tessera/internal/adapters/driven/storage/memory"
	"github.com/tessera-search/tessera/internal/adapters/driven/storage/sqlite"
	"github.com/tessera-search/tessera/internal/adapters/driving/cli"
	"github.com/tessera-search/tessera/internal/core/ports/driven"
	"github.com/tessera-search/tessera/internal/core/services"
	"github.com/tessera-search/tessera/internal/retry"
)

func main() {
	cli.ParseFlags(os.Args[1:])

	if err := wire(); err != nil {
		// Commands that need the pipeline surface this; version and
		// help still run.
		cli.SetWireError(err)
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// wire builds the pipeline from configuration and injects it into the
// CLI.
func wire() error {
	path := cli.ConfigPath()
	if path == "" {
		var err error
		path, err = file.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolving config path: %w", err)
		}
	}

	cfg, err := file.Load(path)
	if err != nil {
		return err
	}

	captioner, err := ai.CreateCaptioner(modelConfig(cfg.Captioning))
	if err != nil {
		return err
	}
	cli.AddCloser(captioner.Close)

	embedder, err := ai.CreateEmbeddingService(modelConfig(cfg.Embedding))
	if err != nil {
		return err
	}
	cli.AddCloser(embedder.Close)

	var writer driven.IndexWriter
	if cli.DryRun() {
		writer = memory.NewIndexStore()
	} else {
		store, err := sqlite.NewStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("opening index store: %w", err)
		}
		writer = store
	}
	cli.AddCloser(writer.Close)

	budget := services.NewCallBudget(cfg.Budget.MaxCalls, cfg.Budget.CallsPerSecond)
	policy := retry.DefaultPolicy()

	orchestrator := services.NewOrchestrator(
		[]driven.PageNormaliser{pagestream.New(), plaintext.New()},
		services.NewClassifier(services.ClassifierConfig{
			MaxImageAreaRatio: cfg.Classifier.MaxImageAreaRatio,
			MinCharsPerPage:   cfg.Classifier.MinCharsPerPage,
			MinPrintableRatio: cfg.Classifier.MinPrintableRatio,
			MinWordlikeRatio:  cfg.Classifier.MinWordlikeRatio,
		}),
		services.NewExtractor(services.ExtractorConfig{
			ChunkSize: cfg.Chunking.ChunkSize,
			MinChunk:  cfg.Chunking.MinChunk,
		}),
		services.NewSummariser(captioner, policy, budget),
		services.NewEmbedder(embedder, policy, budget),
		writer,
		services.OrchestratorConfig{
			Concurrency:  cfg.Concurrency,
			ContextBytes: cfg.ContextBytes,
		},
	)

	cli.SetIngestService(orchestrator)
	return nil
}

func modelConfig(m file.ModelConfig) ai.Config {
	return ai.Config{
		Provider: m.Provider,
		APIKey:   m.Key(),
		BaseURL:  m.BaseURL,
		Model:    m.Model,
	}
}
