package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/agenthands/cardinal/internal/config"
	"github.com/agenthands/cardinal/internal/core/dedupe"
	"github.com/agenthands/cardinal/internal/llm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	configPath := flag.String("config", "cardinal.toml", "path to the TOML config file")
	decisionLogPath := flag.String("decision-log", "ai_decisions.log", "file receiving advisory verdicts")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <directory>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	dir := flag.Arg(0)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	applyEnvKeys(cfg)

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	decisionLogger, err := fileLogger(*decisionLogPath)
	if err != nil {
		log.Fatalf("cannot open decision log: %v", err)
	}
	defer decisionLogger.Sync()

	ctx := context.Background()
	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		log.Fatalf("failed to build LLM client: %v", err)
	}

	processor := dedupe.NewProcessor(cfg, client, logger.Sugar(), decisionLogger.Sugar())
	stats, err := processor.Run(ctx, dir)
	if err != nil {
		log.Fatalf("run failed: %v", err)
	}

	printSummary(stats, cfg)
}

// loadConfig falls back to defaults when the default config file is absent,
// but a path the user asked for explicitly must exist.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if errors.Is(err, os.ErrNotExist) && path == "cardinal.toml" {
		log.Printf("config file %s not found, using defaults", path)
		def := config.Default()
		if err := def.Validate(); err != nil {
			return nil, err
		}
		return &def, nil
	}
	return nil, err
}

// applyEnvKeys fills an empty API key from the provider's conventional
// environment variable.
func applyEnvKeys(cfg *config.Config) {
	if cfg.LLM.APIKey != "" {
		return
	}
	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "gemini":
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
	}
}

func fileLogger(path string) (*zap.Logger, error) {
	c := zap.NewProductionConfig()
	c.OutputPaths = []string{path}
	c.ErrorOutputPaths = []string{path}
	return c.Build()
}

func printSummary(stats *dedupe.RunStats, cfg *config.Config) {
	bold := color.New(color.Bold)
	bold.Println("\nProcessing complete.")
	fmt.Printf("Cards scanned:       %d\n", stats.Scanned)
	fmt.Printf("Parse failures:      %d\n", stats.ParseFailures)
	fmt.Printf("Candidate pairs:     %d\n", stats.Candidates)
	color.Green("Auto-merged:         %d", stats.AutoMerged)
	color.Green("AI-merged:           %d", stats.AdvisoryMerged)
	color.Yellow("Declined:            %d", stats.Declined)
	color.Yellow("Skipped:             %d", stats.Skipped)
	if stats.MergeFailures > 0 {
		color.Red("Merge failures:      %d", stats.MergeFailures)
	}
	if stats.RelocationFailures > 0 {
		color.Red("Relocation failures: %d", stats.RelocationFailures)
	}
	fmt.Printf("Relocated originals are under: %s\n", cfg.Paths.QuarantineDir)
}
