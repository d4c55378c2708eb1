package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/agenthands/cardinal/internal/config"
	"github.com/agenthands/cardinal/internal/tools"
)

func main() {
	configPath := flag.String("config", "cardinal.toml", "path to the TOML config file")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <directory>\n", os.Args[0])
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("configuration error: %v", err)
		}
		def := config.Default()
		cfg = &def
	}

	logger := zap.NewNop()
	if *verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatal(err)
		}
	}
	defer logger.Sync()

	stats, err := tools.Scrub(flag.Arg(0), cfg.Scrub, logger.Sugar())
	if err != nil {
		log.Fatalf("scrub failed: %v", err)
	}
	fmt.Printf("Processed %d cards: removed %d emails and %d notes across %d files, %d failures\n",
		stats.Processed, stats.EmailsRemoved, stats.NotesRemoved, stats.FilesChanged, stats.Failures)
}
