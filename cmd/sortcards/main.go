package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/agenthands/cardinal/internal/tools"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report moves without performing them")
	verbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	if flag.NArg() != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <source-dir> <destination-dir>\n", os.Args[0])
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			log.Fatal(err)
		}
	}
	defer logger.Sync()

	stats, err := tools.SortByContactInfo(flag.Arg(0), flag.Arg(1), *dryRun, logger.Sugar())
	if err != nil {
		log.Fatalf("sortcards failed: %v", err)
	}

	verb := "moved"
	if *dryRun {
		verb = "would move"
	}
	fmt.Printf("Processed %d cards, %s %d without contact info, %d failures\n",
		stats.Processed, verb, stats.Moved, stats.Failures)
}
