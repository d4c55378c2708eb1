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
	verbose := flag.Bool("v", false, "verbose output")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-v] <directory>\n", os.Args[0])
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

	stats, err := tools.AddUIDs(flag.Arg(0), logger.Sugar())
	if err != nil {
		log.Fatalf("uidadd failed: %v", err)
	}
	fmt.Printf("Processed %d cards, added %d UIDs, %d failures\n",
		stats.Processed, stats.Updated, stats.Failures)
}
