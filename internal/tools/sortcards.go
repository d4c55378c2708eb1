package tools

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/cardinal/internal/vcard"
)

type SortStats struct {
	Processed int
	Moved     int
	Failures  int
}

// SortByContactInfo moves cards carrying no email, phone number or address
// from srcDir into dstDir. With dryRun set it only reports what would move.
func SortByContactInfo(srcDir, dstDir string, dryRun bool, log *zap.SugaredLogger) (SortStats, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	stats := SortStats{}
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return stats, err
	}
	if !dryRun {
		if err := os.MkdirAll(dstDir, 0755); err != nil {
			return stats, err
		}
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".vcf") {
			continue
		}
		path := filepath.Join(srcDir, entry.Name())

		card, err := vcard.Load(path)
		if err != nil {
			stats.Failures++
			log.Warnw("skipping unreadable card", "file", entry.Name(), "error", err)
			continue
		}
		stats.Processed++
		if card.HasContactInfo() {
			continue
		}

		if dryRun {
			stats.Moved++
			log.Infow("would move card without contact info", "file", entry.Name())
			continue
		}
		if err := os.Rename(path, filepath.Join(dstDir, entry.Name())); err != nil {
			stats.Failures++
			log.Warnw("failed to move card", "file", entry.Name(), "error", err)
			continue
		}
		stats.Moved++
		log.Infow("moved card without contact info", "file", entry.Name())
	}
	return stats, nil
}
