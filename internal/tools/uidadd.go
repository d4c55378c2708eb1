package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthands/cardinal/internal/vcard"
)

type UIDStats struct {
	Processed int
	Updated   int
	Failures  int
}

// AddUIDs walks dir non-recursively and assigns a fresh UUID to every vCard
// that lacks a UID. The UID line is spliced into the original text so that
// properties outside the codec's subset are preserved untouched.
func AddUIDs(dir string, log *zap.SugaredLogger) (UIDStats, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	stats := UIDStats{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return stats, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".vcf") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		data, err := os.ReadFile(path)
		if err != nil {
			stats.Failures++
			log.Warnw("failed to read card", "file", entry.Name(), "error", err)
			continue
		}
		card, err := vcard.Parse(string(data))
		if err != nil {
			stats.Failures++
			log.Warnw("skipping unreadable card", "file", entry.Name(), "error", err)
			continue
		}
		stats.Processed++
		if card.UID != "" {
			continue
		}

		updated, ok := spliceUID(string(data), uuid.New().String())
		if !ok {
			stats.Failures++
			log.Warnw("no END:VCARD marker, cannot splice UID", "file", entry.Name())
			continue
		}
		if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
			stats.Failures++
			log.Warnw("failed to rewrite card", "file", entry.Name(), "error", err)
			continue
		}
		stats.Updated++
		log.Infow("added UID", "file", entry.Name())
	}
	return stats, nil
}

// spliceUID inserts a UID property immediately before the END:VCARD line.
func spliceUID(text, uid string) (string, bool) {
	idx := strings.LastIndex(text, "END:VCARD")
	if idx == -1 {
		idx = strings.LastIndex(text, "end:vcard")
	}
	if idx == -1 {
		return text, false
	}
	eol := "\n"
	if strings.Contains(text, "\r\n") {
		eol = "\r\n"
	}
	return text[:idx] + fmt.Sprintf("UID:%s%s", uid, eol) + text[idx:], true
}
