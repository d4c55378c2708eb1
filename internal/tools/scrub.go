package tools

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/cardinal/internal/config"
	"github.com/agenthands/cardinal/internal/vcard"
)

type ScrubStats struct {
	Processed     int
	EmailsRemoved int
	NotesRemoved  int
	FilesChanged  int
	Failures      int
}

// Scrub removes service-generated email addresses (any address under one of
// the configured domains) and strips NOTE fields that contain none of the
// configured keywords. Only changed files are rewritten.
func Scrub(dir string, cfg config.ScrubConfig, log *zap.SugaredLogger) (ScrubStats, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	stats := ScrubStats{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return stats, err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".vcf") {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		card, err := vcard.Load(path)
		if err != nil {
			stats.Failures++
			log.Warnw("skipping unreadable card", "file", entry.Name(), "error", err)
			continue
		}
		stats.Processed++

		changed := false

		kept := card.Emails[:0]
		for _, email := range card.Emails {
			if matchesDomain(email, cfg.EmailDomains) {
				stats.EmailsRemoved++
				changed = true
				log.Infow("removing email", "file", entry.Name(), "email", email)
				continue
			}
			kept = append(kept, email)
		}
		card.Emails = kept

		if card.Note != "" && !containsKeyword(card.Note, cfg.NoteKeywords) {
			card.Note = ""
			stats.NotesRemoved++
			changed = true
			log.Infow("removing note", "file", entry.Name())
		}

		if !changed {
			continue
		}
		if err := vcard.Write(path, card); err != nil {
			stats.Failures++
			log.Warnw("failed to rewrite card", "file", entry.Name(), "error", err)
			continue
		}
		stats.FilesChanged++
	}
	return stats, nil
}

func matchesDomain(email string, domains []string) bool {
	_, domain, found := strings.Cut(email, "@")
	if !found {
		return false
	}
	for _, d := range domains {
		if strings.EqualFold(domain, d) {
			return true
		}
	}
	return false
}

func containsKeyword(note string, keywords []string) bool {
	lower := strings.ToLower(note)
	for _, k := range keywords {
		if k != "" && strings.Contains(lower, strings.ToLower(k)) {
			return true
		}
	}
	return false
}
