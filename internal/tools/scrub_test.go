package tools

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/cardinal/internal/config"
	"github.com/agenthands/cardinal/internal/vcard"
)

func TestScrubRemovesServiceEmails(t *testing.T) {
	dir := t.TempDir()
	writeTestCard(t, dir, "jane.vcf", &vcard.Card{
		FormattedName: "Jane Doe",
		Emails:        []string{"jane@x.com", "12345@Facebook.com"},
	})

	cfg := config.ScrubConfig{EmailDomains: []string{"facebook.com"}}
	stats, err := Scrub(dir, cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.EmailsRemoved)
	assert.Equal(t, 1, stats.FilesChanged)

	card, err := vcard.Load(filepath.Join(dir, "jane.vcf"))
	require.NoError(t, err)
	assert.Equal(t, []string{"jane@x.com"}, card.Emails)
}

func TestScrubNotes(t *testing.T) {
	dir := t.TempDir()
	writeTestCard(t, dir, "keep.vcf", &vcard.Card{FormattedName: "A", Note: "IMPORTANT: call back"})
	writeTestCard(t, dir, "drop.vcf", &vcard.Card{FormattedName: "B", Note: "auto-generated sync note"})

	cfg := config.ScrubConfig{NoteKeywords: []string{"important"}}
	stats, err := Scrub(dir, cfg, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.NotesRemoved)

	kept, err := vcard.Load(filepath.Join(dir, "keep.vcf"))
	require.NoError(t, err)
	assert.Equal(t, "IMPORTANT: call back", kept.Note)

	dropped, err := vcard.Load(filepath.Join(dir, "drop.vcf"))
	require.NoError(t, err)
	assert.Empty(t, dropped.Note)
}

func TestScrubLeavesCleanFilesUntouched(t *testing.T) {
	dir := t.TempDir()
	writeTestCard(t, dir, "clean.vcf", &vcard.Card{FormattedName: "A", Emails: []string{"a@b.c"}})

	stats, err := Scrub(dir, config.ScrubConfig{EmailDomains: []string{"facebook.com"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 0, stats.FilesChanged)
}
