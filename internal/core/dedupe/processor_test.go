package dedupe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agenthands/cardinal/internal/config"
	"github.com/agenthands/cardinal/internal/vcard"
)

func newTestProcessor(mock *MockLLM, quarantine string, t config.Thresholds) *Processor {
	return &Processor{
		Thresholds: t,
		Advisor:    NewAdvisor(mock, nil),
		Relocator:  NewRelocator(quarantine, nil),
		Log:        zap.NewNop().Sugar(),
	}
}

// janePair writes the two records from the end-to-end scenario: a named card
// and an unnamed one sharing the same email. With TF-IDF over this
// two-document corpus they score ~0.709.
func janePair(t *testing.T, dir string) {
	t.Helper()
	writeCard(t, dir, "jane1.vcf", &vcard.Card{FormattedName: "Jane Doe", Emails: []string{"jane@x.com"}})
	writeCard(t, dir, "jane2.vcf", &vcard.Card{Emails: []string{"jane@x.com"}})
}

func TestRunAutoMerge(t *testing.T) {
	active := t.TempDir()
	janePair(t, active)

	p := newTestProcessor(&MockLLM{}, t.TempDir(),
		config.Thresholds{Similarity: 0.5, AIDecision: 0.6, AutoMerge: 0.7})

	stats, err := p.Run(context.Background(), active)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 1, stats.Candidates)
	assert.Equal(t, 1, stats.AutoMerged)
	assert.Equal(t, 0, stats.Declined)

	// The active directory contains exactly the merged file, carrying the
	// named card's FN and the de-duplicated email.
	entries, err := os.ReadDir(active)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "merged_jane1.vcf", entries[0].Name())

	merged, err := vcard.Load(filepath.Join(active, "merged_jane1.vcf"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", merged.FormattedName)
	assert.Equal(t, []string{"jane@x.com"}, merged.Emails)

	bucket := p.Relocator.Bucket(active)
	assert.FileExists(t, filepath.Join(bucket, "jane1.vcf"))
	assert.FileExists(t, filepath.Join(bucket, "jane2.vcf"))
}

func TestRunAdvisoryFailureDeclines(t *testing.T) {
	active := t.TempDir()
	janePair(t, active)

	mock := &MockLLM{Err: errors.New("connection reset")}
	p := newTestProcessor(mock, t.TempDir(),
		config.Thresholds{Similarity: 0.3, AIDecision: 0.6, AutoMerge: 0.95})

	stats, err := p.Run(context.Background(), active)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Candidates)
	assert.Equal(t, 1, stats.Declined)
	assert.Equal(t, 0, stats.AutoMerged)
	assert.Equal(t, 0, stats.AdvisoryMerged)

	// No merge file; both originals quarantined; primary's copy restored.
	assert.NoFileExists(t, filepath.Join(active, "merged_jane1.vcf"))
	bucket := p.Relocator.Bucket(active)
	assert.FileExists(t, filepath.Join(bucket, "jane1.vcf"))
	assert.FileExists(t, filepath.Join(bucket, "jane2.vcf"))
	assert.FileExists(t, filepath.Join(active, "jane1.vcf"))
	assert.NoFileExists(t, filepath.Join(active, "jane2.vcf"))
}

func TestRunAdvisoryMerge(t *testing.T) {
	active := t.TempDir()
	janePair(t, active)

	mock := &MockLLM{Response: `{"should_merge": true, "fields": {"fn": "primary"}}`}
	p := newTestProcessor(mock, t.TempDir(),
		config.Thresholds{Similarity: 0.3, AIDecision: 0.6, AutoMerge: 0.95})

	stats, err := p.Run(context.Background(), active)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.AdvisoryMerged)
	assert.Equal(t, 0, stats.Declined)

	merged, err := vcard.Load(filepath.Join(active, "merged_jane1.vcf"))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", merged.FormattedName)
}

func TestRunAdvisoryNoRecommendation(t *testing.T) {
	active := t.TempDir()
	janePair(t, active)

	mock := &MockLLM{Response: `{"should_merge": false}`}
	p := newTestProcessor(mock, t.TempDir(),
		config.Thresholds{Similarity: 0.3, AIDecision: 0.6, AutoMerge: 0.95})

	stats, err := p.Run(context.Background(), active)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Declined)
	assert.FileExists(t, filepath.Join(active, "jane1.vcf"))
	assert.NoFileExists(t, filepath.Join(active, "jane2.vcf"))
}

func TestRunTooDissimilarStillRelocates(t *testing.T) {
	active := t.TempDir()
	janePair(t, active)

	p := newTestProcessor(&MockLLM{}, t.TempDir(),
		config.Thresholds{Similarity: 0.5, AIDecision: 0.8, AutoMerge: 0.95})

	stats, err := p.Run(context.Background(), active)
	require.NoError(t, err)

	// Score ~0.709 sits between the candidate cutoff and the advisory band:
	// reported, not merged, but still flagged out of the active directory.
	assert.Equal(t, 1, stats.Candidates)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, stats.Declined)
	assert.NoFileExists(t, filepath.Join(active, "merged_jane1.vcf"))
	assert.FileExists(t, filepath.Join(active, "jane1.vcf"))
	assert.FileExists(t, filepath.Join(p.Relocator.Bucket(active), "jane2.vcf"))
}

func TestRunCountsFailedMergeWrites(t *testing.T) {
	active := t.TempDir()
	janePair(t, active)
	// A directory squatting on the merged file's path makes the write fail.
	require.NoError(t, os.Mkdir(filepath.Join(active, "merged_jane1.vcf"), 0755))

	p := newTestProcessor(&MockLLM{}, t.TempDir(),
		config.Thresholds{Similarity: 0.5, AIDecision: 0.6, AutoMerge: 0.7})

	stats, err := p.Run(context.Background(), active)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Candidates)
	assert.Equal(t, 0, stats.AutoMerged)
	assert.Equal(t, 1, stats.MergeFailures)

	// Keep-original fallback: both originals quarantined, primary restored.
	bucket := p.Relocator.Bucket(active)
	assert.FileExists(t, filepath.Join(bucket, "jane1.vcf"))
	assert.FileExists(t, filepath.Join(bucket, "jane2.vcf"))
	assert.FileExists(t, filepath.Join(active, "jane1.vcf"))
}

func TestRunSkipsConsumedCards(t *testing.T) {
	active := t.TempDir()
	for _, name := range []string{"a.vcf", "b.vcf", "c.vcf"} {
		writeCard(t, active, name, &vcard.Card{FormattedName: "Jane Doe", Emails: []string{"jane@x.com"}})
	}

	p := newTestProcessor(&MockLLM{}, t.TempDir(),
		config.Thresholds{Similarity: 0.5, AIDecision: 0.6, AutoMerge: 0.95})

	stats, err := p.Run(context.Background(), active)
	require.NoError(t, err)

	// Three identical cards yield three candidate pairs; once (a, b) is
	// consumed the remaining pairs reference quarantined files and skip.
	assert.Equal(t, 3, stats.Candidates)
	assert.Equal(t, 1, stats.AutoMerged)
	assert.Equal(t, 2, stats.Skipped)
}

func TestRunExcludesUnreadableCards(t *testing.T) {
	active := t.TempDir()
	janePair(t, active)
	require.NoError(t, os.WriteFile(filepath.Join(active, "broken.vcf"), []byte("not a vcard"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(active, "notes.txt"), []byte("ignored"), 0644))

	p := newTestProcessor(&MockLLM{}, t.TempDir(),
		config.Thresholds{Similarity: 0.5, AIDecision: 0.6, AutoMerge: 0.7})

	stats, err := p.Run(context.Background(), active)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Scanned)
	assert.Equal(t, 1, stats.ParseFailures)
	assert.Equal(t, 1, stats.AutoMerged)
}

func TestRunMissingDirectoryIsFatal(t *testing.T) {
	p := newTestProcessor(&MockLLM{}, t.TempDir(),
		config.Thresholds{Similarity: 0.5, AIDecision: 0.6, AutoMerge: 0.7})

	_, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRunEmptyDirectory(t *testing.T) {
	p := newTestProcessor(&MockLLM{}, t.TempDir(),
		config.Thresholds{Similarity: 0.5, AIDecision: 0.6, AutoMerge: 0.7})

	stats, err := p.Run(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Candidates)
}
