package dedupe

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/cardinal/internal/config"
	"github.com/agenthands/cardinal/internal/core/similarity"
	"github.com/agenthands/cardinal/internal/llm"
	"github.com/agenthands/cardinal/internal/vcard"
)

// RunStats accumulates the counters reported at the end of one run. Per-pair
// failures land here instead of aborting the run.
type RunStats struct {
	Scanned            int // .vcf files read successfully
	ParseFailures      int // files excluded from the corpus
	Candidates         int // pairs above the similarity cutoff
	AutoMerged         int
	AdvisoryMerged     int
	Declined           int // advisory said no, or the advisory call failed
	Skipped            int // too dissimilar to decide, or a side already consumed
	MergeFailures      int // merge decided but the merged file could not be written
	RelocationFailures int
}

// Processor drives one full deduplication run over a directory of vCards.
type Processor struct {
	Thresholds config.Thresholds
	Advisor    *Advisor
	Relocator  *Relocator
	Log        *zap.SugaredLogger
}

// NewProcessor wires the engine. decisionLog receives one entry per advisory
// verdict; pass nil to discard them.
func NewProcessor(cfg *config.Config, client llm.Client, log, decisionLog *zap.SugaredLogger) *Processor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Processor{
		Thresholds: cfg.Thresholds,
		Advisor:    NewAdvisor(client, decisionLog),
		Relocator:  NewRelocator(cfg.Paths.QuarantineDir, log),
		Log:        log,
	}
}

// Run loads the corpus, finds candidate pairs and processes each one exactly
// once: classify, consult the advisory LLM when required, merge, relocate.
// Only a failure to read the directory itself is fatal.
func (p *Processor) Run(ctx context.Context, dir string) (*RunStats, error) {
	stats := &RunStats{}

	cards, err := p.loadCorpus(dir, stats)
	if err != nil {
		return nil, err
	}

	candidates := similarity.FindCandidates(cards, p.Thresholds.Similarity)
	stats.Candidates = len(candidates)
	p.Log.Infow("similarity scan complete", "cards", len(cards), "candidates", len(candidates))

	// A card consumed by an earlier pair is no longer live in the active
	// directory; later pairs that reference it are skipped.
	consumed := make(map[string]bool)

	for i, cand := range candidates {
		primary, secondary := cand.Primary, cand.Secondary
		if consumed[primary.Path] || consumed[secondary.Path] {
			stats.Skipped++
			continue
		}

		tier := Classify(cand.Score, p.Thresholds)
		p.Log.Infow("processing candidate pair",
			"pair", i+1,
			"total", len(candidates),
			"primary", filepath.Base(primary.Path),
			"secondary", filepath.Base(secondary.Path),
			"score", cand.Score,
			"tier", tier.String(),
		)

		var merged *vcard.Card
		switch tier {
		case TierAutoMerge:
			merged = Merge(primary, secondary, nil)

		case TierAdvisory:
			verdict, instr, err := p.Advisor.Decide(ctx, primary, secondary, cand.Score)
			switch {
			case err != nil:
				p.Log.Warnw("advisory call failed, declining merge", "error", err)
				stats.Declined++
			case !verdict.ShouldMerge:
				stats.Declined++
			default:
				merged = Merge(primary, secondary, instr)
			}

		case TierTooDissimilar:
			stats.Skipped++
		}

		mergedWritten, err := p.Relocator.Apply(merged, primary.Path, secondary.Path)
		consumed[primary.Path] = true
		consumed[secondary.Path] = true
		if err != nil {
			stats.RelocationFailures++
			p.Log.Errorw("relocation failed", "primary", primary.Path, "secondary", secondary.Path, "error", err)
		}

		if mergedWritten {
			if tier == TierAutoMerge {
				stats.AutoMerged++
			} else {
				stats.AdvisoryMerged++
			}
		} else if merged != nil {
			// The merge was decided but never became a file; the primary's
			// restored copy is the pair's surviving representative.
			stats.MergeFailures++
		}
	}

	p.Log.Infow("run complete",
		"scanned", stats.Scanned,
		"parse_failures", stats.ParseFailures,
		"candidates", stats.Candidates,
		"auto_merged", stats.AutoMerged,
		"advisory_merged", stats.AdvisoryMerged,
		"declined", stats.Declined,
		"skipped", stats.Skipped,
		"merge_failures", stats.MergeFailures,
		"relocation_failures", stats.RelocationFailures,
	)
	return stats, nil
}

func (p *Processor) loadCorpus(dir string, stats *RunStats) ([]*vcard.Card, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var cards []*vcard.Card
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".vcf") {
			continue
		}
		card, err := vcard.Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			stats.ParseFailures++
			p.Log.Warnw("excluding unreadable card", "file", entry.Name(), "error", err)
			continue
		}
		stats.Scanned++
		cards = append(cards, card)
	}
	return cards, nil
}
