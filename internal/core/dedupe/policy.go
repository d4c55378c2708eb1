package dedupe

import (
	"github.com/agenthands/cardinal/internal/config"
)

// Tier is the decision assigned to one candidate pair.
type Tier int

const (
	// TierTooDissimilar: above the corpus cutoff but below the advisory
	// band. The pair is reported and left unmerged.
	TierTooDissimilar Tier = iota
	// TierAdvisory: mid-confidence; the advisory LLM decides.
	TierAdvisory
	// TierAutoMerge: confident enough to merge without asking.
	TierAutoMerge
)

func (t Tier) String() string {
	switch t {
	case TierAutoMerge:
		return "auto-merge"
	case TierAdvisory:
		return "advisory"
	default:
		return "too-dissimilar"
	}
}

// Classify maps a similarity score to its decision tier. Boundary values
// belong to the higher-confidence tier: a score exactly at a threshold takes
// the tier above it.
func Classify(score float64, t config.Thresholds) Tier {
	switch {
	case score >= t.AutoMerge:
		return TierAutoMerge
	case score >= t.AIDecision:
		return TierAdvisory
	default:
		return TierTooDissimilar
	}
}
