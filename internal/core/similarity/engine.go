package similarity

import (
	"math"
	"strings"

	"github.com/agenthands/cardinal/internal/vcard"
)

// Candidate is an unordered pair of cards whose similarity score exceeded the
// corpus-level cutoff. Primary always precedes Secondary in corpus order.
type Candidate struct {
	Primary   *vcard.Card
	Secondary *vcard.Card
	Score     float64
}

// Document builds the comparison blob for one card: display name, emails and
// phone numbers, lower-cased and whitespace-joined. A card with none of these
// yields an empty blob and scores near zero against everything.
func Document(c *vcard.Card) string {
	var parts []string
	if name := c.DisplayName(); name != "" {
		parts = append(parts, name)
	}
	parts = append(parts, c.Emails...)
	parts = append(parts, c.Phones...)
	return strings.ToLower(strings.Join(parts, " "))
}

// FindCandidates scores every unordered pair of cards with TF-IDF weighted
// cosine similarity and returns those strictly above threshold, in corpus
// order (i < j). A corpus of fewer than two cards yields nil.
func FindCandidates(cards []*vcard.Card, threshold float64) []Candidate {
	if len(cards) < 2 {
		return nil
	}

	docs := make([][]string, len(cards))
	for i, c := range cards {
		docs[i] = strings.Fields(Document(c))
	}
	vectors := vectorize(docs)

	var candidates []Candidate
	for i := 0; i < len(vectors); i++ {
		for j := i + 1; j < len(vectors); j++ {
			score := dot(vectors[i], vectors[j])
			if score > threshold {
				candidates = append(candidates, Candidate{
					Primary:   cards[i],
					Secondary: cards[j],
					Score:     score,
				})
			}
		}
	}
	return candidates
}

// vectorize computes an L2-normalized TF-IDF vector per document, with
// smoothed IDF so that terms appearing in every document still carry a small
// weight. Cosine similarity between normalized vectors reduces to a dot
// product.
func vectorize(docs [][]string) []map[string]float64 {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range doc {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}

	vectors := make([]map[string]float64, len(docs))
	for i, doc := range docs {
		vec := make(map[string]float64)
		for _, term := range doc {
			vec[term] += idf[term]
		}

		var norm float64
		for _, w := range vec {
			norm += w * w
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for term := range vec {
				vec[term] /= norm
			}
		}
		vectors[i] = vec
	}
	return vectors
}

func dot(a, b map[string]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for term, w := range a {
		sum += w * b[term]
	}
	return sum
}
