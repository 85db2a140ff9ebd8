package embedder

import (
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b. Vectors of different
// length or with zero magnitude yield NaN.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.NaN()
	}
	var dot, aMag, bMag float64
	for i := range a {
		dot += a[i] * b[i]
		aMag += a[i] * a[i]
		bMag += b[i] * b[i]
	}
	return dot / (math.Sqrt(aMag) * math.Sqrt(bMag))
}

// MaxSim scores a document against a query with late interaction: for every
// query vector the best cosine similarity over all document vectors is
// summed. Comparisons yielding NaN are skipped, and so are query vectors
// without any comparable document vector.
func MaxSim(query, doc [][]float64) float64 {
	var score float64
	for _, q := range query {
		best := math.NaN()
		for _, d := range doc {
			sim := Cosine(q, d)
			if math.IsNaN(sim) {
				continue
			}
			if math.IsNaN(best) || sim > best {
				best = sim
			}
		}
		if math.IsNaN(best) {
			continue
		}
		score += best
	}
	return score
}

// Score is the MaxSim relevance of one document
type Score struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Rank scores every document against query and returns the topK best,
// highest score first. Equal scores are ordered by id. topK <= 0 returns all.
func Rank(query [][]float64, docs map[string][][]float64, topK int) []Score {
	ret := make([]Score, 0, len(docs))
	for id, vectors := range docs {
		ret = append(ret, Score{ID: id, Score: MaxSim(query, vectors)})
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Score == ret[j].Score {
			return ret[i].ID < ret[j].ID
		}
		return ret[i].Score > ret[j].Score
	})
	if topK > 0 && topK < len(ret) {
		ret = ret[:topK]
	}
	return ret
}
