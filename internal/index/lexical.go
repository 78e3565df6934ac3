package index

import (
	"math"
	"sort"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
	"github.com/pagelens/pagelens-cli/internal/filter"
)

// BM25 parameters, matching the filter's scoring constants.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// lexicalHit is a raw lexical match before blending.
type lexicalHit struct {
	chunkID string
	// score is normalized to [0, 1] against the best hit for the query.
	score float64
}

// lexicalEngine is an in-memory BM25 index over one page's chunk corpus.
// It is immutable once built; a rebuild replaces it wholesale.
type lexicalEngine struct {
	ids    []string
	tf     []map[string]int
	docLen []float64
	avgLen float64
	idf    map[string]float64
}

// newLexicalEngine builds the term statistics for a chunk corpus.
func newLexicalEngine(chunks []domain.Chunk) *lexicalEngine {
	e := &lexicalEngine{
		ids:    make([]string, len(chunks)),
		tf:     make([]map[string]int, len(chunks)),
		docLen: make([]float64, len(chunks)),
		idf:    make(map[string]float64),
	}

	df := make(map[string]int)
	total := 0.0
	for i, c := range chunks {
		e.ids[i] = c.ID
		terms := filter.Tokenize(c.Text)
		tf := make(map[string]int, len(terms))
		for _, t := range terms {
			tf[t]++
		}
		e.tf[i] = tf
		e.docLen[i] = float64(len(terms))
		total += e.docLen[i]
		for t := range tf {
			df[t]++
		}
	}

	if len(chunks) > 0 {
		e.avgLen = total / float64(len(chunks))
	}
	n := float64(len(chunks))
	for t, d := range df {
		e.idf[t] = math.Log(1 + (n-float64(d)+0.5)/(float64(d)+0.5))
	}

	return e
}

// search scores the query against every chunk and returns up to limit hits
// with normalized score >= minScore, best first.
func (e *lexicalEngine) search(query string, limit int, minScore float64) []lexicalHit {
	terms := filter.Tokenize(query)
	if len(terms) == 0 || len(e.ids) == 0 {
		return nil
	}

	raw := make([]float64, len(e.ids))
	best := 0.0
	for i := range e.ids {
		norm := bm25K1 * (1 - bm25B + bm25B*e.docLen[i]/math.Max(e.avgLen, 1))
		score := 0.0
		for _, t := range terms {
			f := float64(e.tf[i][t])
			if f == 0 {
				continue
			}
			score += e.idf[t] * (f * (bm25K1 + 1)) / (f + norm)
		}
		raw[i] = score
		if score > best {
			best = score
		}
	}

	if best == 0 {
		return nil
	}

	hits := make([]lexicalHit, 0, len(e.ids))
	for i, score := range raw {
		normalized := score / best
		if normalized >= minScore {
			hits = append(hits, lexicalHit{chunkID: e.ids[i], score: normalized})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}
