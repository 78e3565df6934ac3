// Package filter scores chunks for structural quality and lexical relevance,
// removes boilerplate and near-duplicates, and optionally caps the corpus.
package filter

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
	"github.com/pagelens/pagelens-cli/internal/logger"
)

// BM25 parameters. The corpus is a single page, so document length is the
// chunk length and the average is taken over the chunk corpus.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// Boilerplate thresholds.
const (
	// minBoilerplateChars is the absolute floor in the boilerplate pass.
	minBoilerplateChars = 20

	// boilerplateMatchLimit drops a chunk when this many distinct
	// boilerplate patterns match.
	boilerplateMatchLimit = 3
)

// boilerplatePatterns match navigation and legal cruft common on web pages.
var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcookies?\b`),
	regexp.MustCompile(`(?i)\bprivacy policy\b`),
	regexp.MustCompile(`(?i)\bterms of (service|use)\b`),
	regexp.MustCompile(`(?i)\ball rights reserved\b`),
	regexp.MustCompile(`(?i)\bsubscribe\b`),
	regexp.MustCompile(`(?i)\bnewsletter\b`),
	regexp.MustCompile(`(?i)\bfollow us\b`),
	regexp.MustCompile(`(?i)\badvertisement\b`),
	regexp.MustCompile(`(?i)\bsponsored\b`),
	regexp.MustCompile(`(?i)\b(click|read) more\b`),
}

// linkMarkup approximates link density: markdown-style and residual anchor
// artifacts per 100 characters.
var linkMarkup = regexp.MustCompile(`https?://\S+|\[[^\]]*\]\([^)]*\)`)

// articleTags earn the semantic-tag quality bonus.
var articleTags = map[string]bool{
	"article": true,
	"main":    true,
}

// Config controls filtering behaviour. Zero values keep everything: the
// score minimums only apply when set by the caller.
type Config struct {
	// MinQualityScore drops chunks scoring below it (when non-zero) if they
	// also miss MinLexicalScore.
	MinQualityScore float64

	// MinLexicalScore works with MinQualityScore; a chunk is dropped only
	// when it is below both minimums.
	MinLexicalScore float64

	// Dedupe enables near-duplicate removal on a truncated normalized key.
	Dedupe bool

	// MaxChunks caps the corpus by total score descending (0 = no cap).
	MaxChunks int
}

// Filter prunes and scores a chunk corpus.
type Filter struct {
	cfg Config
}

// New creates a Filter.
func New(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

// Apply runs the boilerplate pass, scores every surviving chunk, filters by
// the configured minimums, deduplicates, and caps the corpus. Scores are
// written back onto the surviving chunks; this is the only place chunk score
// fields are populated.
func (f *Filter) Apply(chunks []domain.Chunk) []domain.Chunk {
	logger.Section("Filtering")
	logger.Debug("Input corpus: %d chunks", len(chunks))

	chunks = DropBoilerplate(chunks)
	logger.Debug("After boilerplate pass: %d chunks", len(chunks))

	avgLen := averageLength(chunks)
	idf := corpusIDF(chunks)

	scored := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		c.QualityScore = QualityScore(c)
		c.LexicalScore = lexicalScore(c, avgLen, idf)
		c.TotalScore = c.QualityScore + c.LexicalScore

		if f.belowMinimums(c) {
			logger.Debug("Dropping %s: quality=%.1f lexical=%.2f below minimums", c.ID, c.QualityScore, c.LexicalScore)
			continue
		}
		scored = append(scored, c)
	}

	if f.cfg.Dedupe {
		scored = dedupeByPrefix(scored)
		logger.Debug("After dedupe: %d chunks", len(scored))
	}

	if f.cfg.MaxChunks > 0 && len(scored) > f.cfg.MaxChunks {
		sort.SliceStable(scored, func(i, j int) bool {
			return scored[i].TotalScore > scored[j].TotalScore
		})
		scored = scored[:f.cfg.MaxChunks]
	}

	logger.Info("Filtered corpus: %d chunks", len(scored))
	return scored
}

// belowMinimums reports whether the chunk misses both configured minimums.
// Unset minimums (zero) never drop anything.
func (f *Filter) belowMinimums(c domain.Chunk) bool {
	if f.cfg.MinQualityScore == 0 && f.cfg.MinLexicalScore == 0 {
		return false
	}
	return c.QualityScore < f.cfg.MinQualityScore && c.LexicalScore < f.cfg.MinLexicalScore
}

// DropBoilerplate removes chunks that are too short to matter or mostly
// navigation/legal cruft. It can run before or independent of scoring.
func DropBoilerplate(chunks []domain.Chunk) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		raw := strings.TrimSpace(c.RawText)
		if utf8.RuneCountInString(raw) < minBoilerplateChars {
			continue
		}
		if countBoilerplate(raw) >= boilerplateMatchLimit {
			logger.Debug("Dropping %s: mostly boilerplate", c.ID)
			continue
		}
		out = append(out, c)
	}
	return out
}

// countBoilerplate counts how many distinct boilerplate patterns match.
func countBoilerplate(text string) int {
	n := 0
	for _, re := range boilerplatePatterns {
		if re.MatchString(text) {
			n++
		}
	}
	return n
}

// QualityScore computes the structural quality heuristic for one chunk.
// It is not corpus-relative.
func QualityScore(c domain.Chunk) float64 {
	score := 0.0

	if c.HeadingLevel >= 1 && c.HeadingLevel <= 3 {
		score += 10
	}
	if articleTags[c.SemanticTag] {
		score += 5
	}

	length := utf8.RuneCountInString(c.RawText)
	switch {
	case length >= 100 && length <= 500:
		score += 10
	case length >= 50 && length < 100:
		score += 5
	case length > 500 && length <= 1000:
		score += 5
	case length < 50:
		score -= 10
	case length > 1000:
		score -= 5
	}

	if length > 0 {
		links := len(linkMarkup.FindAllString(c.RawText, -1))
		if float64(links)/float64(length)*100 > 5 {
			score -= 15
		}
	}

	score -= 5 * float64(countBoilerplate(c.RawText))

	if degenerateRepetition(c.RawText) {
		score -= 10
	}

	return score
}

// degenerateRepetition reports whether any single word exceeds 30% of the
// total word count.
func degenerateRepetition(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	if len(words) < 4 {
		return false
	}
	counts := make(map[string]int, len(words))
	max := 0
	for _, w := range words {
		counts[w]++
		if counts[w] > max {
			max = counts[w]
		}
	}
	return float64(max)/float64(len(words)) > 0.3
}

// Tokenize lowercases and keeps terms longer than 2 characters.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

// averageLength returns the corpus mean chunk length in terms.
func averageLength(chunks []domain.Chunk) float64 {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, c := range chunks {
		total += len(Tokenize(c.RawText))
	}
	return float64(total) / float64(len(chunks))
}

// corpusIDF computes a per-term inverse document frequency over the chunk
// corpus. The original baseline used a near-constant IDF; a real corpus IDF
// is an accepted strengthening of the same contract.
func corpusIDF(chunks []domain.Chunk) map[string]float64 {
	df := make(map[string]int)
	for _, c := range chunks {
		seen := make(map[string]bool)
		for _, t := range Tokenize(c.RawText) {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}
	n := float64(len(chunks))
	idf := make(map[string]float64, len(df))
	for t, d := range df {
		idf[t] = math.Log(1 + (n-float64(d)+0.5)/(float64(d)+0.5))
	}
	return idf
}

// lexicalScore combines term frequencies through the BM25 formula
// (k1=1.5, b=0.75) against the corpus mean chunk length, averaged over the
// chunk's distinct terms to stay comparable across chunk sizes.
func lexicalScore(c domain.Chunk, avgLen float64, idf map[string]float64) float64 {
	terms := Tokenize(c.RawText)
	if len(terms) == 0 || avgLen == 0 {
		return 0
	}

	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}

	docLen := float64(len(terms))
	norm := bm25K1 * (1 - bm25B + bm25B*docLen/avgLen)

	score := 0.0
	for t, f := range tf {
		freq := float64(f)
		score += idf[t] * (freq * (bm25K1 + 1)) / (freq + norm)
	}
	return score / float64(len(tf))
}

// dedupeByPrefix drops chunks sharing the first 100 characters of their
// normalized text.
func dedupeByPrefix(chunks []domain.Chunk) []domain.Chunk {
	seen := make(map[string]bool, len(chunks))
	out := make([]domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		key := normalizedPrefix(c.RawText, 100)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func normalizedPrefix(text string, n int) string {
	key := strings.ToLower(strings.Join(strings.Fields(text), " "))
	runes := []rune(key)
	if len(runes) > n {
		return string(runes[:n])
	}
	return key
}
