// Package citations attributes generated-answer sentences back to the
// ranked source chunks that likely support them, by embedding similarity
// with a lexical fallback.
package citations

import (
	"context"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
	"github.com/pagelens/pagelens-cli/internal/core/ports/driven"
	"github.com/pagelens/pagelens-cli/internal/index"
	"github.com/pagelens/pagelens-cli/internal/logger"
)

// Tiered similarity acceptance thresholds.
const (
	// acceptAlways: similarity above this always attributes the source.
	acceptAlways = 0.75

	// acceptSecondary: similarity above this attributes the source while
	// fewer than maxSimilaritySources are accepted for the sentence.
	acceptSecondary = 0.65

	// acceptWeak: similarity above this attributes the source only when
	// nothing else matched and the lexical check agrees.
	acceptWeak = 0.55

	// maxSimilaritySources caps secondary-tier attributions per sentence.
	maxSimilaritySources = 2

	// maxLexicalSources caps pure lexical-fallback attributions.
	maxLexicalSources = 2

	// lexicalOverlapRatio is the keyword overlap needed for a lexical match.
	lexicalOverlapRatio = 0.2

	// lexicalConfidence is the fixed neutral confidence for lexical-only
	// attributions.
	lexicalConfidence = 0.5
)

// stopWords excluded from keyword extraction.
var stopWords = map[string]bool{
	"this": true, "that": true, "with": true, "from": true, "have": true,
	"been": true, "were": true, "they": true, "their": true, "there": true,
	"which": true, "would": true, "could": true, "should": true, "about": true,
	"into": true, "than": true, "then": true, "when": true, "what": true,
	"will": true, "also": true, "because": true, "these": true, "those": true,
	"such": true, "only": true, "other": true, "some": true, "more": true,
	"most": true, "over": true, "does": true, "where": true, "while": true,
}

// Mapper attributes answer sentences to source chunks.
type Mapper struct {
	embedder driven.EmbeddingService
}

// New creates a Mapper. The embedder is optional: when nil, mapping falls
// back to lexical matching only.
func New(embedder driven.EmbeddingService) *Mapper {
	return &Mapper{embedder: embedder}
}

// Map splits the answer into sentences and attributes each to zero or more
// sources. Only sentences that received at least one attribution produce a
// citation; citations are returned sorted by start offset. Source indices
// reference positions in the given ranked result list.
func (m *Mapper) Map(ctx context.Context, answer string, sources []domain.SearchResult) ([]domain.Citation, error) {
	segments := splitSentences(answer)
	if len(segments) == 0 || len(sources) == 0 {
		return []domain.Citation{}, nil
	}

	logger.Section("Citation Mapping")
	logger.Debug("Sentences: %d, sources: %d", len(segments), len(sources))

	segVecs, srcVecs := m.embedAll(ctx, segments, sources)

	var citations []domain.Citation
	for i, seg := range segments {
		var cit *domain.Citation
		if segVecs != nil {
			cit = attributeBySimilarity(seg, segVecs[i], srcVecs, sources)
		}
		if cit == nil {
			cit = attributeLexically(seg, sources)
		}
		if cit != nil {
			citations = append(citations, *cit)
		}
	}

	sort.SliceStable(citations, func(i, j int) bool { return citations[i].Start < citations[j].Start })
	logger.Info("Citations: %d of %d sentences attributed", len(citations), len(segments))
	if citations == nil {
		citations = []domain.Citation{}
	}
	return citations, nil
}

// embedAll batches the segment and source embeddings. Embedder failures are
// non-fatal: mapping degrades to lexical matching.
func (m *Mapper) embedAll(ctx context.Context, segments []sentence, sources []domain.SearchResult) ([][]float32, [][]float32) {
	if m.embedder == nil {
		return nil, nil
	}

	texts := make([]string, 0, len(segments)+len(sources))
	for _, s := range segments {
		texts = append(texts, s.text)
	}
	for _, src := range sources {
		texts = append(texts, src.Chunk.RawText)
	}

	vecs, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil || len(vecs) != len(texts) {
		logger.Warn("Citation embedding failed, falling back to lexical matching: %v", err)
		return nil, nil
	}
	return vecs[:len(segments)], vecs[len(segments):]
}

// sentence is one answer segment with its character offsets preserved.
type sentence struct {
	text  string
	start int
	end   int
}

// splitSentences splits on ./!/? followed by whitespace, preserving offsets
// and guarding against empty fragments.
func splitSentences(answer string) []sentence {
	var out []sentence
	start := 0
	runes := []byte(answer)

	flush := func(end int) {
		raw := string(runes[start:end])
		trimmed := strings.TrimSpace(raw)
		if trimmed != "" {
			lead := strings.Index(raw, trimmed)
			out = append(out, sentence{
				text:  trimmed,
				start: start + lead,
				end:   start + lead + len(trimmed),
			})
		}
		start = end
	}

	for i := 0; i < len(runes); i++ {
		c := runes[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		// Only break when the terminator is followed by whitespace or ends
		// the answer, so decimals and abbreviations mid-token survive.
		if i+1 == len(runes) {
			flush(i + 1)
		} else if r, _ := utf8.DecodeRune(runes[i+1:]); unicode.IsSpace(r) {
			flush(i + 1)
		}
	}
	if start < len(runes) {
		flush(len(runes))
	}
	return out
}

// attributeBySimilarity ranks sources by cosine similarity and applies the
// tiered acceptance rules. Returns nil when no source is accepted.
func attributeBySimilarity(seg sentence, segVec []float32, srcVecs [][]float32, sources []domain.SearchResult) *domain.Citation {
	type ranked struct {
		idx int
		sim float64
	}
	all := make([]ranked, len(srcVecs))
	for i, vec := range srcVecs {
		all[i] = ranked{idx: i, sim: index.CosineSimilarity(segVec, vec)}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].sim > all[j].sim })

	var accepted []int
	best := 0.0
	accept := func(r ranked) {
		accepted = append(accepted, r.idx)
		if r.sim > best {
			best = r.sim
		}
	}
	for _, r := range all {
		switch {
		case r.sim > acceptAlways:
			accept(r)
		case r.sim > acceptSecondary:
			if len(accepted) < maxSimilaritySources {
				accept(r)
			}
		case r.sim > acceptWeak:
			if len(accepted) == 0 && lexicalMatch(seg.text, sources[r.idx].Chunk.RawText) {
				accept(r)
			}
		}
	}

	if len(accepted) == 0 {
		return nil
	}
	return &domain.Citation{
		Start:         seg.start,
		End:           seg.end,
		SourceIndices: accepted,
		Confidence:    best,
	}
}

// attributeLexically is the pure lexical fallback: keyword overlap or exact
// phrase recurrence, up to maxLexicalSources matches.
func attributeLexically(seg sentence, sources []domain.SearchResult) *domain.Citation {
	var accepted []int
	for i, src := range sources {
		if lexicalMatch(seg.text, src.Chunk.RawText) {
			accepted = append(accepted, i)
			if len(accepted) == maxLexicalSources {
				break
			}
		}
	}
	if len(accepted) == 0 {
		return nil
	}
	return &domain.Citation{
		Start:         seg.start,
		End:           seg.end,
		SourceIndices: accepted,
		Confidence:    lexicalConfidence,
	}
}

// lexicalMatch reports whether the sentence's keywords overlap the source
// beyond the ratio, or any 3-5-word phrase recurs exactly.
func lexicalMatch(sentenceText, sourceText string) bool {
	keywords := extractKeywords(sentenceText)
	if len(keywords) > 0 {
		sourceLower := strings.ToLower(sourceText)
		matched := 0
		for _, kw := range keywords {
			if strings.Contains(sourceLower, kw) {
				matched++
			}
		}
		if float64(matched)/float64(len(keywords)) > lexicalOverlapRatio {
			return true
		}
	}

	sourceLower := strings.ToLower(sourceText)
	for _, phrase := range extractPhrases(sentenceText) {
		if strings.Contains(sourceLower, phrase) {
			return true
		}
	}
	return false
}

// extractKeywords keeps lowercase words longer than 3 characters with common
// stop-words removed.
func extractKeywords(text string) []string {
	words := tokenWords(text)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if utf8.RuneCountInString(w) > 3 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// extractPhrases returns every 3-5-word window of the sentence.
func extractPhrases(text string) []string {
	words := tokenWords(text)
	var phrases []string
	for size := 3; size <= 5; size++ {
		for i := 0; i+size <= len(words); i++ {
			phrases = append(phrases, strings.Join(words[i:i+size], " "))
		}
	}
	return phrases
}

func tokenWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}
