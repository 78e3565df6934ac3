package index

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/minio/highwayhash"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

// hashKey seeds the content hash. Fixed so hashes are comparable across
// sessions and processes.
var hashKey = []byte("pagelens-content-hash-key-32by!!")

// fingerprintPrefixLen caps how much of each fingerprint feeds the content
// hash.
const fingerprintPrefixLen = 1000

// Volatile substrings replaced with fixed placeholders so content that is
// textually identical apart from live timestamps and counters still
// fingerprints identically.
var (
	isoTimestamp = regexp.MustCompile(`\d{4}-\d{2}-\d{2}([T ]\d{2}:\d{2}(:\d{2})?(\.\d+)?(Z|[+-]\d{2}:?\d{2})?)?`)
	timeOfDay    = regexp.MustCompile(`(?i)\b\d{1,2}:\d{2}(:\d{2})?\s*(am|pm)?\b`)
	relativeTime = regexp.MustCompile(`(?i)\b(\d+\s+(second|minute|hour|day|week|month|year)s?\s+ago|yesterday|just now|moments ago)\b`)
	updatedLead  = regexp.MustCompile(`(?i)\b(last\s+)?(updated|modified|published|edited)\s*(on|at)?\s*:?\s*`)
	counter      = regexp.MustCompile(`(?i)\b\d[\d,.]*\s*(views?|comments?|likes?|shares?|votes?|points?|replies|upvotes?|subscribers?|followers?)\b`)
)

// Fingerprint normalizes a chunk's raw text into its volatility-stripped
// form: whitespace collapsed, timestamps, times, relative-time phrases,
// update lead-ins and simple counters replaced with placeholder tokens.
func Fingerprint(raw string) string {
	s := isoTimestamp.ReplaceAllString(raw, "<timestamp>")
	s = timeOfDay.ReplaceAllString(s, "<time>")
	s = relativeTime.ReplaceAllString(s, "<relative>")
	s = updatedLead.ReplaceAllString(s, "<updated> ")
	s = counter.ReplaceAllString(s, "<count>")
	return strings.Join(strings.Fields(s), " ")
}

// ContentHash computes a deterministic session-level hash of a chunk corpus
// from the sorted set of (id, heading path, raw length, fingerprint prefix)
// tuples plus the chunk count. Two corpora differing only in volatile
// substrings hash identically.
func ContentHash(chunks []domain.Chunk) (string, error) {
	tuples := make([]string, 0, len(chunks))
	for _, c := range chunks {
		fp := Fingerprint(c.RawText)
		if len(fp) > fingerprintPrefixLen {
			fp = fp[:fingerprintPrefixLen]
		}
		tuples = append(tuples, fmt.Sprintf("%s\x1f%s\x1f%d\x1f%s",
			c.ID, strings.Join(c.HeadingPath, ">"), len(c.RawText), fp))
	}
	sort.Strings(tuples)

	h, err := highwayhash.New128(hashKey)
	if err != nil {
		return "", fmt.Errorf("init content hash: %w", err)
	}
	for _, t := range tuples {
		if _, err := h.Write([]byte(t)); err != nil {
			return "", fmt.Errorf("hash chunk tuple: %w", err)
		}
		if _, err := h.Write([]byte{'\x1e'}); err != nil {
			return "", fmt.Errorf("hash separator: %w", err)
		}
	}
	if _, err := fmt.Fprintf(h, "count=%d", len(chunks)); err != nil {
		return "", fmt.Errorf("hash chunk count: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
