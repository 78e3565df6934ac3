package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pagelens/pagelens-cli/internal/core/domain"
)

func TestFingerprint_ReplacesVolatileSubstrings(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "iso timestamp",
			in:   "Build finished 2024-03-01T10:22:05Z cleanly",
			want: "Build finished <timestamp> cleanly",
		},
		{
			name: "time of day",
			in:   "Doors open at 9:30 AM sharp",
			want: "Doors open at <time> sharp",
		},
		{
			name: "relative time",
			in:   "Posted 5 minutes ago by admin",
			want: "Posted <relative> by admin",
		},
		{
			name: "updated lead-in",
			in:   "Last updated: March notes follow",
			want: "<updated> March notes follow",
		},
		{
			name: "counter",
			in:   "The video has 1,204 views so far",
			want: "The video has <count> so far",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fingerprint(tt.in))
		})
	}
}

func TestFingerprint_CollapsesWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", Fingerprint("a\n\t b   c"))
}

func TestContentHash_StableAcrossVolatileChanges(t *testing.T) {
	a := []domain.Chunk{{
		ID:          "intro",
		HeadingPath: []string{"Intro"},
		RawText:     "Last updated: 2024-03-01 10:22 and 1,204 views",
	}}
	b := []domain.Chunk{{
		ID:          "intro",
		HeadingPath: []string{"Intro"},
		RawText:     "Last updated: 2025-06-07 08:15 and 1,731 views",
	}}

	ha, err := ContentHash(a)
	require.NoError(t, err)
	hb, err := ContentHash(b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
}

func TestContentHash_ChangesWithContent(t *testing.T) {
	base := []domain.Chunk{{ID: "intro", RawText: "The original paragraph text."}}
	edited := []domain.Chunk{{ID: "intro", RawText: "The modified paragraph text."}}

	hBase, err := ContentHash(base)
	require.NoError(t, err)
	hEdited, err := ContentHash(edited)
	require.NoError(t, err)

	assert.NotEqual(t, hBase, hEdited)
}

func TestContentHash_ChangesWithChunkCount(t *testing.T) {
	one := []domain.Chunk{{ID: "a", RawText: "First chunk of page content."}}
	two := append(one, domain.Chunk{ID: "b", RawText: "Second chunk of page content."})

	hOne, err := ContentHash(one)
	require.NoError(t, err)
	hTwo, err := ContentHash(two)
	require.NoError(t, err)

	assert.NotEqual(t, hOne, hTwo)
}

func TestContentHash_OrderInsensitive(t *testing.T) {
	a := domain.Chunk{ID: "a", RawText: "First chunk of page content."}
	b := domain.Chunk{ID: "b", RawText: "Second chunk of page content."}

	h1, err := ContentHash([]domain.Chunk{a, b})
	require.NoError(t, err)
	h2, err := ContentHash([]domain.Chunk{b, a})
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
}
