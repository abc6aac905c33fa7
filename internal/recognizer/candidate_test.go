package recognizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterCandidates(t *testing.T) {
	cands := []Candidate{
		{Text: "LOW", Confidence: 0.3},
		{Text: "EDGE", Confidence: 0.6},
		{Text: "MID", Confidence: 0.75},
		{Text: "TOP", Confidence: 0.95},
		{Text: "MID2", Confidence: 0.75},
	}
	kept := FilterCandidates(cands, DefaultMinConfidence, "test")
	require.Len(t, kept, 3)
	assert.Equal(t, "TOP", kept[0].Text)
	assert.Equal(t, "MID", kept[1].Text)
	assert.Equal(t, "MID2", kept[2].Text)
	assert.Equal(t, "LOW", cands[0].Text, "input must be untouched")
}

func TestFilterCandidates_Empty(t *testing.T) {
	assert.Empty(t, FilterCandidates(nil, 0.6, "test"))
}

func TestBest(t *testing.T) {
	_, ok := Best(nil)
	assert.False(t, ok)

	c, ok := Best([]Candidate{{Text: "A", Confidence: 0.9}, {Text: "B", Confidence: 0.8}})
	require.True(t, ok)
	assert.Equal(t, "A", c.Text)
	assert.Equal(t, "A (0.900)", c.String())
}

func TestJoinLines(t *testing.T) {
	out := joinLines([]lineResult{
		{text: "1234566\n", confidence: 0.8, top: 40},
		{text: "MSCU", confidence: 0.9, top: 2},
	})
	require.Len(t, out, 3)
	assert.Equal(t, Candidate{Text: "MSCU1234566", Confidence: 0.8}, out[0])
	assert.Equal(t, "MSCU", out[1].Text)
	assert.Equal(t, "1234566", out[2].Text)

	single := joinLines([]lineResult{{text: "TTNU8655846", confidence: 0.7}})
	require.Len(t, single, 1)
	assert.Equal(t, "TTNU8655846", single[0].Text)

	assert.Nil(t, joinLines(nil))
	assert.Empty(t, joinLines([]lineResult{{text: "  "}}))
}

func TestDefaultTesseractConfig(t *testing.T) {
	cfg := DefaultTesseractConfig("primary")
	assert.Equal(t, "primary", cfg.Name)
	assert.Equal(t, 7, cfg.PageSegMode)
	assert.Equal(t, CodeAlphabet, cfg.Whitelist)
}
