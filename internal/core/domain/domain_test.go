package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkID_Less(t *testing.T) {
	a := ChunkID{DocumentID: "alpha", ChunkIndex: 5}
	b := ChunkID{DocumentID: "beta", ChunkIndex: 0}

	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))

	// Same document: index decides.
	c := ChunkID{DocumentID: "alpha", ChunkIndex: 6}
	assert.True(t, a.Less(c))
	assert.False(t, c.Less(a))

	// Identical slots are not less than each other.
	assert.False(t, a.Less(a))
}

func TestChunkID_Slot(t *testing.T) {
	id := ChunkID{DocumentID: "doc", ChunkIndex: 3, ContentHash: "abc"}
	old := ChunkID{DocumentID: "doc", ChunkIndex: 3, ContentHash: "def"}

	assert.Equal(t, id.Slot(), old.Slot())
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "hello world", NormalizeText("  Hello \t\n  World  "))
	assert.Equal(t, "", NormalizeText("   \n\t "))
}

func TestHashText_NormalisationEquivalence(t *testing.T) {
	assert.Equal(t, HashText("Hello  World"), HashText("hello world\n"))
	assert.NotEqual(t, HashText("hello world"), HashText("hello worlds"))
	assert.Len(t, HashText("x"), 64)
}

func TestRankedResult_Documents(t *testing.T) {
	r := RankedResult{Matches: []Match{
		{ChunkID: ChunkID{DocumentID: "b", ChunkIndex: 0}},
		{ChunkID: ChunkID{DocumentID: "a", ChunkIndex: 1}},
		{ChunkID: ChunkID{DocumentID: "b", ChunkIndex: 2}},
	}}

	assert.Equal(t, []string{"b", "a"}, r.Documents())
	assert.Nil(t, RankedResult{}.Documents())
}

func TestJobState_Terminal(t *testing.T) {
	assert.False(t, JobPending.Terminal())
	assert.False(t, JobRunning.Terminal())
	assert.True(t, JobCompleted.Terminal())
	assert.True(t, JobCancelled.Terminal())
	assert.True(t, JobFailed.Terminal())
}
