package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentIDDeterministic(t *testing.T) {
	a := ContentID("some paper content", "salt")
	b := ContentID("some paper content", "salt")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, ContentID("some paper content", "other salt"))
	assert.NotEqual(t, a, ContentID("different content", "salt"))
}

func TestContentIDNonNegative(t *testing.T) {
	inputs := []string{"", "a", "curcumin study", "Wirkung von Curcumin auf Entzündungsmarker", "\x00\xff"}
	for _, in := range inputs {
		id := ContentID(in, "section_1")
		assert.GreaterOrEqual(t, id, int64(0), "input %q", in)
	}
}

func TestContentIDSaltSeparatesKinds(t *testing.T) {
	// Gleicher Inhalt an unterschiedlichen Positionen darf nicht kollidieren.
	first := SectionID("Methods", "We measured plasma levels.", 1)
	second := SectionID("Methods", "We measured plasma levels.", 2)
	assert.NotEqual(t, first, second)
}

func TestHierarchicalIDPacksFields(t *testing.T) {
	paperID := int64(0x12345678)

	id, err := HierarchicalID(paperID, ElementSection, 7)
	require.NoError(t, err)

	assert.Equal(t, uint64(0x12345678), uint64(id)>>32)
	assert.Equal(t, uint64(0x0001), (uint64(id)>>16)&0xFFFF)
	assert.Equal(t, uint64(7), uint64(id)&0xFFFF)
}

func TestHierarchicalIDDisjointTypes(t *testing.T) {
	paperID := int64(42)
	types := []ElementType{
		ElementSection, ElementTable, ElementImage, ElementReference,
		ElementCitation, ElementAuthor, ElementStatistic, ElementFinding,
	}

	seen := make(map[int64]ElementType)
	for _, et := range types {
		id, err := HierarchicalID(paperID, et, 1)
		require.NoError(t, err)
		prev, dup := seen[id]
		require.False(t, dup, "collision between %s and %s", prev, et)
		seen[id] = et
	}
}

func TestHierarchicalIDUnknownType(t *testing.T) {
	id, err := HierarchicalID(1, ElementType("chart"), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFFFF), (uint64(id)>>16)&0xFFFF)
}

func TestHierarchicalIDSequenceOverflow(t *testing.T) {
	_, err := HierarchicalID(1, ElementSection, 65536)
	assert.ErrorIs(t, err, ErrSequenceOverflow)

	_, err = HierarchicalID(1, ElementSection, -1)
	assert.ErrorIs(t, err, ErrSequenceOverflow)

	id, err := HierarchicalID(1, ElementSection, 65535)
	require.NoError(t, err)
	assert.Equal(t, uint64(65535), uint64(id)&0xFFFF)
}

func TestHierarchicalIDNonNegative(t *testing.T) {
	// Auch mit gesetztem höchsten Paper-Bit bleibt die ID positiv.
	id, err := HierarchicalID(int64(0xFFFFFFFF), ElementFinding, 65535)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, id, int64(0))
}

func TestPaperIDUsesContentPrefix(t *testing.T) {
	prefix := make([]byte, 1000)
	for i := range prefix {
		prefix[i] = 'x'
	}
	base := string(prefix)

	// Unterschiede jenseits der ersten 1000 Zeichen ändern die ID nicht.
	a := PaperID(base+"tail one", "paper.md")
	b := PaperID(base+"completely different tail", "paper.md")
	assert.Equal(t, a, b)

	// Ein anderer Quellpfad ändert die ID.
	assert.NotEqual(t, a, PaperID(base+"tail one", "other.md"))
}

func TestReferencesIDDependsOnPaperAndCount(t *testing.T) {
	a := ReferencesID(100, 25)
	assert.Equal(t, a, ReferencesID(100, 25))
	assert.NotEqual(t, a, ReferencesID(100, 26))
	assert.NotEqual(t, a, ReferencesID(101, 25))
}
