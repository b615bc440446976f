package extraction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"paper-depot/models"
)

func newTestExtractor() *Extractor {
	return NewExtractor(ModelConfig{
		MetadataModel: "test-model",
		TextModel:     "test-model",
		TableModel:    "test-model",
		ImageModel:    "test-model",
		Temperature:   0.1,
	}, nil, zap.NewNop())
}

func TestExtractMetadata(t *testing.T) {
	e := newTestExtractor()

	paper, err := e.ExtractMetadata(context.Background(), sampleDocument, "paper.md")
	require.NoError(t, err)

	assert.Equal(t, "Effects of Curcumin on Inflammatory Markers", paper.Title)
	require.NotNil(t, paper.DOI)
	assert.Equal(t, "10.1234/jn.2023.0042", *paper.DOI)
	assert.Equal(t, "paper.md", paper.SourceFile)
	assert.NotEmpty(t, paper.Keywords)
	assert.Equal(t, models.PaperID(sampleDocument, "paper.md"), paper.ID)
}

func TestExtractMetadataDeterministicID(t *testing.T) {
	e := newTestExtractor()

	first, err := e.ExtractMetadata(context.Background(), sampleDocument, "paper.md")
	require.NoError(t, err)
	second, err := e.ExtractMetadata(context.Background(), sampleDocument, "paper.md")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestExtractMetadataEmptyContent(t *testing.T) {
	e := newTestExtractor()

	_, err := e.ExtractMetadata(context.Background(), "   \n  ", "paper.md")
	assert.Error(t, err)
}

func TestExtractMetadataNoTitle(t *testing.T) {
	e := newTestExtractor()

	_, err := e.ExtractMetadata(context.Background(), "| a | b |\n| - | - |\n", "paper.md")
	assert.Error(t, err)
}

func TestExtractSectionsSequence(t *testing.T) {
	e := newTestExtractor()

	sections, err := e.ExtractSections(context.Background(), sampleDocument, 42)
	require.NoError(t, err)
	require.NotEmpty(t, sections)

	for i, sec := range sections {
		assert.Equal(t, i+1, sec.SectionNumber)
		assert.Equal(t, int64(42), sec.PaperID)
		assert.GreaterOrEqual(t, sec.ID, int64(0))
		assert.NotEmpty(t, sec.Summary)
		assert.Greater(t, sec.WordCount, 0)
	}
}

func TestExtractTablesHeuristicSummary(t *testing.T) {
	e := newTestExtractor()

	tables, err := e.ExtractTables(context.Background(), sampleDocument, 42)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	assert.Equal(t, 1, tables[0].TableNumber)
	assert.Equal(t, 3, tables[0].ColumnCount)
	assert.Equal(t, 2, tables[0].RowCount)
	assert.NotEmpty(t, tables[0].Summary)
}

func TestExtractReferencesNilWhenMissing(t *testing.T) {
	e := newTestExtractor()

	list, err := e.ExtractReferences(context.Background(), "# Paper\n\nBody only.\n", 42)
	require.NoError(t, err)
	assert.Nil(t, list)
}

func TestExtractReferences(t *testing.T) {
	e := newTestExtractor()

	list, err := e.ExtractReferences(context.Background(), sampleDocument, 42)
	require.NoError(t, err)
	require.NotNil(t, list)

	assert.Equal(t, 2, list.ReferenceCount)
	assert.Equal(t, int64(42), list.PaperID)
	assert.Equal(t, models.ReferencesID(42, 2), list.ID)
}
