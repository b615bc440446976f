package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"paper-depot/models"
	"paper-depot/repository"
)

func doi(s string) *string {
	return &s
}

// newTestDB öffnet eine frische SQLite-Datenbank mit allen Tabellen.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Paper{}, &models.TextSection{},
		&models.TableRecord{}, &models.ImageRecord{}, &models.ReferenceList{}))
	return db
}

func storePaper(t *testing.T, db *gorm.DB, paper *models.Paper) {
	t.Helper()
	require.NoError(t, repository.NewPaperRepository(db).Save(paper))
}

func TestResolveNoDuplicate(t *testing.T) {
	db := newTestDB(t)
	resolver := NewDuplicateResolver(repository.NewPaperRepository(db), zap.NewNop())

	fresh := &models.Paper{ID: 100, Title: "Curcumin Study", DOI: doi("10.1/abc"), SourceFile: "a.md"}
	decision, err := resolver.Resolve(fresh, Policy{OnDuplicate: ActionSkip})
	require.NoError(t, err)

	assert.Equal(t, ActionIngest, decision.Action)
	assert.Nil(t, decision.Existing)
	assert.Equal(t, int64(100), fresh.ID)
}

func TestResolveDOIMatchPropagatesID(t *testing.T) {
	db := newTestDB(t)
	storePaper(t, db, &models.Paper{ID: 100, Title: "Old Title", DOI: doi("10.1/abc"), SourceFile: "a.md"})

	resolver := NewDuplicateResolver(repository.NewPaperRepository(db), zap.NewNop())

	// Gleiche DOI, anderer Titel und andere frische ID.
	fresh := &models.Paper{ID: 999, Title: "Revised Title", DOI: doi("10.1/abc"), SourceFile: "b.md"}
	decision, err := resolver.Resolve(fresh, Policy{OnDuplicate: ActionSkip})
	require.NoError(t, err)

	assert.Equal(t, ActionSkip, decision.Action)
	require.NotNil(t, decision.Existing)
	assert.Equal(t, int64(100), decision.Existing.ID)
	assert.Equal(t, int64(100), fresh.ID, "stored ID must be propagated onto the fresh paper")
}

func TestResolveDOITakesPrecedenceOverTitle(t *testing.T) {
	db := newTestDB(t)
	storePaper(t, db, &models.Paper{ID: 100, Title: "Title One", DOI: doi("10.1/abc"), SourceFile: "a.md"})
	storePaper(t, db, &models.Paper{ID: 200, Title: "Title Two", SourceFile: "b.md"})

	resolver := NewDuplicateResolver(repository.NewPaperRepository(db), zap.NewNop())

	// DOI zeigt auf Paper 100, der Titel auf Paper 200: die DOI gewinnt.
	fresh := &models.Paper{ID: 999, Title: "Title Two", DOI: doi("10.1/abc"), SourceFile: "c.md"}
	decision, err := resolver.Resolve(fresh, Policy{OnDuplicate: ActionSkip})
	require.NoError(t, err)

	require.NotNil(t, decision.Existing)
	assert.Equal(t, int64(100), decision.Existing.ID)
}

func TestResolveTitleMatchIsCaseSensitive(t *testing.T) {
	db := newTestDB(t)
	storePaper(t, db, &models.Paper{ID: 100, Title: "Curcumin Study", SourceFile: "a.md"})

	resolver := NewDuplicateResolver(repository.NewPaperRepository(db), zap.NewNop())

	fresh := &models.Paper{ID: 999, Title: "curcumin study", SourceFile: "b.md"}
	decision, err := resolver.Resolve(fresh, Policy{OnDuplicate: ActionSkip})
	require.NoError(t, err)

	assert.Equal(t, ActionIngest, decision.Action)
	assert.Equal(t, int64(999), fresh.ID)
}

func TestResolveOverwritePolicy(t *testing.T) {
	db := newTestDB(t)
	storePaper(t, db, &models.Paper{ID: 100, Title: "Curcumin Study", SourceFile: "a.md"})

	resolver := NewDuplicateResolver(repository.NewPaperRepository(db), zap.NewNop())

	fresh := &models.Paper{ID: 999, Title: "Curcumin Study", SourceFile: "b.md"}
	decision, err := resolver.Resolve(fresh, Policy{OnDuplicate: ActionOverwrite, Kinds: KindTables | KindImages})
	require.NoError(t, err)

	assert.Equal(t, ActionOverwrite, decision.Action)
	assert.Equal(t, KindTables|KindImages, decision.Kinds)
	assert.True(t, decision.Kinds.Has(KindTables))
	assert.False(t, decision.Kinds.Has(KindSections))
}

func TestResolveOverwriteWithoutKindsSkips(t *testing.T) {
	db := newTestDB(t)
	storePaper(t, db, &models.Paper{ID: 100, Title: "Curcumin Study", SourceFile: "a.md"})

	resolver := NewDuplicateResolver(repository.NewPaperRepository(db), zap.NewNop())

	fresh := &models.Paper{ID: 999, Title: "Curcumin Study", SourceFile: "b.md"}
	decision, err := resolver.Resolve(fresh, Policy{OnDuplicate: ActionOverwrite})
	require.NoError(t, err)

	assert.Equal(t, ActionSkip, decision.Action)
}

func TestParseKinds(t *testing.T) {
	kinds, err := ParseKinds("metadata, tables")
	require.NoError(t, err)
	assert.Equal(t, KindMetadata|KindTables, kinds)

	kinds, err = ParseKinds("all")
	require.NoError(t, err)
	assert.Equal(t, KindAll, kinds)

	_, err = ParseKinds("metadata,charts")
	assert.Error(t, err)
}

func TestKindSetString(t *testing.T) {
	assert.Equal(t, "none", KindSet(0).String())
	assert.Equal(t, "metadata,images", (KindMetadata | KindImages).String())
	assert.Equal(t, "metadata,sections,tables,images", KindAll.String())
}
