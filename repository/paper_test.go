package repository

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"paper-depot/models"
)

func doi(s string) *string {
	return &s
}

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

func TestPaperSaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaperRepository(db)

	paper := &models.Paper{ID: 100, Title: "Curcumin Study", DOI: doi("10.1/abc"), SourceFile: "a.md"}
	require.NoError(t, repo.Save(paper))

	byID, err := repo.FindByID(100)
	require.NoError(t, err)
	assert.Equal(t, "Curcumin Study", byID.Title)

	byDOI, err := repo.FindByDOI("10.1/abc")
	require.NoError(t, err)
	assert.Equal(t, int64(100), byDOI.ID)

	byTitle, err := repo.FindByTitle("Curcumin Study")
	require.NoError(t, err)
	assert.Equal(t, int64(100), byTitle.ID)
}

func TestPaperSaveConflict(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaperRepository(db)

	require.NoError(t, repo.Save(&models.Paper{ID: 100, Title: "First", SourceFile: "a.md"}))

	err := repo.Save(&models.Paper{ID: 100, Title: "Second", SourceFile: "b.md"})
	assert.ErrorIs(t, err, ErrConflict)

	// Der Bestand bleibt unverändert.
	paper, err := repo.FindByID(100)
	require.NoError(t, err)
	assert.Equal(t, "First", paper.Title)
}

func TestPaperSaveTwoWithoutDOI(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaperRepository(db)

	// Ohne DOI bleibt die Spalte NULL; der Unique-Index greift nur für
	// echte DOIs.
	require.NoError(t, repo.Save(&models.Paper{ID: 100, Title: "First", SourceFile: "a.md"}))
	require.NoError(t, repo.Save(&models.Paper{ID: 200, Title: "Second", SourceFile: "b.md"}))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPaperFindNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaperRepository(db)

	_, err := repo.FindByID(1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByDOI("10.1/missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.FindByTitle("Missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPaperUpdateMetadata(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaperRepository(db)

	require.NoError(t, repo.Save(&models.Paper{ID: 100, Title: "Old", SourceFile: "a.md"}))

	updated := &models.Paper{ID: 100, Title: "New", Journal: "J Nutr", SourceFile: "b.md"}
	require.NoError(t, repo.UpdateMetadata(updated))

	paper, err := repo.FindByID(100)
	require.NoError(t, err)
	assert.Equal(t, "New", paper.Title)
	assert.Equal(t, "J Nutr", paper.Journal)
	assert.Equal(t, "b.md", paper.SourceFile)
}

func TestPaperUpdateMetadataNotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewPaperRepository(db)

	err := repo.UpdateMetadata(&models.Paper{ID: 1, Title: "Ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSectionSaveAllUpsertsOnID(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, NewPaperRepository(db).Save(&models.Paper{ID: 100, Title: "P", SourceFile: "a.md"}))
	repo := NewSectionRepository(db)

	first := []models.TextSection{
		{ID: 1, PaperID: 100, SectionNumber: 1, Title: "Abstract", Content: "v1"},
	}
	saved, err := repo.SaveAll(first)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)

	// Gleiche ID erneut speichern aktualisiert statt zu scheitern.
	second := []models.TextSection{
		{ID: 1, PaperID: 100, SectionNumber: 1, Title: "Abstract", Content: "v2"},
	}
	_, err = repo.SaveAll(second)
	require.NoError(t, err)

	sections, err := repo.FindByPaper(100)
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "v2", sections[0].Content)
}

func TestSaveAllPositionConflictIsErrConflict(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, NewPaperRepository(db).Save(&models.Paper{ID: 100, Title: "P", SourceFile: "a.md"}))
	repo := NewTableRepository(db)

	_, err := repo.SaveAll([]models.TableRecord{
		{ID: 1, PaperID: 100, TableNumber: 1, Title: "T1"},
	})
	require.NoError(t, err)

	// Fremde ID auf derselben Position: kein Upsert, sondern ein erkennbarer
	// Konflikt.
	_, err = repo.SaveAll([]models.TableRecord{
		{ID: 2, PaperID: 100, TableNumber: 1, Title: "T1 clash"},
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestSavePositionConflictIsErrConflict(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, NewPaperRepository(db).Save(&models.Paper{ID: 100, Title: "P", SourceFile: "a.md"}))
	repo := NewSectionRepository(db)

	require.NoError(t, repo.Save(&models.TextSection{ID: 1, PaperID: 100, SectionNumber: 1, Title: "A", Content: "x"}))

	err := repo.Save(&models.TextSection{ID: 2, PaperID: 100, SectionNumber: 1, Title: "B", Content: "y"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestDeleteByPaperCounts(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, NewPaperRepository(db).Save(&models.Paper{ID: 100, Title: "P", SourceFile: "a.md"}))
	repo := NewTableRepository(db)

	saved, err := repo.SaveAll([]models.TableRecord{
		{ID: 1, PaperID: 100, TableNumber: 1, Title: "T1"},
		{ID: 2, PaperID: 100, TableNumber: 2, Title: "T2"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	deleted, err := repo.DeleteByPaper(100)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := repo.CountByPaper(100)
	require.NoError(t, err)
	assert.Zero(t, count)
}
