package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paper-depot/models"
)

// SectionRepository kapselt alle Datenbankzugriffe auf Textabschnitte.
type SectionRepository struct {
	db *gorm.DB
}

// NewSectionRepository erstellt ein neues SectionRepository.
func NewSectionRepository(db *gorm.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// Save speichert einen Abschnitt, eine bestehende ID wird aktualisiert.
// Eine Positionskollision unter fremder ID wird als ErrConflict gemeldet.
func (r *SectionRepository) Save(section *models.TextSection) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(section).Error
	if err != nil && isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// SaveAll speichert alle Abschnitte und liefert die Anzahl geschriebener
// Zeilen. Eine bestehende ID wird aktualisiert, damit ein erneuter Ingest
// desselben Inhalts idempotent bleibt; eine (paper_id, position)-Kollision
// unter fremder ID ist ErrConflict.
func (r *SectionRepository) SaveAll(sections []models.TextSection) (int, error) {
	if len(sections) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&sections)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return 0, ErrConflict
		}
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// FindByPaper lädt alle Abschnitte eines Papers in Dokumentreihenfolge.
func (r *SectionRepository) FindByPaper(paperID int64) ([]models.TextSection, error) {
	var sections []models.TextSection
	err := r.db.Where("paper_id = ?", paperID).Order("section_number ASC").Find(&sections).Error
	return sections, err
}

// DeleteByPaper löscht alle Abschnitte eines Papers und liefert die Anzahl.
func (r *SectionRepository) DeleteByPaper(paperID int64) (int64, error) {
	result := r.db.Where("paper_id = ?", paperID).Delete(&models.TextSection{})
	return result.RowsAffected, result.Error
}

// ExistsByPaper prüft, ob zu einem Paper Abschnitte gespeichert sind.
func (r *SectionRepository) ExistsByPaper(paperID int64) (bool, error) {
	count, err := r.CountByPaper(paperID)
	return count > 0, err
}

// CountByPaper zählt die Abschnitte eines Papers.
func (r *SectionRepository) CountByPaper(paperID int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.TextSection{}).Where("paper_id = ?", paperID).Count(&count).Error
	return count, err
}
