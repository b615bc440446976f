package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paper-depot/models"
)

// ReferenceRepository kapselt alle Datenbankzugriffe auf Literaturverzeichnisse.
type ReferenceRepository struct {
	db *gorm.DB
}

// NewReferenceRepository erstellt ein neues ReferenceRepository.
func NewReferenceRepository(db *gorm.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// Save speichert das Literaturverzeichnis, eine bestehende ID wird
// aktualisiert.
func (r *ReferenceRepository) Save(list *models.ReferenceList) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(list).Error
}

// FindByPaper lädt das Literaturverzeichnis eines Papers.
func (r *ReferenceRepository) FindByPaper(paperID int64) (*models.ReferenceList, error) {
	var list models.ReferenceList
	err := r.db.First(&list, "paper_id = ?", paperID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// DeleteByPaper löscht das Literaturverzeichnis eines Papers.
func (r *ReferenceRepository) DeleteByPaper(paperID int64) (int64, error) {
	result := r.db.Where("paper_id = ?", paperID).Delete(&models.ReferenceList{})
	return result.RowsAffected, result.Error
}

// ExistsByPaper prüft, ob zu einem Paper ein Literaturverzeichnis gespeichert ist.
func (r *ReferenceRepository) ExistsByPaper(paperID int64) (bool, error) {
	count, err := r.CountByPaper(paperID)
	return count > 0, err
}

// CountByPaper zählt die Verzeichnisse eines Papers (0 oder 1).
func (r *ReferenceRepository) CountByPaper(paperID int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.ReferenceList{}).Where("paper_id = ?", paperID).Count(&count).Error
	return count, err
}
