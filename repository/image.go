package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paper-depot/models"
)

// ImageRepository kapselt alle Datenbankzugriffe auf Bilder.
type ImageRepository struct {
	db *gorm.DB
}

// NewImageRepository erstellt ein neues ImageRepository.
func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Save speichert ein Bild, eine bestehende ID wird aktualisiert.
// Eine Positionskollision unter fremder ID wird als ErrConflict gemeldet.
func (r *ImageRepository) Save(image *models.ImageRecord) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(image).Error
	if err != nil && isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// SaveAll speichert alle Bilder und liefert die Anzahl geschriebener Zeilen.
// Bestehende IDs werden aktualisiert; eine (paper_id, position)-Kollision
// unter fremder ID ist ErrConflict.
func (r *ImageRepository) SaveAll(images []models.ImageRecord) (int, error) {
	if len(images) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&images)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return 0, ErrConflict
		}
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// FindByPaper lädt alle Bilder eines Papers in Dokumentreihenfolge.
func (r *ImageRepository) FindByPaper(paperID int64) ([]models.ImageRecord, error) {
	var images []models.ImageRecord
	err := r.db.Where("paper_id = ?", paperID).Order("image_number ASC").Find(&images).Error
	return images, err
}

// DeleteByPaper löscht alle Bilder eines Papers und liefert die Anzahl.
func (r *ImageRepository) DeleteByPaper(paperID int64) (int64, error) {
	result := r.db.Where("paper_id = ?", paperID).Delete(&models.ImageRecord{})
	return result.RowsAffected, result.Error
}

// ExistsByPaper prüft, ob zu einem Paper Bilder gespeichert sind.
func (r *ImageRepository) ExistsByPaper(paperID int64) (bool, error) {
	count, err := r.CountByPaper(paperID)
	return count > 0, err
}

// CountByPaper zählt die Bilder eines Papers.
func (r *ImageRepository) CountByPaper(paperID int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.ImageRecord{}).Where("paper_id = ?", paperID).Count(&count).Error
	return count, err
}
