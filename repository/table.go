package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"paper-depot/models"
)

// TableRepository kapselt alle Datenbankzugriffe auf Tabellen.
type TableRepository struct {
	db *gorm.DB
}

// NewTableRepository erstellt ein neues TableRepository.
func NewTableRepository(db *gorm.DB) *TableRepository {
	return &TableRepository{db: db}
}

// Save speichert eine Tabelle, eine bestehende ID wird aktualisiert.
// Eine Positionskollision unter fremder ID wird als ErrConflict gemeldet.
func (r *TableRepository) Save(table *models.TableRecord) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(table).Error
	if err != nil && isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// SaveAll speichert alle Tabellen und liefert die Anzahl geschriebener
// Zeilen. Bestehende IDs werden aktualisiert; eine (paper_id, position)-
// Kollision unter fremder ID ist ErrConflict.
func (r *TableRepository) SaveAll(tables []models.TableRecord) (int, error) {
	if len(tables) == 0 {
		return 0, nil
	}
	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&tables)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return 0, ErrConflict
		}
		return 0, result.Error
	}
	return int(result.RowsAffected), nil
}

// FindByPaper lädt alle Tabellen eines Papers in Dokumentreihenfolge.
func (r *TableRepository) FindByPaper(paperID int64) ([]models.TableRecord, error) {
	var tables []models.TableRecord
	err := r.db.Where("paper_id = ?", paperID).Order("table_number ASC").Find(&tables).Error
	return tables, err
}

// DeleteByPaper löscht alle Tabellen eines Papers und liefert die Anzahl.
func (r *TableRepository) DeleteByPaper(paperID int64) (int64, error) {
	result := r.db.Where("paper_id = ?", paperID).Delete(&models.TableRecord{})
	return result.RowsAffected, result.Error
}

// ExistsByPaper prüft, ob zu einem Paper Tabellen gespeichert sind.
func (r *TableRepository) ExistsByPaper(paperID int64) (bool, error) {
	count, err := r.CountByPaper(paperID)
	return count > 0, err
}

// CountByPaper zählt die Tabellen eines Papers.
func (r *TableRepository) CountByPaper(paperID int64) (int64, error) {
	var count int64
	err := r.db.Model(&models.TableRecord{}).Where("paper_id = ?", paperID).Count(&count).Error
	return count, err
}
