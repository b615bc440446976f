package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"paper-depot/models"
)

// PaperRepository kapselt alle Datenbankzugriffe auf Papers.
type PaperRepository struct {
	db *gorm.DB
}

// NewPaperRepository erstellt ein neues PaperRepository.
func NewPaperRepository(db *gorm.DB) *PaperRepository {
	return &PaperRepository{db: db}
}

// Save legt ein neues Paper an. Ein Primärschlüssel- oder DOI-Konflikt wird
// als ErrConflict gemeldet, nie stillschweigend überschrieben.
func (r *PaperRepository) Save(paper *models.Paper) error {
	err := r.db.Create(paper).Error
	if err != nil && isDuplicateKey(err) {
		return ErrConflict
	}
	return err
}

// UpdateMetadata überschreibt die Metadatenfelder eines bestehenden Papers.
// Kindtabellen (Sections, Tables, Images, References) bleiben unberührt.
func (r *PaperRepository) UpdateMetadata(paper *models.Paper) error {
	result := r.db.Model(&models.Paper{}).Where("id = ?", paper.ID).Updates(map[string]any{
		"title":                  paper.Title,
		"authors":                paper.Authors,
		"journal":                paper.Journal,
		"publication_date":       paper.PublicationDate,
		"doi":                    paper.DOI,
		"volume":                 paper.Volume,
		"issue":                  paper.Issue,
		"pages":                  paper.Pages,
		"abstract":               paper.Abstract,
		"keywords":               paper.Keywords,
		"source_file":            paper.SourceFile,
		"extracted_at":           paper.ExtractedAt,
		"funding_sources":        paper.FundingSources,
		"conflict_of_interest":   paper.ConflictOfInterest,
		"data_availability":      paper.DataAvailability,
		"ethics_approval":        paper.EthicsApproval,
		"registration_number":    paper.RegistrationNumber,
		"supplemental_materials": paper.SupplementalMaterials,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetArchiveLink hinterlegt den Link auf das archivierte Quelldokument.
func (r *PaperRepository) SetArchiveLink(paperID int64, link string) error {
	return r.db.Model(&models.Paper{}).Where("id = ?", paperID).
		Update("archive_link", link).Error
}

// FindByID lädt ein Paper über seine ID.
func (r *PaperRepository) FindByID(id int64) (*models.Paper, error) {
	var paper models.Paper
	err := r.db.First(&paper, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// ExistsByDOI prüft, ob ein Paper mit dieser DOI gespeichert ist.
func (r *PaperRepository) ExistsByDOI(doi string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Paper{}).Where("doi = ?", doi).Count(&count).Error
	return count > 0, err
}

// ExistsByTitle prüft, ob ein Paper mit exakt diesem Titel gespeichert ist.
func (r *PaperRepository) ExistsByTitle(title string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Paper{}).Where("title = ?", title).Count(&count).Error
	return count > 0, err
}

// FindByDOI lädt ein Paper über seine DOI.
func (r *PaperRepository) FindByDOI(doi string) (*models.Paper, error) {
	var paper models.Paper
	err := r.db.First(&paper, "doi = ?", doi).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// FindByTitle lädt ein Paper über den exakten Titel. Der Vergleich ist
// case-sensitiv und ohne Normalisierung.
func (r *PaperRepository) FindByTitle(title string) (*models.Paper, error) {
	var paper models.Paper
	err := r.db.First(&paper, "title = ?", title).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// FindAll lädt alle Papers, neueste zuerst.
func (r *PaperRepository) FindAll() ([]models.Paper, error) {
	var papers []models.Paper
	err := r.db.Order("created_at DESC").Find(&papers).Error
	return papers, err
}

// Count liefert die Anzahl gespeicherter Papers.
func (r *PaperRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Paper{}).Count(&count).Error
	return count, err
}

// isDuplicateKey erkennt einen Unique-Constraint-Verstoß über die
// Dialekt-Grenzen von Postgres und SQLite hinweg.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
