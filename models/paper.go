package models

import (
	"time"

	"gorm.io/datatypes"
)

// Paper repräsentiert eine wissenschaftliche Studie und deren Metadaten.
// Die ID ist inhaltsadressiert: gleicher Quellpfad plus gleicher
// Inhaltspräfix ergibt bei jedem Ingest dieselbe ID.
type Paper struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Title   string                      `json:"title" gorm:"type:text;not null;index"`
	Authors datatypes.JSONSlice[string] `json:"authors,omitempty"`
	Journal string                      `json:"journal,omitempty"`

	PublicationDate string `json:"publication_date,omitempty"`
	// DOI ist optional: NULL wenn das Dokument keine trägt, damit der
	// Unique-Index nur echte DOIs vergleicht.
	DOI *string `json:"doi,omitempty" gorm:"column:doi;uniqueIndex"`
	Volume          string `json:"volume,omitempty"`
	Issue           string `json:"issue,omitempty"`
	Pages           string `json:"pages,omitempty"`

	Abstract string                      `json:"abstract,omitempty" gorm:"type:text"`
	Keywords datatypes.JSONSlice[string] `json:"keywords,omitempty"`

	SourceFile  string    `json:"source_file" gorm:"not null"`
	ExtractedAt time.Time `json:"extracted_at"`

	FundingSources     datatypes.JSONSlice[string] `json:"funding_sources,omitempty"`
	ConflictOfInterest string                      `json:"conflict_of_interest,omitempty" gorm:"type:text"`
	DataAvailability   string                      `json:"data_availability,omitempty" gorm:"type:text"`
	EthicsApproval     string                      `json:"ethics_approval,omitempty" gorm:"type:text"`
	RegistrationNumber string                      `json:"registration_number,omitempty"`

	SupplementalMaterials datatypes.JSONSlice[string] `json:"supplemental_materials,omitempty"`

	// Link auf das archivierte Quelldokument, falls das S3-Archiv aktiv ist.
	ArchiveLink string `json:"archive_link,omitempty"`

	Sections   []TextSection  `json:"-" gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE"`
	Tables     []TableRecord  `json:"-" gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE"`
	Images     []ImageRecord  `json:"-" gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE"`
	References *ReferenceList `json:"-" gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE"`
}

// TableName gibt explizit den Tabellennamen an.
func (Paper) TableName() string {
	return "papers"
}
