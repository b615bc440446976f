package models

import (
	"time"

	"gorm.io/datatypes"
)

// ImageRecord ist ein extrahiertes Bild samt Analyseergebnissen.
// (paper_id, image_number) ist eindeutig.
type ImageRecord struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PaperID int64 `json:"paper_id" gorm:"not null;index;uniqueIndex:idx_images_paper_position,priority:1"`

	ImageNumber int    `json:"image_number" gorm:"not null;uniqueIndex:idx_images_paper_position,priority:2"`
	AltText     string `json:"alt_text"`
	ImageData   string `json:"image_data,omitempty" gorm:"type:text"`
	ImageFormat string `json:"image_format,omitempty"`

	Summary             string                      `json:"summary,omitempty" gorm:"type:text"`
	GraphicAnalysis     string                      `json:"graphic_analysis,omitempty" gorm:"type:text"`
	StatisticalAnalysis string                      `json:"statistical_analysis,omitempty" gorm:"type:text"`
	ContextualRelevance string                      `json:"contextual_relevance,omitempty" gorm:"type:text"`
	Keywords            datatypes.JSONSlice[string] `json:"keywords,omitempty"`

	ExtractedAt time.Time `json:"extracted_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (ImageRecord) TableName() string {
	return "image_records"
}
