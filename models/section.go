package models

import (
	"time"

	"gorm.io/datatypes"
)

// TextSection ist ein Textabschnitt eines Papers in Dokumentreihenfolge.
// Die Sequenznummern werden bei der Extraktion lückenlos ab 1 vergeben und
// vom Storage-Layer unverändert übernommen.
type TextSection struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PaperID int64 `json:"paper_id" gorm:"not null;index;uniqueIndex:idx_sections_paper_position,priority:1"`

	Title    string                      `json:"title" gorm:"not null"`
	Content  string                      `json:"content" gorm:"type:text;not null"`
	Summary  string                      `json:"summary,omitempty" gorm:"type:text"`
	Keywords datatypes.JSONSlice[string] `json:"keywords,omitempty"`

	SectionNumber int `json:"section_number" gorm:"not null;uniqueIndex:idx_sections_paper_position,priority:2"`
	Level         int `json:"level" gorm:"default:1"`
	WordCount     int `json:"word_count"`

	ExtractedAt time.Time `json:"extracted_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (TextSection) TableName() string {
	return "text_sections"
}
