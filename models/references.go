package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReferenceList ist das Literaturverzeichnis eines Papers: die Referenzen
// in Originalwortlaut und -reihenfolge.
type ReferenceList struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PaperID int64 `json:"paper_id" gorm:"not null;index"`

	References     datatypes.JSONSlice[string] `json:"references"`
	ReferenceCount int                         `json:"reference_count"`

	ExtractedAt time.Time `json:"extracted_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (ReferenceList) TableName() string {
	return "reference_lists"
}
