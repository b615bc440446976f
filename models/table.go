package models

import (
	"time"

	"gorm.io/datatypes"
)

// TableRecord ist eine extrahierte Tabelle samt Analyseergebnissen.
// (paper_id, table_number) ist eindeutig: keine zwei Tabellen eines Papers
// teilen sich eine Position.
type TableRecord struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	PaperID int64 `json:"paper_id" gorm:"not null;index;uniqueIndex:idx_tables_paper_position,priority:1"`

	TableNumber int    `json:"table_number" gorm:"not null;uniqueIndex:idx_tables_paper_position,priority:2"`
	Title       string `json:"title" gorm:"not null"`
	RawContent  string `json:"raw_content" gorm:"type:text;not null"`

	Summary             string                      `json:"summary,omitempty" gorm:"type:text"`
	ContextAnalysis     string                      `json:"context_analysis,omitempty" gorm:"type:text"`
	StatisticalFindings string                      `json:"statistical_findings,omitempty" gorm:"type:text"`
	Keywords            datatypes.JSONSlice[string] `json:"keywords,omitempty"`

	ColumnCount int `json:"column_count"`
	RowCount    int `json:"row_count"`

	ExtractedAt time.Time `json:"extracted_at"`
}

// TableName gibt explizit den Tabellennamen an.
func (TableRecord) TableName() string {
	return "table_records"
}
