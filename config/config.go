package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	// Analyse-Service für Zusammenfassungen, Keywords und Statistik-Auswertung.
	// Bleibt die URL leer, fällt der Extractor auf heuristische Auswertung zurück.
	AnalyzerBaseURL string `envconfig:"ANALYZER_BASE_URL"`
	AnalyzerAPIKey  string `envconfig:"ANALYZER_API_KEY"`

	// Timeout pro Extraktionsaufruf in Sekunden.
	ExtractionTimeout int `envconfig:"EXTRACTION_TIMEOUT" default:"120"`
	// Parallele Extraktionsaufrufe pro Dokument.
	ExtractionWorkers int `envconfig:"EXTRACTION_WORKERS" default:"4"`

	// Modell-Konfiguration für den Analyse-Service.
	MetadataModel    string  `envconfig:"METADATA_MODEL" default:"gemini-2.5-flash"`
	TextModel        string  `envconfig:"TEXT_MODEL" default:"gemini-2.5-flash"`
	TableModel       string  `envconfig:"TABLE_MODEL" default:"gemini-2.5-flash"`
	ImageModel       string  `envconfig:"IMAGE_MODEL" default:"gemini-2.5-flash"`
	ModelTemperature float64 `envconfig:"MODEL_TEMPERATURE" default:"0.1"`

	// Inbox-Verzeichnis für den geplanten Batch-Import.
	InboxDir     string `envconfig:"INBOX_DIR" default:"./inbox"`
	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 0 * * *"`

	// S3-Archiv für die Quelldokumente (optional).
	ArchiveEnabled  bool   `envconfig:"ARCHIVE_ENABLED" default:"false"`
	ArchiveS3Key    string `envconfig:"ARCHIVE_S3_KEY"`
	ArchiveS3Secret string `envconfig:"ARCHIVE_S3_SECRET"`
	ArchiveS3URL    string `envconfig:"ARCHIVE_S3_URL"`
	ArchiveS3Region string `envconfig:"ARCHIVE_S3_REGION"`
	ArchiveS3Bucket string `envconfig:"ARCHIVE_S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
