package services

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"paper-depot/extraction"
	"paper-depot/models"
	"paper-depot/repository"
	"paper-depot/storage"
)

var (
	papersIngestedCounter    prometheus.Counter
	papersSkippedCounter     prometheus.Counter
	papersOverwrittenCounter prometheus.Counter
	ingestFailuresCounter    prometheus.Counter
)

func init() {
	papersIngestedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "papers_ingested_total",
			Help: "Total number of new papers added to the database.",
		},
	)
	papersSkippedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "papers_skipped_total",
			Help: "Total number of ingests skipped as duplicates.",
		},
	)
	papersOverwrittenCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "papers_overwritten_total",
			Help: "Total number of papers with selectively overwritten data.",
		},
	)
	ingestFailuresCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_failures_total",
			Help: "Total number of failed ingest runs.",
		},
	)
	prometheus.MustRegister(papersIngestedCounter, papersSkippedCounter,
		papersOverwrittenCounter, ingestFailuresCounter)
}

// Report fasst einen Ingest-Lauf zusammen.
type Report struct {
	Action  Action `json:"action"`
	PaperID int64  `json:"paper_id"`
	Title   string `json:"title"`

	SectionsSaved   int `json:"sections_saved"`
	TablesSaved     int `json:"tables_saved"`
	ImagesSaved     int `json:"images_saved"`
	ReferencesSaved int `json:"references_saved"`

	SectionsDeleted int64 `json:"sections_deleted,omitempty"`
	TablesDeleted   int64 `json:"tables_deleted,omitempty"`
	ImagesDeleted   int64 `json:"images_deleted,omitempty"`

	ArchiveLink string `json:"archive_link,omitempty"`
}

// extracted bündelt die Ergebnisse aller Extraktionsarten eines Dokuments.
type extracted struct {
	paper      *models.Paper
	sections   []models.TextSection
	tables     []models.TableRecord
	images     []models.ImageRecord
	references *models.ReferenceList
}

// IngestionOrchestrator steuert den kompletten Ablauf: Extraktion,
// Duplikatauflösung und die transaktionale Persistenz. Entweder landen alle
// Teile eines Dokuments in der Datenbank oder keiner.
type IngestionOrchestrator struct {
	db      *gorm.DB
	gateway extraction.Gateway
	archive *storage.S3Client // nil => kein Archiv
	logger  *zap.Logger

	// Workers begrenzt die parallelen Extraktionsarten.
	Workers int
	// KindTimeout gilt pro Extraktionsart.
	KindTimeout time.Duration
}

// NewIngestionOrchestrator erstellt einen neuen Orchestrator.
func NewIngestionOrchestrator(db *gorm.DB, gateway extraction.Gateway, archive *storage.S3Client, logger *zap.Logger) *IngestionOrchestrator {
	return &IngestionOrchestrator{
		db:          db,
		gateway:     gateway,
		archive:     archive,
		logger:      logger,
		Workers:     4,
		KindTimeout: 120 * time.Second,
	}
}

// IngestFile liest die Datei ein und verarbeitet ihren Inhalt.
func (o *IngestionOrchestrator) IngestFile(ctx context.Context, path string, policy Policy) (*Report, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		ingestFailuresCounter.Inc()
		return nil, fmt.Errorf("could not read document: %w", err)
	}
	return o.Ingest(ctx, string(content), path, policy)
}

// Ingest verarbeitet ein Dokument vollständig. Schlägt die
// Metadaten-Extraktion fehl, bricht der Lauf ab; die übrigen Arten werden
// parallel extrahiert, ihr Ausfall führt zu leeren Ergebnissen, nicht zum
// Abbruch. Persistiert wird in einer einzigen Transaktion.
func (o *IngestionOrchestrator) Ingest(ctx context.Context, content, sourceFile string, policy Policy) (*Report, error) {
	report, err := o.ingest(ctx, content, sourceFile, policy)
	if err != nil {
		ingestFailuresCounter.Inc()
		return nil, err
	}

	switch report.Action {
	case ActionIngest:
		papersIngestedCounter.Inc()
	case ActionSkip:
		papersSkippedCounter.Inc()
	case ActionOverwrite:
		papersOverwrittenCounter.Inc()
	}
	return report, nil
}

func (o *IngestionOrchestrator) ingest(ctx context.Context, content, sourceFile string, policy Policy) (*Report, error) {
	ext, err := o.extract(ctx, content, sourceFile)
	if err != nil {
		return nil, err
	}

	log := o.logger.With(zap.Int64("paper_id", ext.paper.ID), zap.String("source_file", sourceFile))

	var report *Report
	err = o.db.Transaction(func(tx *gorm.DB) error {
		report, err = o.persist(tx, ext, policy)
		return err
	})
	if err != nil {
		log.Error("Ingest transaction rolled back", zap.Error(err))
		return nil, err
	}

	if report.Action != ActionSkip {
		o.archiveSource(ctx, report, content, log)
	}

	log.Info("Ingest finished",
		zap.String("action", string(report.Action)),
		zap.Int("sections", report.SectionsSaved),
		zap.Int("tables", report.TablesSaved),
		zap.Int("images", report.ImagesSaved))
	return report, nil
}

// extract führt die Metadaten-Extraktion zuerst aus und fächert danach die
// übrigen Arten parallel auf.
func (o *IngestionOrchestrator) extract(ctx context.Context, content, sourceFile string) (*extracted, error) {
	paper, err := o.gateway.ExtractMetadata(ctx, content, sourceFile)
	if err != nil {
		return nil, fmt.Errorf("metadata extraction failed: %w", err)
	}

	ext := &extracted{paper: paper}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, o.Workers)

	run := func(kind string, fn func(ctx context.Context) error) {
		wg.Add(1)
		semaphore <- struct{}{}

		go func() {
			defer wg.Done()
			defer func() { <-semaphore }()

			kindCtx, cancel := context.WithTimeout(ctx, o.KindTimeout)
			defer cancel()

			if err := fn(kindCtx); err != nil {
				// Der Lauf geht mit leerem Ergebnis weiter; nur die
				// Metadaten sind Pflicht.
				o.logger.Warn("Extraction kind failed, continuing with empty result",
					zap.String("kind", kind), zap.Int64("paper_id", paper.ID), zap.Error(err))
			}
		}()
	}

	run("sections", func(ctx context.Context) error {
		sections, err := o.gateway.ExtractSections(ctx, content, paper.ID)
		if err != nil {
			return err
		}
		ext.sections = sections
		return nil
	})
	run("tables", func(ctx context.Context) error {
		tables, err := o.gateway.ExtractTables(ctx, content, paper.ID)
		if err != nil {
			return err
		}
		ext.tables = tables
		return nil
	})
	run("images", func(ctx context.Context) error {
		images, err := o.gateway.ExtractImages(ctx, content, paper.ID)
		if err != nil {
			return err
		}
		ext.images = images
		return nil
	})
	run("references", func(ctx context.Context) error {
		refs, err := o.gateway.ExtractReferences(ctx, content, paper.ID)
		if err != nil {
			return err
		}
		ext.references = refs
		return nil
	})

	wg.Wait()
	return ext, nil
}

// persist löst Duplikate auf und schreibt alle Teile innerhalb der
// übergebenen Transaktion.
func (o *IngestionOrchestrator) persist(tx *gorm.DB, ext *extracted, policy Policy) (*Report, error) {
	papers := repository.NewPaperRepository(tx)
	sections := repository.NewSectionRepository(tx)
	tables := repository.NewTableRepository(tx)
	images := repository.NewImageRepository(tx)
	references := repository.NewReferenceRepository(tx)

	resolver := NewDuplicateResolver(papers, o.logger)
	decision, err := resolver.Resolve(ext.paper, policy)
	if err != nil {
		return nil, err
	}

	// Ein Treffer kann die Paper-ID geändert haben, die Kinder ziehen nach.
	ext.rebind()

	report := &Report{
		Action:  decision.Action,
		PaperID: ext.paper.ID,
		Title:   ext.paper.Title,
	}

	switch decision.Action {
	case ActionSkip:
		return report, nil

	case ActionIngest:
		if err := papers.Save(ext.paper); err != nil {
			return nil, err
		}
		return report, o.saveChildren(report, ext, sections, tables, images, references)

	case ActionOverwrite:
		if decision.Kinds.Has(KindMetadata) {
			if err := papers.UpdateMetadata(ext.paper); err != nil {
				return nil, err
			}
		}
		if decision.Kinds.Has(KindSections) {
			deleted, err := sections.DeleteByPaper(ext.paper.ID)
			if err != nil {
				return nil, err
			}
			report.SectionsDeleted = deleted
			if _, err := references.DeleteByPaper(ext.paper.ID); err != nil {
				return nil, err
			}
			saved, err := sections.SaveAll(ext.sections)
			if err != nil {
				return nil, err
			}
			report.SectionsSaved = saved
			if ext.references != nil {
				if err := references.Save(ext.references); err != nil {
					return nil, err
				}
				report.ReferencesSaved = ext.references.ReferenceCount
			}
		}
		if decision.Kinds.Has(KindTables) {
			deleted, err := tables.DeleteByPaper(ext.paper.ID)
			if err != nil {
				return nil, err
			}
			report.TablesDeleted = deleted
			saved, err := tables.SaveAll(ext.tables)
			if err != nil {
				return nil, err
			}
			report.TablesSaved = saved
		}
		if decision.Kinds.Has(KindImages) {
			deleted, err := images.DeleteByPaper(ext.paper.ID)
			if err != nil {
				return nil, err
			}
			report.ImagesDeleted = deleted
			saved, err := images.SaveAll(ext.images)
			if err != nil {
				return nil, err
			}
			report.ImagesSaved = saved
		}
		return report, nil
	}

	return nil, fmt.Errorf("unknown resolver action: %q", decision.Action)
}

func (o *IngestionOrchestrator) saveChildren(report *Report, ext *extracted,
	sections *repository.SectionRepository, tables *repository.TableRepository,
	images *repository.ImageRepository, references *repository.ReferenceRepository) error {

	saved, err := sections.SaveAll(ext.sections)
	if err != nil {
		return err
	}
	report.SectionsSaved = saved

	saved, err = tables.SaveAll(ext.tables)
	if err != nil {
		return err
	}
	report.TablesSaved = saved

	saved, err = images.SaveAll(ext.images)
	if err != nil {
		return err
	}
	report.ImagesSaved = saved

	if ext.references != nil {
		if err := references.Save(ext.references); err != nil {
			return err
		}
		report.ReferencesSaved = ext.references.ReferenceCount
	}
	return nil
}

// rebind setzt die Paper-ID auf allen Kindern neu. Die Element-IDs selbst
// sind inhaltsadressiert und bleiben stabil; nur das Literaturverzeichnis
// leitet seine ID aus der Paper-ID ab und wird neu berechnet.
func (e *extracted) rebind() {
	id := e.paper.ID
	for i := range e.sections {
		e.sections[i].PaperID = id
	}
	for i := range e.tables {
		e.tables[i].PaperID = id
	}
	for i := range e.images {
		e.images[i].PaperID = id
	}
	if e.references != nil {
		e.references.PaperID = id
		e.references.ID = models.ReferencesID(id, e.references.ReferenceCount)
	}
}

// archiveSource lädt das Quelldokument ins S3-Archiv und hinterlegt den
// Link am Paper. Fehler hier kippen den bereits bestätigten Ingest nicht.
func (o *IngestionOrchestrator) archiveSource(ctx context.Context, report *Report, content string, log *zap.Logger) {
	if o.archive == nil {
		return
	}

	key := fmt.Sprintf("papers/%d.md", report.PaperID)
	link, err := o.archive.UploadDocument(ctx, key, []byte(content))
	if err != nil {
		log.Warn("Could not archive source document", zap.Error(err))
		return
	}

	if err := repository.NewPaperRepository(o.db).SetArchiveLink(report.PaperID, link); err != nil {
		log.Warn("Could not store archive link", zap.Error(err))
		return
	}
	report.ArchiveLink = link
	log.Info("Source document archived", zap.String("key", key))
}
