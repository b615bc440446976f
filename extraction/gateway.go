package extraction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"paper-depot/models"
)

// Gateway ist das Interface, das jede Extraktionsquelle implementieren muss.
// Alle Aufrufe sind synchron und schreiben nie in die Datenbank; Retry- und
// Timeout-Politik liegt beim Aufrufer.
type Gateway interface {
	// ExtractMetadata liefert die Paper-Metadaten. Ein Fehler hier bricht
	// den gesamten Ingest ab.
	ExtractMetadata(ctx context.Context, content, sourceFile string) (*models.Paper, error)

	// ExtractSections liefert die Textabschnitte; leer ist kein Fehler.
	ExtractSections(ctx context.Context, content string, paperID int64) ([]models.TextSection, error)

	// ExtractTables liefert die Tabellen; leer ist kein Fehler.
	ExtractTables(ctx context.Context, content string, paperID int64) ([]models.TableRecord, error)

	// ExtractImages liefert die Bilder; leer ist kein Fehler.
	ExtractImages(ctx context.Context, content string, paperID int64) ([]models.ImageRecord, error)

	// ExtractReferences liefert das Literaturverzeichnis oder nil, wenn
	// keines gefunden wurde.
	ExtractReferences(ctx context.Context, content string, paperID int64) (*models.ReferenceList, error)
}

// ModelConfig benennt die Analyse-Modelle pro Extraktionsart. Die Werte
// werden explizit in den Konstruktor gereicht, es gibt keinen globalen
// Modell-Zustand.
type ModelConfig struct {
	MetadataModel string
	TextModel     string
	TableModel    string
	ImageModel    string
	Temperature   float64
}

// Extractor ist die Standard-Implementierung des Gateways: Markdown-Muster
// für die Strukturerkennung, optional ein Analyse-Service für
// Zusammenfassungen und Keywords.
type Extractor struct {
	Models   ModelConfig
	Analyzer *Analyzer // nil => heuristische Auswertung
	Logger   *zap.Logger
}

// NewExtractor erstellt einen neuen Extractor.
func NewExtractor(mc ModelConfig, analyzer *Analyzer, logger *zap.Logger) *Extractor {
	return &Extractor{Models: mc, Analyzer: analyzer, Logger: logger}
}

// ExtractMetadata bestimmt die Paper-ID aus dem Inhalt und sammelt die
// bibliographischen Felder aus dem Dokumentkopf.
func (e *Extractor) ExtractMetadata(ctx context.Context, content, sourceFile string) (*models.Paper, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty document content")
	}

	paperID := models.PaperID(content, sourceFile)
	log := e.Logger.With(zap.Int64("paper_id", paperID), zap.String("source_file", sourceFile))

	paper := parseFrontMatter(content)
	if paper.Title == "" {
		return nil, fmt.Errorf("no title found in document")
	}
	paper.ID = paperID
	paper.SourceFile = sourceFile
	paper.ExtractedAt = time.Now()

	if e.Analyzer != nil {
		meta, err := e.Analyzer.AnalyzeMetadata(ctx, e.Models.MetadataModel, e.Models.Temperature, content)
		if err != nil {
			// Die Strukturerkennung hat bereits Titel/DOI geliefert; der
			// Analyse-Service verfeinert nur. Sein Ausfall ist kein Abbruch.
			log.Warn("Metadata analysis failed, keeping pattern-based fields", zap.Error(err))
		} else {
			mergeAnalyzedMetadata(paper, meta)
		}
	}

	if len(paper.Keywords) == 0 {
		paper.Keywords = keywordHeuristic(paper.Title)
	}

	log.Info("Metadata extracted", zap.String("title", paper.Title), zap.String("doi", stringValue(paper.DOI)))
	return paper, nil
}

// ExtractSections zerlegt das Dokument an seinen Überschriften. Die
// Sequenznummern sind lückenlos ab 1 in Dokumentreihenfolge.
func (e *Extractor) ExtractSections(ctx context.Context, content string, paperID int64) ([]models.TextSection, error) {
	raw := splitSections(content)
	sections := make([]models.TextSection, 0, len(raw))

	for i, rs := range raw {
		seq := i + 1
		sec := models.TextSection{
			ID:            models.SectionID(rs.Title, rs.Content, seq),
			PaperID:       paperID,
			Title:         rs.Title,
			Content:       rs.Content,
			SectionNumber: seq,
			Level:         rs.Level,
			WordCount:     len(strings.Fields(rs.Content)),
			ExtractedAt:   time.Now(),
		}
		sec.Summary, sec.Keywords = e.analyzeText(ctx, e.Models.TextModel, rs.Title, rs.Content)
		sections = append(sections, sec)
	}

	e.Logger.Info("Sections extracted", zap.Int64("paper_id", paperID), zap.Int("count", len(sections)))
	return sections, nil
}

// ExtractTables findet Pipe-Tabellen im Markdown und analysiert sie.
func (e *Extractor) ExtractTables(ctx context.Context, content string, paperID int64) ([]models.TableRecord, error) {
	raw := findTables(content)
	tables := make([]models.TableRecord, 0, len(raw))

	for i, rt := range raw {
		num := i + 1
		title := rt.Caption
		if title == "" {
			title = fmt.Sprintf("Table %d", num)
		}
		tab := models.TableRecord{
			ID:          models.TableID(title, rt.Content, num),
			PaperID:     paperID,
			TableNumber: num,
			Title:       title,
			RawContent:  rt.Content,
			ColumnCount: rt.Columns,
			RowCount:    rt.Rows,
			ExtractedAt: time.Now(),
		}
		if e.Analyzer != nil {
			res, err := e.Analyzer.AnalyzeTable(ctx, e.Models.TableModel, e.Models.Temperature, rt.Content, content)
			if err != nil {
				e.Logger.Warn("Table analysis failed, using heuristic summary",
					zap.Int("table_number", num), zap.Error(err))
			} else {
				tab.Title = firstNonEmpty(res.Title, tab.Title)
				tab.Summary = res.Summary
				tab.ContextAnalysis = res.ContextAnalysis
				tab.StatisticalFindings = res.StatisticalFindings
				tab.Keywords = res.Keywords
			}
		}
		if tab.Summary == "" {
			tab.Summary = fmt.Sprintf("Table with %d columns and %d data rows.", rt.Columns, rt.Rows)
			tab.Keywords = keywordHeuristic(title)
		}
		tables = append(tables, tab)
	}

	e.Logger.Info("Tables extracted", zap.Int64("paper_id", paperID), zap.Int("count", len(tables)))
	return tables, nil
}

// ExtractImages findet inline kodierte Bilder und analysiert sie.
func (e *Extractor) ExtractImages(ctx context.Context, content string, paperID int64) ([]models.ImageRecord, error) {
	raw := findImages(content)
	images := make([]models.ImageRecord, 0, len(raw))

	for i, ri := range raw {
		num := i + 1
		img := models.ImageRecord{
			ID:          models.ImageID(ri.AltText, ri.Data, num),
			PaperID:     paperID,
			ImageNumber: num,
			AltText:     ri.AltText,
			ImageData:   ri.Data,
			ImageFormat: ri.Format,
			ExtractedAt: time.Now(),
		}
		if e.Analyzer != nil {
			res, err := e.Analyzer.AnalyzeImage(ctx, e.Models.ImageModel, e.Models.Temperature, ri.Data, ri.Format, ri.AltText, content)
			if err != nil {
				e.Logger.Warn("Image analysis failed, using heuristic summary",
					zap.Int("image_number", num), zap.Error(err))
			} else {
				img.Summary = res.Summary
				img.GraphicAnalysis = res.GraphicAnalysis
				img.StatisticalAnalysis = res.StatisticalFindings
				img.ContextualRelevance = res.ContextAnalysis
				img.Keywords = res.Keywords
			}
		}
		if img.Summary == "" {
			img.Summary = firstNonEmpty(ri.AltText, fmt.Sprintf("Figure %d", num))
			img.Keywords = keywordHeuristic(ri.AltText)
		}
		images = append(images, img)
	}

	e.Logger.Info("Images extracted", zap.Int64("paper_id", paperID), zap.Int("count", len(images)))
	return images, nil
}

// ExtractReferences sammelt das Literaturverzeichnis. nil bedeutet: kein
// Verzeichnis im Dokument gefunden.
func (e *Extractor) ExtractReferences(ctx context.Context, content string, paperID int64) (*models.ReferenceList, error) {
	refs := findReferences(content)
	if len(refs) == 0 {
		e.Logger.Debug("No references section found", zap.Int64("paper_id", paperID))
		return nil, nil
	}

	list := &models.ReferenceList{
		ID:             models.ReferencesID(paperID, len(refs)),
		PaperID:        paperID,
		References:     refs,
		ReferenceCount: len(refs),
		ExtractedAt:    time.Now(),
	}
	e.Logger.Info("References extracted", zap.Int64("paper_id", paperID), zap.Int("count", len(refs)))
	return list, nil
}

// analyzeText liefert Zusammenfassung und Keywords für einen Textabschnitt,
// per Analyse-Service oder heuristisch.
func (e *Extractor) analyzeText(ctx context.Context, model, title, content string) (string, []string) {
	if e.Analyzer != nil {
		res, err := e.Analyzer.AnalyzeText(ctx, model, e.Models.Temperature, title, content)
		if err == nil {
			return res.Summary, res.Keywords
		}
		e.Logger.Warn("Text analysis failed, using heuristic summary", zap.String("section", title), zap.Error(err))
	}
	return summaryHeuristic(content), keywordHeuristic(title)
}

// mergeAnalyzedMetadata übernimmt die Felder des Analyse-Service in das
// Paper. Strukturell erkannte Felder (Titel, DOI, Abstract) bleiben stehen,
// wenn der Service nichts Besseres liefert.
func mergeAnalyzedMetadata(paper *models.Paper, meta *MetadataResult) {
	paper.Title = firstNonEmpty(meta.Title, paper.Title)
	if meta.DOI != "" {
		doi := meta.DOI
		paper.DOI = &doi
	}
	paper.Abstract = firstNonEmpty(meta.Abstract, paper.Abstract)
	paper.Journal = meta.Journal
	paper.PublicationDate = meta.PublicationDate
	paper.Volume = meta.Volume
	paper.Issue = meta.Issue
	paper.Pages = meta.Pages
	paper.ConflictOfInterest = meta.ConflictOfInterest
	paper.DataAvailability = meta.DataAvailability
	paper.EthicsApproval = meta.EthicsApproval
	paper.RegistrationNumber = meta.RegistrationNumber
	if len(meta.Authors) > 0 {
		paper.Authors = meta.Authors
	}
	if len(meta.Keywords) > 0 {
		paper.Keywords = meta.Keywords
	}
	if len(meta.FundingSources) > 0 {
		paper.FundingSources = meta.FundingSources
	}
	if len(meta.SupplementalMaterials) > 0 {
		paper.SupplementalMaterials = meta.SupplementalMaterials
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
