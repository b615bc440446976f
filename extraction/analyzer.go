package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

var httpClient = &http.Client{Timeout: 120 * time.Second}

// Analyzer kapselt die Aufrufe an den externen Analyse-Service. Der Service
// bekommt Rohinhalt plus Aufgabentyp und liefert Zusammenfassungen,
// Kontextanalysen und Keywords als JSON.
type Analyzer struct {
	BaseURL string
	APIKey  string
	Logger  *zap.Logger
}

// NewAnalyzer erstellt einen neuen Analyse-Client.
func NewAnalyzer(baseURL, apiKey string, logger *zap.Logger) *Analyzer {
	return &Analyzer{BaseURL: baseURL, APIKey: apiKey, Logger: logger}
}

// AnalysisResult ist die JSON-Antwort des Analyse-Service.
type AnalysisResult struct {
	Title               string   `json:"title,omitempty"`
	Summary             string   `json:"summary"`
	ContextAnalysis     string   `json:"context_analysis,omitempty"`
	StatisticalFindings string   `json:"statistical_findings,omitempty"`
	GraphicAnalysis     string   `json:"graphic_analysis,omitempty"`
	Keywords            []string `json:"keywords,omitempty"`
}

// MetadataResult ist die JSON-Antwort für die Metadaten-Extraktion.
type MetadataResult struct {
	Title              string   `json:"title,omitempty"`
	Authors            []string `json:"authors,omitempty"`
	Journal            string   `json:"journal,omitempty"`
	PublicationDate    string   `json:"publication_date,omitempty"`
	DOI                string   `json:"doi,omitempty"`
	Volume             string   `json:"volume,omitempty"`
	Issue              string   `json:"issue,omitempty"`
	Pages              string   `json:"pages,omitempty"`
	Abstract           string   `json:"abstract,omitempty"`
	Keywords           []string `json:"keywords,omitempty"`
	FundingSources     []string `json:"funding_sources,omitempty"`
	ConflictOfInterest string   `json:"conflict_of_interest,omitempty"`
	DataAvailability   string   `json:"data_availability,omitempty"`
	EthicsApproval     string   `json:"ethics_approval,omitempty"`
	RegistrationNumber string   `json:"registration_number,omitempty"`

	SupplementalMaterials []string `json:"supplemental_materials,omitempty"`
}

type analyzeRequest struct {
	Task        string  `json:"task"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Content     string  `json:"content"`
	Context     string  `json:"context,omitempty"`
	AltText     string  `json:"alt_text,omitempty"`
	ImageFormat string  `json:"image_format,omitempty"`
}

// AnalyzeMetadata extrahiert bibliographische Felder aus dem Volltext.
func (a *Analyzer) AnalyzeMetadata(ctx context.Context, model string, temperature float64, content string) (*MetadataResult, error) {
	var result MetadataResult
	err := a.call(ctx, analyzeRequest{
		Task:        "metadata",
		Model:       model,
		Temperature: temperature,
		Content:     content,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeText fasst einen Textabschnitt zusammen.
func (a *Analyzer) AnalyzeText(ctx context.Context, model string, temperature float64, title, content string) (*AnalysisResult, error) {
	var result AnalysisResult
	err := a.call(ctx, analyzeRequest{
		Task:        "text",
		Model:       model,
		Temperature: temperature,
		Content:     content,
		Context:     title,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeTable bewertet eine Tabelle im Kontext des Papers.
func (a *Analyzer) AnalyzeTable(ctx context.Context, model string, temperature float64, tableContent, paperContext string) (*AnalysisResult, error) {
	var result AnalysisResult
	err := a.call(ctx, analyzeRequest{
		Task:        "table",
		Model:       model,
		Temperature: temperature,
		Content:     tableContent,
		Context:     truncate(paperContext, 3000),
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeImage bewertet ein Bild im Kontext des Papers.
func (a *Analyzer) AnalyzeImage(ctx context.Context, model string, temperature float64, imageData, format, altText, paperContext string) (*AnalysisResult, error) {
	var result AnalysisResult
	err := a.call(ctx, analyzeRequest{
		Task:        "image",
		Model:       model,
		Temperature: temperature,
		Content:     imageData,
		Context:     truncate(paperContext, 3000),
		AltText:     altText,
		ImageFormat: format,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// call schickt eine Analyse-Anfrage und dekodiert die JSON-Antwort.
func (a *Analyzer) call(ctx context.Context, payload analyzeRequest, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := a.BaseURL + "/analyze"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.APIKey)
	}

	a.Logger.Debug("Calling analysis service", zap.String("task", payload.Task), zap.String("model", payload.Model))

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("analysis request failed with status: %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
