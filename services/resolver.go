package services

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"paper-depot/models"
	"paper-depot/repository"
)

// Action sagt, wie mit einem frisch extrahierten Paper verfahren wird.
type Action string

const (
	// ActionIngest: kein Duplikat gefunden, Paper wird neu angelegt.
	ActionIngest Action = "ingest"
	// ActionSkip: Duplikat gefunden, der Bestand bleibt unverändert.
	ActionSkip Action = "skip"
	// ActionOverwrite: Duplikat gefunden, ausgewählte Teile werden ersetzt.
	ActionOverwrite Action = "overwrite"
)

// KindSet ist eine Bitmaske der überschreibbaren Datenarten.
type KindSet uint8

const (
	KindMetadata KindSet = 1 << iota
	KindSections
	KindTables
	KindImages

	KindAll = KindMetadata | KindSections | KindTables | KindImages
)

// Has prüft, ob alle Arten der Maske enthalten sind.
func (k KindSet) Has(kinds KindSet) bool {
	return k&kinds == kinds
}

// String listet die enthaltenen Arten kommagetrennt auf.
func (k KindSet) String() string {
	var parts []string
	if k.Has(KindMetadata) {
		parts = append(parts, "metadata")
	}
	if k.Has(KindSections) {
		parts = append(parts, "sections")
	}
	if k.Has(KindTables) {
		parts = append(parts, "tables")
	}
	if k.Has(KindImages) {
		parts = append(parts, "images")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// ParseKinds liest eine kommagetrennte Liste von Datenarten ("metadata,
// sections,tables,images" oder "all") in eine Bitmaske ein.
func ParseKinds(raw string) (KindSet, error) {
	var kinds KindSet
	for _, part := range strings.Split(raw, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "":
			continue
		case "all":
			kinds |= KindAll
		case "metadata":
			kinds |= KindMetadata
		case "sections":
			kinds |= KindSections
		case "tables":
			kinds |= KindTables
		case "images":
			kinds |= KindImages
		default:
			return 0, fmt.Errorf("unknown overwrite kind: %q", part)
		}
	}
	return kinds, nil
}

// Policy legt fest, wie der Resolver auf ein gefundenes Duplikat reagiert.
type Policy struct {
	// OnDuplicate: ActionSkip oder ActionOverwrite.
	OnDuplicate Action
	// Kinds: welche Datenarten bei ActionOverwrite ersetzt werden.
	Kinds KindSet
}

// Decision ist das Ergebnis der Duplikatauflösung.
type Decision struct {
	Action   Action
	Existing *models.Paper
	Kinds    KindSet
}

// DuplicateResolver prüft frisch extrahierte Papers gegen den Bestand.
// DOI-Treffer haben Vorrang vor exakten Titel-Treffern.
type DuplicateResolver struct {
	papers *repository.PaperRepository
	logger *zap.Logger
}

// NewDuplicateResolver erstellt einen neuen DuplicateResolver.
func NewDuplicateResolver(papers *repository.PaperRepository, logger *zap.Logger) *DuplicateResolver {
	return &DuplicateResolver{papers: papers, logger: logger}
}

// Resolve sucht ein Duplikat und entscheidet gemäß Policy. Bei einem Treffer
// übernimmt das frische Paper die gespeicherte ID, damit alle Folgeschritte
// auf denselben Datensatz zeigen.
func (r *DuplicateResolver) Resolve(paper *models.Paper, policy Policy) (*Decision, error) {
	existing, err := r.findExisting(paper)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return &Decision{Action: ActionIngest}, nil
	}

	paper.ID = existing.ID

	if policy.OnDuplicate == ActionOverwrite && policy.Kinds != 0 {
		r.logger.Info("Duplicate found, overwriting selected kinds",
			zap.Int64("paper_id", existing.ID),
			zap.String("kinds", policy.Kinds.String()))
		return &Decision{Action: ActionOverwrite, Existing: existing, Kinds: policy.Kinds}, nil
	}

	r.logger.Info("Duplicate found, skipping",
		zap.Int64("paper_id", existing.ID),
		zap.String("title", existing.Title))
	return &Decision{Action: ActionSkip, Existing: existing}, nil
}

// findExisting sucht zuerst über die DOI, dann über den exakten Titel.
func (r *DuplicateResolver) findExisting(paper *models.Paper) (*models.Paper, error) {
	if paper.DOI != nil && *paper.DOI != "" {
		existing, err := r.papers.FindByDOI(*paper.DOI)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	existing, err := r.papers.FindByTitle(paper.Title)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return nil, nil
}
