package extraction

import (
	"encoding/base64"
	"regexp"
	"strings"

	"paper-depot/models"
)

// Mustererkennung für Markdown-Dokumente: Überschriften, Pipe-Tabellen,
// inline kodierte Bilder und das Literaturverzeichnis.

var (
	headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	// ![alt](data:image/png;base64,....)
	imagePattern = regexp.MustCompile(`!\[([^\]]*)\]\(data:image/([^;)]+);base64,([^)]+)\)`)
	// Trennzeile einer Pipe-Tabelle: | --- | :---: | ...
	tableSeparatorPattern = regexp.MustCompile(`^\|?[\s:|-]+\|[\s:|-]*$`)
	// Führende Nummerierung einer Referenzzeile: "12.", "[12]", "12)"
	referenceNumberPattern = regexp.MustCompile(`^(\[\d+\]|\d+[.)])\s+`)
	doiPattern             = regexp.MustCompile(`\b10\.\d{4,9}/[-._;()/:a-zA-Z0-9]+`)
)

// referenceHeadings sind die Überschriften, unter denen ein
// Literaturverzeichnis erwartet wird.
var referenceHeadings = []string{
	"references", "bibliography", "literature", "citations",
	"works cited", "literaturverzeichnis", "literatur", "quellen", "sources",
}

// supportedImageFormats sind die Bildformate, die der Analyse-Service
// akzeptiert.
var supportedImageFormats = map[string]bool{
	"png": true, "jpg": true, "jpeg": true, "webp": true, "heic": true, "heif": true,
}

type rawSection struct {
	Title   string
	Content string
	Level   int
}

type rawTable struct {
	Caption string
	Content string
	Columns int
	Rows    int
}

type rawImage struct {
	AltText string
	Data    string
	Format  string
}

// splitSections zerlegt das Dokument an seinen Überschriften. Text vor der
// ersten Überschrift wird ignoriert (Titelzeile und Präambel gehören zu den
// Metadaten).
func splitSections(content string) []rawSection {
	lines := strings.Split(content, "\n")
	var sections []rawSection
	var current *rawSection
	var body []string

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(strings.Join(body, "\n"))
		if current.Content != "" {
			sections = append(sections, *current)
		}
		current = nil
		body = nil
	}

	for _, line := range lines {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()
			current = &rawSection{Title: m[2], Level: len(m[1])}
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()
	return sections
}

// findTables sammelt zusammenhängende Pipe-Zeilen als Tabellen. Eine gültige
// Tabelle braucht eine Kopfzeile und eine Trennzeile.
func findTables(content string) []rawTable {
	lines := strings.Split(content, "\n")
	var tables []rawTable

	i := 0
	for i < len(lines) {
		if !isTableLine(lines[i]) {
			i++
			continue
		}
		start := i
		for i < len(lines) && isTableLine(lines[i]) {
			i++
		}
		block := lines[start:i]
		if len(block) < 2 || !tableSeparatorPattern.MatchString(strings.TrimSpace(block[1])) {
			continue
		}

		cols := countCells(block[0])
		rows := 0
		for _, l := range block[2:] {
			if strings.TrimSpace(l) != "" {
				rows++
			}
		}
		tables = append(tables, rawTable{
			Caption: captionBefore(lines, start),
			Content: strings.Join(block, "\n"),
			Columns: cols,
			Rows:    rows,
		})
	}
	return tables
}

func isTableLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "|") && strings.Count(trimmed, "|") >= 2
}

// countCells zählt die Zellen einer Pipe-Zeile ohne die leeren Randfelder.
func countCells(line string) int {
	trimmed := strings.Trim(strings.TrimSpace(line), "|")
	return len(strings.Split(trimmed, "|"))
}

// captionBefore sucht die erste nicht-leere Zeile über der Tabelle und nimmt
// sie als Beschriftung, wenn sie wie eine aussieht ("Table 1: ...").
func captionBefore(lines []string, start int) string {
	for j := start - 1; j >= 0 && j >= start-3; j-- {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "table") || strings.HasPrefix(lower, "tabelle") {
			return strings.TrimPrefix(strings.TrimPrefix(trimmed, "**"), "*")
		}
		return ""
	}
	return ""
}

// findImages extrahiert inline kodierte Bilder. Zu kurze Payloads, kaputtes
// Base64 und nicht unterstützte Formate werden übersprungen.
func findImages(content string) []rawImage {
	matches := imagePattern.FindAllStringSubmatch(content, -1)
	var images []rawImage

	for _, m := range matches {
		alt, format, data := strings.TrimSpace(m[1]), strings.ToLower(m[2]), m[3]
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, data)

		if len(cleaned) <= 100 || !supportedImageFormats[format] {
			continue
		}
		if _, err := base64.StdEncoding.DecodeString(cleaned); err != nil {
			continue
		}
		images = append(images, rawImage{AltText: alt, Data: cleaned, Format: format})
	}
	return images
}

// findReferences sucht die Literaturverzeichnis-Überschrift und sammelt die
// Einträge bis zur nächsten Überschrift. Führende Nummerierungen bleiben
// erhalten, der Wortlaut wird nicht verändert. In nummerierten Verzeichnissen
// werden umbrochene Folgezeilen an ihren Eintrag angehängt.
func findReferences(content string) []string {
	lines := strings.Split(content, "\n")
	start := -1

	for i, line := range lines {
		m := headingPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		title := strings.ToLower(strings.TrimSpace(m[2]))
		for _, h := range referenceHeadings {
			if title == h {
				start = i + 1
				break
			}
		}
		if start != -1 {
			break
		}
	}
	if start == -1 {
		return nil
	}

	var refs []string
	numbered := false
	for _, line := range lines[start:] {
		if headingPattern.MatchString(line) {
			break
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if referenceNumberPattern.MatchString(trimmed) {
			refs = append(refs, trimmed)
			numbered = true
			continue
		}
		// In unnummerierten Verzeichnissen ist jede Zeile ein Eintrag.
		if numbered && len(refs) > 0 {
			refs[len(refs)-1] += " " + trimmed
			continue
		}
		refs = append(refs, trimmed)
	}
	return refs
}

// parseFrontMatter liest Titel, DOI und Abstract aus dem Dokumentkopf.
// Der Titel ist die erste H1-Überschrift, ersatzweise die erste nicht-leere
// Zeile.
func parseFrontMatter(content string) *models.Paper {
	draft := &models.Paper{}
	lines := strings.Split(content, "\n")

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := headingPattern.FindStringSubmatch(trimmed); m != nil && len(m[1]) == 1 {
			draft.Title = m[2]
			break
		}
		if draft.Title == "" && !strings.HasPrefix(trimmed, "#") &&
			!strings.HasPrefix(trimmed, "|") && !strings.HasPrefix(trimmed, "!") {
			draft.Title = trimmed
			break
		}
	}

	if m := doiPattern.FindString(content); m != "" {
		doi := strings.TrimRight(m, ".,;")
		draft.DOI = &doi
	}
	draft.Abstract = abstractSection(content)
	return draft
}

// abstractSection liefert den Inhalt der Abstract-Überschrift, falls vorhanden.
func abstractSection(content string) string {
	for _, sec := range splitSections(content) {
		if strings.EqualFold(strings.TrimSpace(sec.Title), "abstract") {
			return sec.Content
		}
	}
	return ""
}

// summaryHeuristic kürzt einen Text auf seine ersten Sätze.
func summaryHeuristic(content string) string {
	text := strings.Join(strings.Fields(content), " ")
	count := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
			if count == 2 {
				return text[:i+1]
			}
		}
	}
	if len(text) > 280 {
		return text[:280]
	}
	return text
}

// keywordHeuristic leitet Keywords aus einem Titel ab: Wörter ab fünf
// Zeichen, dedupliziert, maximal zehn.
func keywordHeuristic(title string) []string {
	seen := make(map[string]bool)
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(title)) {
		word = strings.Trim(word, ".,:;()[]\"'")
		if len(word) < 5 || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
		if len(keywords) == 10 {
			break
		}
	}
	return keywords
}
