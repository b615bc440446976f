package models

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// ElementType kennzeichnet die Art eines Unterelements für hierarchische IDs.
type ElementType string

const (
	ElementSection   ElementType = "section"
	ElementTable     ElementType = "table"
	ElementImage     ElementType = "image"
	ElementReference ElementType = "reference"
	ElementCitation  ElementType = "citation"
	ElementAuthor    ElementType = "author"
	ElementStatistic ElementType = "statistic"
	ElementFinding   ElementType = "finding"
)

// typeCodes ist die geschlossene Zuordnung von Elementtyp zu 16-Bit-Code.
var typeCodes = map[ElementType]uint64{
	ElementSection:   0x0001,
	ElementTable:     0x0002,
	ElementImage:     0x0003,
	ElementReference: 0x0004,
	ElementCitation:  0x0005,
	ElementAuthor:    0x0006,
	ElementStatistic: 0x0007,
	ElementFinding:   0x0008,
}

// unknownTypeCode ist der reservierte Code für unbekannte Elementtypen.
const unknownTypeCode = 0xFFFF

// maxSequence ist der größte Sequenzwert, der in 16 Bit passt.
const maxSequence = 0xFFFF

// ErrSequenceOverflow wird zurückgegeben, wenn eine Sequenznummer nicht in
// das 16-Bit-Feld einer hierarchischen ID passt. Ein stilles Umbrechen würde
// ID-Kollisionen zwischen Elementen desselben Typs erzeugen.
var ErrSequenceOverflow = fmt.Errorf("sequence exceeds 16-bit range (max %d)", maxSequence)

// ContentID erzeugt eine deterministische 64-Bit-ID aus einem Content-Hash.
// Die ersten 8 Bytes des SHA-256-Digests werden Big-Endian interpretiert und
// das Vorzeichenbit gelöscht, damit der Wert in eine BIGINT-Spalte passt.
// Gleiches (content, salt) liefert immer dieselbe ID.
func ContentID(content, salt string) int64 {
	sum := sha256.Sum256([]byte(content + salt))
	return int64(binary.BigEndian.Uint64(sum[:8]) & 0x7FFFFFFFFFFFFFFF)
}

// HierarchicalID packt Paper-ID (hohe 32 Bit), Elementtyp-Code (16 Bit) und
// Sequenznummer (16 Bit) in eine 64-Bit-ID. IDs verschiedener Typen oder
// Sequenzen unter demselben Paper kollidieren nie. Sequenzen über 65535
// werden abgelehnt statt umgebrochen.
func HierarchicalID(paperID int64, elementType ElementType, sequence int) (int64, error) {
	if sequence < 0 || sequence > maxSequence {
		return 0, ErrSequenceOverflow
	}
	code, ok := typeCodes[elementType]
	if !ok {
		code = unknownTypeCode
	}
	paperBits := uint64(paperID) & 0xFFFFFFFF
	id := (paperBits << 32) | (code << 16) | uint64(sequence)
	return int64(id & 0x7FFFFFFFFFFFFFFF), nil
}

// PaperID leitet die ID eines Papers aus Quellpfad und Inhaltspräfix ab.
// Identischer Inhalt am selben Ort ergibt bei jedem Lauf dieselbe ID.
func PaperID(content, sourceFile string) int64 {
	prefix := content
	if len(prefix) > 1000 {
		prefix = prefix[:1000]
	}
	return ContentID(sourceFile+":"+prefix, "")
}

// SectionID leitet die ID eines Textabschnitts aus Position, Titel und
// Inhaltspräfix ab.
func SectionID(title, content string, sectionNumber int) int64 {
	return ContentID(elementSeed("section", sectionNumber, title, content), fmt.Sprintf("section_%d", sectionNumber))
}

// TableID leitet die ID einer Tabelle aus Position, Titel und Inhaltspräfix ab.
func TableID(title, content string, tableNumber int) int64 {
	return ContentID(elementSeed("table", tableNumber, title, content), fmt.Sprintf("table_%d", tableNumber))
}

// ImageID leitet die ID eines Bildes aus Position, Alt-Text und Datenpräfix ab.
func ImageID(altText, imageData string, imageNumber int) int64 {
	return ContentID(elementSeed("image", imageNumber, altText, imageData), fmt.Sprintf("image_%d", imageNumber))
}

// ReferencesID leitet die ID einer Referenzliste aus Paper-ID und Anzahl ab.
func ReferencesID(paperID int64, referenceCount int) int64 {
	return ContentID(fmt.Sprintf("references_%d:%d", paperID, referenceCount), fmt.Sprintf("references_%d", paperID))
}

// elementSeed baut den Hash-Input eines Unterelements. Vom Inhalt gehen nur
// die ersten 500 Zeichen ein, damit große Payloads die ID-Bildung nicht
// dominieren.
func elementSeed(kind string, number int, title, content string) string {
	if len(content) > 500 {
		content = content[:500]
	}
	return fmt.Sprintf("%s_%d:%s:%s", kind, number, title, content)
}
