package repository

import "errors"

// Sentinel-Fehler der Persistenzschicht. Aufrufer prüfen mit errors.Is.
var (
	// ErrNotFound: kein Datensatz zum gesuchten Schlüssel.
	ErrNotFound = errors.New("record not found")

	// ErrConflict: ein Insert ist auf einen bestehenden Primärschlüssel
	// getroffen, obwohl die Duplikatprüfung nichts gefunden hat. Das ist
	// eine ID-Kollision unterschiedlicher Inhalte und wird nie stillschweigend
	// überschrieben.
	ErrConflict = errors.New("primary key conflict")
)
