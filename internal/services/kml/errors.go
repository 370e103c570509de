package kml

import (
	"errors"
	"fmt"
)

// ErrUnsupportedExtension is returned when the declared filename does not end
// in .kml. The check is filename-only; content is never sniffed.
var ErrUnsupportedExtension = errors.New("apenas arquivos KML são aceitos")

// XMLParseError reports a document that could not be parsed even after the
// single ampersand-repair retry. Client-classified.
type XMLParseError struct {
	Err error
}

func (e *XMLParseError) Error() string {
	return fmt.Sprintf("arquivo KML inválido ou corrompido: %v", e.Err)
}

func (e *XMLParseError) Unwrap() error {
	return e.Err
}

// NoValidLocationsError reports a file that parsed but produced zero valid
// location records. Carries a prefix of the decoded source text to aid
// debugging malformed uploads.
type NoValidLocationsError struct {
	Excerpt string
}

func (e *NoValidLocationsError) Error() string {
	return fmt.Sprintf("nenhuma localização válida encontrada no arquivo KML. "+
		"Verifique se o arquivo contém elementos Placemark com coordenadas válidas. Debug: %s", e.Excerpt)
}
