package kml

import (
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"

	"github.com/lucivanservicos/ops-gestao/internal/models"
)

// unnamedLocation is the sentinel name for placemarks without a usable name.
const unnamedLocation = "Unnamed Location"

var (
	// longitude,latitude[,altitude] with signed decimal numbers
	coordTupleRe = regexp.MustCompile(`^(-?\d+\.?\d*),(-?\d+\.?\d*)(?:,(-?\d+\.?\d*))?$`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	// recognized entity body following an ampersand
	entityRe = regexp.MustCompile(`^(amp|lt|gt|quot|apos|#[0-9]+|#x[0-9a-fA-F]+);`)
)

// decodeContent turns raw upload bytes into text. UTF-8 is attempted first;
// anything that is not valid UTF-8 falls back to Latin-1, which decodes any
// byte sequence, so decoding itself never fails. A leading BOM and
// surrounding whitespace are stripped.
func decodeContent(raw []byte) string {
	var text string
	if utf8.Valid(raw) {
		text = string(raw)
	} else {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			// ISO8859-1 maps every byte; keep the raw bytes if it somehow fails
			decoded = raw
		}
		text = string(decoded)
	}

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "\uFEFF")
	return strings.TrimSpace(text)
}

// escapeBareAmpersands escapes & characters that do not start a recognized
// XML entity. This is the single repair heuristic applied when the first
// parse attempt fails.
func escapeBareAmpersands(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != '&' {
			b.WriteByte(c)
			continue
		}
		if entityRe.MatchString(text[i+1:]) {
			b.WriteByte(c)
			continue
		}
		b.WriteString("&amp;")
	}
	return b.String()
}

// parseDocument parses the decoded text as XML, retrying exactly once with
// bare ampersands escaped. The second failure is reported to the caller.
func parseDocument(text string) (*etree.Document, error) {
	doc := etree.NewDocument()
	// Content was already transcoded to UTF-8; ignore any stale encoding
	// declaration left in the prolog.
	doc.ReadSettings.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	if err := doc.ReadFromString(text); err == nil {
		return doc, nil
	}

	repaired := etree.NewDocument()
	repaired.ReadSettings.CharsetReader = doc.ReadSettings.CharsetReader
	if err := repaired.ReadFromString(escapeBareAmpersands(text)); err != nil {
		return nil, err
	}
	return repaired, nil
}

// collectByLocalTag walks the subtree rooted at el in document order and
// returns every element whose local tag name equals name, namespace prefixes
// ignored. etree already splits "kml:Placemark" into Space/Tag, so one scan
// covers namespaced, default-namespaced and bare documents alike.
func collectByLocalTag(el *etree.Element, name string) []*etree.Element {
	var out []*etree.Element
	if el == nil {
		return out
	}
	for _, child := range el.ChildElements() {
		if child.Tag == name {
			out = append(out, child)
		}
		out = append(out, collectByLocalTag(child, name)...)
	}
	return out
}

// forEachElement visits every descendant element of el in document order.
func forEachElement(el *etree.Element, fn func(*etree.Element)) {
	for _, child := range el.ChildElements() {
		fn(child)
		forEachElement(child, fn)
	}
}

// firstNonEmptyText returns the trimmed text of the first descendant of el
// with the given local tag name that carries non-empty text.
func firstNonEmptyText(el *etree.Element, name string) string {
	for _, candidate := range collectByLocalTag(el, name) {
		if text := strings.TrimSpace(candidate.Text()); text != "" {
			return text
		}
	}
	return ""
}

// extendedDataPairs collects key/value metadata from ExtendedData blocks in
// encounter order. SimpleData elements carry the value as text; Data elements
// carry it in a nested value element. Later occurrences of a key overwrite
// the value but keep the original position.
func extendedDataPairs(placemark *etree.Element) []string {
	type kv struct {
		key   string
		value string
	}
	var pairs []kv
	index := make(map[string]int)

	record := func(key, value string) {
		if i, ok := index[key]; ok {
			pairs[i].value = value
			return
		}
		index[key] = len(pairs)
		pairs = append(pairs, kv{key: key, value: value})
	}

	for _, block := range collectByLocalTag(placemark, "ExtendedData") {
		forEachElement(block, func(el *etree.Element) {
			switch el.Tag {
			case "SimpleData":
				record(el.SelectAttrValue("name", "unknown"), el.Text())
			case "Data":
				key := el.SelectAttrValue("name", "unknown")
				if values := collectByLocalTag(el, "value"); len(values) > 0 {
					record(key, values[0].Text())
				}
			}
		})
	}

	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.value != "" {
			lines = append(lines, p.key+": "+p.value)
		}
	}
	return lines
}

// parseCoordinates parses the text of a coordinates element into valid
// lat/lng pairs. Malformed tuples and tuples outside the valid ranges are
// silently dropped; sloppy source files routinely carry trailing junk.
func parseCoordinates(text string) (lats, lngs []float64) {
	normalized := whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	for _, part := range strings.Fields(normalized) {
		m := coordTupleRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		lng, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		lat, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
			continue
		}
		lats = append(lats, lat)
		lngs = append(lngs, lng)
	}
	return lats, lngs
}

// extractPlacemark builds a LocationRecord from one Placemark element.
// Returns ok=false when the placemark has no valid geometry; such placemarks
// are dropped, never persisted with default coordinates.
func extractPlacemark(placemark *etree.Element) (models.LocationRecord, bool) {
	record := models.LocationRecord{
		Name:        unnamedLocation,
		Description: firstNonEmptyText(placemark, "description"),
	}
	if name := firstNonEmptyText(placemark, "name"); name != "" {
		record.Name = name
	}

	if lines := extendedDataPairs(placemark); len(lines) > 0 {
		joined := strings.Join(lines, "\n")
		if record.Description != "" {
			record.Description += "\n\n" + joined
		} else {
			record.Description = joined
		}
	}

	// Only the first coordinates element with non-empty text is honored;
	// additional geometries within one placemark are ignored.
	var coordText string
	for _, coords := range collectByLocalTag(placemark, "coordinates") {
		if text := strings.TrimSpace(coords.Text()); text != "" {
			coordText = text
			break
		}
	}
	if coordText == "" {
		return models.LocationRecord{}, false
	}

	lats, lngs := parseCoordinates(coordText)
	switch len(lats) {
	case 0:
		return models.LocationRecord{}, false
	case 1:
		record.Latitude = lats[0]
		record.Longitude = lngs[0]
	default:
		var latSum, lngSum float64
		for i := range lats {
			latSum += lats[i]
			lngSum += lngs[i]
		}
		record.Latitude = latSum / float64(len(lats))
		record.Longitude = lngSum / float64(len(lngs))
		record.CoordinateCount = len(lats)
	}

	return record, true
}

// ParseLocations decodes and parses raw KML bytes into location records.
// skipped counts placemarks that yielded no record. A batch with zero records
// is a hard failure carrying a prefix of the decoded source for diagnosis.
func ParseLocations(raw []byte) (locations []models.LocationRecord, skipped int, err error) {
	text := decodeContent(raw)

	doc, err := parseDocument(text)
	if err != nil {
		return nil, 0, &XMLParseError{Err: err}
	}

	root := doc.Root()
	var placemarks []*etree.Element
	if root != nil {
		if root.Tag == "Placemark" {
			placemarks = append(placemarks, root)
		}
		placemarks = append(placemarks, collectByLocalTag(root, "Placemark")...)
	}

	for _, placemark := range placemarks {
		record, ok := extractPlacemark(placemark)
		if !ok {
			skipped++
			continue
		}
		locations = append(locations, record)
	}

	if len(locations) == 0 {
		excerpt := text
		if len(excerpt) > 1000 {
			excerpt = excerpt[:1000]
		}
		return nil, skipped, &NoValidLocationsError{Excerpt: excerpt}
	}

	return locations, skipped, nil
}
