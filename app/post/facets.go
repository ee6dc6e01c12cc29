package post

import (
	"bytes"
	"log/slog"
)

// Annotate finds the link text and every "#tag" occurrence in message.
// Repeated searches resume one byte after the previous match start, so
// overlapping and infix occurrences are all reported.
func Annotate(message, linkText, linkURL string, tags []string) []Facet {
	data := []byte(message)
	var facets []Facet

	if linkText != "" {
		if start := bytes.Index(data, []byte(linkText)); start >= 0 {
			facets = appendValid(facets, data, Facet{
				ByteStart: start,
				ByteEnd:   start + len(linkText),
				Kind:      FacetLink,
				Payload:   linkURL,
			})
		}
	}

	for _, tag := range tags {
		if tag == "" {
			continue
		}
		needle := []byte(TagMarker + tag)
		from := 0
		for from < len(data) {
			idx := bytes.Index(data[from:], needle)
			if idx < 0 {
				break
			}
			start := from + idx
			facets = appendValid(facets, data, Facet{
				ByteStart: start,
				ByteEnd:   start + len(needle),
				Kind:      FacetTag,
				Payload:   tag,
			})
			from = start + 1
		}
	}

	return facets
}

func appendValid(facets []Facet, data []byte, f Facet) []Facet {
	if f.ByteStart < 0 || f.ByteStart >= f.ByteEnd || f.ByteEnd > len(data) {
		slog.Warn("Discarding out-of-range facet", "kind", f.Kind, "start", f.ByteStart, "end", f.ByteEnd, "length", len(data))
		return facets
	}
	return append(facets, f)
}
