package post

import "errors"

type FacetKind string

const (
	FacetLink FacetKind = "link"
	FacetTag  FacetKind = "tag"
)

// TagMarker prefixes every tag in the composed text.
const TagMarker = "#"

const (
	DefaultMaxBytes = 300
	DefaultEllipsis = "..."
	separator       = "\n\n"
)

var ErrMessageTooLong = errors.New("link text does not fit into the message budget")

// Facet is a byte range inside a composed message. ByteEnd is exclusive.
type Facet struct {
	ByteStart int
	ByteEnd   int
	Kind      FacetKind
	Payload   string
}

type ComposedMessage struct {
	Text      string
	Tags      []string // tags actually present in Text
	Truncated bool
}

func (m ComposedMessage) ByteLength() int {
	return len(m.Text)
}
