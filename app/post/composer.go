package post

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

type Composer struct {
	MaxBytes int
	Ellipsis string
}

func NewComposer(maxBytes int) *Composer {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Composer{
		MaxBytes: maxBytes,
		Ellipsis: DefaultEllipsis,
	}
}

// Compose assembles title, link text and tags into a message whose UTF-8
// encoding never exceeds MaxBytes. Only the title is shortened; when even an
// empty title cannot fit, trailing tags are dropped.
func (c *Composer) Compose(title, linkText string, tags []string) (ComposedMessage, error) {
	title = strings.TrimSpace(norm.NFC.String(title))
	tags = append([]string(nil), tags...)

	text := assemble(title, linkText, tagLine(tags))
	if len(text) <= c.MaxBytes {
		return ComposedMessage{Text: text, Tags: tags}, nil
	}

	for len(tags) > 0 && c.overhead(linkText, tags)+len(c.Ellipsis) > c.MaxBytes {
		tags = tags[:len(tags)-1]
	}

	overhead := c.overhead(linkText, tags)
	if overhead+len(title) <= c.MaxBytes {
		return ComposedMessage{Text: assemble(title, linkText, tagLine(tags)), Tags: tags}, nil
	}
	available := c.MaxBytes - overhead - len(c.Ellipsis)
	if available < 0 {
		if overhead > c.MaxBytes {
			return ComposedMessage{}, ErrMessageTooLong
		}
		return ComposedMessage{Text: assemble("", linkText, tagLine(tags)), Tags: tags, Truncated: true}, nil
	}

	shortened := strings.TrimRightFunc(truncateBytes(title, available), isSpace) + c.Ellipsis
	return ComposedMessage{
		Text:      assemble(shortened, linkText, tagLine(tags)),
		Tags:      tags,
		Truncated: true,
	}, nil
}

func (c *Composer) overhead(linkText string, tags []string) int {
	return len(assemble("", linkText, tagLine(tags)))
}

func assemble(title, linkText, tags string) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString(separator)
	sb.WriteString(linkText)
	if tags != "" {
		sb.WriteString(separator)
		sb.WriteString(tags)
	}
	return sb.String()
}

func tagLine(tags []string) string {
	marked := make([]string, 0, len(tags))
	for _, tag := range tags {
		marked = append(marked, TagMarker+tag)
	}
	return strings.Join(marked, " ")
}

// truncateBytes cuts s to at most limit bytes without splitting a code point.
func truncateBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.ToValidUTF8(s[:cut], "")
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
