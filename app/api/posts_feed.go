package api

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/rmkenv/bluesky-auto/app/dedup"
	"github.com/rmkenv/bluesky-auto/app/post"
)

// PostsFeed renders published records as an RSS 2.0 channel.
type PostsFeed struct {
	Title string
	Link  string
	now   func() time.Time
}

func NewPostsFeed(title, link string) *PostsFeed {
	return &PostsFeed{Title: title, Link: link, now: time.Now}
}

func (g *PostsFeed) Generate(records []dedup.Record) []byte {
	var buf bytes.Buffer

	buf.WriteString(xml.Header)
	buf.WriteString(`<rss version="2.0">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", g.Title, 4)
	g.writeElement(&buf, "link", g.Link, 4)
	g.writeElement(&buf, "description", "Recently published posts", 4)
	g.writeElement(&buf, "lastBuildDate", g.now().UTC().Format(time.RFC1123Z), 4)

	for _, record := range records {
		g.writeItem(&buf, record)
	}

	buf.WriteString("  </channel>\n</rss>\n")
	return buf.Bytes()
}

func (g *PostsFeed) writeItem(buf *bytes.Buffer, record dedup.Record) {
	buf.WriteString("    <item>\n")

	// Post URIs are at:// references, not web links.
	if record.PostID != "" {
		buf.WriteString(`      <guid isPermaLink="false">`)
		xml.EscapeText(buf, []byte(record.PostID))
		buf.WriteString("</guid>\n")
	}

	g.writeElement(buf, "title", record.Title, 6)
	g.writeElement(buf, "link", record.Link, 6)
	if !record.DatePosted.IsZero() {
		g.writeElement(buf, "pubDate", record.DatePosted.Format(time.RFC1123Z), 6)
	}
	for _, tag := range record.Hashtags {
		g.writeElement(buf, "category", strings.TrimPrefix(tag, post.TagMarker), 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *PostsFeed) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	buf.WriteString(strings.Repeat(" ", indent))
	fmt.Fprintf(buf, "<%s>", tag)
	xml.EscapeText(buf, []byte(content))
	fmt.Fprintf(buf, "</%s>\n", tag)
}
