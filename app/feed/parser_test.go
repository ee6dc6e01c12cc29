package feed

import (
	"testing"
)

func TestParser_Run_RSS2(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Climate Desk</title>
    <link>https://example.com</link>
    <description>Climate coverage</description>
    <language>en-gb</language>
    <item>
      <title>Arctic ice hits record low</title>
      <link>https://example.com/arctic</link>
      <description>Scientists warn of accelerating melt</description>
      <guid>arctic-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
      <author>desk@example.com (Climate Desk)</author>
      <category>Climate</category>
    </item>
    <item>
      <title>Second story</title>
      <link>https://example.com/second</link>
    </item>
  </channel>
</rss>`

	metadata, items, err := NewParser().Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if metadata.Title != "Climate Desk" {
		t.Errorf("Expected title 'Climate Desk', got: %s", metadata.Title)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "Arctic ice hits record low" {
		t.Errorf("Unexpected title: %s", first.Title)
	}
	if first.Body != "Scientists warn of accelerating melt" {
		t.Errorf("Expected body from description, got: %s", first.Body)
	}
	if first.GUID != "arctic-1" {
		t.Errorf("Expected GUID 'arctic-1', got: %s", first.GUID)
	}
	if first.PublishedAt == nil || first.PublishedAt.Day() != 3 {
		t.Errorf("Expected parsed publish date, got: %v", first.PublishedAt)
	}
	if len(first.Categories) != 1 || first.Categories[0] != "Climate" {
		t.Errorf("Unexpected categories: %v", first.Categories)
	}

	second := items[1]
	if second.Body != "" {
		t.Errorf("Expected empty body, got: %q", second.Body)
	}
	if second.GUID != "https://example.com/second" {
		t.Errorf("Expected GUID to fall back to link, got: %s", second.GUID)
	}
}

func TestParser_Run_AtomSummaryBecomesBody(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <id>urn:feed</id>
  <updated>2023-07-03T12:00:00Z</updated>
  <entry>
    <title>Summary entry</title>
    <link href="https://example.com/summary"/>
    <id>urn:1</id>
    <updated>2023-07-03T10:00:00Z</updated>
    <summary>Short summary</summary>
    <content type="html">Full content</content>
  </entry>
  <entry>
    <title>Content only</title>
    <link href="https://example.com/content"/>
    <id>urn:2</id>
    <updated>2023-07-03T11:00:00Z</updated>
    <content type="html">Only content here</content>
  </entry>
</feed>`

	_, items, err := NewParser().Run([]byte(atomData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	if items[0].Body != "Short summary" {
		t.Errorf("Expected summary as body, got: %q", items[0].Body)
	}
	if items[1].Body != "Only content here" {
		t.Errorf("Expected content as body, got: %q", items[1].Body)
	}
	if items[1].PublishedAt == nil {
		t.Error("Expected updated date to stand in for a missing published date")
	}
}

func TestParser_Run_MissingTitle(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0"><channel><title>T</title>
  <item><link>https://example.com/x</link><title>   </title></item>
</channel></rss>`

	_, items, err := NewParser().Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if items[0].Title != NoTitle {
		t.Errorf("Expected %q, got %q", NoTitle, items[0].Title)
	}
}

func TestParser_Run_EmptyChannel(t *testing.T) {
	rssData := `<?xml version="1.0"?><rss version="2.0"><channel><title>Empty</title></channel></rss>`

	_, items, err := NewParser().Run([]byte(rssData))
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Expected no items, got %d", len(items))
	}
}

func TestParser_Run_Invalid(t *testing.T) {
	if _, _, err := NewParser().Run([]byte("not a feed")); err == nil {
		t.Error("Expected error for invalid feed data")
	}
}

func TestFormatAuthor(t *testing.T) {
	tests := []struct {
		name, email, expected string
	}{
		{"Jane", "jane@example.com", "jane@example.com (Jane)"},
		{"Jane", "", "Jane"},
		{"", "jane@example.com", "jane@example.com"},
		{" ", " ", ""},
	}

	for _, tt := range tests {
		if got := formatAuthor(tt.name, tt.email); got != tt.expected {
			t.Errorf("formatAuthor(%q, %q) = %q, expected %q", tt.name, tt.email, got, tt.expected)
		}
	}
}
