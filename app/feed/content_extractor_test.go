package feed

import (
	"strings"
	"testing"
)

func TestContentExtractor_Run(t *testing.T) {
	html := `<html><head><title>Arctic report</title><script>track()</script></head>
<body>
  <nav>Home | World | Climate</nav>
  <article>
    <h1>Arctic ice hits record low</h1>
    <p>Scientists warn of accelerating Arctic ice melt linked to carbon emissions. The
    extent measured this September was the lowest in the satellite record.</p>
    <p>Researchers said the loss of multi-year ice makes the region more sensitive to
    warm summers, and that recovery in a single season is unlikely.</p>
  </article>
  <footer>Copyright</footer>
</body></html>`

	text, err := NewContentExtractor().Run([]byte(html), "https://example.com/arctic")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(text, "accelerating Arctic ice melt") {
		t.Errorf("Expected article text, got: %q", text)
	}
	if strings.Contains(text, "<p>") {
		t.Errorf("Expected plain text, got: %q", text)
	}
	if strings.Contains(text, "track()") {
		t.Errorf("Expected scripts to be dropped, got: %q", text)
	}
}

func TestContentExtractor_Run_Empty(t *testing.T) {
	if _, err := NewContentExtractor().Run(nil, ""); err == nil {
		t.Error("Expected error for empty data")
	}
}

func TestContentExtractor_Run_InvalidURL(t *testing.T) {
	if _, err := NewContentExtractor().Run([]byte("<p>x</p>"), "://bad"); err == nil {
		t.Error("Expected error for invalid page URL")
	}
}
