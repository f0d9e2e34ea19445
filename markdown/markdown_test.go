package markdown

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func render(t *testing.T, in string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Render(&buf, in); err != nil {
		t.Fatalf("Render(%q): %v", in, err)
	}
	return buf.String()
}

func TestRenderInline(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"**bold**", "<strong>bold</strong>"},
		{"*italic*", "<em>italic</em>"},
		{"`code`", "<code>code</code>"},
		{"~~gone~~", "<del>gone</del>"},
	}
	for _, tt := range tests {
		got := render(t, tt.input)
		if !strings.Contains(got, tt.expected) {
			t.Errorf("Render(%q) = %q, want it to contain %q", tt.input, got, tt.expected)
		}
	}
}

func TestRenderExternalLinkNewTab(t *testing.T) {
	got := render(t, "[site](https://example.com/a_b_c)")
	if !strings.Contains(got, `href="https://example.com/a_b_c"`) {
		t.Fatalf("href missing: %q", got)
	}
	if !strings.Contains(got, `target="_blank"`) || !strings.Contains(got, `rel="noopener noreferrer"`) {
		t.Fatalf("external link attributes missing: %q", got)
	}
}

func TestRenderInternalLinkSameTab(t *testing.T) {
	got := render(t, "[demo](/gallery/demo/)")
	if strings.Contains(got, "target=") {
		t.Fatalf("internal link should not open a new tab: %q", got)
	}
}

func TestRenderDropsUnsafeContent(t *testing.T) {
	got := render(t, "<script>alert(1)</script>\n\n[x](javascript:alert(1))")
	if strings.Contains(got, "<script>") {
		t.Errorf("raw html rendered: %q", got)
	}
	if strings.Contains(got, "javascript:") {
		t.Errorf("unsafe link rendered: %q", got)
	}
}

func TestInlineStripsParagraph(t *testing.T) {
	if got := Inline("Autumn *walk*"); got != "Autumn <em>walk</em>" {
		t.Fatalf("Inline = %q", got)
	}
	multi := Inline("one\n\ntwo")
	if !strings.Contains(multi, "<p>one</p>") {
		t.Fatalf("multi-paragraph input should keep paragraphs: %q", multi)
	}
}

func TestMarkdownComponent(t *testing.T) {
	var buf bytes.Buffer
	if err := Markdown("# Title").Render(context.Background(), &buf); err != nil {
		t.Fatalf("render component: %v", err)
	}
	if !strings.Contains(buf.String(), "<h1>Title</h1>") {
		t.Fatalf("component output = %q", buf.String())
	}
}
