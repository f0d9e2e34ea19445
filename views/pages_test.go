package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func TestIndexGroupsCards(t *testing.T) {
	cfg := SiteConfig{Name: "Gallery", URL: "http://localhost:3000"}
	out := render(t, Index(cfg, []Card{
		{ID: "card-a", Folder: "a", Group: "trip"},
		{ID: "card-b", Folder: "b", Group: "trip"},
		{ID: "card-c", Folder: "c"},
	}))

	start := strings.Index(out, `<div class="card-group" id="trip">`)
	if start < 0 {
		t.Fatalf("missing group container:\n%s", out)
	}
	if strings.Count(out, `class="card-group"`) != 1 {
		t.Errorf("adjacent cards of one group should share a container")
	}
	a, b, c := strings.Index(out, `id="card-a"`), strings.Index(out, `id="card-b"`), strings.Index(out, `id="card-c"`)
	if !(start < a && a < b && b < c) {
		t.Errorf("card order: group=%d a=%d b=%d c=%d", start, a, b, c)
	}
	if strings.Count(out, `data-surface="lightbox"`) != 1 {
		t.Errorf("index should render exactly one lightbox")
	}
}

func TestCardEscapesAttributes(t *testing.T) {
	out := render(t, cardView(Card{ID: `x" onload="alert(1)`, Folder: "demo", Title: "Demo"}))
	if strings.Contains(out, `onload="alert(1)"`) {
		t.Fatalf("card id not escaped:\n%s", out)
	}
	if !strings.Contains(out, `href="/gallery/demo/"`) {
		t.Errorf("missing gallery link:\n%s", out)
	}
}

func TestGalleryListsAssets(t *testing.T) {
	cfg := SiteConfig{Name: "Gallery", URL: "https://example.com"}
	out := render(t, Gallery(cfg, Card{Folder: "demo"}, []Asset{
		{Index: 1, Src: "/imgs/demo/1-sm.jpg", Full: "/imgs/demo/1.jpg"},
		{Index: 2, Src: "/imgs/demo/2.jpg", Full: "/imgs/demo/2.jpg"},
	}))
	for _, want := range []string{"/imgs/demo/1-sm.jpg", "/imgs/demo/1.jpg", "https://example.com/imgs/demo/2.jpg", `"@type":"ImageGallery"`} {
		if !strings.Contains(out, want) {
			t.Errorf("gallery missing %s", want)
		}
	}
}

func TestBuildURL(t *testing.T) {
	tests := []struct {
		base string
		segs []string
		want string
	}{
		{"http://localhost:3000", nil, "http://localhost:3000"},
		{"http://localhost:3000", []string{"gallery", "demo"}, "http://localhost:3000/gallery/demo/"},
		{"https://example.com/sub/", []string{"gallery", "a"}, "https://example.com/sub/gallery/a/"},
	}
	for _, tt := range tests {
		if got := buildURL(tt.base, tt.segs...); got != tt.want {
			t.Errorf("buildURL(%q, %v) = %q, want %q", tt.base, tt.segs, got, tt.want)
		}
	}
}
