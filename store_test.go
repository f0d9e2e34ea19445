package pubgallery

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/eringen/pubgallery/discovery"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetManifest(t *testing.T) {
	s := setupTestStore(t)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := Manifest{
		Folder: "demo",
		Mode:   ModePairs,
		Limit:  50,
		Entries: []discovery.Pair{
			{Low: "imgs/demo/1-sm.jpg", High: "imgs/demo/1.jpg"},
			{Low: "imgs/demo/2.jpg", High: "imgs/demo/2.jpg"},
		},
		Probes:       9,
		DiscoveredAt: at,
	}
	if err := s.SaveManifest(m); err != nil {
		t.Fatalf("SaveManifest failed: %v", err)
	}

	got, err := s.GetManifest("demo", ModePairs, 50)
	if err != nil {
		t.Fatalf("GetManifest failed: %v", err)
	}
	if len(got.Entries) != 2 || got.Entries[0] != m.Entries[0] {
		t.Errorf("Entries = %+v, want %+v", got.Entries, m.Entries)
	}
	if got.Probes != 9 {
		t.Errorf("Probes = %d, want 9", got.Probes)
	}
	if !got.DiscoveredAt.Equal(at) {
		t.Errorf("DiscoveredAt = %v, want %v", got.DiscoveredAt, at)
	}

	if _, err := s.GetManifest("demo", ModeSingles, 50); !errors.Is(err, ErrNotFound) {
		t.Errorf("other mode: err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetManifest("demo", ModePairs, 3); !errors.Is(err, ErrNotFound) {
		t.Errorf("other limit: err = %v, want ErrNotFound", err)
	}
}

func TestSaveManifestUpserts(t *testing.T) {
	s := setupTestStore(t)
	m := Manifest{Folder: "demo", Mode: ModeSingles, Limit: 50, DiscoveredAt: time.Now()}
	m.Entries = discovery.Singles([]discovery.AssetRef{"imgs/demo/1.jpg"})
	if err := s.SaveManifest(m); err != nil {
		t.Fatal(err)
	}
	m.Entries = discovery.Singles([]discovery.AssetRef{"imgs/demo/1.jpg", "imgs/demo/2.jpg"})
	if err := s.SaveManifest(m); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetManifest("demo", ModeSingles, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Entries) != 2 {
		t.Fatalf("Entries = %d, want 2 after upsert", len(got.Entries))
	}
}

func TestEmptyManifestRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	if err := s.SaveManifest(Manifest{Folder: "empty", Mode: ModeSingles, Limit: 50, Entries: []discovery.Pair{}, DiscoveredAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetManifest("empty", ModeSingles, 50)
	if err != nil {
		t.Fatal(err)
	}
	if got.Entries == nil || len(got.Entries) != 0 {
		t.Fatalf("Entries = %#v, want empty non-nil", got.Entries)
	}
}

func TestListAndDeleteManifests(t *testing.T) {
	s := setupTestStore(t)
	now := time.Now()
	for _, m := range []Manifest{
		{Folder: "a", Mode: ModeSingles, Limit: 50, DiscoveredAt: now.Add(-time.Hour)},
		{Folder: "a", Mode: ModeSingles, Limit: 3, DiscoveredAt: now},
		{Folder: "a", Mode: ModePairs, Limit: 50, DiscoveredAt: now},
		{Folder: "b", Mode: ModeSingles, Limit: 50, DiscoveredAt: now},
	} {
		if err := s.SaveManifest(m); err != nil {
			t.Fatal(err)
		}
	}
	list, err := s.ListManifests()
	if err != nil {
		t.Fatalf("ListManifests failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListManifests = %d entries, want one per folder and mode (3)", len(list))
	}
	if list[0].Folder != "a" || list[0].Mode != ModePairs {
		t.Errorf("first = %s/%s", list[0].Folder, list[0].Mode)
	}
	if list[1].Limit != 3 {
		t.Errorf("a/singles should be the newest row, got limit %d", list[1].Limit)
	}

	if err := s.DeleteManifests("a"); err != nil {
		t.Fatalf("DeleteManifests failed: %v", err)
	}
	list, _ = s.ListManifests()
	if len(list) != 1 || list[0].Folder != "b" {
		t.Fatalf("after delete = %+v", list)
	}
}

func TestUploads(t *testing.T) {
	s := setupTestStore(t)
	uploads := []Upload{
		{Folder: "demo", Filename: "1.jpg", Thumbnail: "1-sm.jpg", OriginalName: "a.png", Width: 800, Height: 600, Size: 1000, UploadedAt: "2026-01-01T10:00:00Z"},
		{Folder: "demo", Filename: "2.jpg", Thumbnail: "2-sm.jpg", OriginalName: "b.png", Width: 800, Height: 600, Size: 1000, UploadedAt: "2026-01-02T10:00:00Z"},
		{Folder: "other", Filename: "1.jpg", OriginalName: "c.png", Width: 10, Height: 10, Size: 10, UploadedAt: "2026-01-03T10:00:00Z"},
	}
	for _, u := range uploads {
		if err := s.SaveUpload(u); err != nil {
			t.Fatalf("SaveUpload failed: %v", err)
		}
	}

	demo, err := s.ListUploads("demo")
	if err != nil {
		t.Fatalf("ListUploads failed: %v", err)
	}
	if len(demo) != 2 || demo[0].Filename != "2.jpg" {
		t.Fatalf("ListUploads(demo) = %+v, want newest first", demo)
	}

	recent, err := s.RecentUploads(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 || recent[0].Folder != "other" {
		t.Fatalf("RecentUploads = %+v", recent)
	}

	got, err := s.GetUpload("demo", "1.jpg")
	if err != nil {
		t.Fatalf("GetUpload failed: %v", err)
	}
	if got.Thumbnail != "1-sm.jpg" || got.OriginalName != "a.png" {
		t.Errorf("GetUpload = %+v", got)
	}

	if err := s.DeleteUpload("demo", "1.jpg"); err != nil {
		t.Fatalf("DeleteUpload failed: %v", err)
	}
	if _, err := s.GetUpload("demo", "1.jpg"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted upload: err = %v, want ErrNotFound", err)
	}
}
