package data

import (
	"strings"
	"testing"
)

func identity(s string) string { return s }

func TestNumberChapters(t *testing.T) {
	chapters := []Chapter{
		{URL: "https://example.com/ch/1", Title: "A"},
		{URL: "https://example.com/ch/2", Title: "B"},
		{URL: "https://example.com/ch/3", Title: "C"},
	}

	numbered := NumberChapters(chapters, identity)

	if len(numbered) != 3 {
		t.Fatalf("Expected 3 numbered chapters, got %d", len(numbered))
	}
	if numbered[0].Prefix != "01" {
		t.Errorf("Expected prefix '01', got %q", numbered[0].Prefix)
	}
	if numbered[2].Prefix != "03" {
		t.Errorf("Expected prefix '03', got %q", numbered[2].Prefix)
	}
	if numbered[1].DisplayTitle != "02_B" {
		t.Errorf("Expected display title '02_B', got %q", numbered[1].DisplayTitle)
	}
	if numbered[0].URL != "https://example.com/ch/1" {
		t.Errorf("Chapter URL should be preserved, got %q", numbered[0].URL)
	}
}

func TestNumberChaptersWidth(t *testing.T) {
	tests := []struct {
		count int
		width int
	}{
		{1, 2},
		{9, 2},
		{10, 2},
		{100, 3},
		{1000, 4},
	}

	for _, tt := range tests {
		chapters := make([]Chapter, tt.count)
		for i := range chapters {
			chapters[i].Title = "ch"
		}
		numbered := NumberChapters(chapters, identity)
		if len(numbered[0].Prefix) != tt.width {
			t.Errorf("count %d: expected prefix width %d, got %d", tt.count, tt.width, len(numbered[0].Prefix))
		}
		if len(numbered[tt.count-1].Prefix) != tt.width {
			t.Errorf("count %d: last prefix width %d, want %d", tt.count, len(numbered[tt.count-1].Prefix), tt.width)
		}
	}
}

func TestNumberChaptersUniqueMonotonic(t *testing.T) {
	chapters := make([]Chapter, 25)
	for i := range chapters {
		chapters[i].Title = "same title"
	}

	numbered := NumberChapters(chapters, identity)

	seen := map[string]bool{}
	prev := ""
	for _, nc := range numbered {
		if seen[nc.Prefix] {
			t.Errorf("Duplicate prefix %q", nc.Prefix)
		}
		seen[nc.Prefix] = true
		if prev != "" && !(prev < nc.Prefix) {
			t.Errorf("Prefixes not monotonic: %q then %q", prev, nc.Prefix)
		}
		prev = nc.Prefix
	}
}

func TestNumberChaptersSanitizes(t *testing.T) {
	chapters := []Chapter{{URL: "u", Title: "Ch: 1/2"}}

	numbered := NumberChapters(chapters, func(s string) string {
		return strings.NewReplacer(":", "_", "/", "_").Replace(s)
	})

	if strings.ContainsAny(numbered[0].DisplayTitle, ":/") {
		t.Errorf("Display title should be sanitized, got %q", numbered[0].DisplayTitle)
	}
}

func TestFailureRecordModel(t *testing.T) {
	rec := FailureRecord{
		SeriesTitle:  "Test Series",
		ChapterTitle: "01_First",
		ChapterURL:   "https://example.com/ch/1",
	}

	if rec.SeriesTitle != "Test Series" {
		t.Errorf("Expected SeriesTitle 'Test Series', got '%s'", rec.SeriesTitle)
	}
	if rec.ChapterURL != "https://example.com/ch/1" {
		t.Errorf("Expected ChapterURL preserved, got '%s'", rec.ChapterURL)
	}
}
