package data

import (
	"fmt"
	"strconv"
)

// Series is one remote series as known to the library. SourceURL is the
// opaque identifier handed to the metadata fetcher.
type Series struct {
	ID        string
	Title     string
	SourceURL string
	Status    string // "downloading", "partial", "completed", "error"
}

// Chapter is a single chapter descriptor as returned by a source. The order
// of chapters in a fetched list is the published order upstream.
type Chapter struct {
	URL   string
	Title string
}

// NumberedChapter is a Chapter with its zero-padded position prefix assigned
// for one orchestration pass. It is never mutated after numbering.
type NumberedChapter struct {
	Chapter
	Prefix       string
	DisplayTitle string
}

// PackagingTask is the unit handed to the packaging worker once a chapter's
// images are fully on disk.
type PackagingTask struct {
	ChapterDir   string
	SeriesTitle  string
	ChapterTitle string
}

// FailureRecord carries enough state to retry a chapter download without
// re-fetching series metadata.
type FailureRecord struct {
	SeriesTitle  string `json:"series_title"`
	ChapterTitle string `json:"chapter_title"`
	ChapterURL   string `json:"chapter_url"`
}

// MinPrefixWidth is the smallest zero-pad width used for chapter prefixes so
// short series still sort correctly next to longer ones.
const MinPrefixWidth = 2

// NumberChapters assigns position prefixes in published order, starting at 1.
// Pad width is the number of digits in the chapter count, with a floor of
// MinPrefixWidth. The sanitize function is applied to titles before the
// prefix is attached.
func NumberChapters(chapters []Chapter, sanitize func(string) string) []NumberedChapter {
	width := len(strconv.Itoa(len(chapters)))
	if width < MinPrefixWidth {
		width = MinPrefixWidth
	}

	numbered := make([]NumberedChapter, len(chapters))
	for i, ch := range chapters {
		prefix := fmt.Sprintf("%0*d", width, i+1)
		numbered[i] = NumberedChapter{
			Chapter:      ch,
			Prefix:       prefix,
			DisplayTitle: fmt.Sprintf("%s_%s", prefix, sanitize(ch.Title)),
		}
	}
	return numbered
}
