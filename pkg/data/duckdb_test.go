package data

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	repo, err := NewRepository(dbPath)
	require.NoError(t, err, "init DB")
	t.Cleanup(func() { repo.Close() })

	return repo
}

func TestSaveAndGetSeries(t *testing.T) {
	repo := setupTestDB(t)

	series := &Series{
		Title:     "Test Series",
		SourceURL: "https://bato.to/series/1234",
		Status:    "downloading",
	}

	require.NoError(t, repo.SaveSeries(series))
	assert.NotEmpty(t, series.ID, "ID assigned on first save")

	got, err := repo.GetSeriesByURL("https://bato.to/series/1234")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, series.ID, got.ID)
	assert.Equal(t, "Test Series", got.Title)
}

func TestSaveSeriesKeepsID(t *testing.T) {
	repo := setupTestDB(t)

	series := &Series{Title: "First", SourceURL: "https://bato.to/series/1", Status: "downloading"}
	require.NoError(t, repo.SaveSeries(series))
	firstID := series.ID

	again := &Series{Title: "First (renamed)", SourceURL: "https://bato.to/series/1", Status: "completed"}
	require.NoError(t, repo.SaveSeries(again))

	assert.Equal(t, firstID, again.ID, "second save reuses the existing ID")

	got, err := repo.GetSeriesByURL("https://bato.to/series/1")
	require.NoError(t, err)
	assert.Equal(t, "First (renamed)", got.Title)
	assert.Equal(t, "completed", got.Status)
}

func TestGetSeriesByURLMissing(t *testing.T) {
	repo := setupTestDB(t)

	got, err := repo.GetSeriesByURL("https://bato.to/series/none")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListSeries(t *testing.T) {
	repo := setupTestDB(t)

	require.NoError(t, repo.SaveSeries(&Series{Title: "B Series", SourceURL: "u2", Status: "completed"}))
	require.NoError(t, repo.SaveSeries(&Series{Title: "A Series", SourceURL: "u1", Status: "partial"}))

	all, err := repo.ListSeries()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "A Series", all[0].Title, "ordered by title")
}

func TestChapterLifecycle(t *testing.T) {
	repo := setupTestDB(t)

	series := &Series{Title: "S", SourceURL: "u", Status: "downloading"}
	require.NoError(t, repo.SaveSeries(series))

	ch := &ChapterStatus{
		SeriesID: series.ID,
		Title:    "01_First",
		URL:      "https://bato.to/chapter/1",
	}
	require.NoError(t, repo.SaveChapter(ch))

	require.NoError(t, repo.MarkDownloaded(series.ID, "01_First"))
	require.NoError(t, repo.MarkPackaged(series.ID, "01_First", "/out/S/01_First.cbz"))

	chapters, err := repo.GetChapters(series.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.True(t, chapters[0].Downloaded)
	assert.True(t, chapters[0].Packaged)
	assert.Equal(t, "/out/S/01_First.cbz", chapters[0].ArchivePath)
}

func TestMarkPackagedByTitle(t *testing.T) {
	repo := setupTestDB(t)

	series := &Series{Title: "My Series", SourceURL: "u", Status: "downloading"}
	require.NoError(t, repo.SaveSeries(series))
	require.NoError(t, repo.SaveChapter(&ChapterStatus{SeriesID: series.ID, Title: "01_A", URL: "x"}))

	require.NoError(t, repo.MarkPackagedByTitle("My Series", "01_A", "/out/01_A.cbz"))

	chapters, err := repo.GetChapters(series.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.True(t, chapters[0].Packaged)
	assert.Equal(t, "/out/01_A.cbz", chapters[0].ArchivePath)
}

func TestSaveChapterKeepsState(t *testing.T) {
	repo := setupTestDB(t)

	series := &Series{Title: "S", SourceURL: "u", Status: "downloading"}
	require.NoError(t, repo.SaveSeries(series))

	require.NoError(t, repo.SaveChapter(&ChapterStatus{SeriesID: series.ID, Title: "01_A", URL: "old"}))
	require.NoError(t, repo.MarkDownloaded(series.ID, "01_A"))

	// A later run re-registers the same chapter with a fresh URL.
	require.NoError(t, repo.SaveChapter(&ChapterStatus{SeriesID: series.ID, Title: "01_A", URL: "new"}))

	chapters, err := repo.GetChapters(series.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.True(t, chapters[0].Downloaded, "re-save must not reset downloaded flag")
	assert.Equal(t, "new", chapters[0].URL)
}
