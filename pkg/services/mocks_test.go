package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/PratikshaDPai/bato-downloader/pkg/data"
)

// Mock implementations for testing

type mockSource struct {
	fetchMetadataFunc func(ctx context.Context, seriesURL string) (string, []data.Chapter, error)
	getPagesFunc      func(ctx context.Context, chapterURL string) ([]string, error)
}

func (m *mockSource) FetchMetadata(ctx context.Context, seriesURL string) (string, []data.Chapter, error) {
	if m.fetchMetadataFunc != nil {
		return m.fetchMetadataFunc(ctx, seriesURL)
	}
	return "", nil, nil
}

func (m *mockSource) GetPages(ctx context.Context, chapterURL string) ([]string, error) {
	if m.getPagesFunc != nil {
		return m.getPagesFunc(ctx, chapterURL)
	}
	return nil, nil
}

// mockPackager records every invocation so tests can assert exactly-once
// packaging.
type mockPackager struct {
	mu          sync.Mutex
	invocations []data.PackagingTask
	packageFunc func(task data.PackagingTask) (string, error)
}

func (m *mockPackager) Package(ctx context.Context, chapterDir, seriesTitle, chapterTitle string, deleteImages bool) (string, error) {
	task := data.PackagingTask{ChapterDir: chapterDir, SeriesTitle: seriesTitle, ChapterTitle: chapterTitle}
	m.mu.Lock()
	m.invocations = append(m.invocations, task)
	m.mu.Unlock()

	if m.packageFunc != nil {
		return m.packageFunc(task)
	}
	return chapterDir + ".cbz", nil
}

func (m *mockPackager) calls() []data.PackagingTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]data.PackagingTask, len(m.invocations))
	copy(out, m.invocations)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pngBytes encodes a tiny PNG page.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	return buf.Bytes()
}

// newImageServer serves the same PNG for every request.
func newImageServer(t *testing.T) *httptest.Server {
	t.Helper()
	png := pngBytes(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write(png)
	}))
	t.Cleanup(server.Close)
	return server
}
