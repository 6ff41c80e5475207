package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PratikshaDPai/bato-downloader/pkg/data"
)

var (
	batoTitleRe   = regexp.MustCompile(`<h3[^>]*class="[^"]*item-title[^"]*"[^>]*>\s*<a[^>]*>([^<]+)</a>`)
	batoChapterRe = regexp.MustCompile(`<a[^>]*class="[^"]*chapt[^"]*"[^>]*href="([^"]+)"[^>]*>\s*<b>([^<]+)</b>`)
	batoImagesRe  = regexp.MustCompile(`const imgHttps = (\[[^\]]*\]);`)
)

// Bato scrapes series and chapter pages from bato.to.
type Bato struct {
	client  *http.Client
	baseURL string
}

func NewBato() *Bato {
	return &Bato{client: http.DefaultClient, baseURL: "https://bato.to"}
}

func (b *Bato) getHTML(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64)")
	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchMetadata scrapes the series page. Bato lists chapters newest first;
// the returned slice is reversed so callers see published order, oldest
// first.
func (b *Bato) FetchMetadata(ctx context.Context, seriesURL string) (string, []data.Chapter, error) {
	html, err := b.getHTML(ctx, seriesURL)
	if err != nil {
		return "", nil, &FetchError{URL: seriesURL, Err: err}
	}

	titleMatch := batoTitleRe.FindStringSubmatch(html)
	if titleMatch == nil {
		return "", nil, &FetchError{URL: seriesURL, Err: fmt.Errorf("series title not found")}
	}
	title := strings.TrimSpace(titleMatch[1])

	var chapters []data.Chapter
	for _, m := range batoChapterRe.FindAllStringSubmatch(html, -1) {
		chapters = append(chapters, data.Chapter{
			URL:   b.absoluteURL(m[1]),
			Title: strings.TrimSpace(m[2]),
		})
	}

	// newest-first on the page, oldest-first for callers
	for i, j := 0, len(chapters)-1; i < j; i, j = i+1, j-1 {
		chapters[i], chapters[j] = chapters[j], chapters[i]
	}

	return title, chapters, nil
}

// GetPages scrapes the image URL array embedded in a chapter page.
func (b *Bato) GetPages(ctx context.Context, chapterURL string) ([]string, error) {
	html, err := b.getHTML(ctx, chapterURL)
	if err != nil {
		return nil, &FetchError{URL: chapterURL, Err: err}
	}

	m := batoImagesRe.FindStringSubmatch(html)
	if m == nil {
		return nil, &FetchError{URL: chapterURL, Err: fmt.Errorf("no image list found")}
	}

	var pages []string
	if err := json.Unmarshal([]byte(m[1]), &pages); err != nil {
		return nil, &FetchError{URL: chapterURL, Err: fmt.Errorf("parse image list: %w", err)}
	}
	if len(pages) == 0 {
		return nil, &FetchError{URL: chapterURL, Err: fmt.Errorf("empty image list")}
	}
	return pages, nil
}

func (b *Bato) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		return b.baseURL + href
	}
	return b.baseURL + "/" + href
}
