package integrations

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	_ "image/gif"
	_ "image/png"
)

// ProcessorSettings controls page image optimization before packaging.
type ProcessorSettings struct {
	// MaxWidth scales pages down when they are wider, keeping aspect ratio.
	// Zero disables scaling.
	MaxWidth int

	// Grayscale converts pages for e-ink readers.
	Grayscale bool

	// Quality is the JPEG encode quality (1-100).
	Quality int
}

func DefaultProcessorSettings() ProcessorSettings {
	return ProcessorSettings{MaxWidth: 1600, Grayscale: false, Quality: 85}
}

// ImageProcessor re-encodes page images, downscaling oversized pages. All
// output is JPEG; webp pages (the common bato format) decode via x/image.
type ImageProcessor struct {
	settings ProcessorSettings
}

func NewImageProcessor(settings ProcessorSettings) *ImageProcessor {
	if settings.Quality <= 0 || settings.Quality > 100 {
		settings.Quality = 85
	}
	return &ImageProcessor{settings: settings}
}

// Process decodes one page and returns the re-encoded bytes plus the
// filename the page should be stored under.
func (p *ImageProcessor) Process(input io.Reader, name string) ([]byte, string, error) {
	img, _, err := image.Decode(input)
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	if p.settings.MaxWidth > 0 && bounds.Dx() > p.settings.MaxWidth {
		img = p.resize(img, p.settings.MaxWidth)
	}
	if p.settings.Grayscale {
		img = p.toGrayscale(img)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: p.settings.Quality}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}

	return buf.Bytes(), jpegName(name), nil
}

func (p *ImageProcessor) resize(img image.Image, width int) image.Image {
	bounds := img.Bounds()
	height := bounds.Dy() * width / bounds.Dx()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

func (p *ImageProcessor) toGrayscale(img image.Image) image.Image {
	bounds := img.Bounds()
	dst := image.NewGray(bounds)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Src)
	return dst
}

func jpegName(name string) string {
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[:idx]
	}
	return name + ".jpg"
}
