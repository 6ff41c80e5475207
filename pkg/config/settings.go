package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PratikshaDPai/bato-downloader/pkg/integrations"
	"github.com/PratikshaDPai/bato-downloader/pkg/services"
)

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	OutputDir            string  `json:"output_dir"`
	MaxConcurrentSeries  int     `json:"max_concurrent_series"`
	MaxConcurrentImages  int     `json:"max_concurrent_images"`
	RetryCooldownSeconds float64 `json:"retry_cooldown_seconds"`

	// Packaging settings
	Format              string  `json:"format"` // cbz, epub
	PollIntervalSeconds float64 `json:"poll_interval_seconds"`

	// Image optimization (CBZ only)
	OptimizeImages  bool `json:"optimize_images"`
	MaxImageWidth   int  `json:"max_image_width"`
	GrayscaleImages bool `json:"grayscale_images"`
	JPEGQuality     int  `json:"jpeg_quality"`

	// Library settings
	DatabasePath string `json:"database_path"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		OutputDir:            filepath.Join(homeDir, "Manga"),
		MaxConcurrentSeries:  2,
		MaxConcurrentImages:  10,
		RetryCooldownSeconds: 10,

		Format:              "cbz",
		PollIntervalSeconds: 2,

		OptimizeImages:  false,
		MaxImageWidth:   1600,
		GrayscaleImages: false,
		JPEGQuality:     85,

		DatabasePath: filepath.Join(homeDir, "Manga", "library.db"),
	}
}

// Load reads settings from a JSON file. A missing file yields defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects values the pipeline cannot run with.
func (s *Settings) Validate() error {
	if s.Format != "cbz" && s.Format != "epub" {
		return fmt.Errorf("unknown format %q (want cbz or epub)", s.Format)
	}
	if s.JPEGQuality < 1 || s.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality %d out of range 1-100", s.JPEGQuality)
	}
	return nil
}

// ToControllerConfig converts settings to the batch controller's config.
func (s *Settings) ToControllerConfig() services.ControllerConfig {
	return services.ControllerConfig{
		OutputDir:          s.OutputDir,
		SeriesConcurrency:  s.MaxConcurrentSeries,
		ChapterConcurrency: s.MaxConcurrentImages,
		RetryCooldown:      time.Duration(s.RetryCooldownSeconds * float64(time.Second)),
		PollInterval:       time.Duration(s.PollIntervalSeconds * float64(time.Second)),
	}
}

// ToProcessorSettings converts settings to image processor settings.
func (s *Settings) ToProcessorSettings() integrations.ProcessorSettings {
	return integrations.ProcessorSettings{
		MaxWidth:  s.MaxImageWidth,
		Grayscale: s.GrayscaleImages,
		Quality:   s.JPEGQuality,
	}
}

// Packager builds the packager the settings describe.
func (s *Settings) Packager() (integrations.Packager, error) {
	switch s.Format {
	case "cbz":
		packager := integrations.NewCBZPackager()
		if s.OptimizeImages {
			packager = packager.WithProcessor(integrations.NewImageProcessor(s.ToProcessorSettings()))
		}
		return packager, nil
	case "epub":
		return integrations.NewEPUBPackager(), nil
	default:
		return nil, fmt.Errorf("unknown format %q", s.Format)
	}
}
