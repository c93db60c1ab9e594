package contracts

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"gopkg.in/yaml.v2"
)

// OutputFormats lists the canonical output format names in the order they
// are written.
var OutputFormats = []string{"png", "jpg", "bmp", "tiff", "pnm", "pdf"}

var formatAliases = map[string]string{
	"jpeg": "jpg",
	"tif":  "tiff",
	"ppm":  "pnm",
	"pgm":  "pnm",
}

// CanonicalFormat maps a user-supplied format name to its canonical form. ok
// is false for unknown formats.
func CanonicalFormat(name string) (string, bool) {
	name = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if alias, found := formatAliases[name]; found {
		name = alias
	}
	for _, f := range OutputFormats {
		if f == name {
			return f, true
		}
	}
	return "", false
}

// Config drives one conversion run. The Netpbm parser and depth converter never
// see it; only the orchestration layer does.
type Config struct {
	BitDepths     []int    `yaml:"bit_depths"`
	OutputFormats []string `yaml:"output_formats"`
	TargetDir     string   `yaml:"target_dir"`
	DeleteSource  bool     `yaml:"delete_source"`
	ShowSummary   bool     `yaml:"show_summary"`
	JpegQuality   int      `yaml:"jpeg_quality"`
	Workers       int      `yaml:"workers"`
	Thumbnail     int      `yaml:"thumbnail"`
	Album         string   `yaml:"album"`
	DPI           float64  `yaml:"dpi"`
}

func DefaultConfig() Config {
	return Config{
		BitDepths:   []int{8},
		JpegQuality: 95,
		Workers:     max(runtime.NumCPU()-1, 1),
		DPI:         72,
	}
}

// LoadConfigFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their value from cfg.
func LoadConfigFile(path string, cfg Config) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cfg and rewrites format names to their canonical form,
// dropping duplicates.
func (c *Config) Validate() error {
	if len(c.BitDepths) == 0 {
		return fmt.Errorf("no bit depth selected")
	}
	for _, d := range c.BitDepths {
		if d != 8 && d != 16 {
			return fmt.Errorf("unsupported bit depth %d (want 8 or 16)", d)
		}
	}

	seen := make(map[string]bool)
	formats := make([]string, 0, len(c.OutputFormats))
	for _, name := range c.OutputFormats {
		f, ok := CanonicalFormat(name)
		if !ok {
			return fmt.Errorf("unknown output format %q (want one of %s)", name, strings.Join(OutputFormats, ", "))
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	c.OutputFormats = formats

	if len(c.OutputFormats) == 0 && c.Album == "" {
		return fmt.Errorf("nothing to do: choose at least one output format or an album")
	}
	if c.JpegQuality < 1 || c.JpegQuality > 100 {
		return fmt.Errorf("jpeg quality %d out of range 1-100", c.JpegQuality)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.Workers == 0 {
		c.Workers = 1
	}
	if c.Thumbnail < 0 {
		return fmt.Errorf("thumbnail size must not be negative")
	}
	if c.DPI <= 0 {
		return fmt.Errorf("dpi must be positive")
	}
	return nil
}
