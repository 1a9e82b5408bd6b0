package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/handiism/h2n2flac/internal/audio"
	"github.com/handiism/h2n2flac/internal/model"
	"gopkg.in/yaml.v3"
)

// Settings holds all configuration options.
type Settings struct {
	// Conversion settings
	Normalize       bool   `json:"normalize" yaml:"normalize"`
	OutputFormat    string `json:"output_format" yaml:"output_format"` // flac, ogg; empty picks from the program name
	OutputDir       string `json:"output_dir" yaml:"output_dir"`       // empty writes beside the sources
	SkipExisting    bool   `json:"skip_existing" yaml:"skip_existing"`
	ContinueOnError bool   `json:"continue_on_error" yaml:"continue_on_error"`

	// Encoder settings
	BitsPerSample int     `json:"bits_per_sample" yaml:"bits_per_sample"` // FLAC: 16 or 24
	VorbisQuality float64 `json:"vorbis_quality" yaml:"vorbis_quality"`   // -1 to 10
	FFmpegPath    string  `json:"ffmpeg_path" yaml:"ffmpeg_path"`

	// Cover art settings
	CoverArtPath         string `json:"cover_art_path" yaml:"cover_art_path"`
	CoverArtResize       bool   `json:"cover_art_resize" yaml:"cover_art_resize"`
	CoverArtMaxSize      int    `json:"cover_art_max_size" yaml:"cover_art_max_size"`
	ConvertCoverArtToJPG bool   `json:"convert_cover_art_to_jpg" yaml:"convert_cover_art_to_jpg"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	return &Settings{
		Normalize:       false,
		OutputFormat:    "",
		OutputDir:       "",
		SkipExisting:    false,
		ContinueOnError: false,

		BitsPerSample: 24,
		VorbisQuality: 6,
		FFmpegPath:    "ffmpeg",

		CoverArtPath:         "",
		CoverArtResize:       true,
		CoverArtMaxSize:      1000,
		ConvertCoverArtToJPG: true,
	}
}

// Load reads settings from a JSON or YAML file, chosen by extension
// (.yaml and .yml are YAML, anything else JSON).
//
// A missing file yields the defaults. Fields absent from the file keep their
// default values.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if isYAML(path) {
		err = yaml.Unmarshal(data, settings)
	} else {
		err = json.Unmarshal(data, settings)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return settings, nil
}

// Save writes settings to a JSON or YAML file, chosen by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate reports settings no converter can honor.
func (s *Settings) Validate() error {
	if s.OutputFormat != "" {
		if _, err := model.ParseOutputFormat(s.OutputFormat); err != nil {
			return err
		}
	}
	if s.BitsPerSample != 16 && s.BitsPerSample != 24 {
		return fmt.Errorf("bits_per_sample must be 16 or 24, got %d", s.BitsPerSample)
	}
	if s.VorbisQuality < -1 || s.VorbisQuality > 10 {
		return fmt.Errorf("vorbis_quality must be between -1 and 10, got %g", s.VorbisQuality)
	}
	if s.CoverArtResize && s.CoverArtMaxSize <= 0 {
		return fmt.Errorf("cover_art_max_size must be positive, got %d", s.CoverArtMaxSize)
	}
	return nil
}

// ResolveFormat returns the configured output format, or the one implied by
// the program name when none is configured.
func (s *Settings) ResolveFormat(program string) (model.OutputFormat, error) {
	if s.OutputFormat == "" {
		return model.FormatForProgram(program), nil
	}
	return model.ParseOutputFormat(s.OutputFormat)
}

// ToCodec converts settings to the file codec used for conversion.
func (s *Settings) ToCodec() *audio.FileCodec {
	return &audio.FileCodec{
		BitsPerSample: s.BitsPerSample,
		FFmpegPath:    s.FFmpegPath,
		VorbisQuality: s.VorbisQuality,
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
