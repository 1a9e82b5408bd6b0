// Package config provides configuration management for h2n2flac.
//
// This package handles:
//   - Loading and saving settings from JSON or YAML files
//   - Default configuration values
//   - Resolving the output format and building the file codec
//
// # Default Settings
//
// Use DefaultSettings() to get sensible defaults:
//
//	settings := config.DefaultSettings()
//	// No normalization
//	// 24-bit FLAC, Vorbis quality 6
//	// Outputs written beside the sources
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/h2n2flac.yaml")
//	if err != nil {
//	    // Uses defaults if file doesn't exist
//	}
//
// # Saving Settings
//
//	settings.OutputDir = "/music/field"
//	err := settings.Save("/path/to/h2n2flac.json")
//
// # Configuration Options
//
// Settings includes options for:
//   - Normalization and output format
//   - Output directory and skipping finished recordings
//   - Fail-fast or continue-on-error batches
//   - Encoder parameters (FLAC bit depth, Vorbis quality, ffmpeg path)
//   - Cover art embedding
package config
