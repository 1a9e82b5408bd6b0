package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// OutputFormat selects the container and codec of converted files.
//
// The format is chosen once per run and applied to every recording.
type OutputFormat int

const (
	// FormatVorbis writes Ogg Vorbis (lossy).
	FormatVorbis OutputFormat = iota

	// FormatFLAC writes integer PCM in a FLAC container (lossless).
	FormatFLAC
)

// Extension returns the file extension for the format, including the dot.
//
// Returns:
//   - ".ogg" for FormatVorbis
//   - ".flac" for FormatFLAC
func (f OutputFormat) Extension() string {
	switch f {
	case FormatFLAC:
		return ".flac"
	default:
		return ".ogg"
	}
}

// String returns the short name accepted by ParseOutputFormat.
func (f OutputFormat) String() string {
	switch f {
	case FormatFLAC:
		return "flac"
	default:
		return "ogg"
	}
}

// ParseOutputFormat maps a user-supplied name to an OutputFormat.
//
// Accepted names (case-insensitive): "flac", "ogg", "vorbis".
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "flac":
		return FormatFLAC, nil
	case "ogg", "vorbis":
		return FormatVorbis, nil
	default:
		return FormatVorbis, fmt.Errorf("unknown output format %q (want flac or ogg)", name)
	}
}

// FormatForProgram picks the output format from the name the program was
// invoked as: names ending in "flac" produce FLAC, everything else Ogg Vorbis.
//
// Example:
//
//	FormatForProgram("/usr/local/bin/h2n2flac") // FormatFLAC
//	FormatForProgram("h2n2ogg")                 // FormatVorbis
func FormatForProgram(program string) OutputFormat {
	name := strings.TrimSuffix(filepath.Base(program), ".exe")
	if strings.HasSuffix(name, "flac") {
		return FormatFLAC
	}
	return FormatVorbis
}
