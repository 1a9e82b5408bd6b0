package model

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ioutils "github.com/handiism/h2n2flac/internal/io"
)

// Channel-pair tokens the H2n recorder appends to simultaneous captures.
const (
	TokenXY = "XY.WAV"
	TokenMS = "MS.WAV"
)

// Recording is one H2n capture: an MS stereo file and an XY stereo file
// recorded at the same time, either of which may be missing.
//
// Recording is resolved once from a single file name and is immutable
// afterwards. At least one of XYExists and MSExists is always true.
//
// Example:
//
//	rec, err := NewRecording("/card/STEREO/FOLDER01/SR001XY.WAV", FormatFLAC, "")
//	// rec.PathMS     = "/card/STEREO/FOLDER01/SR001MS.WAV"
//	// rec.OutputPath = "/card/STEREO/FOLDER01/SR001.flac"
type Recording struct {
	// PathXY is the path of the X-Y pair file.
	PathXY string

	// PathMS is the path of the mid-side pair file.
	PathMS string

	// XYExists and MSExists record which siblings were found on disk.
	XYExists bool
	MSExists bool

	// OutputPath is where the converted file is written. It is always derived
	// from the MS name, whichever siblings exist.
	OutputPath string
}

// NewRecording resolves the sibling names and output path for name.
//
// Parameters:
//   - name: path of either sibling; it must contain "XY.WAV" or "MS.WAV"
//   - format: output format, which decides the output extension
//   - outputDir: directory for the output file (empty to write beside the sources)
//
// Returns an error wrapping:
//   - ErrNoPairToken if name contains neither token
//   - ErrFilesystemAccess if a sibling cannot be probed
//   - ErrNoRecordingFound if neither sibling exists
//
// No file is opened.
func NewRecording(name string, format OutputFormat, outputDir string) (*Recording, error) {
	pathMS := strings.ReplaceAll(name, TokenXY, TokenMS)
	pathXY := strings.ReplaceAll(name, TokenMS, TokenXY)
	if pathMS == pathXY {
		return nil, fmt.Errorf("%w: %s", ErrNoPairToken, name)
	}

	xyExists, err := ioutils.Exists(pathXY)
	if err != nil {
		return nil, fmt.Errorf("%w: XY file %s: %v", ErrFilesystemAccess, pathXY, err)
	}
	msExists, err := ioutils.Exists(pathMS)
	if err != nil {
		return nil, fmt.Errorf("%w: MS file %s: %v", ErrFilesystemAccess, pathMS, err)
	}
	if !xyExists && !msExists {
		return nil, fmt.Errorf("%w: %s", ErrNoRecordingFound, name)
	}

	return &Recording{
		PathXY:     pathXY,
		PathMS:     pathMS,
		XYExists:   xyExists,
		MSExists:   msExists,
		OutputPath: outputPath(pathMS, format, outputDir),
	}, nil
}

// Name returns the recording's base name with the pair token removed,
// e.g. "SR001" for ".../SR001MS.WAV".
func (r *Recording) Name() string {
	base := filepath.Base(r.PathMS)
	if i := strings.LastIndex(base, TokenMS); i >= 0 {
		base = base[:i] + base[i+len(TokenMS):]
	}
	return base
}

// HasPair reports whether both siblings exist.
func (r *Recording) HasPair() bool {
	return r.XYExists && r.MSExists
}

// outputPath replaces the last MS token of pathMS with the format's extension.
func outputPath(pathMS string, format OutputFormat, outputDir string) string {
	out := pathMS
	if i := strings.LastIndex(pathMS, TokenMS); i >= 0 {
		out = pathMS[:i] + format.Extension() + pathMS[i+len(TokenMS):]
	}
	if outputDir != "" {
		out = filepath.Join(outputDir, filepath.Base(out))
	}
	return out
}

// DiscoverRecordings lists dir and returns one path per recording found in it.
//
// Files containing either pair token are grouped by their MS name, so a
// directory holding SR001MS.WAV, SR001XY.WAV and SR002XY.WAV yields two
// entries. The result is sorted and each entry is a path that exists.
func DiscoverRecordings(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFilesystemAccess, dir, err)
	}

	found := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.Contains(name, TokenMS) && !strings.Contains(name, TokenXY)) {
			continue
		}
		key := strings.ReplaceAll(name, TokenXY, TokenMS)
		if _, ok := found[key]; !ok {
			found[key] = filepath.Join(dir, name)
		}
	}

	paths := make([]string, 0, len(found))
	for _, p := range found {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
