package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/handiism/h2n2flac/internal/audio"
	"github.com/handiism/h2n2flac/internal/config"
	ioutils "github.com/handiism/h2n2flac/internal/io"
	"github.com/handiism/h2n2flac/internal/model"
)

// Encoder is the name written into the ENCODER tag of every output.
const Encoder = "h2n2flac"

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a conversion progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Codec opens sources and creates outputs for the Manager.
// *audio.FileCodec is the file-backed implementation.
type Codec interface {
	Open(path string) (audio.Reader, error)
	Create(path string, opts audio.WriteOptions) (audio.Writer, error)
}

// Manager coordinates recording conversions.
type Manager struct {
	settings *config.Settings
	format   model.OutputFormat
	codec    Codec
	images   *ioutils.ImageService
	cover    *audio.Picture

	names []string
	units map[string]int64

	totalFrames     int64
	processedFrames int64
	totalRecordings int32
	doneRecordings  int32

	onProgress func(ProgressEvent)
}

// NewManager creates a new conversion Manager writing format outputs.
// A nil codec uses the file codec described by settings.
func NewManager(settings *config.Settings, format model.OutputFormat, codec Codec, onProgress func(ProgressEvent)) *Manager {
	if codec == nil {
		codec = settings.ToCodec()
	}
	return &Manager{
		settings:   settings,
		format:     format,
		codec:      codec,
		images:     ioutils.NewImageService(),
		units:      make(map[string]int64),
		onProgress: onProgress,
	}
}

// Initialize expands the inputs into recordings and prepares cover art.
//
// Directories are searched for H2n files; any other input is taken as a
// recording name and resolved when it is converted. An input naming the
// other sibling of a recording already queued is dropped.
func (m *Manager) Initialize(ctx context.Context, inputs []string) error {
	seen := make(map[string]bool)
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return err
		}

		names := []string{input}
		if info, err := os.Stat(input); err == nil && info.IsDir() {
			names, err = model.DiscoverRecordings(input)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				m.progress(ProgressEvent{Message: fmt.Sprintf("No H2n recordings in %s", input), Level: LevelWarning})
				continue
			}
		}

		for _, name := range names {
			key := strings.ReplaceAll(name, model.TokenXY, model.TokenMS)
			if seen[key] {
				continue
			}
			seen[key] = true
			m.names = append(m.names, name)
		}
	}

	if m.settings.CoverArtPath != "" {
		m.loadCover(ctx)
	}

	m.calculateTotals()
	m.progress(ProgressEvent{Message: fmt.Sprintf("Found %d recording(s)", len(m.names)), Level: LevelInfo})
	return nil
}

// Run converts all initialized recordings in order, one at a time.
//
// The first failure stops the batch unless ContinueOnError is set, in which
// case every recording is attempted and the failures are joined.
// Cancellation always stops the batch.
func (m *Manager) Run(ctx context.Context) error {
	var errs []error
	for _, name := range m.names {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := m.Convert(ctx, name)
		atomic.AddInt32(&m.doneRecordings, 1)
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = fmt.Errorf("%s: %w", filepath.Base(name), err)
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error converting %v", err), Level: LevelError})
		if !m.settings.ContinueOnError {
			return err
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Convert converts the recording named by name.
//
// Both siblings present are merged into a four-channel output; a lone
// sibling is copied to a two-channel output. A failed conversion leaves no
// output file behind.
func (m *Manager) Convert(ctx context.Context, name string) error {
	rec, err := model.NewRecording(name, m.format, m.settings.OutputDir)
	if err != nil {
		return err
	}

	if m.settings.SkipExisting {
		exists, err := ioutils.Exists(rec.OutputPath)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", model.ErrFilesystemAccess, rec.OutputPath, err)
		}
		if exists {
			atomic.AddInt64(&m.processedFrames, m.units[name])
			m.progress(ProgressEvent{Message: fmt.Sprintf("Skipping existing: %s", filepath.Base(rec.OutputPath)), Level: LevelVerbose})
			return nil
		}
	}

	if m.settings.OutputDir != "" {
		if err := ioutils.EnsureDir(m.settings.OutputDir); err != nil {
			return fmt.Errorf("%w: %s: %v", model.ErrOutputOpen, m.settings.OutputDir, err)
		}
	}

	switch {
	case rec.HasPair():
		err = m.convertPair(ctx, rec)
	case rec.XYExists:
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: MS file missing, copying XY only", rec.Name()), Level: LevelWarning})
		err = m.convertSingle(ctx, rec, rec.PathXY, "XY")
	default:
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: XY file missing, copying MS only", rec.Name()), Level: LevelWarning})
		err = m.convertSingle(ctx, rec, rec.PathMS, "MS")
	}
	if err != nil {
		return err
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Converted: %s", filepath.Base(rec.OutputPath)), Level: LevelSuccess})
	return nil
}

// GetRecordingNames returns the names of all initialized recordings.
func (m *Manager) GetRecordingNames() []string {
	names := make([]string, len(m.names))
	for i, name := range m.names {
		names[i] = filepath.Base(name)
	}
	return names
}

// GetProgress returns current conversion progress. Frames count every frame
// read from a source, so normalization doubles the total.
func (m *Manager) GetProgress() (framesDone, framesTotal int64, recordingsDone, recordingsTotal int32) {
	return atomic.LoadInt64(&m.processedFrames), atomic.LoadInt64(&m.totalFrames),
		atomic.LoadInt32(&m.doneRecordings), atomic.LoadInt32(&m.totalRecordings)
}

func (m *Manager) convertPair(ctx context.Context, rec *model.Recording) error {
	ms, err := m.open(rec.PathMS)
	if err != nil {
		return err
	}
	defer ms.Close()

	xy, err := m.open(rec.PathXY)
	if err != nil {
		return err
	}
	defer xy.Close()

	if err := ValidatePair(ms, xy); err != nil {
		return err
	}

	scale := float32(1)
	if m.settings.Normalize {
		peakMS, err := m.scanFile(ctx, rec.PathMS)
		if err != nil {
			return fmt.Errorf("MS: %w", err)
		}
		peakXY, err := m.scanFile(ctx, rec.PathXY)
		if err != nil {
			return fmt.Errorf("XY: %w", err)
		}
		scale = ScaleFactor(peakMS, peakXY)
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: peaks MS %.4f, XY %.4f, gain %.4f", rec.Name(), peakMS, peakXY, scale), Level: LevelVerbose})
	}

	w, err := m.create(rec, ms.SampleRate(), 4, "channels: MS-L, MS-R, XY-L, XY-R")
	if err != nil {
		return err
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Merging %s", rec.Name()), Level: LevelVerbose})
	err = Merge(ctx, ms, xy, w, scale, m.advance(2))
	return m.finish(rec.OutputPath, w, err)
}

func (m *Manager) convertSingle(ctx context.Context, rec *model.Recording, path, source string) error {
	r, err := m.open(path)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := checkStereo(r); err != nil {
		return fmt.Errorf("%s: %w", source, err)
	}

	scale := float32(1)
	if m.settings.Normalize {
		peak, err := m.scanFile(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		scale = ScaleFactor(peak)
		m.progress(ProgressEvent{Message: fmt.Sprintf("%s: peak %s %.4f, gain %.4f", rec.Name(), source, peak, scale), Level: LevelVerbose})
	}

	w, err := m.create(rec, r.SampleRate(), 2, "source: "+source)
	if err != nil {
		return err
	}

	err = Passthrough(ctx, r, w, scale, m.advance(1))
	return m.finish(rec.OutputPath, w, err)
}

// scanFile measures the peak of path over a handle of its own.
func (m *Manager) scanFile(ctx context.Context, path string) (float32, error) {
	r, err := m.open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	m.progress(ProgressEvent{Message: fmt.Sprintf("Scanning %s", filepath.Base(path)), Level: LevelVerbose})
	return ScanPeak(ctx, r, m.advance(1))
}

func (m *Manager) open(path string) (audio.Reader, error) {
	r, err := m.codec.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return r, nil
}

func (m *Manager) create(rec *model.Recording, rate, channels int, comment string) (audio.Writer, error) {
	opts := audio.WriteOptions{
		Format:     m.format,
		SampleRate: rate,
		Channels:   channels,
		Tags: audio.Tags{
			Title:   rec.Name(),
			Encoder: Encoder,
			Comment: comment,
		},
		Picture: m.cover,
	}

	w, err := m.codec.Create(rec.OutputPath, opts)
	if err != nil {
		if errors.Is(err, model.ErrOutputOpen) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", model.ErrOutputOpen, rec.OutputPath, err)
	}
	return w, nil
}

// finish closes w and removes the output if the conversion failed.
func (m *Manager) finish(path string, w audio.Writer, err error) error {
	if closeErr := w.Close(); err == nil && closeErr != nil {
		err = writeError(closeErr)
	}
	if err == nil {
		return nil
	}

	if rmErr := ioutils.RemoveIfExists(path); rmErr != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Could not remove %s: %v", path, rmErr), Level: LevelWarning})
	}
	return err
}

func (m *Manager) advance(files int) func(int) {
	return func(frames int) {
		atomic.AddInt64(&m.processedFrames, int64(frames*files))
	}
}

func (m *Manager) loadCover(ctx context.Context) {
	if m.format != model.FormatFLAC {
		m.progress(ProgressEvent{Message: "Cover art is only embedded in FLAC output", Level: LevelWarning})
		return
	}

	maxSize := 0
	if m.settings.CoverArtResize {
		maxSize = m.settings.CoverArtMaxSize
	}
	art, err := m.images.LoadCoverArt(ctx, m.settings.CoverArtPath, maxSize, m.settings.ConvertCoverArtToJPG)
	if err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error loading cover art: %v", err), Level: LevelWarning})
		return
	}

	m.cover = &audio.Picture{MIME: art.MIME, Data: art.Data, Width: art.Width, Height: art.Height}
	m.progress(ProgressEvent{Message: fmt.Sprintf("Loaded cover art %dx%d", art.Width, art.Height), Level: LevelVerbose})
}

// calculateTotals sums the frames every recording will read. Recordings that
// cannot be resolved or opened count as zero and fail when converted.
func (m *Manager) calculateTotals() {
	passes := int64(1)
	if m.settings.Normalize {
		passes = 2
	}

	m.totalRecordings = int32(len(m.names))
	for _, name := range m.names {
		rec, err := model.NewRecording(name, m.format, m.settings.OutputDir)
		if err != nil {
			continue
		}

		var units int64
		for _, src := range []struct {
			path   string
			exists bool
		}{{rec.PathMS, rec.MSExists}, {rec.PathXY, rec.XYExists}} {
			if !src.exists {
				continue
			}
			r, err := m.codec.Open(src.path)
			if err != nil {
				continue
			}
			units += r.Frames() * passes
			r.Close()
		}

		m.units[name] = units
		m.totalFrames += units
	}
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
