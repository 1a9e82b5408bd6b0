package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/handiism/h2n2flac/internal/audio"
	"github.com/handiism/h2n2flac/internal/config"
	"github.com/handiism/h2n2flac/internal/model"
	"github.com/mewkiz/flac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dir    string
	codec  *memCodec
	events []ProgressEvent
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{dir: t.TempDir(), codec: newMemCodec()}
}

func (f *fixture) add(t *testing.T, name string, src *memSource) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, f.codec.add(path, src))
	return path
}

func (f *fixture) manager(settings *config.Settings) *Manager {
	return NewManager(settings, model.FormatFLAC, f.codec, func(e ProgressEvent) {
		f.events = append(f.events, e)
	})
}

func (f *fixture) run(t *testing.T, settings *config.Settings, inputs ...string) error {
	t.Helper()
	m := f.manager(settings)
	require.NoError(t, m.Initialize(context.Background(), inputs))
	return m.Run(context.Background())
}

func (f *fixture) output(t *testing.T, name string) *memWriter {
	t.Helper()
	w, ok := f.codec.outputs[filepath.Join(f.dir, name)]
	require.True(t, ok, "no output %s", name)
	return w
}

func (f *fixture) assertReadersClosed(t *testing.T) {
	t.Helper()
	for i, r := range f.codec.readers {
		assert.True(t, r.closed, "reader %d left open", i)
	}
}

func TestConvert_MSOnly(t *testing.T) {
	f := newFixture(t)
	ms := f.add(t, "SR001MS.WAV", stereo(48000, 0.5, -0.5, 0.25, 0.0))

	require.NoError(t, f.run(t, config.DefaultSettings(), ms))

	out := f.output(t, "SR001.flac")
	assert.Equal(t, 2, out.opts.Channels)
	assert.Equal(t, 48000, out.opts.SampleRate)
	assert.Equal(t, []float32{0.5, -0.5, 0.25, 0.0}, out.samples)
	assert.Equal(t, "SR001", out.opts.Tags.Title)
	assert.Equal(t, "source: MS", out.opts.Tags.Comment)
	assert.True(t, out.closed)
	f.assertReadersClosed(t)
}

func TestConvert_XYOnlyFromMSName(t *testing.T) {
	f := newFixture(t)
	f.add(t, "SR002XY.WAV", stereo(44100, 0.1, 0.2))

	require.NoError(t, f.run(t, config.DefaultSettings(), filepath.Join(f.dir, "SR002MS.WAV")))

	out := f.output(t, "SR002.flac")
	assert.Equal(t, []float32{0.1, 0.2}, out.samples)
	assert.Equal(t, "source: XY", out.opts.Tags.Comment)
}

func TestConvert_Pair(t *testing.T) {
	f := newFixture(t)
	f.add(t, "SR003MS.WAV", stereo(48000, 0.2, 0.2))
	xy := f.add(t, "SR003XY.WAV", stereo(48000, 0.4, -0.4))

	require.NoError(t, f.run(t, config.DefaultSettings(), xy))

	out := f.output(t, "SR003.flac")
	assert.Equal(t, 4, out.opts.Channels)
	assert.Equal(t, []float32{0.2, 0.2, 0.4, -0.4}, out.samples)
	assert.Equal(t, "channels: MS-L, MS-R, XY-L, XY-R", out.opts.Tags.Comment)
	assert.Len(t, f.codec.readers, 4, "two handles for totals, two for the merge")
	f.assertReadersClosed(t)
}

func TestConvert_PairNormalized(t *testing.T) {
	f := newFixture(t)
	ms := f.add(t, "SR004MS.WAV", stereo(48000, 0.5, -0.1, 0.2, 0.3))
	f.add(t, "SR004XY.WAV", stereo(48000, 0.25, 0.1, -0.2, 0.0))

	settings := config.DefaultSettings()
	settings.Normalize = true
	m := f.manager(settings)
	require.NoError(t, m.Initialize(context.Background(), []string{ms}))
	require.NoError(t, m.Run(context.Background()))

	out := f.output(t, "SR004.flac")
	assert.InDeltaSlice(t, []float32{1, -0.2, 0.5, 0.2, 0.4, 0.6, -0.4, 0}, out.samples, 1e-6)
	assert.Len(t, f.codec.readers, 6, "totals, merge and one scan per sibling")
	f.assertReadersClosed(t)

	done, total, recDone, recTotal := m.GetProgress()
	assert.Equal(t, int64(8), total)
	assert.Equal(t, total, done)
	assert.Equal(t, int32(1), recDone)
	assert.Equal(t, int32(1), recTotal)
}

func TestConvert_SingleNormalized(t *testing.T) {
	f := newFixture(t)
	xy := f.add(t, "SR005XY.WAV", stereo(48000, 1.0, -2.0, 0.5, 0))

	settings := config.DefaultSettings()
	settings.Normalize = true
	require.NoError(t, f.run(t, settings, xy))

	assert.Equal(t, []float32{0.5, -1.0, 0.25, 0}, f.output(t, "SR005.flac").samples)
}

func TestConvert_SampleRateMismatchCreatesNoOutput(t *testing.T) {
	f := newFixture(t)
	ms := f.add(t, "SR006MS.WAV", stereo(48000, 0.1, 0.1))
	f.add(t, "SR006XY.WAV", stereo(44100, 0.1, 0.1))

	settings := config.DefaultSettings()
	settings.Normalize = true
	err := f.run(t, settings, ms)

	assert.ErrorIs(t, err, model.ErrSampleRateMismatch)
	assert.Empty(t, f.codec.outputs)
	assert.NoFileExists(t, filepath.Join(f.dir, "SR006.flac"))
	assert.Len(t, f.codec.readers, 4, "validation happens before any peak scan")
	f.assertReadersClosed(t)
}

func TestConvert_LengthMismatch(t *testing.T) {
	f := newFixture(t)
	ms := f.add(t, "SR007MS.WAV", stereoFrames(48000, 3, 0.1))
	f.add(t, "SR007XY.WAV", stereoFrames(48000, 4, 0.1))

	err := f.run(t, config.DefaultSettings(), ms)
	assert.ErrorIs(t, err, model.ErrLengthMismatch)
	assert.Empty(t, f.codec.outputs)
}

func TestConvert_FailedWriteRemovesOutput(t *testing.T) {
	f := newFixture(t)
	ms := f.add(t, "SR008MS.WAV", stereoFrames(48000, ChunkFrames+1, 1e-5))
	f.add(t, "SR008XY.WAV", stereoFrames(48000, ChunkFrames+1, 1e-5))
	f.codec.failWrite = 2

	err := f.run(t, config.DefaultSettings(), ms)

	assert.ErrorIs(t, err, model.ErrStreamWrite)
	assert.ErrorIs(t, err, errDisk)
	assert.True(t, f.output(t, "SR008.flac").closed)
	assert.NoFileExists(t, filepath.Join(f.dir, "SR008.flac"))
	f.assertReadersClosed(t)
}

func TestConvert_CreateFailure(t *testing.T) {
	f := newFixture(t)
	ms := f.add(t, "SR009MS.WAV", stereo(48000, 0.1, 0.1))
	f.codec.failOpen = errDisk

	err := f.run(t, config.DefaultSettings(), ms)
	assert.ErrorIs(t, err, model.ErrOutputOpen)
	assert.ErrorIs(t, err, errDisk)
}

func TestConvert_ResolutionErrors(t *testing.T) {
	f := newFixture(t)

	err := f.run(t, config.DefaultSettings(), filepath.Join(f.dir, "SR010MS.WAV"))
	assert.ErrorIs(t, err, model.ErrNoRecordingFound)

	err = f.run(t, config.DefaultSettings(), filepath.Join(f.dir, "take1.wav"))
	assert.ErrorIs(t, err, model.ErrNoPairToken)
}

func TestConvert_SkipExisting(t *testing.T) {
	f := newFixture(t)
	ms := f.add(t, "SR011MS.WAV", stereo(48000, 0.1, 0.1))
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, "SR011.flac"), []byte("fLaC"), 0644))

	settings := config.DefaultSettings()
	settings.SkipExisting = true
	m := f.manager(settings)
	require.NoError(t, m.Initialize(context.Background(), []string{ms}))
	require.NoError(t, m.Run(context.Background()))

	assert.Empty(t, f.codec.outputs)
	done, total, _, _ := m.GetProgress()
	assert.Equal(t, total, done)
}

func TestConvert_OutputDir(t *testing.T) {
	f := newFixture(t)
	ms := f.add(t, "SR012MS.WAV", stereo(48000, 0.1, 0.1))

	settings := config.DefaultSettings()
	settings.OutputDir = filepath.Join(f.dir, "out", "flac")
	require.NoError(t, f.run(t, settings, ms))

	_, ok := f.codec.outputs[filepath.Join(settings.OutputDir, "SR012.flac")]
	assert.True(t, ok, "output not written to the output directory")
}

func TestRun_FailFast(t *testing.T) {
	f := newFixture(t)
	missing := filepath.Join(f.dir, "SR013MS.WAV")
	good := f.add(t, "SR014MS.WAV", stereo(48000, 0.1, 0.1))

	err := f.run(t, config.DefaultSettings(), missing, good)

	assert.ErrorIs(t, err, model.ErrNoRecordingFound)
	assert.Empty(t, f.codec.outputs, "later recordings must not be attempted")
}

func TestRun_ContinueOnError(t *testing.T) {
	f := newFixture(t)
	missing := filepath.Join(f.dir, "SR015MS.WAV")
	good := f.add(t, "SR016MS.WAV", stereo(48000, 0.1, 0.1))
	f.add(t, "SR017MS.WAV", stereo(48000, 0.1, 0.1))
	f.add(t, "SR017XY.WAV", stereo(44100, 0.1, 0.1))

	settings := config.DefaultSettings()
	settings.ContinueOnError = true
	err := f.run(t, settings, missing, good, filepath.Join(f.dir, "SR017MS.WAV"))

	assert.ErrorIs(t, err, model.ErrNoRecordingFound)
	assert.ErrorIs(t, err, model.ErrSampleRateMismatch)
	f.output(t, "SR016.flac")

	var errorEvents int
	for _, e := range f.events {
		if e.Level == LevelError {
			errorEvents++
		}
	}
	assert.Equal(t, 2, errorEvents)
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t)
	ms := f.add(t, "SR018MS.WAV", stereo(48000, 0.1, 0.1))

	m := f.manager(config.DefaultSettings())
	require.NoError(t, m.Initialize(context.Background(), []string{ms}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.codec.outputs)
}

func TestInitialize_Directory(t *testing.T) {
	f := newFixture(t)
	f.add(t, "SR020MS.WAV", stereoFrames(48000, 10, 0.01))
	f.add(t, "SR020XY.WAV", stereoFrames(48000, 10, 0.01))
	f.add(t, "SR021XY.WAV", stereoFrames(48000, 7, 0.01))

	m := f.manager(config.DefaultSettings())
	inputs := []string{f.dir, filepath.Join(f.dir, "SR020XY.WAV")}
	require.NoError(t, m.Initialize(context.Background(), inputs))

	assert.Equal(t, []string{"SR020MS.WAV", "SR021XY.WAV"}, m.GetRecordingNames())

	_, total, _, recTotal := m.GetProgress()
	assert.Equal(t, int64(27), total)
	assert.Equal(t, int32(2), recTotal)

	require.NoError(t, m.Run(context.Background()))
	done, _, recDone, _ := m.GetProgress()
	assert.Equal(t, total, done)
	assert.Equal(t, recTotal, recDone)
	assert.Len(t, f.codec.outputs, 2)
}

func TestInitialize_EmptyDirectoryWarns(t *testing.T) {
	f := newFixture(t)

	m := f.manager(config.DefaultSettings())
	require.NoError(t, m.Initialize(context.Background(), []string{f.dir}))

	assert.Empty(t, m.GetRecordingNames())
	require.NotEmpty(t, f.events)
	assert.Equal(t, LevelWarning, f.events[0].Level)
}

func TestInitialize_CoverArtIgnoredForVorbis(t *testing.T) {
	settings := config.DefaultSettings()
	settings.CoverArtPath = "/does/not/matter.jpg"

	var events []ProgressEvent
	m := NewManager(settings, model.FormatVorbis, newMemCodec(), func(e ProgressEvent) { events = append(events, e) })
	require.NoError(t, m.Initialize(context.Background(), nil))

	assert.Nil(t, m.cover)
	require.NotEmpty(t, events)
	assert.Equal(t, LevelWarning, events[0].Level)
}

func TestManager_WAVToFLAC(t *testing.T) {
	dir := t.TempDir()
	frames := ChunkFrames + 100

	for _, sibling := range []struct {
		name string
		gain float32
	}{{"SR100MS.WAV", 0.25}, {"SR100XY.WAV", -0.5}} {
		samples := make([]float32, frames*2)
		for i := range samples {
			samples[i] = sibling.gain * float32(i%64) / 64
		}
		w, err := audio.CreateWAV(filepath.Join(dir, sibling.name), 48000, 2, 24)
		require.NoError(t, err)
		require.NoError(t, w.WriteFrames(samples))
		require.NoError(t, w.Close())
	}

	settings := config.DefaultSettings()
	settings.Normalize = true
	m := NewManager(settings, model.FormatFLAC, nil, nil)
	require.NoError(t, m.Initialize(context.Background(), []string{dir}))
	require.NoError(t, m.Run(context.Background()))

	stream, err := flac.ParseFile(filepath.Join(dir, "SR100.flac"))
	require.NoError(t, err)
	defer stream.Close()

	assert.Equal(t, uint8(4), stream.Info.NChannels)
	assert.Equal(t, uint32(48000), stream.Info.SampleRate)
	assert.Equal(t, uint8(24), stream.Info.BitsPerSample)
	assert.Equal(t, uint64(frames), stream.Info.NSamples)

	// XY is the louder sibling, so its peak lands on full scale.
	var peakXY int32
	var decoded int
	for {
		fr, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		decoded += int(fr.BlockSize)
		for _, sub := range fr.Subframes[2:] {
			for _, s := range sub.Samples {
				if -s > peakXY {
					peakXY = -s
				}
			}
		}
	}
	assert.Equal(t, frames, decoded)
	assert.InDelta(t, 8388608, peakXY, 2)
}

func TestConvert_ShortRecordingToFLAC(t *testing.T) {
	for _, frames := range []int{1, 2, 4096 + 10, ChunkFrames} {
		t.Run(fmt.Sprintf("%d frames", frames), func(t *testing.T) {
			dir := t.TempDir()
			samples := make([]float32, frames*2)
			for i := range samples {
				samples[i] = 0.25
			}
			ms := filepath.Join(dir, "SR200MS.WAV")
			w, err := audio.CreateWAV(ms, 48000, 2, 16)
			require.NoError(t, err)
			require.NoError(t, w.WriteFrames(samples))
			require.NoError(t, w.Close())

			m := NewManager(config.DefaultSettings(), model.FormatFLAC, nil, nil)
			require.NoError(t, m.Convert(context.Background(), ms))

			stream, err := flac.ParseFile(filepath.Join(dir, "SR200.flac"))
			require.NoError(t, err)
			defer stream.Close()
			assert.Equal(t, uint8(2), stream.Info.NChannels)
			assert.Equal(t, uint64(frames), stream.Info.NSamples)

			var decoded int
			for {
				fr, err := stream.ParseNext()
				if errors.Is(err, io.EOF) {
					break
				}
				require.NoError(t, err)
				decoded += int(fr.BlockSize)
			}
			assert.Equal(t, frames, decoded)
		})
	}
}
