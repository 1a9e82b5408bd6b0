package convert

import (
	"context"
	"fmt"

	"github.com/handiism/h2n2flac/internal/audio"
	"github.com/handiism/h2n2flac/internal/model"
)

// ValidatePair checks that an MS and an XY stream can be merged: both must
// be stereo and declare the same sample rate and length.
func ValidatePair(ms, xy audio.Reader) error {
	if err := checkStereo(ms); err != nil {
		return fmt.Errorf("MS: %w", err)
	}
	if err := checkStereo(xy); err != nil {
		return fmt.Errorf("XY: %w", err)
	}
	if ms.SampleRate() != xy.SampleRate() {
		return fmt.Errorf("%w: MS %d Hz, XY %d Hz", model.ErrSampleRateMismatch, ms.SampleRate(), xy.SampleRate())
	}
	if ms.Frames() != xy.Frames() {
		return fmt.Errorf("%w: MS %d frames, XY %d frames", model.ErrLengthMismatch, ms.Frames(), xy.Frames())
	}
	return nil
}

// Merge interleaves two stereo streams into the four-channel stream
// {MS-L, MS-R, XY-L, XY-R}, scaling every sample by scale.
//
// Both readers are read in lockstep, one chunk at a time. A chunk pair with
// different frame counts fails with ErrDesynchronizedStreams. Every chunk is
// written with exactly the frames read, and the first short chunk ends the
// merge.
func Merge(ctx context.Context, ms, xy audio.Reader, w audio.Writer, scale float32, onChunk func(frames int)) error {
	if err := checkStereo(ms); err != nil {
		return fmt.Errorf("MS: %w", err)
	}
	if err := checkStereo(xy); err != nil {
		return fmt.Errorf("XY: %w", err)
	}

	bufMS := make([]float32, ChunkFrames*2)
	bufXY := make([]float32, ChunkFrames*2)
	out := make([]float32, ChunkFrames*4)

	for chunk := 0; ; chunk++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		nMS, err := ms.ReadFrames(bufMS)
		if err != nil {
			return fmt.Errorf("MS: %w", readError(err))
		}
		nXY, err := xy.ReadFrames(bufXY)
		if err != nil {
			return fmt.Errorf("XY: %w", readError(err))
		}
		if nMS != nXY {
			return fmt.Errorf("%w: chunk %d has %d MS frames and %d XY frames", model.ErrDesynchronizedStreams, chunk, nMS, nXY)
		}

		if nMS > 0 {
			interleave(out, bufMS, bufXY, nMS, scale)
			if err := w.WriteFrames(out[:nMS*4]); err != nil {
				return writeError(err)
			}
			report(onChunk, nMS)
		}
		if nMS < ChunkFrames {
			return nil
		}
	}
}

// interleave writes frames four-channel frames into out.
func interleave(out, ms, xy []float32, frames int, scale float32) {
	for i := 0; i < frames; i++ {
		out[i*4+0] = ms[i*2+0] * scale
		out[i*4+1] = ms[i*2+1] * scale
		out[i*4+2] = xy[i*2+0] * scale
		out[i*4+3] = xy[i*2+1] * scale
	}
}
