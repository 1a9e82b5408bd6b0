package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/handiism/h2n2flac/internal/audio"
	"github.com/handiism/h2n2flac/internal/model"
)

// ChunkFrames is the number of frames read and written per chunk. A read
// returning fewer frames marks the end of a stream.
const ChunkFrames = 8192

// ScanPeak reads r to its end and returns the largest absolute sample value
// across both channels.
//
// The reader is consumed and not rewound; the conversion pass opens its own
// handle. onChunk, if not nil, is called with the frame count of every chunk.
func ScanPeak(ctx context.Context, r audio.Reader, onChunk func(frames int)) (float32, error) {
	if err := checkStereo(r); err != nil {
		return 0, err
	}

	buf := make([]float32, ChunkFrames*2)
	var peak float32
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := r.ReadFrames(buf)
		if err != nil {
			return 0, readError(err)
		}
		for _, v := range buf[:n*2] {
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
		report(onChunk, n)
		if n < ChunkFrames {
			return peak, nil
		}
	}
}

// ScaleFactor returns the gain that brings the loudest of peaks to full
// scale, so no stream of a pair clips. Silent input gets a gain of 1.
func ScaleFactor(peaks ...float32) float32 {
	var loudest float32
	for _, p := range peaks {
		if p > loudest {
			loudest = p
		}
	}
	if loudest == 0 {
		return 1
	}
	return 1 / loudest
}

func checkStereo(r audio.Reader) error {
	if ch := r.Channels(); ch != 2 {
		return fmt.Errorf("%w: got %d channels, want 2", model.ErrUnexpectedChannelCount, ch)
	}
	return nil
}

func report(onChunk func(int), frames int) {
	if onChunk != nil && frames > 0 {
		onChunk(frames)
	}
}

func readError(err error) error {
	if errors.Is(err, model.ErrStreamRead) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrStreamRead, err)
}

func writeError(err error) error {
	if errors.Is(err, model.ErrStreamWrite) {
		return err
	}
	return fmt.Errorf("%w: %w", model.ErrStreamWrite, err)
}
