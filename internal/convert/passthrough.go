package convert

import (
	"context"

	"github.com/handiism/h2n2flac/internal/audio"
)

// Passthrough copies a stereo stream to w, scaling every sample by scale.
// It is used when only one file of a recording exists.
func Passthrough(ctx context.Context, r audio.Reader, w audio.Writer, scale float32, onChunk func(frames int)) error {
	if err := checkStereo(r); err != nil {
		return err
	}

	buf := make([]float32, ChunkFrames*2)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := r.ReadFrames(buf)
		if err != nil {
			return readError(err)
		}
		if n > 0 {
			chunk := buf[:n*2]
			if scale != 1 {
				for i := range chunk {
					chunk[i] *= scale
				}
			}
			if err := w.WriteFrames(chunk); err != nil {
				return writeError(err)
			}
			report(onChunk, n)
		}
		if n < ChunkFrames {
			return nil
		}
	}
}
