package audio

import (
	"github.com/handiism/h2n2flac/internal/model"
)

// Reader is a sequential read cursor over an audio file.
//
// Samples are interleaved float32 values in [-1, 1). Every Reader starts at
// frame 0; two Readers opened on the same file never share a position.
type Reader interface {
	// SampleRate returns the stream's sample rate in Hz.
	SampleRate() int

	// Channels returns the number of interleaved channels.
	Channels() int

	// Frames returns the declared total number of frames.
	Frames() int64

	// ReadFrames fills buf with up to len(buf)/Channels() frames and returns
	// the number of frames read. Fewer frames than requested means the end
	// of the stream was reached; there is no separate EOF signal.
	ReadFrames(buf []float32) (int, error)

	// Close releases the underlying file.
	Close() error
}

// Writer is a sequential write cursor over an audio file.
type Writer interface {
	// WriteFrames appends the interleaved frames in buf. len(buf) must be a
	// multiple of the writer's channel count.
	WriteFrames(buf []float32) error

	// Close flushes pending data and finalizes the container.
	Close() error
}

// Tags are the text fields written into an output file's metadata.
type Tags struct {
	Title   string
	Encoder string
	Comment string
}

// Picture is cover art embedded into an output file.
type Picture struct {
	MIME   string
	Data   []byte
	Width  int
	Height int
}

// WriteOptions describe the stream a Writer is created for.
//
// Example:
//
//	opts := WriteOptions{
//	    Format:     model.FormatFLAC,
//	    SampleRate: 48000,
//	    Channels:   4,
//	    Tags:       Tags{Title: "SR001", Encoder: "h2n2flac"},
//	}
type WriteOptions struct {
	// Format selects the container and codec.
	Format model.OutputFormat

	// SampleRate and Channels of the frames passed to WriteFrames.
	SampleRate int
	Channels   int

	// Tags are written where the container supports them.
	Tags Tags

	// Picture is embedded as front cover art (FLAC only). Nil to skip.
	Picture *Picture
}
