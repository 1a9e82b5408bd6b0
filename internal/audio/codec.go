package audio

import (
	"github.com/handiism/h2n2flac/internal/model"
)

// FileCodec opens H2n WAV sources and creates outputs in the selected format.
//
// FileCodec is the file-backed implementation of the conversion codec:
//
//	codec := &FileCodec{BitsPerSample: 24, FFmpegPath: "ffmpeg", VorbisQuality: 6}
//	r, err := codec.Open("SR001MS.WAV")
//	w, err := codec.Create("SR001.flac", WriteOptions{Format: model.FormatFLAC, SampleRate: 48000, Channels: 4})
type FileCodec struct {
	// BitsPerSample is the FLAC sample width (16 or 24).
	BitsPerSample int

	// FFmpegPath is the ffmpeg executable used for Vorbis encoding.
	FFmpegPath string

	// VorbisQuality is the libvorbis VBR quality (-1 to 10).
	VorbisQuality float64
}

// Open opens a WAV source for reading.
func (c *FileCodec) Open(path string) (Reader, error) {
	return OpenWAV(path)
}

// Create creates an output writer for opts.Format.
func (c *FileCodec) Create(path string, opts WriteOptions) (Writer, error) {
	switch opts.Format {
	case model.FormatFLAC:
		bits := c.BitsPerSample
		if bits == 0 {
			bits = 24
		}
		return CreateFLAC(path, opts, bits)
	default:
		ffmpeg := c.FFmpegPath
		if ffmpeg == "" {
			ffmpeg = "ffmpeg"
		}
		return CreateVorbis(path, opts, ffmpeg, c.VorbisQuality)
	}
}
