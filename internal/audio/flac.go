package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/handiism/h2n2flac/internal/model"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

// flacBlockSize is the number of frames per FLAC frame. Every block but the
// last has exactly this size, so the stream can declare a fixed block size.
const flacBlockSize = 4096

// pictureFrontCover is the ID3v2 APIC picture type FLAC reuses for covers.
const pictureFrontCover = 3

// blockSizeOffset is the file offset of StreamInfo's minimum and maximum
// block size: the "fLaC" signature plus a metadata block header.
const blockSizeOffset = 4 + 4

// FLACWriter encodes interleaved float frames into a FLAC file.
//
// Incoming frames are collected into fixed-size blocks and quantized to the
// configured bit depth. Each channel of a block is stored as a constant,
// fixed-predictor or verbatim subframe, whichever is smallest. The StreamInfo
// block (total samples, MD5, frame sizes) is finalized on Close.
//
// Example:
//
//	w, err := CreateFLAC("SR001.flac", WriteOptions{SampleRate: 48000, Channels: 4}, 24)
//	if err != nil {
//	    return err
//	}
//	err = w.WriteFrames(chunk)
//	err = w.Close()
type FLACWriter struct {
	path     string
	file     *os.File
	enc      *flac.Encoder
	channels int
	bits     int
	rate     int
	layout   frame.Channels

	// block holds one slice of pending samples per channel.
	block   [][]int32
	pending int
}

// CreateFLAC creates path and writes the FLAC stream header and metadata.
//
// bits is the output sample width (16 or 24). Tags become a VORBIS_COMMENT
// block and opts.Picture, if set, a PICTURE block.
//
// Returns an error wrapping ErrOutputOpen if the file cannot be created.
func CreateFLAC(path string, opts WriteOptions, bits int) (*FLACWriter, error) {
	if bits != 16 && bits != 24 {
		return nil, fmt.Errorf("%w: %d-bit FLAC output", model.ErrUnsupportedFormat, bits)
	}
	layout, err := flacChannels(opts.Channels)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrOutputOpen, path, err)
	}

	info := &meta.StreamInfo{
		BlockSizeMin:  flacBlockSize,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    uint32(opts.SampleRate),
		NChannels:     uint8(opts.Channels),
		BitsPerSample: uint8(bits),
	}
	// The encoder only sees Write and Seek, so closing it leaves the file
	// open for the block size patch in Close.
	enc, err := flac.NewEncoder(struct{ io.WriteSeeker }{f}, info, flacMetadata(opts)...)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, fmt.Errorf("%w: %s: %v", model.ErrOutputOpen, path, err)
	}

	block := make([][]int32, opts.Channels)
	for ch := range block {
		block[ch] = make([]int32, flacBlockSize)
	}

	return &FLACWriter{
		path:     path,
		file:     f,
		enc:      enc,
		channels: opts.Channels,
		bits:     bits,
		rate:     opts.SampleRate,
		layout:   layout,
		block:    block,
	}, nil
}

// WriteFrames appends interleaved frames, emitting a FLAC frame every time a
// block fills up.
func (w *FLACWriter) WriteFrames(buf []float32) error {
	if len(buf)%w.channels != 0 {
		return fmt.Errorf("%w: %d samples is not a whole number of %d-channel frames", model.ErrStreamWrite, len(buf), w.channels)
	}

	for i := 0; i < len(buf); i += w.channels {
		for ch := 0; ch < w.channels; ch++ {
			w.block[ch][w.pending] = quantize(buf[i+ch], w.bits)
		}
		w.pending++
		if w.pending == flacBlockSize {
			if err := w.flush(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close writes the last partial block and finalizes the stream.
func (w *FLACWriter) Close() error {
	flushErr := w.flush()
	encErr := w.enc.Close()
	if encErr == nil {
		encErr = w.fixBlockSize()
	}
	fileErr := w.file.Close()
	if flushErr != nil {
		return flushErr
	}
	if encErr != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrStreamWrite, w.path, encErr)
	}
	return fileErr
}

// fixBlockSize declares flacBlockSize as both the minimum and maximum block
// size. The encoder records the observed extremes, which include the short
// final block; a minimum below 16 makes the stream invalid, and the final
// block is exempt from the minimum anyway.
func (w *FLACWriter) fixBlockSize() error {
	var sizes [4]byte
	binary.BigEndian.PutUint16(sizes[0:], flacBlockSize)
	binary.BigEndian.PutUint16(sizes[2:], flacBlockSize)
	_, err := w.file.WriteAt(sizes[:], blockSizeOffset)
	return err
}

// flush encodes the pending samples as one FLAC frame.
func (w *FLACWriter) flush() error {
	if w.pending == 0 {
		return nil
	}

	subframes := make([]*frame.Subframe, w.channels)
	for ch := range subframes {
		samples := make([]int32, w.pending)
		copy(samples, w.block[ch][:w.pending])
		subframes[ch] = encodeSubframe(samples, w.bits)
	}

	f := &frame.Frame{
		Header: frame.Header{
			HasFixedBlockSize: true,
			BlockSize:         uint16(w.pending),
			SampleRate:        uint32(w.rate),
			Channels:          w.layout,
			BitsPerSample:     uint8(w.bits),
		},
		Subframes: subframes,
	}
	if err := w.enc.WriteFrame(f); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrStreamWrite, w.path, err)
	}
	w.pending = 0
	return nil
}

// flacChannels maps a channel count to the FLAC channel assignment.
func flacChannels(n int) (frame.Channels, error) {
	switch n {
	case 1:
		return frame.ChannelsMono, nil
	case 2:
		return frame.ChannelsLR, nil
	case 4:
		return frame.ChannelsLRLsRs, nil
	default:
		return 0, fmt.Errorf("%w: %d-channel FLAC output", model.ErrUnexpectedChannelCount, n)
	}
}

// flacMetadata builds the VORBIS_COMMENT and PICTURE blocks for opts.
func flacMetadata(opts WriteOptions) []*meta.Block {
	var tags [][2]string
	if opts.Tags.Title != "" {
		tags = append(tags, [2]string{"TITLE", opts.Tags.Title})
	}
	if opts.Tags.Encoder != "" {
		tags = append(tags, [2]string{"ENCODER", opts.Tags.Encoder})
	}
	if opts.Tags.Comment != "" {
		tags = append(tags, [2]string{"COMMENT", opts.Tags.Comment})
	}

	vendor := opts.Tags.Encoder
	if vendor == "" {
		vendor = "h2n2flac"
	}
	// A zero Length makes the encoder write an empty block. Any other value
	// works: the real length is computed from the body.
	blocks := []*meta.Block{{
		Header: meta.Header{Type: meta.TypeVorbisComment, Length: 1},
		Body:   &meta.VorbisComment{Vendor: vendor, Tags: tags},
	}}

	if pic := opts.Picture; pic != nil {
		blocks = append(blocks, &meta.Block{
			Header: meta.Header{Type: meta.TypePicture, Length: 1},
			Body: &meta.Picture{
				Type:   pictureFrontCover,
				MIME:   pic.MIME,
				Desc:   "Cover",
				Width:  uint32(pic.Width),
				Height: uint32(pic.Height),
				Depth:  24,
				Data:   pic.Data,
			},
		})
	}
	return blocks
}
