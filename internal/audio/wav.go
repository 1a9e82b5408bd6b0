package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/handiism/h2n2flac/internal/model"
)

// WAV format tags accepted by WAVReader.
const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// WAVReader streams integer PCM samples from a WAV file as floats.
//
// WAVReader wraps the go-audio/wav decoder:
//   - 8, 16, 24 and 32-bit PCM are supported
//   - samples are scaled by 2^(bits-1), so full scale maps to [-1, 1)
//   - ReadFrames only returns a short count at the end of the data chunk
//
// Example:
//
//	r, err := OpenWAV("SR001MS.WAV")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	buf := make([]float32, 8192*r.Channels())
//	n, err := r.ReadFrames(buf)
type WAVReader struct {
	path   string
	file   *os.File
	dec    *wav.Decoder
	ibuf   *goaudio.IntBuffer
	pcm    []int
	scale  float32
	offset int

	sampleRate int
	channels   int
	frames     int64
	remaining  int64
}

// OpenWAV opens path and positions the reader at the first frame.
//
// Returns an error wrapping ErrFilesystemAccess if the file cannot be opened
// and ErrUnsupportedFormat if it is not a PCM WAV file.
func OpenWAV(path string) (*WAVReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrFilesystemAccess, path, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", model.ErrUnsupportedFormat, path)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		f.Close()
		return nil, fmt.Errorf("%w: %s uses WAV format tag %#x", model.ErrUnsupportedFormat, path, dec.WavAudioFormat)
	}
	bits := int(dec.BitDepth)
	if bits != 8 && bits != 16 && bits != 24 && bits != 32 {
		f.Close()
		return nil, fmt.Errorf("%w: %s has %d bits per sample", model.ErrUnsupportedFormat, path, bits)
	}
	if err := dec.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s: %v", model.ErrStreamRead, path, err)
	}

	channels := int(dec.NumChans)
	r := &WAVReader{
		path:       path,
		file:       f,
		dec:        dec,
		ibuf:       &goaudio.IntBuffer{Format: dec.Format(), SourceBitDepth: bits},
		scale:      float32(1 / fullScale(bits)),
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		frames:     dec.PCMLen() / int64(channels*bits/8),
	}
	r.remaining = r.frames
	// 8-bit WAV samples are unsigned.
	if bits == 8 {
		r.offset = 128
	}
	return r, nil
}

// SampleRate returns the sample rate in Hz.
func (r *WAVReader) SampleRate() int { return r.sampleRate }

// Channels returns the number of interleaved channels.
func (r *WAVReader) Channels() int { return r.channels }

// Frames returns the frame count declared by the data chunk.
func (r *WAVReader) Frames() int64 { return r.frames }

// ReadFrames reads up to len(buf)/Channels() frames.
//
// The decoder may return fewer samples than asked for in a single call, so
// ReadFrames keeps pulling until buf is full or the decoder has nothing left.
// Reading stops at the end of the data chunk even if other chunks follow it.
func (r *WAVReader) ReadFrames(buf []float32) (int, error) {
	want := len(buf) / r.channels * r.channels
	if limit := r.remaining * int64(r.channels); int64(want) > limit {
		want = int(limit)
	}
	if cap(r.pcm) < want {
		r.pcm = make([]int, want)
	}

	got := 0
	for got < want {
		r.ibuf.Data = r.pcm[:want-got]
		n, err := r.dec.PCMBuffer(r.ibuf)
		if err != nil {
			return got / r.channels, fmt.Errorf("%w: %s: %v", model.ErrStreamRead, r.path, err)
		}
		if n == 0 {
			break
		}
		for i, v := range r.ibuf.Data[:n] {
			buf[got+i] = float32(v-r.offset) * r.scale
		}
		got += n
	}

	frames := got / r.channels
	r.remaining -= int64(frames)
	return frames, nil
}

// Close closes the underlying file.
func (r *WAVReader) Close() error {
	return r.file.Close()
}

// WAVWriter writes integer PCM WAV files.
type WAVWriter struct {
	file     *os.File
	enc      *wav.Encoder
	ibuf     *goaudio.IntBuffer
	bits     int
	channels int
}

// CreateWAV creates a WAV file at path with the given bit depth (16, 24 or 32).
//
// Example:
//
//	w, err := CreateWAV("SR001MS.WAV", 48000, 2, 24)
//	err = w.WriteFrames([]float32{0.5, -0.5})
//	err = w.Close()
func CreateWAV(path string, sampleRate, channels, bits int) (*WAVWriter, error) {
	if bits != 16 && bits != 24 && bits != 32 {
		return nil, fmt.Errorf("%w: %d-bit WAV output", model.ErrUnsupportedFormat, bits)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrOutputOpen, path, err)
	}

	return &WAVWriter{
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, bits, channels, wavFormatPCM),
		ibuf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
			SourceBitDepth: bits,
		},
		bits:     bits,
		channels: channels,
	}, nil
}

// WriteFrames appends interleaved frames.
func (w *WAVWriter) WriteFrames(buf []float32) error {
	if len(buf)%w.channels != 0 {
		return fmt.Errorf("%w: %d samples is not a whole number of %d-channel frames", model.ErrStreamWrite, len(buf), w.channels)
	}
	if cap(w.ibuf.Data) < len(buf) {
		w.ibuf.Data = make([]int, len(buf))
	}
	w.ibuf.Data = w.ibuf.Data[:len(buf)]
	for i, v := range buf {
		w.ibuf.Data[i] = int(quantize(v, w.bits))
	}
	if err := w.enc.Write(w.ibuf); err != nil {
		return fmt.Errorf("%w: %v", model.ErrStreamWrite, err)
	}
	return nil
}

// Close writes the final chunk sizes and closes the file.
func (w *WAVWriter) Close() error {
	encErr := w.enc.Close()
	fileErr := w.file.Close()
	if encErr != nil {
		return fmt.Errorf("%w: %v", model.ErrStreamWrite, encErr)
	}
	return fileErr
}
