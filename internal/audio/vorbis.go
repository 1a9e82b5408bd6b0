package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/handiism/h2n2flac/internal/model"
	"golang.org/x/sync/errgroup"
)

// VorbisWriter encodes frames to Ogg Vorbis through an ffmpeg subprocess.
//
// Frames are piped to ffmpeg as raw little-endian float32 PCM. ffmpeg's
// stdout is copied into the output file by a pump goroutine, which Close
// joins before waiting for the process.
type VorbisWriter struct {
	path     string
	file     *os.File
	cmd      *exec.Cmd
	stdin    io.WriteCloser
	pump     *errgroup.Group
	stderr   *bytes.Buffer
	channels int
	scratch  []byte
}

// CreateVorbis creates path and starts an ffmpeg encoder writing into it.
//
// Parameters:
//   - path: Output .ogg file
//   - opts: Stream shape and tags (Picture is ignored)
//   - ffmpeg: ffmpeg executable name or path
//   - quality: libvorbis VBR quality, -1 to 10
//
// Returns an error wrapping ErrOutputOpen if the file cannot be created or
// ffmpeg cannot be started.
func CreateVorbis(path string, opts WriteOptions, ffmpeg string, quality float64) (*VorbisWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrOutputOpen, path, err)
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-f", "f32le",
		"-ar", strconv.Itoa(opts.SampleRate),
		"-ac", strconv.Itoa(opts.Channels),
		"-i", "pipe:0",
		"-c:a", "libvorbis",
		"-q:a", strconv.FormatFloat(quality, 'f', -1, 64),
	}
	for _, kv := range [][2]string{
		{"TITLE", opts.Tags.Title},
		{"ENCODER", opts.Tags.Encoder},
		{"COMMENT", opts.Tags.Comment},
	} {
		if kv[1] != "" {
			args = append(args, "-metadata", kv[0]+"="+kv[1])
		}
	}
	args = append(args, "-f", "ogg", "pipe:1")

	stderr := &bytes.Buffer{}
	cmd := exec.Command(ffmpeg, args...)
	cmd.Stderr = stderr

	// abort discards the half-created output.
	abort := func() {
		f.Close()
		os.Remove(path)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		abort()
		return nil, fmt.Errorf("%w: %s: %v", model.ErrOutputOpen, path, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		abort()
		return nil, fmt.Errorf("%w: %s: %v", model.ErrOutputOpen, path, err)
	}
	if err := cmd.Start(); err != nil {
		abort()
		return nil, fmt.Errorf("%w: %s: starting %s: %v", model.ErrOutputOpen, path, ffmpeg, err)
	}

	pump := &errgroup.Group{}
	pump.Go(func() error {
		_, err := io.Copy(f, stdout)
		return err
	})

	return &VorbisWriter{
		path:     path,
		file:     f,
		cmd:      cmd,
		stdin:    stdin,
		pump:     pump,
		stderr:   stderr,
		channels: opts.Channels,
	}, nil
}

// WriteFrames sends interleaved frames to the encoder.
func (w *VorbisWriter) WriteFrames(buf []float32) error {
	if len(buf)%w.channels != 0 {
		return fmt.Errorf("%w: %d samples is not a whole number of %d-channel frames", model.ErrStreamWrite, len(buf), w.channels)
	}

	size := len(buf) * 4
	if cap(w.scratch) < size {
		w.scratch = make([]byte, size)
	}
	out := w.scratch[:size]
	for i, v := range buf {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}

	// ffmpeg's stderr is only safe to read after Wait, which Close does.
	if _, err := w.stdin.Write(out); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrStreamWrite, w.path, err)
	}
	return nil
}

// Close ends the input stream, waits for ffmpeg to finish and closes the file.
func (w *VorbisWriter) Close() error {
	stdinErr := w.stdin.Close()
	// StdoutPipe must be drained before Wait closes it.
	pumpErr := w.pump.Wait()
	waitErr := w.cmd.Wait()
	fileErr := w.file.Close()

	switch {
	case waitErr != nil:
		return fmt.Errorf("%w: %s: ffmpeg: %v%s", model.ErrStreamWrite, w.path, waitErr, w.diagnostics())
	case pumpErr != nil:
		return fmt.Errorf("%w: %s: %v", model.ErrStreamWrite, w.path, pumpErr)
	case stdinErr != nil:
		return fmt.Errorf("%w: %s: %v", model.ErrStreamWrite, w.path, stdinErr)
	}
	return fileErr
}

// diagnostics returns ffmpeg's stderr formatted for an error message. It must
// not be called before cmd.Wait returns.
func (w *VorbisWriter) diagnostics() string {
	msg := strings.TrimSpace(w.stderr.String())
	if msg == "" {
		return ""
	}
	return " (" + msg + ")"
}
