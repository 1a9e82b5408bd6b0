package convert

import (
	"errors"
	"os"
	"sync"

	"github.com/handiism/h2n2flac/internal/audio"
)

var errDisk = errors.New("disk on fire")

// memSource describes an in-memory audio file.
type memSource struct {
	rate     int
	channels int
	samples  []float32

	// frames overrides the declared frame count when non-zero.
	frames int64

	// failRead makes the given ReadFrames call (1-based) fail.
	failRead int
}

// memReader is a read cursor over a memSource.
type memReader struct {
	src    *memSource
	pos    int
	calls  int
	closed bool
}

func (r *memReader) SampleRate() int { return r.src.rate }
func (r *memReader) Channels() int   { return r.src.channels }

func (r *memReader) Frames() int64 {
	if r.src.frames != 0 {
		return r.src.frames
	}
	return int64(len(r.src.samples) / r.src.channels)
}

func (r *memReader) ReadFrames(buf []float32) (int, error) {
	r.calls++
	if r.calls == r.src.failRead {
		return 0, errDisk
	}
	n := copy(buf[:len(buf)/r.src.channels*r.src.channels], r.src.samples[r.pos:])
	r.pos += n
	return n / r.src.channels, nil
}

func (r *memReader) Close() error {
	r.closed = true
	return nil
}

// memWriter records everything written to it.
type memWriter struct {
	opts    audio.WriteOptions
	samples []float32
	writes  []int
	closed  bool

	// failWrite makes the given WriteFrames call (1-based) fail.
	failWrite int
}

func (w *memWriter) WriteFrames(buf []float32) error {
	if len(w.writes)+1 == w.failWrite {
		return errDisk
	}
	w.samples = append(w.samples, buf...)
	w.writes = append(w.writes, len(buf)/w.opts.Channels)
	return nil
}

func (w *memWriter) Close() error {
	w.closed = true
	return nil
}

// memCodec serves memSources by path. Sources must also exist on disk so
// recordings resolve; outputs are created on disk as empty files.
type memCodec struct {
	mu        sync.Mutex
	sources   map[string]*memSource
	readers   []*memReader
	outputs   map[string]*memWriter
	failWrite int
	failOpen  error
}

func newMemCodec() *memCodec {
	return &memCodec{
		sources: make(map[string]*memSource),
		outputs: make(map[string]*memWriter),
	}
}

func (c *memCodec) add(path string, src *memSource) error {
	c.sources[path] = src
	return os.WriteFile(path, []byte("RIFF"), 0644)
}

func (c *memCodec) Open(path string) (audio.Reader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	src, ok := c.sources[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	r := &memReader{src: src}
	c.readers = append(c.readers, r)
	return r, nil
}

func (c *memCodec) Create(path string, opts audio.WriteOptions) (audio.Writer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failOpen != nil {
		return nil, c.failOpen
	}
	if err := os.WriteFile(path, nil, 0644); err != nil {
		return nil, err
	}
	w := &memWriter{opts: opts, failWrite: c.failWrite}
	c.outputs[path] = w
	return w, nil
}

// stereo builds a 2-channel source from interleaved samples.
func stereo(rate int, samples ...float32) *memSource {
	return &memSource{rate: rate, channels: 2, samples: samples}
}

// stereoFrames builds a 2-channel source of n frames with a recognizable
// pattern: frame i holds (i*step, -i*step).
func stereoFrames(rate, n int, step float32) *memSource {
	samples := make([]float32, n*2)
	for i := 0; i < n; i++ {
		samples[i*2] = float32(i) * step
		samples[i*2+1] = -float32(i) * step
	}
	return stereo(rate, samples...)
}
