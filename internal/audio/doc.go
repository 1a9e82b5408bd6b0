// Package audio provides the streaming audio file adapters used by the
// converter: a WAV reader for H2n sources and FLAC, Ogg Vorbis and WAV
// writers for outputs.
//
// # Streams
//
// Every adapter works in chunks of interleaved float32 samples:
//
//	r, _ := audio.OpenWAV("SR001MS.WAV")
//	defer r.Close()
//
//	buf := make([]float32, 8192*r.Channels())
//	for {
//	    n, err := r.ReadFrames(buf)
//	    if err != nil {
//	        return err
//	    }
//	    // use buf[:n*r.Channels()]
//	    if n < 8192 {
//	        break // a short read is the end of the stream
//	    }
//	}
//
// # Output Formats
//
//   - FLAC: integer PCM (16 or 24-bit), written with github.com/mewkiz/flac,
//     tagged with a VORBIS_COMMENT block and optional cover art
//   - Ogg Vorbis: encoded by an ffmpeg subprocess fed float PCM on stdin
//   - WAV: integer PCM via github.com/go-audio/wav
//
// FileCodec chooses the writer from WriteOptions.Format.
package audio
