// Package convert turns H2n recordings into single multichannel files.
//
// # Engines
//
// The conversion engines stream audio in chunks of ChunkFrames frames:
//
//   - ScanPeak measures the largest absolute sample of a stereo stream
//   - Merge interleaves an MS and an XY stream into {MS-L, MS-R, XY-L, XY-R}
//   - Passthrough copies a lone stereo stream
//
// A read returning fewer than ChunkFrames frames ends a stream. Every chunk
// is written with exactly the frames read.
//
// # Manager
//
// The Manager resolves recordings and drives the engines:
//
//  1. Expand inputs (directories are searched for H2n files)
//  2. Resolve each recording's siblings and output path
//  3. Validate the pair, then scan peaks when normalizing
//  4. Merge or copy into the output, removing it on failure
//
// # Basic Usage
//
//	manager := convert.NewManager(settings, model.FormatFLAC, nil, func(event convert.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	if err := manager.Initialize(ctx, []string{"/card/STEREO/FOLDER01"}); err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := manager.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Progress Tracking
//
// Progress is reported via a callback function that receives ProgressEvent:
//
//	type ProgressEvent struct {
//	    Message string
//	    Level   ProgressLevel // Info, Verbose, Warning, Error, Success
//	}
//
// GetProgress returns frame and recording counters that are safe to poll
// from another goroutine while Run is working.
package convert
