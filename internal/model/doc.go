// Package model defines the core data structures used throughout
// h2n2flac.
//
// # Recording
//
// Recording represents one H2n capture, a mid-side file and an X-Y file
// recorded simultaneously:
//
//	rec, err := model.NewRecording("SR001XY.WAV", model.FormatFLAC, "")
//	fmt.Println(rec.PathMS)     // "SR001MS.WAV"
//	fmt.Println(rec.OutputPath) // "SR001.flac"
//	fmt.Println(rec.HasPair())  // true when both files exist
//
// # Output Format
//
// OutputFormat selects the container written for every recording of a run:
//
//	format := model.FormatForProgram(os.Args[0]) // "h2n2flac" -> FLAC
//	fmt.Println(format.Extension())              // ".flac"
//
// # Errors
//
// Every failure the converter can hit is one of the sentinel errors in this
// package (ErrNoPairToken, ErrSampleRateMismatch, ...). They are wrapped with
// context and matched with errors.Is.
package model
