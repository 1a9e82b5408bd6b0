package model

import (
	"errors"
	"fmt"
)

// Conversion failures. Callers wrap these with context via fmt.Errorf("%w: ...")
// and match them with errors.Is.
var (
	// ErrNoPairToken means a name contains neither "XY.WAV" nor "MS.WAV".
	ErrNoPairToken = errors.New("no H2n channel-pair token in file name")

	// ErrNoRecordingFound means neither sibling of a recording exists on disk.
	ErrNoRecordingFound = errors.New("no audio files found for recording")

	// ErrFilesystemAccess covers existence checks and opens that failed for a
	// reason other than the file being absent.
	ErrFilesystemAccess = errors.New("cannot access file")

	// ErrUnexpectedChannelCount means a source stream is not stereo.
	ErrUnexpectedChannelCount = errors.New("unexpected channel count")

	// ErrSampleRateMismatch means the MS and XY streams differ in sample rate.
	ErrSampleRateMismatch = errors.New("MS and XY streams differ in sample rate")

	// ErrLengthMismatch means the MS and XY streams differ in length.
	ErrLengthMismatch = errors.New("MS and XY streams differ in length")

	// ErrDesynchronizedStreams means two chunks read in lockstep came back with
	// different frame counts even though the declared lengths matched.
	ErrDesynchronizedStreams = fmt.Errorf("%w: streams desynchronized while merging", ErrLengthMismatch)

	// ErrStreamRead and ErrStreamWrite wrap codec I/O failures mid-stream.
	ErrStreamRead  = errors.New("error reading audio stream")
	ErrStreamWrite = errors.New("error writing audio stream")

	// ErrOutputOpen means the destination could not be created.
	ErrOutputOpen = errors.New("failed to open output for writing")

	// ErrUnsupportedFormat means a source uses an encoding the reader cannot decode.
	ErrUnsupportedFormat = errors.New("unsupported audio encoding")
)
