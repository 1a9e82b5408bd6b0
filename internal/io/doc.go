// Package ioutils provides file system and image processing utilities.
//
// This package contains functions for:
//   - Probing whether a file exists without hiding permission errors
//   - Directory creation
//   - Removing partially written outputs
//   - Cover art resizing and format conversion
//
// # File Operations
//
//	// Distinguish "missing" from "cannot look"
//	ok, err := ioutils.Exists("/card/SR001MS.WAV")
//
//	// Ensure the output directory exists
//	err := ioutils.EnsureDir("/music/field")
//
// # Image Processing
//
// The ImageService prepares cover art for embedding in FLAC files:
//
//	svc := ioutils.NewImageService()
//	art, _ := svc.LoadCoverArt(ctx, "/music/cover.png", 1000, true)
//	fmt.Println(art.MIME, art.Width, art.Height)
package ioutils
