package ioutils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoder registration
	"net/http"
	"os"

	"golang.org/x/image/draw"
)

// CoverArt is an image prepared for embedding in an output file.
type CoverArt struct {
	// Data holds the encoded image bytes.
	Data []byte

	// MIME is the media type of Data, e.g. "image/jpeg".
	MIME string

	// Width and Height are the pixel dimensions of Data.
	Width  int
	Height int
}

// ImageService prepares cover art for embedding in converted recordings.
//
// ImageService is used to:
//   - Resize images to fit maximum dimensions
//   - Convert images to JPEG format (for better player compatibility)
//
// Example usage:
//
//	svc := NewImageService()
//	art, err := svc.LoadCoverArt(ctx, "/music/cover.png", 1000, true)
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// LoadCoverArt reads an image file and prepares it for embedding.
//
// Parameters:
//   - ctx: Context for cancellation (checked before decoding)
//   - path: Image file (JPEG or PNG)
//   - maxSize: Maximum width and height in pixels; 0 keeps the original size
//   - toJPEG: Re-encode the image as JPEG even when no resize is needed
//
// The original bytes are embedded untouched when neither a resize nor a
// conversion is requested.
func (s *ImageService) LoadCoverArt(ctx context.Context, path string, maxSize int, toJPEG bool) (*CoverArt, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cover art %s: %w", path, err)
	}

	needsResize := maxSize > 0 && (cfg.Width > maxSize || cfg.Height > maxSize)
	switch {
	case needsResize:
		data, err = s.ResizeImage(ctx, data, maxSize, maxSize)
	case toJPEG:
		data, err = s.ConvertToJPEG(ctx, data)
	}
	if err != nil {
		return nil, fmt.Errorf("cover art %s: %w", path, err)
	}

	cfg, _, err = image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cover art %s: %w", path, err)
	}

	return &CoverArt{
		Data:   data,
		MIME:   http.DetectContentType(data),
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// ResizeImage resizes an image to fit within the specified maximum dimensions.
//
// The aspect ratio is preserved and the result is JPEG-encoded. The
// Catmull-Rom algorithm is used for high-quality resizing.
//
// Example:
//
//	// A 1500x1000 image becomes 1000x667
//	resized, err := svc.ResizeImage(ctx, imageData, 1000, 1000)
func (s *ImageService) ResizeImage(ctx context.Context, data []byte, maxWidth, maxHeight int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ConvertToJPEG re-encodes an image as JPEG with 90% quality.
func (s *ImageService) ConvertToJPEG(ctx context.Context, data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// fitWithin scales width x height down to fit maxWidth x maxHeight,
// keeping the aspect ratio. Sizes that already fit are returned unchanged.
func fitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		// Height is the limiting factor
		return int(float64(maxHeight) * ratio), maxHeight
	}
	// Width is the limiting factor
	return maxWidth, int(float64(maxWidth) / ratio)
}
