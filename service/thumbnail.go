package service

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Thumbnailer generates a thumbnail for an uploaded image. Thumbnails are
// always emitted as JPEG regardless of the source media type.
type Thumbnailer interface {
	Generate(data []byte, sourceMediaType string) ([]byte, error)
}

type ImagingThumbnailer struct {
	MaxDimension int
}

func NewImagingThumbnailer(maxDimension int) *ImagingThumbnailer {
	if maxDimension <= 0 {
		maxDimension = 320
	}
	return &ImagingThumbnailer{MaxDimension: maxDimension}
}

func (t *ImagingThumbnailer) Generate(data []byte, sourceMediaType string) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image (%s): %w", sourceMediaType, err)
	}

	thumb := imaging.Fit(img, t.MaxDimension, t.MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
