// Package media prepares profile pictures for upload.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

// ErrNoImage means no picture was supplied, i.e. the picker was cancelled.
var ErrNoImage = errors.New("media: no image")

// ErrTooLarge means the decoded image would exceed MaxPixels.
var ErrTooLarge = errors.New("media: image dimensions too large")

// DefaultMaxPixels bounds decoding when Processor.MaxPixels is unset.
const DefaultMaxPixels = 24_000_000

// Processor scales images down to Width and re-encodes them as JPEG.
type Processor struct {
	Width     int
	Quality   int
	MaxPixels int
}

// Resize decodes src, scales it to p.Width keeping the aspect ratio and
// returns JPEG bytes. Images narrower than Width keep their size.
func (p Processor) Resize(src io.Reader) ([]byte, error) {
	if src == nil {
		return nil, ErrNoImage
	}
	raw, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNoImage
	}
	hdr, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image header: %w", err)
	}
	limit := p.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	if hdr.Width <= 0 || hdr.Height <= 0 || int64(hdr.Width)*int64(hdr.Height) > int64(limit) {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, hdr.Width, hdr.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	out := img
	b := img.Bounds()
	if p.Width > 0 && b.Dx() > p.Width {
		h := b.Dy() * p.Width / b.Dx()
		if h < 1 {
			h = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, p.Width, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
		out = dst
	}

	q := p.Quality
	if q < 1 || q > 100 {
		q = jpeg.DefaultQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
