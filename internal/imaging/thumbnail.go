// Package imaging turns uploaded product pictures into fixed-size PNG
// thumbnails.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	// Registered decoders for the accepted upload formats.
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// DefaultSize is the edge length of a thumbnail in pixels.
const DefaultSize = 250

// ErrDecode reports bytes that no registered decoder accepts.
var ErrDecode = errors.New("imaging: unsupported or corrupt image")

// Thumbnail decodes raw and stretches it onto a size×size canvas, ignoring
// the source aspect ratio, and returns the PNG encoding.
func Thumbnail(raw []byte, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("imaging: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// IsThumbnail reports whether data is a PNG of exactly size×size pixels.
func IsThumbnail(data []byte, size int) bool {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return false
	}
	return cfg.Width == size && cfg.Height == size
}
