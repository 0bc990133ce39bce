package gallery

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension bounds both width and height of a stored image.
	MaxDimension = 2000
	JPEGQuality  = 82
)

// Compress decodes a JPEG, PNG, GIF or WebP image, applies its EXIF
// orientation, fits it inside MaxDimension×MaxDimension keeping the aspect
// ratio and re-encodes it as JPEG. Smaller images are never enlarged.
func Compress(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
