// Package imaging handles image decoding, thumbnail generation, and webp
// encoding for the asset pipeline.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/HugoSmits86/nativewebp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ThumbnailSize is the bounding box for generated thumbnails
const ThumbnailSize = 512

// Meta describes a decoded image
type Meta struct {
	Width  int
	Height int
	Format string
}

// Decode decodes image bytes and reports width, height, and format.
// Supported formats: png, jpeg, gif, webp.
func Decode(data []byte) (image.Image, *Meta, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	return img, &Meta{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Format: format,
	}, nil
}

// Thumbnail scales an image to fit the ThumbnailSize bounding box while
// preserving aspect ratio, centered on a white background. The output is
// always ThumbnailSize x ThumbnailSize.
func Thumbnail(src image.Image) image.Image {
	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	scale := float64(ThumbnailSize) / float64(srcW)
	if s := float64(ThumbnailSize) / float64(srcH); s < scale {
		scale = s
	}
	if scale > 1 {
		scale = 1 // never upscale
	}

	dstW := int(float64(srcW) * scale)
	dstH := int(float64(srcH) * scale)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, ThumbnailSize, ThumbnailSize))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	offsetX := (ThumbnailSize - dstW) / 2
	offsetY := (ThumbnailSize - dstH) / 2
	target := image.Rect(offsetX, offsetY, offsetX+dstW, offsetY+dstH)

	xdraw.CatmullRom.Scale(dst, target, src, bounds, xdraw.Over, nil)

	return dst
}

// EncodeWebP writes an image as webp
func EncodeWebP(w io.Writer, img image.Image) error {
	if err := nativewebp.Encode(w, img, nil); err != nil {
		return fmt.Errorf("encode webp: %w", err)
	}
	return nil
}

// ToWebP encodes an image to webp bytes
func ToWebP(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeWebP(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
