// Package imaging normalizes item photos before they are stored.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/erazemk/najdeno/internal/model"
)

const (
	// MaxUploadBytes bounds the accepted upload size.
	MaxUploadBytes = 8 << 20
	// MaxDimension is the longest side of a stored photo.
	MaxDimension = 1280
	// Quality is the JPEG quality of stored photos.
	Quality = 82
	// MIME is the type of every stored photo.
	MIME = "image/jpeg"
)

var decoders = map[string]func(io.Reader) (image.Image, error){
	"image/jpeg": jpeg.Decode,
	"image/png":  png.Decode,
	"image/gif":  gif.Decode,
	"image/webp": webp.Decode,
}

// Photo is a normalized item photo.
type Photo struct {
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Normalize sniffs, decodes and re-encodes an uploaded photo as JPEG, fitting
// it within MaxDimension and flattening transparency onto white. Unsupported
// or oversized input wraps model.ErrValidation.
func Normalize(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, fmt.Errorf("%w: photo larger than %d bytes", model.ErrValidation, MaxUploadBytes)
	}

	kind := http.DetectContentType(data)
	decode, ok := decoders[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported photo format %s", model.ErrValidation, kind)
	}

	src, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding photo: %v", model.ErrValidation, err)
	}

	dst := fit(src, MaxDimension)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return nil, fmt.Errorf("encoding photo: %w", err)
	}

	b := dst.Bounds()
	return &Photo{Data: buf.Bytes(), MIME: MIME, Width: b.Dx(), Height: b.Dy()}, nil
}

// fit draws src onto a white canvas no larger than maxSide on either side,
// keeping the aspect ratio.
func fit(src image.Image, maxSide int) *image.RGBA {
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()

	if w > maxSide || h > maxSide {
		if w >= h {
			h = max(1, h*maxSide/w)
			w = maxSide
		} else {
			w = max(1, w*maxSide/h)
			h = maxSide
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == sb.Dx() && h == sb.Dy() {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, sb, draw.Over, nil)
	}
	return dst
}
