package analyzer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"sync"

	// Decoders for every raster format the classifier lets through.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/anime-shed/image-discovery-go/internal/errors"
)

// DefaultMaxImagePixels bounds the decoded size of an image (about 89
// megapixels, the same ceiling common imaging libraries warn at).
const DefaultMaxImagePixels = 89_478_485

type imageTranscoder struct {
	maxPixels int
	bufPool   sync.Pool
}

// NewImageTranscoder creates a JPEG transcoder that refuses to decode images
// larger than maxPixels. A non-positive maxPixels selects DefaultMaxImagePixels.
func NewImageTranscoder(maxPixels int) ImageTranscoder {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxImagePixels
	}
	return &imageTranscoder{
		maxPixels: maxPixels,
		bufPool: sync.Pool{
			New: func() interface{} {
				return new(bytes.Buffer)
			},
		},
	}
}

// Transcode decodes raw, applies EXIF orientation, flattens it onto white,
// downsizes it so the long edge is at most maxLongEdge and encodes it as JPEG.
func (t *imageTranscoder) Transcode(raw []byte, maxLongEdge, quality int) ([]byte, error) {
	if err := t.checkDimensions(raw); err != nil {
		return nil, err
	}
	src, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, apperrors.NewDecodeFailedError(err)
	}
	if format == "jpeg" {
		src = applyOrientation(src, readOrientation(raw))
	}

	flat := flatten(src)
	out := downscale(flat, maxLongEdge)

	buf := t.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer t.bufPool.Put(buf)

	if err := jpeg.Encode(buf, out, &jpeg.Options{Quality: quality}); err != nil {
		return nil, apperrors.NewInternalError("failed to encode jpeg", err)
	}
	return append([]byte(nil), buf.Bytes()...), nil
}

// checkDimensions reads only the image header so oversized images are
// refused before any pixel buffer is allocated.
func (t *imageTranscoder) checkDimensions(raw []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return apperrors.NewDecodeFailedError(err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return apperrors.NewDecodeFailedError(fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height))
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(t.maxPixels) {
		return apperrors.NewValidationError("image dimensions exceed the pixel limit", nil).
			WithDetails(fmt.Sprintf("%dx%d exceeds %d pixels", cfg.Width, cfg.Height, t.maxPixels))
	}
	return nil
}

// flatten composites img over an opaque white canvas anchored at (0,0).
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Over)
	return dst
}

// scaledSize keeps the aspect ratio and pins the long edge to maxLongEdge.
// Images already within bounds keep their size.
func scaledSize(w, h, maxLongEdge int) (int, int) {
	long := w
	if h > long {
		long = h
	}
	if maxLongEdge <= 0 || long <= maxLongEdge {
		return w, h
	}
	if w >= h {
		nh := (h*maxLongEdge + w/2) / w
		if nh < 1 {
			nh = 1
		}
		return maxLongEdge, nh
	}
	nw := (w*maxLongEdge + h/2) / h
	if nw < 1 {
		nw = 1
	}
	return nw, maxLongEdge
}

func downscale(img *image.RGBA, maxLongEdge int) *image.RGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	nw, nh := scaledSize(w, h, maxLongEdge)
	if nw == w && nh == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}
