// Package imaging bounds the pixel footprint of images sent to a generative
// model. Images are decoded, scaled down to fit a bounding box and
// re-encoded as PNG or JPEG.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"
	"golang.org/x/image/webp"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.ImageNormaliser = (*Normaliser)(nil)

const (
	// DefaultMaxWidth is the bounding box width.
	DefaultMaxWidth = 1300
	// DefaultMaxHeight is the bounding box height.
	DefaultMaxHeight = 600
	// JPEGQuality is used when re-encoding lossy images.
	JPEGQuality = 85
	// DefaultMaxPixels caps the declared size of an image before it is
	// decoded. 40 megapixels decode to about 160 MB of RGBA.
	DefaultMaxPixels = 40_000_000
)

// Normaliser resizes images to fit within MaxWidth x MaxHeight.
// It never upscales.
type Normaliser struct {
	maxWidth  int
	maxHeight int
	maxPixels int
}

// New creates a normaliser. Non-positive bounds fall back to the defaults.
func New(maxWidth, maxHeight int) *Normaliser {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if maxHeight <= 0 {
		maxHeight = DefaultMaxHeight
	}
	return &Normaliser{maxWidth: maxWidth, maxHeight: maxHeight, maxPixels: DefaultMaxPixels}
}

// SetMaxPixels overrides the largest width x height accepted for decoding.
func (n *Normaliser) SetMaxPixels(pixels int) {
	if pixels > 0 {
		n.maxPixels = pixels
	}
}

// Normalise decodes img, fits it to the bounding box and re-encodes it.
// Lossless sources (png, gif) become PNG, everything else JPEG.
func (n *Normaliser) Normalise(img domain.ImageContent) (domain.InlineImage, error) {
	raw, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return domain.InlineImage{}, fmt.Errorf("%w: image is not valid base64: %v", domain.ErrInvalidInput, err)
	}

	// The header is read first so an image declaring huge dimensions is
	// refused before its pixels are allocated.
	cfg, _, err := decodeConfig(raw, img.Format)
	if err != nil {
		return domain.InlineImage{}, fmt.Errorf("%w: decode %s image header: %v", domain.ErrInvalidInput, img.Format, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > int64(n.maxPixels) {
		return domain.InlineImage{}, fmt.Errorf("%w: image is %dx%d, over the %d pixel limit",
			domain.ErrInvalidInput, cfg.Width, cfg.Height, n.maxPixels)
	}

	src, format, err := decode(raw, img.Format)
	if err != nil {
		return domain.InlineImage{}, fmt.Errorf("%w: decode %s image: %v", domain.ErrInvalidInput, img.Format, err)
	}

	dst := n.fit(src)

	var buf bytes.Buffer
	mimeType := "image/jpeg"
	switch format {
	case "png", "gif":
		mimeType = "image/png"
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: JPEGQuality})
	}
	if err != nil {
		return domain.InlineImage{}, fmt.Errorf("encode image: %w", err)
	}

	return domain.InlineImage{
		MIMEType: mimeType,
		Data:     base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// fit scales src down, keeping the aspect ratio, so both sides fit the box.
func (n *Normaliser) fit(src image.Image) image.Image {
	w, h := Fit(src.Bounds().Dx(), src.Bounds().Dy(), n.maxWidth, n.maxHeight)
	if w == src.Bounds().Dx() && h == src.Bounds().Dy() {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

// Fit returns the largest size with the aspect ratio of w x h that fits
// within maxW x maxH. Sizes already inside the box are returned unchanged.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	fw := max(1, int(float64(w)*scale))
	fh := max(1, int(float64(h)*scale))
	return fw, fh
}

// decode picks a decoder by the detected format, falling back to the
// registered decoders when the hint is missing.
func decode(raw []byte, hint string) (image.Image, string, error) {
	r := bytes.NewReader(raw)
	switch hint {
	case "jpeg":
		img, err := jpeg.Decode(r)
		return img, hint, err
	case "png":
		img, err := png.Decode(r)
		return img, hint, err
	case "gif":
		img, err := gif.Decode(r)
		return img, hint, err
	case "webp":
		img, err := webp.Decode(r)
		return img, hint, err
	}
	return image.Decode(r)
}

// decodeConfig reads only the image header, choosing the decoder like decode.
func decodeConfig(raw []byte, hint string) (image.Config, string, error) {
	r := bytes.NewReader(raw)
	switch hint {
	case "jpeg":
		cfg, err := jpeg.DecodeConfig(r)
		return cfg, hint, err
	case "png":
		cfg, err := png.DecodeConfig(r)
		return cfg, hint, err
	case "gif":
		cfg, err := gif.DecodeConfig(r)
		return cfg, hint, err
	case "webp":
		cfg, err := webp.DecodeConfig(r)
		return cfg, hint, err
	}
	return image.DecodeConfig(r)
}
