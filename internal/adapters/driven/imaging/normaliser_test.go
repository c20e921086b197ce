package imaging

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func encodeJPEG(t *testing.T, img image.Image) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func decodedSize(t *testing.T, img domain.InlineImage) (int, int) {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(img.Data)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	require.NoError(t, err)
	return cfg.Width, cfg.Height
}

func TestFit(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		wantW, wantH int
	}{
		{"inside box", 800, 400, 800, 400},
		{"too wide", 2600, 600, 1300, 300},
		{"too tall", 600, 1200, 300, 600},
		{"both", 4000, 3000, 800, 600},
		{"exact", 1300, 600, 1300, 600},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := Fit(tt.w, tt.h, 1300, 600)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestNormalise_DownscalesPNG(t *testing.T) {
	n := New(0, 0)
	out, err := n.Normalise(domain.ImageContent{Data: encodePNG(t, solid(2600, 300)), Format: "png"})
	require.NoError(t, err)

	assert.Equal(t, "image/png", out.MIMEType)
	w, h := decodedSize(t, out)
	assert.Equal(t, 1300, w)
	assert.Equal(t, 150, h)
}

func TestNormalise_NeverUpscales(t *testing.T) {
	n := New(1300, 600)
	out, err := n.Normalise(domain.ImageContent{Data: encodeJPEG(t, solid(40, 20)), Format: "jpeg"})
	require.NoError(t, err)

	assert.Equal(t, "image/jpeg", out.MIMEType)
	w, h := decodedSize(t, out)
	assert.Equal(t, 40, w)
	assert.Equal(t, 20, h)
}

func TestNormalise_NoFormatHint(t *testing.T) {
	out, err := New(10, 10).Normalise(domain.ImageContent{Data: encodeJPEG(t, solid(40, 20))})
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.MIMEType)
	w, h := decodedSize(t, out)
	assert.Equal(t, 10, w)
	assert.Equal(t, 5, h)
}

func TestNormalise_Errors(t *testing.T) {
	n := New(0, 0)

	_, err := n.Normalise(domain.ImageContent{Data: "not base64!"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	garbage := base64.StdEncoding.EncodeToString([]byte{0x89, 'P', 'N', 'G', 0, 0, 0})
	_, err = n.Normalise(domain.ImageContent{Data: garbage, Format: "png"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_RejectsOversizedImages(t *testing.T) {
	n := New(0, 0)
	n.SetMaxPixels(100 * 100)

	_, err := n.Normalise(domain.ImageContent{Data: encodePNG(t, solid(101, 100)), Format: "png"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = n.Normalise(domain.ImageContent{Data: encodePNG(t, solid(100, 100)), Format: "png"})
	assert.NoError(t, err)
}

func TestNormalise_RejectsHugeDeclaredDimensions(t *testing.T) {
	// A 1x1 PNG whose header claims 100000x100000 pixels.
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, solid(1, 1)))
	raw := buf.Bytes()
	binary.BigEndian.PutUint32(raw[16:20], 100_000)
	binary.BigEndian.PutUint32(raw[20:24], 100_000)
	binary.BigEndian.PutUint32(raw[29:33], crc32.ChecksumIEEE(raw[12:29]))

	_, err := New(0, 0).Normalise(domain.ImageContent{
		Data:   base64.StdEncoding.EncodeToString(raw),
		Format: "png",
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "pixel limit")
}
