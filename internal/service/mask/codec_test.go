package mask_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/zhouzirui/artifex/backend/internal/service/mask"
)

func encodeCanvas(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode canvas: %v", err)
	}
	return buf.Bytes()
}

func TestExtractCopiesAlphaChannel(t *testing.T) {
	canvas := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	canvas.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	canvas.SetNRGBA(1, 0, color.NRGBA{G: 10, A: 128})
	canvas.SetNRGBA(2, 1, color.NRGBA{B: 200, A: 7})

	out, err := mask.Extract(encodeCanvas(t, canvas))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode mask: %v", err)
	}
	gray, ok := decoded.(*image.Gray)
	if !ok {
		t.Fatalf("expected single-channel image, got %T", decoded)
	}
	if gray.Bounds() != canvas.Bounds() {
		t.Fatalf("bounds changed: %v vs %v", gray.Bounds(), canvas.Bounds())
	}

	want := map[image.Point]uint8{
		{0, 0}: 255,
		{1, 0}: 128,
		{2, 1}: 7,
		{0, 1}: 0,
	}
	for pt, a := range want {
		if got := gray.GrayAt(pt.X, pt.Y).Y; got != a {
			t.Fatalf("pixel %v: got %d want %d", pt, got, a)
		}
	}
}

func TestExtractKeepsBlankCanvas(t *testing.T) {
	canvas := image.NewNRGBA(image.Rect(0, 0, 4, 4))

	out, err := mask.Extract(encodeCanvas(t, canvas))
	if err != nil {
		t.Fatalf("blank canvas should pass through: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg.Width != 4 || cfg.Height != 4 || cfg.ColorModel != color.GrayModel {
		t.Fatalf("unexpected mask config: %+v", cfg)
	}
}

func TestExtractEmptyCanvas(t *testing.T) {
	_, err := mask.Extract(nil)
	var emptyErr mask.EmptyMaskError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyMaskError, got %v", err)
	}
}

func TestExtractRejectsGarbage(t *testing.T) {
	_, err := mask.Extract([]byte("not an image"))
	if !errors.Is(err, mask.ErrUndecodableCanvas) {
		t.Fatalf("expected ErrUndecodableCanvas, got %v", err)
	}
}

func TestFromImageNil(t *testing.T) {
	if _, err := mask.FromImage(nil); !errors.As(err, new(mask.EmptyMaskError)) {
		t.Fatalf("expected EmptyMaskError, got %v", err)
	}
}
