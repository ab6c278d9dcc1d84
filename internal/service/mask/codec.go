package mask

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	// WebP canvases come from canvas.toBlob("image/webp").
	_ "golang.org/x/image/webp"
)

// EmptyMaskError indicates no drawing was supplied.
type EmptyMaskError struct{}

func (EmptyMaskError) Error() string {
	return "mask: no drawing on the canvas"
}

// ErrUndecodableCanvas indicates the canvas bytes are not a supported image.
var ErrUndecodableCanvas = errors.New("mask: canvas is not a PNG or WebP image")

// Extract converts an encoded RGBA canvas into a PNG-encoded single-channel
// mask. The alpha channel is copied as is: no scaling, no thresholding.
func Extract(canvas []byte) ([]byte, error) {
	if len(canvas) == 0 {
		return nil, EmptyMaskError{}
	}
	img, _, err := image.Decode(bytes.NewReader(canvas))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableCanvas, err)
	}
	return FromImage(img)
}

// FromImage encodes the alpha channel of img as a grayscale PNG with the
// same bounds.
func FromImage(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, EmptyMaskError{}
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, EmptyMaskError{}
	}

	// The PNG encoder writes *image.Gray as a one-channel 8-bit image.
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			_, _, _, a := img.At(x, y).RGBA()
			gray.SetGray(x, y, color.Gray{Y: uint8(a >> 8)})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("mask: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
