package services

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
)

// WhitenGarmentBackground lifts bright background pixels of a wardrobe photo
// towards pure white before attribute extraction. Brightness between low and
// high blends linearly instead of cutting hard. A centered subject box of
// subjectRatio width and height stays untouched so the garment itself is
// never washed out.
func WhitenGarmentBackground(photoBytes []byte, low, high uint8, subjectRatio float64) ([]byte, error) {
	if low >= high {
		return nil, fmt.Errorf("low threshold %d must be below high threshold %d", low, high)
	}
	if subjectRatio < 0.0 || subjectRatio > 1.0 {
		return nil, fmt.Errorf("subject ratio must be within [0, 1], got %v", subjectRatio)
	}

	img, _, err := image.Decode(bytes.NewReader(photoBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to decode photo: %w", err)
	}

	bounds := img.Bounds()
	out := image.NewRGBA(bounds)
	subject := subjectBox(bounds, subjectRatio)
	blendRange := float64(high - low)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			px := img.At(x, y)
			if (image.Point{X: x, Y: y}).In(subject) {
				out.Set(x, y, px)
				continue
			}

			r, g, b, a := px.RGBA()
			r8, g8, b8, a8 := uint8(r>>8), uint8(g>>8), uint8(b>>8), uint8(a>>8)
			lum := luminance(r8, g8, b8)

			switch {
			case lum <= float64(low):
				out.Set(x, y, px)
			case lum >= float64(high):
				out.Set(x, y, color.RGBA{R: 255, G: 255, B: 255, A: a8})
			default:
				factor := (lum - float64(low)) / blendRange
				out.Set(x, y, color.RGBA{
					R: blendToWhite(r8, factor),
					G: blendToWhite(g8, factor),
					B: blendToWhite(b8, factor),
					A: a8,
				})
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode photo as png: %w", err)
	}
	return buf.Bytes(), nil
}

// subjectBox returns the centered rectangle covering ratio of each dimension.
func subjectBox(bounds image.Rectangle, ratio float64) image.Rectangle {
	w := int(float64(bounds.Dx()) * ratio)
	h := int(float64(bounds.Dy()) * ratio)
	x0 := bounds.Min.X + (bounds.Dx()-w)/2
	y0 := bounds.Min.Y + (bounds.Dy()-h)/2
	return image.Rect(x0, y0, x0+w, y0+h)
}

func luminance(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

func blendToWhite(channel uint8, factor float64) uint8 {
	return uint8(math.Round(float64(channel)*(1.0-factor) + 255.0*factor))
}
