package imagery

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

const (
	// BustUpRatio is the share of the anchor height kept for the bust-up view.
	BustUpRatio = 0.42
	// BustUpAspectW and BustUpAspectH define the letterboxed output aspect.
	BustUpAspectW = 3
	BustUpAspectH = 4
)

// BustUp derives the bust-up view from a full-body anchor: the top slice of the
// frame, letterboxed on white to 3:4. The same anchor always yields the same bytes.
func BustUp(anchor Image) (Image, error) {
	src, err := Decode(anchor.Data)
	if err != nil {
		return Image{}, fmt.Errorf("imagery: bust-up: %w", err)
	}

	bounds := src.Bounds()
	width := bounds.Dx()
	height := int(float64(bounds.Dy())*BustUpRatio + 0.5)
	if width == 0 || height == 0 {
		return Image{}, fmt.Errorf("imagery: bust-up: anchor too small (%dx%d)", bounds.Dx(), bounds.Dy())
	}

	slice := imaging.Crop(src, image.Rect(bounds.Min.X, bounds.Min.Y, bounds.Min.X+width, bounds.Min.Y+height))
	framed := Letterbox(slice, BustUpAspectW, BustUpAspectH)

	data, err := EncodePNG(framed)
	if err != nil {
		return Image{}, err
	}
	return Image{Role: anchor.Role, Slot: anchor.Slot, MIME: "image/png", Data: data}, nil
}

// Letterbox pads img on a white canvas so that it matches aspectW:aspectH
// without scaling the original pixels.
func Letterbox(img image.Image, aspectW, aspectH int) *image.NRGBA {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	canvasW, canvasH := w, h
	if w*aspectH > h*aspectW {
		canvasH = (w*aspectH + aspectW - 1) / aspectW
	} else {
		canvasW = (h*aspectW + aspectH - 1) / aspectH
	}
	canvas := imaging.New(canvasW, canvasH, color.White)
	return imaging.PasteCenter(canvas, img)
}
