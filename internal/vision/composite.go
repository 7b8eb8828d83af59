package vision

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"fashionStudio/internal/imagery"
)

const compositeLongEdge = 1024

// CompositeRenderer is the keyless development renderer. It letterboxes the
// best available reference onto a white canvas of the requested aspect ratio so
// the pipeline can run end to end without a hosted model.
type CompositeRenderer struct{}

// Render implements Renderer.
func (CompositeRenderer) Render(_ context.Context, req RenderRequest) (imagery.Image, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return imagery.Image{}, fmt.Errorf("vision: empty render prompt")
	}
	base, ok := baseImage(req.References)
	if !ok {
		return imagery.Image{}, fmt.Errorf("vision: reference image is required")
	}
	src, err := imagery.Decode(base.Data)
	if err != nil {
		return imagery.Image{}, err
	}

	aw, ah, ok := ParseRatio(req.AspectRatio)
	if !ok {
		aw, ah = 1, 1
	}
	framed := imaging.Fit(imagery.Letterbox(src, aw, ah), compositeLongEdge, compositeLongEdge, imaging.Lanczos)
	data, err := imagery.EncodePNG(framed)
	if err != nil {
		return imagery.Image{}, err
	}
	return imagery.Image{MIME: "image/png", Data: data}, nil
}

// ParseRatio reads an "W:H" aspect ratio such as "3:4".
func ParseRatio(ratio string) (int, int, bool) {
	left, right, found := strings.Cut(strings.TrimSpace(ratio), ":")
	if !found {
		return 0, 0, false
	}
	w, err := strconv.Atoi(strings.TrimSpace(left))
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(strings.TrimSpace(right))
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}
