package imagery

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"fashionStudio/internal/garment"
)

// Role describes why a reference image is attached to a request.
type Role string

const (
	RoleGarment Role = "garment"
	RoleModel   Role = "model"
	RoleAnchor  Role = "anchor_model"
)

// Image is an encoded image plus the labels a renderer needs to use it.
type Image struct {
	Role Role         `json:"role"`
	Slot garment.Slot `json:"slot,omitempty"`
	MIME string       `json:"mime"`
	Data []byte       `json:"-"`
}

// Label names the image inside a generation request.
func (img Image) Label() string {
	switch img.Role {
	case RoleGarment:
		if img.Slot != "" {
			return "garment_" + string(img.Slot)
		}
		return "garment"
	case RoleModel:
		return "model_reference"
	case RoleAnchor:
		return string(RoleAnchor)
	}
	return string(img.Role)
}

// Base64 returns the standard base64 encoding of the image bytes.
func (img Image) Base64() string {
	return base64.StdEncoding.EncodeToString(img.Data)
}

// New builds an image and sniffs its MIME type when none is given.
func New(role Role, slot garment.Slot, data []byte, mime string) Image {
	return Image{Role: role, Slot: slot, MIME: DetectMIME(data, mime), Data: data}
}

// DetectMIME keeps provided image/* types and sniffs everything else.
func DetectMIME(data []byte, provided string) string {
	mime := strings.TrimSpace(provided)
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return "image/png"
	}
	return mime
}

// Set groups the reference images that belong to one session.
type Set []Image

// Garments returns the garment images in upload order.
func (s Set) Garments() []Image {
	var out []Image
	for _, img := range s {
		if img.Role == RoleGarment {
			out = append(out, img)
		}
	}
	return out
}

// Model returns the model reference image, if any.
func (s Set) Model() (Image, bool) {
	for _, img := range s {
		if img.Role == RoleModel && len(img.Data) > 0 {
			return img, true
		}
	}
	return Image{}, false
}

// HasModel reports whether a model reference image is part of the set.
func (s Set) HasModel() bool {
	return s.Has(RoleModel)
}

// Has reports whether the set carries a non-empty image with role.
func (s Set) Has(role Role) bool {
	for _, img := range s {
		if img.Role == role && len(img.Data) > 0 {
			return true
		}
	}
	return false
}

// Slots lists the garment slots that have an uploaded image.
func (s Set) Slots() []garment.Slot {
	seen := map[garment.Slot]bool{}
	var slots []garment.Slot
	for _, img := range s.Garments() {
		if img.Slot.Valid() && !seen[img.Slot] {
			seen[img.Slot] = true
			slots = append(slots, img.Slot)
		}
	}
	return slots
}

// Decode parses PNG, JPEG, GIF, BMP, TIFF and WebP payloads.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("imagery: empty image data")
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imagery: decode: %w", err)
	}
	return img, nil
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("imagery: encode png: %w", err)
	}
	return buf.Bytes(), nil
}
