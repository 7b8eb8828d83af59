package imagery

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fashionStudio/internal/garment"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 20, G: 40, B: 200, A: 255})
	// Mark the top row band so the crop origin can be checked.
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	data, err := EncodePNG(img)
	require.NoError(t, err)
	return data
}

func TestBustUpIsDeterministicAndThreeByFour(t *testing.T) {
	anchor := Image{Role: RoleAnchor, MIME: "image/png", Data: testPNG(t, 300, 400)}

	first, err := BustUp(anchor)
	require.NoError(t, err)
	second, err := BustUp(anchor)
	require.NoError(t, err)

	assert.Equal(t, first.Data, second.Data)
	assert.Equal(t, "image/png", first.MIME)

	decoded, err := Decode(first.Data)
	require.NoError(t, err)
	bounds := decoded.Bounds()
	assert.Equal(t, 300, bounds.Dx())
	assert.Equal(t, 400, bounds.Dy())
}

func TestBustUpKeepsTopSlice(t *testing.T) {
	anchor := Image{Role: RoleAnchor, Data: testPNG(t, 300, 400)}
	out, err := BustUp(anchor)
	require.NoError(t, err)

	decoded, err := Decode(out.Data)
	require.NoError(t, err)

	// 168px slice centered on a 400px canvas starts at y=116.
	r, g, b, _ := decoded.At(150, 116).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)

	// Letterbox padding is white.
	r, g, b, _ = decoded.At(150, 2).RGBA()
	assert.Equal(t, []uint32{0xffff, 0xffff, 0xffff}, []uint32{r, g, b})
}

func TestBustUpRejectsGarbage(t *testing.T) {
	_, err := BustUp(Image{Data: []byte("not an image")})
	assert.Error(t, err)
}

func TestLetterboxPadsNarrowImagesHorizontally(t *testing.T) {
	tall := imaging.New(100, 400, color.Black)
	out := Letterbox(tall, 3, 4)
	assert.Equal(t, image.Rect(0, 0, 300, 400), out.Bounds())
}

func TestSetAccessors(t *testing.T) {
	set := Set{
		New(RoleGarment, garment.SlotTops, testPNG(t, 4, 4), ""),
		New(RoleModel, "", testPNG(t, 4, 4), "image/png"),
		New(RoleGarment, garment.SlotShoes, testPNG(t, 4, 4), "application/octet-stream"),
	}

	assert.True(t, set.HasModel())
	assert.Len(t, set.Garments(), 2)
	assert.Equal(t, []garment.Slot{garment.SlotTops, garment.SlotShoes}, set.Slots())
	assert.Equal(t, "image/png", set[2].MIME)
	assert.Equal(t, "garment_tops", set[0].Label())
	assert.Equal(t, "anchor_model", Image{Role: RoleAnchor}.Label())
}
