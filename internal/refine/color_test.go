package refine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveColor(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Navy Blue", "#000080"},
		{"navy blue", "#000080"},
		{"NAVY BLUE", "#000080"},
		{"  navy   blue ", "#000080"},
		{"navy", "#000080"},
		{"red", "#FF0000"},
		{"Grey", "#808080"},
		{"#abc", "#ABC"},
		{"#a1B2c3", "#A1B2C3"},
		{"#FFFFFF", "#FFFFFF"},
		{"#12", FallbackColorHex},
		{"#1234567", FallbackColorHex},
		{"#ggg", FallbackColorHex},
		{"not-a-color", FallbackColorHex},
		{"", FallbackColorHex},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveColor(tc.in))
		})
	}
}

func TestStripColorWords(t *testing.T) {
	assert.Equal(t, "cotton oxford shirt", StripColorWords("Navy blue cotton oxford shirt"))
	assert.Equal(t, "slim, tapered chinos", StripColorWords("slim, RED tapered chinos"))
	assert.Equal(t, "redwood-print scarf", StripColorWords("redwood-print scarf"), "partial words are kept")
	assert.Equal(t, "", StripColorWords("black"))
}
