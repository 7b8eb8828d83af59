package garment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() Analysis {
	return Analysis{
		Tops:         &Item{Description: "white linen shirt", Fabric: "linen", Style: "casual", ColorHex: "#FFFFFF"},
		Shoes:        &Item{Description: "brown loafers", Fabric: "leather", Style: "classic"},
		OverallStyle: "smart casual",
		Keywords:     []string{"summer", "relaxed"},
	}
}

func TestCloneDoesNotAlias(t *testing.T) {
	original := sample()
	clone := original.Clone()

	clone.Tops.Description = "changed"
	clone.Keywords[0] = "winter"

	assert.Equal(t, "white linen shirt", original.Tops.Description)
	assert.Equal(t, "summer", original.Keywords[0])
	assert.Nil(t, clone.Pants)
}

func TestWithItemOnlyTouchesSlot(t *testing.T) {
	original := sample()
	next := original.WithItem(SlotTops, Item{Description: "red shirt", Fabric: "linen", Style: "casual", ColorHex: "#FF0000"})

	assert.Equal(t, "#FF0000", next.Tops.ColorHex)
	assert.Equal(t, "#FFFFFF", original.Tops.ColorHex)
	assert.Equal(t, *original.Shoes, *next.Shoes)
	assert.NotSame(t, original.Shoes, next.Shoes)
	assert.Equal(t, original.Keywords, next.Keywords)
}

func TestPresentFollowsOutfitOrder(t *testing.T) {
	a := sample()
	a.Outer = &Item{Description: "trench coat"}
	assert.Equal(t, []Slot{SlotTops, SlotOuter, SlotShoes}, a.Present())

	assert.Equal(t, []Slot{SlotTops}, a.Without(SlotShoes).Without(SlotOuter).Present())
}

func TestAbsentSlotsAreOmittedInJSON(t *testing.T) {
	raw, err := json.Marshal(sample())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "tops")
	assert.Contains(t, decoded, "shoes")
	assert.NotContains(t, decoded, "pants")
	assert.NotContains(t, decoded, "outer")
	assert.NotContains(t, decoded, "inner")
}

func TestSlotLabels(t *testing.T) {
	for _, slot := range Slots {
		assert.True(t, slot.Valid())
		assert.NotEqual(t, string(slot), slot.Label(), "slot %s needs a label", slot)
	}
	assert.False(t, Slot("hat").Valid())
}
