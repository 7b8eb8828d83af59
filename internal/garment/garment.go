package garment

// Slot identifies one of the fixed clothing categories.
type Slot string

const (
	SlotTops  Slot = "tops"
	SlotPants Slot = "pants"
	SlotOuter Slot = "outer"
	SlotInner Slot = "inner"
	SlotShoes Slot = "shoes"
)

// Slots lists every garment slot in outfit order (top layer first, footwear last).
var Slots = []Slot{SlotTops, SlotOuter, SlotInner, SlotPants, SlotShoes}

// Valid reports whether s is a known slot.
func (s Slot) Valid() bool {
	switch s {
	case SlotTops, SlotPants, SlotOuter, SlotInner, SlotShoes:
		return true
	}
	return false
}

// Label returns the human-readable name used in prompts and summaries.
func (s Slot) Label() string {
	switch s {
	case SlotTops:
		return "Tops"
	case SlotPants:
		return "Pants"
	case SlotOuter:
		return "Outerwear"
	case SlotInner:
		return "Innerwear"
	case SlotShoes:
		return "Shoes"
	}
	return string(s)
}

// Item is the analyzed description of a single uploaded garment.
type Item struct {
	Description string `json:"description"`
	Fabric      string `json:"fabric"`
	Style       string `json:"style"`
	ColorHex    string `json:"colorHex,omitempty"`
}

// Analysis aggregates the per-slot items with outfit-level attributes.
// Slots without an uploaded garment are nil.
type Analysis struct {
	Tops         *Item    `json:"tops,omitempty"`
	Pants        *Item    `json:"pants,omitempty"`
	Outer        *Item    `json:"outer,omitempty"`
	Inner        *Item    `json:"inner,omitempty"`
	Shoes        *Item    `json:"shoes,omitempty"`
	OverallStyle string   `json:"overallStyle"`
	Keywords     []string `json:"keywords"`
}

func (a *Analysis) ref(slot Slot) **Item {
	switch slot {
	case SlotTops:
		return &a.Tops
	case SlotPants:
		return &a.Pants
	case SlotOuter:
		return &a.Outer
	case SlotInner:
		return &a.Inner
	case SlotShoes:
		return &a.Shoes
	}
	return nil
}

// Item returns a copy of the item stored for slot.
func (a Analysis) Item(slot Slot) (Item, bool) {
	ptr := a.ref(slot)
	if ptr == nil || *ptr == nil {
		return Item{}, false
	}
	return **ptr, true
}

// Has reports whether slot carries an item.
func (a Analysis) Has(slot Slot) bool {
	_, ok := a.Item(slot)
	return ok
}

// Present returns the populated slots in outfit order.
func (a Analysis) Present() []Slot {
	present := make([]Slot, 0, len(Slots))
	for _, slot := range Slots {
		if a.Has(slot) {
			present = append(present, slot)
		}
	}
	return present
}

// Clone returns a deep copy that shares no pointers or slices with a.
func (a Analysis) Clone() Analysis {
	out := Analysis{OverallStyle: a.OverallStyle}
	if a.Keywords != nil {
		out.Keywords = append([]string(nil), a.Keywords...)
	}
	for _, slot := range Slots {
		if item, ok := a.Item(slot); ok {
			copied := item
			*out.ref(slot) = &copied
		}
	}
	return out
}

// WithItem derives a new analysis where only slot is replaced by item.
// Unknown slots yield an unmodified copy.
func (a Analysis) WithItem(slot Slot, item Item) Analysis {
	out := a.Clone()
	if ptr := out.ref(slot); ptr != nil {
		*ptr = &item
	}
	return out
}

// Without derives a new analysis with slot removed.
func (a Analysis) Without(slot Slot) Analysis {
	out := a.Clone()
	if ptr := out.ref(slot); ptr != nil {
		*ptr = nil
	}
	return out
}
