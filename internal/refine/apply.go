package refine

import (
	"log"
	"strings"

	"fashionStudio/internal/garment"
)

// ApplyDirect applies a single-field change to a copy of analysis and returns it.
// Scene targets, missing slots and custom requests leave the analysis unchanged;
// only the targeted slot can differ from the input.
func ApplyDirect(analysis garment.Analysis, req Request) garment.Analysis {
	slot, ok := req.Target.Slot()
	if !ok {
		log.Printf("refine: target %q needs a model pass, analysis left unchanged", req.Target)
		return analysis.Clone()
	}

	item, ok := analysis.Item(slot)
	if !ok {
		log.Printf("refine: no %s in analysis, nothing to apply", slot)
		return analysis.Clone()
	}

	value := strings.TrimSpace(req.Value)
	if value == "" {
		return analysis.Clone()
	}

	switch req.ChangeType {
	case ChangeColor:
		item.ColorHex = ResolveColor(value)
		item.Description = recolorDescription(item.Description, value)
	case ChangeMaterial:
		item.Fabric = value
		item.Description = prependIfMissing(item.Description, value, value)
	case ChangeStyle:
		item.Style = value
		item.Description = prependIfMissing(item.Description, value, value+" style")
	case ChangePattern:
		item.Description = prependIfMissing(item.Description, value, value)
	case ChangeCustom:
		// Free-form requests carry no field mapping; they only reach the model prompt.
		return analysis.Clone()
	default:
		log.Printf("refine: unsupported change type %q", req.ChangeType)
		return analysis.Clone()
	}

	return analysis.WithItem(slot, item)
}

// prependIfMissing puts prefix in front of description unless needle already
// occurs in it (case-insensitive).
func prependIfMissing(description, needle, prefix string) string {
	if strings.Contains(strings.ToLower(description), strings.ToLower(needle)) {
		return description
	}
	return joinPrefix(prefix, strings.TrimSpace(description))
}
