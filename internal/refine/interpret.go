package refine

import (
	"fmt"
	"strings"

	"fashionStudio/internal/garment"
)

const (
	fallbackColor  = "current color"
	fallbackFabric = "current fabric"
	fallbackStyle  = "current style"
)

// Interpretation is the confirmable projection of a refinement request.
type Interpretation struct {
	Request Request `json:"request"`
	Summary string  `json:"summary"`
	Prompt  string  `json:"prompt"`
}

// Interpret renders the confirmation summary and model instruction for req.
// It does not modify analysis.
func Interpret(req Request, analysis garment.Analysis) (Interpretation, error) {
	if err := req.Validate(); err != nil {
		return Interpretation{}, err
	}
	req.Value = strings.TrimSpace(req.Value)
	req.Description = strings.TrimSpace(req.Description)

	var item garment.Item
	slot, isGarment := req.Target.Slot()
	if isGarment {
		item, _ = analysis.Item(slot)
	}

	return Interpretation{
		Request: req,
		Summary: summarize(req),
		Prompt:  promptFor(req, item, isGarment, otherSlots(analysis, slot)),
	}, nil
}

func summarize(req Request) string {
	label := strings.ToLower(req.Target.Label())
	switch req.ChangeType {
	case ChangeColor:
		return fmt.Sprintf("Change the %s color to %s", label, req.Value)
	case ChangeMaterial:
		return fmt.Sprintf("Change the %s material to %s", label, req.Value)
	case ChangeStyle:
		return fmt.Sprintf("Restyle the %s as %s", label, req.Value)
	case ChangePattern:
		return fmt.Sprintf("Apply a %s pattern to the %s", req.Value, label)
	case ChangeCustom:
		return fmt.Sprintf("Custom change to the %s: %s", label, customText(req))
	}
	return fmt.Sprintf("Update the %s: %s", label, req.Value)
}

func promptFor(req Request, item garment.Item, isGarment bool, others []garment.Slot) string {
	if !isGarment {
		return scenePrompt(req)
	}

	label := strings.ToLower(req.Target.Label())
	color := orFallback(item.ColorHex, fallbackColor)
	fabric := orFallback(item.Fabric, fallbackFabric)
	style := orFallback(item.Style, fallbackStyle)

	var b strings.Builder
	switch req.ChangeType {
	case ChangeColor:
		fmt.Fprintf(&b, "Change the color of the %s from %s to %s (%s). ", label, color, req.Value, ResolveColor(req.Value))
		fmt.Fprintf(&b, "Keep the fabric (%s) and the style (%s) of the %s exactly as they are.", fabric, style, label)
	case ChangeMaterial:
		fmt.Fprintf(&b, "Change the material of the %s from %s to %s. ", label, fabric, req.Value)
		fmt.Fprintf(&b, "Keep the color (%s) and the style (%s) of the %s exactly as they are.", color, style, label)
	case ChangeStyle:
		fmt.Fprintf(&b, "Change the style of the %s from %s to %s. ", label, style, req.Value)
		fmt.Fprintf(&b, "Keep the color (%s) and the fabric (%s) of the %s exactly as they are.", color, fabric, label)
	case ChangePattern:
		fmt.Fprintf(&b, "Apply a %s pattern to the %s. ", req.Value, label)
		fmt.Fprintf(&b, "Keep the base color (%s), the fabric (%s) and the style (%s) unchanged.", color, fabric, style)
	case ChangeCustom:
		fmt.Fprintf(&b, "Modify the %s as follows: %s. ", label, customText(req))
		fmt.Fprintf(&b, "Its color is %s, its fabric is %s and its style is %s.", color, fabric, style)
	}

	b.WriteString(" Do not change any other garment")
	if len(others) > 0 {
		names := make([]string, 0, len(others))
		for _, slot := range others {
			names = append(names, strings.ToLower(slot.Label()))
		}
		fmt.Fprintf(&b, " (%s must stay identical)", strings.Join(names, ", "))
	}
	b.WriteString(", and keep the model, pose, lighting and background the same.")
	return b.String()
}

func scenePrompt(req Request) string {
	value := req.Value
	if req.ChangeType == ChangeCustom {
		value = customText(req)
	}
	switch req.Target {
	case TargetBackground:
		return fmt.Sprintf("Replace the background with %s. Keep the model, every garment, the pose and the lighting exactly as they are.", value)
	case TargetLighting:
		return fmt.Sprintf("Relight the scene with %s. Keep the model, every garment, the pose and the background exactly as they are.", value)
	case TargetPose:
		return fmt.Sprintf("Change the pose to %s. Keep the model identity, every garment, the lighting and the background exactly as they are.", value)
	}
	return fmt.Sprintf("Apply this change: %s. Keep everything else exactly as it is.", value)
}

func customText(req Request) string {
	if d := strings.TrimSpace(req.Description); d != "" {
		return d
	}
	return req.Value
}

func otherSlots(analysis garment.Analysis, target garment.Slot) []garment.Slot {
	var others []garment.Slot
	for _, slot := range analysis.Present() {
		if slot != target {
			others = append(others, slot)
		}
	}
	return others
}

func orFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
