package prompts

import (
	"fmt"
	"strconv"
	"strings"

	"fashionStudio/internal/garment"
	"fashionStudio/internal/imagery"
)

const (
	cameraTemplate = "Technical specs: shot on a full-frame digital camera with an %dmm prime lens, f/2.8, ISO 100, 1/250s shutter. High-end fashion editorial photography, magazine quality."

	identityClause = "IDENTITY: the person in the model_reference image is the model. Preserve their exact face, facial structure, skin tone, hairstyle and body proportions."
	outfitIdentity = "The model from the model_reference image wears exactly this outfit; do not alter their identity."
	anchorClause   = "CONSISTENCY: match the person, the outfit and every garment detail shown in the anchor_model image exactly. Only the camera angle may change."

	standardSizing = "Fit: standard sizing, every garment fits true to size with a natural drape."
	postProcessing = "Post-processing: photorealistic, 8k resolution, sharp focus, natural skin texture, accurate fabric texture, professional color grading, no text, no watermark."
)

// CompilePrompt assembles the full generation prompt for one shot. It depends
// only on its arguments; equal inputs always produce equal text.
func CompilePrompt(analysis garment.Analysis, lighting Lighting, mannequin Mannequin, scene Scene, images imagery.Set, measurements Measurements) string {
	lighting, mannequin, scene = Defaults(lighting, mannequin, scene)
	hasModel := images.HasModel()

	sections := []string{
		fmt.Sprintf(cameraTemplate, scene.FocalLength),
		"Framing: " + scene.ShotType.phrase() + ".",
		subjectBlock(mannequin, hasModel),
		fitBlock(analysis, measurements),
		lightingBlock(lighting),
		outfitBlock(analysis, hasModel),
	}
	if style := styleBlock(analysis); style != "" {
		sections = append(sections, style)
	}
	sections = append(sections, sceneBlock(scene, mannequin))
	if images.Has(imagery.RoleAnchor) {
		sections = append(sections, anchorClause)
	}
	sections = append(sections, postProcessing)

	return strings.Join(sections, "\n\n")
}

func subjectBlock(m Mannequin, hasModel bool) string {
	var b strings.Builder
	b.WriteString("Subject: ")
	if m.Age > 0 {
		fmt.Fprintf(&b, "a %d-year-old ", m.Age)
	} else {
		b.WriteString("an adult ")
	}
	if ethnicity := strings.TrimSpace(m.Ethnicity); ethnicity != "" {
		fmt.Fprintf(&b, "%s ", ethnicity)
	}
	fmt.Fprintf(&b, "%s with %s", m.Gender.phrase(), m.BodyType.phrase())
	if m.HeightCm > 0 {
		fmt.Fprintf(&b, ", %s cm tall", formatNumber(m.HeightCm))
	}
	if m.WeightKg > 0 {
		fmt.Fprintf(&b, ", weighing %s kg", formatNumber(m.WeightKg))
	}
	b.WriteString(".")
	fmt.Fprintf(&b, "\nPose: %s.", m.Pose.phrase())
	if hasModel {
		b.WriteString("\n" + identityClause)
	}
	return b.String()
}

func fitBlock(analysis garment.Analysis, measurements Measurements) string {
	if len(measurements) == 0 {
		return standardSizing
	}

	var lines []string
	for _, slot := range garment.Slots {
		m, ok := measurements[slot]
		if !ok || !analysis.Has(slot) {
			continue
		}
		if dims := formatMeasurements(m); dims != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", slot.Label(), dims))
		}
	}
	if len(lines) == 0 {
		return standardSizing
	}
	return "Precision fit (render garments to these exact dimensions):\n" + strings.Join(lines, "\n")
}

func formatMeasurements(m GarmentMeasurements) string {
	fields := []struct {
		name  string
		value float64
		unit  string
	}{
		{"shoulder width", m.ShoulderCm, "cm"},
		{"chest", m.ChestCm, "cm"},
		{"waist", m.WaistCm, "cm"},
		{"hip", m.HipCm, "cm"},
		{"length", m.LengthCm, "cm"},
		{"sleeve", m.SleeveCm, "cm"},
		{"inseam", m.InseamCm, "cm"},
		{"size", m.ShoeSizeEU, "EU"},
	}
	var parts []string
	for _, f := range fields {
		if f.value > 0 {
			parts = append(parts, fmt.Sprintf("%s %s %s", f.name, formatNumber(f.value), f.unit))
		}
	}
	return strings.Join(parts, ", ")
}

func lightingBlock(l Lighting) string {
	return fmt.Sprintf("Lighting: %s, intensity %d%%, light color %s.", l.Preset.phrase(), intensityPercent(l.Intensity), l.Color)
}

func intensityPercent(v float64) int {
	if v > 1 {
		v = v / 100
	}
	if v > 1 {
		v = 1
	}
	return int(v*100 + 0.5)
}

func outfitBlock(analysis garment.Analysis, hasModel bool) string {
	var b strings.Builder
	b.WriteString("Outfit:")
	for _, slot := range analysis.Present() {
		item, _ := analysis.Item(slot)
		fmt.Fprintf(&b, "\n- %s", garmentClause(slot, item))
	}
	if hasModel {
		b.WriteString("\n" + outfitIdentity)
	}
	return b.String()
}

func garmentClause(slot garment.Slot, item garment.Item) string {
	var parts []string
	if d := strings.TrimSpace(item.Description); d != "" {
		parts = append(parts, d)
	}
	if f := strings.TrimSpace(item.Fabric); f != "" {
		parts = append(parts, "fabric: "+f)
	}
	if s := strings.TrimSpace(item.Style); s != "" {
		parts = append(parts, "style: "+s)
	}
	if c := strings.TrimSpace(item.ColorHex); c != "" {
		parts = append(parts, "exact color "+c)
	}
	if len(parts) == 0 {
		parts = append(parts, "as shown in the garment_"+string(slot)+" reference image")
	}
	return slot.Label() + ": " + strings.Join(parts, "; ") + "."
}

func styleBlock(analysis garment.Analysis) string {
	var lines []string
	if s := strings.TrimSpace(analysis.OverallStyle); s != "" {
		lines = append(lines, "Overall style: "+s+".")
	}
	var keywords []string
	for _, k := range analysis.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	if len(keywords) > 0 {
		lines = append(lines, "Keywords: "+strings.Join(keywords, ", ")+".")
	}
	return strings.Join(lines, "\n")
}

func sceneBlock(scene Scene, m Mannequin) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scene: %s.", strings.TrimSuffix(strings.TrimSpace(scene.Location), "."))
	fmt.Fprintf(&b, "\nView: %s.", ResolveView(m.Rotation).Phrase())
	if d := strings.TrimSpace(scene.Direction); d != "" {
		fmt.Fprintf(&b, "\nDirection: %s", d)
	}
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
