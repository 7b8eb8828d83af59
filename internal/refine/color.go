package refine

import (
	"regexp"
	"sort"
	"strings"
)

// FallbackColorHex is used when a color value cannot be resolved.
const FallbackColorHex = "#808080"

var colorTable = map[string]string{
	"black":        "#000000",
	"white":        "#FFFFFF",
	"off white":    "#FAF9F6",
	"ivory":        "#FFFFF0",
	"cream":        "#FFFDD0",
	"beige":        "#F5F5DC",
	"tan":          "#D2B48C",
	"camel":        "#C19A6B",
	"khaki":        "#C3B091",
	"brown":        "#8B4513",
	"chocolate":    "#7B3F00",
	"gray":         "#808080",
	"grey":         "#808080",
	"charcoal":     "#36454F",
	"silver":       "#C0C0C0",
	"red":          "#FF0000",
	"burgundy":     "#800020",
	"maroon":       "#800000",
	"wine":         "#722F37",
	"crimson":      "#DC143C",
	"coral":        "#FF7F50",
	"orange":       "#FFA500",
	"rust":         "#B7410E",
	"yellow":       "#FFFF00",
	"mustard":      "#FFDB58",
	"gold":         "#FFD700",
	"green":        "#008000",
	"olive":        "#808000",
	"khaki green":  "#8A865D",
	"mint":         "#98FF98",
	"sage":         "#B2AC88",
	"emerald":      "#50C878",
	"forest green": "#228B22",
	"teal":         "#008080",
	"turquoise":    "#40E0D0",
	"blue":         "#0000FF",
	"light blue":   "#ADD8E6",
	"sky blue":     "#87CEEB",
	"royal blue":   "#4169E1",
	"navy":         "#000080",
	"navy blue":    "#000080",
	"indigo":       "#4B0082",
	"purple":       "#800080",
	"lavender":     "#E6E6FA",
	"lilac":        "#C8A2C8",
	"violet":       "#8F00FF",
	"pink":         "#FFC0CB",
	"hot pink":     "#FF69B4",
	"blush":        "#DE5D83",
	"magenta":      "#FF00FF",
	"fuchsia":      "#FF00FF",
}

var (
	hexColorPattern  = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
	colorWordPattern = buildColorWordPattern()
	spacePattern     = regexp.MustCompile(`\s+`)
	orphanPunct      = regexp.MustCompile(`\s+([,.;:!?])`)
	repeatedPunct    = regexp.MustCompile(`([,;:])(\s*[,;:])+`)
)

// buildColorWordPattern matches any table name as a whole word. Longer names
// come first so "navy blue" is removed before "navy" or "blue" can match.
func buildColorWordPattern() *regexp.Regexp {
	names := make([]string, 0, len(colorTable))
	for name := range colorTable {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for i, name := range names {
		names[i] = strings.ReplaceAll(regexp.QuoteMeta(name), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(names, "|") + `)\b`)
}

func normalizeColorName(value string) string {
	return spacePattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(value)), " ")
}

// ResolveColor maps a color name or hex literal onto an uppercase hex value.
// Unknown names and malformed hex literals resolve to FallbackColorHex.
func ResolveColor(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "#") {
		if hexColorPattern.MatchString(trimmed) {
			return strings.ToUpper(trimmed)
		}
		return FallbackColorHex
	}
	if hex, ok := colorTable[normalizeColorName(trimmed)]; ok {
		return hex
	}
	return FallbackColorHex
}

// StripColorWords removes known color names from a free-text description.
func StripColorWords(description string) string {
	return tidy(colorWordPattern.ReplaceAllString(description, " "))
}

// recolorDescription replaces the color wording of description with value.
func recolorDescription(description, value string) string {
	cleaned := StripColorWords(description)
	cleaned = removeValue(cleaned, value)
	return joinPrefix(strings.TrimSpace(value), cleaned)
}

// removeValue drops earlier occurrences of a value that is not in the color
// table, so re-applying the same color does not stack it in the description.
func removeValue(description, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return description
	}
	if strings.HasPrefix(value, "#") {
		fields := strings.Fields(description)
		kept := fields[:0]
		for _, f := range fields {
			if !strings.EqualFold(strings.TrimRight(f, ",.;:"), value) {
				kept = append(kept, f)
			}
		}
		return tidy(strings.Join(kept, " "))
	}
	pattern := strings.ReplaceAll(regexp.QuoteMeta(normalizeColorName(value)), " ", `\s+`)
	re, err := regexp.Compile(`(?i)\b` + pattern + `\b`)
	if err != nil {
		return description
	}
	return tidy(re.ReplaceAllString(description, " "))
}

func tidy(text string) string {
	text = spacePattern.ReplaceAllString(text, " ")
	text = orphanPunct.ReplaceAllString(text, "$1")
	text = repeatedPunct.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(text)
	return strings.TrimLeft(text, ",;: ")
}

func joinPrefix(prefix, rest string) string {
	switch {
	case prefix == "":
		return rest
	case rest == "":
		return prefix
	}
	return prefix + " " + rest
}
