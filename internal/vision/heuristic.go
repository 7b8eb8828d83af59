package vision

import (
	"context"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	"fashionStudio/internal/garment"
	"fashionStudio/internal/imagery"
)

// HeuristicAnalyzer builds a minimal analysis without a remote model. Each
// uploaded slot gets a generic description and the average color of its image.
type HeuristicAnalyzer struct{}

// AnalyzeGarments implements Analyzer.
func (HeuristicAnalyzer) AnalyzeGarments(_ context.Context, images []imagery.Image) (garment.Analysis, error) {
	set := imagery.Set(images)
	if len(set.Slots()) == 0 {
		return garment.Analysis{}, fmt.Errorf("vision: no garment images")
	}

	var analysis garment.Analysis
	for _, img := range set.Garments() {
		if !img.Slot.Valid() || analysis.Has(img.Slot) {
			continue
		}
		item := garment.Item{
			Description: strings.ToLower(img.Slot.Label()) + " as shown in the garment_" + string(img.Slot) + " image",
		}
		if hex, err := AverageColorHex(img.Data); err == nil {
			item.ColorHex = hex
		}
		analysis = analysis.WithItem(img.Slot, item)
	}
	analysis.OverallStyle = "studio product look"
	return analysis, nil
}

// AverageColorHex returns the mean color of an encoded image as #RRGGBB.
func AverageColorHex(data []byte) (string, error) {
	img, err := imagery.Decode(data)
	if err != nil {
		return "", err
	}
	pixel := imaging.Resize(img, 1, 1, imaging.Box)
	c := pixel.NRGBAAt(0, 0)
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B), nil
}
