package prompts

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"fashionStudio/internal/garment"
	"fashionStudio/internal/imagery"
)

func topsAndShoes() garment.Analysis {
	return garment.Analysis{
		Tops:         &garment.Item{Description: "cropped boxy knit sweater", Fabric: "merino wool", Style: "minimal", ColorHex: "#F5F5DC"},
		Shoes:        &garment.Item{Description: "chunky white sneakers", Fabric: "leather", Style: "sporty"},
		OverallStyle: "scandinavian casual",
		Keywords:     []string{"cozy", "neutral tones"},
	}
}

func TestResolveView(t *testing.T) {
	cases := []struct {
		name     string
		rotation float64
		want     View
	}{
		{"zero", 0, ViewFrontal},
		{"quarter turn", math.Pi / 2, ViewSideRight},
		{"negative quarter turn", -math.Pi / 2, ViewSideLeft},
		{"half turn", math.Pi, ViewBack},
		{"negative half turn", -math.Pi, ViewBack},
		{"twenty degrees", 20 * math.Pi / 180, ViewThreeQuarterRight},
		{"minus twenty degrees", -20 * math.Pi / 180, ViewFrontal},
		{"minus twenty one degrees", -21 * math.Pi / 180, ViewThreeQuarterLeft},
		{"just under twenty", 19.9 * math.Pi / 180, ViewFrontal},
		{"seventy degrees", 70 * math.Pi / 180, ViewSideRight},
		{"one hundred ten", 110 * math.Pi / 180, ViewBackThreeQuarterRight},
		{"one hundred sixty", 160 * math.Pi / 180, ViewBack},
		{"minus one hundred ten", -110 * math.Pi / 180, ViewSideLeft},
		{"minus one hundred sixty", -160 * math.Pi / 180, ViewBackThreeQuarterLeft},
		{"full turn wraps", 2 * math.Pi, ViewFrontal},
		{"wraps past half turn", 3 * math.Pi / 2, ViewSideLeft},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolveView(tc.rotation))
		})
	}
}

func TestViewForDegreesBoundaries(t *testing.T) {
	assert.Equal(t, ViewThreeQuarterRight, ViewForDegrees(20))
	assert.Equal(t, ViewFrontal, ViewForDegrees(-20))
	assert.Equal(t, ViewThreeQuarterLeft, ViewForDegrees(-70))
	assert.Equal(t, ViewBack, ViewForDegrees(180))
	assert.Equal(t, 180.0, NormalizeDegrees(-math.Pi))
}

func TestCompilePromptOnlyPresentSlots(t *testing.T) {
	prompt := CompilePrompt(topsAndShoes(), Lighting{}, Mannequin{}, Scene{}, nil, nil)

	assert.Contains(t, prompt, "Tops: cropped boxy knit sweater; fabric: merino wool; style: minimal; exact color #F5F5DC.")
	assert.Contains(t, prompt, "Shoes: chunky white sneakers; fabric: leather; style: sporty.")
	assert.Equal(t, 1, strings.Count(prompt, "Tops:"))
	assert.Equal(t, 1, strings.Count(prompt, "Shoes:"))

	lower := strings.ToLower(prompt)
	for _, absent := range []string{"pants", "outerwear", "innerwear"} {
		assert.NotContains(t, lower, absent)
	}
}

func TestCompilePromptSections(t *testing.T) {
	prompt := CompilePrompt(
		topsAndShoes(),
		Lighting{Preset: LightingGoldenHour, Intensity: 0.65, Color: "#FFD8A8"},
		Mannequin{Gender: GenderMale, Age: 31, Ethnicity: "Korean", BodyType: BodyAthletic, HeightCm: 182, WeightKg: 74.5, Pose: PoseWalking},
		Scene{ShotType: ShotThreeQuarter, FocalLength: 50, Location: "a cobblestone street in Copenhagen"},
		nil,
		nil,
	)

	ordered := []string{
		"50mm prime lens",
		"Framing: three-quarter length shot",
		"Subject: a 31-year-old Korean man with an athletic, toned build, 182 cm tall, weighing 74.5 kg.",
		"Pose: mid-stride walking",
		standardSizing,
		"Lighting: warm low-angle golden hour sunlight with gentle lens glow, intensity 65%, light color #FFD8A8.",
		"Outfit:",
		"Overall style: scandinavian casual.",
		"Keywords: cozy, neutral tones.",
		"Scene: a cobblestone street in Copenhagen.",
		"View: frontal view",
		"Post-processing:",
	}
	last := -1
	for _, fragment := range ordered {
		idx := strings.Index(prompt, fragment)
		if assert.GreaterOrEqual(t, idx, 0, "missing %q", fragment) {
			assert.Greater(t, idx, last, "%q out of order", fragment)
			last = idx
		}
	}
	assert.NotContains(t, prompt, "model_reference")
}

func TestCompilePromptIdentityClauseTwiceWithModelImage(t *testing.T) {
	images := imagery.Set{
		{Role: imagery.RoleGarment, Slot: garment.SlotTops, Data: []byte{1}},
		{Role: imagery.RoleModel, Data: []byte{2}},
	}
	prompt := CompilePrompt(topsAndShoes(), Lighting{}, Mannequin{}, Scene{}, images, nil)

	subject := prompt[strings.Index(prompt, "Subject:"):strings.Index(prompt, "Lighting:")]
	outfit := prompt[strings.Index(prompt, "Outfit:"):]
	assert.Contains(t, subject, identityClause)
	assert.Contains(t, outfit, outfitIdentity)
}

func TestCompilePromptMeasurements(t *testing.T) {
	measurements := Measurements{
		garment.SlotTops:  {ChestCm: 104, LengthCm: 62.5, SleeveCm: 60},
		garment.SlotShoes: {ShoeSizeEU: 42},
		garment.SlotPants: {InseamCm: 80},
	}
	prompt := CompilePrompt(topsAndShoes(), Lighting{}, Mannequin{}, Scene{}, nil, measurements)

	assert.Contains(t, prompt, "Precision fit")
	assert.Contains(t, prompt, "- Tops: chest 104 cm, length 62.5 cm, sleeve 60 cm")
	assert.Contains(t, prompt, "- Shoes: size 42 EU")
	assert.NotContains(t, prompt, "inseam", "measurements for absent slots are ignored")
	assert.NotContains(t, prompt, standardSizing)
}

func TestCompilePromptAnchorAndDirection(t *testing.T) {
	images := imagery.Set{{Role: imagery.RoleAnchor, Data: []byte{9}}}
	prompt := CompilePrompt(topsAndShoes(), Lighting{}, Mannequin{Rotation: math.Pi}, Scene{Direction: "E-commerce back view."}, images, nil)

	assert.Contains(t, prompt, anchorClause)
	assert.Contains(t, prompt, ViewBack.Phrase())
	assert.Contains(t, prompt, "Direction: E-commerce back view.")
}

func TestCompilePromptIsDeterministic(t *testing.T) {
	a := CompilePrompt(topsAndShoes(), Lighting{}, Mannequin{Age: 25}, Scene{}, nil, Measurements{garment.SlotTops: {ChestCm: 90}})
	b := CompilePrompt(topsAndShoes(), Lighting{}, Mannequin{Age: 25}, Scene{}, nil, Measurements{garment.SlotTops: {ChestCm: 90}})
	assert.Equal(t, a, b)
}

func TestEnumPhrasesAreExhaustive(t *testing.T) {
	for _, g := range []Gender{GenderFemale, GenderMale, GenderAndrogynous} {
		assert.True(t, g.Valid(), g)
	}
	for _, b := range []BodyType{BodySlim, BodyAthletic, BodyAverage, BodyCurvy, BodyPlusSize, BodyPetite} {
		assert.True(t, b.Valid(), b)
	}
	for _, p := range []Pose{PoseStanding, PoseWalking, PoseHandsInPockets, PoseContrapposto, PoseArmsCrossed, PoseLeaning, PoseSeated, PoseDynamic} {
		assert.True(t, p.Valid(), p)
	}
	for _, l := range []LightingPreset{LightingStudioSoftbox, LightingNaturalDaylight, LightingGoldenHour, LightingDramaticRim, LightingHighKey, LightingLowKey, LightingOvercast} {
		assert.True(t, l.Valid(), l)
	}
	for _, s := range []ShotType{ShotFullBody, ShotThreeQuarter, ShotWaistUp, ShotCloseUp} {
		assert.True(t, s.Valid(), s)
	}
	views := []View{ViewFrontal, ViewThreeQuarterRight, ViewSideRight, ViewBackThreeQuarterRight, ViewThreeQuarterLeft, ViewSideLeft, ViewBackThreeQuarterLeft, ViewBack}
	for _, v := range views {
		assert.NotEqual(t, string(v), v.Phrase())
	}
	assert.False(t, Pose("moonwalk").Valid())
}
