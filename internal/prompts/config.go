package prompts

import "fashionStudio/internal/garment"

// Gender of the generated model.
type Gender string

const (
	GenderFemale      Gender = "female"
	GenderMale        Gender = "male"
	GenderAndrogynous Gender = "androgynous"
)

// Valid reports whether g is a known gender option.
func (g Gender) Valid() bool { return g.phrase() != "" }

func (g Gender) phrase() string {
	switch g {
	case GenderFemale:
		return "woman"
	case GenderMale:
		return "man"
	case GenderAndrogynous:
		return "androgynous person"
	}
	return ""
}

// BodyType of the generated model.
type BodyType string

const (
	BodySlim     BodyType = "slim"
	BodyAthletic BodyType = "athletic"
	BodyAverage  BodyType = "average"
	BodyCurvy    BodyType = "curvy"
	BodyPlusSize BodyType = "plus_size"
	BodyPetite   BodyType = "petite"
)

// Valid reports whether b is a known body type.
func (b BodyType) Valid() bool { return b.phrase() != "" }

func (b BodyType) phrase() string {
	switch b {
	case BodySlim:
		return "a slim build"
	case BodyAthletic:
		return "an athletic, toned build"
	case BodyAverage:
		return "an average build"
	case BodyCurvy:
		return "a curvy build"
	case BodyPlusSize:
		return "a plus-size build"
	case BodyPetite:
		return "a petite frame"
	}
	return ""
}

// Pose of the generated model.
type Pose string

const (
	PoseStanding       Pose = "standing"
	PoseWalking        Pose = "walking"
	PoseHandsInPockets Pose = "hands_in_pockets"
	PoseContrapposto   Pose = "contrapposto"
	PoseArmsCrossed    Pose = "arms_crossed"
	PoseLeaning        Pose = "leaning"
	PoseSeated         Pose = "seated"
	PoseDynamic        Pose = "dynamic"
)

// NeutralPose is forced for documentation views such as back and side shots.
const NeutralPose = PoseStanding

// Valid reports whether p is a known pose.
func (p Pose) Valid() bool { return p.phrase() != "" }

func (p Pose) phrase() string {
	switch p {
	case PoseStanding:
		return "standing straight in a neutral stance, arms relaxed at the sides, weight evenly distributed"
	case PoseWalking:
		return "mid-stride walking toward the camera with natural arm swing"
	case PoseHandsInPockets:
		return "standing relaxed with both hands casually in the pockets"
	case PoseContrapposto:
		return "contrapposto stance with weight on one leg and a subtle hip shift"
	case PoseArmsCrossed:
		return "standing confidently with arms crossed"
	case PoseLeaning:
		return "leaning lightly against a wall with one knee bent"
	case PoseSeated:
		return "seated on a minimalist stool with an upright posture"
	case PoseDynamic:
		return "dynamic editorial pose with movement in the garments"
	}
	return ""
}

// LightingPreset selects the lighting setup.
type LightingPreset string

const (
	LightingStudioSoftbox   LightingPreset = "studio_softbox"
	LightingNaturalDaylight LightingPreset = "natural_daylight"
	LightingGoldenHour      LightingPreset = "golden_hour"
	LightingDramaticRim     LightingPreset = "dramatic_rim"
	LightingHighKey         LightingPreset = "high_key"
	LightingLowKey          LightingPreset = "low_key"
	LightingOvercast        LightingPreset = "overcast"
)

// Valid reports whether l is a known preset.
func (l LightingPreset) Valid() bool { return l.phrase() != "" }

func (l LightingPreset) phrase() string {
	switch l {
	case LightingStudioSoftbox:
		return "large softbox key light at 45 degrees with a white fill card, soft even shadows"
	case LightingNaturalDaylight:
		return "soft natural daylight from a large window, true-to-life colors"
	case LightingGoldenHour:
		return "warm low-angle golden hour sunlight with gentle lens glow"
	case LightingDramaticRim:
		return "hard dramatic rim lighting separating the subject from a dark backdrop"
	case LightingHighKey:
		return "bright high-key lighting with minimal shadows"
	case LightingLowKey:
		return "moody low-key lighting with deep controlled shadows"
	case LightingOvercast:
		return "diffused overcast daylight with flat, even illumination"
	}
	return ""
}

// ShotType selects the framing.
type ShotType string

const (
	ShotFullBody     ShotType = "full_body"
	ShotThreeQuarter ShotType = "three_quarter"
	ShotWaistUp      ShotType = "waist_up"
	ShotCloseUp      ShotType = "close_up"
)

// Valid reports whether s is a known shot type.
func (s ShotType) Valid() bool { return s.phrase() != "" }

func (s ShotType) phrase() string {
	switch s {
	case ShotFullBody:
		return "full-body shot, head to toe in frame with breathing room above the head and below the feet"
	case ShotThreeQuarter:
		return "three-quarter length shot, framed from the head to just above the knees"
	case ShotWaistUp:
		return "waist-up shot focused on the upper garments"
	case ShotCloseUp:
		return "close-up detail shot highlighting fabric texture and construction"
	}
	return ""
}

// Lighting describes the light setup of a shot.
type Lighting struct {
	Preset    LightingPreset `json:"preset"`
	Intensity float64        `json:"intensity"`
	Color     string         `json:"color"`
}

// Mannequin describes the generated model and its orientation.
// Rotation is in radians, 0 faces the camera.
type Mannequin struct {
	Gender    Gender   `json:"gender"`
	Age       int      `json:"age"`
	Ethnicity string   `json:"ethnicity"`
	BodyType  BodyType `json:"bodyType"`
	HeightCm  float64  `json:"heightCm,omitempty"`
	WeightKg  float64  `json:"weightKg,omitempty"`
	Pose      Pose     `json:"pose"`
	Rotation  float64  `json:"rotation"`
}

// Scene describes camera and location.
type Scene struct {
	ShotType    ShotType `json:"shotType"`
	FocalLength int      `json:"focalLength"`
	Location    string   `json:"location"`
	Direction   string   `json:"direction,omitempty"`
}

// GarmentMeasurements holds flat garment dimensions. Zero values are omitted.
type GarmentMeasurements struct {
	ShoulderCm float64 `json:"shoulderCm,omitempty"`
	ChestCm    float64 `json:"chestCm,omitempty"`
	WaistCm    float64 `json:"waistCm,omitempty"`
	HipCm      float64 `json:"hipCm,omitempty"`
	LengthCm   float64 `json:"lengthCm,omitempty"`
	SleeveCm   float64 `json:"sleeveCm,omitempty"`
	InseamCm   float64 `json:"inseamCm,omitempty"`
	ShoeSizeEU float64 `json:"shoeSizeEu,omitempty"`
}

// Measurements maps slots onto their measured dimensions.
type Measurements map[garment.Slot]GarmentMeasurements

// Defaults fills unset configuration with the studio defaults.
func Defaults(lighting Lighting, mannequin Mannequin, scene Scene) (Lighting, Mannequin, Scene) {
	if !lighting.Preset.Valid() {
		lighting.Preset = LightingStudioSoftbox
	}
	if lighting.Intensity <= 0 {
		lighting.Intensity = 0.8
	}
	if lighting.Color == "" {
		lighting.Color = "neutral white (5600K)"
	}
	if !mannequin.Gender.Valid() {
		mannequin.Gender = GenderFemale
	}
	if !mannequin.BodyType.Valid() {
		mannequin.BodyType = BodyAverage
	}
	if !mannequin.Pose.Valid() {
		mannequin.Pose = NeutralPose
	}
	if !scene.ShotType.Valid() {
		scene.ShotType = ShotFullBody
	}
	if scene.FocalLength <= 0 {
		scene.FocalLength = 85
	}
	if scene.Location == "" {
		scene.Location = "seamless light-gray studio backdrop"
	}
	return lighting, mannequin, scene
}
