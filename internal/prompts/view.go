package prompts

import "math"

// View is the camera angle relative to the model.
type View string

const (
	ViewFrontal               View = "frontal"
	ViewThreeQuarterRight     View = "three_quarter_right"
	ViewSideRight             View = "side_right"
	ViewBackThreeQuarterRight View = "back_three_quarter_right"
	ViewThreeQuarterLeft      View = "three_quarter_left"
	ViewSideLeft              View = "side_left"
	ViewBackThreeQuarterLeft  View = "back_three_quarter_left"
	ViewBack                  View = "back"
)

// Phrase describes the view for the image model.
func (v View) Phrase() string {
	switch v {
	case ViewFrontal:
		return "frontal view, the model faces the camera directly"
	case ViewThreeQuarterRight:
		return "three-quarter view turned to the right, about 45 degrees"
	case ViewSideRight:
		return "side profile view facing right, 90 degrees"
	case ViewBackThreeQuarterRight:
		return "back three-quarter view over the right shoulder"
	case ViewThreeQuarterLeft:
		return "three-quarter view turned to the left, about 45 degrees"
	case ViewSideLeft:
		return "side profile view facing left, 90 degrees"
	case ViewBackThreeQuarterLeft:
		return "back three-quarter view over the left shoulder"
	case ViewBack:
		return "direct back view, the model faces away from the camera and the back of every garment is visible"
	}
	return string(v)
}

// NormalizeDegrees converts radians to degrees in (-180, 180], rounded to 1e-6.
func NormalizeDegrees(rotation float64) float64 {
	deg := math.Mod(rotation*180/math.Pi, 360)
	if deg > 180 {
		deg -= 360
	}
	if deg <= -180 {
		deg += 360
	}
	return math.Round(deg*1e6) / 1e6
}

// ResolveView buckets a rotation in radians into one of the eight views.
// Lower bounds are inclusive, so exactly 20 degrees is already three-quarter.
func ResolveView(rotation float64) View {
	return ViewForDegrees(NormalizeDegrees(rotation))
}

// ViewForDegrees buckets a normalized angle in degrees.
func ViewForDegrees(deg float64) View {
	switch {
	case deg >= -20 && deg < 20:
		return ViewFrontal
	case deg >= 20 && deg < 70:
		return ViewThreeQuarterRight
	case deg >= 70 && deg < 110:
		return ViewSideRight
	case deg >= 110 && deg < 160:
		return ViewBackThreeQuarterRight
	case deg >= -70 && deg < -20:
		return ViewThreeQuarterLeft
	case deg >= -110 && deg < -70:
		return ViewSideLeft
	case deg >= -160 && deg < -110:
		return ViewBackThreeQuarterLeft
	}
	return ViewBack
}
