package generation

import (
	"math"

	"fashionStudio/internal/imagery"
	"fashionStudio/internal/prompts"
)

// Purpose is what a shot is used for.
type Purpose string

const (
	PurposeEC       Purpose = "ec"
	PurposeSocial   Purpose = "social"
	PurposeCampaign Purpose = "campaign"
	PurposeLookbook Purpose = "lookbook"
)

// Valid reports whether p is a known purpose.
func (p Purpose) Valid() bool {
	switch p {
	case PurposeEC, PurposeSocial, PurposeCampaign, PurposeLookbook:
		return true
	}
	return false
}

// AspectRatio is the output ratio requested for the purpose.
func (p Purpose) AspectRatio() string {
	switch p {
	case PurposeSocial:
		return "4:5"
	case PurposeCampaign:
		return "16:9"
	case PurposeLookbook:
		return "2:3"
	}
	return "3:4"
}

func (p Purpose) label() string {
	switch p {
	case PurposeEC:
		return "E-commerce"
	case PurposeSocial:
		return "Social"
	case PurposeCampaign:
		return "Campaign"
	case PurposeLookbook:
		return "Lookbook"
	}
	return string(p)
}

func (p Purpose) direction() string {
	switch p {
	case PurposeSocial:
		return "Social media post: vertical 4:5 composition, lifestyle energy, the outfit is the hero of the frame."
	case PurposeCampaign:
		return "Campaign visual: wide 16:9 cinematic composition with negative space for copy, premium brand mood."
	case PurposeLookbook:
		return "Lookbook page: 2:3 editorial composition, the full look clearly readable."
	}
	return ""
}

// ECView is one documentation angle of an e-commerce batch.
type ECView string

const (
	ViewFront        ECView = "front"
	ViewBack         ECView = "back"
	ViewSide         ECView = "side"
	ViewThreeQuarter ECView = "three_quarter"
	ViewBustUp       ECView = "bust_up"
)

// ECViews is the fixed generation order. Front comes first because every
// later view is anchored on its output.
var ECViews = []ECView{ViewFront, ViewBack, ViewSide, ViewThreeQuarter, ViewBustUp}

// Valid reports whether v is a known e-commerce view.
func (v ECView) Valid() bool {
	switch v {
	case ViewFront, ViewBack, ViewSide, ViewThreeQuarter, ViewBustUp:
		return true
	}
	return false
}

// Rotation is the mannequin rotation in radians used for the view.
func (v ECView) Rotation() float64 {
	switch v {
	case ViewBack:
		return math.Pi
	case ViewSide:
		return math.Pi / 2
	case ViewThreeQuarter:
		return math.Pi / 4
	}
	return 0
}

// ForcesNeutralPose reports whether the view overrides the selected pose.
func (v ECView) ForcesNeutralPose() bool {
	return v == ViewBack || v == ViewSide
}

func (v ECView) label() string {
	switch v {
	case ViewFront:
		return "Front"
	case ViewBack:
		return "Back"
	case ViewSide:
		return "Side"
	case ViewThreeQuarter:
		return "Three-quarter"
	case ViewBustUp:
		return "Bust-up"
	}
	return string(v)
}

func (v ECView) direction() string {
	switch v {
	case ViewFront:
		return "E-commerce front view: model centered, full outfit visible, clean catalog framing."
	case ViewBack:
		return "E-commerce back view: show the back of every garment, seams and closures clearly visible."
	case ViewSide:
		return "E-commerce side view: clean profile showing garment silhouette and drape."
	case ViewThreeQuarter:
		return "E-commerce three-quarter view: natural angle that shows both front detail and side silhouette."
	}
	return ""
}

// shot is one planned output of a batch.
type shot struct {
	index   int
	purpose Purpose
	view    ECView
}

// planEC normalizes the requested views into canonical order, adding front
// whenever any other view is requested.
func planEC(requested []ECView) []ECView {
	want := map[ECView]bool{}
	for _, v := range requested {
		if v.Valid() {
			want[v] = true
		}
	}
	if len(want) == 0 {
		return nil
	}
	want[ViewFront] = true

	views := make([]ECView, 0, len(want))
	for _, v := range ECViews {
		if want[v] {
			views = append(views, v)
		}
	}
	return views
}

// ShotCount returns how many previews a batch with these views and purposes
// produces.
func ShotCount(views []ECView, purposes []Purpose) int {
	return len(planEC(views)) + len(planPurposes(purposes))
}

// planPurposes keeps the first occurrence of every non-EC purpose.
func planPurposes(requested []Purpose) []Purpose {
	seen := map[Purpose]bool{}
	var out []Purpose
	for _, p := range requested {
		if !p.Valid() || p == PurposeEC || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

// shotConfig derives the per-shot prompt inputs from the batch settings.
func shotConfig(b Batch, s shot) (prompts.Mannequin, prompts.Scene) {
	mannequin, scene := b.Mannequin, b.Scene
	if s.purpose == PurposeEC {
		mannequin.Rotation = s.view.Rotation()
		if s.view.ForcesNeutralPose() {
			mannequin.Pose = prompts.NeutralPose
		}
		scene.ShotType = prompts.ShotFullBody
		scene.Direction = s.view.direction()
		return mannequin, scene
	}
	scene.Direction = s.purpose.direction()
	return mannequin, scene
}

func withAnchor(images imagery.Set, anchor *imagery.Image) imagery.Set {
	refs := make(imagery.Set, 0, len(images)+1)
	for _, img := range images {
		if img.Role != imagery.RoleAnchor {
			refs = append(refs, img)
		}
	}
	if anchor != nil {
		a := *anchor
		a.Role = imagery.RoleAnchor
		a.Slot = ""
		refs = append(refs, a)
	}
	return refs
}
