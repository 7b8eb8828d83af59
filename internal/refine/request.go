package refine

import (
	"errors"
	"strings"

	"fashionStudio/internal/garment"
)

var (
	// ErrEmptyValue indicates a refinement without a requested value.
	ErrEmptyValue = errors.New("refine: value is required")
	// ErrUnknownTarget indicates a target outside the supported garment and scene targets.
	ErrUnknownTarget = errors.New("refine: unknown target")
	// ErrUnknownChangeType indicates an unsupported change type.
	ErrUnknownChangeType = errors.New("refine: unknown change type")
)

// Target names what a refinement changes: a garment slot or a scene aspect.
type Target string

const (
	TargetTops       Target = "tops"
	TargetPants      Target = "pants"
	TargetOuter      Target = "outer"
	TargetInner      Target = "inner"
	TargetShoes      Target = "shoes"
	TargetBackground Target = "background"
	TargetLighting   Target = "lighting"
	TargetPose       Target = "pose"
)

// Slot maps garment targets onto their slot. Scene targets report false.
func (t Target) Slot() (garment.Slot, bool) {
	switch t {
	case TargetTops:
		return garment.SlotTops, true
	case TargetPants:
		return garment.SlotPants, true
	case TargetOuter:
		return garment.SlotOuter, true
	case TargetInner:
		return garment.SlotInner, true
	case TargetShoes:
		return garment.SlotShoes, true
	case TargetBackground, TargetLighting, TargetPose:
		return "", false
	}
	return "", false
}

// Valid reports whether t is one of the known targets.
func (t Target) Valid() bool {
	switch t {
	case TargetTops, TargetPants, TargetOuter, TargetInner, TargetShoes,
		TargetBackground, TargetLighting, TargetPose:
		return true
	}
	return false
}

// Label is the display name of the target.
func (t Target) Label() string {
	if slot, ok := t.Slot(); ok {
		return slot.Label()
	}
	switch t {
	case TargetBackground:
		return "Background"
	case TargetLighting:
		return "Lighting"
	case TargetPose:
		return "Pose"
	}
	return string(t)
}

// ChangeType selects how the value is applied.
type ChangeType string

const (
	ChangeColor    ChangeType = "color"
	ChangeStyle    ChangeType = "style"
	ChangeMaterial ChangeType = "material"
	ChangePattern  ChangeType = "pattern"
	ChangeCustom   ChangeType = "custom"
)

// Valid reports whether c is a known change type.
func (c ChangeType) Valid() bool {
	switch c {
	case ChangeColor, ChangeStyle, ChangeMaterial, ChangePattern, ChangeCustom:
		return true
	}
	return false
}

// Request is a single targeted change submitted by the user.
type Request struct {
	Target      Target     `json:"target" validate:"required"`
	ChangeType  ChangeType `json:"changeType" validate:"required"`
	Value       string     `json:"value" validate:"required,max=200"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// Validate checks the request against the supported targets and change types.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Value) == "" {
		return ErrEmptyValue
	}
	if !r.Target.Valid() {
		return ErrUnknownTarget
	}
	if !r.ChangeType.Valid() {
		return ErrUnknownChangeType
	}
	return nil
}
