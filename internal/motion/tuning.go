package motion

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidTuning is wrapped by every Tuning validation failure.
var ErrInvalidTuning = errors.New("invalid tuning")

// DefaultBrakeIntensity is the intensity Brake uses when a caller has no analog value.
const DefaultBrakeIntensity = 0.75

// Tuning holds the per-vehicle constants. Speeds are world units per second,
// rates are per second unless noted.
type Tuning struct {
	SteeringRate    float64 `json:"steeringRate" mapstructure:"steeringRate"`       // degrees/s of yaw at full lock and full speed
	BrakingRate     float64 `json:"brakingRate" mapstructure:"brakingRate"`         // speed removed per second at full brake
	Acceleration    float64 `json:"acceleration" mapstructure:"acceleration"`       // speed added per second at full drive
	MaxForwardSpeed float64 `json:"maxForwardSpeed" mapstructure:"maxForwardSpeed"` // > 0
	MaxReverseSpeed float64 `json:"maxReverseSpeed" mapstructure:"maxReverseSpeed"` // <= 0
	FrictionBrake   float64 `json:"frictionBrake" mapstructure:"frictionBrake"`     // passive slow-down per second
	AboutZero       float64 `json:"aboutZero" mapstructure:"aboutZero"`             // |speed| below this is 0
	ForceChangeRate float64 `json:"forceChangeRate" mapstructure:"forceChangeRate"` // applied force change per tick

	// ResetBrakeIntensity is the brake intensity forced every tick while a reset is pending.
	ResetBrakeIntensity float64 `json:"resetBrakeIntensity" mapstructure:"resetBrakeIntensity"`

	// ScaleForceRate makes ForceChangeRate a per-ReferenceTick value scaled by the
	// frame delta instead of a flat per-call step.
	ScaleForceRate bool    `json:"scaleForceRate" mapstructure:"scaleForceRate"`
	ReferenceTick  float64 `json:"referenceTick" mapstructure:"referenceTick"` // seconds
}

// DefaultTuning returns the stock car.
func DefaultTuning() Tuning {
	return Tuning{
		SteeringRate:        100,
		BrakingRate:         20,
		Acceleration:        30,
		MaxForwardSpeed:     30,
		MaxReverseSpeed:     -10,
		FrictionBrake:       10,
		AboutZero:           0.01,
		ForceChangeRate:     0.05,
		ResetBrakeIntensity: 1,
		ReferenceTick:       1.0 / 60.0,
	}
}

// Validate rejects tunings the controller cannot honour. It never adjusts values.
func (t Tuning) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidTuning}, args...)...))
	}

	fields := []struct {
		name string
		v    float64
	}{
		{"steeringRate", t.SteeringRate},
		{"brakingRate", t.BrakingRate},
		{"acceleration", t.Acceleration},
		{"maxForwardSpeed", t.MaxForwardSpeed},
		{"maxReverseSpeed", t.MaxReverseSpeed},
		{"frictionBrake", t.FrictionBrake},
		{"aboutZero", t.AboutZero},
		{"forceChangeRate", t.ForceChangeRate},
		{"resetBrakeIntensity", t.ResetBrakeIntensity},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			fail("%s must be finite, got %v", f.name, f.v)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	if t.SteeringRate < 0 {
		fail("steeringRate must be >= 0, got %g", t.SteeringRate)
	}
	if t.BrakingRate <= 0 {
		fail("brakingRate must be > 0, got %g", t.BrakingRate)
	}
	if t.Acceleration < 0 {
		fail("acceleration must be >= 0, got %g", t.Acceleration)
	}
	if t.MaxForwardSpeed <= 0 {
		fail("maxForwardSpeed must be > 0, got %g", t.MaxForwardSpeed)
	}
	if t.MaxReverseSpeed > 0 {
		fail("maxReverseSpeed must be <= 0, got %g", t.MaxReverseSpeed)
	}
	if t.FrictionBrake < 0 {
		fail("frictionBrake must be >= 0, got %g", t.FrictionBrake)
	}
	if t.AboutZero <= 0 {
		fail("aboutZero must be > 0, got %g", t.AboutZero)
	}
	if t.ForceChangeRate < 0 {
		fail("forceChangeRate must be >= 0, got %g", t.ForceChangeRate)
	}
	if t.ResetBrakeIntensity <= 0 || t.ResetBrakeIntensity > 1 {
		fail("resetBrakeIntensity must be in (0, 1], got %g", t.ResetBrakeIntensity)
	}
	if t.ScaleForceRate && !(t.ReferenceTick > 0) {
		fail("referenceTick must be > 0 when scaleForceRate is set, got %g", t.ReferenceTick)
	}

	return errors.Join(errs...)
}

// Map flattens the numeric constants for recording.
func (t Tuning) Map() map[string]float64 {
	m := map[string]float64{
		"steeringRate":        t.SteeringRate,
		"brakingRate":         t.BrakingRate,
		"acceleration":        t.Acceleration,
		"maxForwardSpeed":     t.MaxForwardSpeed,
		"maxReverseSpeed":     t.MaxReverseSpeed,
		"frictionBrake":       t.FrictionBrake,
		"aboutZero":           t.AboutZero,
		"forceChangeRate":     t.ForceChangeRate,
		"resetBrakeIntensity": t.ResetBrakeIntensity,
	}
	if t.ScaleForceRate {
		m["referenceTick"] = t.ReferenceTick
	}
	return m
}
