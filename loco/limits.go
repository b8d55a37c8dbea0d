package loco

import "math"

// AxisLimits holds the per-wheel kinematic limits and the command-level
// curvature bounds. Like the geometry it is immutable for the process
// lifetime.
type AxisLimits struct {
	// Steer axis absolute position bounds, radians, per wheel unit.
	SteerMinRad [NumWheels]float64
	SteerMaxRad [NumWheels]float64

	// Drive axis rate bounds, radians/second, per wheel unit.
	DriveMinRps [NumWheels]float64
	DriveMaxRps [NumWheels]float64

	// CurvatureMinPerM and CurvatureMaxPerM bound the achievable ackerman
	// path curvature magnitude. Curvature is true curvature (1/turn
	// radius), in 1/metres, signed by the right hand rule about body +z;
	// the bounds apply to its magnitude.
	CurvatureMinPerM float64
	CurvatureMaxPerM float64

	// StraightPerM is the curvature magnitude below which an ackerman
	// command means "drive straight" rather than an infeasibly wide turn.
	// Must not exceed CurvatureMinPerM.
	StraightPerM float64

	// SteerClampTolRad is the per-wheel steer clamp tolerance: a clamp
	// larger than this counts towards hard infeasibility.
	SteerClampTolRad float64
}

// Validate checks the internal consistency of the limits.
func (l *AxisLimits) Validate() error {
	for i := 0; i < NumWheels; i++ {
		if l.SteerMinRad[i] > l.SteerMaxRad[i] {
			return configErrorf("limits: wheel %s steer bounds inverted (%v > %v)",
				wheelNames[i], l.SteerMinRad[i], l.SteerMaxRad[i])
		}
		if l.DriveMinRps[i] > l.DriveMaxRps[i] {
			return configErrorf("limits: wheel %s drive bounds inverted (%v > %v)",
				wheelNames[i], l.DriveMinRps[i], l.DriveMaxRps[i])
		}
	}
	if l.CurvatureMinPerM < 0 || l.CurvatureMaxPerM < 0 {
		return configErrorf("limits: curvature bounds must be non-negative")
	}
	if l.CurvatureMinPerM > l.CurvatureMaxPerM {
		return configErrorf("limits: curvature bounds inverted (%v > %v)",
			l.CurvatureMinPerM, l.CurvatureMaxPerM)
	}
	if l.StraightPerM < 0 || l.StraightPerM > l.CurvatureMinPerM {
		return configErrorf(
			"limits: straight-driving threshold %v outside [0, %v]",
			l.StraightPerM, l.CurvatureMinPerM)
	}
	if l.SteerClampTolRad < 0 {
		return configErrorf("limits: steer clamp tolerance must be non-negative")
	}
	return nil
}

// Verdict is the enforcer's feasibility verdict for one demand set.
type Verdict int

const (
	// VerdictNominal: no demand needed clamping.
	VerdictNominal Verdict = iota

	// VerdictDegraded: at least one demand was clamped, but the command is
	// still honoured approximately.
	VerdictDegraded

	// VerdictHardInfeasible: every steer axis needed clamping beyond the
	// configured tolerance. The command cannot be honoured even
	// approximately.
	VerdictHardInfeasible
)

func (v Verdict) String() string {
	switch v {
	case VerdictNominal:
		return "nominal"
	case VerdictDegraded:
		return "degraded"
	case VerdictHardInfeasible:
		return "hard_infeasible"
	}
	return "unknown"
}

// MarshalText makes verdicts appear as their names in telemetry JSON.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// LimitEnforcer clamps solver output against the axis limits and judges
// command feasibility.
type LimitEnforcer struct {
	limits AxisLimits
}

// NewLimitEnforcer validates the limits and returns an enforcer over them.
func NewLimitEnforcer(limits AxisLimits) (*LimitEnforcer, error) {
	if err := limits.Validate(); err != nil {
		return nil, err
	}
	return &LimitEnforcer{limits: limits}, nil
}

// ClampCommand applies the command-level curvature bounds before the
// solver runs. A curvature magnitude below the straight-driving threshold
// is a valid, distinct case and passes through untouched; one between the
// threshold and the minimum bound, or above the maximum bound, is replaced
// by the nearest feasible curvature of the same sign. The second return is
// true when the command was degraded this way.
func (e *LimitEnforcer) ClampCommand(cmd MotionCommand) (MotionCommand, bool) {
	if cmd.Type != CommandAckerman {
		return cmd, false
	}
	mag := math.Abs(cmd.CurvaturePerM)
	switch {
	case mag < e.limits.StraightPerM:
		return cmd, false
	case mag < e.limits.CurvatureMinPerM:
		cmd.CurvaturePerM = math.Copysign(e.limits.CurvatureMinPerM, cmd.CurvaturePerM)
		return cmd, true
	case mag > e.limits.CurvatureMaxPerM:
		cmd.CurvaturePerM = math.Copysign(e.limits.CurvatureMaxPerM, cmd.CurvaturePerM)
		return cmd, true
	}
	return cmd, false
}

// Enforce clamps every wheel demand to its axis bounds, setting the
// per-wheel Clamped flags, and returns the feasibility verdict. Enforcing
// an already-clamped set is the identity.
func (e *LimitEnforcer) Enforce(raw WheelDemandSet) (WheelDemandSet, Verdict) {
	out := raw
	hardWheels := 0
	anyClamped := false

	for i := range out {
		d := &out[i]

		steer := clamp(d.SteerAngleRad, e.limits.SteerMinRad[i], e.limits.SteerMaxRad[i])
		if steer != d.SteerAngleRad {
			if math.Abs(steer-d.SteerAngleRad) > e.limits.SteerClampTolRad {
				hardWheels++
			}
			d.SteerAngleRad = steer
			d.Clamped = true
		}

		rate := clamp(d.DriveRateRps, e.limits.DriveMinRps[i], e.limits.DriveMaxRps[i])
		if rate != d.DriveRateRps {
			d.DriveRateRps = rate
			d.Clamped = true
		}

		anyClamped = anyClamped || d.Clamped
	}

	switch {
	case hardWheels == NumWheels:
		return out, VerdictHardInfeasible
	case anyClamped:
		return out, VerdictDegraded
	}
	return out, VerdictNominal
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
