package loco

import (
	"math"
	"testing"
)

// testLimits returns the breadboard limit set: steer +-1.0 rad, drive
// +-10 rad/s on every wheel.
func testLimits() AxisLimits {
	var l AxisLimits
	for i := 0; i < NumWheels; i++ {
		l.SteerMinRad[i] = -1.0
		l.SteerMaxRad[i] = 1.0
		l.DriveMinRps[i] = -10.0
		l.DriveMaxRps[i] = 10.0
	}
	l.CurvatureMinPerM = 0.05
	l.CurvatureMaxPerM = 5.98
	l.StraightPerM = 0.01
	l.SteerClampTolRad = 0.05
	return l
}

func testEnforcer(t *testing.T) *LimitEnforcer {
	t.Helper()
	e, err := NewLimitEnforcer(testLimits())
	if err != nil {
		t.Fatalf("NewLimitEnforcer: %v", err)
	}
	return e
}

func TestAxisLimitsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mangle func(*AxisLimits)
	}{
		{"inverted steer bounds", func(l *AxisLimits) { l.SteerMinRad[WheelMR] = 2.0 }},
		{"inverted drive bounds", func(l *AxisLimits) { l.DriveMaxRps[WheelFL] = -20.0 }},
		{"negative curvature bound", func(l *AxisLimits) { l.CurvatureMinPerM = -0.1 }},
		{"inverted curvature bounds", func(l *AxisLimits) { l.CurvatureMinPerM = 7.0 }},
		{"straight threshold above min bound", func(l *AxisLimits) { l.StraightPerM = 0.1 }},
		{"negative clamp tolerance", func(l *AxisLimits) { l.SteerClampTolRad = -0.01 }},
	}

	for _, tc := range cases {
		l := testLimits()
		tc.mangle(&l)
		if _, err := NewLimitEnforcer(l); err == nil {
			t.Errorf("%s: NewLimitEnforcer accepted invalid limits", tc.name)
		}
	}

	valid := testLimits()
	if err := valid.Validate(); err != nil {
		t.Errorf("valid limits rejected: %v", err)
	}
}

func TestClampCommand(t *testing.T) {
	e := testEnforcer(t)

	cases := []struct {
		name         string
		cmd          MotionCommand
		wantCurv     float64
		wantDegraded bool
	}{
		{"zero curvature", Ackerman(0.1, 0.0), 0.0, false},
		{"below straight threshold", Ackerman(0.1, 0.005), 0.005, false},
		{"between threshold and min", Ackerman(0.1, 0.02), 0.05, true},
		{"between threshold and min, right", Ackerman(0.1, -0.02), -0.05, true},
		{"in range", Ackerman(0.1, 1.0), 1.0, false},
		{"at max bound", Ackerman(0.1, 5.98), 5.98, false},
		{"above max", Ackerman(0.1, 6.0), 5.98, true},
		{"above max, right", Ackerman(0.1, -7.0), -5.98, true},
	}

	for _, tc := range cases {
		got, degraded := e.ClampCommand(tc.cmd)
		if got.CurvaturePerM != tc.wantCurv || degraded != tc.wantDegraded {
			t.Errorf("%s: ClampCommand = (curvature %v, degraded %v), want (%v, %v)",
				tc.name, got.CurvaturePerM, degraded, tc.wantCurv, tc.wantDegraded)
		}
		if got.Type != tc.cmd.Type || got.SpeedMps != tc.cmd.SpeedMps {
			t.Errorf("%s: ClampCommand altered fields other than curvature", tc.name)
		}
	}
}

func TestClampCommandIgnoresNonAckerman(t *testing.T) {
	e := testEnforcer(t)

	for _, cmd := range []MotionCommand{Stop(), PointTurn(99.0)} {
		got, degraded := e.ClampCommand(cmd)
		if got != cmd || degraded {
			t.Errorf("ClampCommand(%s) = (%+v, %v), want command unchanged", cmd.Type, got, degraded)
		}
	}
}

func TestEnforceNominal(t *testing.T) {
	e := testEnforcer(t)

	var raw WheelDemandSet
	for i := range raw {
		raw[i] = WheelDemand{SteerAngleRad: 0.5, DriveRateRps: 3.0}
	}

	out, verdict := e.Enforce(raw)
	if verdict != VerdictNominal {
		t.Fatalf("verdict = %v, want nominal", verdict)
	}
	if out != raw {
		t.Errorf("in-range demands were altered: %+v", out)
	}
}

func TestEnforceDegraded(t *testing.T) {
	e := testEnforcer(t)

	var raw WheelDemandSet
	for i := range raw {
		raw[i] = WheelDemand{SteerAngleRad: 0.2, DriveRateRps: 2.0}
	}
	raw[WheelFR].SteerAngleRad = 1.4  // beyond +1.0
	raw[WheelRL].DriveRateRps = -12.0 // beyond -10.0

	out, verdict := e.Enforce(raw)
	if verdict != VerdictDegraded {
		t.Fatalf("verdict = %v, want degraded", verdict)
	}
	if out[WheelFR].SteerAngleRad != 1.0 || !out[WheelFR].Clamped {
		t.Errorf("FR = %+v, want steer clamped to 1.0", out[WheelFR])
	}
	if out[WheelRL].DriveRateRps != -10.0 || !out[WheelRL].Clamped {
		t.Errorf("RL = %+v, want rate clamped to -10.0", out[WheelRL])
	}
	for _, i := range []int{WheelFL, WheelML, WheelMR, WheelRR} {
		if out[i].Clamped {
			t.Errorf("wheel %s flagged clamped without violating a bound", WheelName(i))
		}
		if out[i] != raw[i] {
			t.Errorf("wheel %s altered: %+v -> %+v", WheelName(i), raw[i], out[i])
		}
	}
}

func TestEnforceIdempotent(t *testing.T) {
	e := testEnforcer(t)

	var raw WheelDemandSet
	for i := range raw {
		raw[i] = WheelDemand{SteerAngleRad: 1.5, DriveRateRps: 11.0}
	}

	once, v1 := e.Enforce(raw)
	twice, v2 := e.Enforce(once)

	if once != twice {
		t.Errorf("Enforce is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
	if v1 != v2 {
		t.Errorf("verdict changed on re-enforcement: %v -> %v", v1, v2)
	}
	for i := range twice {
		if !twice[i].Clamped {
			t.Errorf("wheel %s lost its clamped flag on re-enforcement", WheelName(i))
		}
	}
}

func TestEnforceHardInfeasible(t *testing.T) {
	e := testEnforcer(t)

	// All six steer axes clamped beyond the 0.05 rad tolerance.
	var raw WheelDemandSet
	for i := range raw {
		raw[i] = WheelDemand{SteerAngleRad: 1.2, DriveRateRps: 1.0}
	}

	out, verdict := e.Enforce(raw)
	if verdict != VerdictHardInfeasible {
		t.Fatalf("verdict = %v, want hard infeasible", verdict)
	}
	for i := range out {
		if out[i].SteerAngleRad != 1.0 || !out[i].Clamped {
			t.Errorf("wheel %s = %+v, want steer clamped to 1.0", WheelName(i), out[i])
		}
	}
}

func TestEnforceClampWithinToleranceIsSoft(t *testing.T) {
	e := testEnforcer(t)

	// Every steer axis violated, but each clamp is within the tolerance, so
	// the set is degraded rather than hard infeasible.
	var raw WheelDemandSet
	for i := range raw {
		raw[i] = WheelDemand{SteerAngleRad: 1.0 + 0.04, DriveRateRps: 1.0}
	}

	_, verdict := e.Enforce(raw)
	if verdict != VerdictDegraded {
		t.Errorf("verdict = %v, want degraded", verdict)
	}
}

func TestVerdictStrings(t *testing.T) {
	cases := map[Verdict]string{
		VerdictNominal:        "nominal",
		VerdictDegraded:       "degraded",
		VerdictHardInfeasible: "hard_infeasible",
		Verdict(42):           "unknown",
	}
	for v, want := range cases {
		if v.String() != want {
			t.Errorf("Verdict(%d).String() = %q, want %q", int(v), v.String(), want)
		}
	}

	b, err := VerdictDegraded.MarshalText()
	if err != nil || string(b) != "degraded" {
		t.Errorf("MarshalText = (%q, %v), want (\"degraded\", nil)", b, err)
	}
}

func TestClampHelper(t *testing.T) {
	if got := clamp(0.5, -1, 1); got != 0.5 {
		t.Errorf("clamp(0.5) = %v", got)
	}
	if got := clamp(-2, -1, 1); got != -1 {
		t.Errorf("clamp(-2) = %v", got)
	}
	if got := clamp(math.Inf(1), -1, 1); got != 1 {
		t.Errorf("clamp(+inf) = %v", got)
	}
}
