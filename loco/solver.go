package loco

import "math"

// Solver computes raw, pre-limit wheel demands from a motion command and
// the rover geometry. It is a pure mapping: it holds no mutable state and
// never fails. Out-of-range commands are the limit enforcer's concern.
type Solver struct {
	geom *RoverGeometry

	// straightPerM is the curvature magnitude below which an ackerman
	// command is treated as straight-line driving.
	straightPerM float64
}

// NewSolver returns a solver over the given geometry. straightPerM is the
// near-zero curvature threshold for straight driving.
func NewSolver(geom *RoverGeometry, straightPerM float64) *Solver {
	return &Solver{geom: geom, straightPerM: straightPerM}
}

// Solve computes the raw demand set for cmd. prev supplies the previous
// demand set so that stop commands can hold the current steer positions
// rather than re-centring the wheels.
func (s *Solver) Solve(cmd MotionCommand, prev WheelDemandSet) WheelDemandSet {
	switch cmd.Type {
	case CommandAckerman:
		if math.Abs(cmd.CurvaturePerM) < s.straightPerM {
			return s.solveStraight(cmd.SpeedMps)
		}
		return s.solveAckerman(cmd.SpeedMps, cmd.CurvaturePerM)
	case CommandPointTurn:
		return s.solvePointTurn(cmd.YawRateRps)
	default:
		// Stop: hold steer positions, zero all drive rates.
		return prev.ZeroDrive()
	}
}

// solveStraight handles the near-zero curvature case: all wheels point
// straight ahead and roll at the same rate, with no differential.
func (s *Solver) solveStraight(speedMps float64) WheelDemandSet {
	var set WheelDemandSet
	for i := 0; i < NumWheels; i++ {
		set[i] = WheelDemand{
			SteerAngleRad: 0,
			DriveRateRps:  speedMps / s.geom.WheelRadius(i),
		}
	}
	return set
}

// solveAckerman computes a coordinated turn about a centre of rotation on
// the body +y axis at 1/curvature metres. Every wheel tangent passes
// through the centre; wheels on concentric circles roll at rates
// proportional to their own turn radius, so the inside of the turn rotates
// slower than the outside.
func (s *Solver) solveAckerman(speedMps, curvaturePerM float64) WheelDemandSet {
	var set WheelDemandSet
	turnRadiusM := 1.0 / curvaturePerM

	for i := 0; i < NumWheels; i++ {
		sp := s.geom.SteerPos(i)
		dp := s.geom.DrivePos(i)

		steerRad := math.Atan2(sp.X, turnRadiusM-sp.Y)

		// Wheel path radius and the rigid-body rate about the centre.
		rhoM := math.Hypot(dp.X, turnRadiusM-dp.Y)
		rateRps := speedMps / turnRadiusM * rhoM / s.geom.WheelRadius(i)

		steerRad, rateRps = normalizeSteer(steerRad, rateRps)
		set[i] = WheelDemand{SteerAngleRad: steerRad, DriveRateRps: rateRps}
	}
	return set
}

// solvePointTurn rotates the rover about the body origin: each wheel is
// steered tangent to its own radius vector and rolls at a rate
// proportional to its distance from the origin.
func (s *Solver) solvePointTurn(yawRateRps float64) WheelDemandSet {
	var set WheelDemandSet
	for i := 0; i < NumWheels; i++ {
		sp := s.geom.SteerPos(i)
		dp := s.geom.DrivePos(i)

		steerRad := math.Atan2(sp.X, -sp.Y)
		rateRps := yawRateRps * math.Hypot(dp.X, dp.Y) / s.geom.WheelRadius(i)

		steerRad, rateRps = normalizeSteer(steerRad, rateRps)
		set[i] = WheelDemand{SteerAngleRad: steerRad, DriveRateRps: rateRps}
	}
	return set
}

// normalizeSteer wraps a raw steer angle into (-pi/2, pi/2]. The same wheel
// pose is reachable with the angle wrapped by pi and the drive direction
// reversed, and the wrapped form is the one inside the steer actuators'
// physical range.
func normalizeSteer(angleRad, rateRps float64) (float64, float64) {
	for angleRad > math.Pi/2 {
		angleRad -= math.Pi
		rateRps = -rateRps
	}
	for angleRad <= -math.Pi/2 {
		angleRad += math.Pi
		rateRps = -rateRps
	}
	return angleRad, rateRps
}
