package loco

// CommandType discriminates the motion command variants.
type CommandType string

const (
	// CommandStop brings the rover to a full stop, holding the current
	// steer axis positions.
	CommandStop CommandType = "stop"

	// CommandAckerman drives the rover along a circular arc described by a
	// speed and a path curvature.
	CommandAckerman CommandType = "ackerman"

	// CommandPointTurn rotates the rover about the body-frame origin with
	// no net translation.
	CommandPointTurn CommandType = "point_turn"
)

// MotionCommand is a body-frame motion intent for a single control tick.
// Commands are produced by a command source (teleop, autonomy or a stored
// script) and consumed immediately by the controller; they are not retained
// across ticks.
//
// Sign conventions follow the right hand rule about the body +z (up) axis:
// positive curvature and positive yaw rate turn the rover to the left.
type MotionCommand struct {
	Type CommandType `json:"type"`

	// SpeedMps is the body speed demand in metres/second. Positive is
	// forwards. Ackerman only.
	SpeedMps float64 `json:"speed_mps,omitempty"`

	// CurvaturePerM is the signed path curvature demand in 1/metres.
	// A magnitude below the configured straight-driving threshold is a
	// valid, distinct case meaning "drive straight". Ackerman only.
	CurvaturePerM float64 `json:"curvature_per_m,omitempty"`

	// YawRateRps is the body yaw rate demand in radians/second. Point
	// turn only.
	YawRateRps float64 `json:"yaw_rate_rps,omitempty"`
}

// Stop returns a stop command.
func Stop() MotionCommand {
	return MotionCommand{Type: CommandStop}
}

// Ackerman returns an ackerman manoeuvre command.
func Ackerman(speedMps, curvaturePerM float64) MotionCommand {
	return MotionCommand{
		Type:          CommandAckerman,
		SpeedMps:      speedMps,
		CurvaturePerM: curvaturePerM,
	}
}

// PointTurn returns a point turn command.
func PointTurn(yawRateRps float64) MotionCommand {
	return MotionCommand{Type: CommandPointTurn, YawRateRps: yawRateRps}
}

// Valid reports whether the command carries a known type.
func (c MotionCommand) Valid() bool {
	switch c.Type {
	case CommandStop, CommandAckerman, CommandPointTurn:
		return true
	}
	return false
}
