package loco

// WheelDemand is the demand for a single wheel unit.
type WheelDemand struct {
	// SteerAngleRad is the absolute steer axis position demand, in radians
	// from the "straight ahead" zero. Positive steers left.
	SteerAngleRad float64 `json:"steer_angle_rad"`

	// DriveRateRps is the drive axis rate demand in radians/second.
	// Positive rolls the wheel forwards.
	DriveRateRps float64 `json:"drive_rate_rps"`

	// Clamped is set by the limit enforcer when either value was modified
	// from the solver's raw output.
	Clamped bool `json:"clamped"`
}

// WheelDemandSet holds one demand per wheel unit, index-aligned with the
// rover geometry. A fresh set is produced every tick.
type WheelDemandSet [NumWheels]WheelDemand

// ZeroDrive returns a copy of the set with every drive rate forced to zero
// and every steer angle held. This is the safe output used in the fault
// mode and at shutdown.
func (s WheelDemandSet) ZeroDrive() WheelDemandSet {
	out := s
	for i := range out {
		out[i].DriveRateRps = 0
		out[i].Clamped = false
	}
	return out
}
