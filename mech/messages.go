// Package mech is the boundary to the electromechanical driver process: the
// demand messages it accepts, the achieved-state feedback it returns, and
// the transports that carry them. The locomotion engine never depends on
// anything behind this boundary.
package mech

import (
	"github.com/SUSF-Robotics-and-Software/phobos-sw/loco"
)

// ActuatorID identifies one actuator on the mechanisms server.
type ActuatorID string

// Drive and steer actuator IDs, matching the wheel-unit ordering of the
// locomotion geometry.
const (
	ActDrvFL ActuatorID = "drv_fl"
	ActDrvML ActuatorID = "drv_ml"
	ActDrvRL ActuatorID = "drv_rl"
	ActDrvFR ActuatorID = "drv_fr"
	ActDrvMR ActuatorID = "drv_mr"
	ActDrvRR ActuatorID = "drv_rr"

	ActStrFL ActuatorID = "str_fl"
	ActStrML ActuatorID = "str_ml"
	ActStrRL ActuatorID = "str_rl"
	ActStrFR ActuatorID = "str_fr"
	ActStrMR ActuatorID = "str_mr"
	ActStrRR ActuatorID = "str_rr"
)

var (
	driveIDs = [loco.NumWheels]ActuatorID{
		ActDrvFL, ActDrvML, ActDrvRL, ActDrvFR, ActDrvMR, ActDrvRR,
	}
	steerIDs = [loco.NumWheels]ActuatorID{
		ActStrFL, ActStrML, ActStrRL, ActStrFR, ActStrMR, ActStrRR,
	}
)

// Demands carries the per-actuator demands for one control tick: absolute
// positions for the steer axes and rates for the drive axes.
type Demands struct {
	PosRad    map[ActuatorID]float64 `json:"pos_rad"`
	SpeedRads map[ActuatorID]float64 `json:"speed_rads"`
}

// FromWheelDemands maps a locomotion demand set onto the actuator demand
// message the mechanisms server accepts.
func FromWheelDemands(set loco.WheelDemandSet) Demands {
	d := Demands{
		PosRad:    make(map[ActuatorID]float64, loco.NumWheels),
		SpeedRads: make(map[ActuatorID]float64, loco.NumWheels),
	}
	for i := 0; i < loco.NumWheels; i++ {
		d.PosRad[steerIDs[i]] = set[i].SteerAngleRad
		d.SpeedRads[driveIDs[i]] = set[i].DriveRateRps
	}
	return d
}

// Response is the mechanisms server's verdict on a demand set.
type Response string

const (
	// DemsOK: demands were valid and will be actuated.
	DemsOK Response = "dems_ok"

	// DemsInvalid: demands were rejected.
	DemsInvalid Response = "dems_invalid"

	// EqptInvalid: the equipment itself is unavailable, demands cannot be
	// actuated.
	EqptInvalid Response = "eqpt_invalid"
)

// SensData is the achieved actuator state reported back by the server. It
// is consumed as feedback by telemetry; the engine does not require it.
type SensData struct {
	PosRad    map[ActuatorID]float64 `json:"pos_rad"`
	SpeedRads map[ActuatorID]float64 `json:"speed_rads"`
}

// DemandSender is the abstract "send demand set, receive verdict" link to
// the mechanisms process.
type DemandSender interface {
	SendDemands(Demands) (Response, error)
	Close() error
}
