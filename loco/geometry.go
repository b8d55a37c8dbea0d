// Package loco implements locomotion control for the rover: it converts
// body-frame motion commands into per-wheel steer and drive demands for the
// six independently actuated wheel units, enforces the per-axis kinematic
// limits, and tracks the locomotion mode.
package loco

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// NumWheels is the number of wheel units on the rover.
const NumWheels = 6

// Wheel unit indices: left side front to rear, then right side front to
// rear. This ordering is shared with the actuator IDs understood by the
// mechanisms server.
const (
	WheelFL = iota
	WheelML
	WheelRL
	WheelFR
	WheelMR
	WheelRR
)

var wheelNames = [NumWheels]string{"FL", "ML", "RL", "FR", "MR", "RR"}

// WheelName returns the short name ("FL", "MR", ...) for a wheel index.
func WheelName(i int) string {
	return wheelNames[i]
}

// WheelGeometry describes one wheel unit in the rover body frame
// (x forward, y left, z up, metres).
type WheelGeometry struct {
	// DrivePosM is the position of the drive axis centre.
	DrivePosM r3.Vector

	// SteerPosM is the position of the steer axis centre.
	SteerPosM r3.Vector

	// RadiusM is the wheel rolling radius.
	RadiusM float64
}

// RoverGeometry is the static description of all six wheel units. It is
// built once at startup from the parameter tables and never mutated; a
// single value may be shared by any number of engine instances.
type RoverGeometry struct {
	wheels [NumWheels]WheelGeometry
}

// NewRoverGeometry builds a rover geometry from per-wheel drive axis
// positions, steer axis positions and rolling radii. All three slices must
// describe exactly NumWheels units and every radius must be positive.
func NewRoverGeometry(drivePosM, steerPosM []r3.Vector, radiusM []float64) (*RoverGeometry, error) {
	if len(drivePosM) == 0 || len(steerPosM) == 0 {
		return nil, configErrorf("geometry: no axis positions supplied")
	}
	if len(drivePosM) != len(steerPosM) {
		return nil, configErrorf(
			"geometry: %d drive axis positions but %d steer axis positions",
			len(drivePosM), len(steerPosM))
	}
	if len(drivePosM) != NumWheels {
		return nil, configErrorf(
			"geometry: expected %d wheel units, got %d", NumWheels, len(drivePosM))
	}
	if len(radiusM) != NumWheels {
		return nil, configErrorf(
			"geometry: expected %d wheel radii, got %d", NumWheels, len(radiusM))
	}

	g := &RoverGeometry{}
	for i := 0; i < NumWheels; i++ {
		if radiusM[i] <= 0 {
			return nil, configErrorf(
				"geometry: wheel %s radius must be positive, got %v",
				wheelNames[i], radiusM[i])
		}
		g.wheels[i] = WheelGeometry{
			DrivePosM: drivePosM[i],
			SteerPosM: steerPosM[i],
			RadiusM:   radiusM[i],
		}
	}
	return g, nil
}

// WheelCount returns the number of wheel units.
func (g *RoverGeometry) WheelCount() int {
	return NumWheels
}

// DrivePos returns the drive axis position of wheel unit i.
func (g *RoverGeometry) DrivePos(i int) r3.Vector {
	return g.wheels[i].DrivePosM
}

// SteerPos returns the steer axis position of wheel unit i.
func (g *RoverGeometry) SteerPos(i int) r3.Vector {
	return g.wheels[i].SteerPosM
}

// WheelRadius returns the rolling radius of wheel unit i.
func (g *RoverGeometry) WheelRadius(i int) float64 {
	return g.wheels[i].RadiusM
}

// ConfigError indicates malformed or inconsistent geometry or limit
// parameters. It is fatal to startup and never produced on the control
// loop's hot path.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string {
	return e.msg
}

func configErrorf(format string, args ...interface{}) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}
