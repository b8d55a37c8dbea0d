// Package params loads the rover's startup parameter files. Parameters are
// flat TOML tables keyed by wheel-unit index (FL, ML, RL, FR, MR, RR),
// loaded once at process start and converted into the immutable values the
// locomotion engine consumes. Nothing here runs on the control loop's hot
// path.
package params

import (
	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/SUSF-Robotics-and-Software/phobos-sw/loco"
)

// Load decodes the TOML parameter file at path into v.
func Load(path string, v interface{}) error {
	if _, err := toml.DecodeFile(path, v); err != nil {
		return errors.Wrapf(err, "cannot load parameter file %q", path)
	}
	return nil
}

// LocoParams is the locomotion control parameter table. Field names mirror
// the keys of config/loco_ctrl.toml.
//
// Units note: the curvature fields hold true curvature (1/turn radius) in
// 1/metres, not turn radius. Positive curvature follows the right hand
// rule about body +z, so it is a turn to the left. The feasibility bounds
// therefore read min <= |curvature| <= max.
type LocoParams struct {
	// WheelRadiusM is the rolling radius of each wheel, metres.
	WheelRadiusM [loco.NumWheels]float64 `toml:"wheel_radius_m"`

	// StrAxisPosMRb and DrvAxisPosMRb are the steer and drive axis centre
	// positions in the rover body frame, metres, one [x, y, z] triple per
	// wheel unit.
	StrAxisPosMRb [loco.NumWheels][3]float64 `toml:"str_axis_pos_m_rb"`
	DrvAxisPosMRb [loco.NumWheels][3]float64 `toml:"drv_axis_pos_m_rb"`

	// Steer axis absolute position bounds, radians.
	StrMinAbsPosRad [loco.NumWheels]float64 `toml:"str_min_abs_pos_rad"`
	StrMaxAbsPosRad [loco.NumWheels]float64 `toml:"str_max_abs_pos_rad"`

	// Drive axis rate bounds, radians/second.
	DrvMinRateRads [loco.NumWheels]float64 `toml:"drv_min_rate_rads"`
	DrvMaxRateRads [loco.NumWheels]float64 `toml:"drv_max_rate_rads"`

	// Ackerman curvature magnitude bounds, 1/metres.
	AckermanMinCurvatureM float64 `toml:"ackerman_min_curvature_m"`
	AckermanMaxCurvatureM float64 `toml:"ackerman_max_curvature_m"`

	// AckermanStraightCurvatureM is the near-zero curvature threshold
	// below which an ackerman command is treated as straight driving,
	// 1/metres.
	AckermanStraightCurvatureM float64 `toml:"ackerman_straight_curvature_m"`

	// SteerClampTolRad is the steer clamp tolerance used for the hard
	// infeasibility verdict, radians.
	SteerClampTolRad float64 `toml:"steer_clamp_tol_rad"`
}

// Geometry converts the parameter table into a validated rover geometry.
func (p *LocoParams) Geometry() (*loco.RoverGeometry, error) {
	drive := make([]r3.Vector, loco.NumWheels)
	steer := make([]r3.Vector, loco.NumWheels)
	radius := make([]float64, loco.NumWheels)
	for i := 0; i < loco.NumWheels; i++ {
		drive[i] = r3.Vector{
			X: p.DrvAxisPosMRb[i][0],
			Y: p.DrvAxisPosMRb[i][1],
			Z: p.DrvAxisPosMRb[i][2],
		}
		steer[i] = r3.Vector{
			X: p.StrAxisPosMRb[i][0],
			Y: p.StrAxisPosMRb[i][1],
			Z: p.StrAxisPosMRb[i][2],
		}
		radius[i] = p.WheelRadiusM[i]
	}
	return loco.NewRoverGeometry(drive, steer, radius)
}

// Limits converts the parameter table into the engine's axis limits. The
// limits are validated by the limit enforcer's constructor.
func (p *LocoParams) Limits() loco.AxisLimits {
	return loco.AxisLimits{
		SteerMinRad:      p.StrMinAbsPosRad,
		SteerMaxRad:      p.StrMaxAbsPosRad,
		DriveMinRps:      p.DrvMinRateRads,
		DriveMaxRps:      p.DrvMaxRateRads,
		CurvatureMinPerM: p.AckermanMinCurvatureM,
		CurvatureMaxPerM: p.AckermanMaxCurvatureM,
		StraightPerM:     p.AckermanStraightCurvatureM,
		SteerClampTolRad: p.SteerClampTolRad,
	}
}

// DefaultLoco returns the shipped locomotion parameter table for the
// six-wheel breadboard rover.
func DefaultLoco() LocoParams {
	return LocoParams{
		WheelRadiusM: [loco.NumWheels]float64{
			0.048, 0.048, 0.048, 0.048, 0.048, 0.048,
		},
		StrAxisPosMRb: [loco.NumWheels][3]float64{
			{0.22, 0.19, 0.0},   // FL
			{0.0, 0.22, 0.0},    // ML
			{-0.22, 0.19, 0.0},  // RL
			{0.22, -0.19, 0.0},  // FR
			{0.0, -0.22, 0.0},   // MR
			{-0.22, -0.19, 0.0}, // RR
		},
		DrvAxisPosMRb: [loco.NumWheels][3]float64{
			{0.22, 0.19, -0.089},
			{0.0, 0.22, -0.089},
			{-0.22, 0.19, -0.089},
			{0.22, -0.19, -0.089},
			{0.0, -0.22, -0.089},
			{-0.22, -0.19, -0.089},
		},
		StrMinAbsPosRad: [loco.NumWheels]float64{-1.0, -1.0, -1.0, -1.0, -1.0, -1.0},
		StrMaxAbsPosRad: [loco.NumWheels]float64{1.0, 1.0, 1.0, 1.0, 1.0, 1.0},
		DrvMinRateRads:  [loco.NumWheels]float64{-10.0, -10.0, -10.0, -10.0, -10.0, -10.0},
		DrvMaxRateRads:  [loco.NumWheels]float64{10.0, 10.0, 10.0, 10.0, 10.0, 10.0},

		AckermanMinCurvatureM:      0.05,
		AckermanMaxCurvatureM:      5.98,
		AckermanStraightCurvatureM: 0.01,
		SteerClampTolRad:           0.05,
	}
}

// ExecParams is the rover executable's runtime configuration. Values come
// from config/rov_exec.toml and may be overridden from the environment.
type ExecParams struct {
	// MechDemsEndpoint is the mechanisms demand socket (REQ side dials it).
	MechDemsEndpoint string `toml:"mech_dems_endpoint" env:"ROV_MECH_DEMS_ENDPOINT"`

	// MechSensEndpoint is the mechanisms sensor data socket.
	MechSensEndpoint string `toml:"mech_sens_endpoint" env:"ROV_MECH_SENS_ENDPOINT"`

	// TelemBind is the listen address of the telemetry/teleop websocket
	// server.
	TelemBind string `toml:"telem_bind" env:"ROV_TELEM_BIND"`

	// CycleMs is the control loop period in milliseconds.
	CycleMs int `toml:"cycle_ms" env:"ROV_CYCLE_MS"`

	// TeleopTimeoutMs is the teleop link staleness window: with no fresh
	// teleop command inside it, the command source substitutes a stop.
	TeleopTimeoutMs int `toml:"teleop_timeout_ms" env:"ROV_TELEOP_TIMEOUT_MS"`
}

// DefaultExec returns the default executable configuration.
func DefaultExec() ExecParams {
	return ExecParams{
		MechDemsEndpoint: "tcp://127.0.0.1:5030",
		MechSensEndpoint: "tcp://127.0.0.1:5031",
		TelemBind:        ":8061",
		CycleMs:          100,
		TeleopTimeoutMs:  1000,
	}
}

// LoadExec loads the executable configuration from path, then applies any
// environment overrides. An empty path yields the defaults plus overrides.
func LoadExec(path string) (ExecParams, error) {
	p := DefaultExec()
	if path != "" {
		if err := Load(path, &p); err != nil {
			return p, err
		}
	}
	if err := env.Parse(&p); err != nil {
		return p, errors.Wrap(err, "cannot apply environment overrides")
	}
	if p.CycleMs <= 0 {
		return p, errors.Errorf("cycle_ms must be positive, got %d", p.CycleMs)
	}
	return p, nil
}
