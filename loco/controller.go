package loco

import (
	"fmt"

	"github.com/edaniels/golog"
)

// TickReport is the per-tick observability record handed to telemetry and
// logging collaborators alongside the demand set.
type TickReport struct {
	// Mode is the locomotion mode after this tick.
	Mode Mode `json:"mode"`

	// Verdict is the limit enforcer's feasibility verdict for this tick's
	// demand set.
	Verdict Verdict `json:"verdict"`

	// CommandDegraded is set when the command-level curvature bounds
	// substituted a feasible curvature for the demanded one.
	CommandDegraded bool `json:"command_degraded"`

	// InvalidTransition is set when the command requested a mode change
	// the state machine refuses; the previous demand set was re-issued.
	// This is an advisory, not a fault.
	InvalidTransition bool `json:"invalid_transition"`

	// FaultReason is the recorded reason while in the fault mode.
	FaultReason string `json:"fault_reason,omitempty"`
}

// Controller orchestrates the locomotion engine for one control-loop tick:
// state machine check, command clamp, kinematics, limit enforcement, and
// the demand set hand-off. It performs no I/O; dispatch of the demand set
// is owned by the caller.
//
// A controller is used by exactly one control loop at a time and needs no
// internal locking. Embedders running several loops (simulation next to
// real execution) must give each its own controller.
type Controller struct {
	geom     *RoverGeometry
	solver   *Solver
	enforcer *LimitEnforcer
	machine  *ModeMachine
	logger   golog.Logger

	// prev is the demand set issued on the previous tick. It seeds the
	// steer-hold behaviour of stop commands and is re-issued on rejected
	// commands.
	prev WheelDemandSet
}

// NewController builds a controller over the given geometry and limits.
func NewController(geom *RoverGeometry, limits AxisLimits, logger golog.Logger) (*Controller, error) {
	enforcer, err := NewLimitEnforcer(limits)
	if err != nil {
		return nil, err
	}
	return &Controller{
		geom:     geom,
		solver:   NewSolver(geom, limits.StraightPerM),
		enforcer: enforcer,
		machine:  NewModeMachine(),
		logger:   logger,
	}, nil
}

// Mode returns the current locomotion mode.
func (c *Controller) Mode() Mode {
	return c.machine.Mode()
}

// Reset clears a fault via the explicit external reset path. The rover is
// left stopped with steer positions held.
func (c *Controller) Reset() {
	c.machine.Reset()
	c.prev = c.prev.ZeroDrive()
	c.logger.Infow("locomotion fault reset", "mode", c.machine.Mode().String())
}

// MakeSafe forces the safe output: zero drive rates, steer positions held.
// Used at shutdown and on entry to the fault mode.
func (c *Controller) MakeSafe() WheelDemandSet {
	c.prev = c.prev.ZeroDrive()
	return c.prev
}

// Tick processes one control-loop tick. cmd may be nil, meaning no new
// command this tick; the previous demand set is then re-issued. The
// returned set is index-aligned with the rover geometry.
func (c *Controller) Tick(cmd *MotionCommand) (WheelDemandSet, TickReport) {
	report := TickReport{
		Mode:        c.machine.Mode(),
		FaultReason: c.machine.FaultReason(),
	}

	// In fault every command is ignored and the output is pinned safe
	// until the external reset.
	if c.machine.Mode() == ModeFault {
		c.prev = c.prev.ZeroDrive()
		return c.prev, report
	}

	if cmd == nil {
		return c.prev, report
	}

	if !cmd.Valid() || !c.machine.Check(cmd.Type) {
		report.InvalidTransition = true
		c.logger.Warnw("motion command rejected",
			"mode", c.machine.Mode().String(),
			"command", string(cmd.Type),
		)
		return c.prev, report
	}

	clamped, degraded := c.enforcer.ClampCommand(*cmd)
	raw := c.solver.Solve(clamped, c.prev)
	set, verdict := c.enforcer.Enforce(raw)

	if verdict == VerdictHardInfeasible {
		reason := fmt.Sprintf(
			"%s command infeasible: every steer axis clamped beyond tolerance",
			cmd.Type)
		c.machine.TripFault(reason)
		c.prev = c.prev.ZeroDrive()

		report.Mode = ModeFault
		report.Verdict = verdict
		report.FaultReason = reason
		c.logger.Errorw("locomotion fault", "reason", reason)
		return c.prev, report
	}

	c.machine.Commit(cmd.Type)
	c.prev = set

	report.Mode = c.machine.Mode()
	report.Verdict = verdict
	report.CommandDegraded = degraded
	if degraded {
		c.logger.Warnw("motion command degraded",
			"demanded_curvature_per_m", cmd.CurvaturePerM,
			"substituted_curvature_per_m", clamped.CurvaturePerM,
		)
	}
	return set, report
}
