package loco

// Mode is the locomotion mode.
type Mode int

const (
	// ModeStopped: no motion demanded. Initial mode.
	ModeStopped Mode = iota

	// ModeDriving: executing an ackerman manoeuvre.
	ModeDriving

	// ModeTurning: executing a point turn.
	ModeTurning

	// ModeFault: a command proved hard infeasible. Terminal until an
	// explicit external reset; all drive rates are forced to zero while in
	// this mode.
	ModeFault
)

func (m Mode) String() string {
	switch m {
	case ModeStopped:
		return "stopped"
	case ModeDriving:
		return "driving"
	case ModeTurning:
		return "turning"
	case ModeFault:
		return "fault"
	}
	return "unknown"
}

// MarshalText makes modes appear as their names in telemetry JSON.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ModeMachine tracks the current locomotion mode and validates mode
// transitions. Switching directly between driving and turning is refused:
// reconfiguring the wheels while they are moving risks twisting the
// steering linkage, so an intervening stop is required.
//
// The machine is owned exclusively by one controller and must not be
// shared across control loops.
type ModeMachine struct {
	mode        Mode
	faultReason string
}

// NewModeMachine returns a machine in the stopped mode.
func NewModeMachine() *ModeMachine {
	return &ModeMachine{mode: ModeStopped}
}

// Mode returns the current mode.
func (m *ModeMachine) Mode() Mode {
	return m.mode
}

// FaultReason returns the reason recorded when the fault mode was entered,
// or "" when not in fault.
func (m *ModeMachine) FaultReason() string {
	return m.faultReason
}

// next returns the mode that accepting a command of type t would lead to,
// and whether that transition is permitted from the current mode.
func (m *ModeMachine) next(t CommandType) (Mode, bool) {
	if m.mode == ModeFault {
		return ModeFault, false
	}
	switch t {
	case CommandStop:
		return ModeStopped, true
	case CommandAckerman:
		if m.mode == ModeTurning {
			return m.mode, false
		}
		return ModeDriving, true
	case CommandPointTurn:
		if m.mode == ModeDriving {
			return m.mode, false
		}
		return ModeTurning, true
	}
	return m.mode, false
}

// Check reports whether a command of type t is accepted from the current
// mode. It does not change the mode.
func (m *ModeMachine) Check(t CommandType) bool {
	_, ok := m.next(t)
	return ok
}

// Commit applies the transition for a command of type t. The caller must
// have confirmed the transition with Check and the command's feasibility
// with the limit enforcer first; a refused transition leaves the mode
// unchanged.
func (m *ModeMachine) Commit(t CommandType) {
	if next, ok := m.next(t); ok {
		m.mode = next
	}
}

// TripFault moves the machine to the fault mode, recording the reason.
func (m *ModeMachine) TripFault(reason string) {
	m.mode = ModeFault
	m.faultReason = reason
}

// Reset clears a fault and returns the machine to the stopped mode. This
// is the explicit external reset; nothing else leaves the fault mode.
func (m *ModeMachine) Reset() {
	m.mode = ModeStopped
	m.faultReason = ""
}
