// Package script plays back stored manoeuvre scripts. A script is a list
// of timed entries:
//
//	# comment
//	1.0: {"type": "ackerman", "speed_mps": 0.1, "curvature_per_m": 0.0};
//	4.0: {"type": "stop"};
//
// Entry times are seconds from script start and must not decrease.
package script

import (
	"os"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/SUSF-Robotics-and-Software/phobos-sw/loco"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Entry is one timed command.
type Entry struct {
	TimeS float64
	Cmd   loco.MotionCommand
}

// Player steps through a script as loop time advances.
type Player struct {
	entries []Entry
	next    int
}

// Load reads and parses the script file at path.
func Load(path string) (*Player, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot load script %q", path)
	}
	p, err := Parse(string(src))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot parse script %q", path)
	}
	return p, nil
}

// Parse parses script source text.
func Parse(src string) (*Player, error) {
	p := &Player{}
	lastTime := 0.0

	for n, stmt := range strings.Split(src, ";") {
		stmt = stripComments(stmt)
		if stmt == "" {
			continue
		}

		timePart, cmdPart, found := strings.Cut(stmt, ":")
		if !found {
			return nil, errors.Errorf("statement %d: missing time separator", n)
		}

		timeS, err := strconv.ParseFloat(strings.TrimSpace(timePart), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "statement %d: bad time", n)
		}
		if timeS < lastTime {
			return nil, errors.Errorf(
				"statement %d: time %v before previous entry %v", n, timeS, lastTime)
		}
		lastTime = timeS

		var cmd loco.MotionCommand
		if err := json.Unmarshal([]byte(cmdPart), &cmd); err != nil {
			return nil, errors.Wrapf(err, "statement %d: bad command", n)
		}
		if !cmd.Valid() {
			return nil, errors.Errorf(
				"statement %d: unknown command type %q", n, cmd.Type)
		}

		p.entries = append(p.entries, Entry{TimeS: timeS, Cmd: cmd})
	}
	return p, nil
}

func stripComments(stmt string) string {
	var kept []string
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// Len returns the number of entries in the script.
func (p *Player) Len() int {
	return len(p.entries)
}

// Done reports whether every entry has been issued.
func (p *Player) Done() bool {
	return p.next >= len(p.entries)
}

// NextCommand returns the command due at elapsed seconds, or nil if no new
// entry is due yet. If the loop has fallen behind and several entries are
// overdue, the latest one wins.
func (p *Player) NextCommand(elapsedS float64) *loco.MotionCommand {
	var due *loco.MotionCommand
	for p.next < len(p.entries) && p.entries[p.next].TimeS <= elapsedS {
		cmd := p.entries[p.next].Cmd
		due = &cmd
		p.next++
	}
	return due
}
