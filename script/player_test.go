package script

import (
	"testing"

	"github.com/SUSF-Robotics-and-Software/phobos-sw/loco"
)

const demoScript = `
# straight, then an arc, then stop.
1.0: {"type": "ackerman", "speed_mps": 0.1, "curvature_per_m": 0.0};
4.0: {"type": "ackerman", "speed_mps": 0.1, "curvature_per_m": 0.5};
8.0: {"type": "stop"};
`

func TestParse(t *testing.T) {
	p, err := Parse(demoScript)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Len() != 3 {
		t.Fatalf("Len = %d, want 3", p.Len())
	}

	want := []Entry{
		{TimeS: 1.0, Cmd: loco.Ackerman(0.1, 0.0)},
		{TimeS: 4.0, Cmd: loco.Ackerman(0.1, 0.5)},
		{TimeS: 8.0, Cmd: loco.Stop()},
	}
	for i, w := range want {
		if p.entries[i] != w {
			t.Errorf("entry %d = %+v, want %+v", i, p.entries[i], w)
		}
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"missing time separator", `{"type" "stop"};`},
		{"bad time", `soon: {"type": "stop"};`},
		{"decreasing time", "4.0: {\"type\": \"stop\"};\n2.0: {\"type\": \"stop\"};"},
		{"bad json", `1.0: {"type" };`},
		{"unknown command type", `1.0: {"type": "crab"};`},
	}

	for _, tc := range cases {
		if _, err := Parse(tc.src); err == nil {
			t.Errorf("%s: Parse accepted bad script", tc.name)
		}
	}
}

func TestParseEmptyAndComments(t *testing.T) {
	p, err := Parse("# nothing but comments\n\n# here\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.Len() != 0 || !p.Done() {
		t.Errorf("empty script: Len = %d, Done = %v", p.Len(), p.Done())
	}
}

func TestNextCommandTiming(t *testing.T) {
	p, err := Parse(demoScript)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cmd := p.NextCommand(0.5); cmd != nil {
		t.Errorf("NextCommand(0.5) = %+v, want nil before the first entry", cmd)
	}
	if cmd := p.NextCommand(1.0); cmd == nil || cmd.Type != loco.CommandAckerman {
		t.Errorf("NextCommand(1.0) = %+v, want first ackerman entry", cmd)
	}
	// Same elapsed time again: the entry was consumed.
	if cmd := p.NextCommand(1.0); cmd != nil {
		t.Errorf("NextCommand(1.0) re-issued a consumed entry: %+v", cmd)
	}
	if p.Done() {
		t.Error("Done before the last entry was issued")
	}
}

func TestNextCommandOverdueCollapse(t *testing.T) {
	p, err := Parse(demoScript)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// The loop fell far behind: only the latest overdue entry is issued.
	cmd := p.NextCommand(100.0)
	if cmd == nil || cmd.Type != loco.CommandStop {
		t.Fatalf("NextCommand(100.0) = %+v, want the final stop", cmd)
	}
	if !p.Done() {
		t.Error("player not done after collapsing every entry")
	}
	if cmd := p.NextCommand(200.0); cmd != nil {
		t.Errorf("finished player issued %+v", cmd)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.prs"); err == nil {
		t.Error("Load of missing file succeeded")
	}
}
