package writer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ppsim/ppsim/sim/rng"
	"github.com/ppsim/ppsim/sim/state"
)

func TestSnapshotWriterEmitsPointLines(t *testing.T) {
	s := state.New(10, 1, 0, 1, rng.New(1))
	s.NewPoint(1, 2, 0)
	s.NewPoint(3, 4, 0)

	var buf bytes.Buffer
	w := NewSnapshotWriter(&buf, 1)
	w.Start(s)
	w.End(s)

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "(0 1 2)")
	require.Contains(t, lines[0], "(0 3 4)")
}

func TestDensityWriterHeaderAndRows(t *testing.T) {
	s := state.New(10, 1, 1, 1, rng.New(1))
	s.NewPoint(1, 1, 0)
	s.NewPoint(2, 2, 1)
	s.NewPoint(3, 3, 1)

	var buf bytes.Buffer
	w := NewDensityWriter(&buf, 1)
	w.Start(s)
	w.End(s)

	out := buf.String()
	require.Contains(t, out, "time")
	require.Contains(t, out, "events")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
}

func TestDensityWriterRespectsEmissionInterval(t *testing.T) {
	s := state.New(10, 1, 0, 1, rng.New(1))
	var buf bytes.Buffer
	w := NewDensityWriter(&buf, 5)
	w.Start(s)

	s.Stats.Update(1, 0)
	w.ProcessActivated(s, 1, 0)
	s.Stats.Update(10, 0)
	w.ProcessActivated(s, 10, 0)
	w.End(s)

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// header + initial emission + the t=11 emission (the t=1 event is
	// skipped) + end emission + one mean/variance summary line
	require.Len(t, lines, 5)
}
