package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ppsim/ppsim/sim/loader"
	"github.com/ppsim/ppsim/sim/model"
	"github.com/ppsim/ppsim/sim/process"
	"github.com/ppsim/ppsim/sim/rng"
	"github.com/ppsim/ppsim/sim/state"
)

func TestParseEntityFlagBareNumber(t *testing.T) {
	e, err := parseEntityFlag("7")
	require.NoError(t, err)
	require.EqualValues(t, 7, e)
}

func TestParseEntityFlagNamedKey(t *testing.T) {
	e, err := parseEntityFlag("entity=3")
	require.NoError(t, err)
	require.EqualValues(t, 3, e)
}

func TestParseEntityFlagUnknownKey(t *testing.T) {
	_, err := parseEntityFlag("species=3")
	require.Error(t, err)
}

func TestParseEntityFlagNotANumber(t *testing.T) {
	_, err := parseEntityFlag("entity=abc")
	require.Error(t, err)
}

func TestMaxEntityScansInputsAndOutputs(t *testing.T) {
	procs := []process.Descriptor{
		process.NewImmigration(2, 1.0),
		process.NewChangeInType(5, 9, 0.5),
	}
	require.EqualValues(t, 9, maxEntity(procs))
}

func TestResolveHorizonPrefersStepOverTime(t *testing.T) {
	origStep, origTimeSet, origTime := stepCountSet, simTimeSet, simTime
	defer func() { stepCountSet, simTimeSet, simTime = origStep, origTimeSet, origTime }()
	stepCountSet, simTimeSet, simTime = true, true, 7.0
	horizon, ok := resolveHorizon(&loader.ModelSpec{})
	require.True(t, ok)
	require.Equal(t, 0.0, horizon)
}

func TestResolveHorizonFallsBackToModelFile(t *testing.T) {
	origStep, origTime := stepCountSet, simTimeSet
	defer func() { stepCountSet, simTimeSet = origStep, origTime }()
	stepCountSet, simTimeSet = false, false
	fileTime := 42.0
	horizon, ok := resolveHorizon(&loader.ModelSpec{Simulator: loader.SimulatorSpec{Time: &fileTime}})
	require.True(t, ok)
	require.Equal(t, 42.0, horizon)
}

func TestResolveHorizonMissingEverywhere(t *testing.T) {
	origStep, origTime := stepCountSet, simTimeSet
	defer func() { stepCountSet, simTimeSet = origStep, origTime }()
	stepCountSet, simTimeSet = false, false
	_, ok := resolveHorizon(&loader.ModelSpec{})
	require.False(t, ok)
}

func TestLoadModelFileJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"simulator":{"time":5,"domain":10},"processes":[]}`), 0o644))
	spec, err := loadModelFile(path)
	require.NoError(t, err)
	require.Equal(t, 5.0, *spec.Simulator.Time)
}

func TestLoadModelFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulator:\n  time: 3\nprocesses: []\n"), 0o644))
	spec, err := loadModelFile(path)
	require.NoError(t, err)
	require.Equal(t, 3.0, *spec.Simulator.Time)
}

func TestSeedFromFilePopulatesState(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "points.txt")
	require.NoError(t, os.WriteFile(path, []byte("1 2.0 3.0\n1 4.0 5.0\n"), 0o644))

	prngState := newTestState(t)
	require.NoError(t, seedFromFile(prngState, path))
	require.EqualValues(t, 2, prngState.Count(1))
}

func TestOpenOutputDefaultsToStdout(t *testing.T) {
	f, closeFn, err := openOutput("")
	require.NoError(t, err)
	defer closeFn()
	require.Equal(t, os.Stdout, f)
}

func TestOpenOutputCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	f, closeFn, err := openOutput(path)
	require.NoError(t, err)
	defer closeFn()
	_, err = f.WriteString("x")
	require.NoError(t, err)
}

func TestPrintInitialPropensitiesDoesNotPanic(t *testing.T) {
	s := newTestState(t)
	m := newTestModel(s)
	printInitialPropensities(m)
}

func newTestState(t *testing.T) *state.SimulationState {
	t.Helper()
	return state.New(10, 1, 5, 2, rng.New(1))
}

func newTestModel(s *state.SimulationState) *model.Model {
	m := model.New()
	m.Add(process.NewImmigration(1, 1.0), s)
	m.Add(process.NewDensityIndependentDeath(1, 1.0), s)
	m.Finalize()
	return m
}
