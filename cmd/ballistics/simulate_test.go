package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/ballistics-client/pkg/utils"
)

func simulateFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("simulate", pflag.ContinueOnError)
	addLaunchFlags(f)
	require.NoError(t, f.Parse(args))
	return f
}

func TestSimulationFromFlags_OnlyChangedOverride(t *testing.T) {
	base := utils.DefaultSimulation()

	sim, err := simulationFromFlags(simulateFlags(t, "--height", "2 km", "--g", "3.7"), base)
	require.NoError(t, err)

	want := base
	want.Height = "2 km"
	want.GSurfaceAcc = "3.7"
	assert.Equal(t, want, sim)
}

func TestSimulationFromFlags_Preset(t *testing.T) {
	sim, err := simulationFromFlags(simulateFlags(t, "--preset", "test-drop", "--height", "20"), utils.DefaultSimulation())
	require.NoError(t, err)

	preset, err := utils.GetPreset("test-drop")
	require.NoError(t, err)
	want := preset.Simulation
	want.Height = "20"
	assert.Equal(t, want, sim)

	cfg, err := sim.LaunchConfig()
	require.NoError(t, err)
	assert.Equal(t, 20.0, cfg.Height)
}

func TestSimulationFromFlags_UnknownPreset(t *testing.T) {
	_, err := simulationFromFlags(simulateFlags(t, "--preset", "vulcan"), utils.DefaultSimulation())
	assert.Error(t, err)
}

func TestRunnerOptions(t *testing.T) {
	cfg := utils.RunnerConfig{BatchSteps: 5000, MaxSteps: 10}

	opts := runnerOptions(simulateFlags(t), cfg)
	assert.Equal(t, 5000, opts.BatchSteps)
	assert.Equal(t, 10, opts.MaxSteps)

	opts = runnerOptions(simulateFlags(t, "--batch", "7", "--max-steps", "0"), cfg)
	assert.Equal(t, 7, opts.BatchSteps)
	assert.Equal(t, 0, opts.MaxSteps)
}

func TestLaunchFlags_ListUnits(t *testing.T) {
	f := simulateFlags(t)
	assert.Contains(t, f.Lookup("speed").Usage, "km/s")
	assert.Contains(t, f.Lookup("height").Usage, "km")
	assert.NotContains(t, f.Lookup("alt").Usage, "units:")
}
