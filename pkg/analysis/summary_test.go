package analysis

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/ballistics-client/pkg/astronomy/ballistic"
)

const deg = math.Pi / 180

func lobConfig() ballistic.LaunchConfig {
	return ballistic.LaunchConfig{
		Lat: 10 * deg, Lon: 20 * deg, Height: 0.5,
		Azm: 90 * deg, Alt: 45 * deg, Speed: 40,
		Radius: 1e5, RotationPeriod: 1e30, DeltaTime: 0.001, LogInterval: 0.1, GSurfaceAcc: 10,
	}
}

func runToImpact(cfg ballistic.LaunchConfig) *ballistic.State {
	s := ballistic.New(cfg)
	for !s.Impact() {
		ballistic.Advance(s, 1000)
	}
	return s
}

func TestSummarize_Lob(t *testing.T) {
	cfg := lobConfig()
	s := runToImpact(cfg)
	sum := Summarize(cfg, s)

	require.True(t, sum.Impact)
	assert.False(t, sum.Escapes)
	assert.True(t, sum.Suborbital)
	assert.Less(t, sum.LaunchSpeed, sum.CircularSpeed)
	assert.InEpsilon(t, math.Sqrt(10*1e5), sum.CircularSpeed, 1e-4) // g·R = μ/R
	assert.InEpsilon(t, math.Sqrt2*sum.CircularSpeed, sum.EscapeSpeed, 1e-12)

	// Near-flat ground: range ≈ v²/g, apex ≈ v²/(4g), flight ≈ √2·v/g.
	assert.InEpsilon(t, 160, sum.GroundRange, 0.02)
	assert.InEpsilon(t, 40+0.5, sum.ApexHeight, 0.02)
	assert.InEpsilon(t, math.Sqrt2*40/10, sum.FlightTime, 0.02)
	assert.InEpsilon(t, sum.ApexHeight, sum.PredictedApex, 0.01)

	assert.InDelta(t, 10, sum.LaunchLatitude, 1e-9)
	assert.InDelta(t, 20, sum.LaunchLongitude, 1e-9)
	assert.InDelta(t, 10, sum.ImpactLatitude, 1e-3)
	assert.Greater(t, sum.ImpactLongitude, 20.0)

	assert.InDelta(t, 0.1, sum.SpacingMean, 1e-9)
	assert.Less(t, sum.SpacingStdDev, 1e-6)
	assert.Less(t, math.Abs(sum.EnergyDrift), 1e-3)
	assert.Equal(t, s.LogLen(), sum.Samples)
	assert.Contains(t, sum.String(), "impact after")
	assert.Contains(t, sum.String(), "suborbital")
}

func TestSummarize_Escape(t *testing.T) {
	cfg := lobConfig()
	cfg.Alt = 90 * deg
	cfg.Speed = 2000 // escape speed is √(2·g·R) ≈ 1414 m/s

	s := ballistic.New(cfg)
	ballistic.Advance(s, 100)
	sum := Summarize(cfg, s)

	assert.False(t, sum.Impact)
	assert.True(t, sum.Escapes)
	assert.False(t, sum.Suborbital)
	assert.Greater(t, sum.LaunchSpeed, sum.EscapeSpeed)
	assert.Zero(t, sum.PredictedApex)
	assert.Contains(t, sum.String(), "escapes")
}

func TestSampleSpacing(t *testing.T) {
	mean, std := SampleSpacing(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)

	mean, std = SampleSpacing([]ballistic.Sample{{Time: 0}, {Time: 0.5}})
	assert.Equal(t, 0.5, mean)
	assert.Zero(t, std)

	mean, std = SampleSpacing([]ballistic.Sample{{Time: 0}, {Time: 1}, {Time: 3}})
	assert.InDelta(t, 1.5, mean, 1e-12)
	assert.InDelta(t, math.Sqrt(0.5), std, 1e-12)
}

func TestApexHeight(t *testing.T) {
	assert.True(t, math.IsInf(ApexHeight(nil), -1))
	assert.Equal(t, 7.0, ApexHeight([]ballistic.Sample{{Height: 3}, {Height: 7}, {Height: -1}}))
}

func TestGreatCircle(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		want                   float64
	}{
		{"same point", 12, 34, 12, 34, 0},
		{"quarter along equator", 0, 0, 0, 90, math.Pi / 2},
		{"pole to equator", 90, 0, 0, 123, math.Pi / 2},
		{"antipodes", 0, -90, 0, 90, math.Pi},
		{"across the dateline", 0, 179, 0, -179, 2 * deg},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, GreatCircle(tt.lat1, tt.lon1, tt.lat2, tt.lon2, 1), 1e-9)
		})
	}
}

func TestRelativeDrift(t *testing.T) {
	assert.InDelta(t, 0.01, RelativeDrift(-100, -99), 1e-12)
	assert.InDelta(t, -0.5, RelativeDrift(2, 1), 1e-12)
	assert.Equal(t, 3.0, RelativeDrift(0, 3))
}

func TestReadSamples_RoundTrip(t *testing.T) {
	s := runToImpact(lobConfig())

	var buf bytes.Buffer
	require.NoError(t, ballistic.WriteCSV(&buf, s.Log()))

	path := filepath.Join(t.TempDir(), "log.csv")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := LoadSamples(path)
	require.NoError(t, err)
	assert.Equal(t, s.Log(), got)
}

func TestReadSamples_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"wrong header", "t,x,y,z,h\n0,0,0,0,0\n"},
		{"bad number", "time,x,y,z,height\n0,zero,0,0,0\n"},
		{"short row", "time,x,y,z,height\n0,0,0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSamples(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}
