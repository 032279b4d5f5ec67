package compute

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/oxygene76/ballistics-client/internal/types"
	"github.com/oxygene76/ballistics-client/pkg/astronomy/ballistic"
	"github.com/oxygene76/ballistics-client/pkg/runner"
)

const deg = math.Pi / 180

func lob() ballistic.LaunchConfig {
	return ballistic.LaunchConfig{
		Height: 0.01, Azm: 90 * deg, Alt: 45 * deg, Speed: 40,
		Radius: 1e5, RotationPeriod: 1e30, DeltaTime: 0.002, LogInterval: 0.5, GSurfaceAcc: 10,
	}
}

func TestRequestValues(t *testing.T) {
	tests := []struct {
		name     string
		from, to float64
		points   int
		want     []float64
	}{
		{"single", 3, 9, 1, []float64{3}},
		{"endpoints", 0, 1, 2, []float64{0, 1}},
		{"five", 10, 50, 5, []float64{10, 20, 30, 40, 50}},
		{"descending", 1, -1, 3, []float64{1, 0, -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Request{From: tt.from, To: tt.to, Points: tt.points}.Values()
			assert.True(t, floats.EqualApprox(tt.want, got, 1e-12), "got %v", got)
		})
	}
}

func TestRequestValidate(t *testing.T) {
	ok := Request{Base: lob(), Axis: AxisAlt, Points: 3}
	require.NoError(t, ok.Validate())

	for name, req := range map[string]Request{
		"no points":       {Base: lob(), Axis: AxisAlt},
		"too many":        {Base: lob(), Axis: AxisAlt, Points: MaxPoints + 1},
		"bad workers":     {Base: lob(), Axis: AxisAlt, Points: 3, Workers: -1},
		"unknown axis":    {Base: lob(), Axis: "mass", Points: 3},
		"bad base":        {Axis: AxisAlt, Points: 3},
		"negative height": {Base: lob(), Axis: AxisHeight, From: -500, To: -100, Points: 2},
		"negative speed":  {Base: lob(), Axis: AxisSpeed, From: 10, To: -10, Points: 3},
	} {
		t.Run(name, func(t *testing.T) {
			err := req.Validate()
			assert.True(t, errors.Is(err, types.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestAxisParse(t *testing.T) {
	v, err := AxisAlt.Parse("30")
	require.NoError(t, err)
	assert.InDelta(t, 30*deg, v, 1e-12)

	v, err = AxisSpeed.Parse("36 km/h")
	require.NoError(t, err)
	assert.InDelta(t, 10, v, 1e-12)

	v, err = AxisHeight.Parse("2 km")
	require.NoError(t, err)
	assert.InDelta(t, 2000, v, 1e-12)

	_, err = AxisHeight.Parse("2 parsecs")
	assert.Error(t, err)
}

func TestSweep_ElevationFindsFortyFive(t *testing.T) {
	var calls atomic.Int32
	res, err := Sweep(context.Background(), Request{
		Base:    lob(),
		Axis:    AxisAlt,
		From:    15 * deg,
		To:      75 * deg,
		Points:  5,
		Workers: 3,
		Options: runner.Options{BatchSteps: 1000},
	}, zerolog.Nop(), func(done, total int) {
		calls.Add(1)
		assert.Equal(t, 5, total)
		assert.LessOrEqual(t, done, total)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(5), calls.Load())
	require.Len(t, res.Points, 5)
	assert.Equal(t, AxisAlt, res.Axis)

	for i, p := range res.Points {
		assert.Equal(t, types.StatusImpact, p.Status, "point %d", i)
	}
	assert.Equal(t, 2, res.Longest())

	// Range goes as sin(2·alt): complementary angles land together.
	r := func(i int) float64 { return res.Points[i].Summary.GroundRange }
	assert.InEpsilon(t, 160, r(2), 0.02)
	assert.InEpsilon(t, r(0), r(4), 0.02)
	assert.InEpsilon(t, r(1), r(3), 0.02)
	assert.InDelta(t, 30*deg, res.Points[1].Value, 1e-12)
}

func TestSweep_StepLimit(t *testing.T) {
	base := lob()
	base.Alt = 90 * deg
	base.Speed = 5000 // escapes a 1e5 m body with g=10

	res, err := Sweep(context.Background(), Request{
		Base:    base,
		Axis:    AxisSpeed,
		From:    5000,
		To:      6000,
		Points:  2,
		Options: runner.Options{BatchSteps: 100, MaxSteps: 500},
	}, zerolog.Nop(), nil)
	require.NoError(t, err)
	for _, p := range res.Points {
		assert.Equal(t, types.StatusStepLimit, p.Status)
		assert.Equal(t, 500, p.Summary.Iterations)
	}
	assert.Equal(t, -1, res.Longest())
}

func TestSweep_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Sweep(ctx, Request{Base: lob(), Axis: AxisAlt, From: 0, To: 1, Points: 4}, zerolog.Nop(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSweep_RejectsInvalidLaunch(t *testing.T) {
	res, err := Sweep(context.Background(), Request{
		Base:   lob(),
		Axis:   AxisHeight,
		From:   -500,
		To:     -100,
		Points: 2,
	}, zerolog.Nop(), nil)
	require.ErrorIs(t, err, types.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "height=-500")
	assert.Empty(t, res.Points)
}
