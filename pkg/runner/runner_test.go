package runner

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/ballistics-client/internal/types"
	"github.com/oxygene76/ballistics-client/pkg/astronomy/ballistic"
)

func dropConfig() ballistic.LaunchConfig {
	return ballistic.LaunchConfig{
		Height: 10, Radius: 1000, RotationPeriod: 1e30,
		DeltaTime: 1, LogInterval: 1, GSurfaceAcc: 10,
	}
}

// escapeConfig never comes back down.
func escapeConfig() ballistic.LaunchConfig {
	return ballistic.LaunchConfig{
		Height: 10, Alt: math.Pi / 2, Speed: 1000, Radius: 1000, RotationPeriod: 1e30,
		DeltaTime: 0.01, LogInterval: 1, GSurfaceAcc: 10,
	}
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func newRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	r := New(opts, zerolog.Nop())
	t.Cleanup(r.Close)
	return r
}

func TestRunner_DropToImpact(t *testing.T) {
	r := newRunner(t, Options{BatchSteps: 1})

	_, ok := r.Current()
	assert.False(t, ok)

	id := r.Start(dropConfig())
	assert.Equal(t, "run-1", id)

	snap, err := r.Wait(waitCtx(t), id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusImpact, snap.Status)
	assert.True(t, snap.Info.Impact)
	assert.Equal(t, 2, snap.Info.Iterations)
	assert.Equal(t, 3, snap.LogLen)
	assert.Len(t, snap.Samples, 3)

	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, snap.ID, cur.ID)
}

func TestRunner_StartSupersedes(t *testing.T) {
	r := newRunner(t, Options{BatchSteps: 10})

	first := r.Start(escapeConfig())
	second := r.Start(dropConfig())
	require.NotEqual(t, first, second)

	_, err := r.Wait(waitCtx(t), first)
	assert.True(t, errors.Is(err, types.ErrRunSuperseded), "got %v", err)

	ch, unsubscribe := r.Subscribe()
	defer unsubscribe()

	snap, err := r.Wait(waitCtx(t), second)
	require.NoError(t, err)
	assert.Equal(t, types.StatusImpact, snap.Status)

	// Give a stale goroutine every chance to publish, then check that the
	// subscriber only ever saw the second run.
	time.Sleep(20 * time.Millisecond)
	for {
		select {
		case got := <-ch:
			assert.Equal(t, second, got.ID)
			continue
		default:
		}
		break
	}
	cur, _ := r.Current()
	assert.Equal(t, second, cur.ID)
}

func TestRunner_StaleGenerationCannotPublish(t *testing.T) {
	r := newRunner(t, Options{BatchSteps: 10})
	r.Start(escapeConfig())
	id := r.Start(escapeConfig())

	ok := r.publish(1, types.RunSnapshot{ID: "run-1", Generation: 1, Status: types.StatusImpact})
	assert.False(t, ok)

	cur, _ := r.Current()
	assert.Equal(t, id, cur.ID)
}

func TestRunner_Stop(t *testing.T) {
	r := newRunner(t, Options{BatchSteps: 10})
	id := r.Start(escapeConfig())

	r.Stop()

	snap, err := r.Wait(waitCtx(t), id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusStopped, snap.Status)
	assert.False(t, snap.Info.Impact)

	// The goroutine exits and the stopped snapshot stays current.
	r.Close()
	cur, ok := r.Current()
	require.True(t, ok)
	assert.Equal(t, id, cur.ID)
	assert.Equal(t, types.StatusStopped, cur.Status)

	// Stopping twice is harmless.
	r.Stop()
}

func TestRunner_MaxSteps(t *testing.T) {
	r := newRunner(t, Options{BatchSteps: 30, MaxSteps: 100})
	id := r.Start(escapeConfig())

	snap, err := r.Wait(waitCtx(t), id)
	require.NoError(t, err)
	assert.Equal(t, types.StatusStepLimit, snap.Status)
	assert.Equal(t, 100, snap.Info.Iterations)
}

func TestRunner_WaitContext(t *testing.T) {
	r := newRunner(t, Options{BatchSteps: 10})
	id := r.Start(escapeConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	snap, err := r.Wait(ctx, id)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, id, snap.ID)
}

func TestRunner_Get(t *testing.T) {
	r := newRunner(t, Options{})

	_, err := r.Get("run-1")
	assert.True(t, errors.Is(err, types.ErrRunNotFound))

	id := r.Start(dropConfig())
	_, err = r.Wait(waitCtx(t), id)
	require.NoError(t, err)

	snap, err := r.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, snap.ID)

	for _, bad := range []string{"run-7", "bogus", "run-0", ""} {
		_, err = r.Get(bad)
		assert.True(t, errors.Is(err, types.ErrRunNotFound), bad)
	}
}

func TestRunner_SubscribeReceivesProgress(t *testing.T) {
	r := newRunner(t, Options{BatchSteps: 1})

	ch, unsubscribe := r.Subscribe()
	id := r.Start(dropConfig())

	deadline := time.After(10 * time.Second)
	for {
		select {
		case snap := <-ch:
			assert.Equal(t, id, snap.ID)
			if snap.Status.Terminal() {
				assert.Equal(t, types.StatusImpact, snap.Status)
				unsubscribe()
				_, open := <-ch
				assert.False(t, open)
				unsubscribe()
				return
			}
		case <-deadline:
			t.Fatal("no terminal snapshot")
		}
	}
}

func TestRunSync(t *testing.T) {
	cfg := dropConfig()
	cfg.Height = 500
	cfg.DeltaTime = 0.01
	cfg.LogInterval = 0.5

	batches := 0
	s, err := RunSync(context.Background(), cfg, Options{BatchSteps: 100}, func(*ballistic.State) error {
		batches++
		return nil
	})
	require.NoError(t, err)
	require.True(t, s.Impact())

	direct := ballistic.New(cfg)
	ballistic.Advance(direct, math.MaxInt32)
	assert.Equal(t, direct.Iterations(), s.Iterations())
	assert.Equal(t, direct.Log(), s.Log())
	assert.Equal(t, (s.Iterations()+99)/100, batches)
}

func TestRunSync_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s, err := RunSync(ctx, escapeConfig(), Options{BatchSteps: 10}, func(*ballistic.State) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 30, s.Iterations())
}

func TestRunSync_CallbackError(t *testing.T) {
	boom := errors.New("sink full")
	_, err := RunSync(context.Background(), escapeConfig(), Options{BatchSteps: 10}, func(*ballistic.State) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestOptionsBudget(t *testing.T) {
	assert.Equal(t, DefaultBatchSteps, Options{}.budget(0))
	assert.Equal(t, 30, Options{BatchSteps: 30, MaxSteps: 100}.budget(60))
	assert.Equal(t, 10, Options{BatchSteps: 30, MaxSteps: 100}.budget(90))
	assert.Equal(t, 0, Options{BatchSteps: 30, MaxSteps: 100}.budget(100))
}
