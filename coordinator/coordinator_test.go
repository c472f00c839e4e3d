// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package coordinator_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/coatyio/speculative-exec/coordinator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sleepyEndpoint is a fake Endpoint that sleeps for a fixed duration (or
// returns errNow immediately) before returning request as the response,
// honoring ctx cancellation like a conformant Endpoint must.
type sleepyEndpoint struct {
	sleep   time.Duration
	errNow  error
	invoked chan struct{} // closed once Invoke starts, for tests that observe in-flight calls
}

func (e *sleepyEndpoint) Invoke(ctx context.Context, request string) (string, error) {
	if e.invoked != nil {
		close(e.invoked)
	}
	if e.errNow != nil {
		return "", e.errNow
	}
	select {
	case <-time.After(e.sleep):
		return request, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func newCloudImpl(priority int, sleep time.Duration, deadline time.Duration, errNow error) coordinator.Implementation[time.Time, string, string, string, string] {
	ep := &sleepyEndpoint{sleep: sleep, errNow: errNow}
	build := func(ctx context.Context, ts time.Time, input string) (string, coordinator.Deadline, bool, error) {
		return input, coordinator.NewRelativeDeadline(deadline), true, nil
	}
	decode := func(response string) (string, error) {
		return response, nil
	}
	return coordinator.NewImplementation[time.Time, string, string, string, string](ep, build, decode, priority)
}

func localFunc(sleep time.Duration, errNow error) coordinator.LocalFunc[string, string] {
	return func(ctx context.Context, input string) (string, error) {
		if errNow != nil {
			return "", errNow
		}
		select {
		case <-time.After(sleep):
			return "local:" + input, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func TestScenarioA_LocalWins(t *testing.T) {
	op := coordinator.NewOperator[time.Time, string, string](localFunc(100*time.Millisecond, nil))
	op.RegisterCloud(newCloudImpl(0, 2*time.Second, 500*time.Millisecond, nil))

	start := time.Now()
	out, err := op.ProcessMessage(context.Background(), start, "frame")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "local:frame", out)
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestScenarioB_CloudWins(t *testing.T) {
	op := coordinator.NewOperator[time.Time, string, string](localFunc(1*time.Second, nil))
	op.RegisterCloud(newCloudImpl(0, 200*time.Millisecond, 500*time.Millisecond, nil))

	start := time.Now()
	out, err := op.ProcessMessage(context.Background(), start, "frame")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "frame", out)
	assert.Less(t, elapsed, 400*time.Millisecond)
}

func TestScenarioC_DeadlineMiss(t *testing.T) {
	op := coordinator.NewOperator[time.Time, string, string](localFunc(2*time.Second, nil))
	op.RegisterCloud(newCloudImpl(0, 2*time.Second, 500*time.Millisecond, nil))

	start := time.Now()
	out, err := op.ProcessMessage(context.Background(), start, "frame")
	elapsed := time.Since(start)

	require.ErrorIs(t, err, coordinator.ErrDeadlineMissed)
	assert.Empty(t, out)
	assert.InDelta(t, 500*time.Millisecond, elapsed, float64(200*time.Millisecond))
}

func TestScenarioD_PriorityTieBreak(t *testing.T) {
	op := coordinator.NewOperator[time.Time, string, string](localFunc(1*time.Second, nil))
	tagged := func(priority int) coordinator.Implementation[time.Time, string, string] {
		return coordinator.NewImplementation[time.Time, string, string, string, string](
			&sleepyEndpoint{sleep: 100 * time.Millisecond},
			func(ctx context.Context, ts time.Time, input string) (string, coordinator.Deadline, bool, error) {
				return input, coordinator.NewRelativeDeadline(1 * time.Second), true, nil
			},
			func(r string) (string, error) { return fmt.Sprintf("p%d:%s", priority, r), nil },
			priority,
		)
	}
	op.RegisterCloud(tagged(1))
	op.RegisterCloud(tagged(0))
	// A third implementation abstains only after 200ms, so the coordinator
	// starts racing once both results above are already buffered, i.e. they
	// arrive in the same observation window.
	op.RegisterCloud(coordinator.NewImplementation[time.Time, string, string, string, string](
		&sleepyEndpoint{},
		func(ctx context.Context, ts time.Time, input string) (string, coordinator.Deadline, bool, error) {
			time.Sleep(200 * time.Millisecond)
			return "", coordinator.Deadline{}, false, nil
		},
		func(r string) (string, error) { return r, nil },
		2,
	))

	out, err := op.ProcessMessage(context.Background(), time.Now(), "frame")

	require.NoError(t, err)
	assert.Equal(t, "p0:frame", out)
}

func TestScenarioE_Abstention(t *testing.T) {
	op := coordinator.NewOperator[time.Time, string, string](localFunc(1*time.Second, nil))

	abstainingBuild := func(ctx context.Context, ts time.Time, input string) (string, coordinator.Deadline, bool, error) {
		return "", coordinator.Deadline{}, false, nil
	}
	abstaining := coordinator.NewImplementation[time.Time, string, string, string, string](
		&sleepyEndpoint{sleep: 0},
		abstainingBuild,
		func(r string) (string, error) { return r, nil },
		0,
	)
	op.RegisterCloud(abstaining)
	op.RegisterCloud(newCloudImpl(1, 300*time.Millisecond, 500*time.Millisecond, nil))

	start := time.Now()
	out, err := op.ProcessMessage(context.Background(), start, "frame")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "frame", out)
	assert.InDelta(t, 300*time.Millisecond, elapsed, float64(200*time.Millisecond))
}

func TestScenarioF_LocalFallbackOnCloudFailure(t *testing.T) {
	op := coordinator.NewOperator[time.Time, string, string](localFunc(200*time.Millisecond, nil))
	op.RegisterCloud(newCloudImpl(0, 0, 1*time.Second, errors.New("cloud exploded")))

	start := time.Now()
	out, err := op.ProcessMessage(context.Background(), start, "frame")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "local:frame", out)
	assert.Less(t, elapsed, 400*time.Millisecond)
}

func TestAllFailed_WithAbstainingImplementation(t *testing.T) {
	// Regression test: an abstaining cloud implementation must not count
	// towards the worker total AllFailed is measured against, or else a
	// local-only failure alongside it can never reach AllFailed and
	// ProcessMessage hangs until the far-future sentinel deadline.
	op := coordinator.NewOperator[time.Time, string, string](localFunc(0, errors.New("local exploded")))

	abstainingBuild := func(ctx context.Context, ts time.Time, input string) (string, coordinator.Deadline, bool, error) {
		return "", coordinator.Deadline{}, false, nil
	}
	abstaining := coordinator.NewImplementation[time.Time, string, string, string, string](
		&sleepyEndpoint{sleep: 0},
		abstainingBuild,
		func(r string) (string, error) { return r, nil },
		0,
	)
	op.RegisterCloud(abstaining)

	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		_, err = op.ProcessMessage(context.Background(), time.Now(), "frame")
	}()

	select {
	case <-done:
		require.ErrorIs(t, err, coordinator.ErrAllFailed)
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessMessage did not return promptly with only an abstaining implementation and a failing local worker")
	}
}

func TestAllFailed(t *testing.T) {
	op := coordinator.NewOperator[time.Time, string, string](localFunc(0, errors.New("local exploded")))
	op.RegisterCloud(newCloudImpl(0, 0, 1*time.Second, errors.New("cloud exploded")))

	_, err := op.ProcessMessage(context.Background(), time.Now(), "frame")

	require.ErrorIs(t, err, coordinator.ErrAllFailed)
}

func TestAvailability_JoinsOnSuccessLeavesOnFailure(t *testing.T) {
	op := coordinator.NewOperator[time.Time, string, string](localFunc(0, nil))
	op.RegisterCloud(newCloudImpl(0, 0, 1*time.Second, nil))
	op.RegisterCloud(newCloudImpl(1, 0, 1*time.Second, errors.New("cloud exploded")))

	_, err := op.ProcessMessage(context.Background(), time.Now(), "frame")
	require.NoError(t, err)

	assert.True(t, op.Availability().Reachable(0))
	assert.False(t, op.Availability().Reachable(1))
	assert.Equal(t, 1, op.Availability().Count())
}

func TestNoCloud_ReturnsLocal(t *testing.T) {
	op := coordinator.NewOperator[time.Time, string, string](localFunc(10*time.Millisecond, nil))

	out, err := op.ProcessMessage(context.Background(), time.Now(), "frame")

	require.NoError(t, err)
	assert.Equal(t, "local:frame", out)
}

func TestEffectiveDeadline_IsMinimumAcrossImplementations(t *testing.T) {
	op := coordinator.NewOperator[time.Time, string, string](localFunc(5*time.Second, nil))
	op.RegisterCloud(newCloudImpl(0, 5*time.Second, 2*time.Second, nil))
	op.RegisterCloud(newCloudImpl(1, 5*time.Second, 300*time.Millisecond, nil))
	op.RegisterCloud(newCloudImpl(2, 5*time.Second, 1*time.Second, nil))

	start := time.Now()
	_, err := op.ProcessMessage(context.Background(), start, "frame")
	elapsed := time.Since(start)

	require.ErrorIs(t, err, coordinator.ErrDeadlineMissed)
	assert.InDelta(t, 300*time.Millisecond, elapsed, float64(150*time.Millisecond))
}

func TestRegistrationIdempotence(t *testing.T) {
	// process_message's outcome depends only on what is registered at the
	// instant of the call: registering a faster cloud implementation after a
	// call has already captured its snapshot must not change that call's
	// result once it is already racing.
	op := coordinator.NewOperator[time.Time, string, string](localFunc(300*time.Millisecond, nil))
	op.RegisterCloud(newCloudImpl(0, 2*time.Second, 500*time.Millisecond, nil))

	results := make(chan string, 1)
	go func() {
		out, err := op.ProcessMessage(context.Background(), time.Now(), "frame")
		require.NoError(t, err)
		results <- out
	}()

	time.Sleep(20 * time.Millisecond) // ensure the goroutine has snapshotted implementations
	op.RegisterCloud(newCloudImpl(-1, 1*time.Millisecond, 10*time.Millisecond, nil))

	select {
	case out := <-results:
		assert.Equal(t, "local:frame", out)
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessMessage did not return in time")
	}
}

func TestNoGoroutineLeak_StragglerIsCanceled(t *testing.T) {
	invoked := make(chan struct{})
	op := coordinator.NewOperator[time.Time, string, string](localFunc(50*time.Millisecond, nil))
	slowEndpoint := &sleepyEndpoint{sleep: 10 * time.Second, invoked: invoked}
	im := coordinator.NewImplementation[time.Time, string, string, string, string](
		slowEndpoint,
		func(ctx context.Context, ts time.Time, input string) (string, coordinator.Deadline, bool, error) {
			return input, coordinator.NewRelativeDeadline(5 * time.Second), true, nil
		},
		func(r string) (string, error) { return r, nil },
		0,
	)
	op.RegisterCloud(im)

	start := time.Now()
	out, err := op.ProcessMessage(context.Background(), start, "frame")
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, "local:frame", out)
	// ProcessMessage must join the straggling cloud worker (which observes
	// ctx cancellation inside its 10s sleep) before returning, not merely
	// abandon it — so the call should still return quickly because the
	// worker's Invoke is context-aware.
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestDeadlineInstant_PanicsBeforeResolution(t *testing.T) {
	d := coordinator.NewRelativeDeadline(time.Second)
	assert.Panics(t, func() { d.Instant() })
	assert.NotPanics(t, func() { d.ToAbsolute(time.Now()).Instant() })
}

func TestDeadlineToAbsolute_IsIdempotent(t *testing.T) {
	start := time.Now()
	d := coordinator.NewRelativeDeadline(time.Second)
	once := d.ToAbsolute(start)
	twice := once.ToAbsolute(start.Add(time.Hour))
	assert.Equal(t, once.Instant(), twice.Instant())
}

func TestDeadlineMissed_IsNotOverriddenByLateResult(t *testing.T) {
	op := coordinator.NewOperator[time.Time, string, string](localFunc(1*time.Second, nil))
	op.RegisterCloud(newCloudImpl(0, 300*time.Millisecond, 50*time.Millisecond, nil))

	_, err := op.ProcessMessage(context.Background(), time.Now(), "frame")
	require.ErrorIs(t, err, coordinator.ErrDeadlineMissed)
	// ProcessMessage has already canceled and joined the straggling cloud
	// worker (300ms sleep) before returning; wait past that 300ms to show
	// that nothing publishes a result for a call that has already returned.
	time.Sleep(400 * time.Millisecond)
}

func ExampleOperator_ProcessMessage() {
	op := coordinator.NewOperator[time.Time, string, string](localFunc(time.Hour, nil)) // local never wins
	op.RegisterCloud(newCloudImpl(0, 10*time.Millisecond, time.Second, nil))

	out, err := op.ProcessMessage(context.Background(), time.Now(), "hello")
	fmt.Println(out, err)
	// Output: hello <nil>
}
