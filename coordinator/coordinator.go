// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package coordinator implements the speculative execution coordinator: for
// each input message it races a local computation against the registered
// cloud implementations of the same logical function, returning the first
// acceptable result that arrives before a per-message deadline.
//
// The local worker always runs. Each registered cloud implementation runs in
// its own goroutine which first builds a request (reporting a deadline for
// it), then invokes its Endpoint, then decodes the response. The Operator
// waits until every cloud implementation has reported its deadline, computes
// the effective (earliest) deadline, and then races the result channel
// against that deadline, picking the best-priority result available at first
// completion.
package coordinator

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coatyio/speculative-exec/clog"
)

// LocalPriority is the sentinel priority assigned to the local fallback's
// result slot. It is math.MaxInt so that, in ascending-priority order (lower
// numeric value wins), the local result always ranks last among results that
// arrive in the same observation window: cloud implementations win ties
// against it, and local is only ever chosen as a genuine fallback when no
// cloud slot is ready in that window. This corrects the source's use of
// priority -1, which let local win ties (spec.md §3, §9 open question 1).
const LocalPriority = math.MaxInt

// An Operator is a per-message speculative orchestrator over one local
// computation and a registry of cloud Implementations of the same logical
// function. Construct one with NewOperator, register cloud implementations
// with RegisterCloud, and drive messages through ProcessMessage.
//
// All methods are safe for concurrent use. Registration is read by
// ProcessMessage as a snapshot taken at the start of the call (spec.md §3:
// "the set of Implementations is append-only during message processing").
type Operator[Timestamp, Input, Output any] struct {
	*clog.CLogger
	local        LocalFunc[Input, Output]
	telemetry    *Telemetry
	availability *Availability

	mu              sync.RWMutex
	implementations []Implementation[Timestamp, Input, Output]
}

// NewOperator creates an Operator whose local fallback computation is local.
func NewOperator[Timestamp, Input, Output any](local LocalFunc[Input, Output]) *Operator[Timestamp, Input, Output] {
	return &Operator[Timestamp, Input, Output]{
		CLogger:      clog.New("coordinator "),
		local:        local,
		telemetry:    NewTelemetry(),
		availability: NewAvailability(),
	}
}

// RegisterCloud appends a cloud Implementation to the Operator's registry. No
// de-duplication is performed: registering the same priority twice is legal.
// Implementations are launched in ascending priority order, keeping
// registration order among equal priorities (stable sort); when results of
// equal priority meet in one observation window, the earlier-arriving one is
// chosen, whatever their registration order.
func (op *Operator[Timestamp, Input, Output]) RegisterCloud(im Implementation[Timestamp, Input, Output]) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.implementations = append(op.implementations, im)
}

// Telemetry returns the Operator's rolling execution-time observations.
func (op *Operator[Timestamp, Input, Output]) Telemetry() *Telemetry {
	return op.telemetry
}

// Availability returns the Operator's reachability tracker for registered
// cloud implementations, updated as each one succeeds or fails during message
// processing.
func (op *Operator[Timestamp, Input, Output]) Availability() *Availability {
	return op.availability
}

// slot is a candidate result published by a worker: either a successful
// output (err == nil) or a failure the Coordinator must ignore when picking a
// winner but must still count towards AllFailed detection.
type slot[Output any] struct {
	priority int
	arrived  time.Time
	output   Output
	err      error
}

// ProcessMessage is the coordinator's hot path (spec.md §4.5). It fans out
// the local worker and one goroutine per registered cloud implementation
// (Phase A), waits until every cloud implementation has reported the deadline
// of its request (Phase B), then races the first acceptable result against
// the effective deadline (Phase C), honoring the priority tie-break among
// results that arrive in the same observation window. On any exit path
// (result, DeadlineMissed, AllFailed, or ctx cancellation) it cancels the
// message's own context and waits for every spawned worker to return before
// returning itself (Phase D) — no worker goroutine outlives this call.
func (op *Operator[Timestamp, Input, Output]) ProcessMessage(ctx context.Context, timestamp Timestamp, input Input) (Output, error) {
	messageStart := time.Now()
	defer func() {
		op.telemetry.recordMessage(time.Since(messageStart))
	}()

	op.mu.RLock()
	impls := make([]Implementation[Timestamp, Input, Output], len(op.implementations))
	copy(impls, op.implementations)
	op.mu.RUnlock()

	sort.SliceStable(impls, func(i, j int) bool { return impls[i].priority < impls[j].priority })

	msgCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	nCloud := len(impls)
	total := 1 + nCloud

	deadlines := make([]Deadline, nCloud)
	var barrier sync.WaitGroup
	barrier.Add(nCloud)

	var inflight sync.WaitGroup
	inflight.Add(total)

	var abstained atomic.Int32

	results := make(chan slot[Output], total)

	go op.runLocalWorker(msgCtx, input, results, &inflight)
	for i, im := range impls {
		go op.runCloudWorker(msgCtx, im, timestamp, input, messageStart, deadlines, i, &barrier, results, &inflight, &abstained)
	}

	finish := func(out Output, err error) (Output, error) {
		cancel()
		inflight.Wait()
		return out, err
	}

	// Phase B: deadline aggregation. Wait until every cloud implementation has
	// released the barrier, signaling that deadlines is fully populated; only
	// then is it safe to compute the effective deadline (spec.md §5's
	// happens-before edge).
	var zero Output
	if nCloud > 0 {
		barrierDone := make(chan struct{})
		go func() {
			barrier.Wait()
			close(barrierDone)
		}()
		select {
		case <-barrierDone:
		case <-ctx.Done():
			return finish(zero, ctx.Err())
		}
	}

	effectiveDeadline := farFuture
	for _, d := range deadlines {
		if abs := d.ToAbsolute(messageStart).Instant(); abs.Before(effectiveDeadline) {
			effectiveDeadline = abs
		}
	}

	// Every cloud implementation has now either reported a real deadline (and
	// will eventually publish a slot) or abstained (and never will): shrink
	// the worker total AllFailed is measured against accordingly, so an
	// abstaining implementation behaves as if it were never registered
	// (implementation.go's BuildFunc doc), exactly like the zero-cloud case.
	expected := total - int(abstained.Load())

	// Phase C: race the result channel against the effective deadline.
	timer := time.NewTimer(time.Until(effectiveDeadline))
	defer timer.Stop()

	failed := 0
	for {
		select {
		case s := <-results:
			best, allFailed := op.selectWindow(s, results, &failed, expected)
			if allFailed {
				return finish(zero, ErrAllFailed)
			}
			if best != nil {
				return finish(best.output, nil)
			}
			// No successful slot in this window and not every worker has
			// failed yet: keep racing.
		case <-timer.C:
			return finish(zero, ErrDeadlineMissed)
		case <-ctx.Done():
			return finish(zero, ctx.Err())
		}
	}
}

// selectWindow considers first and every additional slot already buffered in
// results (without blocking), applying the (priority ascending, arrival
// ascending) tie-break among the successful ones. It returns the best
// successful slot found, if any, and whether every worker (failed so far plus
// this window) has now failed.
func (op *Operator[Timestamp, Input, Output]) selectWindow(first slot[Output], results <-chan slot[Output], failed *int, total int) (*slot[Output], bool) {
	var best *slot[Output]
	consider := func(s slot[Output]) {
		if s.err != nil {
			*failed++
			op.Errorf("worker priority %d failed: %v", s.priority, s.err)
			return
		}
		if best == nil ||
			s.priority < best.priority ||
			(s.priority == best.priority && s.arrived.Before(best.arrived)) {
			sc := s
			best = &sc
		}
	}

	consider(first)
	for {
		select {
		case s := <-results:
			consider(s)
		default:
			if best == nil && *failed == total {
				return nil, true
			}
			return best, false
		}
	}
}
