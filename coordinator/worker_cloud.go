// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package coordinator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// runCloudWorker drives one registered cloud Implementation through its three
// ordered phases for a single message (spec.md §4.4):
//
//  1. Build: call im.build, write the resulting Deadline into deadlines[idx],
//     and release the barrier. This must happen before Invoke begins, so the
//     coordinator never computes the effective deadline on a partial view.
//  2. Invoke: call the Endpoint, which may block.
//  3. Publish: decode the response and publish the result slot.
//
// A BuilderSkipped (ok == false) or BuilderFailure (err != nil) outcome
// abstains the implementation from this message: the barrier is still
// released, with an infinite deadline so it can never become the effective
// deadline, and abstained is incremented instead of publishing a slot —
// implementation.go's BuildFunc doc guarantees this behaves as if the
// implementation were never registered for this call, so it must not count
// towards AllFailed detection (ProcessMessage subtracts abstained from the
// worker total it expects results from). An EndpointFailure or
// response-decode failure, by contrast, is published as a failed slot so the
// coordinator can still detect AllFailed. A panic anywhere in this sequence
// is recovered and published as a failed slot, not counted as an abstention.
func (op *Operator[Timestamp, Input, Output]) runCloudWorker(
	ctx context.Context,
	im Implementation[Timestamp, Input, Output],
	timestamp Timestamp,
	input Input,
	messageStart time.Time,
	deadlines []Deadline,
	idx int,
	barrier *sync.WaitGroup,
	results chan<- slot[Output],
	inflight *sync.WaitGroup,
	abstained *atomic.Int32,
) {
	defer inflight.Done()

	reported := false
	report := func(d Deadline) {
		if reported {
			return
		}
		reported = true
		deadlines[idx] = d
		barrier.Done()
	}

	defer func() {
		if r := recover(); r != nil {
			op.Errorf("cloud worker priority %d panicked: %v", im.priority, r)
			report(infiniteDeadline())
			publish(ctx, results, slot[Output]{priority: im.priority, arrived: time.Now(), err: fmt.Errorf("cloud priority %d panic: %v", im.priority, r)})
		}
	}()

	request, deadline, ok, err := im.build(ctx, timestamp, input)
	if err != nil {
		op.Errorf("cloud worker priority %d build_request failed: %v", im.priority, err)
		abstained.Add(1)
		report(infiniteDeadline())
		return
	}
	if !ok {
		op.Printf("cloud worker priority %d abstained: no request built", im.priority)
		abstained.Add(1)
		report(infiniteDeadline())
		return
	}
	report(deadline)

	invokeStart := time.Now()
	response, err := im.invoke(ctx, request)
	elapsed := time.Since(invokeStart)
	if err != nil {
		if ctx.Err() != nil {
			return // canceled: not a reportable failure, just unwind quietly
		}
		op.Errorf("cloud worker priority %d endpoint invoke failed after %v: %v", im.priority, elapsed, err)
		op.availability.Leave(im.priority)
		publish(ctx, results, slot[Output]{priority: im.priority, arrived: time.Now(), err: err})
		return
	}
	op.telemetry.recordCloud(im.priority, elapsed)
	op.availability.Join(im.priority)
	op.Printf("cloud worker priority %d took %v", im.priority, elapsed)

	output, err := im.decode(response)
	if err != nil {
		op.Errorf("cloud worker priority %d decode_response failed: %v", im.priority, err)
		publish(ctx, results, slot[Output]{priority: im.priority, arrived: time.Now(), err: err})
		return
	}

	publish(ctx, results, slot[Output]{priority: im.priority, arrived: time.Now(), output: output})
}
