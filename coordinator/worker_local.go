// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// runLocalWorker runs the Operator's local fallback computation on its own
// goroutine and publishes its outcome as a LocalPriority slot. A panic inside
// the local function is recovered and reported as a failed slot rather than
// crashing the process (spec.md §4.3, §7 LocalFailure).
func (op *Operator[Timestamp, Input, Output]) runLocalWorker(ctx context.Context, input Input, results chan<- slot[Output], inflight *sync.WaitGroup) {
	defer inflight.Done()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			op.Errorf("local worker panicked: %v", r)
			publish(ctx, results, slot[Output]{priority: LocalPriority, arrived: time.Now(), err: fmt.Errorf("local worker panic: %v", r)})
		}
	}()

	output, err := op.local(ctx, input)
	elapsed := time.Since(start)
	op.telemetry.recordLocal(elapsed)
	op.Printf("local execution took %v", elapsed)

	if err != nil {
		publish(ctx, results, slot[Output]{priority: LocalPriority, arrived: time.Now(), err: err})
		return
	}
	publish(ctx, results, slot[Output]{priority: LocalPriority, arrived: time.Now(), output: output})
}

// publish sends s on results unless ctx is already done, in which case the
// slot is discarded: the coordinator has moved on and no longer listens.
func publish[Output any](ctx context.Context, results chan<- slot[Output], s slot[Output]) {
	select {
	case results <- s:
	case <-ctx.Done():
	}
}
