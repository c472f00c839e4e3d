// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package coordinator

import (
	"sort"
	"sync"
	"time"
)

// Telemetry collects rolling observations of worker execution times for
// diagnostics, mirroring the cloud_ex_times/local_ex_times bookkeeping kept by
// the original source's SpeculativeOperator. All methods are safe for concurrent use.
type Telemetry struct {
	mu        sync.Mutex
	cloud     map[int][]time.Duration // keyed by cloud implementation priority
	local     []time.Duration
	perMessage []time.Duration
}

// NewTelemetry returns an empty Telemetry.
func NewTelemetry() *Telemetry {
	return &Telemetry{cloud: make(map[int][]time.Duration)}
}

func (t *Telemetry) recordCloud(priority int, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cloud[priority] = append(t.cloud[priority], d)
}

func (t *Telemetry) recordLocal(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.local = append(t.local, d)
}

func (t *Telemetry) recordMessage(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.perMessage = append(t.perMessage, d)
}

// CloudTimes returns a copy of the recorded RPC elapsed times for the cloud
// implementation registered under the given priority.
func (t *Telemetry) CloudTimes(priority int) []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.cloud[priority]...)
}

// CloudPriorities returns the priorities of every cloud implementation that
// has completed at least one timed invocation, ascending.
func (t *Telemetry) CloudPriorities() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	priorities := make([]int, 0, len(t.cloud))
	for p := range t.cloud {
		priorities = append(priorities, p)
	}
	sort.Ints(priorities)
	return priorities
}

// LocalTimes returns a copy of the recorded local execution times.
func (t *Telemetry) LocalTimes() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.local...)
}

// MessageTimes returns a copy of the recorded per-message elapsed times for
// the whole speculative decision, from ProcessMessage's start to its return.
func (t *Telemetry) MessageTimes() []time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]time.Duration(nil), t.perMessage...)
}
