// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package coordinator

import "errors"

// ErrDeadlineMissed is returned by Operator.ProcessMessage when no worker
// (local or cloud) published a result before the effective deadline. It is
// never overridden by a later-arriving result: once returned, the message's
// context is torn down and any straggling worker's result is discarded (see
// spec.md §9, open question 5).
var ErrDeadlineMissed = errors.New("coordinator: deadline missed before any worker produced a result")

// ErrAllFailed is returned by Operator.ProcessMessage when every spawned
// worker (the local worker and every registered cloud implementation that did
// not abstain from the message) reported a failure before the effective deadline, i.e. no slot ever had a
// chance to compete in the race.
var ErrAllFailed = errors.New("coordinator: all workers failed before producing a result")
