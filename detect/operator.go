// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package detect

import (
	"context"
	"time"

	"github.com/coatyio/speculative-exec/coordinator"
)

// An Operator races a Detector (the local fallback) against the registered
// cloud object-detection implementations for each Frame, exactly as
// coordinator.Operator does for its generic Input/Output types. Timestamp is
// fixed to time.Time here: the instant at which detection was requested for
// a Frame.
type Operator = coordinator.Operator[time.Time, Frame, Detections]

// NewOperator creates a detect.Operator whose local fallback is the given
// Detector.
func NewOperator(local Detector) *Operator {
	return coordinator.NewOperator[time.Time, Frame, Detections](func(ctx context.Context, frame Frame) (Detections, error) {
		return local(ctx, frame)
	})
}

// NewCloudImplementation wraps a cloud Endpoint as an object-detection
// implementation, ready to be registered with Operator.RegisterCloud: build encodes the Frame (and reports a Deadline) into the
// Endpoint's Request type, decode turns its Response back into Detections.
func NewCloudImplementation[Request, Response any](
	endpoint coordinator.Endpoint[Request, Response],
	build coordinator.BuildFunc[time.Time, Frame, Request],
	decode coordinator.DecodeFunc[Response, Detections],
	priority int,
) coordinator.Implementation[time.Time, Frame, Detections] {
	return coordinator.NewImplementation[time.Time, Frame, Request, Response, Detections](endpoint, build, decode, priority)
}
