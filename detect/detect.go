// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package detect defines the object-detection domain types raced by a
// speculative execution coordinator.Operator: a Frame is the opaque Input,
// Detections is the Output, and a Detector is the local fallback computation
// (the model itself is out of scope of this repository; see spec.md §1).
package detect

import (
	"context"
	"time"
)

// A FrameID identifies a single captured frame, e.g. a file name or a
// sequence number stringified by the frame source that produced it.
type FrameID string

// A Frame is one unit of input to a detection computation: opaque encoded
// image bytes plus the instant it was captured.
type Frame struct {
	ID         FrameID
	Data       []byte
	CapturedAt time.Time
}

// A BoundingBox locates a detected object within a Frame, in normalized
// [0,1] image coordinates.
type BoundingBox struct {
	X, Y, W, H float32
}

// A Detection is one object found in a Frame.
type Detection struct {
	Label      string
	Confidence float32
	Box        BoundingBox
}

// Detections is the Output type raced by the coordinator: the complete set of
// objects found in a single Frame by one implementation (local or cloud).
type Detections []Detection

// A Detector is the opaque local computation an Operator always runs
// alongside its registered cloud implementations. Realizations wrap whatever
// object-detection model is available locally; this repository does not
// specify the model itself, only the contract it must satisfy.
type Detector func(ctx context.Context, frame Frame) (Detections, error)
