// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package detect

import (
	"context"
	"hash/fnv"
)

// DummyDetector is a stand-in local Detector for demonstration and testing,
// playing the role the original source's process_dummy_image did in its
// example scripts when run without a real model: it derives a single,
// deterministic Detection from the Frame's bytes instead of running any real
// object-detection model (which is explicitly out of scope; spec.md §1).
func DummyDetector(ctx context.Context, frame Frame) (Detections, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	h := fnv.New32a()
	_, _ = h.Write(frame.Data)
	confidence := float32(h.Sum32()%1000) / 1000

	return Detections{{
		Label:      "object",
		Confidence: confidence,
		Box:        BoundingBox{X: 0.25, Y: 0.25, W: 0.5, H: 0.5},
	}}, nil
}
