// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package detect_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coatyio/speculative-exec/detect"
)

func TestFrameCodecRoundTrip(t *testing.T) {
	frame := detect.Frame{ID: "f1", Data: []byte{1, 2, 3}, CapturedAt: time.Now().Truncate(time.Second)}

	encoded, err := detect.EncodeFrame(frame)
	require.NoError(t, err)

	decoded, err := detect.DecodeFrame(encoded)
	require.NoError(t, err)
	assert.Equal(t, frame, decoded)
}

func TestDetectionsCodecRoundTrip(t *testing.T) {
	dets := detect.Detections{
		{Label: "cat", Confidence: 0.9, Box: detect.BoundingBox{X: 0, Y: 0, W: 1, H: 1}},
	}

	encoded, err := detect.EncodeDetections(dets)
	require.NoError(t, err)

	decoded, err := detect.DecodeDetections(encoded)
	require.NoError(t, err)
	assert.Equal(t, dets, decoded)
}

func TestDummyDetector_Deterministic(t *testing.T) {
	frame := detect.Frame{ID: "f1", Data: []byte("same bytes")}

	d1, err := detect.DummyDetector(context.Background(), frame)
	require.NoError(t, err)
	d2, err := detect.DummyDetector(context.Background(), frame)
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	require.Len(t, d1, 1)
	assert.Equal(t, "object", d1[0].Label)
}

func TestDummyDetector_RespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := detect.DummyDetector(ctx, detect.Frame{})
	assert.ErrorIs(t, err, context.Canceled)
}
