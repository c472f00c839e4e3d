// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package detect

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// EncodeFrame and DecodeFrame, and EncodeDetections and DecodeDetections,
// serialize this package's domain types to and from gob, a Go-only binary
// encoding, exactly as the teacher's pi and wf computations encode their
// partial input/output data. A new encoder/decoder is created for every call:
// a gob encoder that is reused across calls only sends full type information
// on its first use, which a freshly-dialed peer that missed that first
// encoding could not decode.

// EncodeFrame serializes a Frame to gob-encoded bytes.
func EncodeFrame(f Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return nil, fmt.Errorf("detect: encode frame: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeFrame deserializes a Frame from gob-encoded bytes.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
		return Frame{}, fmt.Errorf("detect: decode frame: %w", err)
	}
	return f, nil
}

// EncodeDetections serializes Detections to gob-encoded bytes. An empty
// Detections value is encoded like any other; nothing in this repository
// treats it as an error marker.
func EncodeDetections(d Detections) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(d); err != nil {
		return nil, fmt.Errorf("detect: encode detections: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeDetections deserializes Detections from gob-encoded bytes.
func DecodeDetections(data []byte) (Detections, error) {
	var d Detections
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&d); err != nil {
		return nil, fmt.Errorf("detect: decode detections: %w", err)
	}
	return d, nil
}
