// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package grpcstub implements a cloud coordinator.Endpoint and a matching
// server over a bare gRPC connection, with no .proto-generated stubs: a
// single raw-bytes codec and an UnknownServiceHandler-backed server let the
// caller ship already-encoded request/response payloads (here, gob-encoded
// detect.Frame/Detections) through a generic RPC method, the way the
// teacher's gRPC-based DDA sidecar binding ships opaque BinaryData payloads
// rather than typed protobuf messages.
package grpcstub

import (
	"fmt"

	"google.golang.org/grpc/encoding"
)

// codecName is registered with grpc/encoding; rawCodec is forced on the client
// via grpc.ForceCodec as a default call option and on the server via
// grpc.ForceServerCodec so that rawCodec, not the default proto codec, frames
// every message on the wire.
const codecName = "raw"

// rawCodec marshals and unmarshals payloads that are already byte slices,
// skipping protobuf entirely. Method implementations on both the client and
// the server side are responsible for any further encoding (detect's gob
// helpers, in this repository).
type rawCodec struct{}

func init() {
	encoding.RegisterCodec(rawCodec{})
}

func (rawCodec) Name() string { return codecName }

func (rawCodec) Marshal(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("grpcstub: rawCodec.Marshal: expected []byte, got %T", v)
	}
	return b, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	p, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("grpcstub: rawCodec.Unmarshal: expected *[]byte, got %T", v)
	}
	*p = append((*p)[:0], data...)
	return nil
}
