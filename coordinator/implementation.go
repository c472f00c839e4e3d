// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package coordinator

import "context"

// An Endpoint is an opaque remote callable: it takes a request value and
// returns a response value, and may block. It may fail. Endpoints are assumed
// thread-safe under concurrent invocation for distinct requests, so a single
// Endpoint may back multiple registered Implementations.
//
// An Endpoint is unary-request/unary-response only, by design: it is invoked
// at most once per message per Implementation and returns exactly one
// response or an error, never a stream of partial results. Cross-message
// batching and streaming RPCs are out of scope (spec.md's "cross-message
// batching" Non-goal); transports that are natively streaming, such as
// transport/ddarpc's sidecar connection, are adapted down to this
// one-shot contract at the transport boundary.
//
// A conformant Endpoint should observe ctx cancellation and return promptly
// when it is done, rather than block indefinitely: Operator.ProcessMessage
// cancels a message's context as soon as a result has been selected or the
// deadline has passed, and waits for every spawned worker to return before
// returning itself (see spec.md §9, open question 3). An Endpoint that
// ignores ctx will not leak goroutines, but will make ProcessMessage block
// longer than the winning result's arrival time.
type Endpoint[Request, Response any] interface {
	Invoke(ctx context.Context, request Request) (Response, error)
}

// A BuildFunc builds the request and deadline for one cloud implementation's
// participation in a single message. It may be called at most once per
// message per Implementation.
//
// If ok is false (and err is nil), the implementation abstains from this
// message: it is as if it were not registered at all for this call. If err is
// non-nil, the implementation abstains as well, but the failure is logged.
type BuildFunc[Timestamp, Input, Request any] func(ctx context.Context, timestamp Timestamp, input Input) (request Request, deadline Deadline, ok bool, err error)

// A DecodeFunc decodes an Endpoint's response into the Output type shared by
// every Implementation and the local worker of an Operator.
type DecodeFunc[Response, Output any] func(response Response) (Output, error)

// An Implementation is an immutable, registered cloud variant of an
// Input -> Output computation: an Endpoint plus the request builder and
// response decoder that adapt it, plus a scheduling priority (lower numeric
// value wins ties). Request and Response are erased to `any` internally so
// that an Operator can hold Implementations with differing wire types
// (e.g. one gRPC-backed, one DDA-backed) side by side in a single slice.
//
// Construct one with NewImplementation.
type Implementation[Timestamp, Input, Output any] struct {
	priority int
	build    func(ctx context.Context, timestamp Timestamp, input Input) (request any, deadline Deadline, ok bool, err error)
	invoke   func(ctx context.Context, request any) (response any, err error)
	decode   func(response any) (Output, error)
}

// NewImplementation wraps a cloud Endpoint with the given build and decode
// functions and priority, ready to be registered with Operator.RegisterCloud.
// Lower numeric priority wins scheduling ties against other cloud
// implementations (see Operator.ProcessMessage); every cloud implementation
// always wins a tie against the local fallback, i.e. it is the local result
// that ranks last, not first (spec.md §9, open question 1).
func NewImplementation[Timestamp, Input, Request, Response, Output any](
	endpoint Endpoint[Request, Response],
	build BuildFunc[Timestamp, Input, Request],
	decode DecodeFunc[Response, Output],
	priority int,
) Implementation[Timestamp, Input, Output] {
	return Implementation[Timestamp, Input, Output]{
		priority: priority,
		build: func(ctx context.Context, timestamp Timestamp, input Input) (any, Deadline, bool, error) {
			request, deadline, ok, err := build(ctx, timestamp, input)
			return request, deadline, ok, err
		},
		invoke: func(ctx context.Context, request any) (any, error) {
			return endpoint.Invoke(ctx, request.(Request))
		},
		decode: func(response any) (Output, error) {
			return decode(response.(Response))
		},
	}
}

// Priority returns the Implementation's scheduling priority.
func (im Implementation[Timestamp, Input, Output]) Priority() int {
	return im.priority
}

// A LocalFunc runs the local fallback computation for an Operator. It is
// always run, concurrently with every registered cloud implementation, for
// every message.
type LocalFunc[Input, Output any] func(ctx context.Context, input Input) (Output, error)
