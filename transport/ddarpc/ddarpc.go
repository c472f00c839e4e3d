// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package ddarpc implements a cloud coordinator.Endpoint that invokes a cloud
// implementation through a co-located DDA sidecar's communication service,
// the same transport the teacher's Coordinator component uses to dispatch
// partial computations to Workers: a gRPC PublishAction request is answered
// by exactly one ActionResult on the returned stream.
package ddarpc

import (
	"context"
	"fmt"

	stubs "github.com/coatyio/dda/apis/grpc/stubs/golang"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/coatyio/speculative-exec/clog"
)

// ActionType identifies the detection action published to and subscribed by
// DDA sidecars, analogous to the teacher's ActionTypeCompute.
const ActionType = "speculative-exec.detect"

// An Endpoint invokes a single cloud implementation by publishing a DDA
// action and waiting for exactly one correlated result, implementing
// coordinator.Endpoint[[]byte, []byte]. It is cancellation-aware: canceling
// ctx aborts the in-flight gRPC call and Invoke returns promptly.
type Endpoint struct {
	*clog.CLogger
	id     string
	client stubs.ComServiceClient
	closer func()
}

// Dial connects to the gRPC service of the co-located DDA sidecar at address,
// exactly the way the teacher's openGrpcClient does.
func Dial(address string) (*Endpoint, error) {
	conn, err := grpc.Dial(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("ddarpc: failed to dial gRPC client on address %s: %w", address, err)
	}
	id := uuid.NewString()
	return &Endpoint{
		CLogger: clog.New("ddarpc %s ", clog.ShortID(id)),
		id:      id,
		client:  stubs.NewComServiceClient(conn),
		closer:  func() { _ = conn.Close() },
	}, nil
}

// Close releases the underlying gRPC connection.
func (e *Endpoint) Close() {
	if e.closer != nil {
		e.closer()
	}
}

// Invoke publishes request as the Params of a speculative-exec.detect action
// and returns the Data of the single correlated result. A canceled call (which
// the coordinator triggers itself once another implementation has already
// won) returns ctx.Err(); any other error, deadline-exceeded included, is
// returned wrapped and is reported as an EndpointFailure unless the message's
// context is already done.
func (e *Endpoint) Invoke(ctx context.Context, request []byte) ([]byte, error) {
	ac := &stubs.Action{
		Type:   ActionType,
		Id:     e.id,
		Source: e.id,
		Params: request,
	}

	stream, err := e.client.PublishAction(ctx, ac)
	if err != nil {
		if status.Code(err) == codes.Canceled {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ddarpc: publish action: %w", err)
	}

	ar, err := stream.Recv()
	if err != nil {
		if status.Code(err) == codes.Canceled {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ddarpc: receive action result: %w", err)
	}

	return ar.Data, nil
}
