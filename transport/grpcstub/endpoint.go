// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package grpcstub

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/coatyio/speculative-exec/clog"
)

// method is the single generic RPC method every grpcstub server exposes,
// routed by UnknownServiceHandler rather than by a generated service
// descriptor.
const method = "/speculative-exec.grpcstub/Invoke"

// An Endpoint invokes a cloud implementation over a bare gRPC connection,
// implementing coordinator.Endpoint[[]byte, []byte]. Canceling the Invoke
// context aborts the in-flight RPC promptly, satisfying the coordinator's
// cancellation contract.
type Endpoint struct {
	*clog.CLogger
	conn   *grpc.ClientConn
	closer func()
}

// Dial opens a gRPC connection to a grpcstub server at address.
func Dial(address string) (*Endpoint, error) {
	conn, err := grpc.Dial(address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(rawCodec{})),
	)
	if err != nil {
		return nil, fmt.Errorf("grpcstub: failed to dial %s: %w", address, err)
	}
	return &Endpoint{
		CLogger: clog.New("grpcstub-client "),
		conn:    conn,
		closer:  func() { _ = conn.Close() },
	}, nil
}

// Close releases the underlying gRPC connection.
func (e *Endpoint) Close() {
	if e.closer != nil {
		e.closer()
	}
}

// Invoke sends request as the raw body of the single generic RPC method and
// returns the raw response body.
func (e *Endpoint) Invoke(ctx context.Context, request []byte) ([]byte, error) {
	var response []byte
	if err := e.conn.Invoke(ctx, method, request, &response); err != nil {
		return nil, fmt.Errorf("grpcstub: invoke: %w", err)
	}
	return response, nil
}
