// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package grpcstub

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/coatyio/speculative-exec/clog"
)

// HandlerFunc computes a response for a single raw request body, the server
// side of the generic RPC method Endpoint.Invoke calls.
type HandlerFunc func(ctx context.Context, request []byte) (response []byte, err error)

// A Server answers every RPC sent to it with handler, regardless of method
// name, by registering handler as a grpc.UnknownServiceHandler: there is no
// .proto-generated service descriptor to register against, mirroring this
// package's codec-level approach to carrying already-encoded payloads.
type Server struct {
	*clog.CLogger
	grpc *grpc.Server
}

// NewServer creates a Server that answers every incoming RPC with handler.
func NewServer(handler HandlerFunc) *Server {
	s := &Server{CLogger: clog.New("grpcstub-server ")}
	s.grpc = grpc.NewServer(
		grpc.ForceServerCodec(rawCodec{}),
		grpc.UnknownServiceHandler(s.streamHandler(handler)),
	)
	return s
}

// streamHandler adapts a HandlerFunc to the grpc.StreamHandler signature
// required by grpc.UnknownServiceHandler: receive exactly one raw message,
// invoke handler, send back exactly one raw message.
func (s *Server) streamHandler(handler HandlerFunc) grpc.StreamHandler {
	return func(srv any, stream grpc.ServerStream) error {
		var request []byte
		if err := stream.RecvMsg(&request); err != nil {
			return fmt.Errorf("grpcstub: receiving request: %w", err)
		}

		response, err := handler(stream.Context(), request)
		if err != nil {
			s.Errorf("handler failed: %v", err)
			return err
		}

		if err := stream.SendMsg(response); err != nil {
			return fmt.Errorf("grpcstub: sending response: %w", err)
		}
		return nil
	}
}

// Serve accepts connections on the given listener until it errors or the
// Server is stopped.
func (s *Server) Serve(lis net.Listener) error {
	s.Printf("Listening on %s", lis.Addr())
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the Server, finishing in-flight RPCs.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}
