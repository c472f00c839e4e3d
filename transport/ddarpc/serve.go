// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package ddarpc

import (
	"context"
	"fmt"

	"github.com/coatyio/dda/config"
	"github.com/coatyio/dda/dda"
	"github.com/coatyio/dda/services/com/api"
	"github.com/google/uuid"

	"github.com/coatyio/speculative-exec/clog"
)

// HandlerFunc computes a response for a single request received over DDA. It
// plays the role of the teacher's Computation.PartialCompute on the worker
// side, but is request/response rather than registry-dispatched.
type HandlerFunc func(ctx context.Context, request []byte) (response []byte, err error)

// A Server answers speculative-exec.detect actions received from a co-located
// DDA sidecar by invoking a HandlerFunc, exactly as the teacher's Worker
// subscribes to ActionTypeCompute and answers with handlePartialComputation.
type Server struct {
	*clog.CLogger
	id  string
	dda *dda.Dda
}

// Serve connects to the DDA sidecar reachable at brokerUrl, subscribes to
// speculative-exec.detect actions, and answers each with handler until ctx is
// canceled. It blocks until shutdown completes.
func Serve(ctx context.Context, brokerUrl string, handler HandlerFunc) error {
	id := uuid.NewString()
	s := &Server{CLogger: clog.New("ddarpc-server %s ", clog.ShortID(id)), id: id}

	cfg := config.New()
	cfg.Services.Com.Url = brokerUrl
	cfg.Identity.Name = "cloudstub"
	cfg.Identity.Id = id
	cfg.Apis.Grpc.Disabled = true
	cfg.Apis.GrpcWeb.Disabled = true

	var err error
	if s.dda, err = dda.New(cfg); err != nil {
		return fmt.Errorf("ddarpc: creating dda instance: %w", err)
	}
	defer s.dda.Close()

	if err := s.dda.Open(0); err != nil {
		return fmt.Errorf("ddarpc: opening dda instance: %w", err)
	}

	acs, err := s.dda.SubscribeAction(ctx, api.SubscriptionFilter{Type: ActionType})
	if err != nil {
		return fmt.Errorf("ddarpc: subscribing to %s: %w", ActionType, err)
	}

	for ac := range acs {
		response, err := handler(ctx, ac.Params)
		if err != nil {
			s.Errorf("handler failed for action from %s: %v", clog.ShortID(ac.Source), err)
			continue
		}
		if err := ac.Callback(api.ActionResult{Context: s.id, Data: response}); err != nil {
			s.Errorf("failed publishing action result: %v", err)
		}
	}

	return nil
}
