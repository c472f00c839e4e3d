// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

/*
Starts a stub cloud object-detection service exercised by a speculate
coordinator as one of its cloud implementations. It stands in for the real
model-hosting service out of scope of this repository (see SPEC_FULL.md's
supplemented features), producing a deterministic Detections result after an
artificial processing latency, the way the original source's
object_detection_server.py did for local experimentation.

For usage details, run cloudstub with the command line flag -h or --help.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coatyio/speculative-exec/clog"
	"github.com/coatyio/speculative-exec/detect"
	"github.com/coatyio/speculative-exec/transport/grpcstub"
)

func main() {
	var address string
	var latency time.Duration
	var help, log bool

	flag.Usage = usage
	flag.StringVar(&address, "a", ":50051", "Address to listen on")
	flag.DurationVar(&latency, "latency", 50*time.Millisecond, "Artificial processing latency per request")
	flag.BoolVar(&log, "l", false, "Show logging output (for debugging)")
	flag.BoolVar(&help, "h", false, "Show usage information")
	flag.Parse()

	if help {
		usage()
		os.Exit(0)
	}

	if log {
		clog.Enable()
	}

	lis, err := net.Listen("tcp", address)
	if err != nil {
		fmt.Printf("Failed to listen on %s: %v\n", address, err)
		os.Exit(1)
	}

	server := grpcstub.NewServer(fakeDetect(latency))

	serveDone := make(chan error, 1)
	go func() { serveDone <- server.Serve(lis) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		fmt.Printf("Terminating cloudstub on signal %v...\n", sig)
		server.Stop()
		<-serveDone
	case err := <-serveDone:
		if err != nil {
			fmt.Printf("cloudstub server stopped: %v\n", err)
		}
	}
}

// fakeDetect decodes a gob-encoded detect.Frame, sleeps for latency to
// simulate model inference, and returns a gob-encoded detect.Detections
// response derived deterministically from the frame, exactly like
// detect.DummyDetector but played out over the wire.
func fakeDetect(latency time.Duration) grpcstub.HandlerFunc {
	return func(ctx context.Context, request []byte) ([]byte, error) {
		frame, err := detect.DecodeFrame(request)
		if err != nil {
			return nil, fmt.Errorf("cloudstub: decode frame: %w", err)
		}

		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		dets, err := detect.DummyDetector(ctx, frame)
		if err != nil {
			return nil, err
		}

		response, err := detect.EncodeDetections(dets)
		if err != nil {
			return nil, fmt.Errorf("cloudstub: encode detections: %w", err)
		}
		return response, nil
	}
}

func usage() {
	fmt.Print(`usage: cloudstub [-h|--help] [-l] [-a address] [-latency duration]

Starts a stub cloud object-detection service for use as a cloud implementation
of a speculate coordinator.

Flags:
`)
	flag.PrintDefaults()
}
