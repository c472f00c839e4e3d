// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

/*
Starts a speculative execution coordinator that races a local detector
against zero or more registered cloud object-detection implementations for
every frame discovered by a glob pattern, returning whichever result arrives
first and is still acceptable at its deadline.

For usage details, run speculate with the command line flag -h or --help.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coatyio/dda/plog"

	"github.com/coatyio/speculative-exec/clog"
	"github.com/coatyio/speculative-exec/coordinator"
	"github.com/coatyio/speculative-exec/detect"
	"github.com/coatyio/speculative-exec/detect/framesource"
	"github.com/coatyio/speculative-exec/transport/ddarpc"
	"github.com/coatyio/speculative-exec/transport/grpcstub"
)

func main() {
	var pattern string
	var localLatency time.Duration
	var clouds cloudFlags
	var help, log bool

	flag.Usage = usage
	flag.StringVar(&pattern, "f", "", "Glob pattern of frame files to process, e.g. testdata/**/*.jpg")
	flag.DurationVar(&localLatency, "local-latency", 20*time.Millisecond, "Artificial latency of the local detector")
	flag.Var(&clouds, "cloud", "Register a cloud implementation as [dda:]address,priority,deadline (repeatable)")
	flag.BoolVar(&log, "l", false, "Show logging output (for debugging)")
	flag.BoolVar(&help, "h", false, "Show usage information")
	flag.Parse()

	if help || pattern == "" {
		usage()
		os.Exit(0)
	}

	if log {
		clog.Enable()
	} else {
		plog.Disable() // disable DDA logging used by ddarpc transports
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Printf("Terminating speculate on signal %v...\n", sig)
		cancel()
	}()

	op := detect.NewOperator(localDetector(localLatency))
	labels := map[int]string{}

	closers, err := registerClouds(op, clouds, labels)
	defer func() {
		for _, c := range closers {
			c()
		}
	}()
	if err != nil {
		fmt.Printf("Failed registering cloud implementations: %v\n", err)
		os.Exit(1)
	}

	src := framesource.New(pattern)
	frames, err := src.Frames()
	if err != nil {
		fmt.Printf("Failed enumerating frames: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Starting speculate over %s with %d cloud implementation(s)...\n", pattern, len(clouds))

frameLoop:
	for frame := range frames {
		select {
		case <-ctx.Done():
			break frameLoop
		default:
		}

		dets, err := op.ProcessMessage(ctx, frame.CapturedAt, frame)
		switch {
		case errors.Is(err, coordinator.ErrDeadlineMissed):
			fmt.Printf("%s: deadline missed\n", frame.ID)
		case errors.Is(err, coordinator.ErrAllFailed):
			fmt.Printf("%s: all implementations failed\n", frame.ID)
		case err != nil:
			fmt.Printf("%s: %v\n", frame.ID, err)
		default:
			fmt.Printf("%s: %d detection(s)\n", frame.ID, len(dets))
		}
	}

	printReport(os.Stdout, op.Telemetry(), labels)
	fmt.Printf("Cloud implementations currently reachable: %d/%d\n", op.Availability().Count(), len(clouds))
}

// localDetector wraps detect.DummyDetector with an artificial processing
// latency, so that registered cloud implementations have a realistic chance
// of winning the race during a demo run.
func localDetector(latency time.Duration) detect.Detector {
	return func(ctx context.Context, frame detect.Frame) (detect.Detections, error) {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return detect.DummyDetector(ctx, frame)
	}
}

// registerClouds dials every requested cloud implementation and registers it
// with op, returning closers to release the underlying connections on
// shutdown.
func registerClouds(op *detect.Operator, specs cloudFlags, labels map[int]string) ([]func(), error) {
	var closers []func()

	for _, spec := range specs {
		spec := spec // each builder must report its own spec's deadline
		build := func(ctx context.Context, ts time.Time, frame detect.Frame) ([]byte, coordinator.Deadline, bool, error) {
			request, err := detect.EncodeFrame(frame)
			if err != nil {
				return nil, coordinator.Deadline{}, false, err
			}
			return request, coordinator.NewRelativeDeadline(spec.deadline), true, nil
		}

		switch spec.transport {
		case "dda":
			endpoint, err := ddarpc.Dial(spec.address)
			if err != nil {
				return closers, err
			}
			closers = append(closers, endpoint.Close)
			labels[spec.priority] = fmt.Sprintf("dda:%s", spec.address)
			op.RegisterCloud(detect.NewCloudImplementation(endpoint, build, detect.DecodeDetections, spec.priority))
		default:
			endpoint, err := grpcstub.Dial(spec.address)
			if err != nil {
				return closers, err
			}
			closers = append(closers, endpoint.Close)
			labels[spec.priority] = fmt.Sprintf("grpc:%s", spec.address)
			op.RegisterCloud(detect.NewCloudImplementation(endpoint, build, detect.DecodeDetections, spec.priority))
		}
	}

	return closers, nil
}

func usage() {
	fmt.Print(`usage: speculate [-h|--help] [-l] -f pattern [-local-latency d] [-cloud spec]...

Races a local object detector against registered cloud implementations for
every frame matching the glob pattern, printing the winning result for each
and a timing report at the end.

A -cloud spec has the form [dda:]address,priority,deadline, e.g.
"localhost:50051,0,200ms" to register a grpcstub endpoint, or
"dda:localhost:8900,1,500ms" to register a DDA sidecar endpoint. May be
repeated.

Flags:
`)
	flag.PrintDefaults()
}
