// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// A cloudSpec describes one cloud implementation to register with the
// coordinator, parsed from a repeatable -cloud flag value of the form
// "[dda:]address,priority,deadline", e.g. "localhost:50051,0,200ms" for a
// grpcstub endpoint or "dda:localhost:8900,1,500ms" for a DDA sidecar
// endpoint.
type cloudSpec struct {
	transport string // "grpc" or "dda"
	address   string
	priority  int
	deadline  time.Duration
}

// cloudFlags collects repeated -cloud flag occurrences as a custom flag.Value
// that appends one cloudSpec per occurrence.
type cloudFlags []cloudSpec

func (cf *cloudFlags) String() string {
	if cf == nil || len(*cf) == 0 {
		return ""
	}
	parts := make([]string, len(*cf))
	for i, c := range *cf {
		parts[i] = fmt.Sprintf("%s,%d,%v", c.address, c.priority, c.deadline)
	}
	return strings.Join(parts, "; ")
}

func (cf *cloudFlags) Set(value string) error {
	transport := "grpc"
	if rest, ok := strings.CutPrefix(value, "dda:"); ok {
		transport = "dda"
		value = rest
	}

	fields := strings.Split(value, ",")
	if len(fields) != 3 {
		return fmt.Errorf("cloud spec %q must have the form [dda:]address,priority,deadline", value)
	}

	priority, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return fmt.Errorf("cloud spec %q: invalid priority: %w", value, err)
	}

	deadline, err := time.ParseDuration(strings.TrimSpace(fields[2]))
	if err != nil {
		return fmt.Errorf("cloud spec %q: invalid deadline: %w", value, err)
	}

	*cf = append(*cf, cloudSpec{
		transport: transport,
		address:   strings.TrimSpace(fields[0]),
		priority:  priority,
		deadline:  deadline,
	})
	return nil
}
