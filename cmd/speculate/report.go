// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rivo/uniseg"

	"github.com/coatyio/speculative-exec/coordinator"
)

// printReport prints a column-aligned summary of per-implementation timing
// telemetry recorded by an Operator, the same way the teacher's word
// frequency computation prints a grapheme-width-aligned word/count table in
// Finalize.
func printReport(w io.Writer, t *coordinator.Telemetry, labels map[int]string) {
	type row struct {
		label string
		n     int
		mean  time.Duration
	}

	var rows []row
	maxlen := 0

	addRow := func(label string, times []time.Duration) {
		if len(times) == 0 {
			return
		}
		var sum time.Duration
		for _, d := range times {
			sum += d
		}
		l := uniseg.StringWidth(label)
		if l > maxlen {
			maxlen = l
		}
		rows = append(rows, row{label: label, n: len(times), mean: sum / time.Duration(len(times))})
	}

	addRow("local", t.LocalTimes())
	for _, p := range t.CloudPriorities() {
		label := labels[p]
		if label == "" {
			label = fmt.Sprintf("cloud[%d]", p)
		}
		addRow(label, t.CloudTimes(p))
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].mean < rows[j].mean })

	fmt.Fprintf(w, "Messages processed: %d\n", len(t.MessageTimes()))
	for _, r := range rows {
		pad := maxlen - uniseg.StringWidth(r.label)
		fmt.Fprintf(w, "  %s%*s: n=%-5d mean=%v\n", r.label, pad, "", r.n, r.mean)
	}
}
