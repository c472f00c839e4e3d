// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package framesource stands in for frame acquisition (explicitly out of
// scope of the coordinator itself; spec.md §1), streaming detect.Frame values
// discovered by a file glob pattern such as "testdata/**/*.jpg", the same way
// the teacher's wf computation discovers input documents by glob.
package framesource

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/coatyio/speculative-exec/clog"
	"github.com/coatyio/speculative-exec/detect"
)

// A Source enumerates frame files matching a glob pattern (supporting ?, *,
// **, [], {} as accepted by doublestar) and streams them as detect.Frames.
type Source struct {
	*clog.CLogger
	pattern string
}

// New creates a Source over the given glob pattern.
func New(pattern string) *Source {
	return &Source{CLogger: clog.New("framesource "), pattern: pattern}
}

// Frames matches the Source's pattern, sorts the matches lexicographically
// for reproducible ordering, and streams their contents as Frames on the
// returned channel, which is closed once every match has been read. Files
// that cannot be opened are skipped with a logged error rather than failing
// the whole enumeration, mirroring the teacher's partitionFile behavior for
// unopenable files.
func (s *Source) Frames() (<-chan detect.Frame, error) {
	matches, err := doublestar.FilepathGlob(s.pattern)
	if err != nil {
		return nil, fmt.Errorf("framesource: bad glob pattern %q: %w", s.pattern, err)
	}
	sort.Strings(matches)

	out := make(chan detect.Frame, 1)
	go func() {
		defer close(out)
		for _, path := range matches {
			data, err := os.ReadFile(filepath.Clean(path))
			if err != nil {
				s.Errorf("skipping unopenable file %s: %v", path, err)
				continue
			}
			out <- detect.Frame{
				ID:         detect.FrameID(filepath.Base(path)),
				Data:       data,
				CapturedAt: time.Now(),
			}
		}
	}()

	return out, nil
}
