// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

// Package clog provides global conditional logging for the coordinator,
// its transports, and the command line tools built on top of it.
package clog

import (
	"fmt"
	"log"
	"strings"
)

var enabled = false

// Enable turns on conditional log output, normally wired to a -l command line
// flag.
func Enable() {
	enabled = true
}

// Disable turns conditional log output back off.
func Disable() {
	enabled = false
}

// A CLogger represents a logger object that logs output in the manner of the
// standard logger but can be conditionally enabled. By default, conditional
// logging is disabled.
type CLogger struct {
	logger *log.Logger // standard logger with prefix
}

// New creates a new conditional logger with the given prefix.
func New(prefixFormat string, prefixArgs ...any) *CLogger {
	return &CLogger{
		log.New(
			log.Default().Writer(),
			fmt.Sprintf(prefixFormat, prefixArgs...),
			log.Ldate|log.Ltime|log.Lmicroseconds|log.Lmsgprefix,
		),
	}
}

// Printf logs output conditionally (if enabled with -l command line option) in
// the manner of log.Printf.
func (c *CLogger) Printf(format string, a ...any) {
	if !enabled {
		return
	}
	c.logger.Printf(format, a...)
}

// Errorf logs output unconditionally, i.e. always, in the manner of log.Printf.
func (c *CLogger) Errorf(format string, a ...any) {
	c.logger.Printf(format, a...)
}

// ShortID returns the first segment of a string in UUID v4 format (up to the
// first hyphen); otherwise the complete string is returned. Used to keep log
// lines readable when components and messages are identified by a full UUID.
func ShortID(id string) string {
	if i := strings.IndexByte(id, '-'); i != -1 {
		return id[:i]
	}
	return id
}
