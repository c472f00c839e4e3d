// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package framesource_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coatyio/speculative-exec/detect/framesource"
)

func TestFrames_EnumeratesMatches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.frame"), []byte("aaa"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.frame"), []byte("bbb"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.other"), []byte("ccc"), 0o600))

	src := framesource.New(filepath.Join(dir, "*.frame"))
	frames, err := src.Frames()
	require.NoError(t, err)

	var got []string
	for f := range frames {
		got = append(got, string(f.ID))
	}
	assert.Equal(t, []string{"a.frame", "b.frame"}, got)
}

func TestFrames_BadPattern(t *testing.T) {
	src := framesource.New("[")
	_, err := src.Frames()
	assert.Error(t, err)
}

func TestFrames_NoMatches_ClosesImmediately(t *testing.T) {
	src := framesource.New(filepath.Join(t.TempDir(), "*.nope"))
	frames, err := src.Frames()
	require.NoError(t, err)

	select {
	case _, ok := <-frames:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
