// SPDX-FileCopyrightText: © 2023 Siemens AG
// SPDX-License-Identifier: MIT

package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudFlags_SetGrpc(t *testing.T) {
	var cf cloudFlags
	require.NoError(t, cf.Set("localhost:50051,0,200ms"))
	require.Len(t, cf, 1)
	assert.Equal(t, cloudSpec{transport: "grpc", address: "localhost:50051", priority: 0, deadline: 200 * time.Millisecond}, cf[0])
}

func TestCloudFlags_SetDda(t *testing.T) {
	var cf cloudFlags
	require.NoError(t, cf.Set("dda:localhost:8900,1,500ms"))
	require.Len(t, cf, 1)
	assert.Equal(t, "dda", cf[0].transport)
	assert.Equal(t, "localhost:8900", cf[0].address)
}

func TestCloudFlags_SetInvalid(t *testing.T) {
	var cf cloudFlags
	assert.Error(t, cf.Set("missing-fields"))
	assert.Error(t, cf.Set("addr,notanumber,200ms"))
	assert.Error(t, cf.Set("addr,0,notaduration"))
}

func TestCloudFlags_Accumulates(t *testing.T) {
	var cf cloudFlags
	require.NoError(t, cf.Set("a:1,0,100ms"))
	require.NoError(t, cf.Set("b:2,1,200ms"))
	assert.Len(t, cf, 2)
}
