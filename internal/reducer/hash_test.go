// SPDX-License-Identifier: MIT

package reducer

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeUniqueHashStable(t *testing.T) {
	payload := map[string]any{"text": "hello", "version": 1}

	h1, err := ComputeUniqueHash("note_version.created", 7, []int64{3, 1, 2}, payload)
	require.NoError(t, err)
	h2, err := ComputeUniqueHash("note_version.created", 7, []int64{1, 2, 3}, payload)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "raw event id order must not affect the hash")
	assert.Len(t, h1, 64)
}

func TestComputeUniqueHashKeyOrderIndependent(t *testing.T) {
	a := json.RawMessage(`{"b":1,"a":"x"}`)
	b := json.RawMessage(`{"a":"x","b":1}`)

	h1, err := ComputeUniqueHash("note_version.created", 7, []int64{1}, a)
	require.NoError(t, err)
	h2, err := ComputeUniqueHash("note_version.created", 7, []int64{1}, b)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "payload key order must not affect the hash")
}

func TestComputeUniqueHashSensitivity(t *testing.T) {
	base, err := ComputeUniqueHash("note_version.created", 7, []int64{1}, map[string]any{"text": "hello"})
	require.NoError(t, err)

	changedPayload, err := ComputeUniqueHash("note_version.created", 7, []int64{1}, map[string]any{"text": "hello!"})
	require.NoError(t, err)
	assert.NotEqual(t, base, changedPayload)

	changedWorkspace, err := ComputeUniqueHash("note_version.created", 8, []int64{1}, map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.NotEqual(t, base, changedWorkspace)

	changedIDs, err := ComputeUniqueHash("note_version.created", 7, []int64{2}, map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.NotEqual(t, base, changedIDs)

	changedType, err := ComputeUniqueHash("note_version.updated", 7, []int64{1}, map[string]any{"text": "hello"})
	require.NoError(t, err)
	assert.NotEqual(t, base, changedType)
}

func TestComputeUniqueHashRejectsUnmarshalablePayload(t *testing.T) {
	_, err := ComputeUniqueHash("note_version.created", 7, []int64{1}, make(chan int))
	require.Error(t, err)
}
