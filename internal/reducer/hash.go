// SPDX-License-Identifier: MIT

package reducer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ComputeUniqueHash derives the deduplication hash of a semantic event:
// sha256 over "event_type|workspace_id|sorted_ids_csv|payload_hash", where
// payload_hash is the sha256 of the canonical JSON encoding of the payload.
// Raw-event id order and payload key order do not affect the result; any
// payload content change does.
func ComputeUniqueHash(eventType string, workspaceID int64, rawEventIDs []int64, payload any) (string, error) {
	canonical, err := canonicalJSON(payload)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	payloadSum := sha256.Sum256(canonical)

	ids := make([]int64, len(rawEventIDs))
	copy(ids, rawEventIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}

	material := fmt.Sprintf("%s|%d|%s|%s",
		eventType, workspaceID, strings.Join(parts, ","), hex.EncodeToString(payloadSum[:]))
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:]), nil
}

// canonicalJSON produces a compact, key-sorted JSON encoding. Round-tripping
// through an untyped value makes encoding/json sort all object keys.
func canonicalJSON(payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}
