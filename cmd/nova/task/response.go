// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package task

import (
	"github.com/Wardy-uk/NOVA-sub001/lib/task"
)

// Response types for decoding CBOR responses from the daemon socket.
// Task rows cross the wire as [task.Task] values encoded by their
// json tags; the list envelope mirrors the daemon's response struct.

// listResult is the response for the "task.list" action.
type listResult struct {
	Tasks []task.Task `json:"tasks"`
	Count int         `json:"count"`
}
