// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Wardy-uk/NOVA-sub001/lib/codec"
	"github.com/Wardy-uk/NOVA-sub001/lib/snapshot"
)

// --- Request types ---

// snapshotExportRequest is the request for the "snapshot.export"
// action. Path must be absolute: snapshots move through the
// filesystem, not the socket, and the daemon's working directory is
// not the caller's.
type snapshotExportRequest struct {
	Path string `cbor:"path"`
}

// snapshotImportRequest is the request for the "snapshot.import"
// action.
type snapshotImportRequest struct {
	Path string `cbor:"path"`
}

// --- Response types ---

// snapshotExportResponse is the response for the "snapshot.export"
// action.
type snapshotExportResponse struct {
	Path  string `cbor:"path"`
	Tasks int    `cbor:"tasks"`
}

// snapshotImportResponse is the response for the "snapshot.import"
// action.
type snapshotImportResponse struct {
	Path  string `cbor:"path"`
	Tasks int    `cbor:"tasks"`
}

// handleSnapshotExport writes every stored task to a compressed
// snapshot file at the given path.
func (h *taskHub) handleSnapshotExport(ctx context.Context, raw []byte) (any, error) {
	var request snapshotExportRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Path == "" {
		return nil, fmt.Errorf("missing required field: path")
	}
	if !filepath.IsAbs(request.Path) {
		return nil, fmt.Errorf("path must be absolute: %q", request.Path)
	}

	count, err := snapshot.Export(ctx, h.store, h.clock, request.Path)
	if err != nil {
		return nil, err
	}
	h.logger.Info("snapshot exported", "path", request.Path, "tasks", count)
	return snapshotExportResponse{Path: request.Path, Tasks: count}, nil
}

// handleSnapshotImport merges a snapshot file into the store. Existing
// rows are updated by ID, new rows inserted; rows absent from the
// snapshot are left alone.
func (h *taskHub) handleSnapshotImport(ctx context.Context, raw []byte) (any, error) {
	var request snapshotImportRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Path == "" {
		return nil, fmt.Errorf("missing required field: path")
	}
	if !filepath.IsAbs(request.Path) {
		return nil, fmt.Errorf("path must be absolute: %q", request.Path)
	}

	count, err := snapshot.Import(ctx, h.store, request.Path)
	if err != nil {
		return nil, err
	}
	h.logger.Info("snapshot imported", "path", request.Path, "tasks", count)
	return snapshotImportResponse{Path: request.Path, Tasks: count}, nil
}
