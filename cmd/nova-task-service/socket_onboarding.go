// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/Wardy-uk/NOVA-sub001/lib/codec"
	"github.com/Wardy-uk/NOVA-sub001/lib/onboarding"
)

// --- Request types ---

// onboardingRunRequest is the request for the "onboarding.run" action.
type onboardingRunRequest struct {
	Ref      string `cbor:"ref"`
	Customer string `cbor:"customer"`
	SaleType string `cbor:"sale_type"`

	// DryRun previews the tickets a live run would create without
	// touching the tracker or the ledger.
	DryRun bool `cbor:"dry_run,omitempty"`

	// Groups restricts child creation to the named ticket groups,
	// matched by group id or name.
	Groups []string `cbor:"groups,omitempty"`
}

// onboardingShowRequest is the request for the "onboarding.show"
// action.
type onboardingShowRequest struct {
	Ref string `cbor:"ref"`
}

// onboardingRecentRequest is the request for the "onboarding.recent"
// action.
type onboardingRecentRequest struct {
	Limit int `cbor:"limit,omitempty"`
}

// --- Response types ---
//
// Run outcomes and ledger records cross the wire as
// onboarding.Result and onboarding.Run values, encoded by their json
// tags.

// onboardingRecentResponse is the response for the
// "onboarding.recent" action.
type onboardingRecentResponse struct {
	Runs  []onboarding.Run `cbor:"runs"`
	Count int              `cbor:"count"`
}

// matrixResponse summarizes the loaded capability matrix. SaleTypes
// lists only active ones.
type matrixResponse struct {
	Path         string   `cbor:"path"`
	SaleTypes    []string `cbor:"sale_types"`
	TicketGroups int      `cbor:"ticket_groups"`
	Assignments  int      `cbor:"assignments"`
}

// handleOnboardingRun executes the onboarding ticket workflow for one
// reference: find-or-create the parent ticket, one child per resolved
// ticket group, and the missing child-blocks-parent links. A reference
// with a recorded successful run is answered from the ledger without
// tracker calls.
func (h *taskHub) handleOnboardingRun(ctx context.Context, raw []byte) (any, error) {
	if h.orchestrator == nil {
		return nil, errOnboardingDisabled
	}

	var request onboardingRunRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}

	payload := onboarding.Payload{
		Ref:      request.Ref,
		Customer: request.Customer,
		SaleType: request.SaleType,
	}
	options := onboarding.Options{
		DryRun: request.DryRun,
		Groups: request.Groups,
	}

	result, err := h.orchestrator.Execute(ctx, payload, options)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// handleOnboardingShow returns the most recent ledger record for a
// reference.
func (h *taskHub) handleOnboardingShow(ctx context.Context, raw []byte) (any, error) {
	if h.ledger == nil {
		return nil, errOnboardingDisabled
	}

	var request onboardingShowRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if request.Ref == "" {
		return nil, fmt.Errorf("missing required field: ref")
	}

	return h.ledger.GetByRef(ctx, request.Ref)
}

// handleOnboardingRecent returns the newest ledger records.
func (h *taskHub) handleOnboardingRecent(ctx context.Context, raw []byte) (any, error) {
	if h.ledger == nil {
		return nil, errOnboardingDisabled
	}

	var request onboardingRecentRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}

	runs, err := h.ledger.Recent(ctx, request.Limit)
	if err != nil {
		return nil, err
	}
	return onboardingRecentResponse{Runs: runs, Count: len(runs)}, nil
}

// handleOnboardingMatrix summarizes the currently loaded capability
// matrix.
func (h *taskHub) handleOnboardingMatrix(ctx context.Context, raw []byte) (any, error) {
	if h.matrix == nil {
		return nil, errOnboardingDisabled
	}
	return h.matrixSummary(), nil
}

// handleOnboardingReloadMatrix re-reads the matrix file and swaps it
// in. On failure the previous matrix stays in service and the error
// reports what the file got wrong.
func (h *taskHub) handleOnboardingReloadMatrix(ctx context.Context, raw []byte) (any, error) {
	if h.matrix == nil {
		return nil, errOnboardingDisabled
	}
	if err := h.matrix.Reload(); err != nil {
		return nil, err
	}
	return h.matrixSummary(), nil
}

func (h *taskHub) matrixSummary() matrixResponse {
	matrix := h.matrix.Matrix()
	return matrixResponse{
		Path:         h.config.Paths.MatrixFile,
		SaleTypes:    matrix.ActiveSaleTypes(),
		TicketGroups: len(matrix.TicketGroups),
		Assignments:  len(matrix.Assignments),
	}
}
