// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"testing"

	"github.com/Wardy-uk/NOVA-sub001/lib/onboarding"
)

// runOnboarding executes one live onboarding run over the socket.
func runOnboarding(t *testing.T, env *testEnv, ref string) onboarding.Result {
	t.Helper()
	var result onboarding.Result
	err := env.client.Call(context.Background(), "onboarding.run", map[string]any{
		"ref":       ref,
		"customer":  "Acme",
		"sale_type": "BYM",
	}, &result)
	if err != nil {
		t.Fatalf("onboarding.run %s: %v", ref, err)
	}
	return result
}

// --- onboarding.run tests ---

func TestOnboardingRunCreatesTicketFamily(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()

	result := runOnboarding(t, env, "OB-1001")

	if result.Status != onboarding.RunSuccess {
		t.Errorf("status = %q, want success", result.Status)
	}
	if result.Existing {
		t.Error("first run should not be marked existing")
	}
	if result.ParentKey != "OB-1" {
		t.Errorf("parent = %q, want OB-1", result.ParentKey)
	}
	if len(result.Children) != 2 {
		t.Fatalf("children = %d, want 2", len(result.Children))
	}
	if result.Children[0].GroupID != "billing" || result.Children[1].GroupID != "hardware" {
		t.Errorf("child groups = %s/%s, want billing/hardware",
			result.Children[0].GroupID, result.Children[1].GroupID)
	}
	if result.CreatedCount != 3 {
		t.Errorf("created = %d, want 3", result.CreatedCount)
	}
	if result.LinkedCount != 2 {
		t.Errorf("linked = %d, want 2", result.LinkedCount)
	}

	if issues := env.tracker.Issues(); len(issues) != 3 {
		t.Errorf("tracker issues = %d, want 3", len(issues))
	}
	if links := env.tracker.Links(); len(links) != 2 {
		t.Errorf("tracker links = %d, want 2", len(links))
	}
}

func TestOnboardingRunIsIdempotent(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()

	first := runOnboarding(t, env, "OB-1002")
	creates := env.tracker.CreateCalls()

	second := runOnboarding(t, env, "OB-1002")
	if !second.Existing {
		t.Error("second run should be served from the ledger")
	}
	if second.ParentKey != first.ParentKey {
		t.Errorf("parent = %q, want %q", second.ParentKey, first.ParentKey)
	}
	if second.CreatedCount != first.CreatedCount {
		t.Errorf("created = %d, want %d", second.CreatedCount, first.CreatedCount)
	}
	if env.tracker.CreateCalls() != creates {
		t.Errorf("replay made %d extra tracker creates", env.tracker.CreateCalls()-creates)
	}
}

func TestOnboardingRunAdoptsSeededParent(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()

	seeded := env.tracker.Seed(onboarding.ParentSummary("OB-1003", "Acme"))

	result := runOnboarding(t, env, "OB-1003")
	if result.ParentKey != seeded {
		t.Errorf("parent = %q, want adopted %q", result.ParentKey, seeded)
	}
	// Only the two children were created.
	if result.CreatedCount != 2 {
		t.Errorf("created = %d, want 2", result.CreatedCount)
	}
}

func TestOnboardingDryRunPreviewsWithoutSideEffects(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()
	ctx := context.Background()

	var result onboarding.Result
	err := env.client.Call(ctx, "onboarding.run", map[string]any{
		"ref":       "OB-2002",
		"customer":  "Acme",
		"sale_type": "BYM",
		"dry_run":   true,
	}, &result)
	if err != nil {
		t.Fatalf("onboarding.run dry: %v", err)
	}

	if !result.DryRun {
		t.Error("result should be marked dry_run")
	}
	if len(result.Previews) != 3 {
		t.Fatalf("previews = %d, want parent plus 2 children", len(result.Previews))
	}
	if result.Previews[0].Summary != "Onboarding OB-2002 - Acme" {
		t.Errorf("parent preview = %q", result.Previews[0].Summary)
	}
	if result.Previews[1].Summary != "Billing - Onboarding OB-2002" {
		t.Errorf("child preview = %q", result.Previews[1].Summary)
	}

	if env.tracker.SearchCalls() != 0 || env.tracker.CreateCalls() != 0 {
		t.Error("dry run must not touch the tracker")
	}
	err = env.client.Call(ctx, "onboarding.show", map[string]any{"ref": "OB-2002"}, nil)
	requireServiceError(t, err, "not found")
}

func TestOnboardingRunGroupFilterRecordsPartial(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()

	var result onboarding.Result
	err := env.client.Call(context.Background(), "onboarding.run", map[string]any{
		"ref":       "OB-3003",
		"customer":  "Acme",
		"sale_type": "BYM",
		"groups":    []string{"billing"},
	}, &result)
	if err != nil {
		t.Fatalf("onboarding.run: %v", err)
	}

	if result.Status != onboarding.RunPartial {
		t.Errorf("status = %q, want partial", result.Status)
	}
	if len(result.Children) != 1 || result.Children[0].GroupID != "billing" {
		t.Errorf("children = %+v, want billing only", result.Children)
	}
}

func TestOnboardingRunUnknownSaleType(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()

	err := env.client.Call(context.Background(), "onboarding.run", map[string]any{
		"ref":       "OB-4004",
		"customer":  "Acme",
		"sale_type": "Enterprise",
	}, nil)
	requireServiceError(t, err, "resolves to no ticket groups")
}

func TestOnboardingRunRequiresPayloadFields(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()

	err := env.client.Call(context.Background(), "onboarding.run", map[string]any{
		"ref":       "OB-5005",
		"sale_type": "BYM",
	}, nil)
	requireServiceError(t, err, "customer is required")
}

// --- onboarding.show and onboarding.recent tests ---

func TestOnboardingShowReturnsRecordedRun(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()

	runOnboarding(t, env, "OB-6006")

	var run onboarding.Run
	err := env.client.Call(context.Background(), "onboarding.show", map[string]any{
		"ref": "OB-6006",
	}, &run)
	if err != nil {
		t.Fatalf("onboarding.show: %v", err)
	}
	if run.Ref != "OB-6006" || run.Status != onboarding.RunSuccess {
		t.Errorf("run = %s/%s, want OB-6006/success", run.Ref, run.Status)
	}
	if len(run.Children) != 2 {
		t.Errorf("children = %d, want 2", len(run.Children))
	}
}

func TestOnboardingShowValidation(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()
	ctx := context.Background()

	err := env.client.Call(ctx, "onboarding.show", nil, nil)
	requireServiceError(t, err, "missing required field: ref")

	err = env.client.Call(ctx, "onboarding.show", map[string]any{"ref": "OB-404"}, nil)
	requireServiceError(t, err, "not found")
}

func TestOnboardingRecentNewestFirst(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()

	runOnboarding(t, env, "OB-7007")
	runOnboarding(t, env, "OB-7008")

	var response struct {
		Runs  []onboarding.Run `cbor:"runs"`
		Count int              `cbor:"count"`
	}
	if err := env.client.Call(context.Background(), "onboarding.recent", nil, &response); err != nil {
		t.Fatalf("onboarding.recent: %v", err)
	}
	if response.Count != 2 {
		t.Fatalf("count = %d, want 2", response.Count)
	}
	if response.Runs[0].Ref != "OB-7008" {
		t.Errorf("first run = %s, want newest OB-7008", response.Runs[0].Ref)
	}
}

// --- matrix tests ---

func TestOnboardingMatrixSummary(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()

	var response struct {
		Path         string   `cbor:"path"`
		SaleTypes    []string `cbor:"sale_types"`
		TicketGroups int      `cbor:"ticket_groups"`
		Assignments  int      `cbor:"assignments"`
	}
	if err := env.client.Call(context.Background(), "onboarding.matrix", nil, &response); err != nil {
		t.Fatalf("onboarding.matrix: %v", err)
	}

	if response.Path != env.hub.config.Paths.MatrixFile {
		t.Errorf("path = %q, want %q", response.Path, env.hub.config.Paths.MatrixFile)
	}
	// Legacy is deactivated and excluded.
	want := []string{"BYM", "Lite"}
	if len(response.SaleTypes) != 2 || response.SaleTypes[0] != want[0] || response.SaleTypes[1] != want[1] {
		t.Errorf("sale_types = %v, want %v", response.SaleTypes, want)
	}
	if response.TicketGroups != 2 {
		t.Errorf("ticket_groups = %d, want 2", response.TicketGroups)
	}
	if response.Assignments != 3 {
		t.Errorf("assignments = %d, want 3", response.Assignments)
	}
}

func TestOnboardingReloadMatrixSwapsInNewFile(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()
	ctx := context.Background()

	changed := hubMatrix()
	changed.SaleTypes = append(changed.SaleTypes, onboarding.SaleType{Name: "Premium"})
	writeHubMatrix(t, env.hub.config.Paths.MatrixFile, changed)

	var response struct {
		SaleTypes []string `cbor:"sale_types"`
	}
	if err := env.client.Call(ctx, "onboarding.reload-matrix", nil, &response); err != nil {
		t.Fatalf("onboarding.reload-matrix: %v", err)
	}
	if len(response.SaleTypes) != 3 {
		t.Errorf("sale_types after reload = %v, want 3 active", response.SaleTypes)
	}
}

func TestOnboardingReloadMatrixKeepsLastGoodOnFailure(t *testing.T) {
	env := newTestHub(t, testHubOpts{onboarding: true})
	defer env.cleanup()
	ctx := context.Background()

	broken := hubMatrix()
	broken.SaleTypes = append(broken.SaleTypes, onboarding.SaleType{Name: "BYM"})
	writeHubMatrix(t, env.hub.config.Paths.MatrixFile, broken)

	err := env.client.Call(ctx, "onboarding.reload-matrix", nil, nil)
	requireServiceError(t, err, "duplicate sale type")

	var response struct {
		SaleTypes []string `cbor:"sale_types"`
	}
	if err := env.client.Call(ctx, "onboarding.matrix", nil, &response); err != nil {
		t.Fatalf("onboarding.matrix: %v", err)
	}
	if len(response.SaleTypes) != 2 {
		t.Errorf("sale_types = %v, want the previous matrix intact", response.SaleTypes)
	}
}

// --- disabled hub tests ---

func TestOnboardingActionsWithoutTracker(t *testing.T) {
	env := newTestHub(t, testHubOpts{})
	defer env.cleanup()
	ctx := context.Background()

	actions := []string{
		"onboarding.run",
		"onboarding.show",
		"onboarding.recent",
		"onboarding.matrix",
		"onboarding.reload-matrix",
	}
	for _, action := range actions {
		err := env.client.Call(ctx, action, nil, nil)
		requireServiceError(t, err, "onboarding is not configured")
	}
}
