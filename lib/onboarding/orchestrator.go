// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package onboarding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Wardy-uk/NOVA-sub001/lib/tracker"
)

// ErrRunInFlight is returned when a live run for the same reference is
// already executing in this process.
var ErrRunInFlight = errors.New("onboarding run already in flight")

// ErrNoGroups is returned when a sale type resolves to no ticket
// groups, either because it is unknown or deactivated or because no
// capability is enabled for it.
var ErrNoGroups = errors.New("sale type resolves to no ticket groups")

// defaultIssueType is the tracker issue type used when the
// configuration does not name one.
const defaultIssueType = "Task"

// onboardingLabel tags every ticket this package creates.
const onboardingLabel = "onboarding"

// Payload identifies the onboarding an Execute call creates tickets
// for. Ref is the idempotency key; Customer appears in the parent
// ticket summary.
type Payload struct {
	Ref      string `json:"ref"`
	Customer string `json:"customer"`
	SaleType string `json:"sale_type"`
}

// Validate checks that all payload fields are present.
func (p Payload) Validate() error {
	if p.Ref == "" {
		return fmt.Errorf("onboarding: payload ref is required")
	}
	if p.Customer == "" {
		return fmt.Errorf("onboarding: payload customer is required")
	}
	if p.SaleType == "" {
		return fmt.Errorf("onboarding: payload sale type is required")
	}
	return nil
}

// Options modify one Execute call.
type Options struct {
	// DryRun computes the tickets a live run would create, without
	// calling the tracker or writing a run record.
	DryRun bool `json:"dry_run,omitempty"`

	// Groups restricts child creation to the named ticket groups,
	// matched by group id or name. Empty means every resolved group.
	// A filtered run can never record success (its children cannot
	// cover the full resolution), so staged rollouts keep later
	// stages runnable.
	Groups []string `json:"groups,omitempty"`
}

// Preview describes one ticket a live run would create. GroupID is
// empty on the parent preview.
type Preview struct {
	Summary      string   `json:"summary"`
	GroupID      string   `json:"group_id,omitempty"`
	GroupName    string   `json:"group_name,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
}

// Result is the outcome of one Execute call. Existing marks a result
// served from the ledger cache; its counts are the recorded run's, and
// the call made no external requests. Previews is populated only for
// dry runs, which have no Status.
type Result struct {
	Ref          string        `json:"ref"`
	Status       RunStatus     `json:"status,omitempty"`
	Existing     bool          `json:"existing,omitempty"`
	ParentKey    string        `json:"parent_key,omitempty"`
	Children     []ChildTicket `json:"children,omitempty"`
	CreatedCount int           `json:"created_count"`
	LinkedCount  int           `json:"linked_count"`
	DryRun       bool          `json:"dry_run,omitempty"`
	Previews     []Preview     `json:"previews,omitempty"`
}

// ParentSummary is the deterministic summary of an onboarding's parent
// ticket. Search-before-create matches on the "Onboarding <ref> -"
// prefix, so a retry finds the parent even after the customer name was
// corrected.
func ParentSummary(ref, customer string) string {
	return fmt.Sprintf("Onboarding %s - %s", ref, customer)
}

// ChildSummary is the deterministic summary of a ticket group's child
// ticket.
func ChildSummary(groupName, ref string) string {
	return fmt.Sprintf("%s - Onboarding %s", groupName, ref)
}

// OrchestratorConfig holds the collaborators an Orchestrator drives.
type OrchestratorConfig struct {
	// Tracker is the external issue tracker client. Required.
	Tracker tracker.Client

	// Matrix provides the capability matrix. Required.
	Matrix *MatrixProvider

	// Ledger records runs. Required.
	Ledger *Ledger

	// Project is the tracker project key created issues land in.
	Project string

	// IssueType is the tracker issue type name. Defaults to "Task".
	IssueType string

	// Logger is used for structured logging. Defaults to a discard
	// logger.
	Logger *slog.Logger
}

// Orchestrator drives the ticket-creation workflow for onboardings.
type Orchestrator struct {
	tracker   tracker.Client
	matrix    *MatrixProvider
	ledger    *Ledger
	project   string
	issueType string
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewOrchestrator validates the configuration and returns an
// Orchestrator.
func NewOrchestrator(config OrchestratorConfig) (*Orchestrator, error) {
	if config.Tracker == nil {
		return nil, fmt.Errorf("onboarding: Tracker is required")
	}
	if config.Matrix == nil {
		return nil, fmt.Errorf("onboarding: Matrix is required")
	}
	if config.Ledger == nil {
		return nil, fmt.Errorf("onboarding: Ledger is required")
	}
	issueType := config.IssueType
	if issueType == "" {
		issueType = defaultIssueType
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Orchestrator{
		tracker:   config.Tracker,
		matrix:    config.Matrix,
		ledger:    config.Ledger,
		project:   config.Project,
		issueType: issueType,
		logger:    logger,
		inFlight:  make(map[string]bool),
	}, nil
}

// Execute runs the onboarding workflow for one reference.
//
// A reference whose run already succeeded is served from the ledger
// with no external calls. Otherwise the sale type is resolved against
// the capability matrix (empty resolution is a hard error), and a dry
// run returns previews at that point. A live run records a pending run,
// then finds or creates the parent ticket, finds or creates one child
// per selected group (per-child failures are logged and skipped), links
// unlinked children to the parent (failures logged, non-fatal), and
// records the outcome. The final status is success only when every
// resolved group has a child.
func (o *Orchestrator) Execute(ctx context.Context, payload Payload, options Options) (result *Result, err error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	prior, err := o.ledger.GetByRef(ctx, payload.Ref)
	if err != nil && !errors.Is(err, ErrNoRun) {
		return nil, err
	}
	if prior != nil && prior.Status == RunSuccess {
		o.logger.Info("onboarding served from ledger",
			"ref", payload.Ref,
			"parent", prior.ParentKey,
			"children", len(prior.Children),
		)
		return &Result{
			Ref:          payload.Ref,
			Status:       RunSuccess,
			Existing:     true,
			ParentKey:    prior.ParentKey,
			Children:     prior.Children,
			CreatedCount: prior.CreatedCount,
			LinkedCount:  prior.LinkedCount,
		}, nil
	}

	resolved := o.matrix.Matrix().Resolve(payload.SaleType)
	if len(resolved) == 0 {
		return nil, fmt.Errorf("onboarding: ref %q sale type %q: %w", payload.Ref, payload.SaleType, ErrNoGroups)
	}
	totalGroups := len(resolved)

	selected, err := filterGroups(resolved, options.Groups)
	if err != nil {
		return nil, err
	}

	if options.DryRun {
		return &Result{
			Ref:      payload.Ref,
			DryRun:   true,
			Previews: buildPreviews(payload, selected),
		}, nil
	}

	if !o.beginRun(payload.Ref) {
		return nil, fmt.Errorf("onboarding: ref %q: %w", payload.Ref, ErrRunInFlight)
	}
	defer o.endRun(payload.Ref)

	runID, err := o.ledger.Create(ctx, &Run{Ref: payload.Ref, Status: RunPending})
	if err != nil {
		return nil, err
	}

	var (
		parentKey    string
		children     []ChildTicket
		createdCount int
		linkedCount  int
	)
	status := RunPending
	errorMessage := ""

	// The run record captures whatever was produced, even when the run
	// fails or ctx is canceled mid-flight, so operators and retries see
	// the last known state.
	defer func() {
		if err != nil {
			status = RunError
			errorMessage = err.Error()
		}
		patch := RunPatch{
			Status:       &status,
			ParentKey:    &parentKey,
			Children:     children,
			CreatedCount: &createdCount,
			LinkedCount:  &linkedCount,
			ErrorMessage: &errorMessage,
		}
		if updateErr := o.ledger.Update(context.WithoutCancel(ctx), runID, patch); updateErr != nil {
			o.logger.Error("recording onboarding outcome failed",
				"ref", payload.Ref,
				"run_id", runID,
				"error", updateErr,
			)
			if err == nil {
				result = nil
				err = updateErr
			}
		}
	}()

	parentKey, parentCreated, err := o.findOrCreateParent(ctx, payload)
	if err != nil {
		return nil, err
	}
	if parentCreated {
		createdCount++
	}

	for _, group := range selected {
		childKey, created, childErr := o.findOrCreateChild(ctx, group, payload.Ref)
		if childErr != nil {
			o.logger.Error("child ticket failed, continuing",
				"ref", payload.Ref,
				"group", group.GroupID,
				"error", childErr,
			)
			continue
		}
		if created {
			createdCount++
		}
		children = append(children, ChildTicket{
			GroupID:   group.GroupID,
			GroupName: group.GroupName,
			IssueKey:  childKey,
		})
	}

	linkedCount = o.linkChildren(ctx, payload.Ref, parentKey, children)

	if len(children) == totalGroups {
		status = RunSuccess
	} else {
		status = RunPartial
	}

	o.logger.Info("onboarding run finished",
		"ref", payload.Ref,
		"status", status,
		"parent", parentKey,
		"children", len(children),
		"created", createdCount,
		"linked", linkedCount,
	)
	return &Result{
		Ref:          payload.Ref,
		Status:       status,
		ParentKey:    parentKey,
		Children:     children,
		CreatedCount: createdCount,
		LinkedCount:  linkedCount,
	}, nil
}

// findOrCreateParent locates the onboarding's parent ticket by its
// deterministic summary prefix, creating it if absent. Reports whether
// a ticket was created.
func (o *Orchestrator) findOrCreateParent(ctx context.Context, payload Payload) (string, bool, error) {
	// The prefix includes the trailing separator so "REF-1" cannot
	// match a "REF-10" parent. Child summaries put the group name
	// first, so they can never carry this prefix.
	prefix := fmt.Sprintf("Onboarding %s -", payload.Ref)
	issues, err := o.tracker.Search(ctx, tracker.SummaryQuery(prefix), []string{tracker.FieldSummary})
	if err != nil {
		return "", false, fmt.Errorf("onboarding: searching for parent of %q: %w", payload.Ref, err)
	}
	for _, issue := range issues {
		if strings.HasPrefix(issue.Summary, prefix) {
			o.logger.Info("parent ticket exists", "ref", payload.Ref, "key", issue.Key)
			return issue.Key, false, nil
		}
	}

	key, err := o.tracker.Create(ctx, tracker.Fields{
		Project:     o.project,
		Type:        o.issueType,
		Summary:     ParentSummary(payload.Ref, payload.Customer),
		Description: fmt.Sprintf("Onboarding %s for %s (sale type %s).", payload.Ref, payload.Customer, payload.SaleType),
		Labels:      []string{onboardingLabel},
	})
	if err != nil {
		return "", false, fmt.Errorf("onboarding: creating parent for %q: %w", payload.Ref, err)
	}
	return key, true, nil
}

// findOrCreateChild locates a ticket group's child ticket by its exact
// deterministic summary, creating it if absent.
func (o *Orchestrator) findOrCreateChild(ctx context.Context, group ResolvedGroup, ref string) (string, bool, error) {
	summary := ChildSummary(group.GroupName, ref)
	issues, err := o.tracker.Search(ctx, tracker.SummaryQuery(summary), []string{tracker.FieldSummary})
	if err != nil {
		return "", false, fmt.Errorf("searching for %q: %w", summary, err)
	}
	// Exact equality: the query is a substring match, and "REF-1" is a
	// substring of "REF-12".
	for _, issue := range issues {
		if issue.Summary == summary {
			return issue.Key, false, nil
		}
	}

	key, err := o.tracker.Create(ctx, tracker.Fields{
		Project:     o.project,
		Type:        o.issueType,
		Summary:     summary,
		Description: childDescription(group),
		Labels:      []string{onboardingLabel},
	})
	if err != nil {
		return "", false, fmt.Errorf("creating %q: %w", summary, err)
	}
	return key, true, nil
}

// linkChildren records a "child blocks parent" link for every child not
// already linked, returning the number of links created. All failures
// here are logged and absorbed.
func (o *Orchestrator) linkChildren(ctx context.Context, ref, parentKey string, children []ChildTicket) int {
	if len(children) == 0 {
		return 0
	}

	parent, err := o.tracker.Get(ctx, parentKey, []string{tracker.FieldLinks})
	if err != nil {
		// Without the link list, assume nothing is linked and let the
		// tracker arbitrate duplicates.
		o.logger.Warn("reading parent links failed",
			"ref", ref,
			"parent", parentKey,
			"error", err,
		)
		parent = tracker.Issue{Key: parentKey}
	}

	linked := 0
	for _, child := range children {
		if parent.LinkedFrom(tracker.LinkTypeBlocks, child.IssueKey) {
			continue
		}
		link := tracker.Link{Type: tracker.LinkTypeBlocks, Inward: parentKey, Outward: child.IssueKey}
		if err := o.tracker.CreateLink(ctx, link); err != nil {
			o.logger.Error("linking child failed, continuing",
				"ref", ref,
				"parent", parentKey,
				"child", child.IssueKey,
				"error", err,
			)
			continue
		}
		linked++
	}
	return linked
}

// buildPreviews renders the parent and child tickets a live run would
// create for the selected groups.
func buildPreviews(payload Payload, groups []ResolvedGroup) []Preview {
	previews := make([]Preview, 0, len(groups)+1)
	previews = append(previews, Preview{
		Summary: ParentSummary(payload.Ref, payload.Customer),
	})
	for _, group := range groups {
		previews = append(previews, Preview{
			Summary:      ChildSummary(group.GroupName, payload.Ref),
			GroupID:      group.GroupID,
			GroupName:    group.GroupName,
			Capabilities: group.CapabilityNames(),
		})
	}
	return previews
}

// childDescription renders a child ticket's capability and item list.
func childDescription(group ResolvedGroup) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Onboarding work for the %s ticket group.\n", group.GroupName)
	for _, capability := range group.Capabilities {
		fmt.Fprintf(&builder, "\n%s:\n", capability.Name)
		for _, item := range capability.Items {
			if item.BoltOn {
				fmt.Fprintf(&builder, "  - %s (bolt-on)\n", item.Name)
			} else {
				fmt.Fprintf(&builder, "  - %s\n", item.Name)
			}
		}
	}
	return builder.String()
}

// filterGroups restricts a resolution to the named groups, preserving
// resolution order. An unknown name is an error so a typo fails loudly
// instead of silently creating nothing.
func filterGroups(resolved []ResolvedGroup, names []string) ([]ResolvedGroup, error) {
	if len(names) == 0 {
		return resolved, nil
	}

	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	var selected []ResolvedGroup
	matched := make(map[string]bool, len(names))
	for _, group := range resolved {
		if wanted[group.GroupID] || wanted[group.GroupName] {
			selected = append(selected, group)
			matched[group.GroupID] = true
			matched[group.GroupName] = true
		}
	}
	for _, name := range names {
		if !matched[name] {
			return nil, fmt.Errorf("onboarding: ticket group %q is not in this sale type's resolution", name)
		}
	}
	return selected, nil
}

// beginRun marks a reference as executing. Returns false when a run
// for it is already in flight.
func (o *Orchestrator) beginRun(ref string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[ref] {
		return false
	}
	o.inFlight[ref] = true
	return true
}

// endRun clears a reference's in-flight mark.
func (o *Orchestrator) endRun(ref string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, ref)
}
