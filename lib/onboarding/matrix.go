// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package onboarding

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/tidwall/jsonc"
)

// Matrix is the capability matrix: which capabilities each sale type is
// entitled to, and how capabilities group into ticket groups. Authored
// as a JSONC file (JSON extended with comments and trailing commas).
//
// Declared order is load-bearing. Ticket groups resolve in file order,
// capabilities in group order, items in capability order; the onboarding
// tickets created from a resolution inherit that order.
type Matrix struct {
	SaleTypes    []SaleType    `json:"sale_types"`
	TicketGroups []TicketGroup `json:"ticket_groups"`
	Assignments  []Assignment  `json:"assignments"`
}

// SaleType is one commercial offering. A deactivated sale type resolves
// to nothing, the same as an unknown one.
type SaleType struct {
	Name        string `json:"name"`
	Deactivated bool   `json:"deactivated,omitempty"`
}

// TicketGroup is a bundle of capabilities delivered together under one
// child ticket.
type TicketGroup struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Deactivated  bool         `json:"deactivated,omitempty"`
	Capabilities []Capability `json:"capabilities"`
}

// Capability is one deliverable within a ticket group. A capability
// belongs to exactly one group; Validate rejects a name declared in
// two groups.
type Capability struct {
	Name        string `json:"name"`
	Deactivated bool   `json:"deactivated,omitempty"`
	Items       []Item `json:"items,omitempty"`
}

// Item is one line of work within a capability.
type Item struct {
	Name   string `json:"name"`
	BoltOn bool   `json:"bolt_on,omitempty"`
}

// Assignment enables a capability for a sale type. Capabilities not
// assigned to a sale type are excluded from its resolution.
type Assignment struct {
	SaleType   string `json:"sale_type"`
	Capability string `json:"capability"`
	Enabled    bool   `json:"enabled"`
	Notes      string `json:"notes,omitempty"`
}

// ResolvedGroup is one ticket group a sale type is entitled to, carrying
// only the capabilities enabled for that sale type, in declared order.
type ResolvedGroup struct {
	GroupID      string               `json:"group_id"`
	GroupName    string               `json:"group_name"`
	Capabilities []ResolvedCapability `json:"capabilities"`
}

// ResolvedCapability is one enabled capability within a resolved group.
type ResolvedCapability struct {
	Name  string `json:"name"`
	Items []Item `json:"items,omitempty"`
}

// CapabilityNames returns the group's capability names in order.
func (group ResolvedGroup) CapabilityNames() []string {
	names := make([]string, 0, len(group.Capabilities))
	for _, capability := range group.Capabilities {
		names = append(names, capability.Name)
	}
	return names
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Matrix. Parse does not validate; run
// Validate before trusting the result.
func Parse(data []byte) (*Matrix, error) {
	stripped := jsonc.ToJSON(data)

	var matrix Matrix
	if err := json.Unmarshal(stripped, &matrix); err != nil {
		return nil, fmt.Errorf("parsing capability matrix: %w", err)
	}
	return &matrix, nil
}

// ReadFile reads a JSONC capability matrix file from disk.
func ReadFile(path string) (*Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	matrix, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return matrix, nil
}

// Validate checks a Matrix for structural issues. Returns a list of
// human-readable issue descriptions; an empty list means the matrix is
// valid.
//
// Structural checks include:
//   - Sale type names must be non-empty and unique
//   - Ticket group ids and names must be non-empty and unique (child
//     ticket summaries are derived from group names)
//   - Capability names must be non-empty and belong to only one group
//   - Item names must be non-empty
//   - Assignments must reference a declared sale type and capability
//   - At most one assignment per (sale type, capability) pair
func (m *Matrix) Validate() []string {
	var issues []string

	saleTypes := make(map[string]bool, len(m.SaleTypes))
	for index, saleType := range m.SaleTypes {
		if saleType.Name == "" {
			issues = append(issues, fmt.Sprintf("sale_types[%d]: name is required", index))
			continue
		}
		if saleTypes[saleType.Name] {
			issues = append(issues, fmt.Sprintf("sale_types[%d] %q: duplicate sale type", index, saleType.Name))
		}
		saleTypes[saleType.Name] = true
	}

	groupIDs := make(map[string]bool, len(m.TicketGroups))
	groupNames := make(map[string]bool, len(m.TicketGroups))
	capabilityOwner := make(map[string]string)
	for index, group := range m.TicketGroups {
		prefix := fmt.Sprintf("ticket_groups[%d]", index)
		if group.ID == "" {
			issues = append(issues, fmt.Sprintf("%s: id is required", prefix))
		} else {
			prefix = fmt.Sprintf("%s %q", prefix, group.ID)
			if groupIDs[group.ID] {
				issues = append(issues, fmt.Sprintf("%s: duplicate group id", prefix))
			}
			groupIDs[group.ID] = true
		}
		if group.Name == "" {
			issues = append(issues, fmt.Sprintf("%s: name is required", prefix))
		} else {
			if groupNames[group.Name] {
				issues = append(issues, fmt.Sprintf("%s: duplicate group name %q", prefix, group.Name))
			}
			groupNames[group.Name] = true
		}

		for capabilityIndex, capability := range group.Capabilities {
			capabilityPrefix := fmt.Sprintf("%s.capabilities[%d]", prefix, capabilityIndex)
			if capability.Name == "" {
				issues = append(issues, fmt.Sprintf("%s: name is required", capabilityPrefix))
				continue
			}
			if owner, claimed := capabilityOwner[capability.Name]; claimed {
				issues = append(issues, fmt.Sprintf(
					"%s: capability %q already belongs to group %q",
					capabilityPrefix, capability.Name, owner,
				))
			} else {
				capabilityOwner[capability.Name] = group.ID
			}
			for itemIndex, item := range capability.Items {
				if item.Name == "" {
					issues = append(issues, fmt.Sprintf("%s.items[%d]: name is required", capabilityPrefix, itemIndex))
				}
			}
		}
	}

	type pair struct{ saleType, capability string }
	assigned := make(map[pair]bool, len(m.Assignments))
	for index, assignment := range m.Assignments {
		prefix := fmt.Sprintf("assignments[%d]", index)
		if assignment.SaleType == "" || assignment.Capability == "" {
			issues = append(issues, fmt.Sprintf("%s: sale_type and capability are required", prefix))
			continue
		}
		if !saleTypes[assignment.SaleType] {
			issues = append(issues, fmt.Sprintf("%s: unknown sale type %q", prefix, assignment.SaleType))
		}
		if _, known := capabilityOwner[assignment.Capability]; !known {
			issues = append(issues, fmt.Sprintf("%s: unknown capability %q", prefix, assignment.Capability))
		}
		key := pair{assignment.SaleType, assignment.Capability}
		if assigned[key] {
			issues = append(issues, fmt.Sprintf(
				"%s: duplicate assignment for sale type %q capability %q",
				prefix, assignment.SaleType, assignment.Capability,
			))
		}
		assigned[key] = true
	}

	return issues
}

// Resolve returns the ticket groups a sale type is entitled to, in
// declared order. Deactivated groups and capabilities are excluded, as
// are groups left with no enabled capability. An unknown or deactivated
// sale type resolves to nil; callers must treat an empty resolution as
// a hard error before any external work.
func (m *Matrix) Resolve(saleType string) []ResolvedGroup {
	known := false
	for _, candidate := range m.SaleTypes {
		if candidate.Name == saleType {
			known = !candidate.Deactivated
			break
		}
	}
	if !known {
		return nil
	}

	enabled := make(map[string]bool)
	for _, assignment := range m.Assignments {
		if assignment.SaleType == saleType && assignment.Enabled {
			enabled[assignment.Capability] = true
		}
	}

	var groups []ResolvedGroup
	for _, group := range m.TicketGroups {
		if group.Deactivated {
			continue
		}
		var capabilities []ResolvedCapability
		for _, capability := range group.Capabilities {
			if capability.Deactivated || !enabled[capability.Name] {
				continue
			}
			capabilities = append(capabilities, ResolvedCapability{
				Name:  capability.Name,
				Items: slices.Clone(capability.Items),
			})
		}
		if len(capabilities) == 0 {
			continue
		}
		groups = append(groups, ResolvedGroup{
			GroupID:      group.ID,
			GroupName:    group.Name,
			Capabilities: capabilities,
		})
	}
	return groups
}

// ActiveSaleTypes returns the names of sale types that can currently be
// resolved, in declared order.
func (m *Matrix) ActiveSaleTypes() []string {
	var names []string
	for _, saleType := range m.SaleTypes {
		if !saleType.Deactivated {
			names = append(names, saleType.Name)
		}
	}
	return names
}
