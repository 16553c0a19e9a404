// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package onboarding

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
)

// MatrixProvider serves the currently loaded capability matrix. Reload
// parses and validates the whole file before swapping the in-memory
// matrix, so readers observe either the old matrix or the new one,
// never a half-applied edit, and a bad file leaves the running matrix
// untouched.
type MatrixProvider struct {
	path    string
	logger  *slog.Logger
	current atomic.Pointer[Matrix]
}

// OpenMatrix loads the capability matrix at path. The initial load must
// succeed; later Reload failures keep the last good matrix.
func OpenMatrix(path string, logger *slog.Logger) (*MatrixProvider, error) {
	if path == "" {
		return nil, fmt.Errorf("onboarding: matrix path is required")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	provider := &MatrixProvider{path: path, logger: logger}
	if err := provider.Reload(); err != nil {
		return nil, err
	}
	return provider, nil
}

// Matrix returns the currently loaded matrix. The returned value is
// shared and must be treated as read-only.
func (provider *MatrixProvider) Matrix() *Matrix {
	return provider.current.Load()
}

// Reload re-reads the matrix file and swaps it in atomically. On any
// parse or validation failure the previous matrix stays in service.
func (provider *MatrixProvider) Reload() error {
	matrix, err := ReadFile(provider.path)
	if err != nil {
		return fmt.Errorf("onboarding: %w", err)
	}
	if issues := matrix.Validate(); len(issues) > 0 {
		return fmt.Errorf("onboarding: matrix %s is invalid: %s", provider.path, strings.Join(issues, "; "))
	}

	provider.current.Store(matrix)
	provider.logger.Info("capability matrix loaded",
		"path", provider.path,
		"sale_types", len(matrix.SaleTypes),
		"ticket_groups", len(matrix.TicketGroups),
		"assignments", len(matrix.Assignments),
	)
	return nil
}
