package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/oic-ledger/internal/engine"
	"github.com/google/uuid"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRun   = errors.New("invalid run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateRun checks that a run is complete enough to store.
func validateRun(run *engine.Run) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if run.ID == uuid.Nil {
		return fmt.Errorf("%w: missing ID", ErrInvalidRun)
	}
	if run.Household == nil || !run.Household.Finalized {
		return fmt.Errorf("%w: household not finalized", ErrInvalidRun)
	}
	if run.Household.Taxpayer == nil {
		return fmt.Errorf("%w: missing taxpayer", ErrInvalidRun)
	}
	return nil
}
