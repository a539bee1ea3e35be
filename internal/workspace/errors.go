package workspace

import (
	"errors"
	"fmt"

	"github.com/lgulliver/pdfbinder/internal/storage"
)

var (
	// ErrInvalidInput covers bad file names, types, session ids and permutations
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a referenced document is absent
	ErrNotFound = errors.New("document not found")
	// ErrIOFailure wraps filesystem, counter store and rendering failures
	ErrIOFailure = errors.New("workspace i/o failure")
	// ErrEmptyWorkspace is returned when merging a workspace without documents
	ErrEmptyWorkspace = errors.New("workspace has no documents")
)

// Kind returns a short label for the class of err, suitable for logs and metrics
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrEmptyWorkspace):
		return "empty"
	default:
		return "io_failure"
	}
}

// classify maps lower-level errors onto the manager's error kinds
func classify(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrIOFailure), errors.Is(err, ErrEmptyWorkspace):
		return err
	case errors.Is(err, storage.ErrInvalidSession), errors.Is(err, storage.ErrInvalidName):
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidInput, err)
	case storage.IsNotExist(err):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrIOFailure, err)
	}
}
