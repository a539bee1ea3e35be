package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/lgulliver/pdfbinder/pkg/types"
)

var (
	// ErrInvalidSession is returned when a session id cannot name a workspace
	ErrInvalidSession = errors.New("invalid session id")
	// ErrInvalidName is returned for names that are not a single path element
	ErrInvalidName = errors.New("invalid file name")
	// ErrTargetExists is returned when a rename would overwrite another entry
	ErrTargetExists = errors.New("rename target already exists")
)

// WorkspaceStorage maps sessions to directories of documents and thumbnails.
// Callers serialize writes per workspace; implementations do not lock.
type WorkspaceStorage interface {
	// Resolve returns the workspace handle for a session without touching disk
	Resolve(sessionID string) (types.Workspace, error)

	// List returns the parseable documents of a workspace sorted by index.
	// A missing workspace yields an empty list.
	List(ctx context.Context, ws types.Workspace) ([]types.Document, error)

	// Store writes content under name, creating the workspace on first use
	Store(ctx context.Context, ws types.Workspace, name string, content io.Reader) (int64, error)

	// Open opens an entry for reading
	Open(ctx context.Context, ws types.Workspace, name string) (*os.File, error)

	// Exists checks whether an entry is present
	Exists(ctx context.Context, ws types.Workspace, name string) (bool, error)

	// Rename moves an entry, refusing to overwrite an existing one
	Rename(ctx context.Context, ws types.Workspace, from, to string) error

	// Remove deletes an entry; a missing entry is not an error
	Remove(ctx context.Context, ws types.Workspace, name string) error

	// Path returns the filesystem path of an entry
	Path(ws types.Workspace, name string) string

	// Purge removes the workspace and everything in it
	Purge(ctx context.Context, ws types.Workspace) error

	// LastModified returns when the workspace directory last changed.
	// A missing workspace yields the zero time.
	LastModified(ctx context.Context, ws types.Workspace) (time.Time, error)

	// ListStale returns workspaces that have not been modified since olderThan ago
	ListStale(ctx context.Context, olderThan time.Duration) ([]types.Workspace, error)
}
