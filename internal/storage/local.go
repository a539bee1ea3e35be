package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lgulliver/pdfbinder/pkg/types"
	"github.com/rs/zerolog/log"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// LocalStorage implements WorkspaceStorage on the local filesystem.
// Each session owns <basePath>/<session uuid>.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Ensure the base directory exists
	if err := os.MkdirAll(basePath, dirPerm); err != nil {
		log.Error().Err(err).Str("path", basePath).Msg("failed to create storage directory")
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	log.Info().Str("path", basePath).Msg("local workspace storage initialized")
	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Resolve maps a session id to its workspace directory
func (ls *LocalStorage) Resolve(sessionID string) (types.Workspace, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return types.Workspace{}, fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
	}
	return types.Workspace{
		SessionID: id.String(),
		Dir:       filepath.Join(ls.basePath, id.String()),
	}, nil
}

// List scans the workspace directory for documents
func (ls *LocalStorage) List(ctx context.Context, ws types.Workspace) ([]types.Document, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ws.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []types.Document{}, nil
		}
		log.Error().Err(err).Str("session_id", ws.SessionID).Msg("failed to read workspace")
		return nil, fmt.Errorf("failed to read workspace: %w", err)
	}

	present := make(map[string]bool, len(entries))
	for _, entry := range entries {
		present[entry.Name()] = true
	}

	docs := make([]types.Document, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		doc, ok := types.ParseDocumentName(entry.Name())
		if !ok {
			if !types.IsThumbnailName(entry.Name()) {
				log.Debug().Str("session_id", ws.SessionID).Str("name", entry.Name()).Msg("skipping unrecognized workspace entry")
			}
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info
			continue
		}
		doc.Size = info.Size()
		doc.ModTime = info.ModTime()
		doc.HasThumbnail = present[doc.ThumbnailName()]
		docs = append(docs, doc)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Index != docs[j].Index {
			return docs[i].Index < docs[j].Index
		}
		return docs[i].OriginalName < docs[j].OriginalName
	})

	return docs, nil
}

// Store saves content into the workspace with an atomic temp-file rename
func (ls *LocalStorage) Store(ctx context.Context, ws types.Workspace, name string, content io.Reader) (int64, error) {
	startTime := time.Now()

	if err := checkContext(ctx); err != nil {
		return 0, err
	}
	if err := validateName(name); err != nil {
		return 0, err
	}

	if err := os.MkdirAll(ws.Dir, dirPerm); err != nil {
		log.Error().Err(err).Str("session_id", ws.SessionID).Msg("failed to create workspace directory")
		return 0, fmt.Errorf("failed to create workspace directory: %w", err)
	}

	// Temp names start with a dot so List never mistakes them for documents
	tempFile, err := os.CreateTemp(ws.Dir, ".upload-*")
	if err != nil {
		log.Error().Err(err).Str("session_id", ws.SessionID).Msg("failed to create temporary file")
		return 0, fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempPath := tempFile.Name()

	defer func() {
		tempFile.Close()
		if _, err := os.Stat(tempPath); err == nil {
			os.Remove(tempPath)
		}
	}()

	hasher := sha256.New()
	bytesWritten, err := io.Copy(io.MultiWriter(tempFile, hasher), content)
	if err != nil {
		log.Error().Err(err).Str("session_id", ws.SessionID).Str("name", name).Msg("failed to write content to temporary file")
		return 0, fmt.Errorf("failed to write content: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		log.Error().Err(err).Str("session_id", ws.SessionID).Str("name", name).Msg("failed to sync temporary file")
		return 0, fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err := tempFile.Chmod(filePerm); err != nil {
		return 0, fmt.Errorf("failed to set file mode: %w", err)
	}
	tempFile.Close()

	fullPath := ls.Path(ws, name)
	if err := os.Rename(tempPath, fullPath); err != nil {
		log.Error().Err(err).Str("session_id", ws.SessionID).Str("name", name).Msg("failed to move temporary file to final location")
		return 0, fmt.Errorf("failed to move file to final location: %w", err)
	}

	log.Info().
		Str("session_id", ws.SessionID).
		Str("name", name).
		Int64("bytes_written", bytesWritten).
		Str("checksum", hex.EncodeToString(hasher.Sum(nil))).
		Dur("duration", time.Since(startTime)).
		Msg("file stored successfully")

	return bytesWritten, nil
}

// Open opens a workspace entry for reading
func (ls *LocalStorage) Open(ctx context.Context, ws types.Workspace, name string) (*os.File, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	file, err := os.Open(ls.Path(ws, name))
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("session_id", ws.SessionID).Str("name", name).Msg("file not found")
			return nil, fmt.Errorf("file not found: %s: %w", name, os.ErrNotExist)
		}
		log.Error().Err(err).Str("session_id", ws.SessionID).Str("name", name).Msg("failed to open file")
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Exists checks if an entry exists in the workspace
func (ls *LocalStorage) Exists(ctx context.Context, ws types.Workspace, name string) (bool, error) {
	if err := checkContext(ctx); err != nil {
		return false, err
	}
	if err := validateName(name); err != nil {
		return false, err
	}

	_, err := os.Stat(ls.Path(ws, name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		log.Error().Err(err).Str("session_id", ws.SessionID).Str("name", name).Msg("failed to check file existence")
		return false, fmt.Errorf("failed to check file existence: %w", err)
	}
	return true, nil
}

// Rename moves an entry inside the workspace without overwriting
func (ls *LocalStorage) Rename(ctx context.Context, ws types.Workspace, from, to string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := validateName(from); err != nil {
		return err
	}
	if err := validateName(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	target := ls.Path(ws, to)
	if _, err := os.Lstat(target); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, to)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check rename target: %w", err)
	}

	if err := os.Rename(ls.Path(ws, from), target); err != nil {
		log.Error().Err(err).Str("session_id", ws.SessionID).Str("from", from).Str("to", to).Msg("failed to rename file")
		return fmt.Errorf("failed to rename %s to %s: %w", from, to, err)
	}

	log.Debug().Str("session_id", ws.SessionID).Str("from", from).Str("to", to).Msg("file renamed")
	return nil
}

// Remove deletes an entry from the workspace
func (ls *LocalStorage) Remove(ctx context.Context, ws types.Workspace, name string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if err := validateName(name); err != nil {
		return err
	}

	if err := os.Remove(ls.Path(ws, name)); err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("session_id", ws.SessionID).Str("name", name).Msg("file already deleted or does not exist")
			return nil
		}
		log.Error().Err(err).Str("session_id", ws.SessionID).Str("name", name).Msg("failed to delete file")
		return fmt.Errorf("failed to delete file: %w", err)
	}

	log.Info().Str("session_id", ws.SessionID).Str("name", name).Msg("file deleted successfully")
	return nil
}

// Path returns the absolute path of a workspace entry
func (ls *LocalStorage) Path(ws types.Workspace, name string) string {
	return filepath.Join(ws.Dir, name)
}

// Purge removes the workspace directory and all of its entries
func (ls *LocalStorage) Purge(ctx context.Context, ws types.Workspace) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if ws.Dir == "" || filepath.Dir(ws.Dir) != filepath.Clean(ls.basePath) {
		return fmt.Errorf("%w: workspace outside storage root", ErrInvalidSession)
	}

	if err := os.RemoveAll(ws.Dir); err != nil {
		log.Error().Err(err).Str("session_id", ws.SessionID).Msg("failed to purge workspace")
		return fmt.Errorf("failed to purge workspace: %w", err)
	}

	log.Info().Str("session_id", ws.SessionID).Msg("workspace purged")
	return nil
}

// LastModified returns the modification time of the workspace directory
func (ls *LocalStorage) LastModified(ctx context.Context, ws types.Workspace) (time.Time, error) {
	if err := checkContext(ctx); err != nil {
		return time.Time{}, err
	}

	info, err := os.Stat(ws.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to stat workspace: %w", err)
	}
	return info.ModTime(), nil
}

// ListStale returns workspaces whose directory was last modified before the cutoff
func (ls *LocalStorage) ListStale(ctx context.Context, olderThan time.Duration) ([]types.Workspace, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(ls.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage root: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	var stale []types.Workspace
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		ws, err := ls.Resolve(entry.Name())
		if err != nil || ws.SessionID != entry.Name() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			stale = append(stale, ws)
		}
	}

	log.Debug().Int("count", len(stale)).Dur("older_than", olderThan).Msg("stale workspaces listed")
	return stale, nil
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// IsNotExist reports whether err means a workspace entry is missing
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
