package workspace

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lgulliver/pdfbinder/internal/common"
	"github.com/lgulliver/pdfbinder/internal/metrics"
	"github.com/lgulliver/pdfbinder/internal/storage"
	"github.com/lgulliver/pdfbinder/pkg/types"
	"github.com/lgulliver/pdfbinder/pkg/utils"
	"github.com/rs/zerolog/log"
)

// ThumbnailRenderer writes a PNG preview of a document's first page
type ThumbnailRenderer interface {
	Thumbnail(ctx context.Context, pdfPath string, w io.Writer) error
}

// PDFEngine inspects and concatenates PDF documents
type PDFEngine interface {
	Merge(ctx context.Context, inputs []io.ReadSeeker, w io.Writer) error
	PageCount(rs io.ReadSeeker) (int, error)
}

// Manager keeps every session's documents in a dense 1..N index order.
// All operations on one session are serialized; sessions never share state.
type Manager struct {
	store    storage.WorkspaceStorage
	counters common.CounterStore
	thumbs   ThumbnailRenderer
	pdf      PDFEngine
	locks    *sessionLocks
}

// NewManager creates a workspace manager
func NewManager(store storage.WorkspaceStorage, counters common.CounterStore, thumbs ThumbnailRenderer, pdf PDFEngine) *Manager {
	return &Manager{
		store:    store,
		counters: counters,
		thumbs:   thumbs,
		pdf:      pdf,
		locks:    newSessionLocks(),
	}
}

// List returns the session's documents in index order
func (m *Manager) List(ctx context.Context, sessionID string) (docs []types.Document, err error) {
	start := time.Now()
	defer func() { m.observe("list", start, err) }()

	ws, err := m.store.Resolve(sessionID)
	if err != nil {
		return nil, classify(err, "list")
	}

	unlock := m.locks.lock(ws.SessionID)
	defer unlock()

	docs, err = m.listLocked(ctx, ws)
	return docs, classify(err, "list")
}

// Insert stores content as the last document of the session
func (m *Manager) Insert(ctx context.Context, sessionID, originalName string, content io.ReadSeeker) (doc types.Document, err error) {
	start := time.Now()
	defer func() { m.observe("insert", start, err) }()

	name := utils.SanitizeFilename(originalName)
	if name == "" || !utils.IsAllowedDocument(name) {
		return types.Document{}, fmt.Errorf("insert: %w: %q is not a PDF file name", ErrInvalidInput, originalName)
	}

	ws, err := m.store.Resolve(sessionID)
	if err != nil {
		return types.Document{}, classify(err, "insert")
	}

	pages, err := m.pdf.PageCount(content)
	if err != nil || pages < 1 {
		log.Debug().Err(err).Str("session_id", ws.SessionID).Str("name", name).Msg("rejected unreadable upload")
		return types.Document{}, fmt.Errorf("insert: %w: %q is not a readable PDF document", ErrInvalidInput, originalName)
	}
	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return types.Document{}, classify(err, "insert")
	}

	unlock := m.locks.lock(ws.SessionID)
	defer unlock()

	docs, err := m.listLocked(ctx, ws)
	if err != nil {
		return types.Document{}, classify(err, "insert")
	}

	expected := len(docs) + 1
	index, err := m.counters.Get(ctx, ws.SessionID)
	if err != nil {
		log.Warn().Err(err).Str("session_id", ws.SessionID).Msg("failed to read next-index counter, using listing")
		index = expected
	}
	if index != expected {
		log.Warn().
			Str("session_id", ws.SessionID).
			Int("counter", index).
			Int("expected", expected).
			Msg("next-index counter disagrees with workspace, using listing")
		metrics.CounterDriftTotal.Inc()
		index = expected
	}

	doc = types.Document{Index: index, OriginalName: name}
	// A preview left over from an earlier document must not be served for this one
	if err := m.store.Remove(ctx, ws, doc.ThumbnailName()); err != nil {
		return types.Document{}, classify(err, "insert")
	}
	size, err := m.store.Store(ctx, ws, doc.FileName(), content)
	if err != nil {
		return types.Document{}, classify(err, "insert")
	}
	doc.Size = size

	if err := m.counters.Set(ctx, ws.SessionID, index+1); err != nil {
		log.Warn().Err(err).Str("session_id", ws.SessionID).Msg("failed to advance next-index counter")
	}

	metrics.UploadedBytesTotal.Add(float64(size))
	log.Info().
		Str("session_id", ws.SessionID).
		Int("index", doc.Index).
		Str("name", doc.OriginalName).
		Int("pages", pages).
		Msg("document inserted")

	return doc, nil
}

// Delete removes the document at index and closes the gap it leaves
func (m *Manager) Delete(ctx context.Context, sessionID string, index int) (err error) {
	start := time.Now()
	defer func() { m.observe("delete", start, err) }()

	return m.delete(ctx, sessionID, fmt.Sprintf("index %d", index), func(doc types.Document) bool {
		return doc.Index == index
	})
}

// DeleteDocument removes the document stored under name. Unlike Delete it
// refuses to act when the index now belongs to a different file.
func (m *Manager) DeleteDocument(ctx context.Context, sessionID, name string) (err error) {
	start := time.Now()
	defer func() { m.observe("delete", start, err) }()

	if _, ok := types.ParseDocumentName(name); !ok {
		return fmt.Errorf("delete: %w: %q is not a document name", ErrInvalidInput, name)
	}
	return m.delete(ctx, sessionID, name, func(doc types.Document) bool {
		return doc.FileName() == name
	})
}

func (m *Manager) delete(ctx context.Context, sessionID, ref string, match func(types.Document) bool) error {
	ws, err := m.store.Resolve(sessionID)
	if err != nil {
		return classify(err, "delete")
	}

	unlock := m.locks.lock(ws.SessionID)
	defer unlock()

	docs, err := m.listLocked(ctx, ws)
	if err != nil {
		return classify(err, "delete")
	}

	pos := -1
	for i, doc := range docs {
		if match(doc) {
			pos = i
			break
		}
	}
	if pos < 0 {
		return fmt.Errorf("delete %s: %w", ref, ErrNotFound)
	}

	target := docs[pos]
	if err := m.store.Remove(ctx, ws, target.FileName()); err != nil {
		return classify(err, "delete")
	}
	if err := m.store.Remove(ctx, ws, target.ThumbnailName()); err != nil {
		log.Warn().Err(err).Str("session_id", ws.SessionID).Str("name", target.ThumbnailName()).Msg("failed to remove thumbnail")
	}

	remaining := make([]types.Document, 0, len(docs)-1)
	remaining = append(remaining, docs[:pos]...)
	remaining = append(remaining, docs[pos+1:]...)

	if err := m.applyMoves(ctx, ws, compactionPlan(remaining), "compact"); err != nil {
		return classify(err, "delete")
	}
	m.syncCounter(ctx, ws, len(remaining))

	log.Info().
		Str("session_id", ws.SessionID).
		Int("index", target.Index).
		Str("name", target.OriginalName).
		Int("remaining", len(remaining)).
		Msg("document deleted")
	return nil
}

// Reorder gives the document at listing position positions[i] the index i+1.
// positions must be a permutation of 1..N; otherwise nothing is changed.
func (m *Manager) Reorder(ctx context.Context, sessionID string, positions []int) (err error) {
	start := time.Now()
	defer func() { m.observe("reorder", start, err) }()

	ws, err := m.store.Resolve(sessionID)
	if err != nil {
		return classify(err, "reorder")
	}

	unlock := m.locks.lock(ws.SessionID)
	defer unlock()

	docs, err := m.listLocked(ctx, ws)
	if err != nil {
		return classify(err, "reorder")
	}

	moves, err := reorderPlan(docs, positions)
	if err != nil {
		return fmt.Errorf("reorder: %w", err)
	}
	if err := m.applyMoves(ctx, ws, moves, "reorder"); err != nil {
		return classify(err, "reorder")
	}

	log.Info().
		Str("session_id", ws.SessionID).
		Ints("order", positions).
		Int("moved", len(moves)).
		Msg("documents reordered")
	return nil
}

// Purge removes every document and thumbnail and resets the counter
func (m *Manager) Purge(ctx context.Context, sessionID string) (err error) {
	start := time.Now()
	defer func() { m.observe("purge", start, err) }()

	ws, err := m.store.Resolve(sessionID)
	if err != nil {
		return classify(err, "purge")
	}

	unlock := m.locks.lock(ws.SessionID)
	defer unlock()

	return classify(m.purgeLocked(ctx, ws), "purge")
}

func (m *Manager) purgeLocked(ctx context.Context, ws types.Workspace) error {
	if err := m.store.Purge(ctx, ws); err != nil {
		return err
	}
	return m.counters.Reset(ctx, ws.SessionID)
}

// OpenThumbnail returns the PNG preview of the named document, rendering it
// on first request. The caller closes the file.
func (m *Manager) OpenThumbnail(ctx context.Context, sessionID, name string) (f *os.File, err error) {
	start := time.Now()
	defer func() { m.observe("thumbnail", start, err) }()

	if _, ok := types.ParseDocumentName(name); !ok {
		return nil, fmt.Errorf("thumbnail: %w: %q is not a document name", ErrInvalidInput, name)
	}

	ws, err := m.store.Resolve(sessionID)
	if err != nil {
		return nil, classify(err, "thumbnail")
	}

	unlock := m.locks.lock(ws.SessionID)
	defer unlock()

	docs, err := m.listLocked(ctx, ws)
	if err != nil {
		return nil, classify(err, "thumbnail")
	}

	var doc *types.Document
	for i := range docs {
		if docs[i].FileName() == name {
			doc = &docs[i]
			break
		}
	}
	if doc == nil {
		return nil, fmt.Errorf("thumbnail %s: %w", name, ErrNotFound)
	}

	if !doc.HasThumbnail {
		var buf bytes.Buffer
		if err := m.thumbs.Thumbnail(ctx, m.store.Path(ws, doc.FileName()), &buf); err != nil {
			return nil, fmt.Errorf("thumbnail %s: %w: %w", name, ErrIOFailure, err)
		}
		if _, err := m.store.Store(ctx, ws, doc.ThumbnailName(), &buf); err != nil {
			return nil, classify(err, "thumbnail")
		}
		metrics.ThumbnailsRenderedTotal.Inc()
	}

	f, err = m.store.Open(ctx, ws, doc.ThumbnailName())
	return f, classify(err, "thumbnail")
}

// Merge concatenates all documents in index order into w and returns how
// many documents were merged
func (m *Manager) Merge(ctx context.Context, sessionID string, w io.Writer) (n int, err error) {
	start := time.Now()
	defer func() { m.observe("merge", start, err) }()

	ws, err := m.store.Resolve(sessionID)
	if err != nil {
		return 0, classify(err, "merge")
	}

	unlock := m.locks.lock(ws.SessionID)
	defer unlock()

	docs, err := m.listLocked(ctx, ws)
	if err != nil {
		return 0, classify(err, "merge")
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("merge: %w", ErrEmptyWorkspace)
	}

	inputs := make([]io.ReadSeeker, 0, len(docs))
	for _, doc := range docs {
		f, err := m.store.Open(ctx, ws, doc.FileName())
		if err != nil {
			return 0, classify(err, "merge")
		}
		defer f.Close()
		inputs = append(inputs, f)
	}

	if err := m.pdf.Merge(ctx, inputs, w); err != nil {
		return 0, fmt.Errorf("merge: %w: %w", ErrIOFailure, err)
	}

	metrics.MergedDocumentsTotal.Add(float64(len(docs)))
	log.Info().Str("session_id", ws.SessionID).Int("documents", len(docs)).Msg("documents merged")
	return len(docs), nil
}

// SweepStale purges workspaces untouched for longer than olderThan and
// returns how many were removed
func (m *Manager) SweepStale(ctx context.Context, olderThan time.Duration) (int, error) {
	stale, err := m.store.ListStale(ctx, olderThan)
	if err != nil {
		return 0, classify(err, "sweep")
	}

	removed := 0
	for _, ws := range stale {
		purged, err := m.sweepOne(ctx, ws, olderThan)
		if err != nil {
			log.Error().Err(err).Str("session_id", ws.SessionID).Msg("failed to sweep workspace")
			continue
		}
		if purged {
			removed++
		}
	}

	if removed > 0 {
		metrics.WorkspacesSweptTotal.Add(float64(removed))
		log.Info().Int("removed", removed).Dur("older_than", olderThan).Msg("stale workspaces swept")
	}
	return removed, nil
}

func (m *Manager) sweepOne(ctx context.Context, ws types.Workspace, olderThan time.Duration) (bool, error) {
	unlock := m.locks.lock(ws.SessionID)
	defer unlock()

	// The session may have been used since it was listed
	modified, err := m.store.LastModified(ctx, ws)
	if err != nil {
		return false, err
	}
	if modified.IsZero() || time.Since(modified) < olderThan {
		log.Debug().Str("session_id", ws.SessionID).Msg("workspace touched since listing, keeping it")
		return false, nil
	}
	return true, m.purgeLocked(ctx, ws)
}

// listLocked lists the workspace and renumbers it if an interrupted
// operation left gaps or duplicate indices behind
func (m *Manager) listLocked(ctx context.Context, ws types.Workspace) ([]types.Document, error) {
	docs, err := m.store.List(ctx, ws)
	if err != nil || isDense(docs) {
		return docs, err
	}

	log.Warn().
		Str("session_id", ws.SessionID).
		Ints("indices", types.Indices(docs)).
		Msg("workspace index is not dense, repairing")
	metrics.IndexRepairsTotal.Inc()

	if err := m.applyMoves(ctx, ws, compactionPlan(docs), "repair"); err != nil {
		return nil, err
	}
	m.syncCounter(ctx, ws, len(docs))
	return m.store.List(ctx, ws)
}

// syncCounter points the next-index counter just past count documents
func (m *Manager) syncCounter(ctx context.Context, ws types.Workspace, count int) {
	var err error
	if count == 0 {
		err = m.counters.Reset(ctx, ws.SessionID)
	} else {
		err = m.counters.Set(ctx, ws.SessionID, count+1)
	}
	if err != nil {
		log.Warn().Err(err).Str("session_id", ws.SessionID).Int("count", count).Msg("failed to update next-index counter")
	}
}

func (m *Manager) observe(op string, start time.Time, err error) {
	metrics.WorkspaceOpsTotal.WithLabelValues(op, Kind(err)).Inc()
	metrics.WorkspaceOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
